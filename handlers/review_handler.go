package handlers

import (
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateReview(c *fiber.Ctx) error {
	var req services.SubmitReviewInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	review, err := h.Reviews.Submit(c.UserContext(), middleware.Caller(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
