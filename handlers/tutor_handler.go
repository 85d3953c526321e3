package handlers

import "github.com/gofiber/fiber/v2"

func (h *Handler) ListTutors(c *fiber.Ctx) error {
	tutors, err := h.Users.ListTutors(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tutors)
}

func (h *Handler) TutorReviews(c *fiber.Ctx) error {
	reviews, err := h.Reviews.ListForTutor(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(reviews)
}
