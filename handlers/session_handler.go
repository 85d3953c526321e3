package handlers

import (
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) CreateSession(c *fiber.Ctx) error {
	var req services.CreateSessionInput
	if err := parseBody(c, &req); err != nil {
		return err
	}
	session, err := h.Sessions.Create(c.UserContext(), middleware.Caller(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

func (h *Handler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.Sessions.ListAvailable(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(sessions)
}

func (h *Handler) MySessions(c *fiber.Ctx) error {
	sessions, err := h.Sessions.ListMine(c.UserContext(), middleware.Caller(c))
	if err != nil {
		return err
	}
	return c.JSON(sessions)
}

func (h *Handler) BookSession(c *fiber.Ctx) error {
	session, err := h.Sessions.Book(c.UserContext(), middleware.Caller(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(session)
}
