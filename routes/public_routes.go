package routes

import (
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/gofiber/fiber/v2"
)

func PublicRoutes(api fiber.Router, d Deps) {
	api.Get("/tutors", d.Handler.ListTutors)
	api.Get("/health", handlers.Health)
}
