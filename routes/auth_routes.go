package routes

import (
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(api fiber.Router, d Deps, auth []fiber.Handler) {
	limit := middleware.RateLimit(d.Limiter, d.Log)

	api.Post("/register", limit, d.Handler.Register)
	api.Post("/login", limit, d.Handler.Login)
	api.Get("/me", with(auth, d.Handler.Me)...)
}
