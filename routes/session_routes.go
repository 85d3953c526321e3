package routes

import "github.com/gofiber/fiber/v2"

func SessionRoutes(api fiber.Router, d Deps, auth []fiber.Handler) {
	api.Get("/sessions", d.Handler.ListSessions)
	api.Post("/sessions", with(auth, d.Handler.CreateSession)...)
	api.Post("/sessions/:id/book", with(auth, d.Handler.BookSession)...)
	api.Get("/my-sessions", with(auth, d.Handler.MySessions)...)
}
