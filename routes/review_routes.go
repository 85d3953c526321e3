package routes

import "github.com/gofiber/fiber/v2"

func ReviewRoutes(api fiber.Router, d Deps, auth []fiber.Handler) {
	api.Post("/reviews", with(auth, d.Handler.CreateReview)...)
	api.Get("/tutors/:id/reviews", d.Handler.TutorReviews)
}
