package routes

import (
	"github.com/anjiri1684/tutor_connect/handlers"
	"github.com/anjiri1684/tutor_connect/middleware"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/anjiri1684/tutor_connect/websocket"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Deps struct {
	Handler *handlers.Handler
	Tokens  *services.TokenService
	Hub     *websocket.Hub
	// Limiter guards register and login. Nil disables rate limiting.
	Limiter middleware.Limiter
	Log     *zap.Logger
}

// Setup mounts every route under prefix.
func Setup(app *fiber.App, prefix string, d Deps) {
	api := app.Group(prefix)
	auth := middleware.RequireAuth(d.Tokens, d.Handler.Auth)

	AuthRoutes(api, d, auth)
	SessionRoutes(api, d, auth)
	ReviewRoutes(api, d, auth)
	PublicRoutes(api, d)
	if d.Hub != nil {
		api.Get("/ws", websocket.Upgrade, d.Hub.Handler())
	}
}

func with(chain []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(chain)+1)
	out = append(out, chain...)
	return append(out, h)
}
