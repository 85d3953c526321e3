package middleware

import (
	"context"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit rejects requests once the client IP is over quota. A nil limiter disables it.
func RateLimit(limiter Limiter, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}
		ip := c.IP()
		if !limiter.Allow(c.UserContext(), c.Route().Path+"|"+ip) {
			log.Warn("rate limited", zap.String("ip", ip), zap.String("path", c.Path()))
			return apperrors.RateLimited()
		}
		return c.Next()
	}
}
