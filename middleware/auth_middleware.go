package middleware

import (
	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/models"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
)

const (
	tokenKey  = "user"
	callerKey = "caller"
)

// Protected verifies the bearer token signature and expiry and stores the parsed token.
func Protected(tokens *services.TokenService) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    tokens.SigningKey(),
		SigningMethod: jwtware.HS256,
		ContextKey:    tokenKey,
		ErrorHandler:  jwtError,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	return apperrors.Auth("please authenticate")
}

// CurrentUser resolves the verified token to the live user record. Role checks downstream read
// the stored role, never the token claim.
func CurrentUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals(tokenKey).(*jwt.Token)
		if !ok {
			return apperrors.Auth("please authenticate")
		}
		id, err := services.UserIDFromToken(token)
		if err != nil {
			return apperrors.Auth("please authenticate")
		}
		user, err := auth.ResolveUser(c.UserContext(), id)
		if err != nil {
			return err
		}
		c.Locals(callerKey, user)
		return c.Next()
	}
}

// RequireAuth chains token verification and user resolution.
func RequireAuth(tokens *services.TokenService, auth *services.AuthService) []fiber.Handler {
	return []fiber.Handler{Protected(tokens), CurrentUser(auth)}
}

// Caller returns the user resolved by CurrentUser, or nil on unauthenticated routes.
func Caller(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(callerKey).(*models.User)
	return user
}
