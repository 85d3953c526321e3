package handlers

import (
	"errors"

	"github.com/anjiri1684/tutor_connect/apperrors"
	"github.com/anjiri1684/tutor_connect/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the marketplace services over HTTP. Handlers parse input, call one service
// operation and return its error untouched for ErrorHandler to render.
type Handler struct {
	Auth     *services.AuthService
	Users    *services.UserService
	Sessions *services.SessionService
	Reviews  *services.ReviewService
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.Validation("invalid request body")
	}
	return nil
}

// ErrorHandler renders every failure as {"error", "kind"}.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			if appErr.Kind == apperrors.KindInternal || appErr.Status >= fiber.StatusInternalServerError {
				log.Error("request failed",
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Error(err),
				)
			}
			return c.Status(appErr.Status).JSON(fiber.Map{"error": appErr.Message, "kind": appErr.Kind})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			kind := apperrors.KindValidation
			switch {
			case fiberErr.Code == fiber.StatusNotFound:
				kind = apperrors.KindNotFound
			case fiberErr.Code >= fiber.StatusInternalServerError:
				kind = apperrors.KindInternal
				log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message, "kind": kind})
		}

		log.Error("unhandled error", zap.String("method", c.Method()), zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error", "kind": apperrors.KindInternal})
	}
}
