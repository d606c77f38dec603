package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the JSON shape of every error the API returns.
type ErrorBody struct {
	Error    string `json:"error"`
	Response string `json:"response,omitempty"`
}

func ErrorResponse(message string) ErrorBody {
	return ErrorBody{Error: message}
}

// ErrorHandlerMiddleware turns errors returned by handlers into JSON bodies.
// *fiber.Error keeps its code and message, anything else is a 500.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Internal Server Error"))
	}
}
