package serverutils

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// fieldMessages maps "<Field>.<tag>" to the message shown to API callers.
var fieldMessages = map[string]string{
	"Message.required_without": "Message or image is required",
	"SessionId.required":       "Session ID is required",
}

// ValidateRequest runs the struct's validate tags and returns a 400 *fiber.Error
// carrying the message of the first failed field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	first := validationErrs[0]
	if msg, ok := fieldMessages[first.Field()+"."+first.Tag()]; ok {
		return fiber.NewError(fiber.StatusBadRequest, msg)
	}
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s is invalid (%s)", first.Field(), first.Tag()))
}
