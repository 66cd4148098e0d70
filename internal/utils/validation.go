package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// BindingErrorMessage turns gin binding failures into a caller-facing message.
// Anything that is not a field validation error stays generic.
func BindingErrorMessage(err error) string {
	var validationErrors validator.ValidationErrors

	if !errors.As(err, &validationErrors) {
		return "Invalid request"
	}

	var messages []string

	for _, fieldError := range validationErrors {
		field := strings.ToLower(fieldError.Field())

		switch fieldError.Tag() {
		case "required":
			messages = append(messages, field+" is required")
		case "email":
			messages = append(messages, field+" must be a valid email")
		case "min":
			messages = append(messages, field+" must be at least "+fieldError.Param()+" characters")
		case "max":
			messages = append(messages, field+" must be at most "+fieldError.Param()+" characters")
		default:
			messages = append(messages, field+" is invalid")
		}
	}

	return strings.Join(messages, ", ")
}
