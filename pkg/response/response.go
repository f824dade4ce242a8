// Package response provides the JSON envelope used by every API handler.
package response

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the uniform body returned by the HTTP API for both
// successful and failed requests.
type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var (
	EmptyRequestBodyResponse = Response{
		Status:  StatusError,
		Error:   "Bad Request",
		Message: "Empty request body.",
	}

	BadRequestResponse = Response{
		Status:  StatusError,
		Error:   "Bad Request",
		Message: "Failed to decode request body.",
	}

	UnauthorizedResponse = Response{
		Status:  StatusError,
		Error:   "Unauthorized",
		Message: "Invalid or missing API token.",
	}

	ForbiddenResponse = Response{
		Status:  StatusError,
		Error:   "Forbidden",
		Message: "The link belongs to another account.",
	}

	ResourceNotFoundResponse = Response{
		Status:  StatusError,
		Error:   "Not Found",
		Message: "The requested resource was not found.",
	}

	MaliciousURLResponse = Response{
		Status:  StatusError,
		Error:   "Unprocessable Entity",
		Message: "The submitted URL was flagged as unsafe.",
	}

	ServerErrorResponse = Response{
		Status:  StatusError,
		Error:   "Internal Server Error",
		Message: "An unexpected error occurred. Please try again later.",
	}
)

// SuccessResponse builds a success envelope. Only the first data value,
// if any, is attached.
func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}
	if len(data) > 0 && data[0] != nil {
		resp.Data = data[0]
	}
	return resp
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func getValidationErrors(err error) []validationError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	var out []validationError
	for _, fe := range ve {
		issue := fmt.Sprintf("Invalid %s.", fe.Tag())
		if fe.Tag() == "required" {
			issue = "This field is required."
		}

		out = append(out, validationError{
			Field: fe.Field(),
			Value: fe.Value(),
			Issue: issue,
		})
	}
	return out
}

// ValidationErrorResponse wraps validator errors in an error envelope
// with per-field details.
func ValidationErrorResponse(err error) Response {
	return Response{
		Status:  StatusError,
		Error:   "Bad Request",
		Message: "Validation failed.",
		Details: getValidationErrors(err),
	}
}
