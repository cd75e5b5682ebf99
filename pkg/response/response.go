// Package response defines the JSON envelope returned by every API
// endpoint. Errors carry a stable name plus a human-readable message;
// internal detail is never included.
package response

import (
	"github.com/go-playground/validator/v10"
)

type Response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Error:   "Bad Request",
	Message: "The request could not be understood.",
}

var InvalidURLResponse = Response{
	Error:   "Validation Error",
	Message: "Invalid URL",
}

var UserIDRequiredResponse = Response{
	Error:   "Validation Error",
	Message: "User ID is required",
}

var LinkExistsResponse = Response{
	Error:   "Conflict",
	Message: "Link already exists for this user",
}

var EmailExistsResponse = Response{
	Error:   "Conflict",
	Message: "An account with this email already exists.",
}

var InvalidCredentialsResponse = Response{
	Error:   "Unauthorized",
	Message: "Invalid email or password.",
}

var UnknownAttributeResponse = Response{
	Error:   "Validation Error",
	Message: "Unknown filter attribute.",
}

var InvalidDateResponse = Response{
	Error:   "Validation Error",
	Message: "Invalid date. Use the YYYY-MM-DD format.",
}

var ResourceNotFoundResponse = Response{
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

var ServerErrorResponse = Response{
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

// UnauthorizedResponse builds a 401 envelope with the given reason.
func UnauthorizedResponse(msg string) Response {
	return Response{
		Error:   "Unauthorized",
		Message: msg,
	}
}

// SuccessResponse builds an ok envelope. At most one data value is used.
func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		OK:      true,
		Message: msg,
	}

	if len(data) > 0 && data[0] != nil {
		resp.Data = data[0]
	}

	return resp
}

// validationError represents an individual field validation failure.
type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "email":
		return "Invalid email."
	case "min":
		return "Value is too short."
	case "max":
		return "Value is too long."
	default:
		return "Invalid value."
	}
}

func getValidationErrors(err error) []any {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	details := make([]any, 0, len(errs))
	for _, e := range errs {
		details = append(details, validationError{
			Field: e.Field(),
			Value: e.Value(),
			Issue: messageForTag(e.Tag()),
		})
	}

	return details
}

// ValidationErrorResponse builds a 400 envelope from validator errors.
func ValidationErrorResponse(err error) Response {
	return Response{
		Error:   "Validation Error",
		Message: "The request contains invalid fields.",
		Details: getValidationErrors(err),
	}
}
