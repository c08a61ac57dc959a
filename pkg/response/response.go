// Package response defines the JSON envelope returned by the HTTP API.
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

type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "The request could not be processed. Please check the data and try again.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

var ServiceUnavailableResponse = Response{
	Status:  StatusError,
	Error:   "Service Unavailable",
	Message: "The service is temporarily unavailable. Please try again later.",
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

func InvalidInputResponse(msg string) Response {
	return Response{
		Status:  StatusError,
		Error:   "Invalid Input",
		Message: msg,
	}
}

// ValidationErrorResponse renders validator.ValidationErrors into
// field-level details. Any other error falls back to a generic bad request.
func ValidationErrorResponse(err error) Response {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return BadRequestResponse
	}

	details := make([]any, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		switch fieldErr.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("The %q field is required.", fieldErr.Field()))
		case "url":
			details = append(details, fmt.Sprintf("The %q field must contain a valid url.", fieldErr.Field()))
		default:
			details = append(details, fmt.Sprintf("The %q field is invalid.", fieldErr.Field()))
		}
	}

	return Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request contains invalid data.",
		Details: details,
	}
}
