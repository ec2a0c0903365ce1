/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and carries a business code, a user-facing message, and an HTTP status code.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"roombot/internal/pkg/logx"
)

// CustomError is the custom error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-facing description.
	Message string

	// Status is the HTTP status code reported by the status API.
	Status int
}

// Error implements the standard Go error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError constructs a *CustomError from a predefined code. Details are used as printf-style
// arguments when the template contains a verb. An unknown code yields ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(
				originalErr,
				"Handling ErrUnknown with underlying error",
			)
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// Is reports whether err is a CustomError carrying the given code.
func Is(err error, code int) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code == code
	}
	return false
}

// Message returns the user-facing message of err, or the ErrUnknown message for plain errors.
func Message(err error) string {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Message
	}
	return errorMap[ErrUnknown].Message
}
