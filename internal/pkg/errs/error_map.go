/*
Package errs provides custom error types and application-level error code constants.

This file maps every error code to its CustomError template. Messages containing a verb
accept printf-style details and are sent verbatim as chat feedback.
*/
package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrMissingArgument:      {Code: ErrMissingArgument, Message: "Missing %s.", Status: http.StatusBadRequest},

	// 2xxx
	ErrRoomExists:      {Code: ErrRoomExists, Message: "Room %s is already managed.", Status: http.StatusConflict},
	ErrRoomNotFound:    {Code: ErrRoomNotFound, Message: "Room not found.", Status: http.StatusNotFound},
	ErrUserNotFound:    {Code: ErrUserNotFound, Message: "No user named: %s", Status: http.StatusNotFound},
	ErrBanListUnknown:  {Code: ErrBanListUnknown, Message: "Unknown list: %s", Status: http.StatusNotFound},
	ErrPatternExists:   {Code: ErrPatternExists, Message: "*%s* is already in list.", Status: http.StatusConflict},
	ErrPatternMissing:  {Code: ErrPatternMissing, Message: "*%s* is not in list.", Status: http.StatusNotFound},
	ErrPatternTooShort: {Code: ErrPatternTooShort, Message: "%s to short: %d", Status: http.StatusBadRequest},
	ErrActionOnSelf:    {Code: ErrActionOnSelf, Message: "Action not allowed.", Status: http.StatusBadRequest},

	// 3xxx
	ErrUnauthorized:    {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrForbidden:       {Code: ErrForbidden, Message: "Not allowed.", Status: http.StatusForbidden},
	ErrNotOwnerSession: {Code: ErrNotOwnerSession, Message: "*The client is not using the owner account.*", Status: http.StatusForbidden},
	ErrNotModSession:   {Code: ErrNotModSession, Message: "*The client is not moderator.*", Status: http.StatusForbidden},

	// 4xxx
	ErrLookupFailed: {Code: ErrLookupFailed, Message: "Could not find info for: %s", Status: http.StatusBadGateway},
	ErrDisconnected: {Code: ErrDisconnected, Message: "Not connected to the room.", Status: http.StatusServiceUnavailable},

	// 5xxx
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
