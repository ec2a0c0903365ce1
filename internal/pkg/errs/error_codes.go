/*
Package errs provides custom error types and application-level error code constants.

These codes identify not-found, unauthorized, malformed-input, lookup-failure and
list-membership conditions, both in chat feedback and in the status API.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request or command arguments failed validation.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrMissingArgument indicates that a command was invoked without its required argument.
	ErrMissingArgument = 1101
)

// 2xxx: Room, Roster and Ban List Errors
const (
	// ErrRoomExists indicates that a session for the room is already running.
	ErrRoomExists = 2102

	// ErrRoomNotFound indicates that no session exists for the requested room.
	ErrRoomNotFound = 2103

	// ErrUserNotFound indicates that no roster entry matches the requested nick.
	ErrUserNotFound = 2301

	// ErrBanListUnknown indicates an unknown ban list name.
	ErrBanListUnknown = 2401

	// ErrPatternExists indicates that the pattern is already present in the list.
	ErrPatternExists = 2402

	// ErrPatternMissing indicates that the pattern is not present in the list.
	ErrPatternMissing = 2403

	// ErrPatternTooShort indicates that a string or account pattern is below the minimum length.
	ErrPatternTooShort = 2404

	// ErrActionOnSelf indicates a moderation command aimed at the client itself.
	ErrActionOnSelf = 2501
)

// 3xxx: Authorization Errors
const (
	// ErrUnauthorized indicates a missing or invalid admin token.
	ErrUnauthorized = 3005

	// ErrForbidden indicates that the caller lacks the permission level for the action.
	ErrForbidden = 3006

	// ErrNotOwnerSession indicates that the action requires the client to hold the room owner account.
	ErrNotOwnerSession = 3007

	// ErrNotModSession indicates that the action requires the client to be a room moderator.
	ErrNotModSession = 3008
)

// 4xxx: External Collaborator Errors
const (
	// ErrLookupFailed indicates that an informational lookup returned nothing or failed.
	ErrLookupFailed = 4001

	// ErrDisconnected indicates that the room connection is gone.
	ErrDisconnected = 4002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general internal error.
	ErrUnknown = 5000
)
