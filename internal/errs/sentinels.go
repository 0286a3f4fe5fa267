// Package errs contains sentinel errors and error types shared by the client layers.
package errs

import "errors"

// Common sentinels across transport/session/api layers.
var (
	// ErrNotFound indicates the requested entity does not exist (HTTP 404).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates the backend rejected the credentials (HTTP 401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the principal lacks permission (HTTP 403).
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates the backend throttled the caller (HTTP 429).
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a conflict, e.g. a slot booked twice (HTTP 409).
	ErrAlreadyExists = errors.New("already exists")

	// ErrNetwork indicates the request never got an HTTP response.
	ErrNetwork = errors.New("network error")

	// ErrBackend indicates any other non-2xx response.
	ErrBackend = errors.New("backend error")

	// ErrBadResponse indicates a 2xx response whose body does not match the expected schema.
	ErrBadResponse = errors.New("malformed response")

	// ErrValidation indicates client-side field checks failed; nothing was sent.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthenticated indicates the operation needs a session and there is none.
	ErrUnauthenticated = errors.New("not signed in")

	// ErrSessionSuperseded indicates a login/register resolved after a logout started.
	ErrSessionSuperseded = errors.New("session superseded by logout")

	// ErrCorruptState indicates persisted client state could not be read back.
	ErrCorruptState = errors.New("corrupt persisted state")

	// ErrSlotUnavailable indicates an availability check refused the reservation.
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrInvalidTransition indicates a reservation status change that is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)
