package usecase

import "errors"

// Sentinel errors for use case layer. The HTTP controller maps these to
// response status codes.
var (
	// ErrUnauthorized means no credential was presented
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden means the presented credential is not valid
	ErrForbidden = errors.New("invalid credential")

	// ErrNotFound covers both absent records and records the caller has no
	// visibility into, so existence is never leaked.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the request contradicts current state
	ErrConflict = errors.New("conflict with current state")

	// ErrBadRequest means the request payload is malformed or empty
	ErrBadRequest = errors.New("invalid request")

	// ErrUpstream means the upstream bot service rejected or failed a call
	ErrUpstream = errors.New("upstream service error")
)
