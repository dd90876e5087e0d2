package interfaces

import "errors"

// Sentinel errors shared by all repository backends. Backends wrap these with
// goerr to attach context; callers match with errors.Is.
var (
	// ErrNotFound is returned when the requested entity does not exist
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when a unique constraint rejects an
	// insert: duplicate user email, duplicate token secret, or a raced
	// meeting natural key. Callers are expected to re-fetch.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrAlreadyArchived is returned by Archive when the meeting transcript
	// is already cached, so re-delivered webhooks do not duplicate segments.
	ErrAlreadyArchived = errors.New("meeting already archived")
)
