package types

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// UserID represents a unique identifier for a user
type UserID int64

// Validate checks if the UserID is valid
func (id UserID) Validate() error {
	if id <= 0 {
		return goerr.New("user ID must be positive", goerr.V("id", id))
	}
	return nil
}

// Int64 returns the int64 representation of UserID
func (id UserID) Int64() int64 {
	return int64(id)
}

// String returns the string representation of UserID
func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// TokenID represents a unique identifier for an API token
type TokenID int64

// Validate checks if the TokenID is valid
func (id TokenID) Validate() error {
	if id <= 0 {
		return goerr.New("token ID must be positive", goerr.V("id", id))
	}
	return nil
}

// Int64 returns the int64 representation of TokenID
func (id TokenID) Int64() int64 {
	return int64(id)
}

// String returns the string representation of TokenID
func (id TokenID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// MeetingID represents a unique identifier for a meeting
type MeetingID int64

// Validate checks if the MeetingID is valid
func (id MeetingID) Validate() error {
	if id <= 0 {
		return goerr.New("meeting ID must be positive", goerr.V("id", id))
	}
	return nil
}

// Int64 returns the int64 representation of MeetingID
func (id MeetingID) Int64() int64 {
	return int64(id)
}

// String returns the string representation of MeetingID
func (id MeetingID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// SegmentID represents a unique identifier for a transcript segment
type SegmentID int64

// Int64 returns the int64 representation of SegmentID
func (id SegmentID) Int64() int64 {
	return int64(id)
}

// String returns the string representation of SegmentID
func (id SegmentID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
