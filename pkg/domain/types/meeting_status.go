package types

import "fmt"

// MeetingStatus represents the lifecycle status of a meeting
type MeetingStatus string

const (
	// MeetingStatusActive means a bot session is live upstream
	MeetingStatusActive MeetingStatus = "active"
	// MeetingStatusArchived means the session ended and the transcript is cached locally
	MeetingStatusArchived MeetingStatus = "archived"
)

// AllMeetingStatuses returns all valid meeting statuses
func AllMeetingStatuses() []MeetingStatus {
	return []MeetingStatus{
		MeetingStatusActive,
		MeetingStatusArchived,
	}
}

// IsValid checks if the meeting status is valid
func (s MeetingStatus) IsValid() bool {
	switch s {
	case MeetingStatusActive, MeetingStatusArchived:
		return true
	default:
		return false
	}
}

// String returns the string representation of the meeting status
func (s MeetingStatus) String() string {
	return string(s)
}

// ParseMeetingStatus parses a string into a MeetingStatus
func ParseMeetingStatus(s string) (MeetingStatus, error) {
	status := MeetingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid meeting status: %s", s)
	}
	return status, nil
}
