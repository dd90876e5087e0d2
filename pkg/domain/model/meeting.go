package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/types"
)

// Meeting is the canonical record of a real-world meeting. At most one row
// exists per (Platform, NativeID) pair regardless of how many users request it.
type Meeting struct {
	ID       types.MeetingID
	Platform types.Platform
	// NativeID is the platform-assigned meeting identifier, e.g. the
	// "abc-defg-hij" part of a Google Meet URL.
	NativeID string
	Status   types.MeetingStatus

	StartTime *time.Time
	EndTime   *time.Time

	IsLive           bool
	TranscriptCached bool
	// InfraMeetingID is the identifier the upstream bot service assigned
	InfraMeetingID string
	// Extra holds upstream passthrough attributes that have no typed field
	Extra map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks if the Meeting is valid for persistence
func (m *Meeting) Validate() error {
	if err := m.Platform.Validate(); err != nil {
		return goerr.Wrap(err, "invalid meeting platform")
	}
	if m.NativeID == "" {
		return goerr.New("native meeting ID is required")
	}
	if !m.Status.IsValid() {
		return goerr.New("invalid meeting status", goerr.V("status", m.Status))
	}
	return nil
}

// ArchiveSnapshot carries the upstream state merged into a meeting when it is
// archived by the finalization webhook.
type ArchiveSnapshot struct {
	StartTime      *time.Time
	EndTime        *time.Time
	InfraMeetingID string
	Extra          map[string]any
}

// ApplyArchive flips the meeting into its archived state and merges the
// snapshot. It does not touch storage; repositories call it inside their
// archive transaction.
func (m *Meeting) ApplyArchive(snap *ArchiveSnapshot, now time.Time) {
	m.Status = types.MeetingStatusArchived
	m.IsLive = false
	m.TranscriptCached = true
	m.UpdatedAt = now

	if snap == nil {
		return
	}
	if snap.StartTime != nil {
		m.StartTime = snap.StartTime
	}
	if snap.EndTime != nil {
		m.EndTime = snap.EndTime
	}
	if snap.InfraMeetingID != "" {
		m.InfraMeetingID = snap.InfraMeetingID
	}
	if len(snap.Extra) > 0 {
		if m.Extra == nil {
			m.Extra = make(map[string]any, len(snap.Extra))
		}
		for k, v := range snap.Extra {
			m.Extra[k] = v
		}
	}
}

// UserMeeting is the many-to-many linkage granting a user visibility into a
// meeting. The (UserID, MeetingID) pair is unique.
type UserMeeting struct {
	UserID    types.UserID
	MeetingID types.MeetingID
	CreatedAt time.Time
}
