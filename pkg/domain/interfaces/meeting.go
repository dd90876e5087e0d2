package interfaces

import (
	"context"

	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

// MeetingRepository defines the interface for Meeting and linkage data access
type MeetingRepository interface {
	// Create inserts a new meeting with auto-generated ID. The natural key
	// (platform, native ID) is unique; a raced duplicate insert returns
	// ErrAlreadyExists and the caller re-fetches instead of failing.
	Create(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error)

	// GetByID retrieves a meeting by ID. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id types.MeetingID) (*model.Meeting, error)

	// GetByNaturalKey retrieves a meeting by its (platform, native ID) pair.
	// Returns ErrNotFound when absent.
	GetByNaturalKey(ctx context.Context, platform types.Platform, nativeID string) (*model.Meeting, error)

	// EnsureLink records that the user has visibility into the meeting.
	// Idempotent: linking an already linked pair is a no-op, and concurrent
	// callers converge to exactly one linkage row.
	EnsureLink(ctx context.Context, userID types.UserID, meetingID types.MeetingID) error

	// HasLink reports whether the user is linked to the meeting
	HasLink(ctx context.Context, userID types.UserID, meetingID types.MeetingID) (bool, error)

	// LinkedUsers returns the IDs of all users linked to the meeting
	LinkedUsers(ctx context.Context, meetingID types.MeetingID) ([]types.UserID, error)

	// ListByUser retrieves all meetings the user is linked to
	ListByUser(ctx context.Context, userID types.UserID) ([]*model.Meeting, error)

	// List retrieves meetings ordered by ID with offset/limit pagination
	List(ctx context.Context, offset, limit int) ([]*model.Meeting, error)

	// Count returns the total number of meetings
	Count(ctx context.Context) (int64, error)

	// Archive atomically writes the transcript segments and flips the
	// meeting to its archived state (is_live=false, transcript_cached=true,
	// snapshot merged). Either every write applies or none does. Returns
	// ErrAlreadyArchived without touching anything when the transcript is
	// already cached, and ErrNotFound when the meeting is absent.
	Archive(ctx context.Context, id types.MeetingID, segments []*model.TranscriptSegment, snap *model.ArchiveSnapshot) (*model.Meeting, error)
}

// TranscriptRepository defines the read path for cached transcripts. Segment
// writes happen only inside MeetingRepository.Archive.
type TranscriptRepository interface {
	// ListByMeeting retrieves all segments of a meeting ordered by ascending
	// start time regardless of insertion order.
	ListByMeeting(ctx context.Context, meetingID types.MeetingID) ([]*model.TranscriptSegment, error)
}
