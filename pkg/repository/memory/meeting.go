package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

type meetingRepository struct {
	store *store
}

func (r *meetingRepository) Create(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	if err := meeting.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid meeting")
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := naturalKey(meeting.Platform, meeting.NativeID)
	if _, taken := r.store.naturalKeys[key]; taken {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "meeting natural key already exists",
			goerr.V("platform", meeting.Platform), goerr.V("native_id", meeting.NativeID))
	}

	now := time.Now().UTC()
	r.store.nextMeetingID++
	created := copyMeeting(meeting)
	created.ID = types.MeetingID(r.store.nextMeetingID)
	created.CreatedAt = now
	created.UpdatedAt = now

	r.store.meetings[created.ID] = created
	r.store.naturalKeys[key] = created.ID
	return copyMeeting(created), nil
}

func (r *meetingRepository) GetByID(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	meeting, exists := r.store.meetings[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}
	return copyMeeting(meeting), nil
}

func (r *meetingRepository) GetByNaturalKey(ctx context.Context, platform types.Platform, nativeID string) (*model.Meeting, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, exists := r.store.naturalKeys[naturalKey(platform, nativeID)]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found",
			goerr.V("platform", platform), goerr.V("native_id", nativeID))
	}
	return copyMeeting(r.store.meetings[id]), nil
}

func (r *meetingRepository) EnsureLink(ctx context.Context, userID types.UserID, meetingID types.MeetingID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.users[userID]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("user_id", userID))
	}
	if _, exists := r.store.meetings[meetingID]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("meeting_id", meetingID))
	}

	key := linkKey{user: userID, meeting: meetingID}
	if _, linked := r.store.links[key]; linked {
		return nil
	}
	r.store.links[key] = time.Now().UTC()
	return nil
}

func (r *meetingRepository) HasLink(ctx context.Context, userID types.UserID, meetingID types.MeetingID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, linked := r.store.links[linkKey{user: userID, meeting: meetingID}]
	return linked, nil
}

func (r *meetingRepository) LinkedUsers(ctx context.Context, meetingID types.MeetingID) ([]types.UserID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var users []types.UserID
	for key := range r.store.links {
		if key.meeting == meetingID {
			users = append(users, key.user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func (r *meetingRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Meeting, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var meetings []*model.Meeting
	for key := range r.store.links {
		if key.user == userID {
			meetings = append(meetings, copyMeeting(r.store.meetings[key.meeting]))
		}
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].ID < meetings[j].ID })
	return meetings, nil
}

func (r *meetingRepository) List(ctx context.Context, offset, limit int) ([]*model.Meeting, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ids := make([]types.MeetingID, 0, len(r.store.meetings))
	for id := range r.store.meetings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	meetings := make([]*model.Meeting, 0, limit)
	for i := offset; i < len(ids) && len(meetings) < limit; i++ {
		meetings = append(meetings, copyMeeting(r.store.meetings[ids[i]]))
	}
	return meetings, nil
}

func (r *meetingRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return int64(len(r.store.meetings)), nil
}

func (r *meetingRepository) Archive(ctx context.Context, id types.MeetingID, segments []*model.TranscriptSegment, snap *model.ArchiveSnapshot) (*model.Meeting, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	meeting, exists := r.store.meetings[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}
	if meeting.TranscriptCached {
		return nil, goerr.Wrap(interfaces.ErrAlreadyArchived, "transcript already cached", goerr.V("id", id))
	}

	// Validate everything before the first write so a bad segment aborts
	// with no partial state, mirroring a rolled-back transaction.
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid transcript segment", goerr.V("meeting_id", id))
		}
	}

	stored := make([]*model.TranscriptSegment, 0, len(segments))
	for _, seg := range segments {
		r.store.nextSegmentID++
		copied := copySegment(seg)
		copied.ID = types.SegmentID(r.store.nextSegmentID)
		copied.MeetingID = id
		stored = append(stored, copied)
	}

	meeting.ApplyArchive(snap, time.Now().UTC())
	r.store.segments[id] = append(r.store.segments[id], stored...)
	return copyMeeting(meeting), nil
}
