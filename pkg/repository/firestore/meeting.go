package firestore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type meetingRepository struct {
	client *firestore.Client
}

type meetingDoc struct {
	ID               int64          `firestore:"id"`
	Platform         string         `firestore:"platform"`
	NativeID         string         `firestore:"native_id"`
	Status           string         `firestore:"status"`
	StartTime        *time.Time     `firestore:"start_time"`
	EndTime          *time.Time     `firestore:"end_time"`
	IsLive           bool           `firestore:"is_live"`
	TranscriptCached bool           `firestore:"transcript_cached"`
	InfraMeetingID   string         `firestore:"infra_meeting_id"`
	Extra            map[string]any `firestore:"extra"`
	CreatedAt        time.Time      `firestore:"created_at"`
	UpdatedAt        time.Time      `firestore:"updated_at"`
}

// keyDoc reserves a meeting natural key; its document ID is "platform:nativeID".
type keyDoc struct {
	MeetingID int64 `firestore:"meeting_id"`
}

// linkDoc records a user-meeting linkage; its document ID is "userID:meetingID".
type linkDoc struct {
	UserID    int64     `firestore:"user_id"`
	MeetingID int64     `firestore:"meeting_id"`
	CreatedAt time.Time `firestore:"created_at"`
}

func toMeetingDoc(m *model.Meeting) *meetingDoc {
	return &meetingDoc{
		ID:               m.ID.Int64(),
		Platform:         m.Platform.String(),
		NativeID:         m.NativeID,
		Status:           m.Status.String(),
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		IsLive:           m.IsLive,
		TranscriptCached: m.TranscriptCached,
		InfraMeetingID:   m.InfraMeetingID,
		Extra:            m.Extra,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func (d *meetingDoc) toModel() *model.Meeting {
	return &model.Meeting{
		ID:               types.MeetingID(d.ID),
		Platform:         types.Platform(d.Platform),
		NativeID:         d.NativeID,
		Status:           types.MeetingStatus(d.Status),
		StartTime:        d.StartTime,
		EndTime:          d.EndTime,
		IsLive:           d.IsLive,
		TranscriptCached: d.TranscriptCached,
		InfraMeetingID:   d.InfraMeetingID,
		Extra:            d.Extra,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func meetingKeyID(platform types.Platform, nativeID string) string {
	return platform.String() + ":" + nativeID
}

func linkID(userID types.UserID, meetingID types.MeetingID) string {
	return fmt.Sprintf("%d:%d", userID, meetingID)
}

func (r *meetingRepository) Create(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	if err := meeting.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid meeting")
	}

	id, err := nextID(ctx, r.client, "meeting_id")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created := *meeting
	created.ID = types.MeetingID(id)
	created.CreatedAt = now
	created.UpdatedAt = now

	keyRef := r.client.Collection(meetingKeysCollection).Doc(meetingKeyID(created.Platform, created.NativeID))
	meetingRef := r.client.Collection(meetingsCollection).Doc(created.ID.String())

	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(keyRef, &keyDoc{MeetingID: id}); err != nil {
			return err
		}
		return tx.Create(meetingRef, toMeetingDoc(&created))
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "meeting natural key already exists",
				goerr.V("platform", created.Platform), goerr.V("native_id", created.NativeID))
		}
		return nil, goerr.Wrap(err, "failed to create meeting",
			goerr.V("platform", created.Platform), goerr.V("native_id", created.NativeID))
	}

	return &created, nil
}

func (r *meetingRepository) GetByID(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	doc, err := r.client.Collection(meetingsCollection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get meeting", goerr.V("id", id))
	}

	var d meetingDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal meeting", goerr.V("id", id))
	}
	return d.toModel(), nil
}

func (r *meetingRepository) GetByNaturalKey(ctx context.Context, platform types.Platform, nativeID string) (*model.Meeting, error) {
	doc, err := r.client.Collection(meetingKeysCollection).Doc(meetingKeyID(platform, nativeID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found",
				goerr.V("platform", platform), goerr.V("native_id", nativeID))
		}
		return nil, goerr.Wrap(err, "failed to get meeting key",
			goerr.V("platform", platform), goerr.V("native_id", nativeID))
	}

	var kd keyDoc
	if err := doc.DataTo(&kd); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal meeting key")
	}

	return r.GetByID(ctx, types.MeetingID(kd.MeetingID))
}

func (r *meetingRepository) EnsureLink(ctx context.Context, userID types.UserID, meetingID types.MeetingID) error {
	if _, err := r.client.Collection(usersCollection).Doc(userID.String()).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "user not found", goerr.V("user_id", userID))
		}
		return goerr.Wrap(err, "failed to get user", goerr.V("user_id", userID))
	}
	if _, err := r.client.Collection(meetingsCollection).Doc(meetingID.String()).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("meeting_id", meetingID))
		}
		return goerr.Wrap(err, "failed to get meeting", goerr.V("meeting_id", meetingID))
	}

	doc := &linkDoc{
		UserID:    userID.Int64(),
		MeetingID: meetingID.Int64(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.client.Collection(linksCollection).Doc(linkID(userID, meetingID)).Create(ctx, doc)
	if err != nil {
		// Concurrent callers converge on the same document ID
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return goerr.Wrap(err, "failed to create linkage",
			goerr.V("user_id", userID), goerr.V("meeting_id", meetingID))
	}
	return nil
}

func (r *meetingRepository) HasLink(ctx context.Context, userID types.UserID, meetingID types.MeetingID) (bool, error) {
	_, err := r.client.Collection(linksCollection).Doc(linkID(userID, meetingID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to get linkage",
			goerr.V("user_id", userID), goerr.V("meeting_id", meetingID))
	}
	return true, nil
}

func (r *meetingRepository) LinkedUsers(ctx context.Context, meetingID types.MeetingID) ([]types.UserID, error) {
	iter := r.client.Collection(linksCollection).
		Where("meeting_id", "==", meetingID.Int64()).
		Documents(ctx)
	defer iter.Stop()

	var users []types.UserID
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate linkages", goerr.V("meeting_id", meetingID))
		}

		var d linkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal linkage")
		}
		users = append(users, types.UserID(d.UserID))
	}

	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func (r *meetingRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Meeting, error) {
	iter := r.client.Collection(linksCollection).
		Where("user_id", "==", userID.Int64()).
		Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate linkages", goerr.V("user_id", userID))
		}

		var d linkDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal linkage")
		}
		refs = append(refs, r.client.Collection(meetingsCollection).Doc(types.MeetingID(d.MeetingID).String()))
	}

	if len(refs) == 0 {
		return nil, nil
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to batch-get meetings", goerr.V("user_id", userID))
	}

	meetings := make([]*model.Meeting, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var d meetingDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal meeting")
		}
		meetings = append(meetings, d.toModel())
	}

	sort.Slice(meetings, func(i, j int) bool { return meetings[i].ID < meetings[j].ID })
	return meetings, nil
}

func (r *meetingRepository) List(ctx context.Context, offset, limit int) ([]*model.Meeting, error) {
	iter := r.client.Collection(meetingsCollection).
		OrderBy("id", firestore.Asc).
		Offset(offset).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var meetings []*model.Meeting
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate meetings")
		}

		var d meetingDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal meeting")
		}
		meetings = append(meetings, d.toModel())
	}
	return meetings, nil
}

func (r *meetingRepository) Count(ctx context.Context) (int64, error) {
	iter := r.client.Collection(meetingsCollection).Select().Documents(ctx)
	defer iter.Stop()

	var total int64
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count meetings")
		}
		total++
	}
	return total, nil
}

func (r *meetingRepository) Archive(ctx context.Context, id types.MeetingID, segments []*model.TranscriptSegment, snap *model.ArchiveSnapshot) (*model.Meeting, error) {
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid transcript segment", goerr.V("meeting_id", id))
		}
	}

	meetingRef := r.client.Collection(meetingsCollection).Doc(id.String())
	counterRef := r.client.Collection(countersCollection).Doc("segment_id")

	var archived *model.Meeting
	// TODO: chunk segment writes once transcripts can exceed the 500-write
	// transaction limit.
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(meetingRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get meeting", goerr.V("id", id))
		}

		var md meetingDoc
		if err := doc.DataTo(&md); err != nil {
			return goerr.Wrap(err, "failed to unmarshal meeting", goerr.V("id", id))
		}
		if md.TranscriptCached {
			return goerr.Wrap(interfaces.ErrAlreadyArchived, "transcript already cached", goerr.V("id", id))
		}

		var lastSegID int64
		counterDoc, err := tx.Get(counterRef)
		switch {
		case err == nil:
			value, err := counterDoc.DataAt("value")
			if err != nil {
				return goerr.Wrap(err, "failed to get segment counter value")
			}
			current, ok := value.(int64)
			if !ok {
				return goerr.New("segment counter value is not int64", goerr.V("value", value))
			}
			lastSegID = current
		case status.Code(err) == codes.NotFound:
			lastSegID = 0
		default:
			return goerr.Wrap(err, "failed to get segment counter")
		}

		if err := tx.Set(counterRef, map[string]interface{}{"value": lastSegID + int64(len(segments))}); err != nil {
			return goerr.Wrap(err, "failed to advance segment counter")
		}

		for i, seg := range segments {
			segID := lastSegID + int64(i) + 1
			sd := toSegmentDoc(seg)
			sd.ID = segID
			sd.MeetingID = id.Int64()
			segRef := r.client.Collection(segmentsCollection).Doc(types.SegmentID(segID).String())
			if err := tx.Create(segRef, sd); err != nil {
				return goerr.Wrap(err, "failed to write transcript segment", goerr.V("meeting_id", id))
			}
		}

		meeting := md.toModel()
		meeting.ApplyArchive(snap, time.Now().UTC())
		archived = meeting
		return tx.Set(meetingRef, toMeetingDoc(meeting))
	})
	if err != nil {
		return nil, err
	}

	return archived, nil
}
