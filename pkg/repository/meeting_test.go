package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/repository/memory"
)

func uniqueNativeID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func newActiveMeeting(prefix string) *model.Meeting {
	return &model.Meeting{
		Platform: types.PlatformGoogleMeet,
		NativeID: uniqueNativeID(prefix),
		Status:   types.MeetingStatusActive,
		IsLive:   true,
	}
}

func runMeetingRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	createUser := func(t *testing.T, repo interfaces.Repository, prefix string) *model.User {
		t.Helper()
		user, err := repo.User().Create(context.Background(), &model.User{
			Email: uniqueEmail(prefix),
		})
		gt.NoError(t, err).Required()
		return user
	}

	t.Run("Create assigns ID and enforces natural key", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		meeting := newActiveMeeting("create")
		created, err := repo.Meeting().Create(ctx, meeting)
		gt.NoError(t, err).Required()

		gt.NoError(t, created.ID.Validate())
		gt.Value(t, created.Platform).Equal(meeting.Platform)
		gt.Value(t, created.NativeID).Equal(meeting.NativeID)
		gt.Bool(t, created.IsLive).True()
		gt.Bool(t, created.TranscriptCached).False()
		gt.Bool(t, created.CreatedAt.IsZero()).False()

		dup := &model.Meeting{
			Platform: meeting.Platform,
			NativeID: meeting.NativeID,
			Status:   types.MeetingStatusActive,
		}
		_, err = repo.Meeting().Create(ctx, dup)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, interfaces.ErrAlreadyExists))
	})

	t.Run("GetByNaturalKey retrieves the meeting", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Meeting().Create(ctx, newActiveMeeting("natural"))
		gt.NoError(t, err).Required()

		found, err := repo.Meeting().GetByNaturalKey(ctx, created.Platform, created.NativeID)
		gt.NoError(t, err).Required()
		gt.Value(t, found.ID).Equal(created.ID)

		_, err = repo.Meeting().GetByNaturalKey(ctx, types.PlatformZoom, uniqueNativeID("missing"))
		gt.Error(t, err)
		gt.True(t, errors.Is(err, interfaces.ErrNotFound))
	})

	t.Run("EnsureLink is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := createUser(t, repo, "link")
		meeting, err := repo.Meeting().Create(ctx, newActiveMeeting("link"))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Meeting().EnsureLink(ctx, user.ID, meeting.ID))
		gt.NoError(t, repo.Meeting().EnsureLink(ctx, user.ID, meeting.ID))

		linked, err := repo.Meeting().HasLink(ctx, user.ID, meeting.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, linked).True()

		users, err := repo.Meeting().LinkedUsers(ctx, meeting.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, users).Length(1)
		gt.Value(t, users[0]).Equal(user.ID)
	})

	t.Run("HasLink is false for unlinked pair", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := createUser(t, repo, "nolink")
		meeting, err := repo.Meeting().Create(ctx, newActiveMeeting("nolink"))
		gt.NoError(t, err).Required()

		linked, err := repo.Meeting().HasLink(ctx, user.ID, meeting.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, linked).False()
	})

	t.Run("ListByUser returns only linked meetings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		user := createUser(t, repo, "listby")
		mine, err := repo.Meeting().Create(ctx, newActiveMeeting("mine"))
		gt.NoError(t, err).Required()
		_, err = repo.Meeting().Create(ctx, newActiveMeeting("theirs"))
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Meeting().EnsureLink(ctx, user.ID, mine.ID))

		meetings, err := repo.Meeting().ListByUser(ctx, user.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, meetings).Length(1)
		gt.Value(t, meetings[0].ID).Equal(mine.ID)
	})

	t.Run("List and Count cover all meetings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		before, err := repo.Meeting().Count(ctx)
		gt.NoError(t, err).Required()

		for i := 0; i < 3; i++ {
			_, err := repo.Meeting().Create(ctx, newActiveMeeting(fmt.Sprintf("count%d", i)))
			gt.NoError(t, err).Required()
		}

		after, err := repo.Meeting().Count(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, after).Equal(before + 3)

		meetings, err := repo.Meeting().List(ctx, 0, 100)
		gt.NoError(t, err).Required()
		gt.Number(t, int64(len(meetings))).GreaterOrEqual(3)
		for i := 1; i < len(meetings); i++ {
			gt.True(t, meetings[i-1].ID < meetings[i].ID)
		}
	})

	t.Run("Archive stores segments and flips status", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		meeting, err := repo.Meeting().Create(ctx, newActiveMeeting("archive"))
		gt.NoError(t, err).Required()

		speaker := "Alice"
		segments := []*model.TranscriptSegment{
			{MeetingID: meeting.ID, StartTime: 12.5, EndTime: 15.0, Text: "second line"},
			{MeetingID: meeting.ID, StartTime: 0.0, EndTime: 4.2, Text: "first line", Speaker: &speaker},
		}
		end := time.Now().UTC().Truncate(time.Second)
		start := end.Add(-30 * time.Minute)
		snap := &model.ArchiveSnapshot{
			StartTime:      &start,
			EndTime:        &end,
			InfraMeetingID: "infra-123",
			Extra:          map[string]any{"recording": true},
		}

		archived, err := repo.Meeting().Archive(ctx, meeting.ID, segments, snap)
		gt.NoError(t, err).Required()

		gt.Value(t, archived.Status).Equal(types.MeetingStatusArchived)
		gt.Bool(t, archived.IsLive).False()
		gt.Bool(t, archived.TranscriptCached).True()
		gt.Value(t, archived.InfraMeetingID).Equal("infra-123")

		stored, err := repo.Transcript().ListByMeeting(ctx, meeting.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, stored).Length(2)
		// ordered by start time regardless of insertion order
		gt.Value(t, stored[0].Text).Equal("first line")
		gt.Value(t, stored[1].Text).Equal("second line")
	})

	t.Run("Archive rejects already archived meeting", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		meeting, err := repo.Meeting().Create(ctx, newActiveMeeting("rearchive"))
		gt.NoError(t, err).Required()

		_, err = repo.Meeting().Archive(ctx, meeting.ID, nil, nil)
		gt.NoError(t, err).Required()

		_, err = repo.Meeting().Archive(ctx, meeting.ID, nil, nil)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, interfaces.ErrAlreadyArchived))
	})

	t.Run("Archive writes nothing when a segment is invalid", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		meeting, err := repo.Meeting().Create(ctx, newActiveMeeting("partial"))
		gt.NoError(t, err).Required()

		segments := []*model.TranscriptSegment{
			{MeetingID: meeting.ID, StartTime: 0, EndTime: 1, Text: "ok"},
			{MeetingID: meeting.ID, StartTime: 5, EndTime: 2, Text: "end before start"},
		}

		_, err = repo.Meeting().Archive(ctx, meeting.ID, segments, nil)
		gt.Error(t, err)

		unchanged, err := repo.Meeting().GetByID(ctx, meeting.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, unchanged.TranscriptCached).False()
		gt.Value(t, unchanged.Status).Equal(types.MeetingStatusActive)

		stored, err := repo.Transcript().ListByMeeting(ctx, meeting.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, stored).Length(0)
	})

	t.Run("Archive returns ErrNotFound for missing meeting", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Meeting().Archive(ctx, types.MeetingID(time.Now().UnixNano()), nil, nil)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, interfaces.ErrNotFound))
	})
}

func TestMeetingRepository_Memory(t *testing.T) {
	runMeetingRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestMeetingRepository_Firestore(t *testing.T) {
	runMeetingRepositoryTest(t, newFirestoreRepo)
}

func TestMeetingRepository_Postgres(t *testing.T) {
	runMeetingRepositoryTest(t, newPostgresRepo)
}
