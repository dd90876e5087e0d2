package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/repository/memory"
	"github.com/recapd/relay/pkg/service/infra"
	"github.com/recapd/relay/pkg/usecase"
)

func TestFinalizeArchivesMeeting(t *testing.T) {
	repo := memory.New()

	deleted := make(chan string, 1)
	end := time.Now().UTC().Truncate(time.Second)
	start := end.Add(-10 * time.Minute)
	mock := &mockInfraService{
		getTranscript: func(ctx context.Context, platform types.Platform, nativeID string) (*infra.Transcript, error) {
			return &infra.Transcript{
				StartTime: &start,
				EndTime:   &end,
				Segments: []infra.Segment{
					{StartTime: 0, EndTime: 3, Text: "hello"},
					{StartTime: 3, EndTime: 5, Text: "goodbye"},
				},
			}, nil
		},
		deleteMeeting: func(ctx context.Context, platform types.Platform, nativeID string) error {
			deleted <- nativeID
			return nil
		},
	}
	uc := usecase.New(repo, usecase.WithInfra(mock))
	ctx := context.Background()

	user := newTestUser(t, repo, "finalize")
	meeting, err := uc.Bots.RequestBot(ctx, user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	gt.NoError(t, uc.Webhook.Finalize(ctx, types.PlatformGoogleMeet, "abc-defg-hij"))

	archived, err := repo.Meeting().GetByID(ctx, meeting.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, archived.Status).Equal(types.MeetingStatusArchived)
	gt.Bool(t, archived.IsLive).False()
	gt.Bool(t, archived.TranscriptCached).True()
	gt.Bool(t, archived.StartTime.Equal(start)).True()
	gt.Bool(t, archived.EndTime.Equal(end)).True()

	segments, err := repo.Transcript().ListByMeeting(ctx, meeting.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, segments).Length(2)

	select {
	case nativeID := <-deleted:
		gt.Value(t, nativeID).Equal("abc-defg-hij")
	case <-time.After(time.Second):
		t.Fatal("upstream cleanup was not dispatched")
	}
}

func TestFinalizeIsIdempotent(t *testing.T) {
	repo := memory.New()
	mock := &mockInfraService{}
	uc := usecase.New(repo, usecase.WithInfra(mock))
	ctx := context.Background()

	user := newTestUser(t, repo, "redeliver")
	_, err := uc.Bots.RequestBot(ctx, user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	gt.NoError(t, uc.Webhook.Finalize(ctx, types.PlatformGoogleMeet, "abc-defg-hij"))
	gt.NoError(t, uc.Webhook.Finalize(ctx, types.PlatformGoogleMeet, "abc-defg-hij"))
}

func TestFinalizeUnknownMeeting(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithInfra(&mockInfraService{}))

	err := uc.Webhook.Finalize(context.Background(), types.PlatformGoogleMeet, "no-such-meeting")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, usecase.ErrNotFound))
}

func TestFinalizeUpstreamFailureLeavesMeetingLive(t *testing.T) {
	repo := memory.New()
	mock := &mockInfraService{
		getTranscript: func(ctx context.Context, platform types.Platform, nativeID string) (*infra.Transcript, error) {
			return nil, errors.New("transcript unavailable")
		},
	}
	uc := usecase.New(repo, usecase.WithInfra(mock))
	ctx := context.Background()

	user := newTestUser(t, repo, "upfail")
	meeting, err := uc.Bots.RequestBot(ctx, user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	err = uc.Webhook.Finalize(ctx, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, usecase.ErrUpstream))

	unchanged, err := repo.Meeting().GetByID(ctx, meeting.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, unchanged.IsLive).True()
	gt.Bool(t, unchanged.TranscriptCached).False()
}

func TestFinalizeStorageFailureWritesNothing(t *testing.T) {
	repo := memory.New()
	mock := &mockInfraService{
		getTranscript: func(ctx context.Context, platform types.Platform, nativeID string) (*infra.Transcript, error) {
			return &infra.Transcript{
				Segments: []infra.Segment{
					{StartTime: 0, EndTime: 2, Text: "fine"},
					// end before start makes the archive abort mid-batch
					{StartTime: 9, EndTime: 1, Text: "broken"},
				},
			}, nil
		},
	}
	uc := usecase.New(repo, usecase.WithInfra(mock))
	ctx := context.Background()

	user := newTestUser(t, repo, "abort")
	meeting, err := uc.Bots.RequestBot(ctx, user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	err = uc.Webhook.Finalize(ctx, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.Error(t, err)

	unchanged, err := repo.Meeting().GetByID(ctx, meeting.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, unchanged.TranscriptCached).False()
	gt.Value(t, unchanged.Status).Equal(types.MeetingStatusActive)

	segments, err := repo.Transcript().ListByMeeting(ctx, meeting.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, segments).Length(0)
}
