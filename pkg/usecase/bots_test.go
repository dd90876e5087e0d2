package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/repository/memory"
	"github.com/recapd/relay/pkg/service/infra"
	"github.com/recapd/relay/pkg/usecase"
)

func newTestUser(t *testing.T, repo *memory.Memory, prefix string) *model.User {
	t.Helper()
	user, err := repo.User().Create(context.Background(), &model.User{
		Email: fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano()),
	})
	gt.NoError(t, err).Required()
	return user
}

func TestRequestBotCreatesMeetingAndLink(t *testing.T) {
	repo := memory.New()
	mock := &mockInfraService{}
	uc := usecase.New(repo, usecase.WithInfra(mock))
	ctx := context.Background()

	user := newTestUser(t, repo, "requester")

	meeting, err := uc.Bots.RequestBot(ctx, user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	gt.Value(t, meeting.Platform).Equal(types.PlatformGoogleMeet)
	gt.Value(t, meeting.NativeID).Equal("abc-defg-hij")
	gt.Value(t, meeting.Status).Equal(types.MeetingStatusActive)
	gt.Bool(t, meeting.IsLive).True()
	gt.Value(t, meeting.InfraMeetingID).Equal("infra-1")
	gt.Number(t, mock.requestBotCount()).Equal(1)

	linked, err := repo.Meeting().HasLink(ctx, user.ID, meeting.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, linked).True()
}

func TestRequestBotSecondUserSharesMeeting(t *testing.T) {
	repo := memory.New()
	mock := &mockInfraService{}
	uc := usecase.New(repo, usecase.WithInfra(mock))
	ctx := context.Background()

	alice := newTestUser(t, repo, "alice")
	bob := newTestUser(t, repo, "bob")

	first, err := uc.Bots.RequestBot(ctx, alice, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	second, err := uc.Bots.RequestBot(ctx, bob, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	// one meeting, two links, one upstream request
	gt.Value(t, second.ID).Equal(first.ID)
	gt.Number(t, mock.requestBotCount()).Equal(1)

	users, err := repo.Meeting().LinkedUsers(ctx, first.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, users).Length(2)
}

func TestRequestBotUpstreamFailureLeavesNoMeeting(t *testing.T) {
	repo := memory.New()
	mock := &mockInfraService{
		requestBot: func(ctx context.Context, platform types.Platform, nativeID string) (*infra.BotInfo, error) {
			return nil, errors.New("bot limit reached")
		},
	}
	uc := usecase.New(repo, usecase.WithInfra(mock))
	ctx := context.Background()

	user := newTestUser(t, repo, "limited")

	_, err := uc.Bots.RequestBot(ctx, user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, usecase.ErrUpstream))

	_, err = repo.Meeting().GetByNaturalKey(ctx, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.Error(t, err)

	meetings, err := repo.Meeting().ListByUser(ctx, user.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, meetings).Length(0)
}

func TestRequestBotRejectsUnknownPlatform(t *testing.T) {
	repo := memory.New()
	uc := usecase.New(repo, usecase.WithInfra(&mockInfraService{}))

	user := newTestUser(t, repo, "badplatform")

	_, err := uc.Bots.RequestBot(context.Background(), user, types.Platform("teams"), "xyz")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, usecase.ErrBadRequest))
}

func TestStopBotReturnsAckWithoutLocalMutation(t *testing.T) {
	repo := memory.New()
	mock := &mockInfraService{}
	uc := usecase.New(repo, usecase.WithInfra(mock))
	ctx := context.Background()

	user := newTestUser(t, repo, "stopper")
	meeting, err := uc.Bots.RequestBot(ctx, user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()

	ack, err := uc.Bots.StopBot(ctx, user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.NoError(t, err).Required()
	gt.Value(t, ack["message"]).Equal("accepted")

	unchanged, err := repo.Meeting().GetByID(ctx, meeting.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, unchanged.IsLive).True()
	gt.Value(t, unchanged.Status).Equal(types.MeetingStatusActive)
}

func TestStopBotUpstreamFailure(t *testing.T) {
	repo := memory.New()
	mock := &mockInfraService{
		stopBot: func(ctx context.Context, platform types.Platform, nativeID string) (map[string]any, error) {
			return nil, errors.New("no bot running")
		},
	}
	uc := usecase.New(repo, usecase.WithInfra(mock))

	user := newTestUser(t, repo, "stopfail")

	_, err := uc.Bots.StopBot(context.Background(), user, types.PlatformGoogleMeet, "abc-defg-hij")
	gt.Error(t, err)
	gt.True(t, errors.Is(err, usecase.ErrUpstream))
}
