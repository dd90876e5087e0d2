package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/service/infra"
)

// BotsUseCase proxies bot lifecycle operations and maintains the meeting
// registry and user linkage.
type BotsUseCase struct {
	repo      interfaces.Repository
	infra     infra.Service
	platforms *model.PlatformRegistry
}

func NewBotsUseCase(repo interfaces.Repository, svc infra.Service, platforms *model.PlatformRegistry) *BotsUseCase {
	return &BotsUseCase{
		repo:      repo,
		infra:     svc,
		platforms: platforms,
	}
}

func (uc *BotsUseCase) validatePlatform(platform types.Platform) error {
	if _, err := uc.platforms.Get(platform); err != nil {
		return goerr.Wrap(ErrBadRequest, "unsupported platform", goerr.V("platform", platform))
	}
	return nil
}

// RequestBot ensures a bot records the meeting for the user. An existing
// meeting is returned unchanged with the linkage ensured; no second upstream
// request is made for the same natural key. For a new meeting the upstream is
// called first so a rejected bot never leaves an orphan row.
func (uc *BotsUseCase) RequestBot(ctx context.Context, user *model.User, platform types.Platform, nativeID string) (*model.Meeting, error) {
	if err := uc.validatePlatform(platform); err != nil {
		return nil, err
	}
	if nativeID == "" {
		return nil, goerr.Wrap(ErrBadRequest, "native meeting ID is required")
	}

	existing, err := uc.repo.Meeting().GetByNaturalKey(ctx, platform, nativeID)
	if err == nil {
		if err := uc.repo.Meeting().EnsureLink(ctx, user.ID, existing.ID); err != nil {
			return nil, goerr.Wrap(err, "failed to link user to meeting")
		}
		return existing, nil
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, goerr.Wrap(err, "failed to look up meeting")
	}

	info, err := uc.infra.RequestBot(ctx, platform, nativeID)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "bot request rejected", goerr.V("cause", err))
	}

	meeting := &model.Meeting{
		Platform:       platform,
		NativeID:       nativeID,
		Status:         types.MeetingStatusActive,
		IsLive:         true,
		InfraMeetingID: info.ID,
		Extra:          info.Extra,
	}

	created, err := uc.repo.Meeting().Create(ctx, meeting)
	if err != nil {
		// A raced duplicate means another request won; adopt its meeting
		if errors.Is(err, interfaces.ErrAlreadyExists) {
			created, err = uc.repo.Meeting().GetByNaturalKey(ctx, platform, nativeID)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to re-fetch raced meeting")
			}
		} else {
			return nil, goerr.Wrap(err, "failed to create meeting")
		}
	}

	if err := uc.repo.Meeting().EnsureLink(ctx, user.ID, created.ID); err != nil {
		return nil, goerr.Wrap(err, "failed to link user to meeting")
	}
	return created, nil
}

// StopBot forwards a stop request to the upstream and returns its ack
// verbatim. Local state is not touched; the finalization webhook owns the
// live-to-archived transition.
func (uc *BotsUseCase) StopBot(ctx context.Context, user *model.User, platform types.Platform, nativeID string) (map[string]any, error) {
	if err := uc.validatePlatform(platform); err != nil {
		return nil, err
	}
	if nativeID == "" {
		return nil, goerr.Wrap(ErrBadRequest, "native meeting ID is required")
	}

	ack, err := uc.infra.StopBot(ctx, platform, nativeID)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "stop request rejected", goerr.V("cause", err))
	}
	return ack, nil
}

// RunningBots lists the bots the upstream currently operates
func (uc *BotsUseCase) RunningBots(ctx context.Context) ([]infra.BotStatus, error) {
	bots, err := uc.infra.RunningBots(ctx)
	if err != nil {
		return nil, goerr.Wrap(ErrUpstream, "failed to list running bots", goerr.V("cause", err))
	}
	return bots, nil
}
