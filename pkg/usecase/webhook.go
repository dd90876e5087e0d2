package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"github.com/recapd/relay/pkg/service/infra"
	"github.com/recapd/relay/pkg/utils/async"
	"github.com/recapd/relay/pkg/utils/logging"
)

// WebhookUseCase ingests the upstream meeting-finished notification and
// drives the live-to-archived transition.
type WebhookUseCase struct {
	repo  interfaces.Repository
	infra infra.Service
}

func NewWebhookUseCase(repo interfaces.Repository, svc infra.Service) *WebhookUseCase {
	return &WebhookUseCase{
		repo:  repo,
		infra: svc,
	}
}

// Finalize caches the final transcript of a finished meeting and flips it to
// archived in one atomic unit. A meeting that is already archived is left
// untouched; redelivered webhooks are harmless. Upstream cleanup runs
// fire-and-forget after the local state is durable.
func (uc *WebhookUseCase) Finalize(ctx context.Context, platform types.Platform, nativeID string) error {
	meeting, err := uc.repo.Meeting().GetByNaturalKey(ctx, platform, nativeID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return goerr.Wrap(ErrNotFound, "meeting not found",
				goerr.V("platform", platform), goerr.V("native_id", nativeID))
		}
		return goerr.Wrap(err, "failed to look up meeting")
	}

	if meeting.TranscriptCached {
		logging.From(ctx).Info("meeting already archived, ignoring webhook",
			"platform", platform, "native_id", nativeID)
		return nil
	}

	transcript, err := uc.infra.GetTranscript(ctx, platform, nativeID)
	if err != nil {
		return goerr.Wrap(ErrUpstream, "failed to fetch final transcript", goerr.V("cause", err))
	}

	snap := &model.ArchiveSnapshot{
		StartTime: transcript.StartTime,
		EndTime:   transcript.EndTime,
	}

	if _, err := uc.repo.Meeting().Archive(ctx, meeting.ID, convertSegments(meeting.ID, transcript.Segments), snap); err != nil {
		// A concurrent delivery archived it first; nothing left to do
		if errors.Is(err, interfaces.ErrAlreadyArchived) {
			return nil
		}
		return goerr.Wrap(err, "failed to archive meeting", goerr.V("meeting_id", meeting.ID))
	}

	async.Dispatch(ctx, func(ctx context.Context) error {
		if err := uc.infra.DeleteMeeting(ctx, platform, nativeID); err != nil {
			return goerr.Wrap(err, "failed to delete upstream meeting",
				goerr.V("platform", platform), goerr.V("native_id", nativeID))
		}
		return nil
	})

	return nil
}
