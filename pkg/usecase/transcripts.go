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

// TranscriptsUseCase serves meeting listings and transcripts, proxying live
// meetings to the upstream and archived ones from the local cache.
type TranscriptsUseCase struct {
	repo      interfaces.Repository
	infra     infra.Service
	platforms *model.PlatformRegistry
}

func NewTranscriptsUseCase(repo interfaces.Repository, svc infra.Service, platforms *model.PlatformRegistry) *TranscriptsUseCase {
	return &TranscriptsUseCase{
		repo:      repo,
		infra:     svc,
		platforms: platforms,
	}
}

// TranscriptResult is a meeting with its transcript segments
type TranscriptResult struct {
	Meeting  *model.Meeting
	Segments []*model.TranscriptSegment
}

// GetTranscript returns the transcript of a meeting the user is linked to.
// Both an absent meeting and a meeting the user has no linkage to yield
// ErrNotFound, so callers cannot probe for meetings of other users.
func (uc *TranscriptsUseCase) GetTranscript(ctx context.Context, user *model.User, platform types.Platform, nativeID string) (*TranscriptResult, error) {
	if _, err := uc.platforms.Get(platform); err != nil {
		return nil, goerr.Wrap(ErrBadRequest, "unsupported platform", goerr.V("platform", platform))
	}

	meeting, err := uc.repo.Meeting().GetByNaturalKey(ctx, platform, nativeID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, goerr.Wrap(ErrNotFound, "meeting not found or no access")
		}
		return nil, goerr.Wrap(err, "failed to look up meeting")
	}

	linked, err := uc.repo.Meeting().HasLink(ctx, user.ID, meeting.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check linkage")
	}
	if !linked {
		return nil, goerr.Wrap(ErrNotFound, "meeting not found or no access")
	}

	if meeting.IsLive {
		transcript, err := uc.infra.GetTranscript(ctx, platform, nativeID)
		if err != nil {
			return nil, goerr.Wrap(ErrUpstream, "failed to fetch live transcript", goerr.V("cause", err))
		}
		return &TranscriptResult{
			Meeting:  meeting,
			Segments: convertSegments(meeting.ID, transcript.Segments),
		}, nil
	}

	segments, err := uc.repo.Transcript().ListByMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read cached transcript", goerr.V("meeting_id", meeting.ID))
	}
	return &TranscriptResult{Meeting: meeting, Segments: segments}, nil
}

// ListMeetings returns every meeting the user is linked to
func (uc *TranscriptsUseCase) ListMeetings(ctx context.Context, user *model.User) ([]*model.Meeting, error) {
	meetings, err := uc.repo.Meeting().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list meetings", goerr.V("user_id", user.ID))
	}
	return meetings, nil
}

// convertSegments maps upstream transcript lines onto the local segment model
func convertSegments(meetingID types.MeetingID, in []infra.Segment) []*model.TranscriptSegment {
	out := make([]*model.TranscriptSegment, 0, len(in))
	for _, s := range in {
		out = append(out, &model.TranscriptSegment{
			MeetingID: meetingID,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Text:      s.Text,
			Speaker:   s.Speaker,
			Language:  s.Language,
		})
	}
	return out
}
