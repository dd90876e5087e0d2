package memory

import (
	"context"
	"sort"

	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

type transcriptRepository struct {
	store *store
}

func (r *transcriptRepository) ListByMeeting(ctx context.Context, meetingID types.MeetingID) ([]*model.TranscriptSegment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stored := r.store.segments[meetingID]
	segments := make([]*model.TranscriptSegment, 0, len(stored))
	for _, seg := range stored {
		segments = append(segments, copySegment(seg))
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].StartTime < segments[j].StartTime
	})
	return segments, nil
}
