package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type transcriptRepository struct {
	client *firestore.Client
}

type segmentDoc struct {
	ID        int64   `firestore:"id"`
	MeetingID int64   `firestore:"meeting_id"`
	StartTime float64 `firestore:"start_time"`
	EndTime   float64 `firestore:"end_time"`
	Text      string  `firestore:"text"`
	Speaker   *string `firestore:"speaker"`
	Language  *string `firestore:"language"`
}

func toSegmentDoc(s *model.TranscriptSegment) *segmentDoc {
	return &segmentDoc{
		ID:        s.ID.Int64(),
		MeetingID: s.MeetingID.Int64(),
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Text:      s.Text,
		Speaker:   s.Speaker,
		Language:  s.Language,
	}
}

func (d *segmentDoc) toModel() *model.TranscriptSegment {
	return &model.TranscriptSegment{
		ID:        types.SegmentID(d.ID),
		MeetingID: types.MeetingID(d.MeetingID),
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Text:      d.Text,
		Speaker:   d.Speaker,
		Language:  d.Language,
	}
}

// ListByMeeting needs the composite index on (meeting_id, start_time)
// provisioned by the migrate command.
func (r *transcriptRepository) ListByMeeting(ctx context.Context, meetingID types.MeetingID) ([]*model.TranscriptSegment, error) {
	iter := r.client.Collection(segmentsCollection).
		Where("meeting_id", "==", meetingID.Int64()).
		OrderBy("start_time", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var segments []*model.TranscriptSegment
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate transcript segments", goerr.V("meeting_id", meetingID))
		}

		var d segmentDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal transcript segment")
		}
		segments = append(segments, d.toModel())
	}
	return segments, nil
}
