package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

type transcriptRepository struct {
	pool *pgxpool.Pool
}

func (r *transcriptRepository) ListByMeeting(ctx context.Context, meetingID types.MeetingID) ([]*model.TranscriptSegment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, meeting_id, start_time, end_time, text, speaker, language
		 FROM transcript_segments WHERE meeting_id = $1
		 ORDER BY start_time ASC, id ASC`,
		meetingID.Int64())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query transcript segments", goerr.V("meeting_id", meetingID))
	}
	defer rows.Close()

	var segments []*model.TranscriptSegment
	for rows.Next() {
		var seg model.TranscriptSegment
		if err := rows.Scan(&seg.ID, &seg.MeetingID, &seg.StartTime, &seg.EndTime,
			&seg.Text, &seg.Speaker, &seg.Language); err != nil {
			return nil, goerr.Wrap(err, "failed to scan transcript segment")
		}
		segments = append(segments, &seg)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate transcript segments")
	}
	return segments, nil
}
