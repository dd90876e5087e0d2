package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
	"github.com/recapd/relay/pkg/domain/model"
	"github.com/recapd/relay/pkg/domain/types"
)

type meetingRepository struct {
	pool *pgxpool.Pool
}

const meetingColumns = `id, platform, native_id, status, start_time, end_time,
	is_live, transcript_cached, infra_meeting_id, extra, created_at, updated_at`

func scanMeeting(row pgx.Row) (*model.Meeting, error) {
	var m model.Meeting
	if err := row.Scan(&m.ID, &m.Platform, &m.NativeID, &m.Status,
		&m.StartTime, &m.EndTime, &m.IsLive, &m.TranscriptCached,
		&m.InfraMeetingID, &m.Extra, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *meetingRepository) Create(ctx context.Context, meeting *model.Meeting) (*model.Meeting, error) {
	if err := meeting.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid meeting")
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO meetings (platform, native_id, status, start_time, end_time,
			is_live, transcript_cached, infra_meeting_id, extra)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+meetingColumns,
		meeting.Platform.String(), meeting.NativeID, meeting.Status.String(),
		meeting.StartTime, meeting.EndTime, meeting.IsLive,
		meeting.TranscriptCached, meeting.InfraMeetingID, meeting.Extra)

	created, err := scanMeeting(row)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "meeting natural key already exists",
				goerr.V("platform", meeting.Platform), goerr.V("native_id", meeting.NativeID))
		}
		return nil, goerr.Wrap(err, "failed to create meeting",
			goerr.V("platform", meeting.Platform), goerr.V("native_id", meeting.NativeID))
	}
	return created, nil
}

func (r *meetingRepository) GetByID(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE id = $1`, id.Int64())

	meeting, err := scanMeeting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get meeting", goerr.V("id", id))
	}
	return meeting, nil
}

func (r *meetingRepository) GetByNaturalKey(ctx context.Context, platform types.Platform, nativeID string) (*model.Meeting, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE platform = $1 AND native_id = $2`,
		platform.String(), nativeID)

	meeting, err := scanMeeting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found",
				goerr.V("platform", platform), goerr.V("native_id", nativeID))
		}
		return nil, goerr.Wrap(err, "failed to get meeting",
			goerr.V("platform", platform), goerr.V("native_id", nativeID))
	}
	return meeting, nil
}

func (r *meetingRepository) EnsureLink(ctx context.Context, userID types.UserID, meetingID types.MeetingID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_meetings (user_id, meeting_id) VALUES ($1, $2)
		 ON CONFLICT (user_id, meeting_id) DO NOTHING`,
		userID.Int64(), meetingID.Int64())
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return goerr.Wrap(interfaces.ErrNotFound, "user or meeting not found",
				goerr.V("user_id", userID), goerr.V("meeting_id", meetingID))
		}
		return goerr.Wrap(err, "failed to create linkage",
			goerr.V("user_id", userID), goerr.V("meeting_id", meetingID))
	}
	return nil
}

func (r *meetingRepository) HasLink(ctx context.Context, userID types.UserID, meetingID types.MeetingID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_meetings WHERE user_id = $1 AND meeting_id = $2)`,
		userID.Int64(), meetingID.Int64()).Scan(&exists)
	if err != nil {
		return false, goerr.Wrap(err, "failed to query linkage",
			goerr.V("user_id", userID), goerr.V("meeting_id", meetingID))
	}
	return exists, nil
}

func (r *meetingRepository) LinkedUsers(ctx context.Context, meetingID types.MeetingID) ([]types.UserID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM user_meetings WHERE meeting_id = $1 ORDER BY user_id ASC`,
		meetingID.Int64())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query linkages", goerr.V("meeting_id", meetingID))
	}
	defer rows.Close()

	var users []types.UserID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, goerr.Wrap(err, "failed to scan linkage")
		}
		users = append(users, types.UserID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate linkages")
	}
	return users, nil
}

func (r *meetingRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Meeting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+meetingColumns+` FROM meetings
		 JOIN user_meetings ON user_meetings.meeting_id = meetings.id
		 WHERE user_meetings.user_id = $1
		 ORDER BY meetings.id ASC`,
		userID.Int64())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query meetings", goerr.V("user_id", userID))
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan meeting")
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate meetings")
	}
	return meetings, nil
}

func (r *meetingRepository) List(ctx context.Context, offset, limit int) ([]*model.Meeting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+meetingColumns+` FROM meetings ORDER BY id ASC OFFSET $1 LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query meetings")
	}
	defer rows.Close()

	var meetings []*model.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan meeting")
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate meetings")
	}
	return meetings, nil
}

func (r *meetingRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM meetings`).Scan(&total); err != nil {
		return 0, goerr.Wrap(err, "failed to count meetings")
	}
	return total, nil
}

func (r *meetingRepository) Archive(ctx context.Context, id types.MeetingID, segments []*model.TranscriptSegment, snap *model.ArchiveSnapshot) (*model.Meeting, error) {
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid transcript segment", goerr.V("meeting_id", id))
		}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE id = $1 FOR UPDATE`, id.Int64())
	meeting, err := scanMeeting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get meeting", goerr.V("id", id))
	}
	if meeting.TranscriptCached {
		return nil, goerr.Wrap(interfaces.ErrAlreadyArchived, "transcript already cached", goerr.V("id", id))
	}

	for _, seg := range segments {
		if _, err := tx.Exec(ctx,
			`INSERT INTO transcript_segments (meeting_id, start_time, end_time, text, speaker, language)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id.Int64(), seg.StartTime, seg.EndTime, seg.Text, seg.Speaker, seg.Language); err != nil {
			return nil, goerr.Wrap(err, "failed to insert transcript segment", goerr.V("meeting_id", id))
		}
	}

	meeting.ApplyArchive(snap, time.Now().UTC())

	if _, err := tx.Exec(ctx,
		`UPDATE meetings SET status = $2, start_time = $3, end_time = $4, is_live = $5,
			transcript_cached = $6, infra_meeting_id = $7, extra = $8, updated_at = $9
		 WHERE id = $1`,
		id.Int64(), meeting.Status.String(), meeting.StartTime, meeting.EndTime,
		meeting.IsLive, meeting.TranscriptCached, meeting.InfraMeetingID,
		meeting.Extra, meeting.UpdatedAt); err != nil {
		return nil, goerr.Wrap(err, "failed to update meeting", goerr.V("id", id))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to commit archive", goerr.V("id", id))
	}
	return meeting, nil
}
