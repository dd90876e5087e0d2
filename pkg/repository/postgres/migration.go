package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		max_concurrent_bots INTEGER NOT NULL DEFAULT 1,
		webhook_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS api_tokens (
		id BIGSERIAL PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_api_tokens_user ON api_tokens (user_id)`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id BIGSERIAL PRIMARY KEY,
		platform TEXT NOT NULL,
		native_id TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time TIMESTAMPTZ,
		end_time TIMESTAMPTZ,
		is_live BOOLEAN NOT NULL DEFAULT FALSE,
		transcript_cached BOOLEAN NOT NULL DEFAULT FALSE,
		infra_meeting_id TEXT NOT NULL DEFAULT '',
		extra JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE(platform, native_id)
	)`,
	`CREATE TABLE IF NOT EXISTS user_meetings (
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		meeting_id BIGINT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, meeting_id)
	)`,
	`CREATE TABLE IF NOT EXISTS transcript_segments (
		id BIGSERIAL PRIMARY KEY,
		meeting_id BIGINT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		start_time DOUBLE PRECISION NOT NULL,
		end_time DOUBLE PRECISION NOT NULL,
		text TEXT NOT NULL,
		speaker TEXT,
		language TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transcript_segments_meeting ON transcript_segments (meeting_id, start_time)`,
}

func runMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to run migration statement")
		}
	}
	return nil
}
