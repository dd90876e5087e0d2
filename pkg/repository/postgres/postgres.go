package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/recapd/relay/pkg/domain/interfaces"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Postgres implements interfaces.Repository on PostgreSQL via pgx.
type Postgres struct {
	pool       *pgxpool.Pool
	user       *userRepository
	token      *tokenRepository
	meeting    *meetingRepository
	transcript *transcriptRepository
}

var _ interfaces.Repository = &Postgres{}

func New(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping database")
	}
	if err := runMigration(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{
		pool:       pool,
		user:       &userRepository{pool: pool},
		token:      &tokenRepository{pool: pool},
		meeting:    &meetingRepository{pool: pool},
		transcript: &transcriptRepository{pool: pool},
	}, nil
}

func (p *Postgres) User() interfaces.UserRepository {
	return p.user
}

func (p *Postgres) Token() interfaces.TokenRepository {
	return p.token
}

func (p *Postgres) Meeting() interfaces.MeetingRepository {
	return p.meeting
}

func (p *Postgres) Transcript() interfaces.TranscriptRepository {
	return p.transcript
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// pgErrorCode extracts the SQLSTATE code when err is a PostgreSQL error.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
