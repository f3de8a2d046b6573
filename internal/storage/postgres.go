package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type PostgresBackend struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPostgresBackend(logger zerolog.Logger, pgPool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{
		logger: logger,
		pgPool: pgPool,
	}
}

// EnsureTable creates the kv_entries table if it doesn't exist.
func (b *PostgresBackend) EnsureTable(ctx context.Context) error {
	const createTableQuery = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key        TEXT PRIMARY KEY,
    value      JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)
`
	_, err := b.pgPool.Exec(ctx, createTableQuery)
	if err != nil {
		b.logger.Error().
			Err(err).
			Msg("failed to create kv_entries table")
		return classifyPgError(err)
	}
	b.logger.Debug().Msg("ensured kv_entries table")
	return nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	const selectEntryQuery = `
SELECT value::text
FROM kv_entries
WHERE key = $1
`
	var value string
	err := b.pgPool.QueryRow(
		ctx,
		selectEntryQuery,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			b.logger.Debug().
				Str("key", key).
				Msg("entry not found")
			return nil, ErrKeyNotFound
		}

		b.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to select entry")
		return nil, classifyPgError(err)
	}
	return []byte(value), nil
}

func (b *PostgresBackend) Set(ctx context.Context, key string, value []byte) error {
	const upsertEntryQuery = `
INSERT INTO kv_entries (key, value, updated_at)
VALUES ($1, $2::jsonb, $3)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = EXCLUDED.updated_at
`
	_, err := b.pgPool.Exec(
		ctx,
		upsertEntryQuery,
		key,
		string(value),
		time.Now(),
	)
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to upsert entry")
		return classifyPgError(err)
	}
	b.logger.Debug().
		Str("key", key).
		Int("bytes", len(value)).
		Msg("upserted entry")
	return nil
}

func (b *PostgresBackend) Close() error {
	b.pgPool.Close()
	return nil
}

func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UndefinedTable:
			return ErrKeyNotFound
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return fmt.Errorf("%w: %s", ErrUnavailable, pgErr.Message)
		}
		return err
	}
	if pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
