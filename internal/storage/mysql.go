package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

const mysqlErrNoSuchTable = 1146

type MySQLBackend struct {
	logger zerolog.Logger
	db     *sql.DB
}

// OpenMySQL connects with dsn, pings within pingTimeout and makes sure the
// kv_entries table exists.
func OpenMySQL(ctx context.Context, logger zerolog.Logger, dsn string, pingTimeout time.Duration) (*MySQLBackend, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	b := &MySQLBackend{logger: logger, db: db}
	if err := b.EnsureTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info().
		Str("addr", cfg.Addr).
		Str("database", cfg.DBName).
		Msg("connected to mysql")
	return b, nil
}

func (b *MySQLBackend) EnsureTable(ctx context.Context) error {
	const createTableQuery = `
CREATE TABLE IF NOT EXISTS kv_entries (
    ` + "`key`" + ` VARCHAR(191) PRIMARY KEY,
    value      JSON NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	if _, err := b.db.ExecContext(ctx, createTableQuery); err != nil {
		b.logger.Error().
			Err(err).
			Msg("failed to create kv_entries table")
		return err
	}
	return nil
}

func (b *MySQLBackend) Get(ctx context.Context, key string) ([]byte, error) {
	const selectEntryQuery = "SELECT value FROM kv_entries WHERE `key` = ?"

	var value []byte
	err := b.db.QueryRowContext(ctx, selectEntryQuery, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}

		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlErrNoSuchTable {
			return nil, ErrKeyNotFound
		}

		b.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to select entry")
		return nil, err
	}
	return value, nil
}

func (b *MySQLBackend) Set(ctx context.Context, key string, value []byte) error {
	const upsertEntryQuery = "INSERT INTO kv_entries (`key`, value, updated_at) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = VALUES(updated_at)"

	_, err := b.db.ExecContext(ctx, upsertEntryQuery, key, value, time.Now())
	if err != nil {
		b.logger.Error().
			Err(err).
			Str("key", key).
			Msg("failed to upsert entry")
		if errors.Is(err, mysql.ErrInvalidConn) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return err
	}
	b.logger.Debug().
		Str("key", key).
		Int("bytes", len(value)).
		Msg("upserted entry")
	return nil
}

func (b *MySQLBackend) Close() error {
	return b.db.Close()
}
