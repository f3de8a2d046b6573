package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adanyl0v/daily-todo/internal/config"
	"github.com/adanyl0v/daily-todo/internal/storage"
)

var globalBackend storage.Backend

func MustOpenStorage() {
	cfg := config.Global().Storage

	var err error
	switch cfg.Driver {
	case config.StorageDriverMemory:
		globalBackend = storage.NewMemoryBackend()
	case config.StorageDriverFile:
		globalBackend, err = storage.NewFileBackend(globalLogger, cfg.FilePath)
	case config.StorageDriverPostgres:
		globalBackend, err = openPostgresBackend()
	case config.StorageDriverMySQL:
		mysqlCfg := config.Global().MySQL
		globalBackend, err = storage.OpenMySQL(context.Background(), globalLogger, mysqlCfg.DSN, mysqlCfg.PingTimeout)
	default:
		err = fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("driver", cfg.Driver).
			Msg("failed to open storage")
		panic(err)
	}

	globalLogger.Info().
		Str("driver", cfg.Driver).
		Msg("opened storage")
}

func CloseStorage() {
	if globalBackend == nil {
		return
	}

	err := globalBackend.Close()
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to close storage")
		return
	}
	globalLogger.Info().Msg("closed storage")
}

func openPostgresBackend() (storage.Backend, error) {
	cfg := config.Global().Postgres
	connURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host,
		cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pgPool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = pgPool.Ping(ctx)
	if err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")

	backend := storage.NewPostgresBackend(globalLogger, pgPool)
	err = backend.EnsureTable(ctx)
	if err != nil {
		pgPool.Close()
		return nil, err
	}
	return backend, nil
}
