/*
Package db opens the PostgreSQL pool used by the postgres ban list backend and applies the
embedded goose migrations.
*/
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"roombot/internal/pkg/logx"
)

// BanEntriesUnique is the constraint that keeps one row per (room, list, pattern).
const BanEntriesUnique = "ban_entries_unique"

const (
	connectTimeout = 15 * time.Second

	// shared by every room
	maxConns = 4
	minConns = 1
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// NewPool connects to dsn, checks the connection and migrates the ban list schema.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database DSN: %w", err)
	}
	config.MaxConns = maxConns
	config.MinConns = minConns
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s: %w", config.ConnConfig.Host, err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Migrate applies the pending ban list migrations through a database/sql handle on the pool's
// connection settings.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	return migrate(ctx, sqlDB)
}

func migrate(ctx context.Context, sqlDB *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "migrations"); err != nil {
		return fmt.Errorf("applying ban list migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, sqlDB)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logx.Info("Ban list schema is up to date.", "version", version)
	return nil
}
