package banlist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roombot/internal/app/db"
)

// PGBackend stores the ban lists of one room in the ban_entries table.
type PGBackend struct {
	pool *pgxpool.Pool
	room string
}

func NewPGBackend(pool *pgxpool.Pool, room string) *PGBackend {
	return &PGBackend{pool: pool, room: room}
}

func (b *PGBackend) Load(ctx context.Context, list List) ([]string, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT pattern FROM ban_entries WHERE room = $1 AND list = $2 ORDER BY id`,
		b.room, string(list))
	if err != nil {
		if db.IsMissingTable(err) {
			return nil, fmt.Errorf("ban_entries table is missing, migrations not applied: %w", err)
		}
		return nil, fmt.Errorf("querying ban entries: %w", err)
	}
	patterns, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning ban entries: %w", err)
	}
	return patterns, nil
}

func (b *PGBackend) Append(ctx context.Context, list List, pattern string) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO ban_entries (room, list, pattern) VALUES ($1, $2, $3)`,
		b.room, string(list), pattern)
	if err != nil {
		if db.IsUniqueViolation(err, db.BanEntriesUnique) {
			return ErrAlreadyPresent
		}
		return fmt.Errorf("inserting ban entry: %w", err)
	}
	return nil
}

func (b *PGBackend) Remove(ctx context.Context, list List, pattern string) error {
	_, err := b.pool.Exec(ctx,
		`DELETE FROM ban_entries WHERE room = $1 AND list = $2 AND pattern = $3`,
		b.room, string(list), pattern)
	if err != nil {
		return fmt.Errorf("deleting ban entry: %w", err)
	}
	return nil
}

func (b *PGBackend) Clear(ctx context.Context, list List) error {
	_, err := b.pool.Exec(ctx,
		`DELETE FROM ban_entries WHERE room = $1 AND list = $2`,
		b.room, string(list))
	if err != nil {
		return fmt.Errorf("clearing ban entries: %w", err)
	}
	return nil
}
