// Package postgres stores room snapshots in a PostgreSQL jsonb column.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardroom-server/internal/game"
	"cardroom-server/internal/storage"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and ensures the snapshot table exists.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// Save upserts the room's snapshot.
func (s *Store) Save(ctx context.Context, state *game.RoomState) error {
	data, err := storage.Encode(state)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO room_snapshots (room_id, state, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (room_id) DO UPDATE
		SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
	`, state.RoomID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save room %s: %w", state.RoomID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, roomID string) (*game.RoomState, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state::text FROM room_snapshots WHERE room_id = $1`, roomID,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}
	return storage.Decode(roomID, data)
}
