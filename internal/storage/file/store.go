// Package file stores room snapshots as JSON documents on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cardroom-server/internal/game"
	"cardroom-server/internal/storage"
)

// Store writes one <room_id>.json per room under its directory.
type Store struct {
	dir string
}

// Open creates the directory if needed.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create rooms dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Close() error {
	return nil
}

// Save replaces the room's snapshot. The document is written to a temp file
// and renamed into place so a reader never sees a partial file.
func (s *Store) Save(ctx context.Context, state *game.RoomState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(state.RoomID)
	if err != nil {
		return err
	}
	data, err := storage.Encode(state)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".room-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to save room %s: %w", state.RoomID, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save room %s: %w", state.RoomID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to save room %s: %w", state.RoomID, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save room %s: %w", state.RoomID, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, roomID string) (*game.RoomState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(roomID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, roomID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load room %s: %w", roomID, err)
	}
	return storage.Decode(roomID, data)
}

func (s *Store) path(roomID string) (string, error) {
	if roomID == "" || strings.ContainsAny(roomID, `/\`) || roomID == "." || roomID == ".." {
		return "", fmt.Errorf("invalid room id %q", roomID)
	}
	return filepath.Join(s.dir, roomID+".json"), nil
}
