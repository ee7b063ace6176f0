// Package storage defines how room snapshots are persisted. Backends live in
// the file, postgres and sqlite subpackages.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cardroom-server/internal/game"
)

var (
	ErrNotFound = errors.New("NOT_FOUND: no saved state")
	ErrCorrupt  = errors.New("CORRUPT_SNAPSHOT: saved state is unreadable")
)

// Store saves and restores whole room snapshots. Each save overwrites the
// previous snapshot for that room.
type Store interface {
	Save(ctx context.Context, state *game.RoomState) error
	Load(ctx context.Context, roomID string) (*game.RoomState, error)
	Close() error
}

// Encode serializes a room for storage.
func Encode(state *game.RoomState) ([]byte, error) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize room %s: %w", state.RoomID, err)
	}
	return data, nil
}

// Decode restores a room snapshot. Missing fields get their defaults and the
// result must satisfy the zone invariants, otherwise ErrCorrupt is returned.
func Decode(roomID string, data []byte) (*game.RoomState, error) {
	var state game.RoomState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: room %s: %v", ErrCorrupt, roomID, err)
	}
	if state.RoomID == "" {
		state.RoomID = roomID
	}
	state.Normalize()
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("%w: room %s: %v", ErrCorrupt, roomID, err)
	}
	return &state, nil
}

// IsMissing reports whether a Load error means there is nothing usable to
// restore.
func IsMissing(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt)
}
