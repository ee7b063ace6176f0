// Package session serializes actions on a room and mirrors every resulting
// state to the room's connected peers.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cardroom-server/internal/game"
)

// Peer is one connected viewer of a room.
type Peer interface {
	ID() string
	Send(ctx context.Context, data []byte) error
	Close()
}

// StateMessage is the broadcast sent after every change.
type StateMessage struct {
	Kind  string          `json:"kind"`
	State *game.RoomState `json:"state"`
}

// Session owns one room. The mutex is held across apply and broadcast so
// every peer observes the same sequence of states.
type Session struct {
	id          string
	state       *game.RoomState
	peers       map[string]Peer
	sendTimeout time.Duration
	logger      *zap.Logger
	mu          sync.Mutex
}

// DefaultSendTimeout bounds a single peer send when none is configured.
const DefaultSendTimeout = 2 * time.Second

func newSession(state *game.RoomState, sendTimeout time.Duration, logger *zap.Logger) *Session {
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}
	return &Session{
		id:          state.RoomID,
		state:       state,
		peers:       make(map[string]Peer),
		sendTimeout: sendTimeout,
		logger:      logger.With(zap.String("room_id", state.RoomID)),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Join registers the peer, applies the seat's name and, when the seat has
// an empty library, seeds it from deck. The new state goes to every peer.
func (s *Session) Join(ctx context.Context, p Peer, seat game.Seat, name string, deck []game.Descriptor, openingHand int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.state.Player(seat)
	if err != nil {
		return err
	}
	if len(deck) > 0 && len(player.Library) == 0 {
		s.state.SeedLibrary(seat, deck)
		if openingHand > 0 {
			_ = game.Apply(s.state, game.Draw{Player: seat, N: openingHand})
		}
		s.logger.Info("Seeded library", zap.String("seat", string(seat)), zap.Int("cards", len(deck)))
	}
	if name != "" {
		if err := game.Apply(s.state, game.SetName{Player: seat, Name: name}); err != nil {
			return err
		}
	}

	s.peers[p.ID()] = p
	s.broadcastLocked(ctx)
	return nil
}

// Leave drops the peer without touching the room state.
func (s *Session) Leave(peerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, peerID)
}

// Apply runs the action and broadcasts the result. A failed action leaves
// the state unchanged and is not broadcast.
func (s *Session) Apply(ctx context.Context, a game.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := game.Apply(s.state, a); err != nil {
		return err
	}
	s.broadcastLocked(ctx)
	return nil
}

// Broadcast resends the current state to every peer.
func (s *Session) Broadcast(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcastLocked(ctx)
}

// Replace installs a restored snapshot, keeping the connected peers.
func (s *Session) Replace(ctx context.Context, state *game.RoomState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.RoomID = s.id
	s.state = state
	s.broadcastLocked(ctx)
}

// Snapshot returns a deep copy of the state that is safe to use without the
// room lock.
func (s *Session) Snapshot() (*game.RoomState, error) {
	s.mu.Lock()
	data, err := json.Marshal(s.state)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot room %s: %w", s.id, err)
	}

	var copied game.RoomState
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, fmt.Errorf("failed to snapshot room %s: %w", s.id, err)
	}
	return &copied, nil
}

func (s *Session) PeerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// broadcastLocked fans the current state out to all peers in parallel.
// Peers that fail or exceed the send timeout are closed and dropped; the
// change itself is never rolled back. Callers must hold s.mu.
func (s *Session) broadcastLocked(ctx context.Context) {
	if len(s.peers) == 0 {
		return
	}
	data, err := json.Marshal(StateMessage{Kind: "state", State: s.state})
	if err != nil {
		s.logger.Error("Failed to marshal state", zap.Error(err))
		return
	}

	peers := make([]Peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	failed := make([]error, len(peers))

	var g errgroup.Group
	for i, p := range peers {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)
			defer cancel()
			failed[i] = p.Send(sendCtx, data)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range failed {
		if err == nil {
			continue
		}
		p := peers[i]
		s.logger.Warn("Dropping peer after failed send", zap.String("peer_id", p.ID()), zap.Error(err))
		delete(s.peers, p.ID())
		p.Close()
	}
}
