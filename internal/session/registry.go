package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cardroom-server/internal/deck"
	"cardroom-server/internal/game"
	"cardroom-server/internal/storage"
)

var (
	ErrRoomNotFound    = errors.New("ROOM_NOT_FOUND: Room not found")
	ErrRoomUnavailable = errors.New("ROOM_UNAVAILABLE: could not restore room")
)

type Options struct {
	// OpeningHand is dealt to a seat whenever its library is first seeded.
	OpeningHand int
	SendTimeout time.Duration
}

// Registry maps room ids to live sessions. Its lock only guards the map;
// room work happens under each session's own lock.
type Registry struct {
	sessions map[string]*Session
	creating singleflight.Group
	store    storage.Store
	decks    deck.Loader
	opts     Options
	logger   *zap.Logger
	mu       sync.RWMutex
}

func NewRegistry(store storage.Store, decks deck.Loader, opts Options, logger *zap.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		store:    store,
		decks:    decks,
		opts:     opts,
		logger:   logger,
	}
}

// Get returns the live session for a room, if any.
func (r *Registry) Get(roomID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[roomID]
	return s, ok
}

type opened struct {
	session *Session
	creator string
}

// Join attaches a peer to a room, creating the room on first reference.
// A new room is restored from storage when a snapshot exists, otherwise it
// is built with the joining seat's deck and an empty opposite seat.
func (r *Registry) Join(ctx context.Context, roomID string, seat game.Seat, name, deckName string, p Peer) (*Session, error) {
	if !seat.Valid() {
		return nil, fmt.Errorf("%w: unknown player %q", game.ErrInvalidPayload, seat)
	}

	s, ok := r.Get(roomID)
	createdHere := false
	if !ok {
		v, err, _ := r.creating.Do(roomID, func() (any, error) {
			if s, ok := r.Get(roomID); ok {
				return opened{session: s}, nil
			}
			// The room outlives the request that first referenced it.
			s, fresh, err := r.create(context.WithoutCancel(ctx), roomID, seat, deckName)
			if err != nil {
				return nil, err
			}
			live, inserted := r.install(roomID, s)
			if !inserted || !fresh {
				return opened{session: live}, nil
			}
			return opened{session: live, creator: p.ID()}, nil
		})
		if err != nil {
			return nil, err
		}
		o := v.(opened)
		s = o.session
		createdHere = o.creator == p.ID()
	}

	var seed []game.Descriptor
	if !createdHere && deckName != "" {
		seed = r.loadDeck(ctx, deckName)
	}
	if err := s.Join(ctx, p, seat, name, seed, r.opts.OpeningHand); err != nil {
		return nil, err
	}
	return s, nil
}

// install registers s unless the room is already live, in which case the
// live session wins and is returned instead.
func (r *Registry) install(roomID string, s *Session) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if live, ok := r.sessions[roomID]; ok {
		return live, false
	}
	r.sessions[roomID] = s
	return s, true
}

// create restores the room from storage or, when nothing usable is saved,
// builds it from decks. fresh reports the latter. A store failure other than
// a missing snapshot is returned so a saved room is never shadowed.
func (r *Registry) create(ctx context.Context, roomID string, seat game.Seat, deckName string) (s *Session, fresh bool, err error) {
	state, err := r.store.Load(ctx, roomID)
	switch {
	case err == nil:
		state.RoomID = roomID
		r.logger.Info("Restored room", zap.String("room_id", roomID))
		return newSession(state, r.opts.SendTimeout, r.logger), false, nil
	case storage.IsMissing(err):
		if errors.Is(err, storage.ErrCorrupt) {
			r.logger.Warn("Ignoring unreadable snapshot", zap.String("room_id", roomID), zap.Error(err))
		}
	default:
		r.logger.Error("Failed to restore room", zap.String("room_id", roomID), zap.Error(err))
		return nil, false, fmt.Errorf("%w: %w", ErrRoomUnavailable, err)
	}

	var decks [2][]game.Descriptor
	joining := deck.Filler()
	if deckName != "" {
		joining = r.loadDeck(ctx, deckName)
	}
	if seat == game.SeatA {
		decks[0] = joining
	} else {
		decks[1] = joining
	}

	state = game.NewRoom(roomID, decks[0], decks[1])
	if r.opts.OpeningHand > 0 {
		_ = game.Apply(state, game.Draw{Player: seat, N: r.opts.OpeningHand})
	}
	r.logger.Info("Created room", zap.String("room_id", roomID), zap.String("seat", string(seat)), zap.Int("cards", len(joining)))
	return newSession(state, r.opts.SendTimeout, r.logger), true, nil
}

// loadDeck never fails: an unreadable deck falls back to the filler deck.
func (r *Registry) loadDeck(ctx context.Context, name string) []game.Descriptor {
	cards, err := r.decks.Load(ctx, name)
	if err != nil {
		r.logger.Warn("Failed to load deck, using filler", zap.String("deck", name), zap.Error(err))
		return deck.Filler()
	}
	return cards
}

// Leave detaches a peer from a room.
func (r *Registry) Leave(roomID, peerID string) {
	if s, ok := r.Get(roomID); ok {
		s.Leave(peerID)
	}
}

// Save persists the live room. The snapshot is taken under the room lock and
// written outside it.
func (r *Registry) Save(ctx context.Context, roomID string) error {
	s, ok := r.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	return r.save(ctx, s)
}

func (r *Registry) save(ctx context.Context, s *Session) error {
	state, err := s.Snapshot()
	if err != nil {
		return err
	}
	return r.store.Save(ctx, state)
}

// Load replaces the room with its saved snapshot and broadcasts it. A room
// that is not live yet is created from the snapshot with no peers.
func (r *Registry) Load(ctx context.Context, roomID string) error {
	state, err := r.store.Load(ctx, roomID)
	if err != nil {
		return err
	}
	state.RoomID = roomID

	s, inserted := r.install(roomID, newSession(state, r.opts.SendTimeout, r.logger))
	if !inserted {
		s.Replace(ctx, state)
	}
	return nil
}

// SaveAll persists every live room and returns how many were written.
func (r *Registry) SaveAll(ctx context.Context) (int, error) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	var errs []error
	saved := 0
	for _, s := range sessions {
		if err := r.save(ctx, s); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// Rooms reports how many rooms are live.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
