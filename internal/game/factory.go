package game

import (
	"math/rand/v2"
)

// NewRoom builds a fresh room from two deck lists. Each seat's library holds
// its own freshly minted instances in random order. No cards are dealt; any
// opening hand is the caller's policy.
func NewRoom(roomID string, deckA, deckB []Descriptor) *RoomState {
	state := &RoomState{
		RoomID: roomID,
		Turn:   SeatA,
		Phase:  PhaseMain,
		Cards:  make(map[string]*CardInstance),
		Players: map[Seat]*PlayerState{
			SeatA: NewPlayer(SeatA),
			SeatB: NewPlayer(SeatB),
		},
	}

	state.SeedLibrary(SeatA, deckA)
	state.SeedLibrary(SeatB, deckB)

	return state
}

// SeedLibrary mints instances for the descriptors, registers them in the
// card table, appends them to the seat's library and shuffles it.
func (s *RoomState) SeedLibrary(seat Seat, deck []Descriptor) {
	p := s.Players[seat]
	if p == nil {
		return
	}
	for _, d := range deck {
		card := NewCard(d)
		s.Cards[card.ID] = card
		p.Library = append(p.Library, card.ID)
	}
	shuffle(p.Library)
}

func shuffle(ids []string) {
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}
