package game

import (
	"fmt"
)

// Validate checks the structural invariants of a room: both seats exist,
// every zone id has a row in the card table, and no id sits in more than one
// zone. Every card row must be non-nil and keyed by its own id; rows that no
// zone references are allowed.
func (s *RoomState) Validate() error {
	if s.RoomID == "" {
		return fmt.Errorf("%w: missing room id", ErrInvalidState)
	}
	for id, card := range s.Cards {
		if card == nil {
			return fmt.Errorf("%w: card %s has no row", ErrInvalidState, id)
		}
		if card.ID != id {
			return fmt.Errorf("%w: card row %s carries id %q", ErrInvalidState, id, card.ID)
		}
	}
	seen := make(map[string]string)
	for _, seat := range Seats {
		p, ok := s.Players[seat]
		if !ok || p == nil {
			return fmt.Errorf("%w: missing player %s", ErrInvalidState, seat)
		}
		for _, z := range SearchOrder {
			where := string(seat) + "." + string(z)
			for _, id := range *p.Zone(z) {
				if card, ok := s.Cards[id]; !ok || card == nil {
					return fmt.Errorf("%w: %s references unknown card %s", ErrInvalidState, where, id)
				}
				if prev, dup := seen[id]; dup {
					return fmt.Errorf("%w: card %s is in both %s and %s", ErrInvalidState, id, prev, where)
				}
				seen[id] = where
			}
		}
	}
	return nil
}

// ZoneCount returns how many zones across the room hold the card id.
func (s *RoomState) ZoneCount(cardID string) int {
	count := 0
	for _, seat := range Seats {
		p, ok := s.Players[seat]
		if !ok {
			continue
		}
		for _, z := range SearchOrder {
			for _, id := range *p.Zone(z) {
				if id == cardID {
					count++
				}
			}
		}
	}
	return count
}
