package game

import (
	"fmt"
	"slices"
)

// Apply runs one action against the room. The state is mutated in place:
// callers keep using the same *RoomState afterwards. When an error is
// returned the state is left exactly as it was.
//
// Apply is not safe for concurrent use; the owning session serializes calls.
func Apply(s *RoomState, a Action) error {
	switch a := a.(type) {
	case SetName:
		return s.setName(a)
	case Draw:
		return s.draw(a.Player, a.N)
	case Move:
		return s.move(a)
	case TapToggle:
		return s.tapToggle(a.CardID)
	case UntapAll:
		return s.untapAll(a.Player)
	case Life:
		return s.withPlayer(a.Player, func(p *PlayerState) { p.Life += a.Delta })
	case Wins:
		return s.withPlayer(a.Player, func(p *PlayerState) { p.Wins = max(0, p.Wins+a.Delta) })
	case SetVisibility:
		return s.withPlayer(a.Player, func(p *PlayerState) { *p.flag(a.Flag) = a.Value })
	case ToggleVisibility:
		return s.withPlayer(a.Player, func(p *PlayerState) { f := p.flag(a.Flag); *f = !*f })
	case PassTurn:
		s.Turn = s.Turn.Other()
		s.Phase = PhaseMain
		return nil
	case SetPhase:
		s.Phase = a.Phase
		return nil
	case ShuffleLibrary:
		return s.withPlayer(a.Player, func(p *PlayerState) { shuffle(p.Library) })
	case Mulligan:
		return s.mulligan(a.Player, a.N)
	case SwapZoneWithHand:
		return s.swapZoneWithHand(a.Player, a.Zone)
	case SetCardPos:
		if card, ok := s.Cards[a.CardID]; ok {
			pos := a.Pos
			card.Pos = &pos
		}
		return nil
	case AddCounter:
		return s.addCounter(a)
	case CreateToken:
		return s.createToken(a)
	case UpdateToken:
		return s.updateToken(a.CardID, a.Text)
	case RemoveToken:
		return s.removeToken(a.Player, a.CardID)
	case PutOnBottom:
		return s.putOnBottom(a.Player, a.CardID)
	}
	return fmt.Errorf("%w: %T", ErrUnknownAction, a)
}

func (s *RoomState) withPlayer(seat Seat, fn func(p *PlayerState)) error {
	p, err := s.Player(seat)
	if err != nil {
		return err
	}
	fn(p)
	return nil
}

func (p *PlayerState) flag(f VisibilityFlag) *bool {
	switch f {
	case FlagShowHand:
		return &p.ShowHand
	case FlagShowTop:
		return &p.ShowTop
	}
	return &p.RevealedHand
}

func (s *RoomState) setName(a SetName) error {
	return s.withPlayer(a.Player, func(p *PlayerState) {
		p.Name = truncate(a.Name, MaxNameLength)
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// draw pops from the end of the library (the top) onto the end of the hand.
// Running out of cards just stops the draw.
func (s *RoomState) draw(seat Seat, n int) error {
	return s.withPlayer(seat, func(p *PlayerState) {
		for range max(n, 0) {
			if len(p.Library) == 0 {
				return
			}
			last := len(p.Library) - 1
			id := p.Library[last]
			p.Library = p.Library[:last]
			p.Hand = append(p.Hand, id)
		}
	})
}

// move takes the card out of whichever zone holds it and appends it to the
// target zone of the payload's player, which may differ from the current
// holder. A card that cannot be found is a silent no-op so clients can retry.
func (s *RoomState) move(a Move) error {
	target, err := s.Player(a.Player)
	if err != nil {
		return err
	}
	dst := target.Zone(a.To)
	if dst == nil {
		return fmt.Errorf("%w: unknown zone %q", ErrInvalidPayload, a.To)
	}

	seat, zone, ok := s.locateFrom(a.CardID, a.From)
	if !ok {
		return nil
	}

	src := s.Players[seat].Zone(zone)
	*src = removeID(*src, a.CardID)
	*dst = append(*dst, a.CardID)

	if card, ok := s.Cards[a.CardID]; ok {
		if a.To == ZoneBattlefield {
			if card.Pos == nil {
				card.Pos = DefaultPosition()
			}
		} else {
			card.Pos = nil
		}
	}
	return nil
}

// locateFrom checks the hinted zone first (across both seats) and falls back
// to the full search order.
func (s *RoomState) locateFrom(cardID string, from Zone) (Seat, Zone, bool) {
	if from != "" && from != "any" {
		for _, seat := range Seats {
			p, ok := s.Players[seat]
			if !ok {
				continue
			}
			if zone := p.Zone(from); zone != nil && slices.Contains(*zone, cardID) {
				return seat, from, true
			}
		}
	}
	return s.Locate(cardID)
}

func removeID(ids []string, id string) []string {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}

func (s *RoomState) tapToggle(cardID string) error {
	card, ok := s.Cards[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	card.Tapped = !card.Tapped
	return nil
}

func (s *RoomState) untapAll(seat Seat) error {
	return s.withPlayer(seat, func(p *PlayerState) {
		for _, id := range p.Battlefield {
			if card, ok := s.Cards[id]; ok {
				card.Tapped = false
			}
		}
	})
}

func (s *RoomState) mulligan(seat Seat, n int) error {
	p, err := s.Player(seat)
	if err != nil {
		return err
	}
	p.Library = append(p.Library, p.Hand...)
	p.Hand = []string{}
	shuffle(p.Library)
	return s.draw(seat, n)
}

func (s *RoomState) swapZoneWithHand(seat Seat, zone Zone) error {
	if zone != ZoneGraveyard && zone != ZoneExile && zone != ZoneLibrary {
		return fmt.Errorf("%w: cannot swap hand with %q", ErrInvalidPayload, zone)
	}
	return s.withPlayer(seat, func(p *PlayerState) {
		other := p.Zone(zone)
		p.Hand, *other = *other, p.Hand
	})
}

func (s *RoomState) addCounter(a AddCounter) error {
	card, ok := s.Cards[a.CardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, a.CardID)
	}
	if a.Counter == "" {
		return fmt.Errorf("%w: counter kind is required", ErrInvalidPayload)
	}
	if card.Counters == nil {
		card.Counters = make(map[string]int)
	}
	count := card.Counters[a.Counter] + a.Delta
	if count <= 0 {
		delete(card.Counters, a.Counter)
		return nil
	}
	card.Counters[a.Counter] = count
	return nil
}

func (s *RoomState) createToken(a CreateToken) error {
	p, err := s.Player(a.Player)
	if err != nil {
		return err
	}
	token := NewToken(a.Name, a.Creature, a.Text)
	s.Cards[token.ID] = token
	p.Battlefield = append(p.Battlefield, token.ID)
	return nil
}

func (s *RoomState) updateToken(cardID, text string) error {
	card, ok := s.Cards[cardID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCardNotFound, cardID)
	}
	if card.IsToken {
		card.Text = text
	}
	return nil
}

// removeToken deletes a token outright. The id is pulled from the player's
// battlefield, or from wherever the token has since been moved, so the card
// table never loses a row that a zone still references. Non-token cards are
// never deleted.
func (s *RoomState) removeToken(seat Seat, cardID string) error {
	p, err := s.Player(seat)
	if err != nil {
		return err
	}
	card, ok := s.Cards[cardID]
	if !ok || !card.IsToken {
		return nil
	}
	if slices.Contains(p.Battlefield, cardID) {
		p.Battlefield = removeID(p.Battlefield, cardID)
	} else if holder, zone, found := s.Locate(cardID); found {
		z := s.Players[holder].Zone(zone)
		*z = removeID(*z, cardID)
	}
	delete(s.Cards, cardID)
	return nil
}

// putOnBottom moves a card from hand to the head of the library. Draws pop
// from the tail, so the head is the bottom of the deck.
func (s *RoomState) putOnBottom(seat Seat, cardID string) error {
	p, err := s.Player(seat)
	if err != nil {
		return err
	}
	if !slices.Contains(p.Hand, cardID) {
		return nil
	}
	p.Hand = removeID(p.Hand, cardID)
	p.Library = slices.Insert(p.Library, 0, cardID)
	if card, ok := s.Cards[cardID]; ok {
		card.Pos = nil
	}
	return nil
}
