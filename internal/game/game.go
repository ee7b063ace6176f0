package game

import (
	"fmt"
	"slices"
)

type Seat string

const (
	SeatA Seat = "A"
	SeatB Seat = "B"
)

// Seats is the fixed iteration order used whenever the engine searches
// across players.
var Seats = []Seat{SeatA, SeatB}

func (s Seat) Valid() bool {
	return s == SeatA || s == SeatB
}

func (s Seat) Other() Seat {
	if s == SeatA {
		return SeatB
	}
	return SeatA
}

type Phase string

const (
	PhaseUntap      Phase = "Untap"
	PhaseUpkeep     Phase = "Upkeep"
	PhaseDraw       Phase = "Draw"
	PhaseMain       Phase = "Main"
	PhaseCombat     Phase = "Combat"
	PhaseSecondMain Phase = "Second Main"
	PhaseEnd        Phase = "End"
)

// Phases lists the turn structure in order. set_phase does not check
// against it; clients are expected to send one of these.
var Phases = []Phase{PhaseUntap, PhaseUpkeep, PhaseDraw, PhaseMain, PhaseCombat, PhaseSecondMain, PhaseEnd}

type Zone string

const (
	ZoneLibrary     Zone = "library"
	ZoneHand        Zone = "hand"
	ZoneBattlefield Zone = "battlefield"
	ZoneGraveyard   Zone = "graveyard"
	ZoneExile       Zone = "exile"
)

// SearchOrder is the zone order used when locating a card whose source zone
// is not given.
var SearchOrder = []Zone{ZoneHand, ZoneBattlefield, ZoneGraveyard, ZoneExile, ZoneLibrary}

func ParseZone(s string) (Zone, error) {
	z := Zone(s)
	if !slices.Contains(SearchOrder, z) {
		return "", fmt.Errorf("%w: unknown zone %q", ErrInvalidPayload, s)
	}
	return z, nil
}

type PlayerState struct {
	ID           Seat     `json:"id"`
	Name         string   `json:"name"`
	Life         int      `json:"life"`
	Wins         int      `json:"wins"`
	RevealedHand bool     `json:"revealed_hand"`
	ShowHand     bool     `json:"show_hand"`
	ShowTop      bool     `json:"show_top"`
	Library      []string `json:"library"`
	Hand         []string `json:"hand"`
	Battlefield  []string `json:"battlefield"`
	Graveyard    []string `json:"graveyard"`
	Exile        []string `json:"exile"`
}

const StartingLife = 20

func NewPlayer(seat Seat) *PlayerState {
	return &PlayerState{
		ID:          seat,
		Name:        "Player " + string(seat),
		Life:        StartingLife,
		Library:     []string{},
		Hand:        []string{},
		Battlefield: []string{},
		Graveyard:   []string{},
		Exile:       []string{},
	}
}

// Zone returns a pointer to the named zone slice so callers can splice it
// in place.
func (p *PlayerState) Zone(z Zone) *[]string {
	switch z {
	case ZoneLibrary:
		return &p.Library
	case ZoneHand:
		return &p.Hand
	case ZoneBattlefield:
		return &p.Battlefield
	case ZoneGraveyard:
		return &p.Graveyard
	case ZoneExile:
		return &p.Exile
	}
	return nil
}

// normalize replaces nil zones with empty slices so snapshots always carry
// arrays.
func (p *PlayerState) normalize() {
	for _, z := range SearchOrder {
		zone := p.Zone(z)
		if *zone == nil {
			*zone = []string{}
		}
	}
}

// RoomState is the authoritative snapshot of one room. The card table is the
// single owner of every CardInstance; zones only hold ids.
type RoomState struct {
	RoomID  string                   `json:"room_id"`
	Turn    Seat                     `json:"turn"`
	Phase   Phase                    `json:"phase"`
	Cards   map[string]*CardInstance `json:"cards"`
	Players map[Seat]*PlayerState    `json:"players"`
}

// Player returns the seat's state, or an invalid-payload error for seats
// other than A and B.
func (s *RoomState) Player(seat Seat) (*PlayerState, error) {
	p, ok := s.Players[seat]
	if !ok {
		return nil, fmt.Errorf("%w: unknown player %q", ErrInvalidPayload, seat)
	}
	return p, nil
}

// Locate finds which player and zone currently hold a card id.
func (s *RoomState) Locate(cardID string) (Seat, Zone, bool) {
	for _, seat := range Seats {
		p, ok := s.Players[seat]
		if !ok {
			continue
		}
		for _, z := range SearchOrder {
			if slices.Contains(*p.Zone(z), cardID) {
				return seat, z, true
			}
		}
	}
	return "", "", false
}

// Normalize fills in defaults missing from an older or hand-edited snapshot.
func (s *RoomState) Normalize() {
	if s.Cards == nil {
		s.Cards = make(map[string]*CardInstance)
	}
	if s.Players == nil {
		s.Players = make(map[Seat]*PlayerState)
	}
	for _, seat := range Seats {
		if s.Players[seat] == nil {
			s.Players[seat] = NewPlayer(seat)
		}
		s.Players[seat].normalize()
	}
	for _, c := range s.Cards {
		if c != nil && c.Counters == nil {
			c.Counters = make(map[string]int)
		}
	}
	if !s.Turn.Valid() {
		s.Turn = SeatA
	}
	if s.Phase == "" {
		s.Phase = PhaseMain
	}
}
