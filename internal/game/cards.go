package game

import (
	"github.com/google/uuid"
)

type TokenKind string

const (
	TokenCreature TokenKind = "creature"
	TokenChip     TokenKind = "chip"
)

// Position is a card's placement on the battlefield. Only meaningful while
// the card sits in a battlefield zone.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// DefaultPosition is where a card lands when it enters the battlefield
// without a position of its own.
func DefaultPosition() *Position {
	return &Position{X: 0, Y: 0, Z: 1}
}

// CardInstance is one physical or virtual copy of a card. Two instances with
// the same name are still different cards.
type CardInstance struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Tapped          bool           `json:"tapped"`
	Counters        map[string]int `json:"counters"`
	Image           *string        `json:"image"`
	ScryfallID      *string        `json:"scryfall_id"`
	Set             *string        `json:"set"`
	CollectorNumber *string        `json:"collector_number"`
	Pos             *Position      `json:"pos"`
	IsToken         bool           `json:"is_token"`
	TokenKind       TokenKind      `json:"token_kind,omitempty"`
	Text            string         `json:"text,omitempty"`
}

// Descriptor describes a card to mint. Produced by the deck loader and
// consumed by the room factory.
type Descriptor struct {
	Name            string  `json:"name"`
	Image           *string `json:"image,omitempty"`
	ScryfallID      *string `json:"scryfall_id,omitempty"`
	Set             *string `json:"set,omitempty"`
	CollectorNumber *string `json:"collector_number,omitempty"`
}

func newCardID() string {
	return uuid.NewString()
}

// NewCard mints a fresh instance for a descriptor.
func NewCard(d Descriptor) *CardInstance {
	name := d.Name
	if name == "" {
		name = "Card"
	}
	return &CardInstance{
		ID:              newCardID(),
		Name:            name,
		Counters:        make(map[string]int),
		Image:           d.Image,
		ScryfallID:      d.ScryfallID,
		Set:             d.Set,
		CollectorNumber: d.CollectorNumber,
	}
}

// NewToken mints a token instance. Tokens are the only cards the engine
// ever deletes.
func NewToken(name string, creature bool, text string) *CardInstance {
	kind := TokenChip
	if creature {
		kind = TokenCreature
	}
	if name == "" {
		name = "Token"
	}
	return &CardInstance{
		ID:        newCardID(),
		Name:      name,
		Counters:  make(map[string]int),
		IsToken:   true,
		TokenKind: kind,
		Text:      text,
		Pos:       DefaultPosition(),
	}
}
