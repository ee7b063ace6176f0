package game

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// payload is the union of every field an action may carry on the wire.
// Pointers distinguish "absent" from the zero value.
type payload struct {
	PlayerID *string  `json:"player_id"`
	CardID   *string  `json:"card_id"`
	Name     *string  `json:"name"`
	Text     *string  `json:"text"`
	N        *flexInt `json:"n"`
	Delta    *flexInt `json:"delta"`
	From     *string  `json:"from"`
	To       *string  `json:"to"`
	Value    *bool    `json:"value"`
	Phase    *string  `json:"phase"`
	Zone     *string  `json:"zone"`
	X        *flexInt `json:"x"`
	Y        *flexInt `json:"y"`
	Z        *flexInt `json:"z"`
	Creature *bool    `json:"creature"`
	Counter  *string  `json:"kind"`
}

// flexInt accepts JSON numbers (integral floats included) and numeric
// strings, which is what browser clients tend to send.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("expected a number, got null")
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("expected a number, got %q", s)
		}
		*f = flexInt(n)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
		return fmt.Errorf("expected an integer, got %v", v)
	}
	*f = flexInt(v)
	return nil
}

// DecodeAction turns a wire action into its typed form. Unknown kinds return
// ErrUnknownAction, which callers treat as a no-op. Structural problems
// return ErrInvalidPayload.
func DecodeAction(kind string, raw json.RawMessage) (Action, error) {
	if !KnownKind(kind) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
	}
	var p payload
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
	}

	switch ActionKind(kind) {
	case KindSetName:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		name, err := required(p.Name, "name")
		if err != nil {
			return nil, err
		}
		return SetName{Player: seat, Name: name}, nil

	case KindDraw:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		n, err := p.count(1)
		if err != nil {
			return nil, err
		}
		return Draw{Player: seat, N: n}, nil

	case KindMove:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		cardID, err := required(p.CardID, "card_id")
		if err != nil {
			return nil, err
		}
		to, err := required(p.To, "to")
		if err != nil {
			return nil, err
		}
		dst, err := ParseZone(to)
		if err != nil {
			return nil, err
		}
		var src Zone
		if p.From != nil && *p.From != "" && *p.From != "any" {
			if src, err = ParseZone(*p.From); err != nil {
				return nil, err
			}
		}
		return Move{Player: seat, CardID: cardID, From: src, To: dst}, nil

	case KindTapToggle:
		cardID, err := required(p.CardID, "card_id")
		if err != nil {
			return nil, err
		}
		return TapToggle{CardID: cardID}, nil

	case KindUntapAll:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		return UntapAll{Player: seat}, nil

	case KindLife, KindWins:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		if p.Delta == nil {
			return nil, missing("delta")
		}
		if ActionKind(kind) == KindLife {
			return Life{Player: seat, Delta: int(*p.Delta)}, nil
		}
		return Wins{Player: seat, Delta: int(*p.Delta)}, nil

	case KindRevealHand, KindSetShowHand, KindSetShowTop:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		if p.Value == nil {
			return nil, missing("value")
		}
		flag := FlagRevealedHand
		switch ActionKind(kind) {
		case KindSetShowHand:
			flag = FlagShowHand
		case KindSetShowTop:
			flag = FlagShowTop
		}
		return SetVisibility{Player: seat, Flag: flag, Value: *p.Value}, nil

	case KindToggleShowHand, KindToggleShowTop:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		flag := FlagShowHand
		if ActionKind(kind) == KindToggleShowTop {
			flag = FlagShowTop
		}
		return ToggleVisibility{Player: seat, Flag: flag}, nil

	case KindPassTurn:
		return PassTurn{}, nil

	case KindSetPhase:
		phase, err := required(p.Phase, "phase")
		if err != nil {
			return nil, err
		}
		return SetPhase{Phase: Phase(phase)}, nil

	case KindShuffleLibrary:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		return ShuffleLibrary{Player: seat}, nil

	case KindMulligan:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		n, err := p.count(7)
		if err != nil {
			return nil, err
		}
		return Mulligan{Player: seat, N: n}, nil

	case KindSwapZoneWithHand:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		zone, err := required(p.Zone, "zone")
		if err != nil {
			return nil, err
		}
		z := Zone(zone)
		if z != ZoneGraveyard && z != ZoneExile && z != ZoneLibrary {
			return nil, fmt.Errorf("%w: cannot swap hand with %q", ErrInvalidPayload, zone)
		}
		return SwapZoneWithHand{Player: seat, Zone: z}, nil

	case KindSetCardPos:
		cardID, err := required(p.CardID, "card_id")
		if err != nil {
			return nil, err
		}
		if p.X == nil {
			return nil, missing("x")
		}
		if p.Y == nil {
			return nil, missing("y")
		}
		z := 1
		if p.Z != nil {
			z = int(*p.Z)
		}
		return SetCardPos{CardID: cardID, Pos: Position{X: int(*p.X), Y: int(*p.Y), Z: z}}, nil

	case KindAddCounter:
		cardID, err := required(p.CardID, "card_id")
		if err != nil {
			return nil, err
		}
		counter, err := required(p.Counter, "kind")
		if err != nil {
			return nil, err
		}
		delta := 1
		if p.Delta != nil {
			delta = int(*p.Delta)
		}
		return AddCounter{CardID: cardID, Counter: counter, Delta: delta}, nil

	case KindCreateToken:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		a := CreateToken{Player: seat}
		if p.Name != nil {
			a.Name = *p.Name
		}
		if p.Creature != nil {
			a.Creature = *p.Creature
		}
		if p.Text != nil {
			a.Text = *p.Text
		}
		return a, nil

	case KindUpdateToken:
		cardID, err := required(p.CardID, "card_id")
		if err != nil {
			return nil, err
		}
		if p.Text == nil {
			return nil, missing("text")
		}
		return UpdateToken{CardID: cardID, Text: *p.Text}, nil

	case KindRemoveToken, KindPutOnBottom:
		seat, err := p.seat()
		if err != nil {
			return nil, err
		}
		cardID, err := required(p.CardID, "card_id")
		if err != nil {
			return nil, err
		}
		if ActionKind(kind) == KindRemoveToken {
			return RemoveToken{Player: seat, CardID: cardID}, nil
		}
		return PutOnBottom{Player: seat, CardID: cardID}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, kind)
}

var knownKinds = map[ActionKind]bool{
	KindSetName: true, KindLife: true, KindWins: true, KindPassTurn: true, KindSetPhase: true,
	KindDraw: true, KindMove: true, KindShuffleLibrary: true, KindMulligan: true,
	KindSwapZoneWithHand: true, KindPutOnBottom: true,
	KindTapToggle: true, KindUntapAll: true, KindSetCardPos: true, KindAddCounter: true,
	KindCreateToken: true, KindUpdateToken: true, KindRemoveToken: true,
	KindRevealHand: true, KindSetShowHand: true, KindSetShowTop: true,
	KindToggleShowHand: true, KindToggleShowTop: true,
}

// KnownKind reports whether the wire tag names an action.
func KnownKind(kind string) bool {
	return knownKinds[ActionKind(kind)]
}

func (p payload) seat() (Seat, error) {
	if p.PlayerID == nil {
		return "", missing("player_id")
	}
	seat := Seat(*p.PlayerID)
	if !seat.Valid() {
		return "", fmt.Errorf("%w: unknown player %q", ErrInvalidPayload, *p.PlayerID)
	}
	return seat, nil
}

func (p payload) count(def int) (int, error) {
	if p.N == nil {
		return def, nil
	}
	if *p.N < 0 {
		return 0, fmt.Errorf("%w: n must not be negative", ErrInvalidPayload)
	}
	return int(*p.N), nil
}

func required(v *string, field string) (string, error) {
	if v == nil || *v == "" {
		return "", missing(field)
	}
	return *v, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrInvalidPayload, field)
}
