package game_test

import (
	"cardroom-server/internal/game"
	"encoding/json"
	"math/rand/v2"
	"testing"
)

func snapshot(t testing.TB, s *game.RoomState) string {
	t.Helper()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Failed to marshal state: %v", err)
	}
	return string(data)
}

// randomAction picks a zone-affecting action using ids that exist in the
// room (and occasionally ones that don't).
func randomAction(r *rand.Rand, s *game.RoomState) game.Action {
	seat := game.Seats[r.IntN(2)]
	zones := game.SearchOrder
	anyCard := func() string {
		if len(s.Cards) == 0 || r.IntN(10) == 0 {
			return "missing"
		}
		i := r.IntN(len(s.Cards))
		for id := range s.Cards {
			if i == 0 {
				return id
			}
			i--
		}
		return "missing"
	}
	pick := func(ids []string) string {
		if len(ids) == 0 {
			return "missing"
		}
		return ids[r.IntN(len(ids))]
	}

	switch r.IntN(9) {
	case 0:
		return game.Draw{Player: seat, N: r.IntN(4)}
	case 1:
		return game.Move{Player: seat, CardID: anyCard(), To: zones[r.IntN(len(zones))]}
	case 2:
		return game.Move{Player: seat, CardID: anyCard(), From: zones[r.IntN(len(zones))], To: zones[r.IntN(len(zones))]}
	case 3:
		return game.Mulligan{Player: seat, N: r.IntN(8)}
	case 4:
		swappable := []game.Zone{game.ZoneGraveyard, game.ZoneExile, game.ZoneLibrary}
		return game.SwapZoneWithHand{Player: seat, Zone: swappable[r.IntN(3)]}
	case 5:
		return game.CreateToken{Player: seat, Name: "Token", Creature: r.IntN(2) == 0}
	case 6:
		return game.RemoveToken{Player: seat, CardID: pick(s.Players[seat].Battlefield)}
	case 7:
		return game.PutOnBottom{Player: seat, CardID: pick(s.Players[seat].Hand)}
	default:
		return game.ShuffleLibrary{Player: seat}
	}
}

func checkZoneInvariant(t *testing.T, s *game.RoomState, step int, a game.Action) {
	t.Helper()
	if err := s.Validate(); err != nil {
		t.Fatalf("Step %d (%s %+v): %v", step, a.Kind(), a, err)
	}
	for id, card := range s.Cards {
		if count := s.ZoneCount(id); count != 1 {
			t.Fatalf("Step %d (%s): card %s (%s) is in %d zones", step, a.Kind(), id, card.Name, count)
		}
	}
}

func TestZoneInvariantRandomSequences(t *testing.T) {
	for seed := range uint64(50) {
		r := rand.New(rand.NewPCG(seed, seed*31+7))
		s := game.NewRoom("P", names("A", 15), names("B", 15))

		for step := range 300 {
			a := randomAction(r, s)
			if err := game.Apply(s, a); err != nil {
				t.Fatalf("Seed %d step %d: %s returned %v", seed, step, a.Kind(), err)
			}
			checkZoneInvariant(t, s, step, a)
		}
	}
}

func FuzzZoneInvariant(f *testing.F) {
	f.Add(uint64(1), uint64(2), 50)
	f.Add(uint64(99), uint64(7), 200)

	f.Fuzz(func(t *testing.T, s1, s2 uint64, steps int) {
		if steps < 0 || steps > 500 {
			t.Skip()
		}
		r := rand.New(rand.NewPCG(s1, s2))
		s := game.NewRoom("F", names("A", 8), names("B", 8))
		for step := range steps {
			a := randomAction(r, s)
			if err := game.Apply(s, a); err != nil {
				t.Fatalf("Step %d: %s returned %v", step, a.Kind(), err)
			}
			checkZoneInvariant(t, s, step, a)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(s *game.RoomState)
	}{
		{"dangling id", func(s *game.RoomState) {
			s.Players[game.SeatA].Hand = append(s.Players[game.SeatA].Hand, "ghost")
		}},
		{"duplicate id", func(s *game.RoomState) {
			s.Players[game.SeatB].Exile = append(s.Players[game.SeatB].Exile, s.Players[game.SeatA].Library[0])
		}},
		{"missing seat", func(s *game.RoomState) {
			delete(s.Players, game.SeatB)
		}},
		{"missing room id", func(s *game.RoomState) {
			s.RoomID = ""
		}},
		{"null card row", func(s *game.RoomState) {
			s.Cards["ghost"] = nil
		}},
		{"card row under another key", func(s *game.RoomState) {
			id := s.Players[game.SeatA].Library[0]
			card := *s.Cards[id]
			card.ID = "other"
			s.Cards[id] = &card
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestRoom()
			tt.corrupt(s)
			if err := s.Validate(); err == nil {
				t.Error("Expected Validate to fail")
			}
		})
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	var s game.RoomState
	if err := json.Unmarshal([]byte(`{"room_id":"OLD","players":{"A":{"id":"A","name":"Ann","life":12,"hand":null}}}`), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	s.Normalize()

	if s.Turn != game.SeatA || s.Phase != game.PhaseMain {
		t.Errorf("Expected defaults A/Main, got %s/%s", s.Turn, s.Phase)
	}
	if s.Players[game.SeatB] == nil {
		t.Fatal("Missing seat should be created")
	}
	if s.Players[game.SeatA].Hand == nil || s.Players[game.SeatA].Life != 12 {
		t.Errorf("Existing seat should keep its values and get empty zones: %+v", s.Players[game.SeatA])
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Normalized state should validate: %v", err)
	}
}
