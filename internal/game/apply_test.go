package game_test

import (
	"cardroom-server/internal/game"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraw(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		wantHand    int
		wantLibrary int
	}{
		{"one", 1, 1, 4},
		{"all", 5, 5, 0},
		{"more than library", 9, 5, 0},
		{"zero", 0, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestRoom()
			lib := slices.Clone(s.Players[game.SeatA].Library)

			apply(t, s, game.Draw{Player: game.SeatA, N: tt.n})

			a := s.Players[game.SeatA]
			assert.Len(t, a.Hand, tt.wantHand)
			assert.Len(t, a.Library, tt.wantLibrary)

			// Cards come off the tail one at a time, so the hand is the
			// library tail reversed.
			moved := slices.Clone(lib[len(lib)-tt.wantHand:])
			slices.Reverse(moved)
			assert.Equal(t, moved, a.Hand)
		})
	}
}

func TestDrawAppendsToExistingHand(t *testing.T) {
	s := newTestRoom()
	apply(t, s, game.Draw{Player: game.SeatA, N: 1})
	first := s.Players[game.SeatA].Hand[0]

	apply(t, s, game.Draw{Player: game.SeatA, N: 2})

	assert.Equal(t, first, s.Players[game.SeatA].Hand[0])
	assert.Len(t, s.Players[game.SeatA].Hand, 3)
}

func TestMoveClearsPositionOffBattlefield(t *testing.T) {
	s := newTestRoom()
	apply(t, s, game.Draw{Player: game.SeatA, N: 1})
	cid := s.Players[game.SeatA].Hand[0]

	apply(t, s, game.Move{Player: game.SeatA, CardID: cid, To: game.ZoneBattlefield})
	require.NotNil(t, s.Cards[cid].Pos)

	apply(t, s, game.Move{Player: game.SeatA, CardID: cid, To: game.ZoneGraveyard})

	assert.Nil(t, s.Cards[cid].Pos)
	assert.Equal(t, []string{cid}, s.Players[game.SeatA].Graveyard)
	assert.Empty(t, s.Players[game.SeatA].Battlefield)
}

func TestMoveKeepsExistingBattlefieldPosition(t *testing.T) {
	s := newTestRoom()
	apply(t, s, game.Draw{Player: game.SeatA, N: 1})
	cid := s.Players[game.SeatA].Hand[0]
	apply(t, s, game.Move{Player: game.SeatA, CardID: cid, To: game.ZoneBattlefield})
	apply(t, s, game.SetCardPos{CardID: cid, Pos: game.Position{X: 40, Y: 80, Z: 3}})

	// Moving to another battlefield (stealing it) keeps the placement.
	apply(t, s, game.Move{Player: game.SeatB, CardID: cid, To: game.ZoneBattlefield})

	assert.Equal(t, &game.Position{X: 40, Y: 80, Z: 3}, s.Cards[cid].Pos)
	assert.Contains(t, s.Players[game.SeatB].Battlefield, cid)
	assert.NotContains(t, s.Players[game.SeatA].Battlefield, cid)
}

func TestMoveAcrossSeats(t *testing.T) {
	s := newTestRoom()
	cid := s.Players[game.SeatB].Library[0]

	apply(t, s, game.Move{Player: game.SeatA, CardID: cid, To: game.ZoneHand})

	assert.Contains(t, s.Players[game.SeatA].Hand, cid)
	assert.NotContains(t, s.Players[game.SeatB].Library, cid)
	assert.Equal(t, 1, s.ZoneCount(cid))
}

func TestMoveWithStaleFromStillFindsCard(t *testing.T) {
	s := newTestRoom()
	cid := s.Players[game.SeatA].Library[2]

	apply(t, s, game.Move{Player: game.SeatA, CardID: cid, From: game.ZoneHand, To: game.ZoneExile})

	assert.Equal(t, []string{cid}, s.Players[game.SeatA].Exile)
	assert.Len(t, s.Players[game.SeatA].Library, 4)
}

func TestMoveUnknownCardIsNoop(t *testing.T) {
	s := newTestRoom()
	before := snapshot(t, s)

	err := game.Apply(s, game.Move{Player: game.SeatA, CardID: "nope", To: game.ZoneHand})

	assert.NoError(t, err)
	assert.Equal(t, before, snapshot(t, s))
}

func TestMoveToUnknownZone(t *testing.T) {
	s := newTestRoom()
	cid := s.Players[game.SeatA].Library[0]

	err := game.Apply(s, game.Move{Player: game.SeatA, CardID: cid, To: "sideboard"})

	assert.ErrorIs(t, err, game.ErrInvalidPayload)
	assert.Contains(t, s.Players[game.SeatA].Library, cid)
}

func TestTapToggleUnknownCard(t *testing.T) {
	s := newTestRoom()
	before := snapshot(t, s)

	err := game.Apply(s, game.TapToggle{CardID: "missing"})

	assert.ErrorIs(t, err, game.ErrCardNotFound)
	assert.Equal(t, before, snapshot(t, s))
}

func TestTapToggleTwice(t *testing.T) {
	s := newTestRoom()
	cid := s.Players[game.SeatA].Library[0]

	apply(t, s, game.TapToggle{CardID: cid})
	apply(t, s, game.TapToggle{CardID: cid})

	assert.False(t, s.Cards[cid].Tapped)
}

func TestUntapAll(t *testing.T) {
	s := newTestRoom()
	apply(t, s, game.Draw{Player: game.SeatA, N: 2})
	hand := slices.Clone(s.Players[game.SeatA].Hand)
	for _, cid := range hand {
		apply(t, s, game.Move{Player: game.SeatA, CardID: cid, To: game.ZoneBattlefield})
		apply(t, s, game.TapToggle{CardID: cid})
	}
	opp := s.Players[game.SeatB].Library[0]
	apply(t, s, game.TapToggle{CardID: opp})

	apply(t, s, game.UntapAll{Player: game.SeatA})

	for _, cid := range hand {
		assert.False(t, s.Cards[cid].Tapped)
	}
	assert.True(t, s.Cards[opp].Tapped, "Other seat's cards are untouched")
}

func TestLifeAndWins(t *testing.T) {
	s := newTestRoom()

	apply(t, s, game.Life{Player: game.SeatA, Delta: -3})
	assert.Equal(t, 17, s.Players[game.SeatA].Life)

	apply(t, s, game.Life{Player: game.SeatA, Delta: -30})
	assert.Equal(t, -13, s.Players[game.SeatA].Life, "Life has no floor")

	apply(t, s, game.Wins{Player: game.SeatB, Delta: 2})
	assert.Equal(t, 2, s.Players[game.SeatB].Wins)

	apply(t, s, game.Wins{Player: game.SeatB, Delta: -5})
	assert.Equal(t, 0, s.Players[game.SeatB].Wins, "Wins are floored at zero")
}

func TestUnknownSeat(t *testing.T) {
	s := newTestRoom()

	err := game.Apply(s, game.Life{Player: "C", Delta: 1})

	assert.ErrorIs(t, err, game.ErrInvalidPayload)
}

func TestSetName(t *testing.T) {
	s := newTestRoom()

	apply(t, s, game.SetName{Player: game.SeatB, Name: "Bob"})
	assert.Equal(t, "Bob", s.Players[game.SeatB].Name)

	apply(t, s, game.SetName{Player: game.SeatB, Name: strings.Repeat("x", 40)})
	assert.Equal(t, strings.Repeat("x", 24), s.Players[game.SeatB].Name)

	apply(t, s, game.SetName{Player: game.SeatB, Name: strings.Repeat("é", 30)})
	assert.Equal(t, strings.Repeat("é", 24), s.Players[game.SeatB].Name, "Truncation counts characters, not bytes")
}

func TestPassTurn(t *testing.T) {
	s := newTestRoom()

	for _, phase := range game.Phases {
		apply(t, s, game.SetPhase{Phase: phase})
		prev := s.Turn

		apply(t, s, game.PassTurn{})

		assert.NotEqual(t, prev, s.Turn)
		assert.Equal(t, game.PhaseMain, s.Phase)
	}
}

func TestSetPhaseIsNotValidated(t *testing.T) {
	s := newTestRoom()

	apply(t, s, game.SetPhase{Phase: "Beginning of Combat"})

	assert.Equal(t, game.Phase("Beginning of Combat"), s.Phase)
}

func TestVisibilityFlags(t *testing.T) {
	s := newTestRoom()
	a := s.Players[game.SeatA]

	apply(t, s, game.SetVisibility{Player: game.SeatA, Flag: game.FlagRevealedHand, Value: true})
	assert.True(t, a.RevealedHand)

	apply(t, s, game.SetVisibility{Player: game.SeatA, Flag: game.FlagShowTop, Value: true})
	assert.True(t, a.ShowTop)

	apply(t, s, game.ToggleVisibility{Player: game.SeatA, Flag: game.FlagShowHand})
	assert.True(t, a.ShowHand)
	apply(t, s, game.ToggleVisibility{Player: game.SeatA, Flag: game.FlagShowHand})
	assert.False(t, a.ShowHand)

	apply(t, s, game.ToggleVisibility{Player: game.SeatA, Flag: game.FlagShowTop})
	assert.False(t, a.ShowTop)
	assert.True(t, a.RevealedHand)
}

func TestShuffleLibraryKeepsCards(t *testing.T) {
	s := newTestRoom()
	before := slices.Clone(s.Players[game.SeatA].Library)

	apply(t, s, game.ShuffleLibrary{Player: game.SeatA})

	assert.ElementsMatch(t, before, s.Players[game.SeatA].Library)
}

func TestMulligan(t *testing.T) {
	s := game.NewRoom("M", names("A", 20), nil)
	apply(t, s, game.Draw{Player: game.SeatA, N: 4})
	all := append(slices.Clone(s.Players[game.SeatA].Library), s.Players[game.SeatA].Hand...)

	apply(t, s, game.Mulligan{Player: game.SeatA, N: 7})

	a := s.Players[game.SeatA]
	assert.Len(t, a.Hand, 7)
	assert.Len(t, a.Library, 13)
	assert.ElementsMatch(t, all, append(slices.Clone(a.Library), a.Hand...))
}

func TestMulliganSmallLibrary(t *testing.T) {
	s := newTestRoom()
	apply(t, s, game.Draw{Player: game.SeatA, N: 2})

	apply(t, s, game.Mulligan{Player: game.SeatA, N: 7})

	assert.Len(t, s.Players[game.SeatA].Hand, 5)
	assert.Empty(t, s.Players[game.SeatA].Library)
}

func TestSwapZoneWithHand(t *testing.T) {
	for _, zone := range []game.Zone{game.ZoneGraveyard, game.ZoneExile, game.ZoneLibrary} {
		t.Run(string(zone), func(t *testing.T) {
			s := newTestRoom()
			apply(t, s, game.Draw{Player: game.SeatA, N: 2})
			if zone != game.ZoneLibrary {
				cid := s.Players[game.SeatA].Library[0]
				apply(t, s, game.Move{Player: game.SeatA, CardID: cid, To: zone})
			}
			a := s.Players[game.SeatA]
			hand := slices.Clone(a.Hand)
			other := slices.Clone(*a.Zone(zone))

			apply(t, s, game.SwapZoneWithHand{Player: game.SeatA, Zone: zone})
			assert.Equal(t, other, a.Hand)
			assert.Equal(t, hand, *a.Zone(zone))

			apply(t, s, game.SwapZoneWithHand{Player: game.SeatA, Zone: zone})
			assert.Equal(t, hand, a.Hand)
			assert.Equal(t, other, *a.Zone(zone))
		})
	}
}

func TestSwapZoneWithHandRejectsBattlefield(t *testing.T) {
	s := newTestRoom()

	err := game.Apply(s, game.SwapZoneWithHand{Player: game.SeatA, Zone: game.ZoneBattlefield})

	assert.ErrorIs(t, err, game.ErrInvalidPayload)
}

func TestSetCardPos(t *testing.T) {
	s := newTestRoom()
	cid := s.Players[game.SeatA].Library[0]

	apply(t, s, game.SetCardPos{CardID: cid, Pos: game.Position{X: 10, Y: 20, Z: 5}})
	assert.Equal(t, &game.Position{X: 10, Y: 20, Z: 5}, s.Cards[cid].Pos)

	before := snapshot(t, s)
	apply(t, s, game.SetCardPos{CardID: "ghost", Pos: game.Position{X: 1}})
	assert.Equal(t, before, snapshot(t, s))
}

func TestAddCounter(t *testing.T) {
	s := newTestRoom()
	cid := s.Players[game.SeatA].Library[0]

	apply(t, s, game.AddCounter{CardID: cid, Counter: "+1/+1", Delta: 2})
	apply(t, s, game.AddCounter{CardID: cid, Counter: "+1/+1", Delta: 1})
	assert.Equal(t, 3, s.Cards[cid].Counters["+1/+1"])

	apply(t, s, game.AddCounter{CardID: cid, Counter: "+1/+1", Delta: -3})
	assert.NotContains(t, s.Cards[cid].Counters, "+1/+1")

	err := game.Apply(s, game.AddCounter{CardID: "ghost", Counter: "loyalty", Delta: 1})
	assert.ErrorIs(t, err, game.ErrCardNotFound)
}

func TestCreateChipToken(t *testing.T) {
	s := newTestRoom()

	apply(t, s, game.CreateToken{Player: game.SeatB, Name: "Treasure", Text: "x3"})

	bf := s.Players[game.SeatB].Battlefield
	require.Len(t, bf, 1)
	token := s.Cards[bf[0]]
	assert.True(t, token.IsToken)
	assert.Equal(t, game.TokenChip, token.TokenKind)
	assert.Equal(t, "x3", token.Text)
	assert.Equal(t, game.DefaultPosition(), token.Pos)
}

func TestUpdateToken(t *testing.T) {
	s := newTestRoom()
	apply(t, s, game.CreateToken{Player: game.SeatA, Name: "Clue"})
	tokenID := s.Players[game.SeatA].Battlefield[0]

	apply(t, s, game.UpdateToken{CardID: tokenID, Text: "2 clues"})
	assert.Equal(t, "2 clues", s.Cards[tokenID].Text)

	cid := s.Players[game.SeatA].Library[0]
	apply(t, s, game.UpdateToken{CardID: cid, Text: "not a token"})
	assert.Empty(t, s.Cards[cid].Text, "Non-token cards are left alone")

	err := game.Apply(s, game.UpdateToken{CardID: "ghost", Text: "x"})
	assert.ErrorIs(t, err, game.ErrCardNotFound)
}

func TestRemoveTokenIgnoresRealCards(t *testing.T) {
	s := newTestRoom()
	cid := s.Players[game.SeatA].Library[0]
	apply(t, s, game.Move{Player: game.SeatA, CardID: cid, To: game.ZoneBattlefield})

	apply(t, s, game.RemoveToken{Player: game.SeatA, CardID: cid})

	assert.Contains(t, s.Cards, cid)
	assert.Contains(t, s.Players[game.SeatA].Battlefield, cid)
}

func TestRemoveTokenAfterItMoved(t *testing.T) {
	s := newTestRoom()
	apply(t, s, game.CreateToken{Player: game.SeatA, Name: "Zombie", Creature: true})
	tokenID := s.Players[game.SeatA].Battlefield[0]
	apply(t, s, game.Move{Player: game.SeatA, CardID: tokenID, To: game.ZoneGraveyard})

	apply(t, s, game.RemoveToken{Player: game.SeatA, CardID: tokenID})

	assert.NotContains(t, s.Cards, tokenID)
	assert.Equal(t, 0, s.ZoneCount(tokenID))
	assert.NoError(t, s.Validate())
}

func TestPutOnBottom(t *testing.T) {
	s := newTestRoom()
	apply(t, s, game.Draw{Player: game.SeatA, N: 1})
	cid := s.Players[game.SeatA].Hand[0]

	apply(t, s, game.PutOnBottom{Player: game.SeatA, CardID: cid})

	a := s.Players[game.SeatA]
	assert.Empty(t, a.Hand)
	assert.Equal(t, cid, a.Library[0])
	assert.Len(t, a.Library, 5)

	// Drawing the whole library reaches it last.
	apply(t, s, game.Draw{Player: game.SeatA, N: 5})
	assert.Equal(t, cid, a.Hand[4])
}

func TestPutOnBottomNotInHand(t *testing.T) {
	s := newTestRoom()
	cid := s.Players[game.SeatA].Library[3]
	before := snapshot(t, s)

	apply(t, s, game.PutOnBottom{Player: game.SeatA, CardID: cid})

	assert.Equal(t, before, snapshot(t, s))
}

func TestApplyNilAction(t *testing.T) {
	s := newTestRoom()

	err := game.Apply(s, nil)

	assert.ErrorIs(t, err, game.ErrUnknownAction)
}
