package game

type ActionKind string

const (
	// Players
	KindSetName  ActionKind = "set_name"
	KindLife     ActionKind = "life"
	KindWins     ActionKind = "wins"
	KindPassTurn ActionKind = "pass_turn"
	KindSetPhase ActionKind = "set_phase"

	// Zones
	KindDraw             ActionKind = "draw"
	KindMove             ActionKind = "move"
	KindShuffleLibrary   ActionKind = "shuffle_library"
	KindMulligan         ActionKind = "mulligan"
	KindSwapZoneWithHand ActionKind = "swap_zone_with_hand"
	KindPutOnBottom      ActionKind = "put_on_bottom"

	// Cards
	KindTapToggle  ActionKind = "tap_toggle"
	KindUntapAll   ActionKind = "untap_all"
	KindSetCardPos ActionKind = "set_card_pos"
	KindAddCounter ActionKind = "add_counter"

	// Tokens
	KindCreateToken ActionKind = "create_token"
	KindUpdateToken ActionKind = "update_token"
	KindRemoveToken ActionKind = "remove_token"

	// Visibility
	KindRevealHand     ActionKind = "reveal_hand"
	KindSetShowHand    ActionKind = "set_show_hand"
	KindSetShowTop     ActionKind = "set_show_top"
	KindToggleShowHand ActionKind = "toggle_show_hand"
	KindToggleShowTop  ActionKind = "toggle_show_top"
)

// Action is the closed set of state transitions. Only types in this package
// implement it, so Apply can switch over every case.
type Action interface {
	Kind() ActionKind
	action()
}

const MaxNameLength = 24

type SetName struct {
	Player Seat
	Name   string
}

type Draw struct {
	Player Seat
	N      int
}

// Move relocates a card. From is empty (or "any") to search every zone of
// both players.
type Move struct {
	Player Seat
	CardID string
	From   Zone
	To     Zone
}

type TapToggle struct {
	CardID string
}

type UntapAll struct {
	Player Seat
}

type Life struct {
	Player Seat
	Delta  int
}

type Wins struct {
	Player Seat
	Delta  int
}

type VisibilityFlag string

const (
	FlagRevealedHand VisibilityFlag = "revealed_hand"
	FlagShowHand     VisibilityFlag = "show_hand"
	FlagShowTop      VisibilityFlag = "show_top"
)

// SetVisibility covers reveal_hand and its set_show_* variants.
type SetVisibility struct {
	Player Seat
	Flag   VisibilityFlag
	Value  bool
}

// ToggleVisibility covers toggle_show_hand and toggle_show_top.
type ToggleVisibility struct {
	Player Seat
	Flag   VisibilityFlag
}

type PassTurn struct{}

type SetPhase struct {
	Phase Phase
}

type ShuffleLibrary struct {
	Player Seat
}

type Mulligan struct {
	Player Seat
	N      int
}

type SwapZoneWithHand struct {
	Player Seat
	Zone   Zone
}

type SetCardPos struct {
	CardID string
	Pos    Position
}

type AddCounter struct {
	CardID  string
	Counter string
	Delta   int
}

type CreateToken struct {
	Player   Seat
	Name     string
	Creature bool
	Text     string
}

type UpdateToken struct {
	CardID string
	Text   string
}

type RemoveToken struct {
	Player Seat
	CardID string
}

type PutOnBottom struct {
	Player Seat
	CardID string
}

func (a SetVisibility) Kind() ActionKind {
	switch a.Flag {
	case FlagShowHand:
		return KindSetShowHand
	case FlagShowTop:
		return KindSetShowTop
	}
	return KindRevealHand
}

func (a ToggleVisibility) Kind() ActionKind {
	if a.Flag == FlagShowTop {
		return KindToggleShowTop
	}
	return KindToggleShowHand
}

func (SetName) Kind() ActionKind          { return KindSetName }
func (Draw) Kind() ActionKind             { return KindDraw }
func (Move) Kind() ActionKind             { return KindMove }
func (TapToggle) Kind() ActionKind        { return KindTapToggle }
func (UntapAll) Kind() ActionKind         { return KindUntapAll }
func (Life) Kind() ActionKind             { return KindLife }
func (Wins) Kind() ActionKind             { return KindWins }
func (PassTurn) Kind() ActionKind         { return KindPassTurn }
func (SetPhase) Kind() ActionKind         { return KindSetPhase }
func (ShuffleLibrary) Kind() ActionKind   { return KindShuffleLibrary }
func (Mulligan) Kind() ActionKind         { return KindMulligan }
func (SwapZoneWithHand) Kind() ActionKind { return KindSwapZoneWithHand }
func (SetCardPos) Kind() ActionKind       { return KindSetCardPos }
func (AddCounter) Kind() ActionKind       { return KindAddCounter }
func (CreateToken) Kind() ActionKind      { return KindCreateToken }
func (UpdateToken) Kind() ActionKind      { return KindUpdateToken }
func (RemoveToken) Kind() ActionKind      { return KindRemoveToken }
func (PutOnBottom) Kind() ActionKind      { return KindPutOnBottom }

func (SetName) action()          {}
func (Draw) action()             {}
func (Move) action()             {}
func (TapToggle) action()        {}
func (UntapAll) action()         {}
func (Life) action()             {}
func (Wins) action()             {}
func (SetVisibility) action()    {}
func (ToggleVisibility) action() {}
func (PassTurn) action()         {}
func (SetPhase) action()         {}
func (ShuffleLibrary) action()   {}
func (Mulligan) action()         {}
func (SwapZoneWithHand) action() {}
func (SetCardPos) action()       {}
func (AddCounter) action()       {}
func (CreateToken) action()      {}
func (UpdateToken) action()      {}
func (RemoveToken) action()      {}
func (PutOnBottom) action()      {}
