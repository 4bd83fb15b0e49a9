package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/character"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/inventory"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

// Status is the overall encounter outcome.
type Status int

const (
	InProgress Status = iota
	Victory
	Defeat
	FledSuccessfully
	// Aborted means a fatal resolution error ended the encounter.
	Aborted
)

// String returns a snake_case label for the status.
func (s Status) String() string {
	switch s {
	case InProgress:
		return "in_progress"
	case Victory:
		return "victory"
	case Defeat:
		return "defeat"
	case FledSuccessfully:
		return "fled_successfully"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the encounter.
func (s Status) Terminal() bool { return s != InProgress }

// Phase is the turn scheduler's state.
type Phase int

const (
	AwaitingAction Phase = iota
	Resolving
	RoundEnd
	Finished
)

// String returns a snake_case label for the phase.
func (p Phase) String() string {
	switch p {
	case AwaitingAction:
		return "awaiting_action"
	case Resolving:
		return "resolving"
	case RoundEnd:
		return "round_end"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Handicap biases initiative toward one side.
type Handicap string

const (
	HandicapEven             Handicap = "even"
	HandicapPartyAdvantage   Handicap = "party_advantage"
	HandicapMonsterAdvantage Handicap = "monster_advantage"
)

// Valid reports whether h is a known handicap; the empty string means even.
func (h Handicap) Valid() bool {
	switch h {
	case "", HandicapEven, HandicapPartyAdvantage, HandicapMonsterAdvantage:
		return true
	}
	return false
}

// Options configure one encounter.
type Options struct {
	CanFlee bool
	// PartyFleeEndsEncounter ends the encounter as soon as one party member escapes.
	PartyFleeEndsEncounter bool
	Outdoors               bool
	Handicap               Handicap
	Seed                   int64
	// Logger receives debug-level dice rolls; nil disables logging.
	Logger *zap.Logger
}

// State is the live encounter. It is owned by exactly one caller and is not
// safe for concurrent use.
//
// Invariant: while Status is InProgress and Phase is AwaitingAction, Order[Current]
// names an Active combatant that can act.
type State struct {
	Party      []*Combatant
	Monsters   []*Combatant
	Order      []CombatantID
	Current    int
	Round      int
	Status     Status
	Phase      Phase
	Options    Options
	Diagnostic string

	damageDealt map[CombatantID]int
	partyFled   bool
	src         *dice.SeededSource
	roller      *dice.Roller
}

// NewState builds the encounter from a party snapshot and monster templates,
// computes initiative and begins round 1.
//
// Precondition: rules passes Validate; party passes Validate; len(monsters) >= 1.
// Postcondition: returns the state and the opening events (RoundStarted and any
// skipped turns). The state may already be terminal if, for example, every party
// member entered unconscious.
func NewState(party character.PartySnapshot, monsters []*npc.Template, opts Options, rules *Rules) (*State, []Event, error) {
	if err := rules.Validate(); err != nil {
		return nil, nil, err
	}
	if err := party.Validate(); err != nil {
		return nil, nil, err
	}
	if len(monsters) == 0 {
		return nil, nil, fmt.Errorf("combat: at least one monster is required")
	}
	if !opts.Handicap.Valid() {
		return nil, nil, fmt.Errorf("combat: unknown handicap %q", opts.Handicap)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	src := dice.NewSeededSource(opts.Seed)
	s := &State{
		Options:     opts,
		damageDealt: make(map[CombatantID]int),
		src:         src,
		roller:      dice.NewLoggedRoller(src, logger),
	}
	for i, ch := range party.Members {
		c, err := NewPlayer(i, ch, rules)
		if err != nil {
			return nil, nil, err
		}
		s.Party = append(s.Party, c)
	}
	names := monsterNames(monsters)
	for i, tmpl := range monsters {
		c, err := NewMonster(i, names[i], tmpl, rules)
		if err != nil {
			return nil, nil, err
		}
		s.Monsters = append(s.Monsters, c)
	}
	events, err := begin(s, rules)
	if err != nil {
		return nil, nil, err
	}
	return s, events, nil
}

// Get returns the combatant with id.
func (s *State) Get(id CombatantID) (*Combatant, bool) {
	var roster []*Combatant
	switch id.Side {
	case SidePlayer:
		roster = s.Party
	case SideMonster:
		roster = s.Monsters
	default:
		return nil, false
	}
	if id.Index < 0 || id.Index >= len(roster) {
		return nil, false
	}
	return roster[id.Index], true
}

// Roster returns the combatants on side in roster order.
func (s *State) Roster(side Side) []*Combatant {
	if side == SidePlayer {
		return s.Party
	}
	if side == SideMonster {
		return s.Monsters
	}
	return nil
}

// All returns every combatant, party first, in roster order.
func (s *State) All() []*Combatant {
	out := make([]*Combatant, 0, len(s.Party)+len(s.Monsters))
	out = append(out, s.Party...)
	return append(out, s.Monsters...)
}

// ActiveOn returns the Active combatants on side in roster order.
func (s *State) ActiveOn(side Side) []*Combatant {
	var out []*Combatant
	for _, c := range s.Roster(side) {
		if c.IsActive() {
			out = append(out, c)
		}
	}
	return out
}

// CurrentActor returns the combatant whose turn it is.
//
// Postcondition: ok is false when the encounter is over or Order is empty.
func (s *State) CurrentActor() (*Combatant, bool) {
	if s.Status.Terminal() || s.Current < 0 || s.Current >= len(s.Order) {
		return nil, false
	}
	return s.Get(s.Order[s.Current])
}

// DamageDealt returns the total damage id has inflicted so far.
func (s *State) DamageDealt(id CombatantID) int { return s.damageDealt[id] }

// Rand returns the encounter's seeded randomness.
func (s *State) Rand() dice.Source { return s.roller }

// Seed returns the seed the encounter was started with.
func (s *State) Seed() int64 { return s.src.Seed() }

// Abort force-ends the encounter as FledSuccessfully without resolving anything.
//
// Postcondition: Status is FledSuccessfully and Phase is Finished unless the
// encounter had already ended, in which case nothing changes.
func (s *State) Abort(reason string) bool {
	if s.Status.Terminal() {
		return false
	}
	s.Status = FledSuccessfully
	s.Phase = Finished
	s.Diagnostic = reason
	return true
}

// Fail marks the encounter Aborted after a fatal resolution error.
func (s *State) Fail(err error) {
	s.Status = Aborted
	s.Phase = Finished
	s.Diagnostic = err.Error()
}

// CombatantView is a value copy of a combatant.
type CombatantView struct {
	ID         CombatantID
	Name       string
	TemplateID string
	Class      string
	Race       string
	Level      int
	HP         Pool
	SP         Pool
	Gems       int
	Lifecycle  Lifecycle
	Conditions []condition.ActiveCondition
	Inventory  []inventory.Slot
}

// Snapshot is a deep value copy of a State.
type Snapshot struct {
	Party       []CombatantView
	Monsters    []CombatantView
	Order       []CombatantID
	Current     int
	Round       int
	Status      Status
	Phase       Phase
	Diagnostic  string
	DamageDealt map[CombatantID]int
	PartyFled   bool
	Seed        int64
	Draws       uint64
}

// Snapshot returns a deep copy of the state, including the number of random
// draws made so far.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Order:       append([]CombatantID(nil), s.Order...),
		Current:     s.Current,
		Round:       s.Round,
		Status:      s.Status,
		Phase:       s.Phase,
		Diagnostic:  s.Diagnostic,
		DamageDealt: make(map[CombatantID]int, len(s.damageDealt)),
		PartyFled:   s.partyFled,
		Seed:        s.src.Seed(),
		Draws:       s.src.Draws(),
	}
	for k, v := range s.damageDealt {
		snap.DamageDealt[k] = v
	}
	for _, c := range s.Party {
		snap.Party = append(snap.Party, view(c))
	}
	for _, c := range s.Monsters {
		snap.Monsters = append(snap.Monsters, view(c))
	}
	return snap
}

func view(c *Combatant) CombatantView {
	return CombatantView{
		ID:         c.ID,
		Name:       c.Name,
		TemplateID: c.TemplateID,
		Class:      c.Class,
		Race:       c.Race,
		Level:      c.Level,
		HP:         c.HP,
		SP:         c.SP,
		Gems:       c.Gems,
		Lifecycle:  c.Lifecycle,
		Conditions: c.Conditions.All(),
		Inventory:  c.Inventory.Slots(),
	}
}
