package combat

// TurnAction is what a combatant does on its turn. The set of implementations
// is closed: Attack, Defend, Flee, CastSpell and UseItem.
type TurnAction interface {
	// Kind returns a short lowercase label such as "attack".
	Kind() string
	turnAction()
}

// Attack is a basic weapon or natural attack against one enemy.
type Attack struct {
	Target CombatantID
}

// Defend takes a defensive stance until the end of the round.
type Defend struct{}

// Flee attempts to escape the encounter.
type Flee struct{}

// CastSpell casts a known spell. Target is required only for single-target spells.
type CastSpell struct {
	SpellID string
	Target  CombatantID
}

// UseItem uses a carried item. Target is required only for single-target items.
type UseItem struct {
	ItemID string
	Target CombatantID
}

func (Attack) Kind() string    { return "attack" }
func (Defend) Kind() string    { return "defend" }
func (Flee) Kind() string      { return "flee" }
func (CastSpell) Kind() string { return "cast_spell" }
func (UseItem) Kind() string   { return "use_item" }

func (Attack) turnAction()    {}
func (Defend) turnAction()    {}
func (Flee) turnAction()      {}
func (CastSpell) turnAction() {}
func (UseItem) turnAction()   {}
