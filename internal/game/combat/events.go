package combat

// EventKind labels a CombatEvent.
type EventKind string

const (
	EventAttackHit          EventKind = "attack_hit"
	EventAttackMissed       EventKind = "attack_missed"
	EventDamageDealt        EventKind = "damage_dealt"
	EventHealed             EventKind = "healed"
	EventSPRestored         EventKind = "sp_restored"
	EventConditionApplied   EventKind = "condition_applied"
	EventConditionExpired   EventKind = "condition_expired"
	EventConditionTriggered EventKind = "condition_triggered"
	EventCombatantDowned    EventKind = "combatant_downed"
	EventCombatantDied      EventKind = "combatant_died"
	EventCombatantRevived   EventKind = "combatant_revived"
	EventSpellCast          EventKind = "spell_cast"
	EventItemUsed           EventKind = "item_used"
	EventDefendStance       EventKind = "defend_stance"
	EventFleeAttempted      EventKind = "flee_attempted"
	EventFleeSucceeded      EventKind = "flee_succeeded"
	EventFleeFailed         EventKind = "flee_failed"
	EventSaveSucceeded      EventKind = "save_succeeded"
	EventResisted           EventKind = "resisted"
	EventTurnSkipped        EventKind = "turn_skipped"
	EventRoundStarted       EventKind = "round_started"
	EventEncounterResolved  EventKind = "encounter_resolved"
)

// Event is one observable thing that happened during an encounter, for
// consumption by presentation layers.
type Event struct {
	Kind      EventKind
	Round     int
	Actor     CombatantID
	Target    CombatantID
	Amount    int
	Roll      int
	Condition string
	Spell     string
	Item      string
	Status    Status
	Message   string
}

// Effect summarises what an action did to one target.
type Effect struct {
	Target    CombatantID
	Hit       bool
	Damage    int
	Healing   int
	Saved     bool
	Resisted  bool // immune to the element, or spell stopped by magic resistance
	Condition string
	Revived   bool
	Cured     string
}

// ActionResult is the outcome of one resolved action.
type ActionResult struct {
	Actor        CombatantID
	Action       TurnAction
	SPSpent      int
	GemsSpent    int
	ItemConsumed string
	ItemRemoved  bool
	Effects      []Effect
	Events       []Event
}

func (r *ActionResult) emit(s *State, e Event) {
	e.Round = s.Round
	r.Events = append(r.Events, e)
}
