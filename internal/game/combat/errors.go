package combat

import "fmt"

// ValidationKind classifies why an action was rejected.
type ValidationKind int

const (
	InsufficientResource ValidationKind = iota + 1
	WrongSchoolOrClass
	LevelTooLow
	Silenced
	InvalidContext
	InvalidTarget
	NoChargesRemaining
	ItemNotFound
	NotYourTurn
	EncounterOver
	ItemRestricted
	UnknownSpell
)

var kindNames = map[ValidationKind]string{
	InsufficientResource: "insufficient_resource",
	WrongSchoolOrClass:   "wrong_school_or_class",
	LevelTooLow:          "level_too_low",
	Silenced:             "silenced",
	InvalidContext:       "invalid_context",
	InvalidTarget:        "invalid_target",
	NoChargesRemaining:   "no_charges_remaining",
	ItemNotFound:         "item_not_found",
	NotYourTurn:          "not_your_turn",
	EncounterOver:        "encounter_over",
	ItemRestricted:       "item_restricted",
	UnknownSpell:         "unknown_spell",
}

// String returns a snake_case label for the kind.
func (k ValidationKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// ValidationError is a recoverable rejection of a proposed action. Returning one
// guarantees the state was not modified.
type ValidationError struct {
	Kind ValidationKind
	// Resource is "sp" or "gems" for InsufficientResource.
	Resource  string
	Needed    int
	Available int
	// Level and Required are set for LevelTooLow.
	Level    int
	Required int
	Detail   string
}

// Sentinels for errors.Is matching on Kind alone.
var (
	ErrInsufficientResource = &ValidationError{Kind: InsufficientResource}
	ErrWrongSchoolOrClass   = &ValidationError{Kind: WrongSchoolOrClass}
	ErrLevelTooLow          = &ValidationError{Kind: LevelTooLow}
	ErrSilenced             = &ValidationError{Kind: Silenced}
	ErrInvalidContext       = &ValidationError{Kind: InvalidContext}
	ErrInvalidTarget        = &ValidationError{Kind: InvalidTarget}
	ErrNoChargesRemaining   = &ValidationError{Kind: NoChargesRemaining}
	ErrItemNotFound         = &ValidationError{Kind: ItemNotFound}
	ErrNotYourTurn          = &ValidationError{Kind: NotYourTurn}
	ErrEncounterOver        = &ValidationError{Kind: EncounterOver}
	ErrItemRestricted       = &ValidationError{Kind: ItemRestricted}
	ErrUnknownSpell         = &ValidationError{Kind: UnknownSpell}
)

// Error implements error.
func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("combat: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("combat: %s", e.Kind)
}

// Is matches any *ValidationError of the same Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Message returns user-facing text for the rejection.
func (e *ValidationError) Message() string {
	switch e.Kind {
	case InsufficientResource:
		if e.Resource == "gems" {
			return fmt.Sprintf("Not enough gems (need %d, have %d).", e.Needed, e.Available)
		}
		return fmt.Sprintf("Not enough spell points (need %d, have %d).", e.Needed, e.Available)
	case WrongSchoolOrClass:
		return "Your class cannot cast that spell."
	case LevelTooLow:
		return fmt.Sprintf("You must be level %d to cast that spell (you are level %d).", e.Required, e.Level)
	case Silenced:
		return "You are silenced and cannot cast spells."
	case InvalidContext:
		return "That cannot be used here."
	case InvalidTarget:
		return "That is not a valid target."
	case NoChargesRemaining:
		return "It has no charges remaining."
	case ItemNotFound:
		return "You are not carrying that item."
	case NotYourTurn:
		return "It is not your turn."
	case EncounterOver:
		return "The battle is over."
	case ItemRestricted:
		return "You cannot use that item."
	case UnknownSpell:
		return "You do not know that spell."
	default:
		return "That action is not allowed."
	}
}

func reject(kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func insufficient(resource string, needed, available int) *ValidationError {
	return &ValidationError{
		Kind:      InsufficientResource,
		Resource:  resource,
		Needed:    needed,
		Available: available,
		Detail:    fmt.Sprintf("%s need %d, have %d", resource, needed, available),
	}
}

// ResolutionError is a fatal internal-invariant violation discovered while
// resolving an action or advancing the schedule. The encounter must be aborted.
type ResolutionError struct {
	Op     string
	Detail string
	Err    error
}

// Error implements error.
func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("combat: resolution failed in %s: %s: %v", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("combat: resolution failed in %s: %s", e.Op, e.Detail)
}

// Unwrap returns the underlying cause, if any.
func (e *ResolutionError) Unwrap() error { return e.Err }

func corrupt(op, format string, args ...any) *ResolutionError {
	return &ResolutionError{Op: op, Detail: fmt.Sprintf(format, args...)}
}
