package condition

import (
	"errors"
	"slices"
)

// ActiveCondition is one condition applied to a combatant. Magnitude scales
// the per-tick effect and exists only at runtime.
type ActiveCondition struct {
	Def       *Definition
	Remaining int // ignored when Permanent
	Permanent bool
	Magnitude float64
}

func (ac *ActiveCondition) is(id string) bool { return ac.Def.ID == id }

// ActiveSet holds a combatant's conditions in application order. It is not
// safe for concurrent use.
type ActiveSet struct {
	conditions []*ActiveCondition
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{}
}

func (s *ActiveSet) index(id string) int {
	return slices.IndexFunc(s.conditions, func(ac *ActiveCondition) bool { return ac.is(id) })
}

// Apply adds def, or refreshes it when already active. A duration <= 0 means
// the definition's default and a magnitude <= 0 means 1. Refreshing keeps the
// larger of the old and new duration and the larger magnitude; the condition
// keeps its place in the order.
func (s *ActiveSet) Apply(def *Definition, duration int, magnitude float64) error {
	if def == nil {
		return errors.New("condition: apply of nil definition")
	}
	if duration <= 0 {
		duration = def.DefaultDuration
	}
	if magnitude <= 0 {
		magnitude = 1
	}
	if i := s.index(def.ID); i >= 0 {
		ac := s.conditions[i]
		ac.Remaining = max(ac.Remaining, duration)
		ac.Magnitude = max(ac.Magnitude, magnitude)
		return nil
	}
	s.conditions = append(s.conditions, &ActiveCondition{
		Def:       def,
		Remaining: duration,
		Permanent: def.DurationType == DurationPermanent,
		Magnitude: magnitude,
	})
	return nil
}

// Remove reports whether id was active before removing it.
func (s *ActiveSet) Remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.conditions = slices.Delete(s.conditions, i, i+1)
	return true
}

// Tick counts one round off every timed condition and drops those that run
// out. The expired IDs come back in application order.
func (s *ActiveSet) Tick() []string {
	var expired []string
	s.conditions = slices.DeleteFunc(s.conditions, func(ac *ActiveCondition) bool {
		if ac.Permanent {
			return false
		}
		ac.Remaining--
		if ac.Remaining > 0 {
			return false
		}
		expired = append(expired, ac.Def.ID)
		return true
	})
	return expired
}

// Has reports whether id is active.
func (s *ActiveSet) Has(id string) bool { return s.index(id) >= 0 }

// Get returns a copy of the active condition id.
func (s *ActiveSet) Get(id string) (ActiveCondition, bool) {
	if i := s.index(id); i >= 0 {
		return *s.conditions[i], true
	}
	return ActiveCondition{}, false
}

// Len returns the number of active conditions.
func (s *ActiveSet) Len() int { return len(s.conditions) }

// All returns copies of the active conditions in application order.
func (s *ActiveSet) All() []ActiveCondition {
	out := make([]ActiveCondition, len(s.conditions))
	for i, ac := range s.conditions {
		out[i] = *ac
	}
	return out
}

// Clone returns a deep copy that shares only the definitions.
func (s *ActiveSet) Clone() *ActiveSet {
	c := &ActiveSet{conditions: make([]*ActiveCondition, len(s.conditions))}
	for i, ac := range s.conditions {
		cp := *ac
		c.conditions[i] = &cp
	}
	return c
}
