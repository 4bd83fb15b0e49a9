package ai

import "fmt"

// Registry maps strategy names from monster templates to strategies.
//
// Invariant: each name is registered at most once.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns a Registry holding the aggressive, defensive and random strategies.
func NewRegistry(defensive Defensive) *Registry {
	return &Registry{strategies: map[string]Strategy{
		StrategyAggressive: Aggressive{},
		StrategyDefensive:  defensive,
		StrategyRandom:     Random{},
	}}
}

// Register stores strategy under name.
//
// Postcondition: returns error on name collision.
func (r *Registry) Register(name string, strategy Strategy) error {
	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("ai.Registry: strategy %q already registered", name)
	}
	r.strategies[name] = strategy
	return nil
}

// RegisterDomain creates a Planner for domain and stores it under the domain ID.
//
// Precondition: domain and caller must not be nil.
// Postcondition: returns error on name collision.
func (r *Registry) RegisterDomain(domain *Domain, caller ScriptCaller) error {
	return r.Register(domain.ID, NewScripted(NewPlanner(domain, caller)))
}

// Get returns the strategy for name; the empty name means aggressive.
func (r *Registry) Get(name string) (Strategy, bool) {
	if name == "" {
		name = StrategyAggressive
	}
	s, ok := r.strategies[name]
	return s, ok
}
