package ruleset

import "fmt"

// Registry provides lookup of classes and races by ID.
type Registry struct {
	classes map[string]*Class
	races   map[string]*Race
}

// NewRegistry returns an empty Registry.
//
// Postcondition: Returns a non-nil *Registry ready to accept registrations.
func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*Class), races: make(map[string]*Race)}
}

// RegisterClass adds c to the registry.
//
// Precondition: c must be non-nil with a non-empty ID.
// Postcondition: Class(c.ID) returns c; if called multiple times with the same ID, the last call wins.
func (r *Registry) RegisterClass(c *Class) {
	if c == nil || c.ID == "" {
		panic("Registry.RegisterClass: precondition violated: class must be non-nil with a non-empty ID")
	}
	r.classes[c.ID] = c
}

// RegisterRace adds race to the registry.
//
// Precondition: race must be non-nil with a non-empty ID.
func (r *Registry) RegisterRace(race *Race) {
	if race == nil || race.ID == "" {
		panic("Registry.RegisterRace: precondition violated: race must be non-nil with a non-empty ID")
	}
	r.races[race.ID] = race
}

// Class returns the Class for id, if registered.
func (r *Registry) Class(id string) (*Class, bool) {
	c, ok := r.classes[id]
	return c, ok
}

// Race returns the Race for id, if registered.
func (r *Registry) Race(id string) (*Race, bool) {
	race, ok := r.races[id]
	return race, ok
}

// Load reads classes from classDir and races from raceDir into a new
// Registry. An ID may appear only once per kind.
func Load(classDir, raceDir string) (*Registry, error) {
	reg := NewRegistry()
	classes, err := LoadClasses(classDir)
	if err != nil {
		return nil, err
	}
	for _, c := range classes {
		if _, dup := reg.Class(c.ID); dup {
			return nil, fmt.Errorf("class %q defined twice", c.ID)
		}
		reg.RegisterClass(c)
	}
	races, err := LoadRaces(raceDir)
	if err != nil {
		return nil, err
	}
	for _, r := range races {
		if _, dup := reg.Race(r.ID); dup {
			return nil, fmt.Errorf("race %q defined twice", r.ID)
		}
		reg.RegisterRace(r)
	}
	return reg, nil
}
