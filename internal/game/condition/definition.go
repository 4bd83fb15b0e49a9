package condition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// Duration types.
const (
	DurationRounds    = "rounds"
	DurationPermanent = "permanent"
)

// Defending is the condition applied by the Defend action.
const Defending = "defending"

// Modifiers are flat attribute adjustments granted while a condition is active.
type Modifiers struct {
	Accuracy        int `yaml:"accuracy"`
	Evasion         int `yaml:"evasion"`
	Speed           int `yaml:"speed"`
	Might           int `yaml:"might"`
	DamageReduction int `yaml:"damage_reduction"`
}

// Definition is the static definition of a condition, loaded from YAML.
// Definitions are shared read-only reference data and are never mutated.
type Definition struct {
	ID              string          `yaml:"id"`
	Name            string          `yaml:"name"`
	Description     string          `yaml:"description"`
	DurationType    string          `yaml:"duration_type"` // "rounds" | "permanent"
	DefaultDuration int             `yaml:"default_duration"`
	Silenced        bool            `yaml:"silenced"`
	Paralyzed       bool            `yaml:"paralyzed"`
	Asleep          bool            `yaml:"asleep"`
	Blinded         bool            `yaml:"blinded"`
	Modifiers       Modifiers       `yaml:"modifiers"`
	DamageOverTime  dice.Expression `yaml:"damage_over_time"`
	HealOverTime    dice.Expression `yaml:"heal_over_time"`
	Element         string          `yaml:"element"`
	LuaOnTick       string          `yaml:"lua_on_tick"`
}

// Validate checks the definition for internal consistency.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch d.DurationType {
	case DurationRounds:
		if d.DefaultDuration < 1 {
			errs = append(errs, fmt.Errorf("default_duration must be >= 1 for rounds conditions, got %d", d.DefaultDuration))
		}
	case DurationPermanent:
	default:
		errs = append(errs, fmt.Errorf("duration_type must be %q or %q, got %q", DurationRounds, DurationPermanent, d.DurationType))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("condition %q: %w", d.ID, err)
	}
	return nil
}

// PreventsAction reports whether a combatant under this condition loses its turn.
func (d *Definition) PreventsAction() bool { return d.Paralyzed || d.Asleep }

// Registry is the set of known condition definitions.
type Registry struct {
	defs map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register stores def under its ID, replacing any earlier definition.
func (r *Registry) Register(def *Definition) {
	r.defs[def.ID] = def
}

func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns the definitions ordered by ID.
func (r *Registry) All() []*Definition {
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*Definition, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.defs[id])
	}
	return out
}

// LoadDirectory builds a Registry from the *.yaml files in dir, one
// definition per file. Unknown keys are rejected so that a typo such as
// "duraton_type" fails loudly, and an ID may be defined only once.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}
	reg := NewRegistry()
	from := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		def, err := decodeDefinition(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		if prev, dup := from[def.ID]; dup {
			return nil, fmt.Errorf("condition %q: defined in both %s and %s", def.ID, prev, e.Name())
		}
		from[def.ID] = e.Name()
		reg.Register(def)
	}
	return reg, nil
}

func decodeDefinition(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	def := new(Definition)
	if err := dec.Decode(def); err != nil {
		return nil, fmt.Errorf("condition: parsing %s: %w", filepath.Base(path), err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return def, nil
}
