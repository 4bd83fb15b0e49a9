package magic

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Registry holds all known spells keyed by ID.
type Registry struct {
	spells map[string]*Spell
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{spells: make(map[string]*Spell)}
}

// Register adds s, refusing an ID that is already taken.
func (r *Registry) Register(s *Spell) error {
	if _, taken := r.spells[s.ID]; taken {
		return fmt.Errorf("spell %q registered twice", s.ID)
	}
	r.spells[s.ID] = s
	return nil
}

// Get returns the spell for id.
func (r *Registry) Get(id string) (*Spell, bool) {
	s, ok := r.spells[id]
	return s, ok
}

// BySchool returns the spells of school ordered by tier, then ID.
func (r *Registry) BySchool(school string) []*Spell {
	var out []*Spell
	for _, s := range r.spells {
		if s.School == school {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b *Spell) int {
		return cmp.Or(cmp.Compare(a.Tier, b.Tier), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// LoadDirectory reads every *.yaml file in dir. Each file holds a `spells:`
// list, so a school can live in one file.
func LoadDirectory(dir string) (*Registry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("magic: %w", err)
	}
	reg := NewRegistry()
	for _, path := range paths {
		if err := reg.loadFile(path); err != nil {
			return nil, fmt.Errorf("magic: %s: %w", filepath.Base(path), err)
		}
	}
	return reg, nil
}

func (r *Registry) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f struct {
		Spells []*Spell `yaml:"spells"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	for _, s := range f.Spells {
		if err := s.Validate(); err != nil {
			return err
		}
		if err := r.Register(s); err != nil {
			return err
		}
	}
	return nil
}
