package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry indexes item definitions by ID. It is filled once at startup and
// only read afterwards.
type Registry struct {
	items  map[string]*ItemDef
	source map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*ItemDef), source: make(map[string]string)}
}

// RegisterItem adds d, which must not be nil. IDs are unique.
func (r *Registry) RegisterItem(d *ItemDef) error {
	return r.register(d, "")
}

func (r *Registry) register(d *ItemDef, from string) error {
	if _, dup := r.items[d.ID]; dup {
		if prev := r.source[d.ID]; prev != "" && from != "" {
			return fmt.Errorf("inventory: item %q defined in both %s and %s", d.ID, prev, from)
		}
		return fmt.Errorf("inventory: item %q already registered", d.ID)
	}
	r.items[d.ID] = d
	r.source[d.ID] = from
	return nil
}

func (r *Registry) Item(id string) (*ItemDef, bool) {
	d, ok := r.items[id]
	return d, ok
}

// AllItems returns every definition ordered by ID.
func (r *Registry) AllItems() []*ItemDef {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*ItemDef, len(ids))
	for i, id := range ids {
		out[i] = r.items[id]
	}
	return out
}

// LoadRegistry reads every .yaml and .yml file in dir in name order. A file
// may hold several items as separate YAML documents.
//
// Precondition: dir is a readable directory.
// Postcondition: every returned definition passed Validate; the first bad
// file or duplicate ID aborts the load.
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("inventory: reading %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		if err := reg.loadFile(filepath.Join(dir, e.Name())); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (r *Registry) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	dec := yaml.NewDecoder(f)
	for doc := 0; ; doc++ {
		d := new(ItemDef)
		err := dec.Decode(d)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("inventory: parsing %s document %d: %w", name, doc, err)
		}
		if err := d.Validate(); err != nil {
			return fmt.Errorf("inventory: %s: %w", name, err)
		}
		if err := r.register(d, name); err != nil {
			return err
		}
	}
}
