package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// validator is implemented by every definition the loaders read.
type validator interface {
	Validate() error
}

// loadDir decodes each .yaml or .yml file in dir as one T, in name order.
// kind names T in errors.
func loadDir[T any, P interface {
	*T
	validator
}](dir, kind string) ([]*T, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s directory: %w", kind, err)
	}
	out := make([]*T, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !slices.Contains([]string{".yaml", ".yml"}, filepath.Ext(e.Name())) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		v := P(new(T))
		if err := yaml.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("parsing %s file %s: %w", kind, e.Name(), err)
		}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s file %s: %w", kind, e.Name(), err)
		}
		out = append(out, (*T)(v))
	}
	return out, nil
}
