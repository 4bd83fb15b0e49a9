package ruleset

import (
	"fmt"
	"slices"
)

// Race is a playable race: stat adjustments over BaseStats and the item tags
// its members may not use.
type Race struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	Modifiers     map[string]int `yaml:"modifiers"`
	ForbiddenTags []string       `yaml:"forbidden_item_tags"`
	Immunities    []string       `yaml:"immunities"` // elements
}

// Validate requires an ID and a name.
func (r *Race) Validate() error {
	if r.ID == "" || r.Name == "" {
		return fmt.Errorf("race %q: id and name must not be empty", r.ID)
	}
	return nil
}

// LoadRaces reads every race file in dir.
func LoadRaces(dir string) ([]*Race, error) {
	return loadDir[Race](dir, "race")
}

// ForbiddenTag returns the first of tags that class or race forbids, or "".
// Either argument may be nil.
func ForbiddenTag(class *Class, race *Race, tags []string) string {
	var forbidden []string
	if class != nil {
		forbidden = append(forbidden, class.ForbiddenTags...)
	}
	if race != nil {
		forbidden = append(forbidden, race.ForbiddenTags...)
	}
	if i := slices.IndexFunc(tags, func(tag string) bool { return slices.Contains(forbidden, tag) }); i >= 0 {
		return tags[i]
	}
	return ""
}
