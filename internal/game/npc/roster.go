package npc

import "fmt"

// Group is a count of one monster template, as written in encounter files.
type Group struct {
	TemplateID string `yaml:"template"`
	Count      int    `yaml:"count"`
}

// BuildRoster expands groups into one template per monster, in group order.
//
// Precondition: reg must not be nil.
// Postcondition: len(result) == sum of group counts; returns an error on an
// unknown template, a non-positive count, or an empty roster.
func BuildRoster(reg *Registry, groups []Group) ([]*Template, error) {
	var roster []*Template
	for i, g := range groups {
		if g.Count < 1 {
			return nil, fmt.Errorf("npc: group[%d] count must be >= 1, got %d", i, g.Count)
		}
		tmpl, ok := reg.Get(g.TemplateID)
		if !ok {
			return nil, fmt.Errorf("npc: group[%d] references unknown template %q", i, g.TemplateID)
		}
		for n := 0; n < g.Count; n++ {
			roster = append(roster, tmpl)
		}
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("npc: roster must contain at least one monster")
	}
	return roster, nil
}
