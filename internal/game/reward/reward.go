// Package reward computes what a party earns from a won encounter.
package reward

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/dice"
	"github.com/cory-johannsen/skirmish/internal/game/npc"
)

// ErrNoRewards is returned when the encounter did not end in Victory.
var ErrNoRewards = errors.New("reward: encounter was not won")

// Templates looks up monster templates by ID. *npc.Registry satisfies it.
type Templates interface {
	Get(id string) (*npc.Template, bool)
}

// TemplateSet indexes a slice of templates by ID.
type TemplateSet map[string]*npc.Template

// IndexTemplates builds a TemplateSet. Later duplicates replace earlier ones.
func IndexTemplates(templates []*npc.Template) TemplateSet {
	set := make(TemplateSet, len(templates))
	for _, t := range templates {
		set[t.ID] = t
	}
	return set
}

// Get implements Templates.
func (ts TemplateSet) Get(id string) (*npc.Template, bool) {
	t, ok := ts[id]
	return t, ok
}

// Share is one party member's cut of the experience.
type Share struct {
	Member     combat.CombatantID
	Name       string
	Experience int
}

// Bundle is the immutable result of a won encounter. Fields are only reachable
// through copy-out getters.
type Bundle struct {
	experience int
	currency   int
	gems       int
	items      []npc.LootItem
	shares     []Share
}

// Experience returns the total experience earned.
func (b *Bundle) Experience() int { return b.experience }

// Currency returns the total gold dropped.
func (b *Bundle) Currency() int { return b.currency }

// Gems returns the total gems dropped.
func (b *Bundle) Gems() int { return b.gems }

// Items returns a copy of the dropped items.
func (b *Bundle) Items() []npc.LootItem {
	return append([]npc.LootItem(nil), b.items...)
}

// Shares returns a copy of the per-member experience split.
func (b *Bundle) Shares() []Share {
	return append([]Share(nil), b.shares...)
}

// ShareOf returns the experience awarded to member, or 0.
func (b *Bundle) ShareOf(member combat.CombatantID) int {
	for _, sh := range b.shares {
		if sh.Member == member {
			return sh.Experience
		}
	}
	return 0
}

// Calculate builds the reward bundle for a won encounter. Every dead monster
// contributes its template experience and an independent roll of its loot
// table. Experience is split evenly across conscious party members in roster
// order; the remainder goes one point each to the earliest members.
//
// Precondition: s and templates are non-nil; src is the encounter's source.
// Postcondition: returns ErrNoRewards unless s.Status is Victory.
func Calculate(s *combat.State, templates Templates, src dice.Source) (*Bundle, error) {
	if s.Status != combat.Victory {
		return nil, ErrNoRewards
	}
	b := &Bundle{}
	for _, m := range s.Monsters {
		if m.Lifecycle != combat.Dead {
			continue
		}
		tmpl, ok := templates.Get(m.TemplateID)
		if !ok {
			return nil, fmt.Errorf("reward: unknown monster template %q for %s", m.TemplateID, m.ID)
		}
		b.experience += tmpl.Experience
		if tmpl.Loot == nil {
			continue
		}
		loot := npc.GenerateLoot(*tmpl.Loot, src)
		b.currency += loot.Currency
		b.gems += loot.Gems
		b.items = append(b.items, loot.Items...)
	}

	conscious := s.ActiveOn(combat.SidePlayer)
	if len(conscious) == 0 {
		return b, nil
	}
	each, rem := b.experience/len(conscious), b.experience%len(conscious)
	for i, c := range conscious {
		xp := each
		if i < rem {
			xp++
		}
		b.shares = append(b.shares, Share{Member: c.ID, Name: c.Name, Experience: xp})
	}
	return b, nil
}
