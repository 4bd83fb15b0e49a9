package combat

import "sort"

// ComputeOrder returns the initiative order of every Active combatant.
// Speed (including condition modifiers) sorts descending; ties go to players
// before monsters, then to the lower roster index. A party or monster handicap
// moves that whole side ahead of the other regardless of speed.
//
// Postcondition: the result is a deterministic function of the state.
func ComputeOrder(s *State) []CombatantID {
	type entry struct {
		id    CombatantID
		speed int
	}
	var entries []entry
	for _, c := range s.All() {
		if c.IsActive() {
			entries = append(entries, entry{id: c.ID, speed: c.EffectiveStats().Speed})
		}
	}
	sideRank := func(side Side) int {
		if s.Options.Handicap == HandicapMonsterAdvantage {
			if side == SideMonster {
				return 0
			}
			return 1
		}
		if side == SidePlayer {
			return 0
		}
		return 1
	}
	sideFirst := s.Options.Handicap == HandicapPartyAdvantage || s.Options.Handicap == HandicapMonsterAdvantage
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if sideFirst && a.id.Side != b.id.Side {
			return sideRank(a.id.Side) < sideRank(b.id.Side)
		}
		if a.speed != b.speed {
			return a.speed > b.speed
		}
		if a.id.Side != b.id.Side {
			return sideRank(a.id.Side) < sideRank(b.id.Side)
		}
		return a.id.Index < b.id.Index
	})
	order := make([]CombatantID, len(entries))
	for i, e := range entries {
		order[i] = e.id
	}
	return order
}
