package condition

// blindedAccuracyPenalty stacks with any explicit accuracy modifier.
const blindedAccuracyPenalty = 4

func (m *Modifiers) add(o Modifiers) {
	m.Accuracy += o.Accuracy
	m.Evasion += o.Evasion
	m.Speed += o.Speed
	m.Might += o.Might
	m.DamageReduction += o.DamageReduction
}

// Totals returns the summed attribute modifiers of all active conditions.
func Totals(s *ActiveSet) Modifiers {
	var m Modifiers
	for _, ac := range s.conditions {
		m.add(ac.Def.Modifiers)
		if ac.Def.Blinded {
			m.Accuracy -= blindedAccuracyPenalty
		}
	}
	return m
}

func anyActive(s *ActiveSet, pred func(*Definition) bool) bool {
	for _, ac := range s.conditions {
		if pred(ac.Def) {
			return true
		}
	}
	return false
}

// IsSilenced reports whether any active condition prevents spellcasting.
func IsSilenced(s *ActiveSet) bool {
	return anyActive(s, func(d *Definition) bool { return d.Silenced })
}

// CanAct reports whether no active condition prevents the combatant from taking a turn.
func CanAct(s *ActiveSet) bool {
	return !anyActive(s, (*Definition).PreventsAction)
}
