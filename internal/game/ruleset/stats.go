package ruleset

// Stats holds the combat-relevant attributes shared by characters and monsters.
// Might and Luck are 10-based scores; Accuracy and Evasion are flat bonuses.
type Stats struct {
	Accuracy int `yaml:"accuracy"`
	Speed    int `yaml:"speed"`
	Might    int `yaml:"might"`
	Evasion  int `yaml:"evasion"`
	Luck     int `yaml:"luck"`
}

// BaseStats are the starting attributes before race modifiers.
var BaseStats = Stats{Speed: 10, Might: 10, Luck: 10}

// ScoreBonus returns the bonus for a 10-based score: floor((score - 10) / 2).
func ScoreBonus(score int) int {
	d := score - 10
	if d < 0 {
		return -((-d + 1) / 2)
	}
	return d / 2
}

// Apply adds named modifiers to s and returns the result. Unknown names are ignored.
func (s Stats) Apply(mods map[string]int) Stats {
	for name, delta := range mods {
		switch name {
		case "accuracy":
			s.Accuracy += delta
		case "speed":
			s.Speed += delta
		case "might":
			s.Might += delta
		case "evasion":
			s.Evasion += delta
		case "luck":
			s.Luck += delta
		}
	}
	return s
}
