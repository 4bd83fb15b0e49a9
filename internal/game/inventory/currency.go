package inventory

import (
	"strconv"
	"strings"
)

// GoldPerPlatinum is how many gold coins make one platinum piece.
const GoldPerPlatinum = 100

// Purse is a coin and gem total as awarded at the end of an encounter.
type Purse struct {
	Gold int
	Gems int
}

// Platinum splits the gold total into whole platinum and leftover gold.
//
// Postcondition: platinum*GoldPerPlatinum + gold == p.Gold for p.Gold >= 0.
func (p Purse) Platinum() (platinum, gold int) {
	return p.Gold / GoldPerPlatinum, p.Gold % GoldPerPlatinum
}

// String renders the purse as "1 Platinum, 5 Gold, 2 Gems". Gold always
// appears; zero platinum and zero gems are left out.
func (p Purse) String() string {
	plat, gold := p.Platinum()
	parts := make([]string, 0, 3)
	if plat > 0 {
		parts = append(parts, strconv.Itoa(plat)+" Platinum")
	}
	parts = append(parts, strconv.Itoa(gold)+" Gold")
	switch {
	case p.Gems == 1:
		parts = append(parts, "1 Gem")
	case p.Gems > 1:
		parts = append(parts, strconv.Itoa(p.Gems)+" Gems")
	}
	return strings.Join(parts, ", ")
}
