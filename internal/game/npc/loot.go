package npc

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/dice"
)

// chanceScale is the resolution of a fractional drop chance.
const chanceScale = 1_000_000

// CurrencyDrop is an inclusive range of coins or gems.
type CurrencyDrop struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

func (d *CurrencyDrop) validate(name string) error {
	switch {
	case d == nil:
		return nil
	case d.Min < 0:
		return fmt.Errorf("%s: min %d is negative", name, d.Min)
	case d.Min > d.Max:
		return fmt.Errorf("%s: min %d exceeds max %d", name, d.Min, d.Max)
	}
	return nil
}

// roll draws only when the range is wider than one value.
func (d *CurrencyDrop) roll(src dice.Source) int {
	if d == nil || d.Max <= 0 {
		return 0
	}
	if d.Max == d.Min {
		return d.Min
	}
	return d.Min + src.Intn(d.Max-d.Min+1)
}

// ItemDrop is one loot table line. Chance is a probability in (0, 1]. A
// missing min_qty means 1 and a missing max_qty means exactly min_qty.
type ItemDrop struct {
	ItemID string  `yaml:"item"`
	Chance float64 `yaml:"chance"`
	MinQty int     `yaml:"min_qty"`
	MaxQty int     `yaml:"max_qty"`
}

func (d ItemDrop) quantity() (lo, hi int) {
	lo, hi = max(d.MinQty, 1), d.MaxQty
	if hi == 0 {
		hi = lo
	}
	return lo, hi
}

func (d ItemDrop) validate() error {
	var errs []error
	if d.ItemID == "" {
		errs = append(errs, errors.New("item id must not be empty"))
	}
	if d.Chance <= 0 || d.Chance > 1 {
		errs = append(errs, fmt.Errorf("chance %g is outside (0, 1]", d.Chance))
	}
	if d.MinQty < 0 || d.MaxQty < 0 {
		errs = append(errs, errors.New("quantities must not be negative"))
	} else if lo, hi := d.quantity(); lo > hi {
		errs = append(errs, fmt.Errorf("min_qty %d exceeds max_qty %d", lo, hi))
	}
	return errors.Join(errs...)
}

// LootTable lists what a monster template may drop when it is defeated.
type LootTable struct {
	Currency *CurrencyDrop `yaml:"currency"`
	Gems     *CurrencyDrop `yaml:"gems"`
	Items    []ItemDrop    `yaml:"items"`
}

// Validate reports every problem in the table. An empty table is valid.
func (lt *LootTable) Validate() error {
	errs := []error{lt.Currency.validate("currency"), lt.Gems.validate("gems")}
	for i, it := range lt.Items {
		if err := it.validate(); err != nil {
			errs = append(errs, fmt.Errorf("items[%d]: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("loot table: %w", err)
	}
	return nil
}

// LootItem is one dropped stack. InstanceID is a UUID string.
type LootItem struct {
	ItemDefID  string
	InstanceID string
	Quantity   int
}

// LootResult is what one defeated monster yields.
type LootResult struct {
	Currency int
	Gems     int
	Items    []LootItem
}

// GenerateLoot rolls lt against src. Instance IDs come from src too, so a
// replayed seed yields identical loot.
//
// Precondition: lt passed Validate.
// Postcondition: every amount lies within its configured range.
func GenerateLoot(lt LootTable, src dice.Source) LootResult {
	res := LootResult{
		Currency: lt.Currency.roll(src),
		Gems:     lt.Gems.roll(src),
	}
	for _, d := range lt.Items {
		if src.Intn(chanceScale) >= int(d.Chance*chanceScale) {
			continue
		}
		lo, hi := d.quantity()
		qty := lo
		if hi > lo {
			qty += src.Intn(hi - lo + 1)
		}
		res.Items = append(res.Items, LootItem{ItemDefID: d.ItemID, InstanceID: instanceID(src), Quantity: qty})
	}
	return res
}

// sourceReader feeds uuid generation from a dice.Source. It never fails.
type sourceReader struct{ src dice.Source }

func (r sourceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.src.Intn(256))
	}
	return len(p), nil
}

func instanceID(src dice.Source) string {
	return uuid.Must(uuid.NewRandomFromReader(sourceReader{src})).String()
}
