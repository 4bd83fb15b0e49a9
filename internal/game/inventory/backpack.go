package inventory

import (
	"errors"
	"fmt"
)

// ErrItemNotCarried is returned when an operation names an item the backpack does not hold.
var ErrItemNotCarried = errors.New("inventory: item not carried")

// Slot is one carried item: a quantity of single-use units, or one charge-based
// item with its remaining charges.
type Slot struct {
	ItemDefID string
	Quantity  int
	Charges   int
}

// Backpack is a combatant's carried items in acquisition order.
// It is not safe for concurrent use.
type Backpack struct {
	slots []Slot
}

// NewBackpack creates an empty Backpack.
func NewBackpack() *Backpack {
	return &Backpack{}
}

// Add places quantity units of def into the backpack. Single-use items merge
// into an existing slot; each charge-based item takes its own slot with full charges.
//
// Precondition: def is non-nil and quantity > 0.
func (b *Backpack) Add(def *ItemDef, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("backpack: quantity must be > 0")
	}
	if def.ChargeBased() {
		for i := 0; i < quantity; i++ {
			b.slots = append(b.slots, Slot{ItemDefID: def.ID, Quantity: 1, Charges: def.Charges})
		}
		return nil
	}
	for i := range b.slots {
		if b.slots[i].ItemDefID == def.ID {
			b.slots[i].Quantity += quantity
			return nil
		}
	}
	b.slots = append(b.slots, Slot{ItemDefID: def.ID, Quantity: quantity})
	return nil
}

// Find returns the first usable slot for itemID: for charge-based items the first
// with charges remaining, falling back to the first slot at all.
func (b *Backpack) Find(itemID string) (Slot, bool) {
	i := b.index(itemID)
	if i < 0 {
		return Slot{}, false
	}
	return b.slots[i], true
}

// Consume uses one charge or one unit of itemID. A slot is removed when a
// single-use item runs out or a non-rechargeable item is left without charges.
//
// Precondition: def.ID == itemID's definition.
// Postcondition: on error the backpack is unchanged; removed reports whether the slot was dropped.
func (b *Backpack) Consume(def *ItemDef) (removed bool, err error) {
	i := b.index(def.ID)
	if i < 0 {
		return false, fmt.Errorf("%w: %q", ErrItemNotCarried, def.ID)
	}
	s := &b.slots[i]
	if def.ChargeBased() {
		if s.Charges <= 0 {
			return false, fmt.Errorf("backpack: %q has no charges remaining", def.ID)
		}
		s.Charges--
		if s.Charges == 0 && !def.Rechargeable {
			b.slots = append(b.slots[:i], b.slots[i+1:]...)
			return true, nil
		}
		return false, nil
	}
	s.Quantity--
	if s.Quantity <= 0 {
		b.slots = append(b.slots[:i], b.slots[i+1:]...)
		return true, nil
	}
	return false, nil
}

// Slots returns a snapshot copy of all slots.
//
// Postcondition: returned slice is a copy; mutations do not affect the backpack.
func (b *Backpack) Slots() []Slot {
	out := make([]Slot, len(b.slots))
	copy(out, b.slots)
	return out
}

// Clone returns an independent copy of the backpack.
func (b *Backpack) Clone() *Backpack {
	return &Backpack{slots: b.Slots()}
}

func (b *Backpack) index(itemID string) int {
	first := -1
	for i := range b.slots {
		if b.slots[i].ItemDefID != itemID {
			continue
		}
		if b.slots[i].Charges > 0 {
			return i
		}
		if first < 0 {
			first = i
		}
	}
	return first
}
