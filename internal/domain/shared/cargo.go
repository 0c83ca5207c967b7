package shared

import "fmt"

// Cargo represents a ship's hold: a fixed capacity shared across the three
// commodity codes. Adapted from the teacher's symbol-keyed Cargo/CargoItem
// pair to the spec's fixed 3-commodity model — the validated-constructor and
// immutable-mutation texture is kept.
type Cargo struct {
	Holds int
	units map[CommodityCode]int
}

// NewCargo creates a cargo manifest with validation. units may omit entries;
// missing commodities default to 0.
func NewCargo(holds int, units map[CommodityCode]int) (*Cargo, error) {
	if holds < 0 {
		return nil, NewValidationError("cargo_holds", "cannot be negative")
	}

	normalized := make(map[CommodityCode]int, 3)
	total := 0
	for _, code := range Commodities() {
		n := units[code]
		if n < 0 {
			return nil, NewValidationError("cargo", fmt.Sprintf("%s units cannot be negative", code))
		}
		normalized[code] = n
		total += n
	}
	if total > holds {
		return nil, NewValidationError("cargo", fmt.Sprintf("total units %d exceed holds %d", total, holds))
	}

	return &Cargo{Holds: holds, units: normalized}, nil
}

// EmptyCargo creates an empty cargo manifest of the given capacity.
func EmptyCargo(holds int) *Cargo {
	c, _ := NewCargo(holds, nil)
	return c
}

// Get returns the units held of a given commodity (0 if none).
func (c *Cargo) Get(code CommodityCode) int {
	return c.units[code]
}

// Total sums units across all commodities.
func (c *Cargo) Total() int {
	total := 0
	for _, code := range Commodities() {
		total += c.units[code]
	}
	return total
}

// Available returns the free cargo space.
func (c *Cargo) Available() int {
	return c.Holds - c.Total()
}

// IsEmpty reports whether the hold carries nothing.
func (c *Cargo) IsEmpty() bool {
	return c.Total() == 0
}

// HasItemsOtherThan reports whether cargo contains any commodity other than
// the one given — used by dump_cargo/salvage bookkeeping.
func (c *Cargo) HasItemsOtherThan(code CommodityCode) bool {
	for _, other := range Commodities() {
		if other != code && c.units[other] > 0 {
			return true
		}
	}
	return false
}

// Add returns a new Cargo with units of code increased by n, failing if that
// would exceed Holds.
func (c *Cargo) Add(code CommodityCode, n int) (*Cargo, error) {
	if n < 0 {
		return nil, NewValidationError("cargo", "units to add cannot be negative")
	}
	if n == 0 {
		return c.Clone(), nil
	}
	next := c.snapshot()
	next[code] += n
	return NewCargo(c.Holds, next)
}

// Remove returns a new Cargo with units of code decreased by n, failing if
// insufficient units are held.
func (c *Cargo) Remove(code CommodityCode, n int) (*Cargo, error) {
	if n < 0 {
		return nil, NewValidationError("cargo", "units to remove cannot be negative")
	}
	have := c.units[code]
	if have < n {
		return nil, NewInsufficientResourceError(string(code), n, have)
	}
	next := c.snapshot()
	next[code] = have - n
	return NewCargo(c.Holds, next)
}

// Clone returns an independent copy.
func (c *Cargo) Clone() *Cargo {
	cp, _ := NewCargo(c.Holds, c.snapshot())
	return cp
}

func (c *Cargo) snapshot() map[CommodityCode]int {
	out := make(map[CommodityCode]int, 3)
	for _, code := range Commodities() {
		out[code] = c.units[code]
	}
	return out
}

// Snapshot exposes a read-only copy of the per-commodity units, e.g. for
// salvage generation or event payloads.
func (c *Cargo) Snapshot() map[CommodityCode]int {
	return c.snapshot()
}

func (c *Cargo) String() string {
	return fmt.Sprintf("Cargo(%d/%d)", c.Total(), c.Holds)
}
