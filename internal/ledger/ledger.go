// Package ledger tracks the water and bean reserves of the appliance and
// gates brewing on them.
//
// Quantities only go down between refills: Consume is the sole decrement and
// Refill the sole reset.
package ledger

import (
	"errors"
	"fmt"
)

// ErrInsufficient is returned by Consume when a reserve would go negative.
var ErrInsufficient = errors.New("ledger: insufficient resources")

// Ledger is the current reserve of water and beans.
type Ledger struct {
	WaterML float64
	BeansG  float64
}

// Requirement is what one batch needs.
type Requirement struct {
	WaterML float64
	BeansG  float64
}

// Required computes the needs of cups cups at volumePerCup ml each.
func Required(cups, volumePerCup int, beansPerCupG float64) Requirement {
	return Requirement{
		WaterML: float64(cups * volumePerCup),
		BeansG:  float64(cups) * beansPerCupG,
	}
}

// Shortfall describes which reserves cannot cover a requirement.
type Shortfall struct {
	Need  Requirement
	Have  Ledger
	Water bool
	Beans bool
}

// Short reports whether anything is missing.
func (s Shortfall) Short() bool {
	return s.Water || s.Beans
}

// Check compares the reserves against r.
func (l Ledger) Check(r Requirement) Shortfall {
	return Shortfall{
		Need:  r,
		Have:  l,
		Water: l.WaterML < r.WaterML,
		Beans: l.BeansG < r.BeansG,
	}
}

// Covers reports whether both reserves satisfy r.
func (l Ledger) Covers(r Requirement) bool {
	return !l.Check(r).Short()
}

// Consume decrements the reserves by r. Nothing changes if either reserve is short.
func (l *Ledger) Consume(r Requirement) error {
	if r.WaterML < 0 || r.BeansG < 0 {
		return fmt.Errorf("ledger: negative requirement %+v", r)
	}
	if !l.Covers(r) {
		return fmt.Errorf("%w: need %.0fml/%.0fg, have %.0fml/%.0fg",
			ErrInsufficient, r.WaterML, r.BeansG, l.WaterML, l.BeansG)
	}
	l.WaterML -= r.WaterML
	l.BeansG -= r.BeansG
	return nil
}

// Refill resets the reserves to full regardless of their current value.
func (l *Ledger) Refill(full Ledger) {
	*l = full
}

// StatusLine renders the greeting screen summary, e.g. "B:250g|W:1.00L".
func (l Ledger) StatusLine() string {
	return fmt.Sprintf("B:%.0fg|W:%.2fL", l.BeansG, l.WaterML/1000)
}
