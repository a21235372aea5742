// Package brew contains the brewing procedure and the pure functions it is
// built from. Functions in this file have no side effects and take every
// tunable as a parameter.
package brew

import (
	"time"

	"github.com/sweeney/brewer/internal/device"
)

// IntensityBand is the named strength of a brew.
type IntensityBand int

const (
	Mild IntensityBand = iota
	Medium
	Strong
)

func (b IntensityBand) String() string {
	switch b {
	case Mild:
		return "MILD"
	case Medium:
		return "MEDIUM"
	case Strong:
		return "STRONG"
	default:
		return "UNKNOWN"
	}
}

// TemperatureBand is the named water temperature of a brew.
type TemperatureBand int

const (
	Warm TemperatureBand = iota
	Hot
	HotPlus
)

func (b TemperatureBand) String() string {
	switch b {
	case Warm:
		return "WARM"
	case Hot:
		return "HOT"
	case HotPlus:
		return "HOT++"
	default:
		return "UNKNOWN"
	}
}

// ClassifyIntensity maps 0..100 to a band: <=33 Mild, 34..66 Medium, >66 Strong.
func ClassifyIntensity(pct int) IntensityBand {
	switch {
	case pct <= 33:
		return Mild
	case pct <= 66:
		return Medium
	default:
		return Strong
	}
}

// ClassifyTemperature maps a target temperature to a band:
// <90 Warm, 90..<94 Hot, >=94 HotPlus.
func ClassifyTemperature(c float64) TemperatureBand {
	switch {
	case c < 90:
		return Warm
	case c < 94:
		return Hot
	default:
		return HotPlus
	}
}

// ExtractionDuration returns how long the grounds gate stays open:
// base minus perUnit for every intensity point. Stronger coffee extracts
// for less time. The result is never negative.
func ExtractionDuration(pct int, base, perUnit time.Duration) time.Duration {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	d := base - time.Duration(pct)*perUnit
	if d < 0 {
		return 0
	}
	return d
}

// BarSegments returns the number of lit intensity bar segments.
func BarSegments(pct, segments int) int {
	return device.LitSegments(pct, segments)
}

// HeatingRamp returns the temperatures shown while the water heats: base,
// base+step, ... for every value not above target. A non-positive step
// yields just base.
func HeatingRamp(base, step, target float64) []float64 {
	if step <= 0 {
		return []float64{base}
	}
	var ramp []float64
	for i := 0; ; i++ {
		t := base + float64(i)*step
		if t > target {
			break
		}
		ramp = append(ramp, t)
	}
	return ramp
}
