// Package device defines the vocabulary shared by the appliance core and its
// hardware gateways: remote key labels, clock and ambient readings, tone
// patterns, and the gateway interfaces the core drives.
//
// Gateways are synchronous. A call returns once the physical action is done,
// and the core never issues two actuator calls at the same time.
package device

import (
	"errors"
	"time"
)

// ErrSensorFault is returned when an ambient reading fails its checksum or
// falls outside the sensor's physical range.
var ErrSensorFault = errors.New("device: sensor fault")

// Ambient is a room temperature/humidity reading.
type Ambient struct {
	TempC       float64
	HumidityPct float64
}

// Sensors is the Sensor Gateway. It holds no state the core depends on.
type Sensors interface {
	// ReadIntensity returns the coffee intensity selector, 0..100.
	ReadIntensity() int
	// ReadDesiredTemperature returns the requested water temperature, 85.0..95.0.
	ReadDesiredTemperature() float64
	// ReadWaterVolume returns the requested volume per cup in ml, 50..200.
	ReadWaterVolume() int
	// ReadAmbient returns ErrSensorFault (possibly wrapped) on an invalid reading.
	ReadAmbient() (Ambient, error)
	// ReadClock returns the real-time clock, already decoded from BCD.
	ReadClock() DateTime
}

// Actuators is the Actuator Gateway. Commands are idempotent and block for
// their physical duration. Failures are logged by the gateway itself.
type Actuators interface {
	SetStatusLED(on bool)
	SetBrewLED(on bool)
	SetAlertLED(on bool)
	// ShowIntensityBar lights the LED bar proportionally to pct (0..100).
	ShowIntensityBar(pct int)
	// FlashBar blinks every bar segment, then leaves the bar dark.
	FlashBar(times int, interval time.Duration)
	// MoveGrainGate runs one full open/close cycle of the bean gate.
	MoveGrainGate()
	// MoveGroundsGate positions the grounds gate servo at angle degrees.
	MoveGroundsGate(angle int)
	RunGrinder(d time.Duration, dir Direction)
	Tone(kind ToneKind)
}

// Display is the line-oriented text display, DisplayRows x DisplayCols.
type Display interface {
	Clear()
	SetCursor(row, col int)
	Print(text string)
}

// Display geometry.
const (
	DisplayRows = 4
	DisplayCols = 20
)

// KeySource yields the most recent remote key, clearing it.
type KeySource interface {
	Take() (Key, bool)
}

// Direction is the grinder rotation direction.
type Direction int

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "ccw"
	}
	return "cw"
}

// LitSegments returns how many of segments bar LEDs represent pct:
// proportional, but never fewer than one.
func LitSegments(pct, segments int) int {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	n := pct * segments / 100
	if n < 1 {
		n = 1
	}
	return n
}
