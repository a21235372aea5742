// Package gpio drives the appliance actuators over the Linux GPIO character
// device: indicator LEDs, the 10-segment intensity bar, the buzzer, the two
// gate servos and the grinder stepper.
// The real implementation is Linux-only; FakeActuators records commands for tests.
package gpio

import (
	"time"

	"github.com/sweeney/brewer/internal/device"
)

// Controller is an Actuator Gateway that owns hardware lines.
type Controller interface {
	device.Actuators

	// Close turns every output off and releases the lines.
	Close() error
}

// Servo and stepper timing.
const (
	servoPeriod = 20 * time.Millisecond
	// servoSettle is how long a position is pulsed before moving on.
	servoSettle = 500 * time.Millisecond
	// barFillDelay paces the progressive fill of the intensity bar.
	barFillDelay = 200 * time.Millisecond
)

// ServoPulse returns the high time of a servo pulse for angle degrees,
// clamped to 0..180.
func ServoPulse(angle int) time.Duration {
	if angle < 0 {
		angle = 0
	}
	if angle > 180 {
		angle = 180
	}
	return time.Duration(870+angle*2000/180) * time.Microsecond
}

// servoStep is one position of a gate cycle and how long to hold it.
type servoStep struct {
	angle int
	hold  time.Duration
}

// grainCycle opens the bean gate fully and closes it again.
var grainCycle = []servoStep{
	{0, 500 * time.Millisecond},
	{90, time.Second},
	{180, time.Second},
	{0, 100 * time.Millisecond},
}

// BarValues returns line values for the intensity bar showing pct.
func BarValues(pct, segments int) []int {
	lit := device.LitSegments(pct, segments)
	v := make([]int, segments)
	for i := 0; i < lit; i++ {
		v[i] = 1
	}
	return v
}

// StepCount returns how many stepper pulses of period stepDelay fit in d.
func StepCount(d, stepDelay time.Duration) int {
	if stepDelay <= 0 || d <= 0 {
		return 0
	}
	return int(d / stepDelay)
}

// HalfPeriod returns the half period of a square wave at freq Hz.
func HalfPeriod(freqHz int) time.Duration {
	if freqHz <= 0 {
		return 0
	}
	return time.Second / time.Duration(2*freqHz)
}
