//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/config"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/logging"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealActuators is not available on non-Linux platforms.
type RealActuators struct{}

// NewRealActuators returns an error on non-Linux platforms.
func NewRealActuators(config.GPIOConfig, clock.Clock, *logging.Logger) (*RealActuators, error) {
	return nil, errUnsupported
}

func (*RealActuators) SetStatusLED(bool)                          {}
func (*RealActuators) SetBrewLED(bool)                            {}
func (*RealActuators) SetAlertLED(bool)                           {}
func (*RealActuators) ShowIntensityBar(int)                       {}
func (*RealActuators) FlashBar(int, time.Duration)                {}
func (*RealActuators) MoveGrainGate()                             {}
func (*RealActuators) MoveGroundsGate(int)                        {}
func (*RealActuators) RunGrinder(time.Duration, device.Direction) {}
func (*RealActuators) Tone(device.ToneKind)                       {}

// Close is a no-op on non-Linux platforms.
func (*RealActuators) Close() error {
	return nil
}
