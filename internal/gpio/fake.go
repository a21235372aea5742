package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/brewer/internal/device"
)

// FakeActuators is a test double that records every command.
type FakeActuators struct {
	mu sync.Mutex

	// Calls lists commands in issue order, e.g. "alert_led:on", "tone:alert".
	Calls []string

	StatusLED bool
	BrewLED   bool
	AlertLED  bool

	// Segments is the number of lit bar segments out of BarSize.
	Segments int
	BarSize  int

	Tones         []device.ToneKind
	GrainCycles   int
	GroundsAngles []int
	GrinderRuns   []time.Duration
	Flashes       int
}

// NewFakeActuators creates a FakeActuators with a 10-segment bar.
func NewFakeActuators() *FakeActuators {
	return &FakeActuators{BarSize: 10}
}

func (f *FakeActuators) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (f *FakeActuators) SetStatusLED(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusLED = on
	f.record("status_led:%s", onOff(on))
}

func (f *FakeActuators) SetBrewLED(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BrewLED = on
	f.record("brew_led:%s", onOff(on))
}

func (f *FakeActuators) SetAlertLED(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AlertLED = on
	f.record("alert_led:%s", onOff(on))
}

func (f *FakeActuators) ShowIntensityBar(pct int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Segments = device.LitSegments(pct, f.BarSize)
	f.record("bar:%d", pct)
}

func (f *FakeActuators) FlashBar(times int, interval time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Flashes += times
	f.Segments = 0
	f.record("flash:%dx%v", times, interval)
}

func (f *FakeActuators) MoveGrainGate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GrainCycles++
	f.record("grain_gate")
}

func (f *FakeActuators) MoveGroundsGate(angle int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GroundsAngles = append(f.GroundsAngles, angle)
	f.record("grounds_gate:%d", angle)
}

func (f *FakeActuators) RunGrinder(d time.Duration, dir device.Direction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GrinderRuns = append(f.GrinderRuns, d)
	f.record("grinder:%v:%s", d, dir)
}

func (f *FakeActuators) Tone(kind device.ToneKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tones = append(f.Tones, kind)
	f.record("tone:%s", kind)
}

// CountTones returns how many times kind was played.
func (f *FakeActuators) CountTones(kind device.ToneKind) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, k := range f.Tones {
		if k == kind {
			n++
		}
	}
	return n
}

// Reset clears recorded commands and state.
func (f *FakeActuators) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = nil
	f.StatusLED, f.BrewLED, f.AlertLED = false, false, false
	f.Segments = 0
	f.Tones = nil
	f.GrainCycles = 0
	f.GroundsAngles = nil
	f.GrinderRuns = nil
	f.Flashes = 0
}
