package gpio

import (
	"reflect"
	"testing"
	"time"

	"github.com/sweeney/brewer/internal/device"
)

// Compile-time interface checks.
var (
	_ device.Actuators = (*FakeActuators)(nil)
	_ Controller       = (*RealActuators)(nil)
)

func TestServoPulse(t *testing.T) {
	tests := []struct {
		angle int
		want  time.Duration
	}{
		{0, 870 * time.Microsecond},
		{45, 1370 * time.Microsecond},
		{90, 1870 * time.Microsecond},
		{180, 2870 * time.Microsecond},
		{-10, 870 * time.Microsecond},
		{270, 2870 * time.Microsecond},
	}
	for _, tt := range tests {
		if got := ServoPulse(tt.angle); got != tt.want {
			t.Errorf("ServoPulse(%d) = %v, want %v", tt.angle, got, tt.want)
		}
	}
}

func TestServoPulseFitsPeriod(t *testing.T) {
	for angle := 0; angle <= 180; angle++ {
		if p := ServoPulse(angle); p >= servoPeriod {
			t.Fatalf("pulse %v at %d degrees exceeds period %v", p, angle, servoPeriod)
		}
	}
}

func TestBarValues(t *testing.T) {
	tests := []struct {
		pct  int
		want []int
	}{
		{0, []int{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{35, []int{1, 1, 1, 0, 0, 0, 0, 0, 0, 0}},
		{100, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}},
	}
	for _, tt := range tests {
		if got := BarValues(tt.pct, 10); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("BarValues(%d) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestStepCount(t *testing.T) {
	if got := StepCount(5*time.Second, 5*time.Millisecond); got != 1000 {
		t.Errorf("expected 1000 steps, got %d", got)
	}
	if got := StepCount(5*time.Second, 0); got != 0 {
		t.Errorf("expected 0 steps with no delay, got %d", got)
	}
	if got := StepCount(-time.Second, time.Millisecond); got != 0 {
		t.Errorf("expected 0 steps for negative duration, got %d", got)
	}
}

func TestHalfPeriod(t *testing.T) {
	if got := HalfPeriod(500); got != time.Millisecond {
		t.Errorf("HalfPeriod(500) = %v, want 1ms", got)
	}
	if got := HalfPeriod(0); got != 0 {
		t.Errorf("HalfPeriod(0) = %v, want 0", got)
	}
}

func TestGrainCycleClosesGate(t *testing.T) {
	last := grainCycle[len(grainCycle)-1]
	if last.angle != 0 {
		t.Errorf("grain cycle ends at %d degrees, want 0", last.angle)
	}
}

func TestFakeActuatorsRecordsCommands(t *testing.T) {
	f := NewFakeActuators()

	f.SetBrewLED(true)
	f.ShowIntensityBar(72)
	f.Tone(device.ToneAlert)
	f.MoveGroundsGate(45)
	f.RunGrinder(5*time.Second, device.CounterClockwise)
	f.FlashBar(3, 300*time.Millisecond)

	want := []string{
		"brew_led:on",
		"bar:72",
		"tone:alert",
		"grounds_gate:45",
		"grinder:5s:ccw",
		"flash:3x300ms",
	}
	if !reflect.DeepEqual(f.Calls, want) {
		t.Errorf("calls = %v, want %v", f.Calls, want)
	}
	if !f.BrewLED {
		t.Error("expected brew LED on")
	}
	if f.Segments != 0 {
		t.Errorf("expected bar dark after flash, got %d segments", f.Segments)
	}
	if f.Flashes != 3 {
		t.Errorf("expected 3 flashes, got %d", f.Flashes)
	}
	if f.CountTones(device.ToneAlert) != 1 {
		t.Errorf("expected 1 alert tone, got %d", f.CountTones(device.ToneAlert))
	}
}

func TestFakeActuatorsBarSegments(t *testing.T) {
	f := NewFakeActuators()

	f.ShowIntensityBar(72)
	if f.Segments != 7 {
		t.Errorf("expected 7 segments, got %d", f.Segments)
	}
	f.ShowIntensityBar(5)
	if f.Segments != 1 {
		t.Errorf("expected at least 1 segment, got %d", f.Segments)
	}
}

func TestFakeActuatorsReset(t *testing.T) {
	f := NewFakeActuators()
	f.SetAlertLED(true)
	f.MoveGrainGate()
	f.Tone(device.ToneReady)

	f.Reset()

	if len(f.Calls) != 0 || f.AlertLED || f.GrainCycles != 0 || len(f.Tones) != 0 {
		t.Errorf("expected clean fake after Reset, got %+v", f)
	}
	if f.BarSize != 10 {
		t.Errorf("Reset should keep the bar size, got %d", f.BarSize)
	}
}
