//go:build linux

package gpio

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/config"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/logging"
)

// RealActuators drives the actuators through the Linux GPIO character device.
// Servo and buzzer waveforms are generated in software.
type RealActuators struct {
	chip *gpiocdev.Chip
	clk  clock.Clock
	log  *logging.Logger

	statusLED   *gpiocdev.Line
	brewLED     *gpiocdev.Line
	alertLED    *gpiocdev.Line
	buzzer      *gpiocdev.Line
	grainServo  *gpiocdev.Line
	groundServo *gpiocdev.Line
	stepperStep *gpiocdev.Line
	stepperDir  *gpiocdev.Line
	bar         *gpiocdev.Lines

	segments  int
	stepDelay time.Duration
}

// NewRealActuators requests every output line in cfg, initially low.
func NewRealActuators(cfg config.GPIOConfig, clk clock.Clock, log *logging.Logger) (*RealActuators, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip, gpiocdev.WithConsumer("brewer"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	a := &RealActuators{
		chip:      chip,
		clk:       clk,
		log:       log.With("component", "gpio"),
		segments:  len(cfg.BarLEDs),
		stepDelay: cfg.StepDelay,
	}

	outputs := []struct {
		name   string
		offset int
		line   **gpiocdev.Line
	}{
		{"status led", cfg.StatusLED, &a.statusLED},
		{"brew led", cfg.BrewLED, &a.brewLED},
		{"alert led", cfg.AlertLED, &a.alertLED},
		{"buzzer", cfg.Buzzer, &a.buzzer},
		{"grain servo", cfg.GrainServo, &a.grainServo},
		{"ground servo", cfg.GroundServo, &a.groundServo},
		{"stepper step", cfg.StepperStep, &a.stepperStep},
		{"stepper dir", cfg.StepperDir, &a.stepperDir},
	}
	for _, o := range outputs {
		l, err := chip.RequestLine(o.offset, gpiocdev.AsOutput(0))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", o.name, o.offset, err)
		}
		*o.line = l
	}

	bar, err := chip.RequestLines(cfg.BarLEDs, gpiocdev.AsOutput(make([]int, len(cfg.BarLEDs))...))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("request bar pins %v: %w", cfg.BarLEDs, err)
	}
	a.bar = bar

	return a, nil
}

func (a *RealActuators) set(l *gpiocdev.Line, name string, v int) {
	if err := l.SetValue(v); err != nil {
		a.log.Error("gpio write failed", "line", name, "error", err)
	}
}

func boolValue(on bool) int {
	if on {
		return 1
	}
	return 0
}

func (a *RealActuators) SetStatusLED(on bool) { a.set(a.statusLED, "status led", boolValue(on)) }
func (a *RealActuators) SetBrewLED(on bool)   { a.set(a.brewLED, "brew led", boolValue(on)) }
func (a *RealActuators) SetAlertLED(on bool)  { a.set(a.alertLED, "alert led", boolValue(on)) }

func (a *RealActuators) setBar(values []int) {
	if err := a.bar.SetValues(values); err != nil {
		a.log.Error("gpio write failed", "line", "bar", "error", err)
	}
}

// ShowIntensityBar fills the bar one segment at a time.
func (a *RealActuators) ShowIntensityBar(pct int) {
	target := BarValues(pct, a.segments)
	values := make([]int, a.segments)
	for i := range target {
		values[i] = target[i]
		a.setBar(values)
		a.clk.Sleep(barFillDelay)
	}
}

func (a *RealActuators) FlashBar(times int, interval time.Duration) {
	on := make([]int, a.segments)
	for i := range on {
		on[i] = 1
	}
	off := make([]int, a.segments)
	for i := 0; i < times; i++ {
		a.setBar(on)
		a.clk.Sleep(interval)
		a.setBar(off)
		a.clk.Sleep(interval)
	}
}

// pulseServo holds a servo at angle for d by sending 50 Hz pulses.
func (a *RealActuators) pulseServo(l *gpiocdev.Line, name string, angle int, d time.Duration) {
	high := ServoPulse(angle)
	for elapsed := time.Duration(0); elapsed < d; elapsed += servoPeriod {
		a.set(l, name, 1)
		a.clk.Sleep(high)
		a.set(l, name, 0)
		a.clk.Sleep(servoPeriod - high)
	}
}

func (a *RealActuators) MoveGrainGate() {
	for _, s := range grainCycle {
		a.pulseServo(a.grainServo, "grain servo", s.angle, s.hold)
	}
}

func (a *RealActuators) MoveGroundsGate(angle int) {
	a.pulseServo(a.groundServo, "ground servo", angle, servoSettle)
}

func (a *RealActuators) RunGrinder(d time.Duration, dir device.Direction) {
	a.set(a.stepperDir, "stepper dir", boolValue(dir == device.Clockwise))
	half := a.stepDelay / 2
	for i := StepCount(d, a.stepDelay); i > 0; i-- {
		a.set(a.stepperStep, "stepper step", 1)
		a.clk.Sleep(half)
		a.set(a.stepperStep, "stepper step", 0)
		a.clk.Sleep(half)
	}
}

func (a *RealActuators) Tone(kind device.ToneKind) {
	for _, n := range kind.Pattern() {
		half := HalfPeriod(n.FreqHz)
		if half > 0 {
			for elapsed := time.Duration(0); elapsed < n.Duration; elapsed += 2 * half {
				a.set(a.buzzer, "buzzer", 1)
				a.clk.Sleep(half)
				a.set(a.buzzer, "buzzer", 0)
				a.clk.Sleep(half)
			}
		}
		a.clk.Sleep(n.Pause)
	}
}

// Close drives every output low, returns the lines to inputs and releases
// them, leaving the pins as the board expects them at boot.
func (a *RealActuators) Close() error {
	var errs []error
	lines := []*gpiocdev.Line{
		a.statusLED, a.brewLED, a.alertLED, a.buzzer,
		a.grainServo, a.groundServo, a.stepperStep, a.stepperDir,
	}
	for _, l := range lines {
		if l == nil {
			continue
		}
		_ = l.SetValue(0)
		if err := l.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", l.Offset(), err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", l.Offset(), err))
		}
	}
	if a.bar != nil {
		if err := a.bar.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure bar: %w", err))
		}
		if err := a.bar.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bar: %w", err))
		}
	}
	if a.chip != nil {
		if err := a.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
