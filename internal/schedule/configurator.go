package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/logging"
	"github.com/sweeney/brewer/internal/screen"
)

// EntryState is the phase of the schedule entry sub-machine.
type EntryState int

const (
	EntryDay EntryState = iota
	EntryHour
	EntryMinute
	EntryValidate
	EntryConfirmed
	EntryRejected
)

func (s EntryState) String() string {
	switch s {
	case EntryDay:
		return "DAY"
	case EntryHour:
		return "HOUR"
	case EntryMinute:
		return "MINUTE"
	case EntryValidate:
		return "VALIDATE"
	case EntryConfirmed:
		return "CONFIRMED"
	case EntryRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Config holds the entry timeouts.
type Config struct {
	DayTimeout   time.Duration
	DigitTimeout time.Duration
	// RejectTimeout abandons the entry while rejected; 0 waits forever.
	RejectTimeout time.Duration
	Poll          time.Duration
	// Hold is how long confirmation and rejection notices stay up.
	Hold time.Duration
	// ResetKey restarts entry after a rejection. Defaults to PLAY.
	ResetKey device.Key
}

// Configurator collects a day offset, an hour and a minute from the remote
// and accepts the result only if it is strictly after the clock.
type Configurator struct {
	sensors device.Sensors
	keys    device.KeySource
	disp    device.Display
	clk     clock.Clock
	log     *logging.Logger
	cfg     Config

	state EntryState

	// OnReject is called each time a candidate fails validation.
	OnReject func(candidate Time, now device.DateTime)
}

// NewConfigurator creates a Configurator.
func NewConfigurator(cfg Config, sensors device.Sensors, keys device.KeySource, disp device.Display, clk clock.Clock, log *logging.Logger) *Configurator {
	if cfg.ResetKey == "" {
		cfg.ResetKey = device.KeyPlay
	}
	return &Configurator{
		sensors: sensors,
		keys:    keys,
		disp:    disp,
		clk:     clk,
		log:     log.With("component", "schedule"),
		cfg:     cfg,
	}
}

// State returns the current entry phase.
func (c *Configurator) State() EntryState {
	return c.state
}

// Run drives the sub-machine to completion. It returns a Time with
// Valid=true once a future time is confirmed. It returns an invalid Time if
// a rejection is abandoned after RejectTimeout or ctx is cancelled.
func (c *Configurator) Run(ctx context.Context) Time {
	var (
		t          Time
		rejectedAt time.Time
	)
	c.state = EntryDay

	for {
		if ctx.Err() != nil {
			c.log.Info("schedule entry cancelled", "state", c.state)
			return Time{}
		}

		switch c.state {
		case EntryDay:
			t = Time{}
			t.Day, t.Month = c.enterDay(ctx)
			c.state = EntryHour

		case EntryHour:
			t.Hour = c.enterHour(ctx)
			c.state = EntryMinute

		case EntryMinute:
			t.Minute = c.enterMinute(ctx)
			c.state = EntryValidate

		case EntryValidate:
			now := c.sensors.ReadClock()
			if IsStrictlyFuture(t, now) {
				t.Valid = true
				c.state = EntryConfirmed
				continue
			}
			c.log.Info("schedule rejected", "candidate", t.String(), "now", now.String())
			screen.Show(c.disp,
				screen.At(0, 0, "Invalid Date/Time!"),
				screen.At(2, 0, "PRESS PLAY TO RESET:"),
			)
			if c.OnReject != nil {
				c.OnReject(t, now)
			}
			c.clk.Sleep(c.cfg.Hold)
			c.keys.Take()
			rejectedAt = c.clk.Now()
			c.state = EntryRejected

		case EntryConfirmed:
			screen.Show(c.disp,
				screen.At(0, 0, "COFFEE SCHEDULED!"),
				screen.At(2, 0, fmt.Sprintf("DATE: %02d/%02d", t.Day, t.Month)),
				screen.At(3, 0, fmt.Sprintf("TIME: %02d:%02d", t.Hour, t.Minute)),
			)
			c.log.Info("schedule confirmed", "at", t.String())
			c.clk.Sleep(c.cfg.Hold)
			return t

		case EntryRejected:
			if k, ok := c.keys.Take(); ok && k == c.cfg.ResetKey {
				c.state = EntryDay
				continue
			}
			if c.cfg.RejectTimeout > 0 && c.clk.Now().Sub(rejectedAt) >= c.cfg.RejectTimeout {
				c.log.Info("schedule abandoned after rejection", "waited", c.cfg.RejectTimeout)
				return Time{}
			}
			c.clk.Sleep(c.cfg.Poll)
		}
	}
}

// enterDay asks for today or tomorrow. A timeout yields day 0, month 0,
// which validation always rejects.
func (c *Configurator) enterDay(ctx context.Context) (day, month int) {
	now := c.sensors.ReadClock()
	screen.Show(c.disp,
		screen.At(0, 0, "SCHEDULE FOR:"),
		screen.At(2, 0, "+ : TOMORROW"),
		screen.At(3, 0, "- : TODAY"),
	)

	deadline := c.clk.Now().Add(c.cfg.DayTimeout)
	for c.clk.Now().Before(deadline) && ctx.Err() == nil {
		if k, ok := c.keys.Take(); ok {
			switch k {
			case device.KeyPlus:
				day, month, _ = NextDay(now.Day, now.Month, now.Year)
				c.confirmDay(day, month)
				return day, month
			case device.KeyMinus:
				c.confirmDay(now.Day, now.Month)
				return now.Day, now.Month
			}
		}
		c.clk.Sleep(c.cfg.Poll)
	}

	c.log.Info("day selection timed out")
	screen.Show(c.disp, screen.At(0, 0, "NO DATE SELECTED"))
	c.clk.Sleep(c.cfg.Hold)
	return 0, 0
}

func (c *Configurator) confirmDay(day, month int) {
	screen.Show(c.disp,
		screen.At(0, 0, "DATE CONFIRMED!"),
		screen.At(2, 0, fmt.Sprintf("%02d/%02d", day, month)),
	)
	c.clk.Sleep(c.cfg.Hold)
}

// readDigit waits up to DigitTimeout for a digit key, ignoring other keys.
func (c *Configurator) readDigit(ctx context.Context) int {
	deadline := c.clk.Now().Add(c.cfg.DigitTimeout)
	for c.clk.Now().Before(deadline) && ctx.Err() == nil {
		if k, ok := c.keys.Take(); ok {
			if d, isDigit := k.Digit(); isDigit {
				return d
			}
		}
		c.clk.Sleep(c.cfg.Poll)
	}
	return InvalidDigit
}

func (c *Configurator) enterHour(ctx context.Context) int {
	screen.Show(c.disp,
		screen.At(0, 0, "SET HOURS:"),
		screen.At(2, 2, ":"),
	)

	tens := HourTens(c.readDigit(ctx))
	screen.PrintAt(c.disp, 2, 0, fmt.Sprint(tens))
	units := HourUnits(tens, c.readDigit(ctx))
	screen.PrintAt(c.disp, 2, 1, fmt.Sprint(units))

	hour := tens*10 + units
	screen.PrintAt(c.disp, 0, 0, "HOURS OK!           ")
	c.log.Debug("hour entered", "hour", hour)
	c.clk.Sleep(c.cfg.Hold)
	return hour
}

func (c *Configurator) enterMinute(ctx context.Context) int {
	screen.PrintAt(c.disp, 0, 0, "SET MINUTES:        ")

	tens := MinuteTens(c.readDigit(ctx))
	screen.PrintAt(c.disp, 2, 3, fmt.Sprint(tens))
	units := MinuteUnits(c.readDigit(ctx))
	screen.PrintAt(c.disp, 2, 4, fmt.Sprint(units))

	minute := tens*10 + units
	screen.PrintAt(c.disp, 0, 0, "MIN CONFIRMED!      ")
	c.log.Debug("minute entered", "minute", minute)
	c.clk.Sleep(c.cfg.Hold)
	return minute
}
