package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/logging"
	"github.com/sweeney/brewer/internal/screen"
)

// GateConfig holds the fixed tank sizes and timing of the refill gate.
type GateConfig struct {
	Full         Ledger
	BeansPerCupG float64
	// Poll is the interval between key checks while suspended.
	Poll time.Duration
	// Hold is how long the "ready again" notice stays up.
	Hold time.Duration
	// ConfirmKey acknowledges a refill. Defaults to PLAY.
	ConfirmKey device.Key
}

// Gate blocks brewing until the reserves cover a batch.
type Gate struct {
	ledger *Ledger
	cfg    GateConfig
	act    device.Actuators
	disp   device.Display
	keys   device.KeySource
	clk    clock.Clock
	log    *logging.Logger

	// OnShortfall is called once when the gate suspends.
	OnShortfall func(Shortfall)
	// OnRefill is called after the operator confirms a refill.
	OnRefill func(Ledger)
}

// NewGate creates a Gate over l.
func NewGate(l *Ledger, cfg GateConfig, act device.Actuators, disp device.Display, keys device.KeySource, clk clock.Clock, log *logging.Logger) *Gate {
	if cfg.ConfirmKey == "" {
		cfg.ConfirmKey = device.KeyPlay
	}
	return &Gate{
		ledger: l,
		cfg:    cfg,
		act:    act,
		disp:   disp,
		keys:   keys,
		clk:    clk,
		log:    log.With("component", "ledger"),
	}
}

// Ledger returns the gated ledger.
func (g *Gate) Ledger() *Ledger {
	return g.ledger
}

// Requirement returns what cups cups at volumePerCup ml need.
func (g *Gate) Requirement(cups, volumePerCup int) Requirement {
	return Required(cups, volumePerCup, g.cfg.BeansPerCupG)
}

// CheckAndGate returns immediately, with no side effects, when the reserves
// cover the batch. Otherwise it raises the alert, suspends until the confirm
// key is seen, refills to the full-tank constants and reports refilled=true.
// It fails with ctx's error when the daemon shuts down mid-wait, and with
// ErrInsufficient when even full tanks cannot cover the batch.
func (g *Gate) CheckAndGate(ctx context.Context, cups, volumePerCup int) (refilled bool, err error) {
	req := g.Requirement(cups, volumePerCup)
	short := g.ledger.Check(req)
	if !short.Short() {
		return false, nil
	}

	g.log.Warn("refill required",
		"cups", cups,
		"need_water_ml", short.Need.WaterML,
		"need_beans_g", short.Need.BeansG,
		"water_ml", short.Have.WaterML,
		"beans_g", short.Have.BeansG,
	)
	if g.OnShortfall != nil {
		g.OnShortfall(short)
	}

	g.act.SetAlertLED(true)
	g.act.Tone(device.ToneAlert)
	g.disp.Clear()
	screen.Blink(g.disp, g.clk, 0, 2, "REFILL MACHINE!", 3, 500*time.Millisecond)
	screen.PrintAt(g.disp, 2, 0, "PRESS PLAY TO FILL:")

	// A key pressed before the shortage was announced does not count.
	g.keys.Take()
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if k, ok := g.keys.Take(); ok && k == g.cfg.ConfirmKey {
			break
		}
		g.clk.Sleep(g.cfg.Poll)
	}

	g.ledger.Refill(g.cfg.Full)
	if short := g.ledger.Check(req); short.Short() {
		g.log.Error("batch exceeds full tanks",
			"cups", cups,
			"need_water_ml", short.Need.WaterML,
			"need_beans_g", short.Need.BeansG,
		)
		g.act.SetAlertLED(false)
		g.act.Tone(device.ToneError)
		screen.Show(g.disp,
			screen.At(1, 2, "BATCH TOO LARGE!"),
			screen.At(2, 0, fmt.Sprintf("MAX %.0fml / %.0fg", short.Have.WaterML, short.Have.BeansG)),
		)
		g.clk.Sleep(g.cfg.Hold)
		return true, fmt.Errorf("%w: need %.0fml/%.0fg, full tanks hold %.0fml/%.0fg",
			ErrInsufficient, short.Need.WaterML, short.Need.BeansG, short.Have.WaterML, short.Have.BeansG)
	}
	g.act.SetAlertLED(false)
	screen.Show(g.disp, screen.At(1, 4, "READY AGAIN!"))
	g.act.Tone(device.ToneSuccess)
	g.log.Info("refilled", "water_ml", g.ledger.WaterML, "beans_g", g.ledger.BeansG)
	if g.OnRefill != nil {
		g.OnRefill(*g.ledger)
	}
	g.clk.Sleep(g.cfg.Hold)
	return true, nil
}
