package brew

import (
	"context"
	"fmt"
	"time"

	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/ledger"
	"github.com/sweeney/brewer/internal/logging"
	"github.com/sweeney/brewer/internal/screen"
)

// Phase is a step of the brewing sequence.
type Phase string

const (
	PhaseGating     Phase = "GATING"
	PhaseStarting   Phase = "STARTING"
	PhaseHeating    Phase = "HEATING"
	PhaseReleasing  Phase = "RELEASING"
	PhaseGrinding   Phase = "GRINDING"
	PhaseExtracting Phase = "EXTRACTING"
	PhaseDone       Phase = "DONE"
)

// Params are the sensor settings sampled at the start of a brew.
type Params struct {
	IntensityPct   int
	DesiredTempC   float64
	VolumePerCupML int
}

// Sample reads fresh brew parameters.
func Sample(s device.Sensors) Params {
	return Params{
		IntensityPct:   s.ReadIntensity(),
		DesiredTempC:   s.ReadDesiredTemperature(),
		VolumePerCupML: s.ReadWaterVolume(),
	}
}

// Config is the fixed brewing profile.
type Config struct {
	HeatingBaseC           float64
	HeatingStepC           float64
	HeatingStepDelay       time.Duration
	ExtractionBase         time.Duration
	ExtractionPerIntensity time.Duration
	ExtractionGateAngle    int
	GrindDuration          time.Duration
	BarSegments            int
	FlashTimes             int
	FlashInterval          time.Duration
	ProgressStepDelay      time.Duration
	// Hold is how long intermediate notices stay on screen.
	Hold time.Duration
}

// Result describes a finished batch.
type Result struct {
	Cups        int
	Params      Params
	Intensity   IntensityBand
	Temperature TemperatureBand
	Refilled    bool
	Extraction  time.Duration
	Consumed    ledger.Requirement
	Remaining   ledger.Ledger
	Started     time.Time
	Finished    time.Time
}

// Procedure runs one batch from parameter sampling to the ready melody.
type Procedure struct {
	cfg     Config
	sensors device.Sensors
	act     device.Actuators
	disp    device.Display
	gate    *ledger.Gate
	clk     clock.Clock
	log     *logging.Logger

	// OnPhase is called as each phase begins.
	OnPhase func(Phase)
}

// NewProcedure creates a Procedure that gates on gate and consumes its ledger.
func NewProcedure(cfg Config, sensors device.Sensors, act device.Actuators, disp device.Display, gate *ledger.Gate, clk clock.Clock, log *logging.Logger) *Procedure {
	return &Procedure{
		cfg:     cfg,
		sensors: sensors,
		act:     act,
		disp:    disp,
		gate:    gate,
		clk:     clk,
		log:     log.With("component", "brew"),
	}
}

func (p *Procedure) phase(ph Phase) {
	p.log.Debug("brew phase", "phase", ph)
	if p.OnPhase != nil {
		p.OnPhase(ph)
	}
}

// Run brews cups cups. Once the refill gate clears, the physical sequence
// always runs to completion. Run fails before any actuation if ctx ends
// while the gate is suspended or the reserves cannot cover the batch, and
// skips the ready notice if the reserves changed under the procedure.
func (p *Procedure) Run(ctx context.Context, cups int) (Result, error) {
	params := Sample(p.sensors)
	res := Result{
		Cups:        cups,
		Params:      params,
		Intensity:   ClassifyIntensity(params.IntensityPct),
		Temperature: ClassifyTemperature(params.DesiredTempC),
		Extraction:  ExtractionDuration(params.IntensityPct, p.cfg.ExtractionBase, p.cfg.ExtractionPerIntensity),
		Started:     p.clk.Now(),
	}
	p.log.Info("brew requested",
		"cups", cups,
		"intensity_pct", params.IntensityPct,
		"intensity", res.Intensity,
		"temp_c", params.DesiredTempC,
		"temperature", res.Temperature,
		"volume_ml", params.VolumePerCupML,
	)

	p.phase(PhaseGating)
	refilled, err := p.gate.CheckAndGate(ctx, cups, params.VolumePerCupML)
	if err != nil {
		return res, fmt.Errorf("brew: waiting for refill: %w", err)
	}
	res.Refilled = refilled

	req := p.gate.Requirement(cups, params.VolumePerCupML)
	l := p.gate.Ledger()
	if !l.Covers(req) {
		return res, fmt.Errorf("brew: %w: need %.0fml/%.0fg, have %.0fml/%.0fg",
			ledger.ErrInsufficient, req.WaterML, req.BeansG, l.WaterML, l.BeansG)
	}

	p.phase(PhaseStarting)
	p.start(params)

	p.phase(PhaseHeating)
	p.heat(params.DesiredTempC)

	p.phase(PhaseReleasing)
	screen.Show(p.disp, screen.At(1, 0, "RELEASING BEANS..."))
	p.act.MoveGrainGate()

	p.phase(PhaseGrinding)
	screen.Show(p.disp, screen.At(1, 0, "GRINDING ..."))
	p.act.RunGrinder(p.cfg.GrindDuration, device.Clockwise)

	p.phase(PhaseExtracting)
	p.showSummary(cups, params, res)
	p.act.MoveGroundsGate(p.cfg.ExtractionGateAngle)
	p.clk.Sleep(res.Extraction)
	p.act.MoveGroundsGate(0)

	if err := l.Consume(req); err != nil {
		p.log.Error("ledger update failed", "error", err)
		p.act.SetBrewLED(false)
		p.act.Tone(device.ToneError)
		return res, fmt.Errorf("brew: %w", err)
	}
	p.finish()
	res.Consumed = req
	res.Remaining = *l

	p.phase(PhaseDone)
	res.Finished = p.clk.Now()
	p.log.Info("brew complete",
		"cups", cups,
		"water_ml", l.WaterML,
		"beans_g", l.BeansG,
		"took", res.Finished.Sub(res.Started),
	)
	return res, nil
}

func (p *Procedure) start(params Params) {
	p.act.SetBrewLED(true)
	p.act.Tone(device.ToneBrewStart)
	screen.Show(p.disp, screen.At(0, 0, "STARTING PROCESS ..."))
	for pct := 0; pct <= 80; pct += 10 {
		screen.PrintAt(p.disp, 2, 0, screen.ProgressBar(pct, 10))
		p.clk.Sleep(p.cfg.ProgressStepDelay)
	}
	p.act.ShowIntensityBar(params.IntensityPct)
	p.log.Debug("intensity bar", "segments", BarSegments(params.IntensityPct, p.cfg.BarSegments))
}

func (p *Procedure) heat(target float64) {
	screen.Show(p.disp, screen.At(0, 0, "HEATING WATER..."))
	for _, t := range HeatingRamp(p.cfg.HeatingBaseC, p.cfg.HeatingStepC, target) {
		screen.PrintAt(p.disp, 2, 0, fmt.Sprintf("TEMP: %5.1fC", t))
		p.clk.Sleep(p.cfg.HeatingStepDelay)
	}
	screen.Show(p.disp, screen.At(1, 4, "WATER READY!"))
	p.clk.Sleep(p.cfg.Hold)
}

func (p *Procedure) showSummary(cups int, params Params, res Result) {
	amount := fmt.Sprintf("1 CUP OF %d ML", params.VolumePerCupML)
	if cups > 1 {
		amount = fmt.Sprintf("%d CUPS OF %d ML", cups, params.VolumePerCupML)
	}
	screen.Show(p.disp,
		screen.At(0, 0, "BREWING COFFEE:"+res.Temperature.String()),
		screen.At(1, 0, amount),
		screen.At(2, 0, "INTENSITY: "+res.Intensity.String()),
		screen.At(3, 0, fmt.Sprintf("TEMP: %.1fC", params.DesiredTempC)),
	)
}

func (p *Procedure) finish() {
	screen.Show(p.disp,
		screen.At(1, 2, "COFFEE IS READY!"),
		screen.At(2, 5, "GRAB IT!"),
	)
	p.act.Tone(device.ToneReady)
	p.act.FlashBar(p.cfg.FlashTimes, p.cfg.FlashInterval)
	p.act.SetBrewLED(false)
	p.clk.Sleep(p.cfg.Hold)
}
