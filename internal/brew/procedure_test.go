package brew

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/brewer/internal/board"
	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/gpio"
	"github.com/sweeney/brewer/internal/keys"
	"github.com/sweeney/brewer/internal/ledger"
	"github.com/sweeney/brewer/internal/logging"
)

var (
	fullTank = ledger.Ledger{WaterML: 1000, BeansG: 250}
	profile  = Config{
		HeatingBaseC:           25,
		HeatingStepC:           2.5,
		HeatingStepDelay:       400 * time.Millisecond,
		ExtractionBase:         5000 * time.Millisecond,
		ExtractionPerIntensity: 20 * time.Millisecond,
		ExtractionGateAngle:    45,
		GrindDuration:          5 * time.Second,
		BarSegments:            10,
		FlashTimes:             3,
		FlashInterval:          300 * time.Millisecond,
		ProgressStepDelay:      300 * time.Millisecond,
		Hold:                   time.Second,
	}
	t0 = time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)
)

type fixture struct {
	ledger  *ledger.Ledger
	sensors *board.FakeSensors
	act     *gpio.FakeActuators
	disp    *board.FakeDisplay
	keys    *keys.Script
	clk     *clock.Fake
	proc    *Procedure
	phases  []Phase
}

func newFixture(start ledger.Ledger, script ...device.Key) *fixture {
	l := start
	f := &fixture{
		ledger:  &l,
		sensors: board.NewFakeSensors(),
		act:     gpio.NewFakeActuators(),
		disp:    board.NewFakeDisplay(),
		keys:    keys.NewScript(script...),
		clk:     clock.NewFake(t0),
	}
	gate := ledger.NewGate(f.ledger, ledger.GateConfig{
		Full:         fullTank,
		BeansPerCupG: 10,
		Poll:         200 * time.Millisecond,
		Hold:         time.Second,
	}, f.act, f.disp, f.keys, f.clk, logging.Discard())
	f.proc = NewProcedure(profile, f.sensors, f.act, f.disp, gate, f.clk, logging.Discard())
	f.proc.OnPhase = func(p Phase) { f.phases = append(f.phases, p) }
	return f
}

func TestRunThreeCups(t *testing.T) {
	f := newFixture(fullTank)

	res, err := f.proc.Run(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, ledger.Ledger{WaterML: 700, BeansG: 220}, *f.ledger)
	assert.Equal(t, ledger.Requirement{WaterML: 300, BeansG: 30}, res.Consumed)
	assert.Equal(t, *f.ledger, res.Remaining)
	assert.False(t, res.Refilled)
	assert.Equal(t, Medium, res.Intensity)
	assert.Equal(t, Hot, res.Temperature)
	assert.Equal(t, 4*time.Second, res.Extraction)

	assert.Equal(t, []string{
		"brew_led:on",
		"tone:brew-start",
		"bar:50",
		"grain_gate",
		"grinder:5s:cw",
		"grounds_gate:45",
		"grounds_gate:0",
		"tone:ready",
		"flash:3x300ms",
		"brew_led:off",
	}, f.act.Calls)
	assert.False(t, f.act.BrewLED)

	assert.Equal(t, []Phase{
		PhaseGating, PhaseStarting, PhaseHeating, PhaseReleasing,
		PhaseGrinding, PhaseExtracting, PhaseDone,
	}, f.phases)

	assert.True(t, f.disp.Saw("STARTING PROCESS ..."))
	assert.True(t, f.disp.Saw("[########  ] 80%"))
	assert.True(t, f.disp.Saw("TEMP:  90.0C"))
	assert.False(t, f.disp.Saw("TEMP:  92.5C"))
	assert.True(t, f.disp.Saw("WATER READY!"))
	assert.True(t, f.disp.Saw("3 CUPS OF 100 ML"))
	assert.True(t, f.disp.Saw("INTENSITY: MEDIUM"))
	assert.True(t, f.disp.Saw("BREWING COFFEE:HOT"))
	assert.Equal(t, "COFFEE IS READY!", trimRow(f.disp.Row(1)))
	assert.Equal(t, "GRAB IT!", trimRow(f.disp.Row(2)))

	// progress 9×300ms, heating 27×400ms, two holds, extraction 4s
	want := 9*300*time.Millisecond + 27*400*time.Millisecond + 2*time.Second + 4*time.Second
	assert.Equal(t, want, f.clk.Slept())
	assert.Equal(t, t0.Add(want), res.Finished)
}

func TestRunSingleCupWording(t *testing.T) {
	f := newFixture(fullTank)
	f.sensors.Volume = 150
	f.sensors.Intensity = 90
	f.sensors.DesiredTemp = 95

	res, err := f.proc.Run(context.Background(), 1)
	require.NoError(t, err)

	assert.True(t, f.disp.Saw("1 CUP OF 150 ML"))
	assert.True(t, f.disp.Saw("BREWING COFFEE:HOT++"))
	assert.Equal(t, Strong, res.Intensity)
	assert.Contains(t, f.act.Calls, "bar:90")
	assert.Equal(t, 3200*time.Millisecond, res.Extraction)
	assert.Equal(t, ledger.Ledger{WaterML: 850, BeansG: 240}, *f.ledger)
}

func TestRunRefillsFirstWhenShort(t *testing.T) {
	low := ledger.Ledger{WaterML: 250, BeansG: 250}
	f := newFixture(low, "", "", device.KeyPlay)

	res, err := f.proc.Run(context.Background(), 3)
	require.NoError(t, err)

	assert.True(t, res.Refilled)
	assert.Equal(t, ledger.Ledger{WaterML: 700, BeansG: 220}, *f.ledger)
	assert.Equal(t, 1, f.act.CountTones(device.ToneAlert))
	assert.Equal(t, "alert_led:on", f.act.Calls[0])
	assert.Contains(t, f.act.Calls, "brew_led:on")
}

func TestRunBatchLargerThanFullTanksNeverActuates(t *testing.T) {
	f := newFixture(fullTank, "", device.KeyPlay)
	f.sensors.Volume = 200

	res, err := f.proc.Run(context.Background(), 9)
	require.ErrorIs(t, err, ledger.ErrInsufficient)
	assert.True(t, res.Refilled)

	assert.Equal(t, []Phase{PhaseGating}, f.phases)
	assert.Equal(t, fullTank, *f.ledger)
	assert.NotContains(t, f.act.Calls, "brew_led:on")
	assert.NotContains(t, f.act.Calls, "grain_gate")
	assert.Equal(t, 0, f.act.CountTones(device.ToneReady))
	assert.False(t, f.disp.Saw("COFFEE IS READY!"))
}

func TestRunCancelledWhileGated(t *testing.T) {
	f := newFixture(ledger.Ledger{WaterML: 0, BeansG: 0})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.proc.Run(ctx, 2)
	require.ErrorIs(t, err, context.Canceled)

	assert.NotContains(t, f.act.Calls, "brew_led:on")
	assert.Equal(t, ledger.Ledger{}, *f.ledger)
	assert.Equal(t, []Phase{PhaseGating}, f.phases)
}

func TestSampleReadsEverySetting(t *testing.T) {
	s := board.NewFakeSensors()
	s.Intensity, s.DesiredTemp, s.Volume = 12, 87.5, 60

	assert.Equal(t, Params{IntensityPct: 12, DesiredTempC: 87.5, VolumePerCupML: 60}, Sample(s))
}

func trimRow(s string) string {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return s[i:]
}
