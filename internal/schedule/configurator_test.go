package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/brewer/internal/board"
	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/keys"
	"github.com/sweeney/brewer/internal/logging"
)

var testConfig = Config{
	DayTimeout:    30 * time.Second,
	DigitTimeout:  30 * time.Second,
	RejectTimeout: 2 * time.Minute,
	Poll:          100 * time.Millisecond,
	Hold:          time.Second,
}

type fixture struct {
	sensors *board.FakeSensors
	disp    *board.FakeDisplay
	keys    *keys.Script
	clk     *clock.Fake
	cfg     *Configurator
}

func newFixture(now device.DateTime, script ...device.Key) *fixture {
	f := &fixture{
		sensors: board.NewFakeSensors(),
		disp:    board.NewFakeDisplay(),
		keys:    keys.NewScript(script...),
		clk:     clock.NewFake(time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)),
	}
	f.sensors.SetClock(now)
	f.cfg = NewConfigurator(testConfig, f.sensors, f.keys, f.disp, f.clk, logging.Discard())
	return f
}

var morning = device.DateTime{Year: 2026, Month: 6, Day: 10, Hour: 8, Minute: 0}

func TestRunTodayAccepted(t *testing.T) {
	f := newFixture(morning, device.KeyMinus, device.Key0, device.Key8, device.Key0, device.Key1)

	got := f.cfg.Run(context.Background())

	assert.Equal(t, Time{Day: 10, Month: 6, Hour: 8, Minute: 1, Valid: true}, got)
	assert.Equal(t, EntryConfirmed, f.cfg.State())
	assert.Equal(t, "COFFEE SCHEDULED!", f.disp.Row(0))
	assert.Equal(t, "DATE: 10/06", f.disp.Row(2))
	assert.Equal(t, "TIME: 08:01", f.disp.Row(3))
}

func TestRunTomorrowRollsMonth(t *testing.T) {
	now := device.DateTime{Year: 2026, Month: 6, Day: 30, Hour: 22, Minute: 15}
	f := newFixture(now, device.KeyPlus, device.Key0, device.Key6, device.Key4, device.Key5)

	got := f.cfg.Run(context.Background())

	assert.Equal(t, Time{Day: 1, Month: 7, Hour: 6, Minute: 45, Valid: true}, got)
	assert.True(t, f.disp.Saw("DATE CONFIRMED!"))
}

func TestRunIgnoresNonDigitKeysDuringEntry(t *testing.T) {
	f := newFixture(morning,
		device.KeyPlay, device.KeyMinus, // PLAY is not a day choice
		device.KeyEQ, device.Key1, "", device.Key2, // 12
		device.KeyNext, device.Key3, device.Key0, // 30
	)

	got := f.cfg.Run(context.Background())
	assert.Equal(t, Time{Day: 10, Month: 6, Hour: 12, Minute: 30, Valid: true}, got)
}

func TestRunClampsDigits(t *testing.T) {
	// 2 then 7 is not a valid hour so the units clamp to 0; 8 is not a valid
	// minute tens digit so it clamps to 0.
	f := newFixture(morning, device.KeyMinus, device.Key2, device.Key7, device.Key8, device.Key8)

	got := f.cfg.Run(context.Background())
	assert.Equal(t, Time{Day: 10, Month: 6, Hour: 20, Minute: 8, Valid: true}, got)
}

func TestRunRejectedThenReset(t *testing.T) {
	f := newFixture(morning,
		device.KeyMinus, device.Key0, device.Key8, device.Key0, device.Key0, // identical → rejected
		"",          // discarded on entering the rejected state
		device.Key5, // ignored while rejected
		"",
		device.KeyPlay, // reset
		device.KeyMinus, device.Key0, device.Key9, device.Key0, device.Key0,
	)

	var rejected []Time
	f.cfg.OnReject = func(c Time, _ device.DateTime) { rejected = append(rejected, c) }

	got := f.cfg.Run(context.Background())

	require.Len(t, rejected, 1)
	assert.Equal(t, Time{Day: 10, Month: 6, Hour: 8, Minute: 0}, rejected[0])
	assert.Equal(t, Time{Day: 10, Month: 6, Hour: 9, Minute: 0, Valid: true}, got)
	assert.True(t, f.disp.Saw("Invalid Date/Time!"))
	assert.True(t, f.disp.Saw("PRESS PLAY TO RESET:"))
}

func TestRunPastTimeRejectedAndAbandoned(t *testing.T) {
	f := newFixture(morning, device.KeyMinus, device.Key0, device.Key7, device.Key5, device.Key9)

	got := f.cfg.Run(context.Background())

	assert.False(t, got.Valid)
	assert.Equal(t, EntryRejected, f.cfg.State())
	assert.GreaterOrEqual(t, f.clk.Now().Sub(time.Date(2026, 6, 10, 8, 0, 0, 0, time.UTC)), testConfig.RejectTimeout)
}

func TestRunAllTimeoutsNeverStuck(t *testing.T) {
	f := newFixture(morning)

	got := f.cfg.Run(context.Background())

	assert.False(t, got.Valid)
	assert.True(t, f.disp.Saw("NO DATE SELECTED"))
	// day timeout + four digit timeouts + reject timeout, plus notice holds.
	want := testConfig.DayTimeout + 4*testConfig.DigitTimeout + testConfig.RejectTimeout
	assert.GreaterOrEqual(t, f.clk.Slept(), want)
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(morning)
	ctx, cancel := context.WithCancel(context.Background())
	sleeps := 0
	f.clk.OnSleep = func(time.Time) {
		sleeps++
		if sleeps == 5 {
			cancel()
		}
	}

	got := f.cfg.Run(ctx)
	assert.False(t, got.Valid)
	assert.Less(t, f.clk.Slept(), testConfig.DayTimeout)
}

func TestEntryStateString(t *testing.T) {
	assert.Equal(t, "DAY", EntryDay.String())
	assert.Equal(t, "REJECTED", EntryRejected.String())
	assert.Equal(t, "UNKNOWN", EntryState(42).String())
}
