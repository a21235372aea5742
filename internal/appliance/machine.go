package appliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/sweeney/brewer/internal/brew"
	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/ledger"
	"github.com/sweeney/brewer/internal/logging"
	"github.com/sweeney/brewer/internal/schedule"
	"github.com/sweeney/brewer/internal/screen"
)

// Config holds the appliance tunables.
type Config struct {
	// Poll is the dispatch cadence of Run.
	Poll         time.Duration
	MaxCups      int
	Full         ledger.Ledger
	BeansPerCupG float64
	RefillPoll   time.Duration
	// MessageHold is how long transient notices stay on screen.
	MessageHold time.Duration
	// AmbientAlertInterval is the minimum gap between sensor-fault tones.
	AmbientAlertInterval time.Duration
	Match                schedule.MatchMode
	Schedule             schedule.Config
	Brew                 brew.Config
}

// Deps are the gateways and shared state the machine drives.
type Deps struct {
	Sensors   device.Sensors
	Actuators device.Actuators
	Display   device.Display
	Keys      device.KeySource
	Clock     clock.Clock
	Logger    *logging.Logger
	// Ledger is the starting reserve; nil means a full tank.
	Ledger *ledger.Ledger
}

// Machine is the lifecycle controller. It is not safe for concurrent use:
// Dispatch and Run must be called from a single goroutine.
type Machine struct {
	cfg     Config
	sensors device.Sensors
	act     device.Actuators
	disp    device.Display
	keys    device.KeySource
	clk     clock.Clock
	log     *logging.Logger

	ledger *ledger.Ledger
	gate   *ledger.Gate
	proc   *brew.Procedure
	sched  *schedule.Configurator
	sinks  []EventSink

	faultLimiter *rate.Limiter

	state         State
	greetingShown bool
	rendered      State
	request       BrewRequest
	scheduled     schedule.Time
	lastAmbient   device.Ambient
	ambientOK     bool
}

// New creates a Machine in the Greeting state.
func New(cfg Config, d Deps, sinks ...EventSink) *Machine {
	l := d.Ledger
	if l == nil {
		full := cfg.Full
		l = &full
	}
	limit := rate.Inf
	if cfg.AmbientAlertInterval > 0 {
		limit = rate.Every(cfg.AmbientAlertInterval)
	}

	m := &Machine{
		cfg:          cfg,
		sensors:      d.Sensors,
		act:          d.Actuators,
		disp:         d.Display,
		keys:         d.Keys,
		clk:          d.Clock,
		log:          d.Logger.With("component", "appliance"),
		ledger:       l,
		sinks:        sinks,
		faultLimiter: rate.NewLimiter(limit, 1),
		state:        Greeting,
		rendered:     stateNone,
	}

	m.gate = ledger.NewGate(l, ledger.GateConfig{
		Full:         cfg.Full,
		BeansPerCupG: cfg.BeansPerCupG,
		Poll:         cfg.RefillPoll,
		Hold:         cfg.MessageHold,
	}, d.Actuators, d.Display, d.Keys, d.Clock, d.Logger)
	m.gate.OnShortfall = func(s ledger.Shortfall) {
		m.emit(Event{Type: EventRefillRequired, Need: s.Need})
	}
	m.gate.OnRefill = func(ledger.Ledger) {
		m.emit(Event{Type: EventRefillCompleted})
	}

	m.proc = brew.NewProcedure(cfg.Brew, d.Sensors, d.Actuators, d.Display, m.gate, d.Clock, d.Logger)
	m.proc.OnPhase = func(p brew.Phase) {
		m.emit(Event{Type: EventBrewPhase, Phase: p})
	}

	m.sched = schedule.NewConfigurator(cfg.Schedule, d.Sensors, d.Keys, d.Display, d.Clock, d.Logger)
	m.sched.OnReject = func(candidate schedule.Time, now device.DateTime) {
		m.emit(Event{Type: EventScheduleRejected, Schedule: candidate, Clock: now})
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Request returns the pending brew request.
func (m *Machine) Request() BrewRequest { return m.request }

// Scheduled returns the schedule the Waiting state is matching against.
func (m *Machine) Scheduled() schedule.Time { return m.scheduled }

// Ledger returns a copy of the current reserves.
func (m *Machine) Ledger() ledger.Ledger { return *m.ledger }

// Run plays the startup tone and dispatches every Poll until ctx is done.
func (m *Machine) Run(ctx context.Context) error {
	m.log.Info("appliance starting", "state", m.state, "poll", m.cfg.Poll)
	m.act.Tone(device.ToneSuccess)
	for {
		if err := ctx.Err(); err != nil {
			m.act.SetStatusLED(false)
			m.log.Info("appliance stopped", "state", m.state)
			return err
		}
		m.Dispatch(ctx)
		m.clk.Sleep(m.cfg.Poll)
	}
}

// Dispatch performs one step of the current state. Only Brewing and
// Scheduling block for longer than a poll.
func (m *Machine) Dispatch(ctx context.Context) {
	switch m.state {
	case Greeting:
		m.greeting()
	case SelectCups:
		m.selectCups()
	case ChooseTiming:
		m.chooseTiming()
	case Brewing:
		m.brewing(ctx)
	case Scheduling:
		m.scheduling(ctx)
	case Waiting:
		m.waiting()
	default:
		m.log.Warn("unknown state, resetting", "state", int(m.state))
		m.transition(Greeting)
	}
}

func (m *Machine) transition(to State) {
	prev := m.state
	m.state = to
	m.rendered = stateNone
	m.greetingShown = false
	m.log.Info("state changed", "from", prev, "to", to)
	m.emit(Event{Type: EventStateChanged, Previous: prev})
}

func (m *Machine) emit(e Event) {
	e.Timestamp = m.clk.Now()
	e.State = m.state
	e.Ledger = *m.ledger
	for _, s := range m.sinks {
		if err := s.Publish(e); err != nil {
			m.log.Error("event publish failed", "event", e.Type, "error", err)
		}
	}
}

// renderOnce reports whether the prompt for the current state still needs
// drawing, and marks it drawn.
func (m *Machine) renderOnce() bool {
	if m.rendered == m.state {
		return false
	}
	m.rendered = m.state
	return true
}

func (m *Machine) greeting() {
	if !m.greetingShown {
		m.act.SetStatusLED(true)
		screen.Show(m.disp,
			screen.At(0, 0, " IT'S COFFEE TIME!"),
			screen.At(2, 0, m.ledger.StatusLine()),
		)
		m.greetingShown = true
	}
	m.refreshClock()
	m.refreshAmbient()

	k, ok := m.keys.Take()
	if !ok {
		return
	}
	if k != device.KeyPlay {
		m.log.Debug("key ignored", "state", m.state, "key", k)
		return
	}
	m.transition(SelectCups)
}

func (m *Machine) refreshClock() {
	now := m.sensors.ReadClock()
	screen.PrintAt(m.disp, 3, 15, now.HHMM())
}

func (m *Machine) refreshAmbient() {
	a, err := m.sensors.ReadAmbient()
	if err != nil {
		screen.PrintAt(m.disp, 3, 0, fmt.Sprintf("%-14s", "Error!"))
		m.ambientOK = false
		if m.faultLimiter.AllowN(m.clk.Now(), 1) {
			m.log.Warn("ambient sensor fault", "error", err)
			m.act.Tone(device.ToneError)
			m.emit(Event{Type: EventSensorFault, Err: err.Error()})
		}
		return
	}
	screen.PrintAt(m.disp, 3, 0, fmt.Sprintf("%-14s", fmt.Sprintf("%.1fC|H:%.1f%%", a.TempC, a.HumidityPct)))
	if !m.ambientOK || a != m.lastAmbient {
		m.lastAmbient = a
		m.ambientOK = true
		m.emit(Event{Type: EventAmbient, Ambient: a})
	}
}

func (m *Machine) selectCups() {
	if m.renderOnce() {
		screen.Show(m.disp,
			screen.At(0, 0, "HOW MANY CUPS?"),
			screen.At(2, 0, fmt.Sprintf("- FROM 1 TO %d", m.cfg.MaxCups)),
			screen.At(3, 0, "- 0 TO EXIT"),
		)
	}

	k, ok := m.keys.Take()
	if !ok {
		return
	}
	d, isDigit := k.Digit()
	switch {
	case isDigit && d == 0:
		m.transition(Greeting)
	case isDigit && d >= 1 && d <= m.cfg.MaxCups:
		m.request = BrewRequest{Cups: d}
		m.log.Info("cups selected", "cups", d)
		m.transition(ChooseTiming)
	default:
		m.log.Debug("invalid cup key", "key", k)
		screen.Show(m.disp,
			screen.At(0, 0, "INVALID KEY"),
			screen.At(2, 0, fmt.Sprintf("PLEASE SELECT 1 TO %d", m.cfg.MaxCups)),
		)
		m.emit(Event{Type: EventInvalidKey, Key: k})
		m.clk.Sleep(m.cfg.MessageHold)
		m.rendered = stateNone
	}
}

func (m *Machine) chooseTiming() {
	if m.renderOnce() {
		screen.Show(m.disp,
			screen.At(0, 0, "START TIME:"),
			screen.At(2, 0, "1-NOW"),
			screen.At(3, 0, "2-SCHEDULE"),
		)
	}

	k, ok := m.keys.Take()
	if !ok {
		return
	}
	switch k {
	case device.Key1:
		m.request.StartNow = true
		m.transition(Brewing)
	case device.Key2:
		m.request.StartNow = false
		m.transition(Scheduling)
	default:
		m.log.Debug("key ignored", "state", m.state, "key", k)
	}
}

func (m *Machine) brewing(ctx context.Context) {
	req := m.request
	m.scheduled = schedule.Time{}
	m.emit(Event{Type: EventBrewStarted, Request: req})

	res, err := m.proc.Run(ctx, req.Cups)
	switch {
	case err == nil:
		m.emit(Event{Type: EventBrewCompleted, Request: req, Brew: &res})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		m.log.Info("brew interrupted by shutdown")
		m.emit(Event{Type: EventBrewFailed, Request: req, Err: err.Error()})
	default:
		m.log.Error("brew failed", "error", err)
		m.emit(Event{Type: EventBrewFailed, Request: req, Err: err.Error()})
	}
	m.request = BrewRequest{}
	m.transition(Greeting)
}

func (m *Machine) scheduling(ctx context.Context) {
	t := m.sched.Run(ctx)
	if !t.Valid {
		m.emit(Event{Type: EventScheduleAbandoned})
		m.request = BrewRequest{}
		m.transition(Greeting)
		return
	}
	m.scheduled = t
	m.emit(Event{Type: EventScheduleSet, Schedule: t})
	m.transition(Waiting)
}

func (m *Machine) waiting() {
	if m.renderOnce() {
		screen.Show(m.disp,
			screen.At(0, 0, "WAITING TO BREW"),
			screen.At(2, 0, fmt.Sprintf("DATE: %02d/%02d", m.scheduled.Day, m.scheduled.Month)),
			screen.At(3, 0, fmt.Sprintf("TIME: %02d:%02d", m.scheduled.Hour, m.scheduled.Minute)),
		)
	}
	// Keys pressed while waiting are discarded.
	m.keys.Take()

	now := m.sensors.ReadClock()
	screen.PrintAt(m.disp, 0, 15, now.HHMM())
	if schedule.Due(m.scheduled, now, m.cfg.Match) {
		m.log.Info("scheduled brew due", "at", m.scheduled.String(), "now", now.String())
		m.transition(Brewing)
	}
}
