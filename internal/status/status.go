// Package status provides a thread-safe status tracker for the brewer daemon.
// It is fed by appliance events and read by HTTP handlers and the MQTT
// heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/brewer/internal/appliance"
	"github.com/sweeney/brewer/internal/brew"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/ledger"
	"github.com/sweeney/brewer/internal/schedule"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	MaxCups     int
	Match       string
	Broker      string
	HTTPAddr    string
	BoardPort   string
}

// Counts tallies appliance events since startup.
type Counts struct {
	Brews           int
	Cups            int
	BrewFailures    int
	Refills         int
	InvalidKeys     int
	SchedulesSet    int
	SchedulesMissed int
	SensorFaults    int
}

// LastBrew summarises the most recent completed brew.
type LastBrew struct {
	Cups        int
	Intensity   string
	Temperature string
	TempC       float64
	VolumeML    int
	Finished    time.Time
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	State         appliance.State
	Phase         brew.Phase
	Ledger        ledger.Ledger
	Request       appliance.BrewRequest
	Scheduled     schedule.Time
	Ambient       device.Ambient
	AmbientOK     bool
	LastError     string
	LastBrew      *LastBrew
	Counts        Counts
	Ready         bool
	StartTime     time.Time
	Now           time.Time
	LastEvent     time.Time
	MQTTConnected bool
	KeysReceived  uint64
	KeysDropped   uint64
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, config and
// starting ledger.
func NewTracker(startTime time.Time, cfg Config, l ledger.Ledger) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Ledger:    l,
		},
		now: time.Now,
	}
}

// Publish folds an appliance event into the snapshot. It never fails.
func (t *Tracker) Publish(e appliance.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.snap
	s.Ready = true
	s.LastEvent = e.Timestamp
	s.State = e.State
	s.Ledger = e.Ledger

	switch e.Type {
	case appliance.EventStateChanged:
		if e.State != appliance.Brewing {
			s.Phase = ""
		}
		if e.State == appliance.Greeting {
			s.Request = appliance.BrewRequest{}
			s.Scheduled = schedule.Time{}
		}
	case appliance.EventInvalidKey:
		s.Counts.InvalidKeys++
	case appliance.EventBrewStarted:
		s.Request = e.Request
	case appliance.EventBrewPhase:
		s.Phase = e.Phase
	case appliance.EventBrewCompleted:
		s.Counts.Brews++
		if r := e.Brew; r != nil {
			s.Counts.Cups += r.Cups
			s.LastBrew = &LastBrew{
				Cups:        r.Cups,
				Intensity:   r.Intensity.String(),
				Temperature: r.Temperature.String(),
				TempC:       r.Params.DesiredTempC,
				VolumeML:    r.Params.VolumePerCupML,
				Finished:    r.Finished,
			}
		}
	case appliance.EventBrewFailed:
		s.Counts.BrewFailures++
		s.LastError = e.Err
	case appliance.EventRefillCompleted:
		s.Counts.Refills++
	case appliance.EventScheduleSet:
		s.Counts.SchedulesSet++
		s.Scheduled = e.Schedule
	case appliance.EventScheduleRejected, appliance.EventScheduleAbandoned:
		s.Counts.SchedulesMissed++
	case appliance.EventAmbient:
		s.Ambient = e.Ambient
		s.AmbientOK = true
	case appliance.EventSensorFault:
		s.Counts.SensorFaults++
		s.AmbientOK = false
		s.LastError = e.Err
	}
	return nil
}

// MarkReady flags the control loop as running.
func (t *Tracker) MarkReady() {
	t.mu.Lock()
	t.snap.Ready = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetKeyStats records remote key cell counters.
func (t *Tracker) SetKeyStats(received, overwritten uint64) {
	t.mu.Lock()
	t.snap.KeysReceived = received
	t.snap.KeysDropped = overwritten
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.LastBrew != nil {
		lb := *s.LastBrew
		s.LastBrew = &lb
	}
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
