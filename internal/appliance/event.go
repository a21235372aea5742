package appliance

import (
	"time"

	"github.com/sweeney/brewer/internal/brew"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/ledger"
	"github.com/sweeney/brewer/internal/schedule"
)

// EventType names something the appliance did.
type EventType string

const (
	EventStateChanged      EventType = "STATE_CHANGED"
	EventInvalidKey        EventType = "INVALID_KEY"
	EventBrewStarted       EventType = "BREW_STARTED"
	EventBrewPhase         EventType = "BREW_PHASE"
	EventBrewCompleted     EventType = "BREW_COMPLETED"
	EventBrewFailed        EventType = "BREW_FAILED"
	EventRefillRequired    EventType = "REFILL_REQUIRED"
	EventRefillCompleted   EventType = "REFILL_COMPLETED"
	EventScheduleSet       EventType = "SCHEDULE_SET"
	EventScheduleRejected  EventType = "SCHEDULE_REJECTED"
	EventScheduleAbandoned EventType = "SCHEDULE_ABANDONED"
	EventAmbient           EventType = "AMBIENT"
	EventSensorFault       EventType = "SENSOR_FAULT"
)

// Event is emitted to every sink. Fields beyond Timestamp, Type, State and
// Ledger are set only for the event types that carry them.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State
	Ledger    ledger.Ledger

	Previous State              // STATE_CHANGED
	Key      device.Key         // INVALID_KEY
	Request  BrewRequest        // BREW_STARTED
	Phase    brew.Phase         // BREW_PHASE
	Brew     *brew.Result       // BREW_COMPLETED
	Need     ledger.Requirement // REFILL_REQUIRED
	Schedule schedule.Time      // SCHEDULE_*
	Clock    device.DateTime    // SCHEDULE_REJECTED
	Ambient  device.Ambient     // AMBIENT
	Err      string             // BREW_FAILED, SENSOR_FAULT
}

// EventSink receives appliance events. Errors are logged and dropped.
type EventSink interface {
	Publish(event Event) error
}

// SinkFunc adapts a function to EventSink.
type SinkFunc func(Event) error

// Publish calls f.
func (f SinkFunc) Publish(event Event) error {
	return f(event)
}
