// Package mqtt publishes appliance and system events to an MQTT broker and
// feeds remote keys received from the broker into the appliance.
package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/brewer/internal/appliance"
	"github.com/sweeney/brewer/internal/device"
)

// ErrNotConnected is returned when publishing while offline with no buffer.
var ErrNotConnected = errors.New("mqtt: not connected")

// Topics are the MQTT topics used under a prefix.
type Topics struct {
	Events    string
	System    string
	RemoteKey string
}

// TopicsFor returns the topics under prefix, e.g. "kitchen/coffee/events".
func TopicsFor(prefix string) Topics {
	prefix = strings.TrimSuffix(prefix, "/")
	return Topics{
		Events:    prefix + "/events",
		System:    prefix + "/system",
		RemoteKey: prefix + "/remote/key",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an appliance event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event appliance.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// KeySink accepts remote keys received from the broker.
type KeySink interface {
	Put(k device.Key)
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Coffee CoffeePayload `json:"coffee"`
}

// CoffeePayload contains the appliance event details.
type CoffeePayload struct {
	Timestamp string           `json:"timestamp"`
	Event     string           `json:"event"`
	State     string           `json:"state"`
	Ledger    LedgerPayload    `json:"ledger"`
	Previous  string           `json:"previous,omitempty"`
	Key       string           `json:"key,omitempty"`
	Cups      int              `json:"cups,omitempty"`
	StartNow  *bool            `json:"start_now,omitempty"`
	Phase     string           `json:"phase,omitempty"`
	Brew      *BrewPayload     `json:"brew,omitempty"`
	Need      *LedgerPayload   `json:"need,omitempty"`
	Schedule  *SchedulePayload `json:"schedule,omitempty"`
	Clock     string           `json:"clock,omitempty"`
	Ambient   *AmbientPayload  `json:"ambient,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// LedgerPayload is a water/bean quantity.
type LedgerPayload struct {
	WaterML float64 `json:"water_ml"`
	BeansG  float64 `json:"beans_g"`
}

// BrewPayload summarises a finished brew.
type BrewPayload struct {
	IntensityPct int     `json:"intensity_pct"`
	Intensity    string  `json:"intensity"`
	TempC        float64 `json:"temp_c"`
	Temperature  string  `json:"temperature"`
	VolumeML     int     `json:"volume_ml"`
	ExtractionMs int64   `json:"extraction_ms"`
	Refilled     bool    `json:"refilled"`
	DurationMs   int64   `json:"duration_ms"`
}

// SchedulePayload is a scheduled brew time.
type SchedulePayload struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// AmbientPayload is a room reading.
type AmbientPayload struct {
	TempC       float64 `json:"temp_c"`
	HumidityPct float64 `json:"humidity_pct"`
}

// FormatPayload creates the JSON payload for an appliance event.
func FormatPayload(event appliance.Event) ([]byte, error) {
	p := CoffeePayload{
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(event.Type),
		State:     event.State.String(),
		Ledger:    LedgerPayload{WaterML: event.Ledger.WaterML, BeansG: event.Ledger.BeansG},
	}

	switch event.Type {
	case appliance.EventStateChanged:
		p.Previous = event.Previous.String()
	case appliance.EventInvalidKey:
		p.Key = string(event.Key)
	case appliance.EventBrewStarted, appliance.EventBrewFailed:
		startNow := event.Request.StartNow
		p.Cups = event.Request.Cups
		p.StartNow = &startNow
		p.Error = event.Err
	case appliance.EventBrewPhase:
		p.Phase = string(event.Phase)
	case appliance.EventBrewCompleted:
		p.Cups = event.Request.Cups
		if r := event.Brew; r != nil {
			p.Cups = r.Cups
			p.Brew = &BrewPayload{
				IntensityPct: r.Params.IntensityPct,
				Intensity:    r.Intensity.String(),
				TempC:        r.Params.DesiredTempC,
				Temperature:  r.Temperature.String(),
				VolumeML:     r.Params.VolumePerCupML,
				ExtractionMs: r.Extraction.Milliseconds(),
				Refilled:     r.Refilled,
				DurationMs:   r.Finished.Sub(r.Started).Milliseconds(),
			}
		}
	case appliance.EventRefillRequired:
		p.Need = &LedgerPayload{WaterML: event.Need.WaterML, BeansG: event.Need.BeansG}
	case appliance.EventScheduleSet, appliance.EventScheduleRejected:
		s := event.Schedule
		p.Schedule = &SchedulePayload{
			Date: fmt.Sprintf("%02d/%02d", s.Day, s.Month),
			Time: fmt.Sprintf("%02d:%02d", s.Hour, s.Minute),
		}
		if event.Type == appliance.EventScheduleRejected {
			p.Clock = event.Clock.String()
		}
	case appliance.EventAmbient:
		p.Ambient = &AmbientPayload{TempC: event.Ambient.TempC, HumidityPct: event.Ambient.HumidityPct}
	case appliance.EventSensorFault:
		p.Error = event.Err
	}

	return json.Marshal(Payload{Coffee: p})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// ParseKeyPayload parses a remote key message body, e.g. "PLAY" or "3".
func ParseKeyPayload(payload []byte) (device.Key, bool) {
	return device.ParseKey(strings.TrimSpace(string(payload)))
}
