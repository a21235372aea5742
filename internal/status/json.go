package status

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/brewer/internal/device"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	State         string        `json:"state"`
	Phase         string        `json:"phase,omitempty"`
	Ready         bool          `json:"ready"`
	Ledger        LedgerJSON    `json:"ledger"`
	Request       *RequestJSON  `json:"request,omitempty"`
	Scheduled     *ScheduleJSON `json:"scheduled,omitempty"`
	Ambient       *AmbientJSON  `json:"ambient,omitempty"`
	LastBrew      *LastBrewJSON `json:"last_brew,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Keys          KeysJSON      `json:"remote_keys"`
	Counts        CountsJSON    `json:"event_counts"`
	Config        ConfigJSON    `json:"config"`
}

// LedgerJSON is the water and bean reserve.
type LedgerJSON struct {
	WaterML float64 `json:"water_ml"`
	BeansG  float64 `json:"beans_g"`
	Line    string  `json:"line"`
}

// RequestJSON is the confirmed brew order.
type RequestJSON struct {
	Cups     int  `json:"cups"`
	StartNow bool `json:"start_now"`
}

// ScheduleJSON is the pending scheduled brew.
type ScheduleJSON struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// AmbientJSON is the last good room reading.
type AmbientJSON struct {
	TempC       float64 `json:"temp_c"`
	HumidityPct float64 `json:"humidity_pct"`
	OK          bool    `json:"ok"`
}

// LastBrewJSON summarises the most recent brew.
type LastBrewJSON struct {
	Cups        int     `json:"cups"`
	Intensity   string  `json:"intensity"`
	Temperature string  `json:"temperature"`
	TempC       float64 `json:"temp_c"`
	VolumeML    int     `json:"volume_ml"`
	Finished    string  `json:"finished"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// KeysJSON reports remote key cell counters.
type KeysJSON struct {
	Received    uint64 `json:"received"`
	Overwritten uint64 `json:"overwritten"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Brews           int `json:"brews"`
	Cups            int `json:"cups"`
	BrewFailures    int `json:"brew_failures"`
	Refills         int `json:"refills"`
	InvalidKeys     int `json:"invalid_keys"`
	SchedulesSet    int `json:"schedules_set"`
	SchedulesMissed int `json:"schedules_missed"`
	SensorFaults    int `json:"sensor_faults"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	MaxCups     int    `json:"max_cups"`
	Match       string `json:"match"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	BoardPort   string `json:"board_port"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State: snap.State.String(),
		Phase: string(snap.Phase),
		Ready: snap.Ready,
		Ledger: LedgerJSON{
			WaterML: snap.Ledger.WaterML,
			BeansG:  snap.Ledger.BeansG,
			Line:    snap.Ledger.StatusLine(),
		},
		LastError:     snap.LastError,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Keys:          KeysJSON{Received: snap.KeysReceived, Overwritten: snap.KeysDropped},
		Counts: CountsJSON{
			Brews:           snap.Counts.Brews,
			Cups:            snap.Counts.Cups,
			BrewFailures:    snap.Counts.BrewFailures,
			Refills:         snap.Counts.Refills,
			InvalidKeys:     snap.Counts.InvalidKeys,
			SchedulesSet:    snap.Counts.SchedulesSet,
			SchedulesMissed: snap.Counts.SchedulesMissed,
			SensorFaults:    snap.Counts.SensorFaults,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			MaxCups:     snap.Config.MaxCups,
			Match:       snap.Config.Match,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			BoardPort:   snap.Config.BoardPort,
		},
	}

	if snap.Request.Cups > 0 {
		inner.Request = &RequestJSON{Cups: snap.Request.Cups, StartNow: snap.Request.StartNow}
	}
	if snap.Scheduled.Valid {
		inner.Scheduled = &ScheduleJSON{
			Date: fmt.Sprintf("%02d/%02d", snap.Scheduled.Day, snap.Scheduled.Month),
			Time: fmt.Sprintf("%02d:%02d", snap.Scheduled.Hour, snap.Scheduled.Minute),
		}
	}
	if snap.AmbientOK || snap.Ambient != (device.Ambient{}) {
		inner.Ambient = &AmbientJSON{
			TempC:       snap.Ambient.TempC,
			HumidityPct: snap.Ambient.HumidityPct,
			OK:          snap.AmbientOK,
		}
	}
	if lb := snap.LastBrew; lb != nil {
		inner.LastBrew = &LastBrewJSON{
			Cups:        lb.Cups,
			Intensity:   lb.Intensity,
			Temperature: lb.Temperature,
			TempC:       lb.TempC,
			VolumeML:    lb.VolumeML,
			Finished:    lb.Finished.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
