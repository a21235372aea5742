// Package telemetry records appliance events as InfluxDB points.
//
// Writes are non-blocking and batched by the client; failures surface on the
// write API's error channel and are logged, never returned to the appliance.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sweeney/brewer/internal/appliance"
	"github.com/sweeney/brewer/internal/config"
	"github.com/sweeney/brewer/internal/logging"
)

var (
	// ErrDisabled indicates telemetry is disabled in config.
	ErrDisabled = errors.New("telemetry: disabled in configuration")

	// ErrConnectionFailed indicates the initial ping failed.
	ErrConnectionFailed = errors.New("telemetry: connection failed")
)

const (
	connectTimeout        = 10 * time.Second
	millisecondsPerSecond = 1000
)

// Measurements written.
const (
	MeasurementEvent   = "coffee_event"
	MeasurementBrew    = "coffee_brew"
	MeasurementAmbient = "coffee_ambient"
)

// PointWriter is the subset of the InfluxDB write API the recorder uses.
type PointWriter interface {
	WritePoint(point *write.Point)
	Flush()
}

// Recorder is an appliance event sink that writes points to InfluxDB.
type Recorder struct {
	writer PointWriter
	close  func()
	log    *logging.Logger
}

// NewRecorder wraps an existing writer. Connect is the usual constructor.
func NewRecorder(w PointWriter, log *logging.Logger) *Recorder {
	return &Recorder{writer: w, log: log}
}

// Connect creates the InfluxDB client, pings it and starts the async
// error logger. It returns ErrDisabled when telemetry is off.
func Connect(cfg config.InfluxDBConfig, log *logging.Logger) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)*millisecondsPerSecond),
	)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)
	go func() {
		for err := range writeAPI.Errors() {
			log.Error("influxdb write failed", "error", err)
		}
	}()

	r := NewRecorder(writeAPI, log)
	r.close = client.Close
	return r, nil
}

// Publish writes the points for one appliance event. It never fails.
func (r *Recorder) Publish(e appliance.Event) error {
	for _, p := range Points(e) {
		r.writer.WritePoint(p)
	}
	return nil
}

// Close flushes pending points and closes the client.
func (r *Recorder) Close() error {
	r.writer.Flush()
	if r.close != nil {
		r.close()
	}
	return nil
}

// Points maps an appliance event to InfluxDB points. Every event yields a
// coffee_event point; completed brews and ambient readings add their own.
func Points(e appliance.Event) []*write.Point {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	points := []*write.Point{
		write.NewPoint(MeasurementEvent,
			map[string]string{
				"event": string(e.Type),
				"state": e.State.String(),
			},
			map[string]interface{}{
				"water_ml": e.Ledger.WaterML,
				"beans_g":  e.Ledger.BeansG,
			},
			ts),
	}

	switch e.Type {
	case appliance.EventBrewCompleted:
		if r := e.Brew; r != nil {
			points = append(points, write.NewPoint(MeasurementBrew,
				map[string]string{
					"intensity":   r.Intensity.String(),
					"temperature": r.Temperature.String(),
				},
				map[string]interface{}{
					"cups":          r.Cups,
					"intensity_pct": r.Params.IntensityPct,
					"temp_c":        r.Params.DesiredTempC,
					"volume_ml":     r.Params.VolumePerCupML,
					"extraction_ms": r.Extraction.Milliseconds(),
					"duration_ms":   r.Finished.Sub(r.Started).Milliseconds(),
					"refilled":      r.Refilled,
					"water_used_ml": r.Consumed.WaterML,
					"beans_used_g":  r.Consumed.BeansG,
				},
				ts))
		}
	case appliance.EventAmbient:
		points = append(points, write.NewPoint(MeasurementAmbient,
			nil,
			map[string]interface{}{
				"temp_c":       e.Ambient.TempC,
				"humidity_pct": e.Ambient.HumidityPct,
			},
			ts))
	}
	return points
}
