// Command brewer runs the coffee maker: it drives the actuators and the
// companion sensor board, publishes appliance events to MQTT and serves a
// status page with remote keys.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/brewer/internal/appliance"
	"github.com/sweeney/brewer/internal/board"
	"github.com/sweeney/brewer/internal/brew"
	"github.com/sweeney/brewer/internal/clock"
	"github.com/sweeney/brewer/internal/config"
	"github.com/sweeney/brewer/internal/device"
	"github.com/sweeney/brewer/internal/gpio"
	"github.com/sweeney/brewer/internal/keys"
	"github.com/sweeney/brewer/internal/ledger"
	"github.com/sweeney/brewer/internal/logging"
	"github.com/sweeney/brewer/internal/mqtt"
	"github.com/sweeney/brewer/internal/schedule"
	"github.com/sweeney/brewer/internal/status"
	"github.com/sweeney/brewer/internal/telemetry"
	"github.com/sweeney/brewer/internal/web"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// stopTimeout bounds how long shutdown waits for an in-flight dispatch.
const stopTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (built-in defaults if empty)")
	printState := flag.Bool("print-state", false, "Print current sensor readings and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging, version)
	if err := run(cfg, *printState, logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, printState bool, logger *logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Single-slot key cell shared by the IR receiver, MQTT and HTTP.
	keyCell := &keys.Cell{}

	brd, port, err := board.Open(cfg.Board, keyCell, logger)
	if err != nil {
		return fmt.Errorf("init board: %w", err)
	}
	defer port.Close()
	go func() {
		if err := brd.Run(ctx, port); err != nil && ctx.Err() == nil {
			logger.Error("board link stopped", "error", err)
		}
	}()

	// Print state mode
	if printState {
		// Wait for the board to send a full round of frames.
		time.Sleep(cfg.Board.AmbientTTL)
		fmt.Println(describeSensors(brd))
		return nil
	}

	act, err := gpio.NewRealActuators(cfg.GPIO, clock.Real{}, logger)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer act.Close()

	full := ledger.Ledger{WaterML: cfg.Appliance.FullWaterML, BeansG: cfg.Appliance.FullBeansG}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      cfg.Loop.PollInterval.Milliseconds(),
		HeartbeatMs: cfg.Loop.Heartbeat.Milliseconds(),
		MaxCups:     cfg.Appliance.MaxCups,
		Match:       cfg.Schedule.Match,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		BoardPort:   cfg.Board.Port,
	}, full)
	sinks := []appliance.EventSink{tracker}

	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
	)
	if cfg.MQTT.Enabled {
		pub := mqtt.NewRealPublisher(cfg.MQTT, keyCell, logger)
		defer pub.Close()
		publisher, mqttStatus = pub, pub
		sinks = append(sinks, pub)
	}

	recorder, err := telemetry.Connect(cfg.InfluxDB, logger.With("component", "telemetry"))
	switch {
	case errors.Is(err, telemetry.ErrDisabled):
	case err != nil:
		logger.Warn("telemetry unavailable, continuing without it", "error", err)
	default:
		defer recorder.Close()
		sinks = append(sinks, recorder)
	}

	machine := appliance.New(applianceConfig(cfg), appliance.Deps{
		Sensors:   brd,
		Actuators: act,
		Display:   brd,
		Keys:      keyCell,
		Clock:     clock.Real{},
		Logger:    logger,
	}, sinks...)

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			logger.Warn("failed to publish startup event", "error", err)
		} else {
			logger.Info("published startup event")
		}
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(web.Options{Addr: cfg.HTTP.Addr, KeyRatePerSec: cfg.HTTP.KeyRatePerSec}, tracker, keyCell, logger.With("component", "web"))
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		logger.Info("http status server listening", "addr", cfg.HTTP.Addr)
	}

	machineDone := make(chan error, 1)
	go func() {
		machineDone <- machine.Run(ctx)
	}()
	tracker.MarkReady()

	logger.Info("started",
		"poll", cfg.Loop.PollInterval,
		"heartbeat", cfg.Loop.Heartbeat,
		"mqtt", cfg.MQTT.Enabled,
		"telemetry", recorder != nil,
	)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	loopErr := runLoop(loopDeps{
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		keys:       keyCell,
		log:        logger,
	}, cfg.Loop.Heartbeat, time.Now, ticker.C, sigCh, machineDone)

	cancel()
	select {
	case <-machineDone:
	case <-time.After(stopTimeout):
		logger.Warn("appliance did not stop in time")
	}
	return loopErr
}

// loopDeps are the collaborators of runLoop. publisher and mqttStatus may be
// nil when MQTT is disabled.
type loopDeps struct {
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	keys       interface{ Stats() (uint64, uint64) }
	log        *logging.Logger
}

// refresh pulls link and key counters into the tracker.
func (d loopDeps) refresh() {
	if d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
	if d.keys != nil {
		d.tracker.SetKeyStats(d.keys.Stats())
	}
}

func (d loopDeps) publishSystem(event mqtt.SystemEvent) error {
	if d.publisher == nil {
		return nil
	}
	return d.publisher.PublishSystem(event)
}

// runLoop supervises the appliance goroutine: it refreshes the status
// tracker on every tick, publishes heartbeats and the SHUTDOWN event, and
// returns when a signal arrives or the appliance stops on its own.
func runLoop(d loopDeps, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, machineDone <-chan error) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			d.log.Info("shutting down", "signal", s.String())
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			d.refresh()
			snap := d.tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := d.publishSystem(event); err != nil {
				d.log.Warn("failed to publish shutdown event", "error", err)
			} else if d.publisher != nil {
				d.log.Info("published shutdown event")
			}
			return nil

		case err := <-machineDone:
			if err == nil || errors.Is(err, context.Canceled) {
				return errors.New("appliance stopped unexpectedly")
			}
			return fmt.Errorf("appliance stopped: %w", err)

		case <-tick:
			t := now()
			d.refresh()

			if heartbeat <= 0 || t.Sub(lastHeartbeat) < heartbeat {
				continue
			}
			lastHeartbeat = t

			snap := d.tracker.Snapshot()
			d.log.Info("heartbeat",
				"uptime", snap.Uptime().Truncate(time.Second),
				"state", snap.State.String(),
				"brews", snap.Counts.Brews,
				"ledger", snap.Ledger.StatusLine(),
			)
			hbEvent := mqtt.SystemEvent{
				Timestamp:  t,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := d.publishSystem(hbEvent); err != nil {
				d.log.Warn("heartbeat publish error", "error", err)
			}
		}
	}
}

// applianceConfig maps the file configuration onto the state machine and
// its sub-procedures.
func applianceConfig(cfg *config.Config) appliance.Config {
	a := cfg.Appliance
	b := cfg.Brew
	return appliance.Config{
		Poll:                 cfg.Loop.PollInterval,
		MaxCups:              a.MaxCups,
		Full:                 ledger.Ledger{WaterML: a.FullWaterML, BeansG: a.FullBeansG},
		BeansPerCupG:         a.BeansPerCupG,
		RefillPoll:           a.RefillPoll,
		MessageHold:          a.MessageHold,
		AmbientAlertInterval: a.AmbientAlertInterval,
		Match:                schedule.MatchMode(cfg.Schedule.Match),
		Schedule: schedule.Config{
			DayTimeout:    cfg.Schedule.DayTimeout,
			DigitTimeout:  cfg.Schedule.DigitTimeout,
			RejectTimeout: cfg.Schedule.RejectTimeout,
			Poll:          cfg.Schedule.KeyPoll,
			Hold:          a.MessageHold,
			ResetKey:      device.KeyPlay,
		},
		Brew: brew.Config{
			HeatingBaseC:           b.HeatingBaseC,
			HeatingStepC:           b.HeatingStepC,
			HeatingStepDelay:       b.HeatingStepDelay,
			ExtractionBase:         b.ExtractionBase,
			ExtractionPerIntensity: b.ExtractionPerIntensity,
			ExtractionGateAngle:    b.ExtractionGateAngle,
			GrindDuration:          b.GrindDuration,
			BarSegments:            b.BarSegments,
			FlashTimes:             b.FlashTimes,
			FlashInterval:          b.FlashInterval,
			ProgressStepDelay:      b.ProgressStepDelay,
			Hold:                   a.MessageHold,
		},
	}
}

// describeSensors formats one round of sensor readings for -print-state.
func describeSensors(s device.Sensors) string {
	ambient := "Error!"
	if a, err := s.ReadAmbient(); err == nil {
		ambient = fmt.Sprintf("%.1fC|H:%.1f%%", a.TempC, a.HumidityPct)
	}
	return fmt.Sprintf("intensity=%d%% temp=%.1fC volume=%dml ambient=%s clock=%s",
		s.ReadIntensity(), s.ReadDesiredTemperature(), s.ReadWaterVolume(), ambient, s.ReadClock())
}
