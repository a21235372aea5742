// Package config loads the brewer daemon configuration.
//
// Configuration comes from a YAML file layered over Default(), then
// environment overrides, then Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root configuration structure.
type Config struct {
	Loop      LoopConfig      `yaml:"loop"`
	Appliance ApplianceConfig `yaml:"appliance"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Brew      BrewConfig      `yaml:"brew"`
	Board     BoardConfig     `yaml:"board"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	HTTP      HTTPConfig      `yaml:"http"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoopConfig controls the control loop cadence.
type LoopConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	// Heartbeat is the system heartbeat interval; 0 disables it.
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// ApplianceConfig holds tank sizes and operator feedback timing.
type ApplianceConfig struct {
	FullWaterML  float64 `yaml:"full_water_ml"`
	FullBeansG   float64 `yaml:"full_beans_g"`
	BeansPerCupG float64 `yaml:"beans_per_cup_g"`
	MaxCups      int     `yaml:"max_cups"`
	// RefillPoll is the interval between key checks while waiting for a refill.
	RefillPoll time.Duration `yaml:"refill_poll"`
	// MessageHold is how long transient notices stay on screen.
	MessageHold time.Duration `yaml:"message_hold"`
	// AmbientAlertInterval throttles the sensor-fault tone.
	AmbientAlertInterval time.Duration `yaml:"ambient_alert_interval"`
}

// Schedule match modes.
const (
	MatchExact   = "exact"
	MatchCatchUp = "catch_up"
)

// ScheduleConfig controls the schedule entry sub-machine.
type ScheduleConfig struct {
	DayTimeout   time.Duration `yaml:"day_timeout"`
	DigitTimeout time.Duration `yaml:"digit_timeout"`
	// RejectTimeout abandons a rejected schedule; 0 waits for the reset key forever.
	RejectTimeout time.Duration `yaml:"reject_timeout"`
	KeyPoll       time.Duration `yaml:"key_poll"`
	// Match selects how the waiting state compares the clock: "exact" or "catch_up".
	Match string `yaml:"match"`
}

// BrewConfig holds the fixed brewing profile.
type BrewConfig struct {
	HeatingBaseC           float64       `yaml:"heating_base_c"`
	HeatingStepC           float64       `yaml:"heating_step_c"`
	HeatingStepDelay       time.Duration `yaml:"heating_step_delay"`
	ExtractionBase         time.Duration `yaml:"extraction_base"`
	ExtractionPerIntensity time.Duration `yaml:"extraction_per_intensity"`
	ExtractionGateAngle    int           `yaml:"extraction_gate_angle"`
	GrindDuration          time.Duration `yaml:"grind_duration"`
	BarSegments            int           `yaml:"bar_segments"`
	FlashTimes             int           `yaml:"flash_times"`
	FlashInterval          time.Duration `yaml:"flash_interval"`
	ProgressStepDelay      time.Duration `yaml:"progress_step_delay"`
}

// BoardConfig describes the serial link to the companion sensor board.
type BoardConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
	// AmbientTTL is how long an ambient reading is reused.
	AmbientTTL time.Duration `yaml:"ambient_ttl"`
}

// GPIOConfig lists line offsets on the GPIO chip.
type GPIOConfig struct {
	Chip        string `yaml:"chip"`
	StatusLED   int    `yaml:"status_led"`
	BrewLED     int    `yaml:"brew_led"`
	AlertLED    int    `yaml:"alert_led"`
	Buzzer      int    `yaml:"buzzer"`
	GrainServo  int    `yaml:"grain_servo"`
	GroundServo int    `yaml:"ground_servo"`
	StepperStep int    `yaml:"stepper_step"`
	StepperDir  int    `yaml:"stepper_dir"`
	BarLEDs     []int  `yaml:"bar_leds"`
	// StepDelay is the grinder stepper pulse period.
	StepDelay time.Duration `yaml:"step_delay"`
}

// MQTTConfig configures event publishing and the remote key subscription.
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	BufferSize  int    `yaml:"buffer_size"`
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// KeyRatePerSec limits remote key injection over HTTP.
	KeyRatePerSec float64 `yaml:"key_rate_per_sec"`
}

// InfluxDBConfig configures optional brew telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults with environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the factory configuration of the appliance.
func Default() *Config {
	return &Config{
		Loop: LoopConfig{
			PollInterval: 200 * time.Millisecond,
			Heartbeat:    15 * time.Minute,
		},
		Appliance: ApplianceConfig{
			FullWaterML:          1000,
			FullBeansG:           250,
			BeansPerCupG:         10,
			MaxCups:              5,
			RefillPoll:           200 * time.Millisecond,
			MessageHold:          time.Second,
			AmbientAlertInterval: 10 * time.Second,
		},
		Schedule: ScheduleConfig{
			DayTimeout:    30 * time.Second,
			DigitTimeout:  30 * time.Second,
			RejectTimeout: 2 * time.Minute,
			KeyPoll:       100 * time.Millisecond,
			Match:         MatchExact,
		},
		Brew: BrewConfig{
			HeatingBaseC:           25.0,
			HeatingStepC:           2.5,
			HeatingStepDelay:       400 * time.Millisecond,
			ExtractionBase:         5000 * time.Millisecond,
			ExtractionPerIntensity: 20 * time.Millisecond,
			ExtractionGateAngle:    45,
			GrindDuration:          5000 * time.Millisecond,
			BarSegments:            10,
			FlashTimes:             3,
			FlashInterval:          300 * time.Millisecond,
			ProgressStepDelay:      300 * time.Millisecond,
		},
		Board: BoardConfig{
			Port:       "/dev/ttyACM0",
			BaudRate:   115200,
			AmbientTTL: 2 * time.Second,
		},
		GPIO: GPIOConfig{
			Chip:        "gpiochip0",
			StatusLED:   7,
			BrewLED:     13,
			AlertLED:    12,
			Buzzer:      14,
			GrainServo:  15,
			GroundServo: 18,
			StepperStep: 20,
			StepperDir:  21,
			BarLEDs:     []int{2, 3, 4, 5, 6, 9, 10, 11, 16, 17},
			StepDelay:   5 * time.Millisecond,
		},
		MQTT: MQTTConfig{
			Enabled:     true,
			Broker:      "tcp://localhost:1883",
			ClientID:    "brewer",
			TopicPrefix: "kitchen/coffee",
			BufferSize:  100,
		},
		HTTP: HTTPConfig{
			Addr:          ":8080",
			KeyRatePerSec: 5,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BREWER_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("BREWER_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("BREWER_BOARD_PORT"); v != "" {
		cfg.Board.Port = v
	}
	if v := os.Getenv("BREWER_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("BREWER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

const (
	// maxVolumePerCupML is the top of the water volume selector.
	maxVolumePerCupML = 200
	maxCups           = 5
)

// Validate checks the configuration for values the control loop cannot run with.
func (c *Config) Validate() error {
	var errs []string

	if c.Loop.PollInterval <= 0 {
		errs = append(errs, "loop.poll_interval must be positive")
	}
	if c.Appliance.MaxCups < 1 || c.Appliance.MaxCups > maxCups {
		errs = append(errs, fmt.Sprintf("appliance.max_cups must be between 1 and %d", maxCups))
	}
	if c.Appliance.BeansPerCupG <= 0 {
		errs = append(errs, "appliance.beans_per_cup_g must be positive")
	}
	// A full tank must cover the largest batch, or a refill could not clear the gate.
	cups := float64(c.Appliance.MaxCups)
	if c.Appliance.FullWaterML < cups*maxVolumePerCupML {
		errs = append(errs, fmt.Sprintf("appliance.full_water_ml cannot serve %d cups of %d ml", c.Appliance.MaxCups, maxVolumePerCupML))
	}
	if c.Appliance.FullBeansG < cups*c.Appliance.BeansPerCupG {
		errs = append(errs, fmt.Sprintf("appliance.full_beans_g cannot serve %d cups", c.Appliance.MaxCups))
	}
	if c.Appliance.RefillPoll <= 0 {
		errs = append(errs, "appliance.refill_poll must be positive")
	}
	if c.Schedule.KeyPoll <= 0 {
		errs = append(errs, "schedule.key_poll must be positive")
	}
	if c.Schedule.DayTimeout <= 0 || c.Schedule.DigitTimeout <= 0 {
		errs = append(errs, "schedule timeouts must be positive")
	}
	if c.Schedule.RejectTimeout < 0 {
		errs = append(errs, "schedule.reject_timeout must not be negative")
	}
	switch c.Schedule.Match {
	case MatchExact, MatchCatchUp:
	default:
		errs = append(errs, fmt.Sprintf("schedule.match %q is not %q or %q", c.Schedule.Match, MatchExact, MatchCatchUp))
	}
	if c.Brew.HeatingStepC <= 0 {
		errs = append(errs, "brew.heating_step_c must be positive")
	}
	if c.Brew.BarSegments < 1 {
		errs = append(errs, "brew.bar_segments must be at least 1")
	}
	if c.Brew.ExtractionBase < 0 || c.Brew.ExtractionPerIntensity < 0 {
		errs = append(errs, "brew extraction durations must not be negative")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required when mqtt is enabled")
	}
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not recognised", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}
