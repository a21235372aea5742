package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brewer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
loop:
  poll_interval: 100ms
appliance:
  full_water_ml: 1500
  max_cups: 4
schedule:
  digit_timeout: 10s
  match: catch_up
brew:
  extraction_base: 4s
mqtt:
  broker: tcp://10.0.0.2:1883
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 100*time.Millisecond, cfg.Loop.PollInterval)
	assert.Equal(t, 1500.0, cfg.Appliance.FullWaterML)
	assert.Equal(t, 4, cfg.Appliance.MaxCups)
	assert.Equal(t, 10*time.Second, cfg.Schedule.DigitTimeout)
	assert.Equal(t, MatchCatchUp, cfg.Schedule.Match)
	assert.Equal(t, 4*time.Second, cfg.Brew.ExtractionBase)
	assert.Equal(t, "tcp://10.0.0.2:1883", cfg.MQTT.Broker)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched sections keep their defaults.
	assert.Equal(t, 250.0, cfg.Appliance.FullBeansG)
	assert.Equal(t, 30*time.Second, cfg.Schedule.DayTimeout)
	assert.Equal(t, 10, cfg.Brew.BarSegments)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Loop, cfg.Loop)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/brewer.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "loop: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BREWER_MQTT_BROKER", "tcp://broker.local:1883")
	t.Setenv("BREWER_HTTP_ADDR", ":9090")
	t.Setenv("BREWER_BOARD_PORT", "/dev/ttyUSB1")
	t.Setenv("BREWER_INFLUXDB_TOKEN", "secret")
	t.Setenv("BREWER_LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker.local:1883", cfg.MQTT.Broker)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "/dev/ttyUSB1", cfg.Board.Port)
	assert.Equal(t, "secret", cfg.InfluxDB.Token)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateTankCoversLargestBatch(t *testing.T) {
	cfg := Default()
	cfg.Appliance.MaxCups = 9
	require.ErrorIs(t, cfg.Validate(), ErrInvalid)

	cfg = Default()
	cfg.Appliance.MaxCups = 5
	cfg.Appliance.FullWaterML = 1000
	cfg.Appliance.FullBeansG = 50
	cfg.Appliance.BeansPerCupG = 10
	assert.NoError(t, cfg.Validate())

	cfg.Appliance.MaxCups = 3
	cfg.Appliance.FullWaterML = 600
	cfg.Appliance.FullBeansG = 30
	assert.NoError(t, cfg.Validate())
	cfg.Appliance.FullWaterML = 599
	assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll interval", func(c *Config) { c.Loop.PollInterval = 0 }},
		{"no cups", func(c *Config) { c.Appliance.MaxCups = 0 }},
		{"too many cups", func(c *Config) { c.Appliance.MaxCups = 6 }},
		{"tiny water tank", func(c *Config) { c.Appliance.FullWaterML = 150 }},
		{"tiny bean hopper", func(c *Config) { c.Appliance.FullBeansG = 5 }},
		{"tank short of a full batch", func(c *Config) { c.Appliance.FullWaterML = 999 }},
		{"hopper short of a full batch", func(c *Config) {
			c.Appliance.MaxCups = 5
			c.Appliance.BeansPerCupG = 60
		}},
		{"unknown match mode", func(c *Config) { c.Schedule.Match = "fuzzy" }},
		{"negative reject timeout", func(c *Config) { c.Schedule.RejectTimeout = -time.Second }},
		{"no bar segments", func(c *Config) { c.Brew.BarSegments = 0 }},
		{"mqtt without broker", func(c *Config) { c.MQTT.Broker = "" }},
		{"influx without url", func(c *Config) { c.InfluxDB.Enabled = true }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
		})
	}
}
