package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the pl-gpib driver.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Serial      SerialConfig       `yaml:"serial"`
	Bridge      BridgeConfig       `yaml:"bridge"`
	Instruments []InstrumentConfig `yaml:"instruments"`
	Logging     LoggingConfig      `yaml:"logging"`
	Trace       TraceConfig        `yaml:"trace"`
	Telemetry   TelemetryConfig    `yaml:"telemetry"`
	MQTT        MQTTConfig         `yaml:"mqtt"`
	API         APIConfig          `yaml:"api"`
}

// SerialConfig contains the serial link settings for the bridge adapter.
type SerialConfig struct {
	// Port is the serial device path, e.g. "/dev/ttyUSB0" or "COM3".
	Port string `yaml:"port"`

	// BaudRate is the line speed. The bridge's virtual COM port runs at
	// 115200 regardless of the GPIB side.
	BaudRate int `yaml:"baud_rate"`

	// ReadTimeout bounds each read operation, in milliseconds.
	ReadTimeout int `yaml:"read_timeout"`
}

// BridgeConfig contains bridge meta-protocol settings.
type BridgeConfig struct {
	// ID names this bridge in health and telemetry output.
	ID string `yaml:"id"`

	// Mode selects DEVICE (0) or CONTROLLER (1) operation.
	Mode int `yaml:"mode"`

	// LineTerminator is appended to every line written to the bridge.
	LineTerminator string `yaml:"line_terminator"`
}

// InstrumentConfig describes one instrument to attach at startup.
type InstrumentConfig struct {
	// Address is the GPIB primary address (0-30).
	Address int `yaml:"address"`

	// Name is an optional label used until identification succeeds.
	Name string `yaml:"name"`

	// IdentCommand overrides the identification query, e.g. "ID?" for
	// instruments predating IEEE-488.2. Default: "*IDN?".
	IdentCommand string `yaml:"ident_command"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// TraceConfig contains wire-traffic recording settings.
type TraceConfig struct {
	// Enabled turns trace recording on.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file for recorded traffic.
	Path string `yaml:"path"`
}

// TelemetryConfig contains InfluxDB connection settings for instrument
// readings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// MQTTConfig contains MQTT broker settings for health reporting.
type MQTTConfig struct {
	Enabled        bool           `yaml:"enabled"`
	Broker         BrokerConfig   `yaml:"broker"`
	Auth           MQTTAuthConfig `yaml:"auth"`
	QoS            int            `yaml:"qos"`
	HealthInterval int            `yaml:"health_interval"`
}

// BrokerConfig contains MQTT broker connection details.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIConfig contains the read-only status HTTP API settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// Load reads configuration from a YAML file, applies environment variable
// overrides, and validates the result.
//
// Environment variables use the prefix PLGPIB_, for example:
// PLGPIB_SERIAL_PORT, PLGPIB_MQTT_PASSWORD.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Serial: SerialConfig{
			BaudRate:    115200,
			ReadTimeout: 1000,
		},
		Bridge: BridgeConfig{
			ID:             "gpib-bridge-01",
			Mode:           1,
			LineTerminator: "\n",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Trace: TraceConfig{
			Path: "./data/plgpib-trace.db",
		},
		Telemetry: TelemetryConfig{
			URL:           "http://localhost:8086",
			Bucket:        "instruments",
			BatchSize:     100,
			FlushInterval: 10,
		},
		MQTT: MQTTConfig{
			Broker: BrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "plgpib",
			},
			QoS:            1,
			HealthInterval: 30,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PLGPIB_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Serial
	if v := os.Getenv("PLGPIB_SERIAL_PORT"); v != "" {
		cfg.Serial.Port = v
	}

	// Trace
	if v := os.Getenv("PLGPIB_TRACE_PATH"); v != "" {
		cfg.Trace.Path = v
	}

	// Telemetry
	if v := os.Getenv("PLGPIB_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}

	// MQTT
	if v := os.Getenv("PLGPIB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PLGPIB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PLGPIB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("PLGPIB_API_HOST"); v != "" {
		cfg.API.Host = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Serial validation
	if c.Serial.Port == "" {
		errs = append(errs, "serial.port is required (set PLGPIB_SERIAL_PORT environment variable)")
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, "serial.baud_rate must be positive")
	}

	// Bridge validation
	if c.Bridge.Mode != 0 && c.Bridge.Mode != 1 {
		errs = append(errs, "bridge.mode must be 0 (device) or 1 (controller)")
	}
	if c.Bridge.ID == "" {
		errs = append(errs, "bridge.id is required")
	}

	// Instrument validation: valid primary addresses, no duplicates
	seen := make(map[int]bool)
	for _, inst := range c.Instruments {
		if inst.Address < 0 || inst.Address > 30 {
			errs = append(errs, fmt.Sprintf("instruments: address %d out of range 0-30", inst.Address))
		}
		if seen[inst.Address] {
			errs = append(errs, fmt.Sprintf("instruments: duplicate address %d", inst.Address))
		}
		seen[inst.Address] = true
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the serial read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeout) * time.Millisecond
}

// GetHealthInterval returns the MQTT health publish interval as a Duration.
func (c *Config) GetHealthInterval() time.Duration {
	return time.Duration(c.MQTT.HealthInterval) * time.Second
}
