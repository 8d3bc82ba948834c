package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

const minimalConfig = `
serial:
  port: "/dev/ttyUSB0"
`

func TestLoadMinimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Serial.Port != "/dev/ttyUSB0" {
		t.Errorf("Serial.Port = %q, want /dev/ttyUSB0", cfg.Serial.Port)
	}

	// Defaults fill in everything else.
	if cfg.Serial.BaudRate != 115200 {
		t.Errorf("Serial.BaudRate = %d, want default 115200", cfg.Serial.BaudRate)
	}
	if cfg.Bridge.Mode != 1 {
		t.Errorf("Bridge.Mode = %d, want default 1", cfg.Bridge.Mode)
	}
	if cfg.Bridge.LineTerminator != "\n" {
		t.Errorf("Bridge.LineTerminator = %q, want newline", cfg.Bridge.LineTerminator)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoadInstruments(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
serial:
  port: "/dev/ttyUSB0"
instruments:
  - address: 6
    name: "function generator"
  - address: 14
    ident_command: "ID?"
`))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(cfg.Instruments) != 2 {
		t.Fatalf("len(Instruments) = %d, want 2", len(cfg.Instruments))
	}
	if cfg.Instruments[0].Address != 6 || cfg.Instruments[0].Name != "function generator" {
		t.Errorf("Instruments[0] = %+v, want address 6 named", cfg.Instruments[0])
	}
	if cfg.Instruments[1].IdentCommand != "ID?" {
		t.Errorf("Instruments[1].IdentCommand = %q, want ID?", cfg.Instruments[1].IdentCommand)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PLGPIB_SERIAL_PORT", "/dev/ttyACM3")
	t.Setenv("PLGPIB_MQTT_PASSWORD", "secret")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Serial.Port != "/dev/ttyACM3" {
		t.Errorf("Serial.Port = %q, want env override /dev/ttyACM3", cfg.Serial.Port)
	}
	if cfg.MQTT.Auth.Password != "secret" {
		t.Errorf("MQTT.Auth.Password = %q, want env override", cfg.MQTT.Auth.Password)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing serial port",
			mutate:  func(c *Config) { c.Serial.Port = "" },
			wantErr: "serial.port is required",
		},
		{
			name:    "zero baud rate",
			mutate:  func(c *Config) { c.Serial.BaudRate = 0 },
			wantErr: "serial.baud_rate",
		},
		{
			name:    "invalid bridge mode",
			mutate:  func(c *Config) { c.Bridge.Mode = 2 },
			wantErr: "bridge.mode",
		},
		{
			name:    "empty bridge id",
			mutate:  func(c *Config) { c.Bridge.ID = "" },
			wantErr: "bridge.id",
		},
		{
			name: "instrument address out of range",
			mutate: func(c *Config) {
				c.Instruments = []InstrumentConfig{{Address: 31}}
			},
			wantErr: "out of range",
		},
		{
			name: "duplicate instrument address",
			mutate: func(c *Config) {
				c.Instruments = []InstrumentConfig{{Address: 6}, {Address: 6}}
			},
			wantErr: "duplicate address",
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name: "invalid api port when enabled",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 0
			},
			wantErr: "api.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Serial.Port = "/dev/ttyUSB0"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := defaultConfig()

	if got := cfg.GetReadTimeout(); got != 1*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 1s", got)
	}
	if got := cfg.GetHealthInterval(); got != 30*time.Second {
		t.Errorf("GetHealthInterval() = %v, want 30s", got)
	}
}
