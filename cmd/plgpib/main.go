// plgpib - GPIB-over-serial bridge daemon
//
// This is the main entry point for the plgpib daemon. It drives a Prologix
// GPIB-USB bridge over a serial link, identifies the instruments configured
// on the bus, and exposes the session through:
//   - A read-only HTTP status API
//   - Retained MQTT health reports
//   - InfluxDB session counters
//   - A SQLite wire-traffic trace
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TvBMcMaster/pl-gpib/internal/api"
	"github.com/TvBMcMaster/pl-gpib/internal/gpib"
	"github.com/TvBMcMaster/pl-gpib/internal/health"
	"github.com/TvBMcMaster/pl-gpib/internal/infrastructure/config"
	"github.com/TvBMcMaster/pl-gpib/internal/infrastructure/database"
	"github.com/TvBMcMaster/pl-gpib/internal/infrastructure/logging"
	"github.com/TvBMcMaster/pl-gpib/internal/infrastructure/mqtt"
	"github.com/TvBMcMaster/pl-gpib/internal/serial"
	"github.com/TvBMcMaster/pl-gpib/internal/telemetry"
	"github.com/TvBMcMaster/pl-gpib/internal/tracelog"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting plgpib",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open serial channel to the bridge adapter
	channel, err := serial.Open(serial.Config{
		Port:        cfg.Serial.Port,
		BaudRate:    cfg.Serial.BaudRate,
		ReadTimeout: cfg.GetReadTimeout(),
	})
	if err != nil {
		return fmt.Errorf("opening serial port: %w", err)
	}
	log.Info("serial port open",
		"port", cfg.Serial.Port,
		"baud_rate", cfg.Serial.BaudRate,
	)

	// Set up trace recording (optional)
	var recorder *tracelog.Recorder
	if cfg.Trace.Enabled {
		db, dbErr := database.Open(cfg.Trace.Path)
		if dbErr != nil {
			_ = channel.Close()
			return fmt.Errorf("opening trace database: %w", dbErr)
		}
		defer func() {
			log.Info("closing trace database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing trace database", "error", closeErr)
			}
		}()

		recorder = tracelog.New(db.DB)
		recorder.SetLogger(log)
		if startErr := recorder.Start(); startErr != nil {
			return fmt.Errorf("starting trace recorder: %w", startErr)
		}
		defer recorder.Stop()
		log.Info("trace recording enabled",
			"path", cfg.Trace.Path,
			"session", recorder.Session(),
		)
	} else {
		log.Info("trace recording disabled")
	}

	// Construct the bridge controller. New performs the version, mode, and
	// address handshake against the live bridge.
	ctrlOpts := []gpib.Option{
		gpib.WithMode(gpib.Mode(cfg.Bridge.Mode)),
		gpib.WithLineTerminator(cfg.Bridge.LineTerminator),
		gpib.WithLogger(log),
	}
	if recorder != nil {
		ctrlOpts = append(ctrlOpts, gpib.WithTraceRecorder(recorder))
	}

	controller, err := gpib.New(channel, ctrlOpts...)
	if err != nil {
		_ = channel.Close()
		return fmt.Errorf("connecting to bridge: %w", err)
	}
	defer func() {
		log.Info("closing bridge controller")
		if closeErr := controller.Close(); closeErr != nil {
			log.Error("error closing controller", "error", closeErr)
		}
	}()
	log.Info("bridge connected",
		"firmware", controller.Version(),
		"mode", controller.Mode().String(),
		"address", controller.Address(),
	)

	// Attach configured instruments
	if err := attachInstruments(cfg, controller, log); err != nil {
		return fmt.Errorf("attaching instruments: %w", err)
	}

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	var reporter *health.Reporter
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// Periodic health reports
		reporter = health.NewReporter(health.Config{
			BridgeID:  cfg.Bridge.ID,
			Version:   version,
			Interval:  cfg.GetHealthInterval(),
			Publisher: mqttClient,
			Bridge:    controller,
		})
		reporter.SetLogger(log)
		if pubErr := reporter.PublishStarting(); pubErr != nil {
			log.Warn("failed to publish starting status", "error", pubErr)
		}
		reporter.Start(ctx)
		defer func() {
			log.Info("stopping health reporter")
			reporter.Stop()
		}()
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *telemetry.Client
	if cfg.Telemetry.Enabled {
		influxClient, err = telemetry.Connect(cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			flushBridgeMetrics(influxClient, cfg.Bridge.ID, controller)
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.Telemetry.URL,
			"org", cfg.Telemetry.Org,
			"bucket", cfg.Telemetry.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the status API (optional)
	if cfg.API.Enabled {
		var trace api.TraceSource
		if recorder != nil {
			trace = recorder
		}
		server, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Bridge:  controller,
			Trace:   trace,
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server started",
			"address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		)
	} else {
		log.Info("API server disabled")
	}

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. InfluxDB (flushes final counters)
	// 3. Health reporter (publishes stopping status)
	// 4. MQTT
	// 5. Controller and serial channel
	// 6. Trace recorder and database

	log.Info("plgpib stopped")
	return nil
}

// attachInstruments attaches each configured instrument to the controller
// and runs identification. Identification failures are logged, not fatal:
// an instrument that is powered off at startup still gets its registry.
func attachInstruments(cfg *config.Config, controller *gpib.Controller, log *logging.Logger) error {
	for _, ic := range cfg.Instruments {
		opts := []gpib.InstrumentOption{}
		if ic.Name != "" {
			opts = append(opts, gpib.WithName(ic.Name))
		}
		if ic.IdentCommand != "" {
			opts = append(opts, gpib.WithIdentCommand(ic.IdentCommand))
		}

		inst := gpib.NewInstrument(ic.Address, opts...)
		identified, err := controller.AddInstrument(inst)
		if err != nil {
			return fmt.Errorf("instrument at address %d: %w", ic.Address, err)
		}

		if identified {
			log.Info("instrument identified",
				"address", ic.Address,
				"name", inst.Name(),
			)
		} else {
			log.Warn("instrument attached but did not identify",
				"address", ic.Address,
				"name", inst.Name(),
			)
		}
	}
	return nil
}

// flushBridgeMetrics writes the final session counters before shutdown.
func flushBridgeMetrics(client *telemetry.Client, bridgeID string, controller *gpib.Controller) {
	stats := controller.Stats()
	client.WriteBridgeMetric(bridgeID, "writes_total", float64(stats.WritesTotal))
	client.WriteBridgeMetric(bridgeID, "reads_total", float64(stats.ReadsTotal))
	client.WriteBridgeMetric(bridgeID, "errors_total", float64(stats.ErrorsTotal))
	client.WriteBridgeMetric(bridgeID, "address_changes", float64(stats.AddressChanges))
	client.Flush()
}

// getConfigPath returns the configuration file path.
// Uses PLGPIB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PLGPIB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
