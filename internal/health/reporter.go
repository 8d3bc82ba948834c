package health

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/TvBMcMaster/pl-gpib/internal/gpib"
	"github.com/TvBMcMaster/pl-gpib/internal/infrastructure/mqtt"
)

// defaultInterval is used when no reporting interval is configured.
const defaultInterval = 30 * time.Second

// Publisher is the interface for publishing health messages.
// This is typically implemented by an MQTT client.
type Publisher interface {
	// Publish sends a message to a topic with the specified QoS and retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// IsConnected returns true if the publisher is connected.
	IsConnected() bool
}

// Bridge provides the controller state included in health reports.
// Implemented by *gpib.Controller.
type Bridge interface {
	Stats() gpib.Stats
	Version() string
	Address() int
	Mode() gpib.Mode
	InstrumentCount() int
}

// Logger is the optional logging interface for the reporter.
type Logger interface {
	Error(msg string, args ...any)
}

// Reporter manages periodic health status reporting.
// It publishes health messages to MQTT at regular intervals.
type Reporter struct {
	bridgeID  string
	version   string
	startTime time.Time
	interval  time.Duration
	publisher Publisher
	bridge    Bridge

	// Shutdown coordination (stopOnce prevents double-close panics)
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	// Logger (optional)
	logger   Logger
	loggerMu sync.RWMutex
}

// Config holds configuration for the health reporter.
type Config struct {
	// BridgeID is the bridge identifier for health messages.
	BridgeID string

	// Version is the daemon software version.
	Version string

	// Interval is how often to publish health status.
	// Default: 30 seconds.
	Interval time.Duration

	// Publisher is the MQTT client for publishing messages.
	Publisher Publisher

	// Bridge provides controller statistics.
	Bridge Bridge
}

// NewReporter creates a new health reporter.
//
// Parameters:
//   - cfg: Configuration for the health reporter
//
// Returns:
//   - *Reporter: Ready to start (call Start to begin reporting)
func NewReporter(cfg Config) *Reporter {
	interval := cfg.Interval
	if interval == 0 {
		interval = defaultInterval
	}

	return &Reporter{
		bridgeID:  cfg.BridgeID,
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		publisher: cfg.Publisher,
		bridge:    cfg.Bridge,
		done:      make(chan struct{}),
	}
}

// Start begins periodic health reporting.
// Must be called after creation. Call Stop to shut down.
//
// Parameters:
//   - ctx: Context for cancellation (will stop reporting when cancelled)
func (r *Reporter) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.reportLoop(ctx)
}

// Stop gracefully stops health reporting.
// Publishes a final "stopping" status before returning.
// Safe to call multiple times (uses sync.Once).
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()

		// Final stopping status is best-effort
		//nolint:errcheck
		r.publishStatus(StatusStopping, "")
	})
}

// SetLogger sets the logger for this reporter.
func (r *Reporter) SetLogger(logger Logger) {
	r.loggerMu.Lock()
	r.logger = logger
	r.loggerMu.Unlock()
}

// PublishStarting publishes a "starting" status.
// Called during daemon initialization.
func (r *Reporter) PublishStarting() error {
	return r.publishStatus(StatusStarting, "bridge starting")
}

// PublishNow publishes the current health status immediately.
// Useful for forcing an update after a significant event.
func (r *Reporter) PublishNow() error {
	status, reason := r.determineStatus()
	return r.publishStatus(status, reason)
}

// LWTPayload returns the Last Will and Testament message payload.
// This should be set as the MQTT will message during connection.
func (r *Reporter) LWTPayload() ([]byte, error) {
	return json.Marshal(NewLWTMessage(r.bridgeID))
}

// Topic returns the health topic for this bridge.
func (r *Reporter) Topic() string {
	return mqtt.Topics{}.BridgeHealth(r.bridgeID)
}

// reportLoop runs the periodic health reporting.
func (r *Reporter) reportLoop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	if err := r.PublishNow(); err != nil {
		r.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.done:
			return
		case <-ticker.C:
			if err := r.PublishNow(); err != nil {
				r.logError("failed to publish health", err)
			}
		}
	}
}

// determineStatus evaluates the current daemon status.
func (r *Reporter) determineStatus() (Status, string) {
	if r.publisher == nil || !r.publisher.IsConnected() {
		return StatusDegraded, "MQTT disconnected"
	}

	if r.bridge == nil || !r.bridge.Stats().Connected {
		return StatusDegraded, "bridge disconnected"
	}

	return StatusHealthy, ""
}

// publishStatus publishes a health status message.
func (r *Reporter) publishStatus(status Status, reason string) error {
	if r.publisher == nil {
		return nil
	}

	var stats gpib.Stats
	var bridge *BridgeStatus
	var instruments int
	if r.bridge != nil {
		stats = r.bridge.Stats()
		instruments = r.bridge.InstrumentCount()
		bridge = &BridgeStatus{
			Connected: stats.Connected,
			Version:   r.bridge.Version(),
			Address:   r.bridge.Address(),
			Mode:      r.bridge.Mode().String(),
		}
	}

	msg := NewMessage(r.bridgeID, r.version, status, bridge, stats, instruments, r.startTime)
	if reason != "" {
		msg.Reason = reason
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	// QoS 1, retained so dashboards always see the latest report
	return r.publisher.Publish(r.Topic(), payload, 1, true)
}

// logError logs an error if a logger is set.
func (r *Reporter) logError(msg string, err error) {
	r.loggerMu.RLock()
	logger := r.logger
	r.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
