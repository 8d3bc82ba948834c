package health

import (
	"time"

	"github.com/TvBMcMaster/pl-gpib/internal/gpib"
)

// Status represents the operational status of the bridge daemon.
type Status string

// Status values.
const (
	// StatusHealthy means the bridge and broker connections are up.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the daemon is running but a dependency is down.
	StatusDegraded Status = "degraded"

	// StatusStarting is published once during daemon initialization.
	StatusStarting Status = "starting"

	// StatusStopping is published once during graceful shutdown.
	StatusStopping Status = "stopping"

	// StatusOffline is only ever published by the broker as the LWT.
	StatusOffline Status = "offline"
)

// Message is the periodic health report published to MQTT.
// Topic: plgpib/health/{bridge_id}
// QoS: 1, Retained: Yes
type Message struct {
	// BridgeID is the bridge identifier from config.
	BridgeID string `json:"bridge_id"`

	// Timestamp is when the health status was generated (UTC, ISO8601).
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the current operational status.
	Status Status `json:"status"`

	// Version is the daemon software version.
	Version string `json:"version"`

	// UptimeSeconds is how long the daemon has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Bridge contains GPIB bridge session details.
	Bridge *BridgeStatus `json:"bridge,omitempty"`

	// Statistics contains wire traffic counters.
	Statistics *Statistics `json:"statistics,omitempty"`

	// InstrumentCount is the number of attached instruments.
	InstrumentCount int `json:"instrument_count"`

	// Reason explains the status (especially for degraded/offline).
	Reason string `json:"reason,omitempty"`
}

// BridgeStatus describes the GPIB bridge session.
type BridgeStatus struct {
	// Connected reports whether the serial channel is open.
	Connected bool `json:"connected"`

	// Version is the firmware string read during the handshake.
	Version string `json:"version"`

	// Address is the bridge's current GPIB address.
	Address int `json:"address"`

	// Mode is the bridge operating mode ("controller" or "device").
	Mode string `json:"mode"`
}

// Statistics contains wire traffic counters for the session.
type Statistics struct {
	// WritesTotal is the number of lines written to the bridge.
	WritesTotal uint64 `json:"writes_total"`

	// ReadsTotal is the number of read operations completed.
	ReadsTotal uint64 `json:"reads_total"`

	// ErrorsTotal is the number of wire errors encountered.
	ErrorsTotal uint64 `json:"errors_total"`

	// AddressChanges is the number of times the bus was re-addressed.
	AddressChanges uint64 `json:"address_changes"`
}

// NewMessage builds a health report from the current bridge state.
func NewMessage(bridgeID, version string, status Status, bridge *BridgeStatus, stats gpib.Stats, instruments int, startTime time.Time) *Message {
	return &Message{
		BridgeID:        bridgeID,
		Timestamp:       time.Now().UTC(),
		Status:          status,
		Version:         version,
		UptimeSeconds:   int64(time.Since(startTime).Seconds()),
		Bridge:          bridge,
		InstrumentCount: instruments,
		Statistics: &Statistics{
			WritesTotal:    stats.WritesTotal,
			ReadsTotal:     stats.ReadsTotal,
			ErrorsTotal:    stats.ErrorsTotal,
			AddressChanges: stats.AddressChanges,
		},
	}
}

// NewLWTMessage builds the Last Will and Testament payload the broker
// publishes if the daemon disconnects without a graceful shutdown.
func NewLWTMessage(bridgeID string) *Message {
	return &Message{
		BridgeID:  bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    StatusOffline,
		Reason:    "unexpected_disconnect",
	}
}
