// Package telemetry stores instrument readings in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with the connection
// and batching patterns used across the bridge daemon.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Numeric readings parsed from instrument query responses
//   - Bridge session counters (writes, reads, errors)
//
// # Usage
//
//	cfg := config.TelemetryConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "lab",
//	    Bucket:  "gpib",
//	}
//
//	client, err := telemetry.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteReading("HP,34401A,0,11-5-2", "voltage_dc", 4.217e-01)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered to the
// callback registered with SetOnError. Connection errors are returned
// directly from Connect.
package telemetry
