package api

import (
	"net/http"
	"time"
)

// systemResponse is the payload for GET /api/v1/system.
type systemResponse struct {
	Version    string         `json:"version"`
	Bridge     bridgeResponse `json:"bridge"`
	Statistics statsResponse  `json:"statistics"`
	Timestamp  time.Time      `json:"timestamp"`
}

// bridgeResponse describes the GPIB bridge session.
type bridgeResponse struct {
	Connected       bool   `json:"connected"`
	Version         string `json:"version"`
	Address         int    `json:"address"`
	Mode            string `json:"mode"`
	InstrumentCount int    `json:"instrument_count"`
}

// statsResponse carries the session wire counters.
type statsResponse struct {
	WritesTotal    uint64    `json:"writes_total"`
	ReadsTotal     uint64    `json:"reads_total"`
	ErrorsTotal    uint64    `json:"errors_total"`
	AddressChanges uint64    `json:"address_changes"`
	LastActivity   time.Time `json:"last_activity"`
}

// handleSystem returns the bridge session state and wire counters.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	stats := s.bridge.Stats()

	writeJSON(w, http.StatusOK, systemResponse{
		Version: s.version,
		Bridge: bridgeResponse{
			Connected:       stats.Connected,
			Version:         s.bridge.Version(),
			Address:         s.bridge.Address(),
			Mode:            s.bridge.Mode().String(),
			InstrumentCount: s.bridge.InstrumentCount(),
		},
		Statistics: statsResponse{
			WritesTotal:    stats.WritesTotal,
			ReadsTotal:     stats.ReadsTotal,
			ErrorsTotal:    stats.ErrorsTotal,
			AddressChanges: stats.AddressChanges,
			LastActivity:   stats.LastActivity,
		},
		Timestamp: time.Now().UTC(),
	})
}
