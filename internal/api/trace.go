package api

import (
	"net/http"
	"strconv"
)

// defaultTraceLimit bounds GET /api/v1/trace/recent when no limit is given.
const (
	defaultTraceLimit = 50
	maxTraceLimit     = 500
)

// handleTraceRecent returns the most recent wire traffic entries.
//
// Query parameters:
//   - limit: maximum entries to return (default 50, max 500)
func (s *Server) handleTraceRecent(w http.ResponseWriter, r *http.Request) {
	if s.trace == nil {
		writeNotFound(w, "trace recording is not enabled")
		return
	}

	limit := defaultTraceLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxTraceLimit {
		limit = maxTraceLimit
	}

	entries, err := s.trace.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("reading trace entries", "error", err)
		writeInternalError(w, "failed to read trace entries")
		return
	}

	total, err := s.trace.Count(r.Context())
	if err != nil {
		s.logger.Error("counting trace entries", "error", err)
		writeInternalError(w, "failed to count trace entries")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session": s.trace.Session(),
		"entries": entries,
		"total":   total,
	})
}
