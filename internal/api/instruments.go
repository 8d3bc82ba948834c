package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// instrumentResponse is the payload for a single attached instrument.
type instrumentResponse struct {
	Address  int      `json:"address"`
	Name     string   `json:"name,omitempty"`
	Queries  []string `json:"queries"`
	Commands []string `json:"commands"`
}

// handleListInstruments returns all attached instruments, ordered by address.
func (s *Server) handleListInstruments(w http.ResponseWriter, _ *http.Request) {
	instruments := s.bridge.Instruments()

	out := make([]instrumentResponse, 0, len(instruments))
	for _, inst := range instruments {
		out = append(out, instrumentResponse{
			Address:  inst.Address(),
			Name:     inst.Name(),
			Queries:  inst.Query.Names(),
			Commands: inst.Command.Names(),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instruments": out,
		"count":       len(out),
	})
}

// handleGetInstrument returns one instrument by its GPIB address.
func (s *Server) handleGetInstrument(w http.ResponseWriter, r *http.Request) {
	address, err := strconv.Atoi(chi.URLParam(r, "address"))
	if err != nil {
		writeBadRequest(w, "address must be an integer")
		return
	}

	for _, inst := range s.bridge.Instruments() {
		if inst.Address() == address {
			writeJSON(w, http.StatusOK, instrumentResponse{
				Address:  inst.Address(),
				Name:     inst.Name(),
				Queries:  inst.Query.Names(),
				Commands: inst.Command.Names(),
			})
			return
		}
	}

	writeNotFound(w, "no instrument at that address")
}
