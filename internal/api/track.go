package api

import (
	"net/http"

	"github.com/sells-group/visitor-intel/internal/tracking"
)

// handleTrack records one page view from the tracking snippet.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	var ping tracking.Ping
	if err := decodeJSON(w, r, &ping); err != nil {
		writeError(w, r, err)
		return
	}
	client := clientFrom(r.Context())
	if err := ping.Validate(client.ID); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := s.Tracker.Track(r.Context(), client, tracking.ExtractIP(r), ping)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
