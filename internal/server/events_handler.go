// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"strconv"
)

// HandleEvents handles GET /api/v1/events: recent processing events, newest
// first. ?source= filters to one upload/customer source, ?limit= caps the
// count (default 50).
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if source := r.URL.Query().Get("source"); source != "" {
		events, err := s.Events.GetEventsBySource(source)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	events, err := s.Events.GetRecentEvents(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
