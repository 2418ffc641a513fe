// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"log"
	"net/http"
	"strings"
)

// HandleHealth handles GET /api/v1/health. When the caller presents an API
// key its last-seen timestamp is refreshed, so the health poll doubles as a
// watcher heartbeat.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if s.APIKeys != nil {
		if key := bearerKey(r); key != "" {
			if err := s.APIKeys.UpdateLastSeen(key); err != nil {
				log.Printf("HandleHealth: update last seen: %v", err)
			}
		}
	}

	response := map[string]any{
		"status":  "up",
		"version": "1.0",
	}
	if s.Metadata != nil {
		if installDate, err := s.Metadata.GetInstallDate(); err == nil {
			response["install_date"] = installDate.Format("2006-01-02")
		}
		if days, err := s.Metadata.GetDaysActive(); err == nil {
			response["days_active"] = days
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// bearerKey extracts the API key from the Authorization header, with or
// without the Bearer prefix.
func bearerKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Authorization"))
	return strings.TrimPrefix(key, "Bearer ")
}
