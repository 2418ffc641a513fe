// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"fmt"
	"net/http"

	"github.com/carelog/internal/logger"
)

// HandleLogStream handles GET /api/v1/logs/stream: the server log as
// Server-Sent Events, one event per line.
func HandleLogStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	lg := logger.GetDefault()
	if lg == nil {
		writeError(w, http.StatusInternalServerError, "logger not initialized")
		return
	}
	lines, unsubscribe := lg.Subscribe()
	if lines == nil {
		writeError(w, http.StatusInternalServerError, "log stream unavailable")
		return
	}
	defer lg.Unsubscribe(unsubscribe)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "data: connected\n\n")
	flusher.Flush()

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", line); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
