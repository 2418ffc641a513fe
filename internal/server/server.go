// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package server exposes the care record API over HTTP: PDF upload, customer
// and record queries, note evaluation, weekly analysis and export.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/carelog/internal/careparse"
	"github.com/carelog/internal/database"
	"github.com/carelog/internal/evaluator"
	"github.com/carelog/internal/queue"
	"github.com/carelog/internal/server/middleware"
	"github.com/carelog/internal/weekly"
)

// Server bundles the stores and services the handlers run on.
type Server struct {
	Customers *database.CustomerStore
	Records   *database.RecordStore
	Weekly    *database.WeeklyStatusStore
	Evals     *database.EvaluationStore
	Events    *database.EventLogger
	Metadata  *database.SystemMetadataStore
	APIKeys   *database.APIKeyStore

	Evaluator *evaluator.Evaluator
	Analyzer  *weekly.Analyzer
	Writer    *weekly.Writer

	// JobQueue is nil when Redis is not available; evaluation batches then
	// run in-process instead of being enqueued.
	JobQueue  queue.Queue
	WSManager *WebSocketManager

	// ParseOpts carries the register parsing overrides (slash-date year,
	// checked glyphs, absence sentinels). Zero values mean the defaults.
	ParseOpts careparse.Options

	// RequireAuth puts the API behind bearer-key auth. Health and key
	// generation stay open so a fresh install can bootstrap itself.
	RequireAuth bool
}

// Routes builds the HTTP mux. With RequireAuth the API surface is wrapped
// in the key-validating middleware.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	api := http.NewServeMux()

	api.HandleFunc("/api/v1/upload", s.HandleUpload)
	api.HandleFunc("/api/v1/customers", s.HandleCustomers)
	api.HandleFunc("/api/v1/customers/", s.HandleCustomerByID)
	api.HandleFunc("/api/v1/records", s.HandleRecords)
	api.HandleFunc("/api/v1/records/", s.HandleRecordByID)
	api.HandleFunc("/api/v1/evaluations", s.HandleEvaluations)
	api.HandleFunc("/api/v1/evaluations/run", s.HandleRunEvaluations)
	api.HandleFunc("/api/v1/evaluations/stats", s.HandleEvaluationStats)
	api.HandleFunc("/api/v1/weekly/status", s.HandleWeeklyStatus)
	api.HandleFunc("/api/v1/weekly/report", s.HandleWeeklyReport)
	api.HandleFunc("/api/v1/export", s.HandleExport)
	api.HandleFunc("/api/v1/events", s.HandleEvents)
	api.HandleFunc("/api/v1/logs/stream", HandleLogStream)

	if s.APIKeys != nil {
		mux.HandleFunc("/api/v1/keys/generate", s.HandleGenerateAPIKey)
		api.HandleFunc("/api/v1/keys", s.HandleListAPIKeys)
		api.HandleFunc("/api/v1/keys/revoke", s.HandleRevokeAPIKey)
	}

	var apiHandler http.Handler = api
	if s.RequireAuth && s.APIKeys != nil {
		apiHandler = AuthMiddleware(s.APIKeys)(api)
	}
	mux.HandleFunc("/api/v1/health", s.HandleHealth)
	mux.Handle("/api/v1/", apiHandler)

	if s.WSManager != nil {
		mux.HandleFunc("/ws/logs", s.WSManager.HandleLogSocket)
		mux.HandleFunc("/ws/notifications", s.WSManager.HandleWebSocket)
	}

	return middleware.TrafficLogger(mux)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
