// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
)

// HandleGenerateAPIKey handles POST /api/v1/keys/generate: issue a bearer
// key for an intake watcher or other client.
func (s *Server) HandleGenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		ClientName string `json:"client_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if strings.TrimSpace(req.ClientName) == "" {
		req.ClientName = "Unnamed Client"
	}

	key, err := s.APIKeys.GenerateKey(req.ClientName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("HandleGenerateAPIKey: issued key for %s", req.ClientName)
	writeJSON(w, http.StatusOK, map[string]string{
		"key":         key,
		"client_name": req.ClientName,
	})
}

// HandleListAPIKeys handles GET /api/v1/keys. Polled by clients, so it does
// not log.
func (s *Server) HandleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	keys, err := s.APIKeys.ListKeys()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

// HandleRevokeAPIKey handles POST /api/v1/keys/revoke.
func (s *Server) HandleRevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := s.APIKeys.RevokeKey(req.Key); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("HandleRevokeAPIKey: revoked %s...", req.Key[:min(12, len(req.Key))])
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
