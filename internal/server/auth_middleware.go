// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"log"
	"net/http"

	"github.com/carelog/internal/database"
)

// AuthMiddleware rejects requests that do not carry an active API key. The
// key's last-seen timestamp is refreshed on every authenticated request.
func AuthMiddleware(apiKeyStore *database.APIKeyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := bearerKey(r)
			if key == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			valid, err := apiKeyStore.ValidateKey(key)
			if err != nil {
				log.Printf("AuthMiddleware: validate key: %v", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !valid {
				writeError(w, http.StatusUnauthorized, "invalid or inactive API key")
				return
			}

			if err := apiKeyStore.UpdateLastSeen(key); err != nil {
				log.Printf("AuthMiddleware: update last seen: %v", err)
			}

			next.ServeHTTP(w, r)
		})
	}
}
