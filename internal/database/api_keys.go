// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// apiKeyOnlineWindow is how recently a key must have been seen for its
// holder to count as online. Intake watchers refresh last_seen_at through
// the health endpoint.
const apiKeyOnlineWindow = 30 * time.Second

// APIKey is one issued bearer key, typically held by an intake watcher.
type APIKey struct {
	Key        string     `json:"key"`
	ClientName string     `json:"client_name"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	IsOnline   bool       `json:"is_online"`
}

// APIKeyStore persists issued API keys.
type APIKeyStore struct {
	db *sql.DB
}

// NewAPIKeyStore creates an API key store and its schema.
func NewAPIKeyStore(db *sql.DB) (*APIKeyStore, error) {
	s := &APIKeyStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize API keys schema: %w", err)
	}
	return s, nil
}

func (s *APIKeyStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS api_keys (
		key TEXT PRIMARY KEY,
		client_name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_seen_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_api_keys_active ON api_keys(is_active);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GenerateKey issues a new active key for a client.
func (s *APIKeyStore) GenerateKey(clientName string) (string, error) {
	key := "carelog_" + uuid.New().String()
	_, err := s.db.Exec(
		"INSERT INTO api_keys (key, client_name, is_active, created_at) VALUES (?, ?, TRUE, ?)",
		key, clientName, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to generate API key: %w", err)
	}
	return key, nil
}

// ValidateKey reports whether a key exists and is active. An unknown key is
// not an error.
func (s *APIKeyStore) ValidateKey(key string) (bool, error) {
	var isActive bool
	err := s.db.QueryRow("SELECT is_active FROM api_keys WHERE key = ?", key).Scan(&isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to validate API key: %w", err)
	}
	return isActive, nil
}

// RevokeKey deactivates a key. Revoked keys stay in the table for the list
// view.
func (s *APIKeyStore) RevokeKey(key string) error {
	_, err := s.db.Exec("UPDATE api_keys SET is_active = FALSE WHERE key = ?", key)
	return err
}

// UpdateLastSeen stamps a key's last activity.
func (s *APIKeyStore) UpdateLastSeen(key string) error {
	_, err := s.db.Exec("UPDATE api_keys SET last_seen_at = ? WHERE key = ?", time.Now(), key)
	return err
}

// ListKeys returns every issued key, newest first, with the computed online
// flag.
func (s *APIKeyStore) ListKeys() ([]APIKey, error) {
	rows, err := s.db.Query(
		"SELECT key, client_name, is_active, created_at, last_seen_at FROM api_keys ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var lastSeen sql.NullTime
		if err := rows.Scan(&k.Key, &k.ClientName, &k.IsActive, &k.CreatedAt, &lastSeen); err != nil {
			return nil, err
		}
		if lastSeen.Valid {
			k.LastSeenAt = &lastSeen.Time
			k.IsOnline = now.Sub(lastSeen.Time) <= apiKeyOnlineWindow
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
