// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const installDateKey = "install_date"

// SystemMetadataStore persists small key/value facts about the installation,
// currently just the install date reported by the health endpoint.
type SystemMetadataStore struct {
	db *sql.DB
}

// NewSystemMetadataStore creates a metadata store and its schema.
func NewSystemMetadataStore(db *sql.DB) (*SystemMetadataStore, error) {
	s := &SystemMetadataStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize system_metadata schema: %w", err)
	}
	return s, nil
}

func (s *SystemMetadataStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS system_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value for a key, or "" when unset.
func (s *SystemMetadataStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM system_metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}
	return value, nil
}

// Set stores or replaces the value for a key.
func (s *SystemMetadataStore) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO system_metadata (key, value) VALUES (?, ?)",
		key, value)
	return err
}

// EnsureInstallDate records today as the install date if none is set yet,
// and returns the date in effect.
func (s *SystemMetadataStore) EnsureInstallDate() (string, error) {
	existing, err := s.Get(installDateKey)
	if err != nil {
		return "", err
	}
	if existing != "" {
		return existing, nil
	}

	installDate := time.Now().Format("2006-01-02")
	if err := s.Set(installDateKey, installDate); err != nil {
		return "", fmt.Errorf("failed to set install_date: %w", err)
	}
	return installDate, nil
}

// GetInstallDate parses the stored install date. Errors when it was never
// set.
func (s *SystemMetadataStore) GetInstallDate() (time.Time, error) {
	dateStr, err := s.Get(installDateKey)
	if err != nil {
		return time.Time{}, err
	}
	if dateStr == "" {
		return time.Time{}, fmt.Errorf("install_date not set")
	}

	installDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse install_date: %w", err)
	}
	return installDate, nil
}

// GetDaysActive returns whole days since installation.
func (s *SystemMetadataStore) GetDaysActive() (int, error) {
	installDate, err := s.GetInstallDate()
	if err != nil {
		return 0, err
	}
	return int(time.Since(installDate).Hours() / 24), nil
}
