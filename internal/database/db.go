// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (or creates) the SQLite database at path. WAL mode keeps
// readers unblocked while an upload batch is being written.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection gets its own private in-memory database,
		// so the pool must be capped at one or schema init lands on a
		// different database than later queries.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	return db, nil
}

// nullIfEmpty maps "" to SQL NULL. Parser output uses empty strings for
// fields it could not read; the schema distinguishes absent from blank.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
