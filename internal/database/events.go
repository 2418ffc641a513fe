// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Event is one row of the processing audit trail: an upload parsed, a batch
// saved, an evaluation run, a weekly report generated.
type Event struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"event_type"` // parse, save, evaluate, report, alert
	SourceName string    `json:"source_name"`
	Details    string    `json:"details"`
}

// EventLogger writes and reads the events table.
type EventLogger struct {
	db *sql.DB
}

func NewEventLogger(db *sql.DB) (*EventLogger, error) {
	logger := &EventLogger{db: db}
	if err := logger.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize events schema: %w", err)
	}
	return logger, nil
}

func (e *EventLogger) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		event_type TEXT NOT NULL,
		source_name TEXT NOT NULL,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_events_source_name ON events(source_name);
	`
	_, err := e.db.Exec(schema)
	return err
}

// LogEvent appends one event. sourceName is the uploaded file or the
// customer the event concerns.
func (e *EventLogger) LogEvent(eventType, sourceName, details string) error {
	_, err := e.db.Exec(
		"INSERT INTO events (timestamp, event_type, source_name, details) VALUES (?, ?, ?, ?)",
		time.Now(), eventType, sourceName, details,
	)
	return err
}

// GetRecentEvents returns the newest events, capped at limit (default 100).
func (e *EventLogger) GetRecentEvents(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	return e.query(
		"SELECT id, timestamp, event_type, source_name, details FROM events ORDER BY timestamp DESC LIMIT ?",
		limit,
	)
}

// GetEventsBySource returns every event for one source, newest first.
func (e *EventLogger) GetEventsBySource(sourceName string) ([]Event, error) {
	return e.query(
		"SELECT id, timestamp, event_type, source_name, details FROM events WHERE source_name = ? ORDER BY timestamp DESC",
		sourceName,
	)
}

func (e *EventLogger) query(q string, args ...any) ([]Event, error) {
	rows, err := e.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.EventType, &ev.SourceName, &ev.Details); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
