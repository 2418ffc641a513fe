// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// WeeklyStatus is a cached weekly report for one customer and week.
type WeeklyStatus struct {
	CustomerID int64     `json:"customer_id"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
	ReportText string    `json:"report_text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// WeeklyStatusStore caches generated weekly reports so a week is only sent
// to the language model once.
type WeeklyStatusStore struct {
	db *sql.DB
}

// NewWeeklyStatusStore creates a weekly status store and its schema.
func NewWeeklyStatusStore(db *sql.DB) (*WeeklyStatusStore, error) {
	s := &WeeklyStatusStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize weekly_status schema: %w", err)
	}
	return s, nil
}

func (s *WeeklyStatusStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS weekly_status (
		customer_id INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		report_text TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (customer_id, start_date, end_date)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores or replaces the report for a (customer, week) key.
func (s *WeeklyStatusStore) Save(customerID int64, startDate, endDate, reportText string) error {
	_, err := s.db.Exec(`
		INSERT INTO weekly_status (customer_id, start_date, end_date, report_text)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(customer_id, start_date, end_date) DO UPDATE SET
			report_text = excluded.report_text,
			updated_at = CURRENT_TIMESTAMP`,
		customerID, startDate, endDate, reportText,
	)
	return err
}

// Load returns the cached report for a (customer, week) key, or "" when none
// exists.
func (s *WeeklyStatusStore) Load(customerID int64, startDate, endDate string) (string, error) {
	var text string
	err := s.db.QueryRow(
		"SELECT report_text FROM weekly_status WHERE customer_id = ? AND start_date = ? AND end_date = ?",
		customerID, startDate, endDate).Scan(&text)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return text, err
}

// ListByCustomer returns a customer's cached reports, newest week first.
func (s *WeeklyStatusStore) ListByCustomer(customerID int64, limit int) ([]WeeklyStatus, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`
		SELECT customer_id, start_date, end_date, report_text, created_at, updated_at
		FROM weekly_status
		WHERE customer_id = ?
		ORDER BY start_date DESC
		LIMIT ?`,
		customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []WeeklyStatus
	for rows.Next() {
		var w WeeklyStatus
		if err := rows.Scan(&w.CustomerID, &w.StartDate, &w.EndDate, &w.ReportText, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		statuses = append(statuses, w)
	}
	return statuses, rows.Err()
}

// Delete removes a cached report so the next request regenerates it.
func (s *WeeklyStatusStore) Delete(customerID int64, startDate, endDate string) error {
	_, err := s.db.Exec(
		"DELETE FROM weekly_status WHERE customer_id = ? AND start_date = ? AND end_date = ?",
		customerID, startDate, endDate)
	return err
}
