// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Evaluation is one model-generated quality review of a care note.
type Evaluation struct {
	EvalID           int64     `json:"eval_id"`
	RecordID         int64     `json:"record_id"`
	Category         string    `json:"category"`
	OERFidelity      string    `json:"oer_fidelity"`
	SpecificityScore string    `json:"specificity_score"`
	GrammarScore     string    `json:"grammar_score"`
	GradeCode        string    `json:"grade_code"`
	ReasonText       string    `json:"reason_text"`
	SuggestionText   string    `json:"suggestion_text"`
	OriginalText     string    `json:"original_text"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// evaluationCategoryNames maps internal category codes to the Korean
// section names stored in the table and shown in the UI.
var evaluationCategoryNames = map[string]string{
	"PHYSICAL":  "신체",
	"COGNITIVE": "인지",
	"NURSING":   "간호",
	"RECOVERY":  "기능",
}

// EvaluationCategory normalizes a category code to its stored form.
// Unknown codes pass through unchanged.
func EvaluationCategory(code string) string {
	if name, ok := evaluationCategoryNames[code]; ok {
		return name
	}
	return code
}

// EvaluationStore persists note quality evaluations keyed on
// (record, category).
type EvaluationStore struct {
	db *sql.DB
}

// NewEvaluationStore creates an evaluation store and its schema.
func NewEvaluationStore(db *sql.DB) (*EvaluationStore, error) {
	s := &EvaluationStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize evaluations schema: %w", err)
	}
	return s, nil
}

func (s *EvaluationStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS ai_evaluations (
		eval_id INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id INTEGER NOT NULL,
		category TEXT NOT NULL,
		oer_fidelity TEXT,
		specificity_score TEXT,
		grammar_score TEXT,
		grade_code TEXT,
		reason_text TEXT,
		suggestion_text TEXT,
		original_text TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(record_id, category)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores or replaces the evaluation for a (record, category) pair.
func (s *EvaluationStore) Save(e Evaluation) error {
	_, err := s.db.Exec(`
		INSERT INTO ai_evaluations (record_id, category, oer_fidelity, specificity_score, grammar_score, grade_code, reason_text, suggestion_text, original_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_id, category) DO UPDATE SET
			oer_fidelity = excluded.oer_fidelity,
			specificity_score = excluded.specificity_score,
			grammar_score = excluded.grammar_score,
			grade_code = excluded.grade_code,
			reason_text = excluded.reason_text,
			suggestion_text = excluded.suggestion_text,
			original_text = excluded.original_text,
			updated_at = CURRENT_TIMESTAMP`,
		e.RecordID, EvaluationCategory(e.Category),
		e.OERFidelity, e.SpecificityScore, e.GrammarScore, e.GradeCode,
		nullIfEmpty(e.ReasonText), nullIfEmpty(e.SuggestionText), e.OriginalText,
	)
	return err
}

const evaluationColumns = "eval_id, record_id, category, oer_fidelity, specificity_score, grammar_score, grade_code, reason_text, suggestion_text, original_text, created_at, updated_at"

func scanEvaluation(scan func(...any) error) (Evaluation, error) {
	var e Evaluation
	var fidelity, specificity, grammar, grade, reason, suggestion, original sql.NullString
	err := scan(&e.EvalID, &e.RecordID, &e.Category,
		&fidelity, &specificity, &grammar, &grade, &reason, &suggestion, &original,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.OERFidelity = fidelity.String
	e.SpecificityScore = specificity.String
	e.GrammarScore = grammar.String
	e.GradeCode = grade.String
	e.ReasonText = reason.String
	e.SuggestionText = suggestion.String
	e.OriginalText = original.String
	return e, nil
}

// Get returns the evaluation for a (record, category) pair, or nil when none
// exists.
func (s *EvaluationStore) Get(recordID int64, category string) (*Evaluation, error) {
	row := s.db.QueryRow(
		"SELECT "+evaluationColumns+" FROM ai_evaluations WHERE record_id = ? AND category = ?",
		recordID, EvaluationCategory(category))
	e, err := scanEvaluation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByRecord returns every evaluation stored for a record.
func (s *EvaluationStore) ListByRecord(recordID int64) ([]Evaluation, error) {
	rows, err := s.db.Query(
		"SELECT "+evaluationColumns+" FROM ai_evaluations WHERE record_id = ? ORDER BY category",
		recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		e, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

// EvaluationStats summarizes a customer's evaluations per grade.
type EvaluationStats struct {
	CustomerID int64          `json:"customer_id"`
	Total      int            `json:"total"`
	ByGrade    map[string]int `json:"by_grade"`
	ByCategory map[string]int `json:"by_category"`
}

// CustomerStats aggregates grade and category counts over every evaluation
// of a customer's records.
func (s *EvaluationStore) CustomerStats(customerID int64) (*EvaluationStats, error) {
	rows, err := s.db.Query(`
		SELECT e.grade_code, e.category, COUNT(*)
		FROM ai_evaluations e
		JOIN daily_infos di ON di.record_id = e.record_id
		WHERE di.customer_id = ?
		GROUP BY e.grade_code, e.category`,
		customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &EvaluationStats{
		CustomerID: customerID,
		ByGrade:    make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for rows.Next() {
		var grade, category sql.NullString
		var count int
		if err := rows.Scan(&grade, &category, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		stats.ByGrade[grade.String] += count
		stats.ByCategory[category.String] += count
	}
	return stats, rows.Err()
}

// ListByRecords returns evaluations for a set of records, grouped by record
// ID. Used by the review UI to decorate a customer's record list in one
// query.
func (s *EvaluationStore) ListByRecords(recordIDs []int64) (map[int64][]Evaluation, error) {
	result := make(map[int64][]Evaluation)
	if len(recordIDs) == 0 {
		return result, nil
	}

	query := "SELECT " + evaluationColumns + " FROM ai_evaluations WHERE record_id IN (?"
	args := []any{recordIDs[0]}
	for _, id := range recordIDs[1:] {
		query += ", ?"
		args = append(args, id)
	}
	query += ") ORDER BY record_id, category"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvaluation(rows.Scan)
		if err != nil {
			return nil, err
		}
		result[e.RecordID] = append(result[e.RecordID], e)
	}
	return result, rows.Err()
}
