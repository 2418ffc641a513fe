// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package evaluator grades care notes with a language model and stores the
// results. Model failures degrade to a neutral "no evaluation" result
// instead of failing the batch.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/carelog/internal/ai"
	"github.com/carelog/internal/database"
)

// Grade codes shown in the review UI.
const (
	GradeExcellent = "우수"
	GradeAverage   = "평균"
	GradeImprove   = "개선"
	GradeNone      = "평가없음"
)

// evalResult is the model's JSON response for one note.
type evalResult struct {
	ConsistencyScore int    `json:"consistency_score"`
	SpecificityScore int    `json:"specificity_score"`
	GrammarScore     int    `json:"grammar_score"`
	ReasoningProcess string `json:"reasoning_process"`
	SuggestionText   string `json:"suggestion_text"`
}

// skipTexts are note values that carry nothing worth evaluating.
var skipTexts = map[string]bool{
	"":        true,
	"특이사항 없음": true,
	"특이사항없음":  true,
	"결석":      true,
}

// Evaluator grades notes and persists evaluations.
type Evaluator struct {
	client ai.Client
	store  *database.EvaluationStore
	events *database.EventLogger
	model  string
}

// New creates an evaluator. events may be nil to skip audit logging.
func New(client ai.Client, store *database.EvaluationStore, events *database.EventLogger, model string) *Evaluator {
	return &Evaluator{client: client, store: store, events: events, model: model}
}

// calculateGrade maps the three scores to a grade code.
func calculateGrade(r evalResult) string {
	average := float64(r.ConsistencyScore+r.GrammarScore+r.SpecificityScore) / 3
	switch {
	case average >= 90:
		return GradeExcellent
	case average >= 75:
		return GradeAverage
	default:
		return GradeImprove
	}
}

// evaluateNote asks the model to grade one note. Returns nil for notes not
// worth evaluating.
func (e *Evaluator) evaluateNote(ctx context.Context, noteText, category, writer, customerName, date string) (*evalResult, error) {
	if skipTexts[strings.TrimSpace(noteText)] {
		return nil, nil
	}

	response, err := e.client.ChatCompletion(ctx, ai.ChatRequest{
		Model: e.model,
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(noteText, category, writer, customerName, date)},
		},
		Temperature: 0.7,
		JSONOnly:    true,
	})
	if err != nil {
		return nil, err
	}

	var result evalResult
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON: %w", err)
	}
	return &result, nil
}

// ProcessNote evaluates one note and stores the result under
// (recordID, category). A model failure or an empty note stores a neutral
// result and returns the neutral grade, never an error for the caller's
// batch to trip on.
func (e *Evaluator) ProcessNote(ctx context.Context, recordID int64, category, noteText, writer, customerName, date string) string {
	result, err := e.evaluateNote(ctx, noteText, category, writer, customerName, date)
	if err != nil {
		log.Printf("ProcessNote: evaluation failed for record %d %s: %v", recordID, category, err)
	}

	grade := GradeNone
	eval := database.Evaluation{
		RecordID:     recordID,
		Category:     category,
		GradeCode:    GradeNone,
		OriginalText: noteText,
	}
	if result != nil {
		grade = calculateGrade(*result)
		eval.GradeCode = grade
		eval.OERFidelity = strconv.Itoa(result.ConsistencyScore)
		eval.SpecificityScore = strconv.Itoa(result.SpecificityScore)
		eval.GrammarScore = strconv.Itoa(result.GrammarScore)
		eval.ReasonText = result.ReasoningProcess
		eval.SuggestionText = result.SuggestionText
	}

	if err := e.store.Save(eval); err != nil {
		log.Printf("ProcessNote: failed to save evaluation for record %d %s: %v", recordID, category, err)
	}
	return grade
}

// noteCategory pairs a record's note field with its evaluation category.
type noteCategory struct {
	category string
	note     func(database.RecordDetail) (text, writer string)
}

var noteCategories = []noteCategory{
	{"PHYSICAL", func(r database.RecordDetail) (string, string) { return r.PhysicalNote, r.WriterPhy }},
	{"COGNITIVE", func(r database.RecordDetail) (string, string) { return r.CognitiveNote, r.WriterCog }},
	{"NURSING", func(r database.RecordDetail) (string, string) { return r.NursingNote, r.WriterNur }},
	{"RECOVERY", func(r database.RecordDetail) (string, string) { return r.FunctionalNote, r.WriterFunc }},
}

// EvaluateRecord runs all four note categories of one record.
func (e *Evaluator) EvaluateRecord(ctx context.Context, rec database.RecordDetail, customerName string) {
	for _, nc := range noteCategories {
		text, writer := nc.note(rec)
		e.ProcessNote(ctx, rec.RecordID, nc.category, text, writer, customerName, rec.Date)
	}
	if e.events != nil {
		e.events.LogEvent("evaluate", customerName, fmt.Sprintf("evaluated record %d (%s)", rec.RecordID, rec.Date))
	}
}

// batchWorkers is the evaluation pool width. Provider rate limits make a
// wider pool counterproductive.
const batchWorkers = 4

// EvaluateBatch evaluates a set of records concurrently. customerNames maps
// customer IDs to display names for the prompt context.
func (e *Evaluator) EvaluateBatch(ctx context.Context, records []database.RecordDetail, customerNames map[int64]string) {
	if len(records) == 0 {
		return
	}

	jobs := make(chan database.RecordDetail)
	var wg sync.WaitGroup

	for i := 0; i < batchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				e.EvaluateRecord(ctx, rec, customerNames[rec.CustomerID])
			}
		}()
	}

	for _, rec := range records {
		select {
		case jobs <- rec:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()

	log.Printf("EvaluateBatch: evaluated %d records", len(records))
}
