// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/carelog/internal/ai"
	"github.com/carelog/internal/database"
)

func newTestEvaluator(t *testing.T, client ai.Client) (*Evaluator, *database.EvaluationStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := database.NewEvaluationStore(db)
	if err != nil {
		t.Fatalf("failed to create evaluation store: %v", err)
	}
	return New(client, store, nil, ""), store
}

func TestCalculateGrade(t *testing.T) {
	tests := []struct {
		scores [3]int
		want   string
	}{
		{[3]int{95, 90, 90}, GradeExcellent},
		{[3]int{90, 90, 90}, GradeExcellent},
		{[3]int{80, 75, 80}, GradeAverage},
		{[3]int{60, 50, 70}, GradeImprove},
		{[3]int{0, 0, 0}, GradeImprove},
	}
	for _, tt := range tests {
		r := evalResult{ConsistencyScore: tt.scores[0], GrammarScore: tt.scores[1], SpecificityScore: tt.scores[2]}
		if got := calculateGrade(r); got != tt.want {
			t.Errorf("calculateGrade(%v) = %q, want %q", tt.scores, got, tt.want)
		}
	}
}

func TestProcessNoteStoresResult(t *testing.T) {
	mock := &ai.MockClient{Response: `{
		"consistency_score": 95,
		"specificity_score": 90,
		"grammar_score": 92,
		"reasoning_process": "구체적인 관찰과 조치가 담겨 있음",
		"suggestion_text": "산책 중 안정적으로 보행하심"
	}`}
	e, store := newTestEvaluator(t, mock)

	grade := e.ProcessNote(context.Background(), 1, "PHYSICAL", "산책함", "김요양", "홍길동", "2025-11-05")
	if grade != GradeExcellent {
		t.Errorf("grade = %q, want %q", grade, GradeExcellent)
	}

	saved, err := store.Get(1, "PHYSICAL")
	if err != nil || saved == nil {
		t.Fatalf("evaluation not stored: %v", err)
	}
	if saved.GradeCode != GradeExcellent || saved.SuggestionText != "산책 중 안정적으로 보행하심" {
		t.Errorf("unexpected stored evaluation: %+v", saved)
	}
	if saved.OriginalText != "산책함" {
		t.Errorf("original text not stored: %q", saved.OriginalText)
	}
}

func TestProcessNoteFailureIsNeutral(t *testing.T) {
	mock := &ai.MockClient{Err: errors.New("provider down")}
	e, store := newTestEvaluator(t, mock)

	grade := e.ProcessNote(context.Background(), 1, "NURSING", "혈압 정상", "", "홍길동", "2025-11-05")
	if grade != GradeNone {
		t.Errorf("failed evaluation should be neutral, got %q", grade)
	}

	saved, err := store.Get(1, "NURSING")
	if err != nil || saved == nil {
		t.Fatalf("neutral evaluation not stored: %v", err)
	}
	if saved.GradeCode != GradeNone {
		t.Errorf("stored grade = %q, want %q", saved.GradeCode, GradeNone)
	}
}

func TestProcessNoteSkipsEmptyNotes(t *testing.T) {
	mock := &ai.MockClient{Response: `{}`}
	e, _ := newTestEvaluator(t, mock)

	for _, text := range []string{"", "  ", "특이사항 없음", "결석"} {
		if grade := e.ProcessNote(context.Background(), 1, "PHYSICAL", text, "", "홍길동", "2025-11-05"); grade != GradeNone {
			t.Errorf("note %q should skip evaluation, got grade %q", text, grade)
		}
	}
	if len(mock.Requests) != 0 {
		t.Errorf("model should not be called for empty notes, got %d calls", len(mock.Requests))
	}
}

func TestProcessNoteInvalidJSON(t *testing.T) {
	mock := &ai.MockClient{Response: "죄송하지만 평가할 수 없습니다."}
	e, store := newTestEvaluator(t, mock)

	grade := e.ProcessNote(context.Background(), 7, "RECOVERY", "체조 참여", "", "홍길동", "2025-11-05")
	if grade != GradeNone {
		t.Errorf("invalid JSON should be neutral, got %q", grade)
	}
	saved, err := store.Get(7, "RECOVERY")
	if err != nil || saved == nil || saved.GradeCode != GradeNone {
		t.Errorf("neutral result not stored: %+v (%v)", saved, err)
	}
}

func TestEvaluateBatch(t *testing.T) {
	mock := &ai.MockClient{Response: `{"consistency_score": 80, "specificity_score": 80, "grammar_score": 80}`}
	e, store := newTestEvaluator(t, mock)

	records := []database.RecordDetail{
		{RecordID: 1, CustomerID: 1, Date: "2025-11-05", PhysicalNote: "산책함"},
		{RecordID: 2, CustomerID: 1, Date: "2025-11-06", PhysicalNote: "체조 참여"},
	}
	e.EvaluateBatch(context.Background(), records, map[int64]string{1: "홍길동"})

	for _, id := range []int64{1, 2} {
		saved, err := store.Get(id, "PHYSICAL")
		if err != nil || saved == nil {
			t.Fatalf("record %d not evaluated: %v", id, err)
		}
		if saved.GradeCode != GradeAverage {
			t.Errorf("record %d grade = %q", id, saved.GradeCode)
		}
	}
}
