// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package jobs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/carelog/internal/ai"
	"github.com/carelog/internal/careparse"
	"github.com/carelog/internal/database"
	"github.com/carelog/internal/evaluator"
	"github.com/carelog/internal/queue"
	"github.com/carelog/internal/weekly"
)

func newTestHandlers(t *testing.T, mock *ai.MockClient) (*Handlers, *database.EvaluationStore, *database.WeeklyStatusStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	customers, err := database.NewCustomerStore(db)
	if err != nil {
		t.Fatalf("customer store: %v", err)
	}
	records, err := database.NewRecordStore(db, customers)
	if err != nil {
		t.Fatalf("record store: %v", err)
	}
	evaluations, err := database.NewEvaluationStore(db)
	if err != nil {
		t.Fatalf("evaluation store: %v", err)
	}
	status, err := database.NewWeeklyStatusStore(db)
	if err != nil {
		t.Fatalf("weekly status store: %v", err)
	}

	h := &Handlers{
		Customers: customers,
		Records:   records,
		Evaluator: evaluator.New(mock, evaluations, nil, "gpt-4o-mini"),
		Analyzer:  weekly.NewAnalyzer(customers, records, status),
		Writer:    weekly.NewWriter(mock, status, nil, "gpt-4o-mini"),
	}
	return h, evaluations, status
}

func saveSampleRecord(t *testing.T, h *Handlers, date string) int64 {
	t.Helper()
	rec := careparse.DailyRecord{
		Date:             date,
		CustomerName:     "박철수",
		TotalServiceTime: "480분",
		PhysicalNote:     "워커 보행 연습 수행함",
	}
	if _, err := h.Records.SaveParsedData([]careparse.DailyRecord{rec}); err != nil {
		t.Fatalf("save record: %v", err)
	}
	customer, err := h.Customers.FindByName("박철수")
	if err != nil || customer == nil {
		t.Fatalf("find customer: %v", err)
	}
	return customer.CustomerID
}

func TestHandleEvaluateRecords(t *testing.T) {
	mock := &ai.MockClient{Response: `{"consistency_score": 95, "specificity_score": 92, "grammar_score": 90, "reasoning_process": "구조 명확", "suggestion_text": "유지"}`}
	h, evaluations, _ := newTestHandlers(t, mock)
	customerID := saveSampleRecord(t, h, "2025-11-11")

	job, err := NewEvaluateRecordsJob(EvaluateRecordsPayload{
		CustomerID: customerID,
		StartDate:  "2025-11-10",
		EndDate:    "2025-11-16",
	})
	if err != nil {
		t.Fatalf("NewEvaluateRecordsJob: %v", err)
	}
	if err := h.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	recordID, err := h.Records.FindRecordID(customerID, "2025-11-11")
	if err != nil || recordID == 0 {
		t.Fatalf("FindRecordID: id=%d err=%v", recordID, err)
	}
	evals, err := evaluations.ListByRecord(recordID)
	if err != nil {
		t.Fatalf("ListByRecord: %v", err)
	}
	if len(evals) != 4 {
		t.Fatalf("evaluations=%d want 4 (one per category)", len(evals))
	}
}

type fakeNotifier struct {
	types []string
}

func (f *fakeNotifier) Broadcast(notificationType, message, level string) error {
	f.types = append(f.types, notificationType)
	return nil
}

func TestHandleEvaluateRecordsNotifies(t *testing.T) {
	mock := &ai.MockClient{Response: `{"consistency_score": 95, "specificity_score": 92, "grammar_score": 90, "reasoning_process": "구조 명확", "suggestion_text": "유지"}`}
	h, _, _ := newTestHandlers(t, mock)
	notifier := &fakeNotifier{}
	h.Notifier = notifier
	customerID := saveSampleRecord(t, h, "2025-11-11")

	job, _ := NewEvaluateRecordsJob(EvaluateRecordsPayload{CustomerID: customerID, StartDate: "2025-11-10", EndDate: "2025-11-16"})
	if err := h.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(notifier.types) != 1 || notifier.types[0] != "evaluation_complete" {
		t.Errorf("broadcasts=%v want [evaluation_complete]", notifier.types)
	}
}

func TestHandleEvaluateRecordsUnknownCustomer(t *testing.T) {
	h, _, _ := newTestHandlers(t, &ai.MockClient{})
	job, _ := NewEvaluateRecordsJob(EvaluateRecordsPayload{CustomerID: 999, StartDate: "2025-11-10", EndDate: "2025-11-16"})
	if err := h.Handle(context.Background(), job); err != nil {
		t.Fatalf("missing customer should be dropped, got %v", err)
	}
}

func TestHandleWeeklyReport(t *testing.T) {
	mock := &ai.MockClient{Response: "워커 보행 연습을 꾸준히 지속하며 하체 근력을 유지하려는 의지를 보이심."}
	h, _, status := newTestHandlers(t, mock)
	customerID := saveSampleRecord(t, h, "2025-11-11")

	job, err := NewWeeklyReportJob(WeeklyReportPayload{
		CustomerID:   customerID,
		CustomerName: "박철수",
		WeekStart:    "2025-11-10",
	})
	if err != nil {
		t.Fatalf("NewWeeklyReportJob: %v", err)
	}
	if err := h.Handle(context.Background(), job); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	saved, err := status.Load(customerID, "2025-11-10", "2025-11-16")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved != mock.Response {
		t.Errorf("saved report %q", saved)
	}
}

func TestHandleUnknownJobType(t *testing.T) {
	h, _, _ := newTestHandlers(t, &ai.MockClient{})
	job := queue.Job{Type: "reindex", Payload: json.RawMessage(`{}`), CreatedAt: time.Now()}
	if err := h.Handle(context.Background(), job); err != nil {
		t.Fatalf("unknown job type should be dropped, got %v", err)
	}
}

func TestHandleMalformedPayload(t *testing.T) {
	h, _, _ := newTestHandlers(t, &ai.MockClient{})
	job := queue.Job{Type: JobTypeEvaluateRecords, Payload: json.RawMessage(`{"customerId": "not-a-number"`), CreatedAt: time.Now()}
	if err := h.Handle(context.Background(), job); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
