// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/carelog/internal/ai"
	"github.com/carelog/internal/careparse"
	"github.com/carelog/internal/database"
	"github.com/carelog/internal/evaluator"
	"github.com/carelog/internal/weekly"
)

func newTestServer(t *testing.T, mock *ai.MockClient) *Server {
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
	weeklyStore, err := database.NewWeeklyStatusStore(db)
	if err != nil {
		t.Fatalf("weekly store: %v", err)
	}
	evals, err := database.NewEvaluationStore(db)
	if err != nil {
		t.Fatalf("evaluation store: %v", err)
	}
	events, err := database.NewEventLogger(db)
	if err != nil {
		t.Fatalf("event logger: %v", err)
	}
	apiKeys, err := database.NewAPIKeyStore(db)
	if err != nil {
		t.Fatalf("api key store: %v", err)
	}

	return &Server{
		APIKeys:   apiKeys,
		Customers: customers,
		Records:   records,
		Weekly:    weeklyStore,
		Evals:     evals,
		Events:    events,
		Evaluator: evaluator.New(mock, evals, events, "gpt-4o-mini"),
		Analyzer:  weekly.NewAnalyzer(customers, records, weeklyStore),
		Writer:    weekly.NewWriter(mock, weeklyStore, events, "gpt-4o-mini"),
	}
}

func seedRecord(t *testing.T, s *Server, name, date string) int64 {
	t.Helper()
	rec := careparse.DailyRecord{
		Date:             date,
		CustomerName:     name,
		TotalServiceTime: "480분",
		MealBreakfast:    "일반식 전량",
		ToiletCare:       "대변 1회 소변 2회",
		PhysicalNote:     "워커 보행 연습 수행함",
		CognitiveNote:    "종이접기 집중함",
	}
	if _, err := s.Records.SaveParsedData([]careparse.DailyRecord{rec}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	customer, err := s.Customers.FindByName(name)
	if err != nil || customer == nil {
		t.Fatalf("find seeded customer: %v", err)
	}
	return customer.CustomerID
}

func doJSON(t *testing.T, handler http.HandlerFunc, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})
	rec := doJSON(t, s.HandleHealth, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "up" {
		t.Errorf("status=%v", body["status"])
	}
}

func TestCustomersCRUD(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})

	rec := doJSON(t, s.HandleCustomers, http.MethodPost, "/api/v1/customers",
		map[string]string{"name": "김영희", "birth_date": "1940-03-01", "grade": "3등급"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	var created database.Customer
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	rec = doJSON(t, s.HandleCustomers, http.MethodGet, "/api/v1/customers?keyword=영희", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "김영희") {
		t.Fatalf("list status=%d body=%s", rec.Code, rec.Body.String())
	}

	target := "/api/v1/customers/" + itoa(created.CustomerID)
	rec = doJSON(t, s.HandleCustomerByID, http.MethodGet, target, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status=%d", rec.Code)
	}

	created.Grade = "2등급"
	rec = doJSON(t, s.HandleCustomerByID, http.MethodPut, target, created)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.HandleCustomerByID, http.MethodDelete, target, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rec.Code)
	}
	rec = doJSON(t, s.HandleCustomerByID, http.MethodGet, target, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status=%d", rec.Code)
	}
}

func TestCustomersRejectsBlankName(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})
	rec := doJSON(t, s.HandleCustomers, http.MethodPost, "/api/v1/customers", map[string]string{"name": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHandleRecords(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})
	customerID := seedRecord(t, s, "김영희", "2025-11-11")

	rec := doJSON(t, s.HandleRecords, http.MethodGet, "/api/v1/records?customer_id="+itoa(customerID), nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "2025-11-11") {
		t.Fatalf("by customer status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.HandleRecords, http.MethodGet, "/api/v1/records?start=2025-11-10&end=2025-11-16", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "2025-11-11") {
		t.Fatalf("by range status=%d", rec.Code)
	}

	rec = doJSON(t, s.HandleRecords, http.MethodGet, "/api/v1/records", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing range should 400, got %d", rec.Code)
	}
}

func TestHandleRecordByID(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})
	customerID := seedRecord(t, s, "김영희", "2025-11-11")
	recordID, err := s.Records.FindRecordID(customerID, "2025-11-11")
	if err != nil || recordID == 0 {
		t.Fatalf("FindRecordID: %d %v", recordID, err)
	}

	rec := doJSON(t, s.HandleRecordByID, http.MethodGet, "/api/v1/records/"+itoa(recordID), nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "워커 보행") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.HandleRecordByID, http.MethodGet, "/api/v1/records/99999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing record status=%d", rec.Code)
	}
}

func TestHandleRunEvaluationsInProcess(t *testing.T) {
	mock := &ai.MockClient{Response: `{"consistency_score": 95, "specificity_score": 92, "grammar_score": 91, "reasoning_process": "명확", "suggestion_text": "유지"}`}
	s := newTestServer(t, mock)
	customerID := seedRecord(t, s, "김영희", "2025-11-11")

	rec := doJSON(t, s.HandleRunEvaluations, http.MethodPost, "/api/v1/evaluations/run", map[string]any{
		"customerId": customerID,
		"startDate":  "2025-11-10",
		"endDate":    "2025-11-16",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	recordID, err := s.Records.FindRecordID(customerID, "2025-11-11")
	if err != nil || recordID == 0 {
		t.Fatalf("FindRecordID: %d %v", recordID, err)
	}
	rec = doJSON(t, s.HandleEvaluations, http.MethodGet, "/api/v1/evaluations?record_id="+itoa(recordID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("fetch status=%d", rec.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 4 {
		t.Errorf("count=%d want 4", body.Count)
	}

	rec = doJSON(t, s.HandleEvaluationStats, http.MethodGet, "/api/v1/evaluations/stats?customer_id="+itoa(customerID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status=%d", rec.Code)
	}
	var stats database.EvaluationStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	// Two notes are filled in the seed record; the empty nursing/functional
	// notes store the neutral grade.
	if stats.Total != 4 || stats.ByGrade["우수"] != 2 || stats.ByGrade["평가없음"] != 2 {
		t.Errorf("stats=%+v", stats)
	}
}

func TestHandleWeeklyStatusAndReport(t *testing.T) {
	mock := &ai.MockClient{Response: "워커 보행 연습을 꾸준히 지속하며 의지를 보이심."}
	s := newTestServer(t, mock)
	customerID := seedRecord(t, s, "김영희", "2025-11-11")

	rec := doJSON(t, s.HandleWeeklyStatus, http.MethodPost, "/api/v1/weekly/status", map[string]any{
		"customer_id":   customerID,
		"customer_name": "김영희",
		"week_start":    "2025-11-10",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status call=%d body=%s", rec.Code, rec.Body.String())
	}
	var status weekly.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.CurrStart != "2025-11-10" || status.Trend == nil {
		t.Fatalf("unexpected status %+v", status)
	}

	rec = doJSON(t, s.HandleWeeklyReport, http.MethodPost, "/api/v1/weekly/report", map[string]any{
		"customer_id": customerID,
		"week_start":  "2025-11-10",
	})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "보이심") {
		t.Fatalf("report post=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.HandleWeeklyReport, http.MethodGet,
		"/api/v1/weekly/report?customer_id="+itoa(customerID)+"&start=2025-11-10&end=2025-11-16", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "보이심") {
		t.Fatalf("report get=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandleExport(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})
	seedRecord(t, s, "김영희", "2025-11-11")

	rec := doJSON(t, s.HandleExport, http.MethodGet, "/api/v1/export?start=2025-11-10&end=2025-11-16", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty workbook body")
	}
}

func TestHandleEvents(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})
	if err := s.Events.LogEvent("parse", "report.pdf", "parsed 3 records"); err != nil {
		t.Fatalf("log event: %v", err)
	}

	rec := doJSON(t, s.HandleEvents, http.MethodGet, "/api/v1/events", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "report.pdf") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.HandleEvents, http.MethodGet, "/api/v1/events?source=report.pdf", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "parsed 3 records") {
		t.Fatalf("by source status=%d", rec.Code)
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})
	s.RequireAuth = true
	handler := s.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status=%d", rec.Code)
	}

	// Health stays open
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status=%d", rec.Code)
	}

	key, err := s.APIKeys.GenerateKey("test client")
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.Header.Set("Authorization", "Bearer "+key)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestHandleUploadRejectsMissingFile(t *testing.T) {
	s := newTestServer(t, &ai.MockClient{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.HandleUpload(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s.HandleUpload, http.MethodGet, "/api/v1/upload", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("get status=%d", rec.Code)
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
