// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/carelog/internal/jobs"
)

// HandleEvaluations handles GET /api/v1/evaluations?record_id=N: the stored
// evaluations for one record, one per note category.
func (s *Server) HandleEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	recordID, err := strconv.ParseInt(r.URL.Query().Get("record_id"), 10, 64)
	if err != nil || recordID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid record_id")
		return
	}

	evals, err := s.Evals.ListByRecord(recordID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"evaluations": evals, "count": len(evals)})
}

// HandleEvaluationStats handles GET /api/v1/evaluations/stats?customer_id=N:
// grade and category counts over all of a customer's evaluations.
func (s *Server) HandleEvaluationStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	customerID, err := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
	if err != nil || customerID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid customer_id")
		return
	}

	stats, err := s.Evals.CustomerStats(customerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleRunEvaluations handles POST /api/v1/evaluations/run: grade every
// note of a customer's records in a date range. With Redis available the
// work is enqueued for the worker pool; otherwise it runs in-process before
// the response is written.
func (s *Server) HandleRunEvaluations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload jobs.EvaluateRecordsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if payload.CustomerID <= 0 || payload.StartDate == "" || payload.EndDate == "" {
		writeError(w, http.StatusBadRequest, "customerId, startDate and endDate are required")
		return
	}
	payload.RequestedAt = time.Now()

	if s.JobQueue != nil {
		if err := jobs.EnqueueEvaluateRecords(r.Context(), s.JobQueue, payload); err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to enqueue: %v", err))
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "enqueued"})
		return
	}

	customer, err := s.Customers.Get(payload.CustomerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if customer == nil {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	records, err := s.Records.GetCustomerRecords(payload.CustomerID, payload.StartDate, payload.EndDate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(records) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records_evaluated": 0})
		return
	}

	s.Evaluator.EvaluateBatch(r.Context(), records, map[int64]string{customer.CustomerID: customer.Name})
	log.Printf("HandleRunEvaluations: evaluated %d records for customer %d in-process", len(records), customer.CustomerID)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records_evaluated": len(records)})
}
