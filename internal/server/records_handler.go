// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"net/http"
	"strconv"
	"strings"
)

// HandleRecords handles GET /api/v1/records. With ?customer_id= the records
// for that customer are returned (newest first); the range is optional there.
// Without a customer the inclusive ?start=/?end= range is required and every
// customer's records in it are returned, oldest first. Dates are YYYY-MM-DD.
func (s *Server) HandleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")

	if idStr := r.URL.Query().Get("customer_id"); idStr != "" {
		customerID, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || customerID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		records, err := s.Records.GetCustomerRecords(customerID, start, end)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
		return
	}

	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end are required without customer_id")
		return
	}
	records, err := s.Records.GetByDateRange(start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records, "count": len(records)})
}

// HandleRecordByID handles GET /api/v1/records/{id}: one record with all
// four category sections, its evaluations attached when present.
func (s *Server) HandleRecordByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/records/")
	recordID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || recordID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}

	record, err := s.Records.GetRecord(recordID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	evals, err := s.Evals.ListByRecord(recordID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": record, "evaluations": evals})
}
