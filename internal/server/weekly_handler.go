// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// HandleWeeklyStatus handles POST /api/v1/weekly/status: compute (or load
// from cache) the two-week analysis for one customer.
func (s *Server) HandleWeeklyStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		CustomerID   int64  `json:"customer_id"`
		CustomerName string `json:"customer_name"`
		WeekStart    string `json:"week_start"`
		Refresh      bool   `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if req.WeekStart == "" || (req.CustomerID <= 0 && req.CustomerName == "") {
		writeError(w, http.StatusBadRequest, "week_start and customer_id or customer_name are required")
		return
	}

	status, err := s.Analyzer.ComputeStatus(req.CustomerName, req.WeekStart, req.CustomerID, !req.Refresh)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// HandleWeeklyReport handles /api/v1/weekly/report. GET loads a saved
// narrative (?customer_id=&start=&end=); POST computes the weekly status and
// writes a new narrative over it.
func (s *Server) HandleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customerID, err := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64)
		if err != nil || customerID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		start := r.URL.Query().Get("start")
		end := r.URL.Query().Get("end")
		if start == "" || end == "" {
			writeError(w, http.StatusBadRequest, "start and end are required")
			return
		}
		text, err := s.Weekly.Load(customerID, start, end)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if text == "" {
			writeError(w, http.StatusNotFound, "no report for this week")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"report": text, "start": start, "end": end})

	case http.MethodPost:
		var req struct {
			CustomerID   int64  `json:"customer_id"`
			CustomerName string `json:"customer_name"`
			WeekStart    string `json:"week_start"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
			return
		}
		if req.CustomerID <= 0 || req.WeekStart == "" {
			writeError(w, http.StatusBadRequest, "customer_id and week_start are required")
			return
		}
		if req.CustomerName == "" {
			customer, err := s.Customers.Get(req.CustomerID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			if customer == nil {
				writeError(w, http.StatusNotFound, "customer not found")
				return
			}
			req.CustomerName = customer.Name
		}

		status, err := s.Analyzer.ComputeStatus(req.CustomerName, req.WeekStart, req.CustomerID, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if status.Trend == nil {
			writeError(w, http.StatusNotFound, "no records for this week")
			return
		}

		report, err := s.Writer.GenerateAndSave(r.Context(), req.CustomerID, req.CustomerName, status.CurrStart, status.CurrEnd, status.Trend.Payload)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"report": report,
			"start":  status.CurrStart,
			"end":    status.CurrEnd,
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
