// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/carelog/internal/database"
)

// HandleCustomers handles /api/v1/customers: GET lists (optional ?keyword=,
// matched against name and recognition number), POST creates.
func (s *Server) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		customers, err := s.Customers.List(r.URL.Query().Get("keyword"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"customers": customers, "count": len(customers)})

	case http.MethodPost:
		var c database.Customer
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
			return
		}
		if strings.TrimSpace(c.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		id, err := s.Customers.Create(c)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		c.CustomerID = id
		writeJSON(w, http.StatusCreated, c)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// HandleCustomerByID handles /api/v1/customers/{id}: GET, PUT, DELETE.
func (s *Server) HandleCustomerByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/customers/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid customer id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		customer, err := s.Customers.Get(id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if customer == nil {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeJSON(w, http.StatusOK, customer)

	case http.MethodPut:
		var c database.Customer
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
			return
		}
		c.CustomerID = id
		if err := s.Customers.Update(c); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, c)

	case http.MethodDelete:
		if err := s.Customers.Delete(id); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
