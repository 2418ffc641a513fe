// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/carelog/internal/database"
)

var exportHeader = []string{
	"날짜", "고객명", "총 시간", "시작", "종료",
	"아침", "점심", "저녁", "배설", "목욕",
	"신체 특이사항", "인지 특이사항", "간호 특이사항", "기능회복 특이사항",
}

// HandleExport handles GET /api/v1/export?start=&end=[&customer_id=]: the
// records in the range as an .xlsx download.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		writeError(w, http.StatusBadRequest, "start and end are required")
		return
	}

	var (
		records []database.RecordDetail
		err     error
	)
	if idStr := r.URL.Query().Get("customer_id"); idStr != "" {
		customerID, parseErr := strconv.ParseInt(idStr, 10, 64)
		if parseErr != nil || customerID <= 0 {
			writeError(w, http.StatusBadRequest, "invalid customer_id")
			return
		}
		records, err = s.Records.GetCustomerRecords(customerID, start, end)
	} else {
		records, err = s.Records.GetByDateRange(start, end)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	names := map[int64]string{}
	for _, rec := range records {
		if _, ok := names[rec.CustomerID]; ok {
			continue
		}
		customer, err := s.Customers.Get(rec.CustomerID)
		if err == nil && customer != nil {
			names[rec.CustomerID] = customer.Name
		}
	}

	book, err := buildExportWorkbook(records, names)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer book.Close()

	if err := s.Events.LogEvent("report", "export", fmt.Sprintf("exported %d records %s..%s", len(records), start, end)); err != nil {
		log.Printf("HandleExport: log event: %v", err)
	}

	filename := fmt.Sprintf("records_%s_%s.xlsx", start, end)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := book.Write(w); err != nil {
		log.Printf("HandleExport: write workbook: %v", err)
	}
}

// buildExportWorkbook renders records as one sheet, one row per daily record.
func buildExportWorkbook(records []database.RecordDetail, names map[int64]string) (*excelize.File, error) {
	book := excelize.NewFile()
	const sheet = "기록"
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := book.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}

	for i, rec := range records {
		values := []any{
			rec.Date, names[rec.CustomerID], rec.TotalServiceTime, rec.StartTime, rec.EndTime,
			rec.MealBreakfast, rec.MealLunch, rec.MealDinner, rec.ToiletCare, rec.BathTime,
			rec.PhysicalNote, rec.CognitiveNote, rec.NursingNote, rec.FunctionalNote,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := book.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}
	return book, nil
}
