// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package server

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/carelog/internal/careparse"
	"github.com/carelog/internal/pdf"
)

// maxUploadBytes caps a single report PDF upload.
const maxUploadBytes = 64 << 20

// HandleUpload handles POST /api/v1/upload. The multipart "file" field is a
// care register PDF; it is parsed and the daily records stored. The original
// file is not kept.
func (s *Server) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("missing file field: %v", err))
		return
	}
	defer file.Close()

	// go-fitz opens by path, so spool the upload to a temp file first.
	tmpPath := filepath.Join(os.TempDir(), "carelog-upload-"+uuid.New().String()+".pdf")
	tmp, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmp.Close()

	records, saved, err := s.parseAndSave(tmpPath)
	if err != nil {
		log.Printf("HandleUpload: %s: %v", header.Filename, err)
		if logErr := s.Events.LogEvent("parse", header.Filename, err.Error()); logErr != nil {
			log.Printf("HandleUpload: log event: %v", logErr)
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	detail := fmt.Sprintf("parsed %d records, saved %d", len(records), saved)
	if err := s.Events.LogEvent("save", header.Filename, detail); err != nil {
		log.Printf("HandleUpload: log event: %v", err)
	}
	log.Printf("HandleUpload: %s: %s", header.Filename, detail)

	customers := map[string]bool{}
	for _, rec := range records {
		customers[rec.CustomerName] = true
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"filename":        header.Filename,
		"records_parsed":  len(records),
		"records_saved":   saved,
		"customers_found": len(customers),
	})
}

// parseAndSave runs the extract-parse-store pipeline for one PDF.
func (s *Server) parseAndSave(path string) ([]careparse.DailyRecord, int, error) {
	pages, err := pdf.ExtractPages(path)
	if err != nil {
		return nil, 0, fmt.Errorf("extract pages: %w", err)
	}

	parser := careparse.New(s.ParseOpts)
	records := parser.Parse(pages)
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("no daily records found in document")
	}

	saved, err := s.Records.SaveParsedData(records)
	if err != nil {
		return records, 0, fmt.Errorf("save records: %w", err)
	}
	return records, saved, nil
}
