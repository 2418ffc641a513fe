// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Uploader sends care register PDFs to the server's upload endpoint.
type Uploader struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
}

// UploadResult is the server's response to a successful upload.
type UploadResult struct {
	Status         string `json:"status"`
	Filename       string `json:"filename"`
	RecordsParsed  int    `json:"records_parsed"`
	RecordsSaved   int    `json:"records_saved"`
	CustomersFound int    `json:"customers_found"`
}

// NewUploader creates a new uploader for the given server base URL
func NewUploader(serverURL, apiKey string) *Uploader {
	return &Uploader{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Upload posts one PDF as a multipart form to /api/v1/upload.
func (u *Uploader) Upload(ctx context.Context, filePath string) (*UploadResult, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/api/v1/upload", u.serverURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("server rejected upload (%d): %s", resp.StatusCode, errResp.Error)
		}
		return nil, fmt.Errorf("server rejected upload: status %d", resp.StatusCode)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}
