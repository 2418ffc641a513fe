// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel = "gemini-2.0-flash"
)

// GeminiClient talks to the Google Gemini REST API.
type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiClient creates a Gemini client. Model may be empty for the
// default.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// ChatCompletion sends a completion request, retrying on rate limits.
func (c *GeminiClient) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("Gemini API key not set")
	}
	return withRetry(ctx, "gemini", func() (string, bool, error) {
		return c.doRequest(ctx, req)
	})
}

// geminiContent mirrors the Gemini content schema. System messages become
// the system instruction; assistant turns use the "model" role.
type geminiContent struct {
	Role  string `json:"role,omitempty"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func geminiPart(role, text string) geminiContent {
	var c geminiContent
	c.Role = role
	c.Parts = []struct {
		Text string `json:"text"`
	}{{Text: text}}
	return c
}

func (c *GeminiClient) doRequest(ctx context.Context, req ChatRequest) (string, bool, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	var systemInstruction *geminiContent
	var contents []geminiContent
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			si := geminiPart("", msg.Content)
			systemInstruction = &si
		case "assistant":
			contents = append(contents, geminiPart("model", msg.Content))
		default:
			contents = append(contents, geminiPart("user", msg.Content))
		}
	}

	generationConfig := map[string]any{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		generationConfig["maxOutputTokens"] = req.MaxTokens
	}
	if req.JSONOnly {
		generationConfig["responseMimeType"] = "application/json"
	}

	payload := map[string]any{
		"contents":         contents,
		"generationConfig": generationConfig,
	}
	if systemInstruction != nil {
		payload["systemInstruction"] = systemInstruction
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", false, err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("Gemini API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, err
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("no response from Gemini")
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), false, nil
}
