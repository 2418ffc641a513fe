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
	openAIChatURL      = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIClient talks to the OpenAI Chat API.
type OpenAIClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIClient creates an OpenAI client. Model may be empty for the
// default.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// ChatCompletion sends a completion request, retrying on rate limits.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not set")
	}
	return withRetry(ctx, "openai", func() (string, bool, error) {
		return c.doRequest(ctx, req)
	})
}

func (c *OpenAIClient) doRequest(ctx context.Context, req ChatRequest) (string, bool, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	payload := map[string]any{
		"model":       model,
		"messages":    req.Messages,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.JSONOnly {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", false, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", openAIChatURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retryable, fmt.Errorf("OpenAI API error: %d - %s", resp.StatusCode, string(body))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", false, err
	}
	if len(result.Choices) == 0 {
		return "", false, fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(result.Choices[0].Message.Content), false, nil
}
