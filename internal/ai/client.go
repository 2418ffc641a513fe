// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package ai provides chat-completion clients for the language model
// providers used to evaluate and summarize care notes.
package ai

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Message is one turn of a chat completion request.
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// ChatRequest is a provider-independent completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// JSONOnly asks the provider to return a bare JSON object.
	JSONOnly bool
}

// Client is a chat completion provider.
type Client interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (string, error)
}

// NewClient builds a client for the named provider. Model may be empty to
// take the provider's default.
func NewClient(provider, apiKey, model string) (Client, error) {
	switch strings.ToLower(provider) {
	case "openai":
		return NewOpenAIClient(apiKey, model), nil
	case "gemini":
		return NewGeminiClient(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", provider)
	}
}

const maxRetries = 5

// withRetry runs call with exponential backoff on retryable (rate limit)
// errors. The wait doubles from 1s and caps at 60s.
func withRetry(ctx context.Context, name string, call func() (string, bool, error)) (string, error) {
	wait := time.Second
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		result, retryable, err := call()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable || attempt == maxRetries {
			break
		}

		log.Printf("%s: rate limited, retrying in %s (attempt %d/%d)", name, wait, attempt, maxRetries)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		wait *= 2
		if wait > 60*time.Second {
			wait = 60 * time.Second
		}
	}
	return "", lastErr
}
