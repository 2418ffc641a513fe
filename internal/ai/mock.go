// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package ai

import (
	"context"
	"sync"
)

// MockClient is a canned-response Client for tests.
type MockClient struct {
	mu sync.Mutex

	// Response is returned for every request unless Respond is set.
	Response string
	// Err, when set, is returned instead of a response.
	Err error
	// Respond, when set, computes the response per request.
	Respond func(req ChatRequest) (string, error)

	// Requests records every request received.
	Requests []ChatRequest
}

func (m *MockClient) ChatCompletion(_ context.Context, req ChatRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()

	if m.Respond != nil {
		return m.Respond(req)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
