// Package queue decouples API requests from evaluation and report work.
// Handlers enqueue jobs and return immediately; the worker pool drains them.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Job is a unit of background work. Payload is left opaque here; the jobs
// package defines the concrete payloads per Type.
type Job struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Queue is a FIFO job queue shared between the API and the workers.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or ctx is cancelled.
	Dequeue(ctx context.Context) (Job, error)
}
