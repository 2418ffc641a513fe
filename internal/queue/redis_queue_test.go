// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/carelog/internal/config"
)

// newTestQueue connects to Redis or skips, and cleans up the test list.
func newTestQueue(t *testing.T, suffix string) (Queue, context.Context) {
	t.Helper()

	ctx := context.Background()
	client, err := config.NewRedisClient(ctx)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	key := fmt.Sprintf("carelog:test:%s:%d", suffix, time.Now().UnixNano())
	q, err := NewRedisQueue(client, key)
	if err != nil {
		t.Fatalf("NewRedisQueue failed: %v", err)
	}
	t.Cleanup(func() { client.Del(ctx, key) })
	return q, ctx
}

func TestRedisQueueRoundTrip(t *testing.T) {
	q, ctx := newTestQueue(t, "roundtrip")

	job := Job{
		Type:      "evaluate_records",
		Payload:   json.RawMessage(`{"customerId":7,"startDate":"2025-11-10"}`),
		CreatedAt: time.Now(),
	}
	if err := q.Enqueue(ctx, job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	dequeueCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	got, err := q.Dequeue(dequeueCtx)
	if err != nil {
		t.Fatalf("Dequeue failed: %v", err)
	}
	if got.Type != job.Type {
		t.Errorf("got job type %q, want %q", got.Type, job.Type)
	}

	var payload struct {
		CustomerID int64  `json:"customerId"`
		StartDate  string `json:"startDate"`
	}
	if err := json.Unmarshal(got.Payload, &payload); err != nil {
		t.Fatalf("payload did not survive the round trip: %v", err)
	}
	if payload.CustomerID != 7 || payload.StartDate != "2025-11-10" {
		t.Errorf("got payload %+v", payload)
	}
}

func TestRedisQueuePreservesOrder(t *testing.T) {
	q, ctx := newTestQueue(t, "order")

	for i := 0; i < 5; i++ {
		job := Job{
			Type:      "weekly_report",
			Payload:   json.RawMessage(fmt.Sprintf(`{"index":%d}`, i)),
			CreatedAt: time.Now(),
		}
		if err := q.Enqueue(ctx, job); err != nil {
			t.Fatalf("Enqueue %d failed: %v", i, err)
		}
	}

	dequeueCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		got, err := q.Dequeue(dequeueCtx)
		if err != nil {
			t.Fatalf("Dequeue %d failed: %v", i, err)
		}
		var payload struct {
			Index int `json:"index"`
		}
		if err := json.Unmarshal(got.Payload, &payload); err != nil {
			t.Fatalf("Dequeue %d: bad payload: %v", i, err)
		}
		if payload.Index != i {
			t.Errorf("dequeue %d returned index %d, FIFO order broken", i, payload.Index)
		}
	}
}

func TestRedisQueueDequeueHonorsCancel(t *testing.T) {
	q, ctx := newTestQueue(t, "cancel")

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	if _, err := q.Dequeue(cancelCtx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}
