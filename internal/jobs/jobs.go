// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package jobs defines the background job types carried on the queue and the
// handlers the worker pool runs them with.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/carelog/internal/database"
	"github.com/carelog/internal/evaluator"
	"github.com/carelog/internal/queue"
	"github.com/carelog/internal/weekly"
)

const (
	// JobTypeEvaluateRecords grades every note of a customer's records in a
	// date range.
	JobTypeEvaluateRecords = "evaluate_records"

	// JobTypeWeeklyReport computes the weekly status for one customer and
	// writes the narrative report.
	JobTypeWeeklyReport = "weekly_report"
)

// EvaluateRecordsPayload selects the records to grade.
type EvaluateRecordsPayload struct {
	CustomerID  int64     `json:"customerId"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	RequestedAt time.Time `json:"requestedAt"`
}

// WeeklyReportPayload selects the customer and week to report on.
type WeeklyReportPayload struct {
	CustomerID   int64     `json:"customerId"`
	CustomerName string    `json:"customerName"`
	WeekStart    string    `json:"weekStart"`
	RequestedAt  time.Time `json:"requestedAt"`
}

// NewEvaluateRecordsJob wraps an evaluation request as a queue job.
func NewEvaluateRecordsJob(payload EvaluateRecordsPayload) (queue.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return queue.Job{}, err
	}
	return queue.Job{Type: JobTypeEvaluateRecords, Payload: data, CreatedAt: time.Now()}, nil
}

// NewWeeklyReportJob wraps a weekly report request as a queue job.
func NewWeeklyReportJob(payload WeeklyReportPayload) (queue.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return queue.Job{}, err
	}
	return queue.Job{Type: JobTypeWeeklyReport, Payload: data, CreatedAt: time.Now()}, nil
}

// EnqueueEvaluateRecords enqueues an evaluation job.
func EnqueueEvaluateRecords(ctx context.Context, q queue.Queue, payload EvaluateRecordsPayload) error {
	log.Printf("EnqueueEvaluateRecords: customerId=%d range=%s..%s", payload.CustomerID, payload.StartDate, payload.EndDate)
	job, err := NewEvaluateRecordsJob(payload)
	if err != nil {
		return err
	}
	return q.Enqueue(ctx, job)
}

// EnqueueWeeklyReport enqueues a weekly report job.
func EnqueueWeeklyReport(ctx context.Context, q queue.Queue, payload WeeklyReportPayload) error {
	log.Printf("EnqueueWeeklyReport: customerId=%d weekStart=%s", payload.CustomerID, payload.WeekStart)
	job, err := NewWeeklyReportJob(payload)
	if err != nil {
		return err
	}
	return q.Enqueue(ctx, job)
}

// Notifier pushes a job result to connected dashboard clients. The server's
// WebSocketManager implements it.
type Notifier interface {
	Broadcast(notificationType, message, level string) error
}

// Handlers holds the stores and services the job handlers run on.
type Handlers struct {
	Customers *database.CustomerStore
	Records   *database.RecordStore
	Evaluator *evaluator.Evaluator
	Analyzer  *weekly.Analyzer
	Writer    *weekly.Writer
	Notifier  Notifier // optional
}

func (h *Handlers) notify(notificationType, message string) {
	if h.Notifier == nil {
		return
	}
	if err := h.Notifier.Broadcast(notificationType, message, "info"); err != nil {
		log.Printf("notify: %s broadcast failed: %v", notificationType, err)
	}
}

// Handle dispatches one dequeued job. Unknown job types are logged and
// dropped so a stale queue entry cannot wedge the worker pool.
func (h *Handlers) Handle(ctx context.Context, job queue.Job) error {
	switch job.Type {
	case JobTypeEvaluateRecords:
		return h.handleEvaluateRecords(ctx, job)
	case JobTypeWeeklyReport:
		return h.handleWeeklyReport(ctx, job)
	default:
		log.Printf("Handle: unknown job type %s, dropping", job.Type)
		return nil
	}
}

func (h *Handlers) handleEvaluateRecords(ctx context.Context, job queue.Job) error {
	var payload EvaluateRecordsPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("handleEvaluateRecords: unmarshal payload: %w", err)
	}

	customer, err := h.Customers.Get(payload.CustomerID)
	if err != nil {
		return fmt.Errorf("handleEvaluateRecords: customer %d: %w", payload.CustomerID, err)
	}
	if customer == nil {
		log.Printf("handleEvaluateRecords: customer %d not found, dropping", payload.CustomerID)
		return nil
	}

	records, err := h.Records.GetCustomerRecords(payload.CustomerID, payload.StartDate, payload.EndDate)
	if err != nil {
		return fmt.Errorf("handleEvaluateRecords: records for customer %d: %w", payload.CustomerID, err)
	}
	if len(records) == 0 {
		log.Printf("handleEvaluateRecords: no records for customer %d in %s..%s", payload.CustomerID, payload.StartDate, payload.EndDate)
		return nil
	}

	log.Printf("handleEvaluateRecords: evaluating %d records for customer %d", len(records), payload.CustomerID)
	h.Evaluator.EvaluateBatch(ctx, records, map[int64]string{payload.CustomerID: customer.Name})
	h.notify("evaluation_complete", fmt.Sprintf("%s: %d건 기록 평가 완료", customer.Name, len(records)))
	return nil
}

func (h *Handlers) handleWeeklyReport(ctx context.Context, job queue.Job) error {
	var payload WeeklyReportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("handleWeeklyReport: unmarshal payload: %w", err)
	}

	status, err := h.Analyzer.ComputeStatus(payload.CustomerName, payload.WeekStart, payload.CustomerID, true)
	if err != nil {
		return fmt.Errorf("handleWeeklyReport: analyze customer %d: %w", payload.CustomerID, err)
	}
	if status.Trend == nil {
		log.Printf("handleWeeklyReport: no records for customer %d week %s", payload.CustomerID, payload.WeekStart)
		return nil
	}

	_, err = h.Writer.GenerateAndSave(ctx, payload.CustomerID, payload.CustomerName, status.CurrStart, status.CurrEnd, status.Trend.Payload)
	if err != nil {
		return fmt.Errorf("handleWeeklyReport: customer %d: %w", payload.CustomerID, err)
	}
	h.notify("report_complete", fmt.Sprintf("%s: %s 주간보고서 생성 완료", payload.CustomerName, status.CurrStart))
	return nil
}
