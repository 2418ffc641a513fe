// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carelog/internal/ai"
	"github.com/carelog/internal/careparse"
	"github.com/carelog/internal/config"
	"github.com/carelog/internal/database"
	"github.com/carelog/internal/evaluator"
	"github.com/carelog/internal/jobs"
	"github.com/carelog/internal/logger"
	"github.com/carelog/internal/queue"
	"github.com/carelog/internal/server"
	"github.com/carelog/internal/weekly"
	"github.com/carelog/internal/worker"
)

var (
	configPath = flag.String("config", "", "Config file path (default: ~/.carelog/config.yaml)")
	httpPort   = flag.Int("http-port", 0, "HTTP server port (overrides config)")
	dbPath     = flag.String("db-path", "", "SQLite database path (overrides config)")
	logFile    = flag.String("log-file", "carelog-server.log", "Log file path")
)

func main() {
	flag.Parse()

	if _, err := logger.Init(*logFile); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open sqlite database: %v", err)
	}
	defer db.Close()

	customers, err := database.NewCustomerStore(db)
	if err != nil {
		log.Fatalf("failed to init customer store: %v", err)
	}
	records, err := database.NewRecordStore(db, customers)
	if err != nil {
		log.Fatalf("failed to init record store: %v", err)
	}
	weeklyStore, err := database.NewWeeklyStatusStore(db)
	if err != nil {
		log.Fatalf("failed to init weekly status store: %v", err)
	}
	evals, err := database.NewEvaluationStore(db)
	if err != nil {
		log.Fatalf("failed to init evaluation store: %v", err)
	}
	events, err := database.NewEventLogger(db)
	if err != nil {
		log.Fatalf("failed to init event logger: %v", err)
	}
	apiKeys, err := database.NewAPIKeyStore(db)
	if err != nil {
		log.Fatalf("failed to init api key store: %v", err)
	}
	metadata, err := database.NewSystemMetadataStore(db)
	if err != nil {
		log.Fatalf("failed to init system metadata store: %v", err)
	}
	if _, err := metadata.EnsureInstallDate(); err != nil {
		log.Printf("warning: failed to record install date: %v", err)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if cfg.AI.Provider == "gemini" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	aiClient, err := ai.NewClient(cfg.AI.Provider, apiKey, cfg.AI.Model)
	if err != nil {
		log.Fatalf("failed to init AI client: %v", err)
	}

	eval := evaluator.New(aiClient, evals, events, cfg.AI.Model)
	analyzer := weekly.NewAnalyzer(customers, records, weeklyStore)
	writer := weekly.NewWriter(aiClient, weeklyStore, events, cfg.AI.Model)

	// Redis is optional: without it evaluations run in-process and the
	// websocket mailbox is disabled.
	ctx := context.Background()
	redisClient, err := config.NewRedisClient(ctx)
	if err != nil {
		log.Printf("warning: failed to connect to Redis: %v, job queue will not be available", err)
		redisClient = nil
	}

	wsManager := server.NewWebSocketManager(redisClient)

	var jobQueue queue.Queue
	var workerCancel context.CancelFunc
	if redisClient != nil {
		queueKey := os.Getenv("JOB_QUEUE_KEY")
		if queueKey == "" {
			queueKey = "carelog:jobs"
		}
		jobQueue, err = queue.NewRedisQueue(redisClient, queueKey)
		if err != nil {
			log.Fatalf("failed to create job queue: %v", err)
		}

		handlers := &jobs.Handlers{
			Customers: customers,
			Records:   records,
			Evaluator: eval,
			Analyzer:  analyzer,
			Writer:    writer,
			Notifier:  wsManager,
		}

		workerCtx, cancel := context.WithCancel(ctx)
		workerCancel = cancel
		go func() {
			log.Printf("Starting %d background workers", cfg.Worker.Count)
			if err := worker.StartWorkers(workerCtx, jobQueue, handlers.Handle, cfg.Worker.Count); err != nil {
				log.Printf("worker error: %v", err)
			}
		}()
	}

	srv := &server.Server{
		Customers: customers,
		Records:   records,
		Weekly:    weeklyStore,
		Evals:     evals,
		Events:    events,
		Metadata:  metadata,
		APIKeys:   apiKeys,
		Evaluator: eval,
		Analyzer:  analyzer,
		Writer:    writer,
		JobQueue:  jobQueue,
		WSManager: wsManager,
		ParseOpts: careparse.Options{
			Year:            cfg.Parser.Year,
			CheckedGlyphs:   cfg.Parser.CheckedGlyphs,
			AbsenceStatuses: cfg.Parser.AbsenceStatuses,
		},
		RequireAuth: cfg.Server.RequireAuth,
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Routes(),
	}

	go func() {
		log.Printf("HTTP server listening on %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(httpServer, workerCancel)
}

func waitForShutdown(httpServer *http.Server, workerCancel context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Println("Shutting down server...")

	if workerCancel != nil {
		workerCancel()
	}
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
