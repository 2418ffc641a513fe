// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/carelog/internal/intake"
)

var (
	inboxDir  = flag.String("inbox", "./inbox", "Directory to watch for care register PDFs")
	serverURL = flag.String("server", "http://localhost:8081", "CareLog server base URL")
	noNotify  = flag.Bool("no-notify", false, "Disable desktop notifications")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	apiKey := os.Getenv("CARELOG_API_KEY")

	// Env overrides cover deployments that cannot pass flags (systemd units,
	// launchd plists). Flags win when both are set.
	inbox := *inboxDir
	if env := os.Getenv("CARELOG_INBOX"); env != "" && !flagPassed("inbox") {
		inbox = env
	}
	server := *serverURL
	if env := os.Getenv("CARELOG_SERVER"); env != "" && !flagPassed("server") {
		server = env
	}

	watcher := intake.NewWatcher(inbox, intake.NewUploader(server, apiKey), !*noNotify)
	if err := watcher.Start(); err != nil {
		log.Fatalf("failed to start watcher: %v", err)
	}
	log.Printf("Intake watcher running, uploading to %s", server)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down watcher...")
	watcher.Stop()
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}
