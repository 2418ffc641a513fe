// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package logger tees the process log to a file and fans it out to
// subscribers, which feed the SSE and websocket log streams.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	stdlog "log"
)

// Logger is an io.Writer for the standard log package. Every line written
// goes to stdout, the log file, and all subscribers.
type Logger struct {
	file *os.File

	mu          sync.RWMutex
	subscribers map[chan string]bool
	closed      bool
}

var (
	defaultLogger *Logger
	defaultMu     sync.Mutex
)

// Init opens the log file and installs the logger as the standard log
// output, so every log.Printf in the process reaches the file and the
// streams. Repeated calls return the already-installed logger.
func Init(logFile string) (*Logger, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger != nil {
		return defaultLogger, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		file:        file,
		subscribers: make(map[chan string]bool),
	}
	stdlog.SetOutput(l)
	defaultLogger = l
	return l, nil
}

// GetDefault returns the installed logger. Before Init it returns a
// stdout-only logger so subscribers in tests still work.
func GetDefault() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger == nil {
		defaultLogger = &Logger{subscribers: make(map[chan string]bool)}
	}
	return defaultLogger
}

// Write implements io.Writer for the standard log package.
func (l *Logger) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if l.file != nil {
		l.file.Write(p)
	}
	l.broadcast(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// Printf logs a formatted line through the standard logger.
func (l *Logger) Printf(format string, v ...any) {
	stdlog.Printf(format, v...)
}

// Subscribe registers a new listener. The returned receive channel gets one
// string per log line; pass the second value to Unsubscribe when done. Both
// are nil when the logger is closed.
func (l *Logger) Subscribe() (<-chan string, chan string) {
	if l == nil {
		return nil, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, nil
	}

	// Buffered so a slow client drops lines instead of stalling the log.
	ch := make(chan string, 64)
	l.subscribers[ch] = true
	return ch, ch
}

// Unsubscribe removes and closes a listener channel.
func (l *Logger) Unsubscribe(ch chan string) {
	if ch == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subscribers[ch] {
		delete(l.subscribers, ch)
		close(ch)
	}
}

// broadcast sends a line to every subscriber without blocking.
func (l *Logger) broadcast(line string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for ch := range l.subscribers {
		select {
		case ch <- line:
		default:
		}
	}
}

// Close closes the log file and all subscriber channels. The standard log
// output reverts to stderr.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	for ch := range l.subscribers {
		close(ch)
	}
	l.subscribers = make(map[chan string]bool)

	stdlog.SetOutput(os.Stderr)
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
