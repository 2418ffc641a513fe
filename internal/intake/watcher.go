// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package intake

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gen2brain/beeep"
)

const (
	processedDirName = "processed"
	failedDirName    = "failed"
)

// Watcher watches an inbox directory for care register PDFs and uploads
// them to the server. Handled files are moved into processed/ or failed/
// so the inbox only ever holds pending work.
type Watcher struct {
	inboxDir  string
	uploader  *Uploader
	notify    bool
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher for one inbox directory
func NewWatcher(inboxDir string, uploader *Uploader, notify bool) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		inboxDir: inboxDir,
		uploader: uploader,
		notify:   notify,
		ctx:      ctx,
		cancel:   cancel,
	}
	w.debouncer = NewDebouncer(500*time.Millisecond, func(path string) {
		go w.processFile(path)
	})
	return w
}

// Start sets up the inbox and begins watching. Files already sitting in the
// inbox are queued through the debouncer.
func (w *Watcher) Start() error {
	absPath, err := filepath.Abs(w.inboxDir)
	if err != nil {
		return fmt.Errorf("failed to resolve inbox path: %w", err)
	}
	w.inboxDir = absPath

	for _, dir := range []string{absPath, filepath.Join(absPath, processedDirName), filepath.Join(absPath, failedDirName)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	w.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.watcher.Add(absPath); err != nil {
		w.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", absPath, err)
	}
	log.Printf("Watching inbox: %s", absPath)

	w.wg.Add(1)
	go w.processEvents()

	go w.scanExisting()
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (w *Watcher) Stop() {
	w.cancel()
	w.debouncer.Stop()
	if w.watcher != nil {
		if err := w.watcher.Close(); err != nil {
			log.Printf("Error closing watcher: %v", err)
		}
	}
	w.wg.Wait()
}

// processEvents processes file system events
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if isTemporaryFile(event.Name) || !isPDF(event.Name) {
					continue
				}
				log.Printf("File detected: %s", event.Name)
				w.debouncer.Trigger(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// scanExisting queues PDFs that were already in the inbox at startup
func (w *Watcher) scanExisting() {
	entries, err := os.ReadDir(w.inboxDir)
	if err != nil {
		log.Printf("Error scanning inbox %s: %v", w.inboxDir, err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.inboxDir, entry.Name())
		if isTemporaryFile(path) || !isPDF(path) {
			continue
		}
		w.debouncer.Trigger(path)
	}
}

// processFile uploads one PDF and moves it out of the inbox
func (w *Watcher) processFile(filePath string) {
	info, err := os.Stat(filePath)
	if err != nil {
		// Deleted or moved before the debounce fired
		return
	}
	if info.Size() == 0 {
		log.Printf("Skipping empty file: %s", filePath)
		return
	}

	ctx, cancel := context.WithTimeout(w.ctx, 2*time.Minute)
	defer cancel()

	result, err := w.uploader.Upload(ctx, filePath)
	if err != nil {
		log.Printf("Failed to upload %s: %v", filePath, err)
		w.moveTo(filePath, failedDirName)
		w.alert("업로드 실패", fmt.Sprintf("%s 업로드에 실패했습니다: %v", filepath.Base(filePath), err))
		return
	}

	log.Printf("Uploaded %s: parsed %d records, saved %d (%d customers)",
		filePath, result.RecordsParsed, result.RecordsSaved, result.CustomersFound)
	w.moveTo(filePath, processedDirName)
	w.inform("업로드 완료", fmt.Sprintf("%s: 기록 %d건 저장", filepath.Base(filePath), result.RecordsSaved))
}

// moveTo moves a handled file into the processed/ or failed/ subdirectory,
// suffixing a timestamp when the name is already taken.
func (w *Watcher) moveTo(filePath, subdir string) {
	base := filepath.Base(filePath)
	target := filepath.Join(w.inboxDir, subdir, base)
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		target = filepath.Join(w.inboxDir, subdir, fmt.Sprintf("%s-%d%s", stem, time.Now().Unix(), ext))
	}
	if err := os.Rename(filePath, target); err != nil {
		log.Printf("Failed to move %s to %s: %v", filePath, target, err)
	}
}

func (w *Watcher) inform(title, message string) {
	if !w.notify {
		return
	}
	if err := beeep.Notify(title, message, ""); err != nil {
		log.Printf("Failed to send OS notification: %v", err)
	}
}

func (w *Watcher) alert(title, message string) {
	if !w.notify {
		return
	}
	if err := beeep.Alert(title, message, ""); err != nil {
		log.Printf("Failed to send OS notification: %v", err)
	}
}

// isTemporaryFile reports whether a path looks like an in-progress copy or
// an editor artifact.
func isTemporaryFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return true
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".tmp", ".part", ".crdownload", ".download":
		return true
	}
	return false
}

func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
