// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package intake

import (
	"sync"
	"time"
)

// Debouncer coalesces repeated file system events for the same path. A PDF
// being copied into the inbox fires many write events; only the last one
// within the delay window triggers the callback.
type Debouncer struct {
	delay    time.Duration
	callback func(path string)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewDebouncer(delay time.Duration, callback func(path string)) *Debouncer {
	return &Debouncer{
		delay:    delay,
		callback: callback,
		pending:  make(map[string]*time.Timer),
	}
}

// Trigger restarts the quiet-period timer for path. The callback fires once
// the path has gone a full delay without another Trigger.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.pending[path]; ok {
		t.Stop()
	}
	d.pending[path] = time.AfterFunc(d.delay, func() { d.fire(path) })
}

func (d *Debouncer) fire(path string) {
	d.mu.Lock()
	delete(d.pending, path)
	cb := d.callback
	d.mu.Unlock()

	if cb != nil {
		cb(path)
	}
}

// Stop cancels every pending timer. Callbacks already in flight still run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, t := range d.pending {
		t.Stop()
		delete(d.pending, path)
	}
}
