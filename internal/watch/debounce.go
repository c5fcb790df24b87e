// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"maps"
	"slices"
	"sync"
	"time"
)

type (
	// keyedDebouncer coalesces event bursts independently per key, so a
	// change storm in one plugin never delays or drops rebuilds of another.
	//
	// While a key's callback runs, further triggers for that key mark it
	// queued instead of firing concurrently; the key re-arms once the
	// callback returns. Pending paths are never silently discarded.
	keyedDebouncer struct {
		mu      sync.Mutex
		delay   time.Duration
		entries map[string]*debounceEntry
		fire    func(key string, paths []string)
		stopped bool
	}

	debounceEntry struct {
		timer   *time.Timer
		pending map[string]struct{}
		busy    bool
		queued  bool
	}
)

// newKeyedDebouncer creates a debouncer invoking fire from timer goroutines.
func newKeyedDebouncer(delay time.Duration, fire func(key string, paths []string)) *keyedDebouncer {
	return &keyedDebouncer{
		delay:   delay,
		entries: make(map[string]*debounceEntry),
		fire:    fire,
	}
}

// Trigger records a changed path for key and (re)arms its timer.
func (d *keyedDebouncer) Trigger(key, path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	e, ok := d.entries[key]
	if !ok {
		e = &debounceEntry{pending: make(map[string]struct{})}
		d.entries[key] = e
	}
	e.pending[path] = struct{}{}

	if e.busy {
		e.queued = true
		return
	}
	if e.timer == nil {
		e.timer = time.AfterFunc(d.delay, func() { d.fireKey(key) })
	} else {
		e.timer.Reset(d.delay)
	}
}

// Stop cancels every armed timer. In-flight callbacks finish; no new ones
// start.
func (d *keyedDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for _, e := range d.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
}

func (d *keyedDebouncer) fireKey(key string) {
	d.mu.Lock()
	e, ok := d.entries[key]
	if !ok || d.stopped {
		d.mu.Unlock()
		return
	}
	if e.busy {
		e.queued = true
		d.mu.Unlock()
		return
	}
	if len(e.pending) == 0 {
		d.mu.Unlock()
		return
	}
	e.busy = true
	paths := slices.Sorted(maps.Keys(e.pending))
	clear(e.pending)
	d.mu.Unlock()

	d.fire(key, paths)

	d.mu.Lock()
	e.busy = false
	if e.queued {
		e.queued = false
		if len(e.pending) > 0 && !d.stopped {
			e.timer.Reset(d.delay)
		}
	}
	d.mu.Unlock()
}
