// Package reload detects configuration file changes and plans how the
// running job set must change to match a new configuration.
package reload

import (
	"context"
	"os"
	"sync"
	"time"
)

// DefaultInterval is how often the watcher checks the file.
const DefaultInterval = 5 * time.Second

// Event reports that the watched file changed.
type Event struct {
	Path string
}

// Watcher polls a file and reports modifications. A change is a different
// modification time or size; a missing file is ignored until it reappears.
type Watcher struct {
	path     string
	interval time.Duration
	events   chan Event

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewWatcher creates a watcher for path. A non-positive interval uses
// DefaultInterval.
func NewWatcher(path string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{
		path:     path,
		interval: interval,
		events:   make(chan Event, 1),
	}
}

// Events returns the change notifications. Changes arriving while an event
// is still pending are coalesced into it.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins polling until ctx ends or Stop is called. Calling Start on
// a running watcher does nothing.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.stopped = make(chan struct{})
	go w.poll(ctx, w.stopped)
}

// Stop halts polling and waits for the poller to exit. Safe to call before
// Start and more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, stopped := w.cancel, w.stopped
	w.cancel, w.stopped = nil, nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
}

type fingerprint struct {
	mod  time.Time
	size int64
}

func (w *Watcher) poll(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	last, _ := w.stat()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cur, ok := w.stat()
			if !ok || cur == last {
				continue
			}
			last = cur
			select {
			case w.events <- Event{Path: w.path}:
			default:
			}
		}
	}
}

func (w *Watcher) stat() (fingerprint, bool) {
	info, err := os.Stat(w.path)
	if err != nil {
		return fingerprint{}, false
	}
	return fingerprint{mod: info.ModTime(), size: info.Size()}, true
}
