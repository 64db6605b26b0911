package reload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "every.yaml")
	writeFile(t, path, "initial")

	w := NewWatcher(path, 20*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	// Let the poller take its first fingerprint.
	time.Sleep(60 * time.Millisecond)
	writeFile(t, path, "modified content")

	select {
	case ev := <-w.Events():
		if ev.Path != path {
			t.Errorf("event path = %q, want %q", ev.Path, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
	}
}

func TestWatcher_NoChangeNoEvent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "every.yaml")
	writeFile(t, path, "stable")

	w := NewWatcher(path, 20*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "later.yaml")
	w := NewWatcher(path, 20*time.Millisecond)
	w.Start(context.Background())
	defer w.Stop()

	time.Sleep(60 * time.Millisecond)
	writeFile(t, path, "created")

	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("creation of the watched file not reported")
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	t.Parallel()

	w := NewWatcher(filepath.Join(t.TempDir(), "x.yaml"), 0)
	if w.interval != DefaultInterval {
		t.Errorf("interval = %v, want default", w.interval)
	}
	w.Stop()
	w.Start(context.Background())
	w.Start(context.Background())
	w.Stop()
	w.Stop()
}

func TestWatcher_StopsWithContext(t *testing.T) {
	t.Parallel()

	w := NewWatcher(filepath.Join(t.TempDir(), "x.yaml"), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked after context cancellation")
	}
}
