package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDriver_Sweeps(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the real clock")
	}
	t.Parallel()

	var sweeps atomic.Int32
	d := NewDriver(time.Second, func(context.Context) error {
		sweeps.Add(1)
		return errors.New("logged, not fatal")
	}, discardLogger())

	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for sweeps.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("sweeps = %d after 5s, want at least 2", sweeps.Load())
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	n := sweeps.Load()
	time.Sleep(1500 * time.Millisecond)
	if sweeps.Load() != n {
		t.Error("driver kept sweeping after Stop")
	}
}

func TestDriver_SkipsOverlappingSweeps(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the real clock")
	}
	t.Parallel()

	var running, maxRunning, calls atomic.Int32
	d := NewDriver(time.Second, func(ctx context.Context) error {
		calls.Add(1)
		n := running.Add(1)
		defer running.Add(-1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		select {
		case <-time.After(2500 * time.Millisecond):
		case <-ctx.Done():
		}
		return nil
	}, discardLogger())

	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(3500 * time.Millisecond)
	if err := d.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if maxRunning.Load() != 1 {
		t.Errorf("max concurrent sweeps = %d, want 1", maxRunning.Load())
	}
	if calls.Load() == 0 {
		t.Error("no sweep ran")
	}
}

func TestDriver_StopCancelsSweep(t *testing.T) {
	if testing.Short() {
		t.Skip("waits on the real clock")
	}
	t.Parallel()

	started := make(chan struct{})
	var once atomic.Bool
	d := NewDriver(time.Second, func(ctx context.Context) error {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		<-ctx.Done()
		return ctx.Err()
	}, discardLogger())

	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep never started")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestDriver_Lifecycle(t *testing.T) {
	t.Parallel()

	d := NewDriver(time.Hour, func(context.Context) error { return nil }, discardLogger())
	if err := d.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(); err == nil {
		t.Error("second Start should fail")
	}
	if err := d.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}
