package schedule_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/every/internal/schedule"
	"github.com/flemzord/every/internal/schedule/scheduletest"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, opts ...schedule.Option) (*schedule.Scheduler, *scheduletest.Clock) {
	t.Helper()
	clock := scheduletest.NewClock(epoch)
	opts = append([]schedule.Option{schedule.WithClock(clock.Now)}, opts...)
	return schedule.New(opts...), clock
}

func noop(context.Context) (any, error) { return nil, nil }

func TestBuilder_SingularWithIntervalFails(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)

	singulars := map[string]func(schedule.Builder) schedule.Builder{
		"Second": schedule.Builder.Second,
		"Minute": schedule.Builder.Minute,
		"Hour":   schedule.Builder.Hour,
		"Day":    schedule.Builder.Day,
		"Week":   schedule.Builder.Week,
	}
	for name, fn := range singulars {
		b := fn(s.Every(3))
		if !errors.Is(b.Err(), schedule.ErrInterval) {
			t.Errorf("%s with interval 3: Err() = %v, want ErrInterval", name, b.Err())
		}
		if _, err := b.Do(noop); !errors.Is(err, schedule.ErrInterval) {
			t.Errorf("%s with interval 3: Do error = %v, want ErrInterval", name, err)
		}
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestBuilder_SingularFailsEvenAfterPlural(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)

	b := s.Every(3).Seconds().Second()
	if !errors.Is(b.Err(), schedule.ErrInterval) {
		t.Fatalf("Err() = %v, want ErrInterval", b.Err())
	}
	if !errors.Is(b.Err(), schedule.ErrSchedule) {
		t.Error("ErrInterval should match ErrSchedule")
	}
	if !strings.Contains(b.Err().Error(), "seconds") {
		t.Errorf("error should name the plural form: %v", b.Err())
	}
	// The error sticks even if a valid unit is selected afterwards.
	if _, err := b.Minutes().Do(noop); !errors.Is(err, schedule.ErrInterval) {
		t.Errorf("Do error = %v, want ErrInterval", err)
	}
}

func TestBuilder_SingularMatchesPlural(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)

	a, err := s.Every(1).Second().Do(noop)
	if err != nil {
		t.Fatalf("Second: %v", err)
	}
	b, err := s.Every(1).Seconds().Do(noop)
	if err != nil {
		t.Fatalf("Seconds: %v", err)
	}
	if a.Unit() != b.Unit() || a.Period() != b.Period() || !a.NextRun().Equal(b.NextRun()) {
		t.Errorf("Second() job %v differs from Seconds() job %v", a, b)
	}

	m, err := s.Every(1).Minute().Do(noop)
	if err != nil {
		t.Fatalf("Minute: %v", err)
	}
	if m.Unit() != schedule.Minutes {
		t.Errorf("Minute() unit = %v, want minutes", m.Unit())
	}
}

func TestBuilder_DoWithoutUnit(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)

	_, err := s.Every(5).Do(noop)
	if !errors.Is(err, schedule.ErrInvalidUnit) {
		t.Fatalf("Do error = %v, want ErrInvalidUnit", err)
	}
	if s.Len() != 0 {
		t.Errorf("unfinished job leaked into the registry: Len() = %d", s.Len())
	}
}

func TestBuilder_DoWithoutScheduler(t *testing.T) {
	t.Parallel()

	var b schedule.Builder
	_, err := b.Seconds().Do(noop)
	if !errors.Is(err, schedule.ErrNoScheduler) {
		t.Fatalf("Do error = %v, want ErrNoScheduler", err)
	}
	if !errors.Is(err, schedule.ErrSchedule) {
		t.Error("ErrNoScheduler should match ErrSchedule")
	}
}

func TestBuilder_DoNilFunc(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)
	if _, err := s.Every(1).Seconds().Do(nil); !errors.Is(err, schedule.ErrNilFunc) {
		t.Fatalf("Do error = %v, want ErrNilFunc", err)
	}
	if _, err := s.Every(1).Seconds().Do(schedule.Task(nil)); !errors.Is(err, schedule.ErrNilFunc) {
		t.Fatalf("Do(Task(nil)) error = %v, want ErrNilFunc", err)
	}
}

func TestBuilder_CopiesDoNotAlias(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)

	base := s.Every(2)
	secs := base.Seconds()
	mins := base.Minutes()

	a, err := secs.Do(noop)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	b, err := mins.Do(noop)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if a.Period() != 2*time.Second {
		t.Errorf("seconds job period = %v, want 2s", a.Period())
	}
	if b.Period() != 2*time.Minute {
		t.Errorf("minutes job period = %v, want 2m", b.Period())
	}
	if _, err := base.Do(noop); !errors.Is(err, schedule.ErrInvalidUnit) {
		t.Errorf("base builder should still have no unit, got %v", err)
	}
}

func TestBuilder_LastUnitWins(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)
	j, err := s.Every(4).Seconds().Hours().Do(noop)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if j.Unit() != schedule.Hours || j.Period() != 4*time.Hour {
		t.Errorf("job = %v, want every 4 hours", j)
	}
}

func TestBuilder_Named(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)

	named, err := s.Every(1).Minutes().Named("refresh").Do(noop)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if named.Name() != "refresh" {
		t.Errorf("Name() = %q, want %q", named.Name(), "refresh")
	}

	anon, err := s.Every(1).Minutes().Do(noop)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if anon.Name() != anon.ID() || anon.ID() == "" {
		t.Errorf("unnamed job: Name() = %q, ID() = %q", anon.Name(), anon.ID())
	}
	if anon.ID() == named.ID() {
		t.Error("job IDs must be unique")
	}
}

func TestBuilder_TaskAdapter(t *testing.T) {
	t.Parallel()

	s, clock := newTestScheduler(t)

	want := errors.New("boom")
	j, err := s.Every(1).Seconds().Do(schedule.Task(func(context.Context) error { return want }))
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	clock.Advance(time.Second)
	ret, err := j.Run(context.Background())
	if ret != nil {
		t.Errorf("ret = %v, want nil", ret)
	}
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestBuilder_DoIntervalOverflow(t *testing.T) {
	t.Parallel()

	s, _ := newTestScheduler(t)
	fn := &scheduletest.MockFunc{}

	_, err := s.Every(20000).Weeks().Do(fn.Func())
	if !errors.Is(err, schedule.ErrIntervalRange) {
		t.Fatalf("Do error = %v, want ErrIntervalRange", err)
	}
	if !errors.Is(err, schedule.ErrSchedule) {
		t.Error("ErrIntervalRange should match ErrSchedule")
	}
	if s.Len() != 0 {
		t.Fatalf("rejected job leaked into the registry: Len() = %d", s.Len())
	}
	for range 3 {
		if err := s.RunPending(context.Background()); err != nil {
			t.Fatalf("RunPending: %v", err)
		}
	}
	if fn.CallCount() != 0 {
		t.Errorf("calls = %d, want 0", fn.CallCount())
	}
}

func TestBuilder_DoLargestInterval(t *testing.T) {
	t.Parallel()

	s, clock := newTestScheduler(t)
	fn := &scheduletest.MockFunc{}

	for _, u := range []schedule.Unit{schedule.Seconds, schedule.Minutes, schedule.Hours, schedule.Days, schedule.Weeks} {
		j, err := s.Every(u.MaxInterval()).Unit(u).Do(fn.Func())
		if err != nil {
			t.Fatalf("every %d %v: %v", u.MaxInterval(), u, err)
		}
		if j.Period() <= 0 {
			t.Errorf("every %d %v: period = %v, want positive", u.MaxInterval(), u, j.Period())
		}
		if !j.NextRun().After(clock.Now()) {
			t.Errorf("every %d %v: next run %v not after now", u.MaxInterval(), u, j.NextRun())
		}
	}
	if err := s.RunPending(context.Background()); err != nil {
		t.Fatalf("RunPending: %v", err)
	}
	if fn.CallCount() != 0 {
		t.Errorf("calls = %d, want 0", fn.CallCount())
	}
}
