package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kuralabs/flowbber/internal/config"
	"github.com/kuralabs/flowbber/internal/journal"
	logx "github.com/kuralabs/flowbber/pkg/logx"
)

// fakeRunner counts runs and fails on the configured run numbers.
type fakeRunner struct {
	name   string
	failOn map[int]bool
	delay  time.Duration
	perRun func(run int)

	mu   sync.Mutex
	runs int
}

func (r *fakeRunner) Name() string { return r.name }

func (r *fakeRunner) Run(ctx context.Context) (*journal.Entry, error) {
	r.mu.Lock()
	r.runs++
	run := r.runs
	r.mu.Unlock()

	if r.perRun != nil {
		r.perRun(run)
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	entry := &journal.Entry{RunID: uuid.NewString(), Pipeline: r.name, Status: journal.StatusOK}
	if r.failOn[run] {
		entry.Status = journal.StatusFailed
		return entry, errors.New("scheduled run failed")
	}
	return entry, nil
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

func TestStopsWhenSampleBudgetExhausted(t *testing.T) {
	r := &fakeRunner{name: "p"}
	s := New(r, Policy{Frequency: 5 * time.Millisecond, Samples: 3}, logx.Nop())

	reason, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if reason != StopSamples {
		t.Fatalf("reason = %q, want %q", reason, StopSamples)
	}
	if got := r.count(); got != 3 {
		t.Fatalf("runs = %d, want 3", got)
	}
	if c := s.Counters(); c.Passed != 3 || c.Failed != 0 {
		t.Fatalf("counters = %+v, want 3 passed", c)
	}
	if s.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", s.State())
	}
}

func TestFailedRunsCountTowardSampleBudget(t *testing.T) {
	r := &fakeRunner{name: "p", failOn: map[int]bool{2: true}}
	s := New(r, Policy{Frequency: 5 * time.Millisecond, Samples: 3}, logx.Nop())

	reason, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if reason != StopSamples {
		t.Fatalf("reason = %q, want %q", reason, StopSamples)
	}
	if got := r.count(); got != 3 {
		t.Fatalf("runs = %d, want 3 (failed run must count)", got)
	}
	if c := s.Counters(); c.Passed != 2 || c.Failed != 1 {
		t.Fatalf("counters = %+v, want 2 passed / 1 failed", c)
	}
}

func TestStopOnFailureHaltsAfterFailedRun(t *testing.T) {
	r := &fakeRunner{name: "p", failOn: map[int]bool{2: true}}
	s := New(r, Policy{Frequency: 5 * time.Millisecond, Samples: 10, StopOnFailure: true}, logx.Nop())

	reason, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("want the failing run's error")
	}
	if reason != StopFailure {
		t.Fatalf("reason = %q, want %q", reason, StopFailure)
	}
	if got := r.count(); got != 2 {
		t.Fatalf("runs = %d, want 2", got)
	}
}

func TestCancellationDuringRunStopsAtRunBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRunner{name: "p", perRun: func(run int) {
		if run == 1 {
			cancel()
		}
	}}
	s := New(r, Policy{Frequency: time.Hour}, logx.Nop())

	reason, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if reason != StopCanceled {
		t.Fatalf("reason = %q, want %q", reason, StopCanceled)
	}
	// The in-flight run finished; the scheduler never started another.
	if got := r.count(); got != 1 {
		t.Fatalf("runs = %d, want 1", got)
	}
}

func TestCancellationDuringSleepExitsPromptly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRunner{name: "p"}
	s := New(r, Policy{Frequency: time.Hour}, logx.Nop())

	done := make(chan StopReason, 1)
	go func() {
		reason, _ := s.Run(ctx)
		done <- reason
	}()

	// Let the first run finish and the scheduler go to sleep.
	deadline := time.Now().Add(2 * time.Second)
	for s.State() != StateSleeping {
		if time.Now().After(deadline) {
			t.Fatal("scheduler never went to sleep")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case reason := <-done:
		if reason != StopCanceled {
			t.Fatalf("reason = %q, want %q", reason, StopCanceled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not exit after cancellation")
	}
}

func TestOverrunCountsMissedTickAndContinuesImmediately(t *testing.T) {
	r := &fakeRunner{name: "p", delay: 30 * time.Millisecond}
	s := New(r, Policy{Frequency: 5 * time.Millisecond, Samples: 2}, logx.Nop())

	start := time.Now()
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	took := time.Since(start)

	if c := s.Counters(); c.Missed != 1 {
		t.Fatalf("missed = %d, want 1", c.Missed)
	}
	// Two overrunning runs back to back, no extra sleep in between.
	if took > 150*time.Millisecond {
		t.Fatalf("scheduler slept after an overrun (took %s)", took)
	}
}

func TestSwapTakesEffectOnNextTick(t *testing.T) {
	replacement := &fakeRunner{name: "v2"}
	var s *Scheduler
	original := &fakeRunner{name: "v1"}
	original.perRun = func(run int) {
		if run == 1 {
			s.Swap(replacement)
		}
	}
	s = New(original, Policy{Frequency: 5 * time.Millisecond, Samples: 2}, logx.Nop())

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := original.count(); got != 1 {
		t.Fatalf("original runs = %d, want 1", got)
	}
	if got := replacement.count(); got != 1 {
		t.Fatalf("replacement runs = %d, want 1", got)
	}
}

func TestStartInThePastIsRejected(t *testing.T) {
	r := &fakeRunner{name: "p"}
	s := New(r, Policy{
		Frequency: time.Minute,
		Start:     time.Now().Add(-time.Hour),
	}, logx.Nop())

	reason, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("want error for start time in the past")
	}
	if reason != StopUnknown {
		t.Fatalf("reason = %q, want %q", reason, StopUnknown)
	}
	if r.count() != 0 {
		t.Fatal("pipeline ran despite invalid start time")
	}
}

func TestPolicyFromConfig(t *testing.T) {
	cases := []struct {
		name    string
		in      *config.Schedule
		wantErr bool
		check   func(t *testing.T, p Policy)
	}{
		{
			name: "frequency",
			in:   &config.Schedule{Frequency: "30s", Samples: 5, StopOnFailure: true},
			check: func(t *testing.T, p Policy) {
				if p.Frequency != 30*time.Second || p.Samples != 5 || !p.StopOnFailure {
					t.Fatalf("policy = %+v", p)
				}
				if p.Cron != nil {
					t.Fatal("cron set for a frequency schedule")
				}
			},
		},
		{
			name: "cron",
			in:   &config.Schedule{Cron: "*/5 * * * *"},
			check: func(t *testing.T, p Policy) {
				if p.Cron == nil {
					t.Fatal("cron schedule not parsed")
				}
				base := time.Date(2026, 1, 1, 10, 2, 0, 0, time.UTC)
				next := p.Cron.Next(base)
				want := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
				if !next.Equal(want) {
					t.Fatalf("next = %s, want %s", next, want)
				}
			},
		},
		{
			name:    "invalid cron",
			in:      &config.Schedule{Cron: "not a cron"},
			wantErr: true,
		},
		{
			name:    "nil schedule",
			in:      nil,
			wantErr: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := PolicyFromConfig(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("PolicyFromConfig: %v", err)
			}
			tc.check(t, p)
		})
	}
}
