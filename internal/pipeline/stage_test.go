package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kuralabs/flowbber/internal/journal"
)

func hangingInstance(timeout time.Duration) *Instance {
	return &Instance{
		Role:    RoleSource,
		Type:    "hang",
		ID:      "h",
		Timeout: timeout,
	}
}

func TestRunOneTimeoutIsDistinctFromCancellation(t *testing.T) {
	hang := func(c context.Context) (any, error) {
		<-c.Done()
		return nil, c.Err()
	}

	t.Run("component budget expires", func(t *testing.T) {
		res := runOne(context.Background(), hangingInstance(20*time.Millisecond), hang)
		if res.rec.Status != journal.StatusTimedOut {
			t.Fatalf("status = %s, want timed_out", res.rec.Status)
		}
		if !errors.Is(res.cerr.Err, ErrTimeout) {
			t.Fatalf("err = %v, want ErrTimeout", res.cerr.Err)
		}
		if !res.cerr.TimedOut() {
			t.Fatal("TimedOut() = false")
		}
	})

	t.Run("caller cancels", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := runOne(ctx, hangingInstance(time.Hour), hang)
		if res.rec.Status != journal.StatusFailed {
			t.Fatalf("status = %s, want failed (external cancel is not a timeout)", res.rec.Status)
		}
		if res.cerr.TimedOut() {
			t.Fatal("external cancellation reported as timeout")
		}
	})
}

func TestRunOneAbandonsLateResults(t *testing.T) {
	// A component that overruns its budget must not block runOne; the late
	// result lands in a buffered channel nobody reads.
	done := make(chan struct{})
	late := func(c context.Context) (any, error) {
		defer close(done)
		time.Sleep(60 * time.Millisecond)
		return "late", nil
	}

	start := time.Now()
	res := runOne(context.Background(), hangingInstance(15*time.Millisecond), late)
	if took := time.Since(start); took > 50*time.Millisecond {
		t.Fatalf("runOne waited for the late component (took %s)", took)
	}
	if res.rec.Status != journal.StatusTimedOut {
		t.Fatalf("status = %s, want timed_out", res.rec.Status)
	}

	// The goroutine still finishes on its own; nothing deadlocks.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned component never finished")
	}
}

func TestRunConcurrentReturnsOneResultPerInstance(t *testing.T) {
	instances := []*Instance{
		{Role: RoleSource, Type: "a", ID: "a"},
		{Role: RoleSource, Type: "b", ID: "b"},
		{Role: RoleSource, Type: "c", ID: "c"},
	}
	results := runConcurrent(context.Background(), instances, func(_ context.Context, inst *Instance) (any, error) {
		if inst.ID == "b" {
			return nil, errors.New("b failed")
		}
		return inst.ID, nil
	})
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	seen := map[string]bool{}
	for _, res := range results {
		seen[res.inst.ID] = true
	}
	if len(seen) != 3 {
		t.Fatalf("seen = %v, want all three instances", seen)
	}
}
