// Package scheduler repeats pipeline runs under a schedule policy.
//
// The scheduler is a single sequential control loop: runs never overlap,
// a slow run delays (and counts as a missed tick), never skips. State
// machine: pending_start -> running -> (sleeping <-> running)* -> stopped.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kuralabs/flowbber/internal/config"
	"github.com/kuralabs/flowbber/internal/journal"
	logx "github.com/kuralabs/flowbber/pkg/logx"
)

// Runner is one schedulable pipeline. *pipeline.Pipeline satisfies it.
type Runner interface {
	Name() string
	Run(ctx context.Context) (*journal.Entry, error)
}

// Policy is the parsed schedule policy.
//
// Exactly one of Frequency or Cron is set. Samples 0 means unbounded.
// A zero Start means start immediately; a non-zero Start must be in the
// future when the scheduler starts.
type Policy struct {
	Frequency     time.Duration
	Cron          cron.Schedule
	Start         time.Time
	Samples       int
	StopOnFailure bool
}

// PolicyFromConfig parses a validated schedule block into a Policy.
func PolicyFromConfig(s *config.Schedule) (Policy, error) {
	var p Policy
	if s == nil {
		return p, fmt.Errorf("no schedule block")
	}

	freq, err := s.ParseFrequency()
	if err != nil {
		return p, err
	}
	p.Frequency = freq

	if s.Cron != "" {
		sched, err := cron.ParseStandard(s.Cron)
		if err != nil {
			return p, fmt.Errorf("schedule.cron: %w", err)
		}
		p.Cron = sched
	}

	if s.Start > 0 {
		p.Start = time.Unix(s.Start, 0)
	}
	p.Samples = s.Samples
	p.StopOnFailure = s.StopOnFailure
	return p, nil
}

// State is the scheduler's lifecycle state, exposed for observability.
type State string

const (
	StatePendingStart State = "pending_start"
	StateRunning      State = "running"
	StateSleeping     State = "sleeping"
	StateStopped      State = "stopped"
)

// Counters are the categorized run counts, mutated only between ticks.
type Counters struct {
	Passed int
	Failed int
	Missed int
}

type Scheduler struct {
	policy Policy
	log    logx.Logger

	mu      sync.Mutex
	runner  Runner
	pending Runner // swapped-in runner picked up before the next tick
	state   State
	counts  Counters
}

func New(runner Runner, policy Policy, log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		policy: policy,
		log:    log,
		runner: runner,
		state:  StatePendingStart,
	}
}

// Swap replaces the pipeline executed from the next tick on. The in-flight
// run (if any) finishes with the previous pipeline.
func (s *Scheduler) Swap(r Runner) {
	if r == nil {
		return
	}
	s.mu.Lock()
	s.pending = r
	s.mu.Unlock()
	s.log.Info("pipeline swap staged for next tick", logx.String("pipeline", r.Name()))
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Counters returns the categorized run counts so far.
func (s *Scheduler) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) currentRunner() Runner {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.runner = s.pending
		s.pending = nil
	}
	return s.runner
}

// Run drives the schedule until a terminal condition and reports why it
// stopped. Cancellation during pending_start or sleeping exits immediately;
// cancellation during a run is honored once the run's stages have joined.
func (s *Scheduler) Run(ctx context.Context) (StopReason, error) {
	defer s.setState(StateStopped)

	// pending_start
	if !s.policy.Start.IsZero() {
		now := time.Now()
		if s.policy.Start.Before(now) {
			return StopUnknown, fmt.Errorf("invalid start time %s: already in the past", s.policy.Start)
		}
		wait := s.policy.Start.Sub(now)
		s.log.Info("pipeline scheduled", logx.Duration("starts_in", wait))
		select {
		case <-ctx.Done():
			return StopCanceled, nil
		case <-time.After(wait):
		}
	}

	samplesTaken := 0
	for {
		s.setState(StateRunning)
		runner := s.currentRunner()
		tickStart := time.Now()

		entry, err := runner.Run(ctx)
		s.mu.Lock()
		if err != nil {
			s.counts.Failed++
		} else {
			s.counts.Passed++
		}
		s.mu.Unlock()

		if err != nil {
			runID := ""
			if entry != nil {
				runID = entry.RunID
			}
			s.log.Error("scheduled run failed",
				logx.String("pipeline", runner.Name()),
				logx.String("run_id", runID),
				logx.Err(err),
			)
		}

		// A run in flight during cancellation has joined all its stages by
		// now; this is the safe boundary.
		if ctx.Err() != nil {
			return StopCanceled, nil
		}

		if err != nil && s.policy.StopOnFailure {
			return StopFailure, err
		}

		samplesTaken++
		if s.policy.Samples > 0 && samplesTaken >= s.policy.Samples {
			c := s.Counters()
			s.log.Info("sample budget exhausted",
				logx.Int("samples", samplesTaken),
				logx.Int("passed", c.Passed),
				logx.Int("failed", c.Failed),
				logx.Int("missed", c.Missed),
			)
			return StopSamples, nil
		}

		// sleeping
		next := s.nextTick(tickStart)
		now := time.Now()
		if !next.After(now) {
			// The previous run overran the schedule: count the miss and
			// start the next run right away.
			s.mu.Lock()
			s.counts.Missed++
			s.mu.Unlock()
			s.log.Info("tick missed; starting next run immediately",
				logx.String("pipeline", runner.Name()),
			)
			continue
		}

		s.setState(StateSleeping)
		s.log.Info("next run scheduled", logx.Duration("in", next.Sub(now)))
		select {
		case <-ctx.Done():
			return StopCanceled, nil
		case <-time.After(next.Sub(now)):
		}
	}
}

// nextTick computes when the run after the one started at tickStart is due.
func (s *Scheduler) nextTick(tickStart time.Time) time.Time {
	if s.policy.Cron != nil {
		return s.policy.Cron.Next(tickStart)
	}
	return tickStart.Add(s.policy.Frequency)
}
