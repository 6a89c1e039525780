package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// slugRE constrains component ids: they become Bundle keys and journal
// record ids, so they must be stable, collision-free identifiers.
var slugRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ComponentSpec declares one source, aggregator or sink of a pipeline.
//
// Config is opaque to the executor; each plugin decodes its own options
// and applies safe defaults.
type ComponentSpec struct {
	Type     string `json:"type"`
	ID       string `json:"id"`
	Optional bool   `json:"optional,omitempty"`
	// Timeout is a Go duration string (e.g. "500ms", "10s"). Empty means
	// no per-component timeout.
	Timeout string          `json:"timeout,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
}

// ParseTimeout returns the component timeout, or 0 when none is set.
func (c ComponentSpec) ParseTimeout() (time.Duration, error) {
	return ParseDurationField(c.ID+".timeout", c.Timeout)
}

// Schedule declares repeated execution of the pipeline.
//
// Exactly one of Frequency or Cron must be set. Samples 0 means unbounded;
// Start 0 means start immediately.
type Schedule struct {
	// Frequency is a Go duration string between run starts.
	Frequency string `json:"frequency,omitempty"`
	// Cron is a standard 5-field cron expression, an alternative to
	// Frequency for wall-clock aligned runs.
	Cron string `json:"cron,omitempty"`
	// Start is an absolute unix timestamp (seconds) that must be in the
	// future when the scheduler starts.
	Start         int64 `json:"start,omitempty"`
	Samples       int   `json:"samples,omitempty"`
	StopOnFailure bool  `json:"stop_on_failure,omitempty"`
}

// Definition is a fully loaded pipeline definition.
type Definition struct {
	Schedule    *Schedule       `json:"schedule,omitempty"`
	Sources     []ComponentSpec `json:"sources"`
	Aggregators []ComponentSpec `json:"aggregators,omitempty"`
	Sinks       []ComponentSpec `json:"sinks"`
}

// Validate checks structural invariants that the executor relies on:
// non-empty sources and sinks, slug-shaped unique ids, parseable
// non-negative timeouts and a coherent schedule block.
func (d *Definition) Validate() error {
	if len(d.Sources) == 0 {
		return fmt.Errorf("pipeline declares no sources")
	}
	if len(d.Sinks) == 0 {
		return fmt.Errorf("pipeline declares no sinks")
	}

	seen := map[string]string{}
	check := func(role string, specs []ComponentSpec) error {
		for i, spec := range specs {
			where := fmt.Sprintf("%s[%d]", role, i)
			if spec.Type == "" {
				return fmt.Errorf("%s: type is required", where)
			}
			if !slugRE.MatchString(spec.ID) {
				return fmt.Errorf("%s: invalid id %q", where, spec.ID)
			}
			if prev, dup := seen[spec.ID]; dup {
				return fmt.Errorf("%s: id %q already used by %s", where, spec.ID, prev)
			}
			seen[spec.ID] = where
			if _, err := spec.ParseTimeout(); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check("sources", d.Sources); err != nil {
		return err
	}
	if err := check("aggregators", d.Aggregators); err != nil {
		return err
	}
	if err := check("sinks", d.Sinks); err != nil {
		return err
	}

	if d.Schedule != nil {
		if err := d.Schedule.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Schedule) validate() error {
	if s.Frequency == "" && s.Cron == "" {
		return fmt.Errorf("schedule: frequency or cron is required")
	}
	if s.Frequency != "" && s.Cron != "" {
		return fmt.Errorf("schedule: frequency and cron are mutually exclusive")
	}
	if s.Frequency != "" {
		freq, err := ParseDurationField("schedule.frequency", s.Frequency)
		if err != nil {
			return err
		}
		if freq <= 0 {
			return fmt.Errorf("schedule.frequency: must be > 0")
		}
	}
	if s.Samples < 0 {
		return fmt.Errorf("schedule.samples: must be >= 0")
	}
	if s.Start < 0 {
		return fmt.Errorf("schedule.start: must be >= 0")
	}
	return nil
}

// ParseFrequency returns the configured frequency, or 0 when the schedule
// is cron driven.
func (s *Schedule) ParseFrequency() (time.Duration, error) {
	if s.Frequency == "" {
		return 0, nil
	}
	return ParseDurationField("schedule.frequency", s.Frequency)
}
