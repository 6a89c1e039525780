package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kuralabs/flowbber/internal/bundle"
	"github.com/kuralabs/flowbber/internal/plugin"
	"github.com/kuralabs/flowbber/internal/plugin/builtin/filters"
)

// printSink pretty-prints the collected data to stdout or stderr,
// optionally pruned with include/exclude patterns first.
type printSink struct {
	Stderr  bool     `json:"stderr"`
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`

	// out overrides the destination in tests.
	out io.Writer
}

func newPrintSink(raw json.RawMessage) (plugin.Sink, error) {
	s := &printSink{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *printSink) Distribute(_ context.Context, snapshot *bundle.Bundle) error {
	filters.Apply(snapshot, s.Include, s.Exclude)

	body, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("render data: %w", err)
	}

	out := s.out
	if out == nil {
		out = os.Stdout
		if s.Stderr {
			out = os.Stderr
		}
	}
	_, err = fmt.Fprintln(out, string(body))
	return err
}
