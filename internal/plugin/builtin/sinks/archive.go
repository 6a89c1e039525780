package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kuralabs/flowbber/internal/bundle"
	"github.com/kuralabs/flowbber/internal/plugin"
)

// archiveSink writes the collected data as a JSON document to a file.
type archiveSink struct {
	Output        string `json:"output"`
	Override      bool   `json:"override"`
	CreateParents bool   `json:"create_parents"`
	Pretty        bool   `json:"pretty"`
}

func newArchiveSink(raw json.RawMessage) (plugin.Sink, error) {
	s := &archiveSink{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	if s.Output == "" {
		return nil, fmt.Errorf("output is required")
	}
	return s, nil
}

func (s *archiveSink) Distribute(_ context.Context, snapshot *bundle.Bundle) error {
	if err := prepareOutput(s.Output, s.Override, s.CreateParents); err != nil {
		return err
	}

	var (
		body []byte
		err  error
	)
	if s.Pretty {
		body, err = json.MarshalIndent(snapshot, "", "    ")
	} else {
		body, err = json.Marshal(snapshot)
	}
	if err != nil {
		return fmt.Errorf("render data: %w", err)
	}

	if err := os.WriteFile(s.Output, append(body, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", s.Output, err)
	}
	return nil
}
