// Package sinks implements the builtin data publication plugins.
package sinks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kuralabs/flowbber/internal/plugin"
)

// Register adds every builtin sink to the registry.
func Register(reg *plugin.Registry) error {
	for tag, f := range map[string]plugin.SinkFactory{
		"print":    newPrintSink,
		"archive":  newArchiveSink,
		"template": newTemplateSink,
		"command":  newCommandSink,
	} {
		if err := reg.RegisterSink(tag, f); err != nil {
			return err
		}
	}
	return nil
}

func decode(raw json.RawMessage, into any) error {
	return plugin.DecodeConfig(raw, into)
}

// prepareOutput validates the destination path shared by the file
// writing sinks and optionally creates missing parent directories.
func prepareOutput(output string, override, createParents bool) error {
	if output == "" {
		return fmt.Errorf("output is required")
	}
	if !override {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("output %q already exists and override is disabled", output)
		}
	}
	if createParents {
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("create parent directories: %w", err)
		}
	}
	return nil
}
