// Package sources implements the builtin data collection plugins.
package sources

import (
	"encoding/json"

	"github.com/kuralabs/flowbber/internal/plugin"
)

// Register adds every builtin source to the registry.
func Register(reg *plugin.Registry) error {
	for tag, f := range map[string]plugin.SourceFactory{
		"env":       newEnvSource,
		"timestamp": newTimestampSource,
		"user":      newUserSource,
		"json":      newJSONSource,
		"speed":     newSpeedSource,
		"command":   newCommandSource,
	} {
		if err := reg.RegisterSource(tag, f); err != nil {
			return err
		}
	}
	return nil
}

func decode(raw json.RawMessage, into any) error {
	return plugin.DecodeConfig(raw, into)
}
