// Package aggregators implements the builtin bundle transformation plugins.
package aggregators

import (
	"github.com/kuralabs/flowbber/internal/plugin"
)

// Register adds every builtin aggregator to the registry.
func Register(reg *plugin.Registry) error {
	for tag, f := range map[string]plugin.AggregatorFactory{
		"filter":   newFilterAggregator,
		"expander": newExpanderAggregator,
	} {
		if err := reg.RegisterAggregator(tag, f); err != nil {
			return err
		}
	}
	return nil
}
