// Package builtin registers the plugins that ship with flowbber.
package builtin

import (
	"github.com/kuralabs/flowbber/internal/plugin"
	"github.com/kuralabs/flowbber/internal/plugin/builtin/aggregators"
	"github.com/kuralabs/flowbber/internal/plugin/builtin/sinks"
	"github.com/kuralabs/flowbber/internal/plugin/builtin/sources"
)

// Register adds every builtin source, aggregator and sink to the registry.
func Register(reg *plugin.Registry) error {
	if err := sources.Register(reg); err != nil {
		return err
	}
	if err := aggregators.Register(reg); err != nil {
		return err
	}
	return sinks.Register(reg)
}
