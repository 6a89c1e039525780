package aggregators

import (
	"context"
	"encoding/json"

	"github.com/kuralabs/flowbber/internal/bundle"
	"github.com/kuralabs/flowbber/internal/plugin"
	"github.com/kuralabs/flowbber/internal/plugin/builtin/filters"
)

// filterAggregator prunes the collected data with include/exclude
// patterns over dot-joined key paths.
type filterAggregator struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

func newFilterAggregator(raw json.RawMessage) (plugin.Aggregator, error) {
	a := &filterAggregator{}
	if err := plugin.DecodeConfig(raw, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *filterAggregator) Accumulate(_ context.Context, b *bundle.Bundle) error {
	filters.Apply(b, a.Include, a.Exclude)
	return nil
}
