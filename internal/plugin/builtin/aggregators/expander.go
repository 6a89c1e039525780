package aggregators

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kuralabs/flowbber/internal/bundle"
	"github.com/kuralabs/flowbber/internal/plugin"
)

// expanderAggregator moves the contents of one key to the bundle root.
// The value under the key must be a map; its children become top level
// keys (sorted, for a deterministic resulting order).
type expanderAggregator struct {
	Key string `json:"key"`
}

func newExpanderAggregator(raw json.RawMessage) (plugin.Aggregator, error) {
	a := &expanderAggregator{}
	if err := plugin.DecodeConfig(raw, a); err != nil {
		return nil, err
	}
	if a.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	return a, nil
}

func (a *expanderAggregator) Accumulate(_ context.Context, b *bundle.Bundle) error {
	v, ok := b.Get(a.Key)
	if !ok {
		return fmt.Errorf("key %q not present in bundle", a.Key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("key %q is not a map (got %T)", a.Key, v)
	}

	b.Delete(a.Key)

	children := make([]string, 0, len(m))
	for k := range m {
		children = append(children, k)
	}
	sort.Strings(children)
	for _, k := range children {
		b.Set(k, m[k])
	}
	return nil
}
