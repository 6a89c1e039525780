package sources

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/kuralabs/flowbber/internal/plugin"
	"github.com/kuralabs/flowbber/internal/plugin/builtin/filters"
)

// envSource collects environment variables.
//
// A variable is collected when its name matches any include pattern and no
// exclude pattern. Both lists default to empty, so an unconfigured env
// source collects nothing: this source can leak sensitive data, patterns
// must be chosen deliberately.
type envSource struct {
	Include   []string `json:"include"`
	Exclude   []string `json:"exclude"`
	Lowercase *bool    `json:"lowercase"`
}

func newEnvSource(raw json.RawMessage) (plugin.Source, error) {
	s := &envSource{}
	if err := decode(raw, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *envSource) Collect(_ context.Context) (any, error) {
	lower := s.Lowercase == nil || *s.Lowercase

	data := make(map[string]any)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if !filters.MatchAny(s.Include, name) || filters.MatchAny(s.Exclude, name) {
			continue
		}
		key := name
		if lower {
			key = strings.ToLower(name)
		}
		data[key] = value
	}
	return data, nil
}
