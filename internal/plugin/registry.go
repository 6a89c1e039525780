package plugin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

type (
	SourceFactory     func(config json.RawMessage) (Source, error)
	AggregatorFactory func(config json.RawMessage) (Aggregator, error)
	SinkFactory       func(config json.RawMessage) (Sink, error)
)

// Registry maps component type tags to factories, one namespace per role.
// The same tag may exist in more than one role (e.g. a "command" source
// and a "command" sink).
type Registry struct {
	mu          sync.RWMutex
	sources     map[string]SourceFactory
	aggregators map[string]AggregatorFactory
	sinks       map[string]SinkFactory
}

func NewRegistry() *Registry {
	return &Registry{
		sources:     make(map[string]SourceFactory),
		aggregators: make(map[string]AggregatorFactory),
		sinks:       make(map[string]SinkFactory),
	}
}

func (r *Registry) RegisterSource(tag string, f SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.sources[tag]; dup {
		return fmt.Errorf("source type %q already registered", tag)
	}
	r.sources[tag] = f
	return nil
}

func (r *Registry) RegisterAggregator(tag string, f AggregatorFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.aggregators[tag]; dup {
		return fmt.Errorf("aggregator type %q already registered", tag)
	}
	r.aggregators[tag] = f
	return nil
}

func (r *Registry) RegisterSink(tag string, f SinkFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.sinks[tag]; dup {
		return fmt.Errorf("sink type %q already registered", tag)
	}
	r.sinks[tag] = f
	return nil
}

func (r *Registry) NewSource(tag string, config json.RawMessage) (Source, error) {
	r.mu.RLock()
	f, ok := r.sources[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown source type %q (available: %v)", tag, r.SourceTypes())
	}
	return f(config)
}

func (r *Registry) NewAggregator(tag string, config json.RawMessage) (Aggregator, error) {
	r.mu.RLock()
	f, ok := r.aggregators[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown aggregator type %q (available: %v)", tag, r.AggregatorTypes())
	}
	return f(config)
}

func (r *Registry) NewSink(tag string, config json.RawMessage) (Sink, error) {
	r.mu.RLock()
	f, ok := r.sinks[tag]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown sink type %q (available: %v)", tag, r.SinkTypes())
	}
	return f(config)
}

func (r *Registry) SourceTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedTags(r.sources)
}

func (r *Registry) AggregatorTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedTags(r.aggregators)
}

func (r *Registry) SinkTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedTags(r.sinks)
}

func sortedTags[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DecodeConfig strictly decodes a component's raw config into the plugin's
// options struct. A nil/empty raw config leaves the struct at its zero
// value so plugins can apply defaults afterwards.
func DecodeConfig(raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}
