// Package bundle holds the ordered result map threaded through one
// pipeline run.
//
// Sources contribute disjoint keys (their own id), aggregators then extend
// or edit the map in declaration order, and each sink receives its own deep
// snapshot so sink-side mutation is never observable elsewhere.
package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bundle is an insertion-ordered map from component id to a JSON-compatible
// value. It is owned by exactly one pipeline run and is not safe for
// concurrent mutation; the run serializes access by construction.
type Bundle struct {
	keys   []string
	values map[string]any
}

func New() *Bundle {
	return &Bundle{values: make(map[string]any)}
}

// Set inserts or replaces a value. First insertion fixes the key's position.
func (b *Bundle) Set(key string, value any) {
	if _, ok := b.values[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.values[key] = value
}

func (b *Bundle) Get(key string) (any, bool) {
	v, ok := b.values[key]
	return v, ok
}

func (b *Bundle) Delete(key string) {
	if _, ok := b.values[key]; !ok {
		return
	}
	delete(b.values, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

func (b *Bundle) Len() int { return len(b.keys) }

// Keys returns the insertion-ordered keys as a copy.
func (b *Bundle) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Snapshot returns a deep copy. Mutating the copy (or values reachable from
// it) never affects the original.
func (b *Bundle) Snapshot() *Bundle {
	cp := &Bundle{
		keys:   make([]string, len(b.keys)),
		values: make(map[string]any, len(b.values)),
	}
	copy(cp.keys, b.keys)
	for k, v := range b.values {
		cp.values[k] = deepCopy(v)
	}
	return cp
}

// MarshalJSON renders the bundle as a JSON object in insertion order.
func (b *Bundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(b.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// deepCopy copies the JSON-compatible value graph. Scalars are immutable
// and returned as-is; anything exotic falls back to a JSON round trip.
func deepCopy(v any) any {
	switch x := v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return x
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, vv := range x {
			m[k] = deepCopy(vv)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, vv := range x {
			s[i] = deepCopy(vv)
		}
		return s
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return x
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return x
		}
		return out
	}
}
