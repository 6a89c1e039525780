// Package filters implements include/exclude pattern pruning over
// collected data, shared by the filter aggregator and the print sink.
//
// Patterns use path.Match syntax against dot-joined key paths
// (e.g. "s1.*", "*secret*"). A key survives when it (or an ancestor)
// matches an include pattern and no exclude pattern; exclude always wins,
// at any depth, so an included subtree is still recursed into and pruned.
package filters

import (
	"path"

	"github.com/kuralabs/flowbber/internal/bundle"
)

// MatchAny reports whether name matches at least one pattern.
func MatchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Apply prunes the bundle in place. Include defaults to keep-everything
// when empty.
func Apply(b *bundle.Bundle, include, exclude []string) {
	if len(include) == 0 {
		include = []string{"*"}
	}
	for _, key := range b.Keys() {
		if MatchAny(exclude, key) {
			b.Delete(key)
			continue
		}
		included := MatchAny(include, key)
		v, _ := b.Get(key)
		if m, ok := v.(map[string]any); ok {
			sub := applyMap(key, m, include, exclude, included)
			if len(sub) == 0 {
				b.Delete(key)
			} else {
				b.Set(key, sub)
			}
			continue
		}
		if !included {
			b.Delete(key)
		}
	}
}

// applyMap filters one nested map. A parent's include match extends to
// every descendant, but excludes are still judged per path.
func applyMap(prefix string, m map[string]any, include, exclude []string, parentIncluded bool) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		p := prefix + "." + k
		if MatchAny(exclude, p) {
			continue
		}
		included := parentIncluded || MatchAny(include, p)
		if mm, ok := v.(map[string]any); ok {
			sub := applyMap(p, mm, include, exclude, included)
			if len(sub) > 0 {
				out[k] = sub
			}
			continue
		}
		if included {
			out[k] = v
		}
	}
	return out
}
