package store

import (
	"fmt"
	"sort"
	"strings"
)

// CoerceNames flattens raw name candidates into trimmed, deduplicated names,
// preserving first-seen order. Candidates are usually strings, but language
// models sometimes wrap them in single-key objects; for those the first
// value (by sorted key, for determinism) is taken.
func CoerceNames(raw []any) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, candidate := range raw {
		name := coerceName(candidate)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}

	return out
}

func coerceName(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case map[string]any:
		if len(val) == 0 {
			return ""
		}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return coerceName(val[keys[0]])
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// dedupeNames trims and deduplicates a string slice, preserving order.
func dedupeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
