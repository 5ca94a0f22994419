package lang

import (
	"cmp"
	"maps"
	"slices"

	"github.com/sahilm/fuzzy"
)

// suggest returns the candidate closest to a mistyped name, or "".
func suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}

	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return ""
	}

	return matches[0].Str
}

func sortedKeys[M ~map[K]V, K cmp.Ordered, V any](m M) []K {
	return slices.Sorted(maps.Keys(m))
}
