package models

import (
	"sort"
	"strings"
)

// NormalizeTags trims tags, drops empties and collapses duplicates. The
// result is sorted since a task's tags form a set.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		out = appendIfNotExists(out, tag)
	}
	sort.Strings(out)
	return out
}

// TagsEqual reports whether a and b hold the same set of tags
func TagsEqual(a, b []string) bool {
	na := NormalizeTags(a)
	nb := NormalizeTags(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

// Helper functions
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func appendIfNotExists(slice []string, item string) []string {
	if !contains(slice, item) {
		return append(slice, item)
	}
	return slice
}
