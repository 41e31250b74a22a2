// Package topic matches hierarchical dot-separated log topics against
// patterns where `*` stands for exactly one path segment.
package topic

import "strings"

// Match reports whether topic satisfies pattern. Pattern segments are
// compared literally except `*`, which matches any single segment. The
// empty pattern matches everything.
func Match(pattern, topic string) bool {
	if pattern == "" {
		return true
	}

	ps := strings.Split(pattern, ".")
	ts := strings.Split(topic, ".")

	if len(ps) != len(ts) {
		return false
	}

	for i, p := range ps {
		if p != "*" && p != ts[i] {
			return false
		}
	}

	return true
}
