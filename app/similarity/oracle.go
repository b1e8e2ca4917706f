// Package similarity scores pairs of keyword sets.
//
// Oracles are total: they never fail and always return a value in [0, 1].
// Similarity(a, b) must equal Similarity(b, a).
package similarity

import (
	"slices"
	"strings"
)

type Oracle interface {
	Similarity(a, b []string) float64
}

// Key returns an identity for a keyword set that ignores keyword order
func Key(set []string) string {
	sorted := slices.Clone(set)
	slices.Sort(sorted)
	return strings.Join(sorted, "\x1f")
}
