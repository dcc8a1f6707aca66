// Package match resolves a spoken, transcribed name to a stored record.
//
// Steps run in order over the whole record list and the first hit wins:
// exact equality, containment, key prefix, similarity ratio. Within a step the
// first record in input order wins; there is no scoring between candidates.
package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

type Containment int

const (
	ContainNone Containment = iota
	EitherWay
)

type Strategy string

const (
	StrategyExact      Strategy = "exact"
	StrategyContains   Strategy = "contains"
	StrategyPrefix     Strategy = "prefix"
	StrategySimilarity Strategy = "similarity"
)

type Options struct {
	Normalize   func(string) string
	Containment Containment
	// PrefixLen enables the key-prefix step on the first PrefixLen runes of
	// the normalised query. Zero disables it.
	PrefixLen int
	// MinRatio enables the similarity step; a record matches when its ratio
	// is strictly greater. Zero disables it.
	MinRatio float64
}

// Catalog is used for product, recipe and FAQ lookups.
var Catalog = Options{
	Normalize:   Lower,
	Containment: EitherWay,
}

// Fuzzy is used for customer names. It accepts false positives over strict
// identity and must not be treated as authentication.
var Fuzzy = Options{
	Normalize:   Compact,
	Containment: EitherWay,
	PrefixLen:   4,
	MinRatio:    0.75,
}

type Hit[T any] struct {
	Record   T
	Index    int
	Strategy Strategy
}

func Find[T any](query string, records []T, key func(T) string, opts Options) (Hit[T], bool) {
	normalize := opts.Normalize
	if normalize == nil {
		normalize = Lower
	}

	q := normalize(query)
	if q == "" || len(records) == 0 {
		return Hit[T]{}, false
	}

	keys := make([]string, len(records))
	for i, r := range records {
		keys[i] = normalize(key(r))
	}

	hit := func(i int, s Strategy) (Hit[T], bool) {
		return Hit[T]{Record: records[i], Index: i, Strategy: s}, true
	}

	for i, k := range keys {
		if k == q {
			return hit(i, StrategyExact)
		}
	}

	if opts.Containment != ContainNone {
		for i, k := range keys {
			if k != "" && contains(q, k, opts.Containment) {
				return hit(i, StrategyContains)
			}
		}
	}

	if opts.PrefixLen > 0 {
		if runes := []rune(q); len(runes) >= opts.PrefixLen {
			prefix := string(runes[:opts.PrefixLen])
			for i, k := range keys {
				if strings.HasPrefix(k, prefix) {
					return hit(i, StrategyPrefix)
				}
			}
		}
	}

	if opts.MinRatio > 0 {
		for i, k := range keys {
			if k != "" && Ratio(q, k) > opts.MinRatio {
				return hit(i, StrategySimilarity)
			}
		}
	}

	return Hit[T]{}, false
}

func contains(query, key string, mode Containment) bool {
	switch mode {
	case EitherWay:
		return strings.Contains(key, query) || strings.Contains(query, key)
	default:
		return false
	}
}

// Lower trims and lowercases, keeping inner spacing.
func Lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Compact lowercases and drops spaces and hyphens, so "Rohan-Gupta",
// "rohan gupta" and "RohanGupta" all compare equal.
func Compact(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ratio is the character-level similarity 2*M/T of a and b, where M is the
// number of matched characters and T the total length of both.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
