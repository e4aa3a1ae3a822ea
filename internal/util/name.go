package util

import "strings"

// NormalizeName folds a type or driver name to lowercase alphanumerics so that
// "Sim-Broker", "sim_broker" and "simbroker" compare equal.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if r >= 'A' && r <= 'Z' {
				r += 32
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Match classifies the outcome of a single-candidate lookup.
type Match int

const (
	// MatchNone means no candidate satisfied the predicate.
	MatchNone Match = iota
	// MatchOne means exactly one candidate satisfied the predicate.
	MatchOne
	// MatchAmbiguous means more than one candidate satisfied the predicate.
	MatchAmbiguous
)

func (m Match) String() string {
	switch m {
	case MatchOne:
		return "one"
	case MatchAmbiguous:
		return "ambiguous"
	default:
		return "none"
	}
}

// Single returns the only item satisfying pred. It never picks the first of many.
func Single[T any](items []T, pred func(T) bool) (T, Match) {
	var (
		found T
		count int
	)
	for _, item := range items {
		if !pred(item) {
			continue
		}
		count++
		if count > 1 {
			var zero T
			return zero, MatchAmbiguous
		}
		found = item
	}
	if count == 0 {
		var zero T
		return zero, MatchNone
	}
	return found, MatchOne
}
