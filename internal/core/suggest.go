package core

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const maxSuggestDistance = 2

// SuggestCategory returns the closest known category when input looks like a typo of it.
// It returns false when input already matches a known category (ignoring case)
// or nothing is close enough.
func SuggestCategory(input string, known []string) (string, bool) {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, k := range known {
		kl := strings.ToLower(k)
		if kl == in {
			return "", false
		}
		if d := levenshtein.ComputeDistance(in, kl); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}
