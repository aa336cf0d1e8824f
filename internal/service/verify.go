package service

import (
	"strings"

	"github.com/arbovm/levenshtein"
)

// WordErrorRate computes the word-level edit distance between the expected
// and actual text, normalized by the expected word count.
func WordErrorRate(expected, actual string) float64 {
	ref := strings.Fields(strings.ToUpper(expected))
	hyp := strings.Fields(strings.ToUpper(actual))
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0
		}
		return 1
	}

	// Standard dynamic program over word tokens.
	prev := make([]int, len(hyp)+1)
	curr := make([]int, len(hyp)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ref); i++ {
		curr[0] = i
		for j := 1; j <= len(hyp); j++ {
			cost := 1
			if ref[i-1] == hyp[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return float64(prev[len(hyp)]) / float64(len(ref))
}

// CharErrorRate computes the character-level edit distance normalized by the
// expected length.
func CharErrorRate(expected, actual string) float64 {
	expected = strings.ToUpper(strings.TrimSpace(expected))
	actual = strings.ToUpper(strings.TrimSpace(actual))
	if expected == "" {
		if actual == "" {
			return 0
		}
		return 1
	}
	return float64(levenshtein.Distance(expected, actual)) / float64(len([]rune(expected)))
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
