package search

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// maxProbes caps the probe bigrams sent to stores without native full text.
const maxProbes = 32

// bigrams returns the distinct character bigrams of each run of Han
// characters in s, in order of first appearance. A run of one character
// contributes that character.
func bigrams(s string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
		run  []rune
	)
	add := func(g string) {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	flush := func() {
		switch {
		case len(run) == 1:
			add(string(run))
		case len(run) > 1:
			for i := 0; i+1 < len(run); i++ {
				add(string(run[i : i+2]))
			}
		}
		run = run[:0]
	}
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// Probes returns the bigrams used to find candidate variants of text.
func Probes(text string) []string {
	p := bigrams(text)
	if len(p) > maxProbes {
		p = p[:maxProbes]
	}
	return p
}

// dice compares the Han projections of two passages by character bigram.
var dice = &metrics.SorensenDice{CaseSensitive: true, NgramSize: 2}

// hanOnly drops every character that is not Han, so punctuation and
// spacing never affect similarity.
func hanOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Han, r) {
			return r
		}
		return -1
	}, s)
}

// Similarity is the Sorensen-Dice coefficient of the Han bigrams of a and
// b, between 0 and 1. Text without Han characters scores 0.
func Similarity(a, b string) float64 {
	x, y := hanOnly(a), hanOnly(b)
	if x == "" || y == "" {
		return 0
	}
	return strutil.Similarity(x, y, dice)
}
