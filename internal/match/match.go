// Package match holds the name-normalization and variant-classification
// heuristics shared by every source adapter. Each storefront encodes card
// names and foil variants differently; adapters translate their catalog
// entries into the signal shapes this package understands so the actual
// matching rules live in exactly one place.
package match

import (
	"regexp"
	"strings"
)

// pitchColors are the card resource colors that catalogs sometimes append
// to a name ("Take the Bait Red") and sometimes omit or parenthesize.
var pitchColors = []string{"red", "yellow", "blue"}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize lowercases text, strips punctuation, and collapses runs of
// whitespace. Deterministic and pure; every comparison in this package
// goes through it.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = nonWordRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// StripColorSuffix splits a trailing pitch color off a card name.
// "Take the Bait Red" -> ("Take the Bait", "red"). Names without a color
// suffix come back unchanged with color "".
func StripColorSuffix(name string) (base string, color string) {
	lower := strings.ToLower(name)
	for _, c := range pitchColors {
		if strings.HasSuffix(lower, " "+c) {
			return strings.TrimSpace(name[:len(name)-len(c)-1]), c
		}
	}
	return name, ""
}

// CardName reports whether candidate catalog text plausibly names the
// queried card. It is a containment test: the normalized candidate must
// contain the normalized query name, or its color-stripped base name
// (many catalogs never encode pitch color). Near-duplicate card names can
// therefore false-positive; that trade-off is accepted rather than adding
// an edit-distance pass.
func CardName(candidateText, queryName string) bool {
	cand := Normalize(candidateText)
	query := Normalize(queryName)
	if query == "" {
		return false
	}

	if strings.Contains(cand, query) {
		return true
	}

	base, color := StripColorSuffix(queryName)
	if color == "" {
		return false
	}
	return strings.Contains(cand, Normalize(base))
}

// WordOverlap returns the fraction of significant query words (longer than
// two runes) present in the candidate text. Used by adapters whose catalog
// titles carry heavy decoration around the card name.
func WordOverlap(candidateText, queryName string) float64 {
	cand := Normalize(candidateText)

	var words []string
	for _, w := range strings.Fields(Normalize(queryName)) {
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return 0
	}

	matched := 0
	for _, w := range words {
		if strings.Contains(cand, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}
