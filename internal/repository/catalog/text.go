package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// folder applies Unicode case folding. A cases.Caser is stateful, so each lookup gets its own.
type folder struct {
	c cases.Caser
}

func newFolder() *folder {
	return &folder{c: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.c.String(s)
}

// contains mirrors ILIKE '%needle%' for an already folded needle.
func (f *folder) contains(hay, needle string) bool {
	return strings.Contains(f.fold(hay), needle)
}

// hasPrefix mirrors ILIKE 'needle%' for an already folded needle.
func (f *folder) hasPrefix(hay, needle string) bool {
	return strings.HasPrefix(f.fold(hay), needle)
}

func terms(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// trigramThreshold is the pg_trgm default for the % operator.
const trigramThreshold = 0.3

// trigrams splits folded text into pg_trgm style padded trigrams.
func trigrams(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range terms(s) {
		padded := []rune("  " + w + " ")
		for i := 0; i+3 <= len(padded); i++ {
			out[string(padded[i:i+3])] = struct{}{}
		}
	}
	return out
}

// similarity is the Jaccard index over trigram sets, as pg_trgm computes it.
func similarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}
