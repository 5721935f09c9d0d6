package compose

import (
	"regexp"
	"strings"
)

// Facts is the hard-facts bundle extracted from structured content before
// verbalization. Every fact must survive the rewrite verbatim.
type Facts struct {
	Dates        []string
	Prices       []string
	ProductNames []string
	Units        []string
	RoomNames    []string
}

var (
	dateFactRe  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	priceFactRe = regexp.MustCompile(`\b\d+(?:[.,]\d{2})?\s?(?:EUR|€|USD|\$)|\b(?:EUR|€|USD|\$)\s?\d+(?:[.,]\d{2})?`)
	unitFactRe  = regexp.MustCompile(`(?i)\bper (person|event)\b`)
)

// ExtractFacts pulls dates, prices, and units out of text, plus the given
// protected names.
func ExtractFacts(text string, roomNames, productNames []string) Facts {
	f := Facts{
		RoomNames:    dedupe(roomNames),
		ProductNames: dedupe(productNames),
	}
	f.Dates = dedupe(dateFactRe.FindAllString(text, -1))
	f.Prices = dedupe(priceFactRe.FindAllString(text, -1))
	for _, m := range unitFactRe.FindAllString(text, -1) {
		f.Units = append(f.Units, strings.ToLower(m))
	}
	f.Units = dedupe(f.Units)
	return f
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
