package compose

import (
	"fmt"
	"strings"
)

// VerifyResult reports how a verbalized intro compares to its hard facts.
type VerifyResult struct {
	Missing  []string // facts absent from the output
	Invented []string // dates/prices in the output that were not in the input
	// UnitSwapped marks "per person"/"per event" flips.
	UnitSwapped bool
}

// OK reports a clean verification.
func (r VerifyResult) OK() bool {
	return len(r.Missing) == 0 && len(r.Invented) == 0 && !r.UnitSwapped
}

func (r VerifyResult) Error() string {
	return fmt.Sprintf("fact verification failed: missing=%v invented=%v unit_swapped=%v",
		r.Missing, r.Invented, r.UnitSwapped)
}

// Verify checks that every hard fact appears verbatim in the output, that
// no new dates or prices were invented, and that units were not swapped.
func Verify(output string, facts Facts) VerifyResult {
	var res VerifyResult
	lower := strings.ToLower(output)

	for _, group := range [][]string{facts.Dates, facts.Prices, facts.RoomNames, facts.ProductNames} {
		for _, fact := range group {
			if !strings.Contains(lower, strings.ToLower(fact)) {
				res.Missing = append(res.Missing, fact)
			}
		}
	}

	// Anything matching a date or money pattern that was not an input fact
	// is an invention.
	for _, d := range dateFactRe.FindAllString(output, -1) {
		if !contains(facts.Dates, d) {
			res.Invented = append(res.Invented, d)
		}
	}
	for _, p := range priceFactRe.FindAllString(output, -1) {
		if !containsFold(facts.Prices, p) {
			res.Invented = append(res.Invented, p)
		}
	}

	// Unit swap: an output unit that was not in the input units while the
	// input had units at all.
	if len(facts.Units) > 0 {
		for _, u := range unitFactRe.FindAllString(output, -1) {
			if !containsFold(facts.Units, u) {
				res.UnitSwapped = true
				break
			}
		}
	}
	return res
}

// PatchUnits surgically fixes single-unit swaps: when the input had exactly
// one unit, rewrite every unit expression in the output to it.
func PatchUnits(output string, facts Facts) (string, bool) {
	if len(facts.Units) != 1 {
		return output, false
	}
	want := facts.Units[0]
	patched := unitFactRe.ReplaceAllStringFunc(output, func(got string) string {
		if strings.EqualFold(got, want) {
			return got
		}
		return want
	})
	return patched, patched != output
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
