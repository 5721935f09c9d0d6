package workflow

import (
	"regexp"
	"strings"

	"github.com/venueflow/venueflow/pkg/models"
)

var (
	// Street: up to three words, capitalized start, house number of at most
	// four digits. Never crosses a line break.
	streetRe     = regexp.MustCompile(`\b([A-ZÄÖÜ][\wäöüß.-]+(?:[ \t][\wäöüß.-]+){0,2}[ \t]\d{1,4}[a-z]?)\b`)
	postalCityRe = regexp.MustCompile(`\b(\d{5})\s+([A-ZÄÖÜ][\wäöüß-]+(?:\s+[A-ZÄÖÜ][\wäöüß-]+)*)`)
	vatRe        = regexp.MustCompile(`(?i)\b([A-Z]{2}\s?\d{8,12})\b`)
	labelRe      = regexp.MustCompile(`(?im)^\s*(company|firma|name|invoice to|billing name)\s*[:=]\s*(.+)$`)
)

// parseBilling extracts billing address fields from free text and merges
// them into the existing address. Already-set fields are never cleared; a
// later message can only add or replace with a non-empty value.
func parseBilling(body string, into *models.BillingAddress, fallbackName string) bool {
	changed := false
	set := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}

	for _, m := range labelRe.FindAllStringSubmatch(body, -1) {
		switch strings.ToLower(m[1]) {
		case "company", "firma":
			set(&into.Company, m[2])
		default:
			set(&into.Name, m[2])
		}
	}

	if m := postalCityRe.FindStringSubmatch(body); m != nil {
		set(&into.PostalCode, m[1])
		set(&into.City, m[2])
	}
	if m := streetRe.FindStringSubmatch(body); m != nil {
		// The street match must carry a house number and must not be the
		// postal-city fragment.
		if !postalCityRe.MatchString(m[1]) {
			set(&into.Street, m[1])
		}
	}
	if m := vatRe.FindStringSubmatch(body); m != nil {
		set(&into.VATID, strings.ReplaceAll(m[1], " ", ""))
	}

	if into.Name == "" && fallbackName != "" &&
		(into.Street != "" || into.PostalCode != "") {
		set(&into.Name, fallbackName)
	}
	return changed
}
