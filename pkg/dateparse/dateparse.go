// Package dateparse normalizes the date expressions that show up in client
// messages into ISO (YYYY-MM-DD). Date equality anywhere in the workflow
// compares normalized ISO, never raw strings.
package dateparse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ISO is the canonical date layout.
const ISO = "2006-01-02"

// NotSpecified is the detection placeholder for "no date given".
const NotSpecified = "Not specified"

var (
	isoRe    = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	dottedRe = regexp.MustCompile(`\b(\d{1,2})\.(\d{1,2})\.(\d{4})\b`)
	// "June 25, 2026", "25 June 2026"
	monthNameRe = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})?\b`)
	dayFirstRe  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\.?\s+(?:of\s+)?(January|February|March|April|May|June|July|August|September|October|November|December)\.?,?\s*(\d{4})?\b`)
	timeRe      = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

// Specified reports whether s carries an actual date value.
func Specified(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && !strings.EqualFold(s, NotSpecified)
}

// Normalize converts a date expression to ISO. Already-ISO input passes
// through; the function is idempotent. Returns "" when nothing parses.
func Normalize(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	if !Specified(s) {
		return ""
	}
	if m := isoRe.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse(ISO, m[0]); err == nil {
			return t.Format(ISO)
		}
	}
	if m := dottedRe.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse(ISO, fmt.Sprintf("%s-%02s-%02s", m[3], m[2], m[1])); err == nil {
			return t.Format(ISO)
		}
	}
	if t, ok := parseMonthName(s, now); ok {
		return t.Format(ISO)
	}
	return ""
}

func parseMonthName(s string, now time.Time) (time.Time, bool) {
	if m := monthNameRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3], now)
	}
	if m := dayFirstRe.FindStringSubmatch(s); m != nil {
		return buildDate(m[2], m[1], m[3], now)
	}
	return time.Time{}, false
}

func buildDate(monthName, day, year string, now time.Time) (time.Time, bool) {
	month, ok := months[strings.ToLower(monthName)]
	if !ok {
		return time.Time{}, false
	}
	var d, y int
	if _, err := fmt.Sscanf(day, "%d", &d); err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	if year == "" {
		// No year given: next occurrence.
		y = now.Year()
		candidate := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
		if candidate.Before(now.Truncate(24 * time.Hour)) {
			y++
		}
	} else if _, err := fmt.Sscanf(year, "%d", &y); err != nil {
		return time.Time{}, false
	}
	t := time.Date(y, month, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		// Overflowed into the next month (e.g. Feb 30).
		return time.Time{}, false
	}
	return t, true
}

// ExtractDate finds the first date expression in free text and returns it
// normalized. Returns "" when none is found.
func ExtractDate(text string, now time.Time) string {
	if m := isoRe.FindString(text); m != "" {
		return Normalize(m, now)
	}
	if m := dottedRe.FindString(text); m != "" {
		return Normalize(m, now)
	}
	if t, ok := parseMonthName(text, now); ok {
		return t.Format(ISO)
	}
	return ""
}

// ExtractTime finds the first HH:MM in free text.
func ExtractTime(text string) string {
	return timeRe.FindString(text)
}

// ContainsDate reports whether any date expression appears in the text.
func ContainsDate(text string, now time.Time) bool {
	return ExtractDate(text, now) != ""
}

// Weekday parses an English weekday name, full or three-letter.
func Weekday(s string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "monday", "mon":
		return time.Monday, true
	case "tuesday", "tue", "tues":
		return time.Tuesday, true
	case "wednesday", "wed":
		return time.Wednesday, true
	case "thursday", "thu", "thur", "thurs":
		return time.Thursday, true
	case "friday", "fri":
		return time.Friday, true
	case "saturday", "sat":
		return time.Saturday, true
	case "sunday", "sun":
		return time.Sunday, true
	}
	return 0, false
}

// ParseISO parses an ISO date string.
func ParseISO(iso string) (time.Time, error) {
	return time.Parse(ISO, iso)
}

// IsPast reports whether the ISO date is strictly before today.
func IsPast(iso string, now time.Time) bool {
	t, err := time.Parse(ISO, iso)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return t.Before(today)
}

// NextOnWeekday returns the first date on the given weekday strictly after
// from.
func NextOnWeekday(from time.Time, wd time.Weekday) time.Time {
	d := from.AddDate(0, 0, 1)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
