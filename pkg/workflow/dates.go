package workflow

import (
	"strings"
	"time"

	"github.com/venueflow/venueflow/pkg/dateparse"
)

// maxDateProposals caps suggestions per prompt.
const maxDateProposals = 5

// proposeDates derives candidate dates from the message and profile:
// preferred weekday first, earliest future date, capped at five. With no
// weekday signal it returns the next few days starting tomorrow.
func proposeDates(now time.Time, body, preferredWeekday string) []string {
	wd, ok := weekdayHint(body, preferredWeekday)
	var out []string
	if ok {
		d := dateparse.NextOnWeekday(now, wd)
		for len(out) < maxDateProposals {
			out = append(out, d.Format(dateparse.ISO))
			d = d.AddDate(0, 0, 7)
		}
		return out
	}
	d := now.AddDate(0, 0, 1)
	for len(out) < maxDateProposals {
		out = append(out, d.Format(dateparse.ISO))
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// alternativesFor returns future replacement dates for a rejected past
// date, on the same weekday.
func alternativesFor(now time.Time, rejectedISO string) []string {
	t, err := time.Parse(dateparse.ISO, rejectedISO)
	if err != nil {
		return proposeDates(now, "", "")[:3]
	}
	d := dateparse.NextOnWeekday(now, t.Weekday())
	out := make([]string, 0, 3)
	for len(out) < 3 {
		out = append(out, d.Format(dateparse.ISO))
		d = d.AddDate(0, 0, 7)
	}
	return out
}

// weekdayHint finds a weekday in the message, else in the stored
// preference.
func weekdayHint(body, preferred string) (time.Weekday, bool) {
	for _, word := range strings.Fields(strings.ToLower(body)) {
		if wd, ok := dateparse.Weekday(strings.Trim(word, ".,!?")); ok {
			return wd, true
		}
	}
	if preferred != "" {
		return dateparse.Weekday(preferred)
	}
	return 0, false
}

// siteVisitDates proposes dates for a site visit: strictly before the
// event date, starting a few days out, on the tenant's visit weekdays when
// configured.
func siteVisitDates(now time.Time, eventISO string, weekdays []string) []string {
	eventDate, err := time.Parse(dateparse.ISO, eventISO)
	if err != nil {
		return nil
	}
	allowed := map[time.Weekday]bool{}
	for _, w := range weekdays {
		if wd, ok := dateparse.Weekday(w); ok {
			allowed[wd] = true
		}
	}

	var out []string
	d := now.AddDate(0, 0, 2)
	for d.Before(eventDate) && len(out) < maxDateProposals {
		if len(allowed) == 0 || allowed[d.Weekday()] {
			out = append(out, d.Format(dateparse.ISO))
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}
