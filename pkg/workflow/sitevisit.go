package workflow

import (
	"fmt"

	"github.com/venueflow/venueflow/pkg/dateparse"
	"github.com/venueflow/venueflow/pkg/models"
)

// proposeSiteVisit offers visit dates when the tenant has the feature on
// and the schedule allows dates strictly before the event. Returns "" when
// no proposal is possible.
func (r *Router) proposeSiteVisit(tc *turnContext) string {
	event := tc.event
	if !tc.settings.SiteVisit.Enabled {
		return ""
	}
	switch event.SiteVisit.Status {
	case "", models.SiteVisitIdle:
	default:
		return ""
	}

	dates := siteVisitDates(tc.now, event.ChosenDate, tc.settings.SiteVisit.Weekdays)
	if len(dates) < 1 {
		return ""
	}
	event.SiteVisit.Status = models.SiteVisitProposed
	event.SiteVisit.ProposedSlots = dates
	event.LogActivity("Site visit proposed", true)
	return fmt.Sprintf(
		"Would you like to visit the venue beforehand? These dates are available:\n%s\nJust name the one that suits you.",
		bulleted(dates))
}

// advanceSiteVisit moves the two-step sub-flow: date first, time second,
// explicit confirmation last. Returns the reply body, or "" when the
// message did not advance the sub-flow.
func (r *Router) advanceSiteVisit(tc *turnContext) string {
	event := tc.event
	sv := &event.SiteVisit

	switch sv.Status {
	case models.SiteVisitProposed:
		date := tc.detection.Entities.SiteVisitDate
		if date == "" {
			date = tc.detection.Entities.Date
		}
		if date == "" {
			date = dateparse.ExtractDate(tc.msg.Body, tc.now)
		}
		if date == "" {
			return ""
		}
		// A visit on the event day itself never works.
		if date == event.ChosenDate || !strictlyBefore(date, event.ChosenDate) {
			return fmt.Sprintf(
				"A site visit on %s isn't possible; visits need to happen before your event on %s. Would one of the proposed dates work?",
				date, event.ChosenDate)
		}
		sv.RequestedDate = date
		sv.Status = models.SiteVisitTimePending
		slots := tc.settings.SiteVisit.TimeSlots
		if len(slots) == 0 {
			slots = []string{"10:00", "14:00", "16:00"}
		}
		return fmt.Sprintf("Great, %s works. Which time suits you?\n%s", date, bulleted(slots))

	case models.SiteVisitTimePending:
		t := tc.detection.Entities.SiteVisitTime
		if t == "" {
			t = tc.detection.Entities.StartTime
		}
		if t == "" {
			t = dateparse.ExtractTime(tc.msg.Body)
		}
		if t == "" {
			return ""
		}
		sv.RequestedTime = t
		sv.Status = models.SiteVisitConfirmPending
		return fmt.Sprintf("Shall I book your site visit for %s at %s?", sv.RequestedDate, t)

	case models.SiteVisitConfirmPending:
		switch {
		case tc.detection.IsConfirmation || tc.detection.IsAcceptance ||
			tc.detection.Prefilter.HasConfirmWord:
			sv.Status = models.SiteVisitScheduled
			sv.ConfirmedDate = sv.RequestedDate
			sv.ConfirmedTime = sv.RequestedTime
			event.LogActivity(fmt.Sprintf("Site visit scheduled for %s %s", sv.ConfirmedDate, sv.ConfirmedTime), false)
			return fmt.Sprintf("Done! Your site visit is booked for %s at %s. We look forward to showing you around.",
				sv.ConfirmedDate, sv.ConfirmedTime)
		case tc.detection.IsRejection:
			sv.Status = models.SiteVisitProposed
			sv.RequestedTime = ""
			return "No problem. Which date and time would suit you better?"
		}
		return ""
	}
	return ""
}

// applySiteVisitChange handles a "change site visit date" request from
// pre-route without detouring the main workflow.
func (r *Router) applySiteVisitChange(tc *turnContext) {
	event := tc.event
	sv := &event.SiteVisit
	date := tc.change.Value

	if date != "" && !strictlyBefore(date, event.ChosenDate) {
		tc.addDrafts(models.Draft{Body: fmt.Sprintf(
			"A site visit on %s isn't possible; visits need to happen before your event on %s.",
			date, event.ChosenDate)})
		return
	}

	if date == "" {
		sv.Status = models.SiteVisitProposed
		sv.RequestedDate = ""
		sv.RequestedTime = ""
		dates := siteVisitDates(tc.now, event.ChosenDate, tc.settings.SiteVisit.Weekdays)
		tc.addDrafts(models.Draft{Body: fmt.Sprintf(
			"Of course, let's find a new date for your visit:\n%s", bulleted(dates))})
		return
	}

	sv.RequestedDate = date
	sv.ConfirmedDate = ""
	sv.ConfirmedTime = ""
	sv.Status = models.SiteVisitTimePending
	event.LogActivity("Site visit date changed to "+date, true)
	slots := tc.settings.SiteVisit.TimeSlots
	if len(slots) == 0 {
		slots = []string{"10:00", "14:00", "16:00"}
	}
	tc.addDrafts(models.Draft{Body: fmt.Sprintf(
		"Sure, we can move your site visit to %s. Which time suits you?\n%s", date, bulleted(slots))})
}

// strictlyBefore reports a < b for ISO dates; malformed input counts as
// not-before so it gets rejected.
func strictlyBefore(a, b string) bool {
	ta, errA := dateparse.ParseISO(a)
	tb, errB := dateparse.ParseISO(b)
	if errA != nil || errB != nil {
		return false
	}
	return ta.Before(tb)
}
