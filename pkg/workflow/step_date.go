package workflow

import (
	"fmt"
	"strings"

	"github.com/venueflow/venueflow/pkg/dateparse"
	"github.com/venueflow/venueflow/pkg/models"
)

// handleDate confirms the event date. An explicit future date confirms
// directly; a past date is rejected with alternatives; no date yields
// candidate proposals, escalating to a manager after three failed rounds.
func (r *Router) handleDate(tc *turnContext) models.StepResult {
	event := tc.event

	// Pure Q&A short-circuit, bypassed during detours and on any action
	// signal.
	if event.CallerStep == 0 && tc.detection.IsQuestion &&
		!tc.detection.HasActionSignal() && tc.detection.Entities.Date == "" {
		if answers := tc.qnaSuffix(); answers != "" {
			followup := "Which date did you have in mind for your event?"
			return models.Halted(models.Draft{Body: answers + "\n\n" + followup})
		}
	}

	date := tc.detection.Entities.Date
	if date == "" {
		date = dateparse.ExtractDate(tc.msg.Body, tc.now)
	}

	if date != "" && dateparse.IsPast(date, tc.now) {
		alts := alternativesFor(tc.now, date)
		event.FailedDateProposals++
		body := fmt.Sprintf(
			"The date %s is in the past, so I can't book it. The next %ss would be:\n%s\nWould one of these work?",
			date, strings.ToLower(weekdayName(date)), bulleted(alts))
		event.LogActivity("Rejected past date "+date, true)
		return models.Halted(models.Draft{Body: tc.withQnA(body)})
	}

	if date != "" {
		event.ChosenDate = date
		event.DateConfirmed = true
		event.FailedDateProposals = 0

		// A scheduled site visit that no longer precedes the event is
		// cancelled, with a note in the next reply.
		if sv := &event.SiteVisit; sv.Status == models.SiteVisitScheduled &&
			!strictlyBefore(sv.ConfirmedDate, date) {
			sv.Status = models.SiteVisitCancelled
			event.LogActivity("Site visit cancelled by date change", true)
			tc.prefix = fmt.Sprintf(
				"Note: your site visit on %s no longer falls before the new event date and has been cancelled; we can schedule a new one.",
				sv.ConfirmedDate)
		}
		if t := tc.detection.Entities.StartTime; t != "" {
			event.Window.Start = t
		}
		if t := tc.detection.Entities.EndTime; t != "" {
			event.Window.End = t
		}
		event.LogActivity("Date confirmed: "+date, false)
		event.RecordTransition(models.StepDate, models.StepRoom, "date confirmed")
		event.CurrentStep = models.StepRoom
		return models.Continue(models.ActionAdvance)
	}

	// No usable date. Propose candidates; after three rounds a manager
	// takes over.
	event.FailedDateProposals++
	if event.FailedDateProposals >= 3 {
		event.LogActivity("Date proposals exhausted, escalating", true)
		return models.Halted(models.Draft{
			Body:             "Finding the right date is proving tricky, so I'm looping in our events team. They will get back to you with tailored suggestions shortly.",
			RequiresApproval: true,
			Category:         models.TaskManagerRequest,
		})
	}

	proposals := proposeDates(tc.now, tc.msg.Body, event.Profile.PreferredWeekday)
	body := fmt.Sprintf("Happy to help with the date. These are currently available:\n%s\nWhich one suits you best?",
		bulleted(proposals))
	return models.Halted(models.Draft{Body: tc.withQnA(body)})
}

func bulleted(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
	return b.String()
}

func weekdayName(iso string) string {
	t, err := dateparse.ParseISO(iso)
	if err != nil {
		return "day"
	}
	return t.Weekday().String()
}
