// Package detour classifies messages as change requests. A message is a
// change only when it carries BOTH a revision signal and a bound target;
// everything else stays in the normal flow.
package detour

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/venueflow/venueflow/pkg/dateparse"
	"github.com/venueflow/venueflow/pkg/models"
)

// Target identifies the variable a change request is bound to.
type Target string

const (
	TargetDate          Target = "date"
	TargetRoom          Target = "room"
	TargetParticipants  Target = "participants"
	TargetRequirements  Target = "requirements"
	TargetSiteVisitDate Target = "site_visit_date"
)

// Step returns the workflow step that re-establishes the target.
func (t Target) Step() int {
	switch t {
	case TargetDate:
		return models.StepDate
	case TargetRoom, TargetParticipants, TargetRequirements:
		return models.StepRoom
	}
	return 0
}

// ChangeRequest is a positively classified change.
type ChangeRequest struct {
	Target Target
	// Value is the bound value when one was given (ISO date, room name,
	// participant count as string).
	Value string
	// Disambiguation is a clarifying line appended to the next reply when
	// the target was inferred rather than stated.
	Disambiguation string
}

var (
	revisionRe = regexp.MustCompile(`(?i)\b(change|switch|reschedule|instead|actually|move|ändern|stattdessen|verschieben)\b`)

	dateRefRe         = regexp.MustCompile(`(?i)\b(date|day|termin|datum)\b`)
	roomRefRe         = regexp.MustCompile(`(?i)\b(room|raum|saal|space)\b`)
	participantsRefRe = regexp.MustCompile(`(?i)\b(participants?|people|guests?|pax|attendees|personen)\b`)
	requirementsRefRe = regexp.MustCompile(`(?i)\b(layout|setup|seating|requirements?|equipment|bestuhlung)\b`)
	siteVisitRefRe    = regexp.MustCompile(`(?i)\b(site visit|viewing|tour|besichtigung)\b`)

	participantsValRe = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(people|persons?|participants?|guests?|pax|attendees|personen)\b`)
	roomValRe         = regexp.MustCompile(`(?i)\b(?:room|raum|saal)\s+([A-Za-z0-9][\w-]*)`)
)

// acceptanceSkipConfidence is the threshold above which an acceptance
// bypasses change detection entirely.
const acceptanceSkipConfidence = 0.7

// Detect classifies the message against the event's current commitments.
// Returns nil when the message is not a change request.
func Detect(result *models.DetectionResult, event *models.Event, body string, now time.Time) *ChangeRequest {
	// Acceptances skip change detection: "we'll take it, actually great"
	// must not bounce the event backward.
	if result.IsAcceptance && result.Confidence >= acceptanceSkipConfidence {
		return nil
	}

	// A date mentioned while a site visit is proposed is a slot preference,
	// not an event-date change.
	if event.SiteVisit.Status == models.SiteVisitProposed ||
		event.SiteVisit.Status == models.SiteVisitTimePending {
		if result.Entities.Date != "" || result.Entities.SiteVisitDate != "" || siteVisitRefRe.MatchString(body) {
			return nil
		}
	}

	hasRevision := revisionRe.MatchString(body) || result.IsChangeRequest

	// Bound target: explicit variable reference or a specific value.
	target, value := boundTarget(result, event, body, now)

	// Pure Q&A filter: question mark, no revision signal, no bound target.
	if strings.Contains(body, "?") && !hasRevision && target == "" {
		return nil
	}

	if !hasRevision || target == "" {
		return nil
	}

	// Site-visit changes never detour the main workflow.
	if target == TargetSiteVisitDate {
		return &ChangeRequest{Target: target, Value: value}
	}

	// Date equality uses normalized ISO; same date is not a change.
	if target == TargetDate && value != "" && value == event.ChosenDate {
		return nil
	}

	cr := &ChangeRequest{Target: target, Value: value}
	if target == TargetDate && !dateRefRe.MatchString(body) && !siteVisitRefRe.MatchString(body) {
		// Inferred from a bare date value; offer the site-visit reading.
		if event.SiteVisit.Status != models.SiteVisitIdle && event.SiteVisit.Status != "" {
			cr.Disambiguation = "If you meant the site visit date instead, please write 'change site visit date'."
		}
	}
	return cr
}

// boundTarget resolves the change target from explicit references first,
// then from bare values using the most-recently-confirmed variable.
func boundTarget(result *models.DetectionResult, event *models.Event, body string, now time.Time) (Target, string) {
	// Explicit variable references win.
	switch {
	case siteVisitRefRe.MatchString(body):
		d := result.Entities.SiteVisitDate
		if d == "" {
			d = result.Entities.Date
		}
		return TargetSiteVisitDate, d
	case dateRefRe.MatchString(body):
		return TargetDate, pickDate(result, body, now)
	case roomRefRe.MatchString(body):
		if m := roomValRe.FindStringSubmatch(body); m != nil {
			return TargetRoom, "Room " + strings.ToUpper(m[1][:1]) + m[1][1:]
		}
		return TargetRoom, result.Entities.RoomPreference
	case participantsRefRe.MatchString(body):
		if m := participantsValRe.FindStringSubmatch(body); m != nil {
			return TargetParticipants, m[1]
		}
		if result.Entities.Participants > 0 {
			return TargetParticipants, strconv.Itoa(result.Entities.Participants)
		}
		return TargetParticipants, ""
	case requirementsRefRe.MatchString(body):
		return TargetRequirements, ""
	}

	// Specific values without a variable reference.
	if d := pickDate(result, body, now); d != "" {
		// Most recently confirmed variable wins; a bare date against an
		// event with only a date confirmed is unambiguous.
		return TargetDate, d
	}
	if m := roomValRe.FindStringSubmatch(body); m != nil {
		return TargetRoom, "Room " + strings.ToUpper(m[1][:1]) + m[1][1:]
	}
	if m := participantsValRe.FindStringSubmatch(body); m != nil {
		return TargetParticipants, m[1]
	}
	return "", ""
}

func pickDate(result *models.DetectionResult, body string, now time.Time) string {
	if result.Entities.Date != "" {
		return result.Entities.Date
	}
	return dateparse.ExtractDate(body, now)
}

// String implements fmt.Stringer for log lines.
func (c *ChangeRequest) String() string {
	if c == nil {
		return "<none>"
	}
	return fmt.Sprintf("change{%s=%q}", c.Target, c.Value)
}
