package workflow

import (
	"fmt"
	"log/slog"

	"github.com/venueflow/venueflow/pkg/detour"
	"github.com/venueflow/venueflow/pkg/models"
)

// prerouteOutcome tells the router whether to dispatch step handlers.
type prerouteOutcome int

const (
	proceedDispatch prerouteOutcome = iota
	turnDone
)

// Nonsense-gate thresholds on detection confidence.
const (
	ignoreBelowConfidence = 0.15
	deferBelowConfidence  = 0.25
)

const duplicateReply = "Is there something specific you'd like to add?"

// preroute runs the guarded pipeline ahead of any step handler: duplicate
// gate, detection, nonsense gate, injection defense, pure guard
// evaluation, billing-flow correction, detour application, shortcut
// attempt, global field capture, snapshot writes.
func (r *Router) preroute(tc *turnContext) prerouteOutcome {
	event, msg := tc.event, tc.msg

	// 1. Duplicate gate. An exact repeat of the previous inbound body is
	// answered without touching workflow state.
	if msg.Body != "" && msg.Body == event.LastInboundBody &&
		event.CallerStep == 0 && event.CurrentStep > models.StepIntake &&
		!msg.Extras.DepositJustPaid {
		tc.skipPersist = true
		tc.forceDirect = true
		tc.addDrafts(models.Draft{Body: duplicateReply})
		return turnDone
	}

	// 2-3. Detection result attachment. The synthetic deposit turn skips
	// the LLM entirely.
	if msg.Extras.DepositJustPaid {
		tc.detection = &models.DetectionResult{
			Intent:         models.IntentConfirmation,
			IsConfirmation: true,
			Confidence:     1,
		}
	} else {
		tc.detection = r.detector.Detect(tc.ctx, tc.settings, event, msg)
		tc.change = detour.Detect(tc.detection, event, msg.Body, tc.now)
	}
	result := tc.detection

	// Nonsense gate. Below the lower threshold with no workflow signal the
	// turn is silently ignored; in the gray zone it goes to a manager.
	signal := result.HasActionSignal() ||
		result.Prefilter.HasWorkflowSignal || result.Prefilter.HasDate ||
		result.Prefilter.HasParticipants || result.IsQuestion
	if result.Intent == models.IntentNonsense ||
		(result.Confidence < ignoreBelowConfidence && !signal) {
		tc.skipPersist = true
		tc.addDrafts(models.Draft{Silent: true})
		return turnDone
	}
	if result.Confidence < deferBelowConfidence && !signal {
		tc.addDrafts(models.Draft{
			Body:             "Thanks for reaching out. Could you tell me a bit more about the event you have in mind?",
			RequiresApproval: true,
			Category:         models.TaskManagerRequest,
			Fallback: &models.FallbackContext{
				Source:  "preroute",
				Trigger: "low_confidence",
				Context: fmt.Sprintf("confidence %.2f below %.2f", result.Confidence, deferBelowConfidence),
			},
		})
		return turnDone
	}

	// 4. Prompt-injection defense: refuse, change nothing.
	if result.HasInjection {
		slog.Warn("Prompt injection attempt blocked",
			"tenant_id", msg.TenantID, "thread_id", msg.ThreadID)
		tc.skipPersist = true
		tc.forceDirect = true
		tc.addDrafts(models.Draft{
			Body: "I can only help with venue bookings and related questions. How can I help with your event?",
		})
		return turnDone
	}

	// 5. Guard evaluation, pure: no writes yet.
	tc.guard = evaluateGuards(tc)

	// 6. Billing-flow correction. While an accepted offer waits on billing
	// details the conversation stays at Step 5; only an LLM-confirmed
	// change request may break out, and it resets the acceptance.
	if tc.guard.BillingFlow {
		if tc.change != nil && result.IsChangeRequest {
			event.AwaitingBillingForAccept = false
			event.OfferAccepted = false
		} else {
			tc.change = nil
			if event.CurrentStep != models.StepNegotiation {
				event.RecordTransition(event.CurrentStep, models.StepNegotiation, "billing flow correction")
				event.CurrentStep = models.StepNegotiation
			}
		}
	}

	// Deposit bypass: the synthetic paid turn goes straight to Step 7.
	if tc.guard.DepositBypass {
		tc.change = nil
		if event.CurrentStep != models.StepConfirmation {
			event.RecordTransition(event.CurrentStep, models.StepConfirmation, "deposit paid")
			event.CurrentStep = models.StepConfirmation
		}
		return proceedDispatch
	}

	// Site-visit date changes never detour the main workflow.
	if tc.change != nil && tc.change.Target == detour.TargetSiteVisitDate {
		r.applySiteVisitChange(tc)
		return turnDone
	}

	// Detour application per the common step contract.
	if tc.change != nil {
		r.applyDetour(tc)
	}

	// 7. Shortcut attempt: room + date + participants in one message from
	// intake goes directly to the offer.
	if tc.change == nil && event.CurrentStep == models.StepIntake {
		r.tryShortcut(tc)
	}

	// 8. Global field capture, independent of step.
	captureFields(tc)

	// 9. Snapshot writes: a forced step wins over whatever the counter says
	// when a prerequisite commitment is missing, and captured profile drift
	// past the lock re-runs the room evaluation.
	if tc.guard.ForcedStep > 0 && tc.change == nil &&
		tc.guard.ForcedStep < event.CurrentStep {
		event.RecordTransition(event.CurrentStep, tc.guard.ForcedStep, "missing prerequisite")
		event.CurrentStep = tc.guard.ForcedStep
	} else if tc.change == nil && event.CurrentStep >= models.StepOffer &&
		event.RoomEvalHash != "" &&
		RoomEvalHash(event.Profile.Participants, event.Profile.Layout, event.Profile.Requirements) != event.RoomEvalHash {
		tc.guard.RequirementsHashChanged = true
		if event.CallerStep == 0 && event.CurrentStep > models.StepOffer {
			event.CallerStep = event.CurrentStep
		}
		event.RecordTransition(event.CurrentStep, models.StepRoom, "room requirements changed")
		event.CurrentStep = models.StepRoom
	}

	return proceedDispatch
}

// evaluateGuards computes the pure guard snapshot.
func evaluateGuards(tc *turnContext) models.GuardSnapshot {
	event := tc.event
	g := models.GuardSnapshot{
		DepositBypass: tc.msg.Extras.DepositJustPaid,
		BillingFlow:   event.AwaitingBillingForAccept && event.OfferAccepted,
	}

	switch {
	case event.CurrentStep >= models.StepRoom && event.ChosenDate == "":
		g.ForcedStep = models.StepDate
	case event.CurrentStep >= models.StepOffer && event.LockedRoomID == "":
		g.ForcedStep = models.StepRoom
	}

	if event.RoomEvalHash != "" {
		current := RoomEvalHash(event.Profile.Participants, event.Profile.Layout, event.Profile.Requirements)
		g.RequirementsHashChanged = current != event.RoomEvalHash
	}
	return g
}

// applyDetour jumps backward to the change target. A date change keeps the
// locked room (Step 3 re-verifies availability); a requirements, room, or
// participants change clears it.
func (r *Router) applyDetour(tc *turnContext) {
	event, change := tc.event, tc.change
	target := change.Target.Step()
	if target == 0 || target >= event.CurrentStep {
		return
	}

	event.CallerStep = event.CurrentStep
	event.RecordTransition(event.CurrentStep, target, "change request: "+string(change.Target))
	event.CurrentStep = target
	event.RoomEvalHash = ""

	switch change.Target {
	case detour.TargetRoom:
		r.releaseLock(tc)
		if change.Value != "" {
			event.Profile.RoomPreference = change.Value
		}
	case detour.TargetRequirements:
		r.releaseLock(tc)
	case detour.TargetParticipants:
		r.releaseLock(tc)
		if n := atoiSafe(change.Value); n > 0 {
			event.Profile.Participants = n
		}
	case detour.TargetDate:
		// Lock preserved; the date step will re-confirm and Step 3 will
		// fast-skip when the room is still free.
		event.DateConfirmed = false
	}

	if change.Disambiguation != "" {
		tc.prefix = change.Disambiguation
	}
	event.LogActivity("Change requested: "+string(change.Target), true)
}

// releaseLock drops the held room and its calendar hold.
func (r *Router) releaseLock(tc *turnContext) {
	event := tc.event
	if event.LockedRoomID == "" {
		return
	}
	if err := r.calendar.Release(tc.ctx, event.TenantID, event.EventID, event.LockedRoomID); err != nil {
		slog.Warn("Failed to release calendar hold",
			"tenant_id", event.TenantID, "event_id", event.EventID, "error", err)
	}
	event.LockedRoomID = ""
	if event.Status == models.StatusOption {
		event.Status = models.StatusLead
	}
}

// tryShortcut jumps intake directly to the offer when the first message
// already carries room, date, and participants and the room is free.
func (r *Router) tryShortcut(tc *turnContext) {
	e := tc.detection.Entities
	event := tc.event
	if e.Date == "" || e.Participants == 0 || e.RoomPreference == "" {
		return
	}
	room := tc.catalog.RoomByName(e.RoomPreference)
	if room == nil || room.Capacity(tc.event.Profile.Layout) < e.Participants {
		return
	}
	if room.StatusOn(e.Date) != "" {
		return
	}

	event.ChosenDate = e.Date
	event.DateConfirmed = true
	if e.StartTime != "" {
		event.Window = models.TimeWindow{Start: e.StartTime, End: e.EndTime}
	}
	event.Profile.Participants = e.Participants
	event.Profile.RoomPreference = e.RoomPreference
	event.LockedRoomID = room.ID
	event.RoomEvalHash = RoomEvalHash(e.Participants, event.Profile.Layout, event.Profile.Requirements)
	event.Status = models.StatusOption
	event.RecordTransition(models.StepIntake, models.StepOffer, "shortcut: room, date, participants in one message")
	event.CurrentStep = models.StepOffer
	event.RoomConfirmationPrefix = fmt.Sprintf("%s is available on %s for %d guests.",
		room.Name, e.Date, e.Participants)
	event.LogActivity(fmt.Sprintf("Reserved %s for %s", room.Name, e.Date), false)

	r.reserve(tc, room.ID, e.Date, models.StatusOption)
	r.checkRoomConflicts(tc, models.StatusOption)
}

// captureFields persists contact and profile fields opportunistically,
// regardless of the current step.
func captureFields(tc *turnContext) {
	e := tc.detection.Entities
	event, client := tc.event, tc.client
	p := &event.Profile

	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIf(&p.ContactName, e.ContactName)
	setIf(&p.ContactEmail, e.ContactEmail)
	setIf(&p.ContactPhone, e.ContactPhone)
	setIf(&p.EventType, e.EventType)
	setIf(&p.RoomPreference, e.RoomPreference)
	setIf(&p.RoomTypeHint, e.RoomTypeHint)
	setIf(&p.Budget, e.Budget)
	if e.Participants > 0 {
		p.Participants = e.Participants
	}
	if e.StartTime != "" {
		event.Window.Start = e.StartTime
	}
	if e.EndTime != "" {
		event.Window.End = e.EndTime
	}

	setIf(&client.Name, e.ContactName)
	setIf(&client.Phone, e.ContactPhone)
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// stepFallbacks back the empty-reply safety net, keyed by current step.
var stepFallbacks = map[int]string{
	models.StepIntake:       "Thank you for your inquiry. Could you share the date and the number of guests you have in mind?",
	models.StepDate:         "Which date did you have in mind for your event?",
	models.StepRoom:         "I'm checking room availability for your date and will get back to you right away.",
	models.StepOffer:        "I'm preparing your offer and will send it shortly.",
	models.StepNegotiation:  "I'm looking into your request regarding the offer and will follow up shortly.",
	models.StepTransition:   "I'm finalizing the details of your booking.",
	models.StepConfirmation: "I'm completing your confirmation and will follow up with the final details.",
}

func fallbackReply(step int) string {
	if s, ok := stepFallbacks[step]; ok {
		return s
	}
	return stepFallbacks[models.StepIntake]
}
