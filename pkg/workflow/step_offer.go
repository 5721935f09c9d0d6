package workflow

import (
	"log/slog"

	"github.com/venueflow/venueflow/pkg/models"
)

// handleOffer composes and emits the offer. Acceptance and rejection
// signals skip straight into negotiation; an already-sent offer answers
// questions without re-sending identical terms.
func (r *Router) handleOffer(tc *turnContext) models.StepResult {
	event := tc.event

	if event.LockedRoomID == "" {
		event.RecordTransition(models.StepOffer, models.StepRoom, "no locked room")
		event.CurrentStep = models.StepRoom
		return models.Continue(models.ActionDetour)
	}

	// Acceptance is detected here as well as in Step 5; either way the
	// negotiation handler owns the gate.
	if tc.detection.IsAcceptance || tc.detection.IsRejection {
		if tc.detection.IsAcceptance {
			event.OfferAccepted = true
			event.LogActivity("Offer accepted", false)
		}
		event.RecordTransition(models.StepOffer, models.StepNegotiation, "offer response received")
		event.CurrentStep = models.StepNegotiation
		return models.Continue(models.ActionAdvance)
	}

	offer := buildOffer(tc)
	if offer == nil {
		event.RecordTransition(models.StepOffer, models.StepRoom, "locked room vanished from catalog")
		event.CurrentStep = models.StepRoom
		r.releaseLock(tc)
		return models.Continue(models.ActionDetour)
	}

	hash := OfferHash(event.LockedRoomID, offer.Date, offer.Window.Start+offer.Window.End,
		offer.Participants, offer.Lines)

	// Identical terms already offered: answer questions, do not re-send.
	if event.OfferHash == hash && event.CallerStep == 0 {
		if answers := tc.qnaSuffix(); answers != "" {
			return models.Halted(models.Draft{Body: answers})
		}
		return models.Halted(models.Draft{
			Body: "You have my current offer; just let me know if you'd like to adjust anything or go ahead with it.",
		})
	}

	event.OfferHash = hash
	event.Deposit = offer.Deposit
	event.OfferAccepted = false

	text, markdown := renderOffer(offer)
	intro := event.RoomConfirmationPrefix
	if intro == "" {
		intro = "Here is your offer."
	} else {
		intro += " Here is your offer."
	}
	event.RoomConfirmationPrefix = ""

	facts := offerFacts(offer, text)
	body, fb := r.verbalizer.Verbalize(tc.ctx, tc.settings,
		tonePrompt(tc.prompts, "offer_intro"), intro, text, facts)
	if fb != nil {
		slog.Debug("Offer intro fell back to template",
			"tenant_id", event.TenantID, "trigger", fb.Trigger)
	}
	body = r.verbalizer.AppendFooter(event.TenantID, tc.settings, "offer", tc.withQnA(body))

	event.LogActivity("Offer sent", false)
	// When the tenant routes replies through HIL the offer goes to its own
	// client-task queue, never to ai_reply_approval.
	return models.Halted(models.Draft{
		Body:             body,
		BodyMarkdown:     markdown,
		RequiresApproval: tc.settings.HILAllReplies,
		Category:         models.TaskOfferMessage,
		Fallback:         fb,
	})
}
