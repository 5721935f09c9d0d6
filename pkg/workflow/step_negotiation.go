package workflow

import (
	"fmt"

	"github.com/venueflow/venueflow/pkg/models"
)

// negotiationIntent is one detected negotiation signal with its confidence.
type negotiationIntent struct {
	kind       string // "accept" | "decline" | "counter" | "question"
	confidence float64
}

// collectIntents gathers all negotiation signals from the detection result.
// Ties break toward accept over decline over counter over question, which
// is the order they are emitted in.
func collectIntents(result *models.DetectionResult) []negotiationIntent {
	var out []negotiationIntent
	if result.IsAcceptance {
		out = append(out, negotiationIntent{"accept", result.Confidence})
	}
	if result.IsRejection {
		out = append(out, negotiationIntent{"decline", result.Confidence})
	}
	if result.IsChangeRequest || result.Intent == models.IntentChangeRequest {
		out = append(out, negotiationIntent{"counter", result.Confidence})
	}
	if result.IsQuestion {
		out = append(out, negotiationIntent{"question", result.Confidence})
	}
	return out
}

// topIntent picks the winning intent; on equal confidence the earlier kind
// wins per the collection order.
func topIntent(intents []negotiationIntent) string {
	if len(intents) == 0 {
		return ""
	}
	best := intents[0]
	for _, in := range intents[1:] {
		if in.confidence > best.confidence {
			best = in
		}
	}
	return best.kind
}

// maxCounterProposals caps negotiation rounds before a manager takes over.
const maxCounterProposals = 3

// handleNegotiation deals with accept, decline, and counter-proposals, and
// walks an accepted offer through the confirmation gate: billing first,
// deposit second.
func (r *Router) handleNegotiation(tc *turnContext) models.StepResult {
	event := tc.event

	// Billing details can arrive at any point of the flow; capture before
	// deciding anything.
	if event.AwaitingBillingForAccept || tc.detection.Prefilter.HasPostalCode {
		if parseBilling(tc.msg.Body, &event.Billing, tc.client.Name) {
			event.LogActivity("Billing details captured", true)
		}
	}

	intent := topIntent(collectIntents(tc.detection))

	switch intent {
	case "accept":
		event.OfferAccepted = true
		event.LogActivity("Offer accepted", false)
	case "decline":
		event.OfferAccepted = false
		event.AwaitingBillingForAccept = false
		event.LogActivity("Offer declined", false)
		return models.Halted(models.Draft{
			Body: tc.withQnA("I'm sorry the offer didn't fit. May I ask what didn't work for you? If you like, I can adjust the room, the date, or the extras."),
		})
	case "counter":
		event.CounterProposals++
		if event.CounterProposals >= maxCounterProposals {
			event.LogActivity("Counter-proposals exhausted, escalating", true)
			return models.Halted(models.Draft{
				Body:             "I've shared your request with our events manager, who will get back to you personally with the best we can do.",
				RequiresApproval: true,
				Category:         models.TaskManagerRequest,
			})
		}
		return models.Halted(models.Draft{
			Body:             "Thanks, that's a fair ask. Let me check what we can do and get back to you shortly.",
			RequiresApproval: true,
			Category:         models.TaskManagerRequest,
		})
	case "question":
		if !event.OfferAccepted {
			if answers := tc.qnaSuffix(); answers != "" {
				return models.Halted(models.Draft{Body: answers})
			}
		}
	}

	if !event.OfferAccepted {
		// Nothing actionable; remind gently about the pending offer.
		return models.Halted(models.Draft{
			Body: tc.withQnA("Your offer is ready whenever you are. Would you like to go ahead, or should I adjust something?"),
		})
	}

	gate := CheckConfirmationGate(event)

	if !gate.BillingComplete {
		event.AwaitingBillingForAccept = true
		body := "Wonderful! To prepare the booking I need your billing details: name, street, postal code, and city. Company name is optional."
		return models.Halted(models.Draft{Body: tc.withQnA(body)})
	}
	event.AwaitingBillingForAccept = false

	if gate.DepositRequired && !gate.DepositPaid {
		body := fmt.Sprintf(
			"Almost there! To secure your booking, please transfer the deposit of %.2f EUR by %s. You'll receive the confirmation as soon as the payment is in.",
			event.Deposit.Amount, event.Deposit.DueDate)
		return models.Halted(models.Draft{Body: tc.withQnA(body)})
	}

	event.RecordTransition(models.StepNegotiation, models.StepTransition, "confirmation gate ready")
	event.CurrentStep = models.StepTransition
	return models.Continue(models.ActionAdvance)
}
