package workflow

import (
	"fmt"
	"strings"

	"github.com/venueflow/venueflow/pkg/models"
)

// handleConfirmation performs the final booking confirmation and runs the
// site-visit scheduling sub-flow on later turns.
func (r *Router) handleConfirmation(tc *turnContext) models.StepResult {
	event := tc.event

	if event.Status == models.StatusConfirmed {
		return r.afterConfirmation(tc)
	}

	gate := CheckConfirmationGate(event)
	if !gate.ReadyForHIL {
		event.RecordTransition(models.StepConfirmation, models.StepNegotiation, "gate not ready")
		event.CurrentStep = models.StepNegotiation
		return models.Continue(models.ActionDetour)
	}

	// Confirming collides with other holds differently than optioning: a
	// confirmed other event blocks outright, an optioned one needs a
	// manager decision.
	if hard := r.checkRoomConflicts(tc, models.StatusConfirmed); hard != nil {
		if hard.Blocking {
			room := tc.catalog.RoomByID(event.LockedRoomID)
			if room != nil {
				event.ClearedRoomName = room.Name
			}
			r.releaseLock(tc)
			tc.excludeRoom = hard.Other.LockedRoomID
			event.RecordTransition(models.StepConfirmation, models.StepRoom, "room confirmed elsewhere")
			event.CurrentStep = models.StepRoom
			event.CallerStep = models.StepConfirmation
			return models.Continue(models.ActionDetour)
		}

		// First ask the client how flexible they are; only the follow-up
		// turn carrying their answer files the resolution task.
		if event.PendingConflictWith != hard.Other.EventID {
			event.PendingConflictWith = hard.Other.EventID
			event.ConflictReason = ""
			return models.Halted(models.Draft{
				Body: tc.withQnA("Before I can finalize this, I need to double-check the room allocation with our team. Could you let me know how flexible you are on the date or the room? I'll come back to you very shortly."),
			})
		}

		if event.ConflictReason == "" && strings.TrimSpace(tc.msg.Body) != "" {
			event.ConflictReason = strings.TrimSpace(tc.msg.Body)
			body := fmt.Sprintf(
				"Events %s and %s both hold %s on %s; %s asked to confirm. Client's flexibility: %s. A decision is needed on who gets the room.",
				event.EventID, hard.Other.EventID, event.LockedRoomID, event.ChosenDate,
				event.EventID, event.ConflictReason)
			if _, _, err := r.queue.Enqueue(tc.ctx, event.TenantID, event.EventID, event.ThreadID,
				models.TaskConflictResolution, models.Draft{Body: body}, hard.Other.EventID); err != nil {
				return models.Halted(models.Draft{
					Body: "We encountered a problem while confirming your booking; a manager has been notified.",
				})
			}
			return models.Halted(models.Draft{
				Body: tc.withQnA("Thank you! I've passed this on to our events manager, and you'll hear from us very shortly."),
			})
		}

		return models.Halted(models.Draft{
			Body: tc.withQnA("Our team is still deciding on the room allocation; I'll get back to you as soon as we know more."),
		})
	}

	event.Status = models.StatusConfirmed
	r.reserve(tc, event.LockedRoomID, event.ChosenDate, models.StatusConfirmed)
	event.LogActivity("Booking confirmed", false)

	body, markdown := r.confirmationMessage(tc)
	return models.Halted(models.Draft{
		Body:             tc.withQnA(body),
		BodyMarkdown:     markdown,
		RequiresApproval: tc.settings.HILAllReplies,
		Category:         models.TaskConfirmationMessage,
	})
}

// confirmationMessage celebrates briefly, acknowledges a scheduled site
// visit (never re-prompts one), proposes one when possible, and lists the
// remaining admin steps.
func (r *Router) confirmationMessage(tc *turnContext) (body, markdown string) {
	event := tc.event
	room := tc.catalog.RoomByID(event.LockedRoomID)
	roomName := event.LockedRoomID
	if room != nil {
		roomName = room.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Wonderful news: your booking of %s on %s is confirmed!\n\n", roomName, event.ChosenDate)

	switch event.SiteVisit.Status {
	case models.SiteVisitScheduled:
		fmt.Fprintf(&b, "Your site visit is set for %s at %s.\n\n",
			event.SiteVisit.ConfirmedDate, event.SiteVisit.ConfirmedTime)
	default:
		if proposal := r.proposeSiteVisit(tc); proposal != "" {
			b.WriteString(proposal)
			b.WriteString("\n\n")
		}
	}

	b.WriteString("What happens next:\n")
	b.WriteString("- You will receive the written confirmation by email\n")
	if event.Deposit.Required && event.Deposit.Paid {
		b.WriteString("- Your deposit is received, the remainder is due after the event\n")
	}
	b.WriteString("- Final guest count and catering choices are due one week before the event\n")
	b.WriteString("- Questions anytime, just reply here")

	text := b.String()
	return text, "## Booking confirmed\n\n" + text
}

// afterConfirmation handles turns arriving after the booking is confirmed:
// mostly site-visit scheduling and questions.
func (r *Router) afterConfirmation(tc *turnContext) models.StepResult {
	if body := r.advanceSiteVisit(tc); body != "" {
		return models.Halted(models.Draft{Body: tc.withQnA(body)})
	}

	if answers := tc.qnaSuffix(); answers != "" {
		return models.Halted(models.Draft{Body: answers})
	}

	return models.Halted(models.Draft{
		Body: "Your booking is all set. Is there anything else I can help you with?",
	})
}
