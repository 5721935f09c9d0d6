package workflow

import (
	"fmt"

	"github.com/venueflow/venueflow/pkg/dateparse"
	"github.com/venueflow/venueflow/pkg/models"
)

type stepHandler func(tc *turnContext) models.StepResult

func (r *Router) handlerFor(step int) stepHandler {
	switch step {
	case models.StepIntake:
		return r.handleIntake
	case models.StepDate:
		return r.handleDate
	case models.StepRoom:
		return r.handleRoom
	case models.StepOffer:
		return r.handleOffer
	case models.StepNegotiation:
		return r.handleNegotiation
	case models.StepTransition:
		return r.handleTransition
	case models.StepConfirmation:
		return r.handleConfirmation
	}
	return r.handleIntake
}

// handleIntake greets, validates the obvious blockers (past date, capacity)
// and hands over to date confirmation. Field capture already happened in
// pre-route.
func (r *Router) handleIntake(tc *turnContext) models.StepResult {
	event := tc.event

	// Participant counts no room can hold are rejected up front with
	// concrete alternatives.
	if largest := tc.catalog.LargestCapacity(); largest > 0 &&
		event.Profile.Participants > largest {
		body := fmt.Sprintf(
			"Unfortunately our largest room holds up to %d guests, and you mentioned %d. Here is what we can do:\n"+
				"- Reduce the guest count to %d or fewer\n"+
				"- Split the event across two rooms\n"+
				"- We can recommend a partner venue for larger groups",
			largest, event.Profile.Participants, largest)
		event.LogActivity("Capacity exceeded at intake", true)
		return models.Halted(models.Draft{Body: tc.withQnA(body)})
	}

	if tc.prefix == "" {
		tc.prefix = intakeGreeting(event)
	}

	// A past date is not validated here; Step 2 rejects it with
	// alternatives so the client gets one coherent reply.
	if d := tc.detection.Entities.Date; d != "" && dateparse.IsPast(d, tc.now) {
		event.LogActivity("Past date at intake: "+d, true)
	}

	event.RecordTransition(models.StepIntake, models.StepDate, "intake complete")
	event.CurrentStep = models.StepDate
	return models.Continue(models.ActionAdvance)
}

func intakeGreeting(event *models.Event) string {
	if t := event.Profile.EventType; t != "" {
		return fmt.Sprintf("Thank you for your inquiry about your %s!", t)
	}
	return "Thank you for your inquiry!"
}
