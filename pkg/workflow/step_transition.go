package workflow

import "github.com/venueflow/venueflow/pkg/models"

// handleTransition is the thin pass-through between negotiation and
// confirmation: it re-checks the gate and routes accordingly. Keeping it a
// separate step preserves a clean audit trail for the jump into
// confirmation.
func (r *Router) handleTransition(tc *turnContext) models.StepResult {
	event := tc.event

	gate := CheckConfirmationGate(event)
	if !gate.ReadyForHIL {
		event.RecordTransition(models.StepTransition, models.StepNegotiation, "gate not ready")
		event.CurrentStep = models.StepNegotiation
		return models.Continue(models.ActionDetour)
	}

	event.RecordTransition(models.StepTransition, models.StepConfirmation, "gate passed")
	event.CurrentStep = models.StepConfirmation
	return models.Continue(models.ActionAdvance)
}
