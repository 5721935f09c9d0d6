package workflow

import "github.com/venueflow/venueflow/pkg/models"

// CheckConfirmationGate is the order-independent prerequisite check used at
// Steps 5-7: acceptance, billing, deposit, in any order. It is pure: it reads
// the event record and nothing else; the caller applies any writes. Never
// update the event from a freshly loaded copy here: that overwrites
// in-flight captures like billing.
func CheckConfirmationGate(event *models.Event) models.GateStatus {
	gs := models.GateStatus{
		OfferAccepted:   event.OfferAccepted,
		BillingComplete: event.Billing.Complete(),
		DepositRequired: event.Deposit.Required,
		DepositPaid:     event.Deposit.Paid,
	}
	gs.ReadyForHIL = gs.OfferAccepted && gs.BillingComplete &&
		(!gs.DepositRequired || gs.DepositPaid)
	return gs
}
