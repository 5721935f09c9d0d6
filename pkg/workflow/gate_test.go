package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/venueflow/venueflow/pkg/models"
)

func completeBilling() models.BillingAddress {
	return models.BillingAddress{
		Name:       "Anna Muster",
		Street:     "Musterstrasse 1",
		PostalCode: "80331",
		City:       "Munich",
	}
}

func TestCheckConfirmationGate(t *testing.T) {
	tests := []struct {
		name  string
		event models.Event
		ready bool
	}{
		{
			name: "all prerequisites met without deposit",
			event: models.Event{
				OfferAccepted: true,
				Billing:       completeBilling(),
			},
			ready: true,
		},
		{
			name: "deposit required and paid",
			event: models.Event{
				OfferAccepted: true,
				Billing:       completeBilling(),
				Deposit:       models.DepositInfo{Required: true, Paid: true},
			},
			ready: true,
		},
		{
			name: "deposit required and unpaid",
			event: models.Event{
				OfferAccepted: true,
				Billing:       completeBilling(),
				Deposit:       models.DepositInfo{Required: true},
			},
			ready: false,
		},
		{
			name: "billing incomplete",
			event: models.Event{
				OfferAccepted: true,
				Billing:       models.BillingAddress{Name: "Anna"},
			},
			ready: false,
		},
		{
			name: "offer not accepted",
			event: models.Event{
				Billing: completeBilling(),
			},
			ready: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs := CheckConfirmationGate(&tt.event)
			assert.Equal(t, tt.ready, gs.ReadyForHIL)
		})
	}
}

func TestGateIsOrderIndependent(t *testing.T) {
	// Billing before acceptance and acceptance before billing both end in
	// the same gate status.
	a := models.Event{}
	a.Billing = completeBilling()
	a.OfferAccepted = true

	b := models.Event{}
	b.OfferAccepted = true
	b.Billing = completeBilling()

	assert.Equal(t, CheckConfirmationGate(&a), CheckConfirmationGate(&b))
}
