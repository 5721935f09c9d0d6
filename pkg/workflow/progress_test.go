package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/venueflow/venueflow/pkg/models"
)

func TestProgressFor(t *testing.T) {
	tests := []struct {
		name    string
		event   models.Event
		stage   Stage
		percent int
	}{
		{
			name:    "fresh lead",
			event:   models.Event{Status: models.StatusLead, CurrentStep: models.StepIntake},
			stage:   StageDate,
			percent: 0,
		},
		{
			name:    "date confirmed",
			event:   models.Event{Status: models.StatusLead, DateConfirmed: true},
			stage:   StageRoom,
			percent: 25,
		},
		{
			name: "room held",
			event: models.Event{
				Status: models.StatusOption, DateConfirmed: true, LockedRoomID: "room-a",
			},
			stage:   StageOffer,
			percent: 50,
		},
		{
			name: "offer accepted",
			event: models.Event{
				Status: models.StatusOption, DateConfirmed: true,
				LockedRoomID: "room-a", OfferAccepted: true,
			},
			stage:   StageDeposit,
			percent: 75,
		},
		{
			name: "confirmed",
			event: models.Event{
				Status: models.StatusConfirmed, DateConfirmed: true,
				LockedRoomID: "room-a", OfferAccepted: true,
			},
			stage:   StageConfirmed,
			percent: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ProgressFor(&tt.event)
			assert.Equal(t, tt.stage, p.Stage)
			assert.Equal(t, tt.percent, p.Percent)
			assert.Equal(t, string(tt.event.Status), p.Status)
		})
	}
}

func TestProgressDetourKeepsCompletedStages(t *testing.T) {
	// A date-change detour moves the step counter back to 2, but the held
	// room keeps the room stage reported as done.
	event := models.Event{
		Status:        models.StatusOption,
		CurrentStep:   models.StepDate,
		CallerStep:    models.StepOffer,
		DateConfirmed: true,
		LockedRoomID:  "room-a",
	}
	p := ProgressFor(&event)
	assert.Equal(t, StageOffer, p.Stage)
	assert.Contains(t, p.Completed, StageDate)
	assert.Contains(t, p.Completed, StageRoom)
	assert.Contains(t, p.Upcoming, StageConfirmed)
}
