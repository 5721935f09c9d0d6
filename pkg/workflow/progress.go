package workflow

import "github.com/venueflow/venueflow/pkg/models"

// Stage is the client-facing progress view. The seven internal steps fold
// into five stages so that UI consumers never see internal detours.
type Stage string

const (
	StageDate      Stage = "date"
	StageRoom      Stage = "room"
	StageOffer     Stage = "offer"
	StageDeposit   Stage = "deposit"
	StageConfirmed Stage = "confirmed"
)

var stageOrder = []Stage{StageDate, StageRoom, StageOffer, StageDeposit, StageConfirmed}

// Progress describes where an event stands in the five-stage view.
type Progress struct {
	Stage     Stage   `json:"stage"`
	Completed []Stage `json:"completed"`
	Upcoming  []Stage `json:"upcoming"`
	Status    string  `json:"status"`
	Percent   int     `json:"percent"`
}

// ProgressFor maps an event onto the public stage model. Completion is
// derived from commitments, not from the raw step counter, so a detour
// back to Step 2 with a held room still reports the room stage as done.
func ProgressFor(event *models.Event) Progress {
	stage := StageDate
	switch {
	case event.Status == models.StatusConfirmed:
		stage = StageConfirmed
	case event.OfferAccepted:
		stage = StageDeposit
	case event.HoldsRoom():
		stage = StageOffer
	case event.DateConfirmed:
		stage = StageRoom
	}

	p := Progress{Stage: stage, Status: string(event.Status)}
	idx := 0
	for i, s := range stageOrder {
		if s == stage {
			idx = i
			break
		}
	}
	p.Completed = stageOrder[:idx]
	if idx+1 < len(stageOrder) {
		p.Upcoming = stageOrder[idx+1:]
	}
	p.Percent = idx * 100 / (len(stageOrder) - 1)
	return p
}
