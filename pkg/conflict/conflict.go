// Package conflict detects concurrent room reservations. Detection works on
// a snapshot of the tenant's events, not a coordinated transaction.
package conflict

import (
	"github.com/venueflow/venueflow/pkg/models"
)

// Kind classifies a conflict.
type Kind string

const (
	// Soft: both events hold the room as option. Both proceed; the manager
	// is notified; neither client is told.
	Soft Kind = "soft"
	// Hard: a confirmation collides with an existing hold, or any action
	// collides with a confirmed event.
	Hard Kind = "hard"
)

// Conflict is one detected collision on (date, room_id).
type Conflict struct {
	Kind  Kind
	Other *models.Event
	// Blocking means the acting event must not proceed at all (the other
	// side is confirmed).
	Blocking bool
}

// Check returns the conflicts the acting event has against the snapshot,
// given the action it is about to take (the status it will hold the room
// with: option or confirmed).
func Check(snapshot []*models.Event, acting *models.Event, actingStatus models.Status) []Conflict {
	if acting.LockedRoomID == "" || acting.ChosenDate == "" {
		return nil
	}

	var out []Conflict
	for _, other := range snapshot {
		if other.EventID == acting.EventID {
			continue
		}
		if !other.HoldsRoom() {
			continue
		}
		if other.LockedRoomID != acting.LockedRoomID || other.ChosenDate != acting.ChosenDate {
			continue
		}

		switch {
		case other.Status == models.StatusConfirmed:
			// Confirmed blocks outright; no task is created for this case.
			out = append(out, Conflict{Kind: Hard, Other: other, Blocking: true})
		case actingStatus == models.StatusConfirmed:
			// Option + confirm: block the confirmation, ask for a reason,
			// let the manager resolve.
			out = append(out, Conflict{Kind: Hard, Other: other})
		default:
			out = append(out, Conflict{Kind: Soft, Other: other})
		}
	}
	return out
}

// RedirectStep decides where the conflict loser goes: Step 2 when the date
// was the conflicting dimension, Step 3 (with the room excluded) otherwise.
// The room is the conflicting dimension when the loser could keep the date
// in another room.
func RedirectStep(loser *models.Event, dateConflicting bool) int {
	if dateConflicting {
		return models.StepDate
	}
	return models.StepRoom
}
