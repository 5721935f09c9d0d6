package workflow

import (
	"fmt"
	"strings"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/models"
)

// handleRoom evaluates rooms for the confirmed date and locks the best
// match as an option. A still-valid lock fast-skips back to the caller
// step; a lock on a now-unavailable room is cleared with a notice.
func (r *Router) handleRoom(tc *turnContext) models.StepResult {
	event := tc.event

	if event.ChosenDate == "" {
		event.RecordTransition(models.StepRoom, models.StepDate, "no confirmed date")
		event.CurrentStep = models.StepDate
		return models.Continue(models.ActionDetour)
	}
	if event.Profile.Participants == 0 {
		return models.Halted(models.Draft{
			Body: tc.withQnA("How many guests are you expecting? That lets me pick the right room for you."),
		})
	}

	hash := RoomEvalHash(event.Profile.Participants, event.Profile.Layout, event.Profile.Requirements)

	// Existing lock: verify it survives the (possibly changed) date and
	// requirements, then fast-skip back to where the detour started.
	if event.LockedRoomID != "" && event.LockedRoomID != tc.excludeRoom {
		room := tc.catalog.RoomByID(event.LockedRoomID)
		if room != nil && roomOpenFor(room, event) &&
			room.Capacity(event.Profile.Layout) >= event.Profile.Participants {
			event.RoomEvalHash = hash
			r.reserve(tc, room.ID, event.ChosenDate, event.Status)
			r.checkRoomConflicts(tc, event.Status)
			event.LogActivity(fmt.Sprintf("%s still available on %s", room.Name, event.ChosenDate), true)
			return r.returnFromRoom(tc, room, true)
		}
		if room != nil {
			event.ClearedRoomName = room.Name
		}
		r.releaseLock(tc)
	}

	result := tc.catalog.Evaluate(catalog.EvalRequest{
		Date:          event.ChosenDate,
		Participants:  event.Profile.Participants,
		Layout:        event.Profile.Layout,
		Requirements:  event.Profile.Requirements,
		PreferredRoom: event.Profile.RoomPreference,
		ExcludeRoomID: tc.excludeRoom,
	})

	if result.CapacityExceeded {
		largest := tc.catalog.LargestCapacity()
		body := fmt.Sprintf(
			"For %d guests none of our rooms is large enough (our largest holds %d). You could reduce the guest count, split across two rooms, or we can recommend a partner venue.",
			event.Profile.Participants, largest)
		return models.Halted(models.Draft{Body: tc.withQnA(body)})
	}

	best := result.Best()
	if best == nil {
		body := fmt.Sprintf(
			"Unfortunately no suitable room is free on %s. Would a different date work? I'm happy to suggest alternatives.",
			event.ChosenDate)
		return models.Halted(models.Draft{Body: tc.withQnA(body)})
	}

	room := best.Room
	event.LockedRoomID = room.ID
	event.RoomEvalHash = hash
	if event.Status == models.StatusLead {
		event.Status = models.StatusOption
	}
	r.reserve(tc, room.ID, event.ChosenDate, event.Status)
	r.checkRoomConflicts(tc, event.Status)
	event.LogActivity(fmt.Sprintf("Reserved %s for %s", room.Name, event.ChosenDate), false)

	return r.returnFromRoom(tc, room, false)
}

// roomOpenFor reports whether the room is free for this event on its
// chosen date: unblocked, or blocked by this very event.
func roomOpenFor(room *catalog.Room, event *models.Event) bool {
	for _, b := range room.Availability {
		if b.Date == event.ChosenDate && b.EventID != event.EventID {
			return false
		}
	}
	return true
}

// returnFromRoom stores the acknowledgement prefix for the offer and jumps
// to the caller step (detour return) or forward to the offer.
func (r *Router) returnFromRoom(tc *turnContext, room *catalog.Room, kept bool) models.StepResult {
	event := tc.event

	var prefix strings.Builder
	if event.ClearedRoomName != "" {
		fmt.Fprintf(&prefix, "%s is no longer available on %s. ", event.ClearedRoomName, event.ChosenDate)
		event.ClearedRoomName = ""
	}
	if kept {
		fmt.Fprintf(&prefix, "%s is still available on %s.", room.Name, event.ChosenDate)
	} else {
		fmt.Fprintf(&prefix, "%s is available on %s for %d guests.",
			room.Name, event.ChosenDate, event.Profile.Participants)
	}
	event.RoomConfirmationPrefix = prefix.String()

	target := models.StepOffer
	if event.CallerStep != 0 {
		target = event.CallerStep
		event.CallerStep = 0
	}
	event.RecordTransition(models.StepRoom, target, "room secured")
	event.CurrentStep = target
	return models.Continue(models.ActionAdvance)
}
