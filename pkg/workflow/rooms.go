package workflow

import (
	"fmt"
	"log/slog"

	"github.com/venueflow/venueflow/pkg/conflict"
	"github.com/venueflow/venueflow/pkg/models"
)

// reserve writes the event's calendar hold. Calendar failures degrade to a
// log line: the event record itself remains the source of truth for
// conflict detection.
func (r *Router) reserve(tc *turnContext, roomID, date string, status models.Status) {
	if err := r.calendar.Reserve(tc.ctx, tc.event.TenantID, tc.event.EventID, roomID, date, status); err != nil {
		slog.Warn("Failed to write calendar hold",
			"tenant_id", tc.event.TenantID, "event_id", tc.event.EventID,
			"room_id", roomID, "date", date, "error", err)
	}
}

// checkRoomConflicts scans the tenant's events for holds on the same
// (date, room) and files soft-conflict notifications. Soft conflicts are
// notification-only; neither client hears about them in-thread. The first
// hard conflict, if any, is returned for the caller to act on.
func (r *Router) checkRoomConflicts(tc *turnContext, actingStatus models.Status) *conflict.Conflict {
	snapshot, err := r.store.ListEvents(tc.ctx, tc.event.TenantID)
	if err != nil {
		slog.Warn("Conflict scan failed", "tenant_id", tc.event.TenantID, "error", err)
		return nil
	}

	var hard *conflict.Conflict
	for _, c := range conflict.Check(snapshot, tc.event, actingStatus) {
		c := c
		switch {
		case c.Kind == conflict.Hard:
			if hard == nil || c.Blocking {
				hard = &c
			}
		default:
			body := fmt.Sprintf(
				"Room %s is held as an option by two events on %s: %s and %s. No action required; both inquiries proceed.",
				tc.event.LockedRoomID, tc.event.ChosenDate, c.Other.EventID, tc.event.EventID)
			_, created, err := r.queue.Enqueue(tc.ctx, tc.event.TenantID, tc.event.EventID,
				tc.event.ThreadID, models.TaskSoftConflictNotice,
				models.Draft{Body: body}, c.Other.EventID)
			if err != nil {
				slog.Warn("Failed to create soft-conflict notification", "error", err)
			} else if created {
				slog.Info("Soft room conflict noted",
					"tenant_id", tc.event.TenantID, "room_id", tc.event.LockedRoomID,
					"date", tc.event.ChosenDate, "events",
					[]string{tc.event.EventID, c.Other.EventID})
			}
		}
	}
	return hard
}
