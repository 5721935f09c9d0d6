package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/conflict"
	"github.com/venueflow/venueflow/pkg/hil"
	"github.com/venueflow/venueflow/pkg/models"
)

// CancelLiteral is the confirmation string a cancellation must carry.
const CancelLiteral = "CANCEL"

// Cancel cancels an event. The caller must confirm with the literal
// CANCEL; the record is archived, never deleted.
func (r *Router) Cancel(ctx context.Context, tenantID, eventID, confirmation, reason string) (*models.Event, error) {
	if confirmation != CancelLiteral {
		return nil, newValidationError("cancellation requires confirmation %q", CancelLiteral)
	}

	unlock := r.locks.Lock(tenantID, eventID)
	defer unlock()

	event, err := r.store.GetEvent(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}
	if event.Status == models.StatusCancelled {
		return event, nil
	}

	if event.LockedRoomID != "" {
		if err := r.calendar.Release(ctx, tenantID, eventID, event.LockedRoomID); err != nil {
			slog.Warn("Failed to release calendar hold on cancel",
				"tenant_id", tenantID, "event_id", eventID, "error", err)
		}
	}
	event.Status = models.StatusCancelled
	event.CancelReason = reason
	if event.SiteVisit.Status != "" && event.SiteVisit.Status != models.SiteVisitIdle {
		event.SiteVisit.Status = models.SiteVisitCancelled
	}
	event.LogActivity("Booking cancelled", false)
	event.UpdatedAt = time.Now().UTC()

	if err := r.store.PutEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to persist cancellation: %w", err)
	}
	slog.Info("Event cancelled", "tenant_id", tenantID, "event_id", eventID)
	return event, nil
}

// PayDeposit marks the deposit paid and feeds the synthetic
// deposit_just_paid turn into the thread, which dispatches straight to
// confirmation. Idempotent for an already-paid deposit.
func (r *Router) PayDeposit(ctx context.Context, tenantID, eventID string) (*TurnResult, error) {
	unlock := r.locks.Lock(tenantID, eventID)
	event, err := r.store.GetEvent(ctx, tenantID, eventID)
	if err != nil {
		unlock()
		return nil, err
	}
	if !event.Deposit.Required {
		unlock()
		return nil, newValidationError("event %s has no deposit requirement", eventID)
	}

	if !event.Deposit.Paid {
		now := time.Now().UTC()
		event.Deposit.Paid = true
		event.Deposit.PaidAt = &now
		event.LogActivity("Deposit received", false)
		event.UpdatedAt = now
		if err := r.store.PutEvent(ctx, event); err != nil {
			unlock()
			return nil, fmt.Errorf("failed to persist deposit payment: %w", err)
		}
	}
	clientID, threadID := event.ClientID, event.ThreadID
	unlock()

	// The synthetic turn re-acquires the event lock itself.
	return r.HandleMessage(ctx, &models.InboundMessage{
		TenantID:   tenantID,
		ClientID:   clientID,
		ThreadID:   threadID,
		Body:       "Deposit payment received.",
		ReceivedAt: time.Now().UTC(),
		Extras: models.MessageExtras{
			EventID:         eventID,
			DepositJustPaid: true,
		},
	})
}

// ContinueAfterApproval implements hil.Continuer: the workflow progression
// that runs after a manager approves a task. Called with the event lock
// NOT held; it takes the lock itself.
func (r *Router) ContinueAfterApproval(ctx context.Context, task *models.Task) (*hil.ContinuationResult, error) {
	unlock := r.locks.Lock(task.TenantID, task.EventID)
	defer unlock()

	event, err := r.store.GetEvent(ctx, task.TenantID, task.EventID)
	if err != nil {
		return nil, err
	}

	switch task.Category {
	case models.TaskOfferMessage:
		// The approved offer is on its way; when the gate is already
		// satisfied (billing and deposit arrived while the task waited),
		// jump straight to confirmation.
		gate := CheckConfirmationGate(event)
		if !gate.ReadyForHIL {
			return &hil.ContinuationResult{Action: "offer_sent"}, nil
		}
		reply, err := r.internalDispatch(ctx, event, models.StepConfirmation, "offer approved, gate satisfied")
		if err != nil {
			return nil, err
		}
		return &hil.ContinuationResult{Action: "dispatched_confirmation", Reply: reply}, nil

	case models.TaskAIReplyApproval:
		if event.CurrentStep != models.StepNegotiation {
			return &hil.ContinuationResult{Action: "reply_sent"}, nil
		}
		event.OfferAccepted = true
		gate := CheckConfirmationGate(event)
		if !gate.ReadyForHIL {
			if err := r.persistEvent(ctx, event); err != nil {
				return nil, err
			}
			return &hil.ContinuationResult{Action: "gate_checked"}, nil
		}
		reply, err := r.internalDispatch(ctx, event, models.StepTransition, "negotiation reply approved")
		if err != nil {
			return nil, err
		}
		return &hil.ContinuationResult{Action: "dispatched_confirmation", Reply: reply}, nil

	case models.TaskConflictResolution:
		return r.resolveConflict(ctx, task, event)

	default:
		return &hil.ContinuationResult{Action: "noted"}, nil
	}
}

// resolveConflict applies a manager's room-conflict decision: the winner
// keeps the hold, the loser is redirected to another room or another date.
// The approval notes (or edited message) name the winning event id; without
// an explicit pick the event that asked to confirm wins, as it is furthest
// along.
func (r *Router) resolveConflict(ctx context.Context, task *models.Task, requester *models.Event) (*hil.ContinuationResult, error) {
	if task.ConflictWith == "" {
		return &hil.ContinuationResult{Action: "noted"}, nil
	}
	other, err := r.store.GetEvent(ctx, task.TenantID, task.ConflictWith)
	if err != nil {
		return nil, err
	}

	winner, loser := requester, other
	decision := task.Notes + " " + task.EditedBody
	if strings.Contains(decision, other.EventID) && !strings.Contains(decision, requester.EventID) {
		winner, loser = other, requester
	}

	// The requester's lock is already held; the other event needs its own.
	if loser.EventID != requester.EventID {
		unlock := r.locks.Lock(task.TenantID, loser.EventID)
		defer unlock()
		if fresh, err := r.store.GetEvent(ctx, task.TenantID, loser.EventID); err == nil {
			loser = fresh
		}
	}

	if err := r.redirectConflictLoser(ctx, loser); err != nil {
		return nil, err
	}
	requester.PendingConflictWith = ""
	requester.ConflictReason = ""
	slog.Info("Room conflict resolved",
		"tenant_id", task.TenantID, "winner", winner.EventID, "loser", loser.EventID)

	// A requester that was blocked mid-confirmation can now finish: the
	// losing hold is gone, so the re-check passes.
	if winner.EventID == requester.EventID &&
		requester.CurrentStep == models.StepConfirmation &&
		requester.Status != models.StatusConfirmed {
		reply, err := r.internalDispatch(ctx, requester, models.StepConfirmation, "conflict resolved, room awarded")
		if err != nil {
			return nil, err
		}
		return &hil.ContinuationResult{Action: "dispatched_confirmation", Reply: reply}, nil
	}
	if loser.EventID != requester.EventID {
		if err := r.persistEvent(ctx, requester); err != nil {
			return nil, err
		}
	}
	return &hil.ContinuationResult{Action: "conflict_resolved"}, nil
}

// redirectConflictLoser releases the loser's hold, then routes them to a
// new room on the same date when one fits, else to a new date.
func (r *Router) redirectConflictLoser(ctx context.Context, loser *models.Event) error {
	cat, err := r.loadCatalog(ctx, loser.TenantID)
	if err != nil {
		return err
	}

	lostRoom := loser.LockedRoomID
	if room := cat.RoomByID(lostRoom); room != nil {
		loser.ClearedRoomName = room.Name
	}
	if lostRoom != "" {
		if err := r.calendar.Release(ctx, loser.TenantID, loser.EventID, lostRoom); err != nil {
			slog.Warn("Failed to release losing hold",
				"tenant_id", loser.TenantID, "event_id", loser.EventID, "error", err)
		}
	}
	loser.LockedRoomID = ""
	loser.OfferHash = ""
	loser.OfferAccepted = false
	loser.PendingConflictWith = ""
	loser.ConflictReason = ""
	if loser.Status == models.StatusOption {
		loser.Status = models.StatusLead
	}

	evalResult := cat.Evaluate(catalog.EvalRequest{
		Date:          loser.ChosenDate,
		Participants:  loser.Profile.Participants,
		Layout:        loser.Profile.Layout,
		Requirements:  loser.Profile.Requirements,
		ExcludeRoomID: lostRoom,
	})
	alternative := evalResult.Best()

	target := conflict.RedirectStep(loser, alternative == nil)
	if target == models.StepRoom {
		loser.ExcludedRoomID = lostRoom
	} else {
		loser.DateConfirmed = false
	}
	loser.RecordTransition(loser.CurrentStep, target, "room awarded to concurrent booking")
	loser.CurrentStep = target
	loser.LogActivity("Room allocation decided against this booking", false)
	return r.persistEvent(ctx, loser)
}

// internalDispatch runs the step loop without an inbound message, for
// post-approval continuations. Drafts produced here are returned joined;
// any that still require approval are queued like a normal turn.
func (r *Router) internalDispatch(ctx context.Context, event *models.Event, step int, reason string) (string, error) {
	settings, err := r.loadSettings(ctx, event.TenantID)
	if err != nil {
		return "", err
	}
	cat, err := r.loadCatalog(ctx, event.TenantID)
	if err != nil {
		return "", err
	}

	if event.CurrentStep != step {
		event.RecordTransition(event.CurrentStep, step, reason)
		event.CurrentStep = step
	}

	tc := &turnContext{
		ctx:      ctx,
		now:      r.nowFn(),
		settings: settings,
		catalog:  cat,
		prompts:  r.loadPrompts(ctx, event.TenantID),
		event:    event,
		client:   &models.Client{TenantID: event.TenantID, Email: event.ClientID},
		msg: &models.InboundMessage{
			TenantID: event.TenantID,
			ClientID: event.ClientID,
			ThreadID: event.ThreadID,
		},
		detection: &models.DetectionResult{Intent: models.IntentOther, Confidence: 1},
	}
	if event.ExcludedRoomID != "" {
		tc.excludeRoom = event.ExcludedRoomID
		event.ExcludedRoomID = ""
	}
	r.dispatch(tc)

	if err := r.persistEvent(ctx, event); err != nil {
		return "", err
	}

	var bodies []string
	for _, draft := range tc.drafts {
		if draft.Silent || draft.Body == "" {
			continue
		}
		if draft.RequiresApproval {
			if _, _, err := r.queue.Enqueue(ctx, event.TenantID, event.EventID,
				event.ThreadID, draft.Category, draft, ""); err != nil {
				slog.Error("Failed to enqueue continuation task", "error", err)
			}
			continue
		}
		bodies = append(bodies, draft.Body)
	}
	return strings.Join(bodies, "\n\n"), nil
}

func (r *Router) persistEvent(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	if err := r.store.PutEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to persist event: %w", err)
	}
	return nil
}
