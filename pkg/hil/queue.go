// Package hil is the human-in-the-loop task queue: manager approvals,
// rejections, signature dedup, and downstream continuation after approval.
package hil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/store"
)

// ContinuationResult describes what ran after an approval.
type ContinuationResult struct {
	Action string `json:"action,omitempty"` // e.g. "dispatched_confirmation", "gate_checked"
	Reply  string `json:"reply,omitempty"`  // additional workflow reply, if any
}

// Continuer dispatches the post-approval workflow continuation. Implemented
// by the workflow router; the indirection keeps step handlers decoupled
// from the queue.
type Continuer interface {
	ContinueAfterApproval(ctx context.Context, task *models.Task) (*ContinuationResult, error)
}

// ApprovalResult is returned to the manager UI.
type ApprovalResult struct {
	TaskStatus     models.TaskStatus   `json:"task_status"`
	AssistantReply string              `json:"assistant_reply,omitempty"`
	Continuation   *ContinuationResult `json:"continuation_action,omitempty"`
}

// Queue is the per-tenant HIL task queue. Reads are concurrent; writes
// serialize on the store's compare-and-set plus the tenant lock.
type Queue struct {
	store     store.TenantStore
	locks     *store.LockRegistry
	continuer Continuer
	retention time.Duration
	observer  func(tenantID string)
}

// NewQueue creates a queue. The continuer is set later to break the
// construction cycle with the router.
func NewQueue(st store.TenantStore, locks *store.LockRegistry, retention time.Duration) *Queue {
	if st == nil {
		panic("NewQueue: store must not be nil")
	}
	if locks == nil {
		panic("NewQueue: locks must not be nil")
	}
	return &Queue{store: st, locks: locks, retention: retention}
}

// SetContinuer wires the workflow router in.
func (q *Queue) SetContinuer(c Continuer) { q.continuer = c }

// SetObserver registers a callback invoked with the tenant id whenever a
// task is enqueued. The janitor uses it to learn which tenants to sweep.
func (q *Queue) SetObserver(fn func(tenantID string)) { q.observer = fn }

// Enqueue creates a task for a draft unless one with the same signature
// already exists. Returns the task and whether it was newly created.
func (q *Queue) Enqueue(ctx context.Context, tenantID, eventID, threadID string, category models.TaskCategory, draft models.Draft, conflictWith string) (*models.Task, bool, error) {
	unlock := q.locks.LockTenant(tenantID)
	defer unlock()

	sig := models.TaskSignature(threadID, category, draft.Body)
	if existing, err := q.store.FindTaskBySignature(ctx, tenantID, sig); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to check task signature: %w", err)
	}

	task := &models.Task{
		TaskID:       uuid.New().String(),
		TenantID:     tenantID,
		EventID:      eventID,
		ThreadID:     threadID,
		Category:     category,
		Status:       models.TaskPending,
		DraftBody:    draft.Body,
		DraftBodyMD:  draft.BodyMarkdown,
		Signature:    sig,
		ConflictWith: conflictWith,
		CreatedAt:    time.Now().UTC(),
	}
	if err := q.store.PutTask(ctx, task); err != nil {
		return nil, false, fmt.Errorf("failed to create task: %w", err)
	}
	if q.observer != nil {
		q.observer(tenantID)
	}
	slog.Info("HIL task created",
		"tenant_id", tenantID, "task_id", task.TaskID,
		"category", string(category), "event_id", eventID)
	return task, true, nil
}

// ListPending lists the tenant's pending tasks, oldest first.
func (q *Queue) ListPending(ctx context.Context, tenantID string) ([]*models.Task, error) {
	return q.store.ListTasks(ctx, tenantID, models.TaskPending)
}

// Approve resolves a task. The effective client reply is the edited message
// when supplied, else the client-facing draft body (never the markdown
// rendering). A second approve on the same signature is ignored via the
// compare-and-set. The post-approval continuation runs under the event lock.
func (q *Queue) Approve(ctx context.Context, tenantID, taskID, editedMessage, notes string) (*ApprovalResult, error) {
	task, err := q.store.GetTask(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}

	// A cancel that raced ahead of the approval wins: the task goes stale
	// and no client message is sent.
	if event, err := q.store.GetEvent(ctx, tenantID, task.EventID); err == nil &&
		event.Status == models.StatusCancelled {
		if err := q.store.UpdateTaskStatus(ctx, tenantID, taskID, models.TaskPending, models.TaskStale); err != nil &&
			!errors.Is(err, store.ErrConcurrentModification) {
			return nil, err
		}
		return &ApprovalResult{TaskStatus: models.TaskStale}, nil
	}

	if err := q.store.UpdateTaskStatus(ctx, tenantID, taskID, models.TaskPending, models.TaskApproved); err != nil {
		if errors.Is(err, store.ErrConcurrentModification) {
			// Duplicate approve; report current status without re-running
			// the continuation.
			current, getErr := q.store.GetTask(ctx, tenantID, taskID)
			if getErr != nil {
				return nil, getErr
			}
			return &ApprovalResult{TaskStatus: current.Status, AssistantReply: current.EffectiveReply()}, nil
		}
		return nil, err
	}

	task.Status = models.TaskApproved
	task.EditedBody = editedMessage
	task.Notes = notes
	now := time.Now().UTC()
	task.ResolvedAt = &now
	if err := q.store.PutTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to persist approved task: %w", err)
	}

	result := &ApprovalResult{
		TaskStatus:     models.TaskApproved,
		AssistantReply: task.EffectiveReply(),
	}

	if q.continuer != nil && task.Category.RequiresDecision() {
		cont, err := q.continuer.ContinueAfterApproval(ctx, task)
		if err != nil {
			slog.Error("Post-approval continuation failed",
				"tenant_id", tenantID, "task_id", taskID, "error", err)
		} else {
			result.Continuation = cont
		}
	}

	slog.Info("HIL task approved",
		"tenant_id", tenantID, "task_id", taskID, "edited", editedMessage != "")
	return result, nil
}

// Reject resolves a task negatively.
func (q *Queue) Reject(ctx context.Context, tenantID, taskID, notes string) (models.TaskStatus, error) {
	if err := q.store.UpdateTaskStatus(ctx, tenantID, taskID, models.TaskPending, models.TaskRejected); err != nil {
		if errors.Is(err, store.ErrConcurrentModification) {
			current, getErr := q.store.GetTask(ctx, tenantID, taskID)
			if getErr != nil {
				return "", getErr
			}
			return current.Status, nil
		}
		return "", err
	}
	task, err := q.store.GetTask(ctx, tenantID, taskID)
	if err == nil {
		task.Notes = notes
		if putErr := q.store.PutTask(ctx, task); putErr != nil {
			slog.Warn("Failed to persist rejection notes", "task_id", taskID, "error", putErr)
		}
	}
	slog.Info("HIL task rejected", "tenant_id", tenantID, "task_id", taskID)
	return models.TaskRejected, nil
}

// Cleanup removes resolved tasks older than the retention window.
func (q *Queue) Cleanup(ctx context.Context, tenantID string) (int, error) {
	cutoff := time.Now().UTC().Add(-q.retention)
	n, err := q.store.DeleteTasksResolvedBefore(ctx, tenantID, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up tasks: %w", err)
	}
	if n > 0 {
		slog.Info("Cleaned up resolved HIL tasks", "tenant_id", tenantID, "removed", n)
	}
	return n, nil
}
