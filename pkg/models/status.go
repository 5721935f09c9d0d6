package models

// Status is the lifecycle status of a client or event.
// Values are canonical lowercase on the wire.
type Status string

const (
	StatusLead      Status = "lead"
	StatusOption    Status = "option"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the canonical statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLead, StatusOption, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether an event in this status accepts no further turns.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Workflow step numbers. Step 6 is the gate-transition step between
// negotiation and confirmation.
const (
	StepIntake       = 1
	StepDate         = 2
	StepRoom         = 3
	StepOffer        = 4
	StepNegotiation  = 5
	StepTransition   = 6
	StepConfirmation = 7

	FirstStep = StepIntake
	LastStep  = StepConfirmation
)

// TaskStatus is the lifecycle status of a HIL task.
type TaskStatus string

const (
	TaskPending  TaskStatus = "pending"
	TaskApproved TaskStatus = "approved"
	TaskRejected TaskStatus = "rejected"
	TaskStale    TaskStatus = "stale"
)

// TaskCategory classifies HIL tasks into the manager UI queues.
type TaskCategory string

const (
	TaskOfferMessage        TaskCategory = "offer_message"
	TaskConfirmationMessage TaskCategory = "confirmation_message"
	TaskAIReplyApproval     TaskCategory = "ai_reply_approval"
	TaskSoftConflictNotice  TaskCategory = "soft_room_conflict_notification"
	TaskConflictResolution  TaskCategory = "room_conflict_resolution"
	TaskManagerRequest      TaskCategory = "manager_request"
)

// RequiresDecision reports whether a task category needs a manager action
// (as opposed to an informational notification).
func (c TaskCategory) RequiresDecision() bool {
	return c != TaskSoftConflictNotice
}

// SiteVisitStatus tracks the two-step site-visit scheduling sub-flow.
type SiteVisitStatus string

const (
	SiteVisitIdle           SiteVisitStatus = "idle"
	SiteVisitProposed       SiteVisitStatus = "proposed"
	SiteVisitTimePending    SiteVisitStatus = "time_pending"
	SiteVisitConfirmPending SiteVisitStatus = "confirm_pending"
	SiteVisitScheduled      SiteVisitStatus = "scheduled"
	SiteVisitCompleted      SiteVisitStatus = "completed"
	SiteVisitCancelled      SiteVisitStatus = "cancelled"
)
