package models

import "time"

// DepositInfo tracks the deposit requirement computed from the tenant's
// deposit policy when the offer is composed.
type DepositInfo struct {
	Required bool       `json:"required"`
	Amount   float64    `json:"amount,omitempty"`
	DueDate  string     `json:"due_date,omitempty"` // ISO date
	Paid     bool       `json:"paid"`
	PaidAt   *time.Time `json:"paid_at,omitempty"`
}

// SiteVisitState tracks the two-step site-visit scheduling sub-flow.
type SiteVisitState struct {
	Status        SiteVisitStatus `json:"status"`
	RequestedDate string          `json:"requested_date,omitempty"`
	RequestedTime string          `json:"requested_time,omitempty"`
	ProposedSlots []string        `json:"proposed_slots,omitempty"`
	ConfirmedDate string          `json:"confirmed_date,omitempty"`
	ConfirmedTime string          `json:"confirmed_time,omitempty"`
}

// TimeWindow is the start/end window of the event on the chosen date.
type TimeWindow struct {
	Start string `json:"start,omitempty"` // "18:00"
	End   string `json:"end,omitempty"`
}

// EventProfile is the captured event profile, filled opportunistically at
// any step from detection entities.
type EventProfile struct {
	Participants     int      `json:"participants,omitempty"`
	EventType        string   `json:"event_type,omitempty"`
	Layout           string   `json:"layout,omitempty"`
	Requirements     []string `json:"requirements,omitempty"`
	ProductWishes    []string `json:"product_wishes,omitempty"`
	ContactName      string   `json:"contact_name,omitempty"`
	ContactEmail     string   `json:"contact_email,omitempty"`
	ContactPhone     string   `json:"contact_phone,omitempty"`
	RoomPreference   string   `json:"room_preference,omitempty"`
	RoomTypeHint     string   `json:"room_type_hint,omitempty"`
	Budget           string   `json:"budget,omitempty"`
	PreferredWeekday string   `json:"preferred_weekday,omitempty"`
}

// AuditEntry records one step transition.
type AuditEntry struct {
	FromStep  int       `json:"from_step"`
	ToStep    int       `json:"to_step"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityEntry is one line of the client-visible activity log.
// Detailed=false entries are the coarse milestones.
type ActivityEntry struct {
	At       string `json:"at"` // local time, "2006-01-02 15:04"
	Text     string `json:"text"`
	Detailed bool   `json:"detailed,omitempty"`
}

// MaxActivityEntries caps the per-event activity log.
const MaxActivityEntries = 50

// Event is one inquiry/booking conversation, identified by
// (tenant_id, event_id). ThreadID is the first inbound message's thread key.
type Event struct {
	EventID  string `json:"event_id"`
	TenantID string `json:"tenant_id"`
	ClientID string `json:"client_id"` // client email
	ThreadID string `json:"thread_id"`

	CurrentStep int    `json:"current_step"`
	Status      Status `json:"status"`
	// CallerStep is the step that initiated a detour; 0 when no detour is
	// active. A single back-edge, never a stack.
	CallerStep int `json:"caller_step,omitempty"`

	ChosenDate    string     `json:"chosen_date,omitempty"` // ISO date
	DateConfirmed bool       `json:"date_confirmed,omitempty"`
	Window        TimeWindow `json:"window,omitempty"`
	LockedRoomID  string     `json:"locked_room_id,omitempty"`
	RoomEvalHash  string     `json:"room_eval_hash,omitempty"`
	OfferHash     string     `json:"offer_hash,omitempty"`
	OfferAccepted bool       `json:"offer_accepted,omitempty"`

	Profile EventProfile   `json:"profile,omitempty"`
	Billing BillingAddress `json:"billing,omitempty"`
	Deposit DepositInfo    `json:"deposit,omitempty"`

	SiteVisit SiteVisitState `json:"site_visit,omitempty"`

	// AwaitingBillingForAccept marks an accepted offer that is blocked on
	// billing details; the pre-route billing-flow correction keys off it.
	AwaitingBillingForAccept bool `json:"awaiting_billing_for_accept,omitempty"`

	// ClearedRoomName carries the name of a lock that was dropped because
	// the room became unavailable; the next reply is prefixed with it once.
	ClearedRoomName string `json:"cleared_room_name,omitempty"`
	// ExcludedRoomID blocks one room from the next room evaluation after a
	// lost conflict; consumed by the turn that re-selects.
	ExcludedRoomID string `json:"excluded_room_id,omitempty"`
	// PendingConflictWith marks a confirmation blocked on a room conflict,
	// awaiting the client's flexibility reply. The resolution task is
	// created only once that reply arrives, carried in ConflictReason.
	PendingConflictWith string `json:"pending_conflict_with,omitempty"`
	ConflictReason      string `json:"conflict_reason,omitempty"`
	// RoomConfirmationPrefix carries the Step 3 acknowledgement into the
	// Step 4 offer when both are emitted in one turn.
	RoomConfirmationPrefix string `json:"room_confirmation_prefix,omitempty"`

	// Proposal counters for HIL escalation.
	FailedDateProposals int `json:"failed_date_proposals,omitempty"`
	CounterProposals    int `json:"counter_proposals,omitempty"`

	// LastInboundBody backs the duplicate gate.
	LastInboundBody string `json:"last_inbound_body,omitempty"`

	CancelReason string `json:"cancel_reason,omitempty"`

	Audit    []AuditEntry    `json:"audit,omitempty"`
	Activity []ActivityEntry `json:"activity,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HoldsRoom reports whether the event currently holds a room on its chosen
// date: a lock plus option or confirmed status.
func (e *Event) HoldsRoom() bool {
	return e.LockedRoomID != "" && (e.Status == StatusOption || e.Status == StatusConfirmed)
}

// RecordTransition appends an audit entry for a step change.
func (e *Event) RecordTransition(from, to int, reason string) {
	e.Audit = append(e.Audit, AuditEntry{
		FromStep:  from,
		ToStep:    to,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	})
}

// LogActivity appends to the activity log, trimming the oldest entries past
// the cap. The log is append-only; existing entries are never rewritten.
func (e *Event) LogActivity(text string, detailed bool) {
	e.Activity = append(e.Activity, ActivityEntry{
		At:       time.Now().Local().Format("2006-01-02 15:04"),
		Text:     text,
		Detailed: detailed,
	})
	if n := len(e.Activity); n > MaxActivityEntries {
		e.Activity = e.Activity[n-MaxActivityEntries:]
	}
}
