package models

// StepAction is the tagged outcome of one step handler invocation.
type StepAction string

const (
	// ActionAdvance moves to the next step; the router dispatches again
	// when the result is not halting.
	ActionAdvance StepAction = "advance"
	// ActionDetour jumps backward with CallerStep set.
	ActionDetour StepAction = "detour"
	// ActionHalt ends the turn at the current step.
	ActionHalt StepAction = "halt"
	// ActionIgnore ends the turn with no reply and no state change.
	ActionIgnore StepAction = "ignore"
	// ActionShortcut is the Step 1 → Step 4 direct-to-offer jump.
	ActionShortcut StepAction = "shortcut"
)

// StepResult is what every step handler returns.
type StepResult struct {
	Drafts []Draft    `json:"drafts,omitempty"`
	Action StepAction `json:"action"`
	// Halt ends the routing loop for this turn; when false the router
	// immediately dispatches to the event's (possibly changed) current step.
	Halt bool `json:"halt"`
}

// Halted builds a halting result with the given drafts.
func Halted(drafts ...Draft) StepResult {
	return StepResult{Drafts: drafts, Action: ActionHalt, Halt: true}
}

// Continue builds a non-halting result; the router dispatches again.
func Continue(action StepAction, drafts ...Draft) StepResult {
	return StepResult{Drafts: drafts, Action: action, Halt: false}
}

// Ignored is the silent no-reply result.
func Ignored() StepResult {
	return StepResult{Action: ActionIgnore, Halt: true, Drafts: []Draft{{Silent: true}}}
}

// GuardSnapshot is the pure guard evaluation computed in pre-route before
// any write is applied.
type GuardSnapshot struct {
	ForcedStep              int  `json:"forced_step,omitempty"`
	RequirementsHashChanged bool `json:"requirements_hash_changed,omitempty"`
	DepositBypass           bool `json:"deposit_bypass,omitempty"`
	BillingFlow             bool `json:"billing_flow,omitempty"`
}

// GateStatus is the order-independent confirmation-gate snapshot. It is
// produced by a pure read of the event record.
type GateStatus struct {
	OfferAccepted   bool `json:"offer_accepted"`
	BillingComplete bool `json:"billing_complete"`
	DepositRequired bool `json:"deposit_required"`
	DepositPaid     bool `json:"deposit_paid"`
	ReadyForHIL     bool `json:"ready_for_hil"`
}
