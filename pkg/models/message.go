package models

import "time"

// MessageExtras carries synthetic flags attached to an inbound message by
// the API layer or by internal continuations.
type MessageExtras struct {
	EventID         string `json:"event_id,omitempty"`
	SkipDevChoice   bool   `json:"skip_dev_choice,omitempty"`
	DepositJustPaid bool   `json:"deposit_just_paid,omitempty"`
}

// InboundMessage is one client message entering the pipeline.
type InboundMessage struct {
	TenantID   string        `json:"tenant_id"`
	ClientID   string        `json:"client_id"` // client email
	ThreadID   string        `json:"thread_id"`
	Subject    string        `json:"subject,omitempty"`
	Body       string        `json:"body"`
	ReceivedAt time.Time     `json:"received_at"`
	Extras     MessageExtras `json:"extras,omitempty"`
}

// Draft is one outbound message produced by a step handler. Body is the
// client-facing text; BodyMarkdown is the manager-only rendering. When they
// differ the client always receives Body.
type Draft struct {
	Body             string       `json:"body"`
	BodyMarkdown     string       `json:"body_markdown,omitempty"`
	RequiresApproval bool         `json:"requires_approval,omitempty"`
	Category         TaskCategory `json:"category,omitempty"`
	// Silent marks a deliberate no-reply turn (nonsense gate); the router
	// must not substitute the empty-reply fallback for it.
	Silent bool `json:"silent,omitempty"`
	// Fallback carries diagnostics when the draft came from a fallback path.
	Fallback *FallbackContext `json:"fallback,omitempty"`
}

// ClientBody returns the text the client receives.
func (d Draft) ClientBody() string { return d.Body }
