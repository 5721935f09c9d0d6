package api

// SendMessageRequest is the body of POST /api/v1/messages.
type SendMessageRequest struct {
	ThreadID    string `json:"thread_id" binding:"required"`
	ClientEmail string `json:"client_email" binding:"required,email"`
	Subject     string `json:"subject"`
	Body        string `json:"body" binding:"required"`
	Extras      struct {
		EventID         string `json:"event_id"`
		SkipDevChoice   bool   `json:"skip_dev_choice"`
		DepositJustPaid bool   `json:"deposit_just_paid"`
	} `json:"extras"`
}

// StartConversationRequest is the body of POST /api/v1/conversations.
type StartConversationRequest struct {
	ClientEmail string `json:"client_email" binding:"required,email"`
	ClientName  string `json:"client_name"`
	Subject     string `json:"subject"`
	EmailBody   string `json:"email_body" binding:"required"`
}

// ApproveTaskRequest is the body of POST /api/v1/tasks/:id/approve.
type ApproveTaskRequest struct {
	EditedMessage string `json:"edited_message"`
	Notes         string `json:"notes"`
}

// RejectTaskRequest is the body of POST /api/v1/tasks/:id/reject.
type RejectTaskRequest struct {
	Notes string `json:"notes" binding:"required"`
}

// CancelEventRequest is the body of POST /api/v1/events/:id/cancel. The
// confirmation must be the literal CANCEL.
type CancelEventRequest struct {
	Confirmation string `json:"confirmation" binding:"required"`
	Reason       string `json:"reason"`
}

// PayDepositRequest is the body of POST /api/v1/deposit/pay.
type PayDepositRequest struct {
	EventID string `json:"event_id" binding:"required"`
}

// SetPromptRequest is the body for the prompts config section.
type SetPromptRequest struct {
	Key    string `json:"key" binding:"required"`
	Value  string `json:"value" binding:"required"`
	Author string `json:"author"`
}
