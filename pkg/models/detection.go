package models

// Intent is the coarse classification of one inbound message.
type Intent string

const (
	IntentEventRequest   Intent = "event_request"
	IntentQuestion       Intent = "question"
	IntentAcceptance     Intent = "acceptance"
	IntentRejection      Intent = "rejection"
	IntentConfirmation   Intent = "confirmation"
	IntentChangeRequest  Intent = "change_request"
	IntentManagerRequest Intent = "manager_request"
	IntentNonsense       Intent = "nonsense"
	IntentOther          Intent = "other"
)

// QAType classifies a question so step handlers can answer from the catalog
// or FAQ without leaving the workflow.
type QAType string

const (
	QACatering      QAType = "catering"
	QARooms         QAType = "rooms"
	QAPricing       QAType = "pricing"
	QAParking       QAType = "parking"
	QAAccessibility QAType = "accessibility"
	QAGeneral       QAType = "general"
)

// Entities are the structured values extracted from one message.
// Dates are ISO (YYYY-MM-DD) after normalization; empty means absent.
type Entities struct {
	Date           string `json:"date,omitempty"`
	StartTime      string `json:"start_time,omitempty"`
	EndTime        string `json:"end_time,omitempty"`
	RoomPreference string `json:"room_preference,omitempty"`
	Participants   int    `json:"participants,omitempty"`
	EventType      string `json:"event_type,omitempty"`
	ContactName    string `json:"contact_name,omitempty"`
	ContactEmail   string `json:"contact_email,omitempty"`
	ContactPhone   string `json:"contact_phone,omitempty"`
	SiteVisitDate  string `json:"site_visit_date,omitempty"`
	SiteVisitTime  string `json:"site_visit_time,omitempty"`
	RoomTypeHint   string `json:"room_type_hint,omitempty"`
	Budget         string `json:"budget,omitempty"`
}

// PrefilterFlags are the free deterministic signals computed before any LLM
// call. They never short-circuit the LLM (except gibberish); they fill gaps
// the LLM left blank.
type PrefilterFlags struct {
	Gibberish         bool `json:"gibberish,omitempty"`
	HasEmail          bool `json:"has_email,omitempty"`
	HasPostalCode     bool `json:"has_postal_code,omitempty"`
	HasConfirmWord    bool `json:"has_confirm_word,omitempty"`
	HasQuestionSignal bool `json:"has_question_signal,omitempty"`
	HasDate           bool `json:"has_date,omitempty"`
	HasParticipants   bool `json:"has_participants,omitempty"`
	HasRevisionSignal bool `json:"has_revision_signal,omitempty"`
	HasWorkflowSignal bool `json:"has_workflow_signal,omitempty"`
}

// DetectionResult is the unified classification of one inbound message,
// consumed by the pre-route pipeline and every step handler.
type DetectionResult struct {
	Language         string   `json:"language,omitempty"`
	Intent           Intent   `json:"intent"`
	IsQuestion       bool     `json:"is_question,omitempty"`
	IsAcceptance     bool     `json:"is_acceptance,omitempty"`
	IsRejection      bool     `json:"is_rejection,omitempty"`
	IsConfirmation   bool     `json:"is_confirmation,omitempty"`
	IsChangeRequest  bool     `json:"is_change_request,omitempty"`
	IsManagerRequest bool     `json:"is_manager_request,omitempty"`
	IsAmbiguous      bool     `json:"is_ambiguous,omitempty"`
	HasInjection     bool     `json:"has_injection_attempt,omitempty"`
	QATypes          []QAType `json:"qna_types,omitempty"`
	Entities         Entities `json:"entities,omitempty"`
	Confidence       float64  `json:"confidence"`

	Prefilter PrefilterFlags   `json:"-"`
	Fallback  *FallbackContext `json:"-"`
}

// HasActionSignal reports whether the LLM set any action-class signal.
// When true, pre-filter question flags must not override it.
func (r *DetectionResult) HasActionSignal() bool {
	return r.IsAcceptance || r.IsRejection || r.IsConfirmation || r.IsChangeRequest
}

// FromFallback reports whether the result was produced by a fallback path
// rather than a successful LLM call.
func (r *DetectionResult) FromFallback() bool { return r.Fallback != nil }

// FallbackContext is the diagnostic record attached to any reply or result
// produced by a fallback path, so scenarios can assert on the reason.
type FallbackContext struct {
	Source           string   `json:"source"`
	Trigger          string   `json:"trigger"`
	FailedConditions []string `json:"failed_conditions,omitempty"`
	Context          string   `json:"context,omitempty"`
	OriginalError    string   `json:"original_error,omitempty"`
}
