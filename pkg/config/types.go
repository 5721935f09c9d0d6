package config

import "time"

// DepositPolicy computes the deposit line of an offer. Exactly one of
// Percentage or FixedAmount applies; Percentage wins when both are set.
type DepositPolicy struct {
	Required     bool    `yaml:"required" json:"required"`
	Percentage   float64 `yaml:"percentage,omitempty" json:"percentage,omitempty"`
	FixedAmount  float64 `yaml:"fixed_amount,omitempty" json:"fixed_amount,omitempty"`
	DeadlineDays int     `yaml:"deadline_days,omitempty" json:"deadline_days,omitempty"`
}

// Amount returns the deposit for an offer total.
func (p DepositPolicy) Amount(total float64) float64 {
	if !p.Required {
		return 0
	}
	if p.Percentage > 0 {
		return total * p.Percentage / 100
	}
	return p.FixedAmount
}

// DueDate returns the deposit due date: max(today+1, eventDate − deadline).
func (p DepositPolicy) DueDate(today, eventDate time.Time) time.Time {
	due := eventDate.AddDate(0, 0, -p.DeadlineDays)
	if floor := today.AddDate(0, 0, 1); due.Before(floor) {
		return floor
	}
	return due
}

// DetectionMode selects the detection pipeline variant per tenant.
type DetectionMode string

const (
	DetectionUnified DetectionMode = "unified"
	DetectionLegacy  DetectionMode = "legacy"
)

// SiteVisitSettings controls the site-visit scheduling sub-flow.
type SiteVisitSettings struct {
	Enabled   bool     `yaml:"enabled" json:"enabled"`
	TimeSlots []string `yaml:"time_slots,omitempty" json:"time_slots,omitempty"`
	Weekdays  []string `yaml:"weekdays,omitempty" json:"weekdays,omitempty"`
}

// VenueInfo is the descriptive venue profile used in prompts and footers.
type VenueInfo struct {
	Name     string `yaml:"name" json:"name"`
	Address  string `yaml:"address,omitempty" json:"address,omitempty"`
	Website  string `yaml:"website,omitempty" json:"website,omitempty"`
	InfoPage string `yaml:"info_page,omitempty" json:"info_page,omitempty"`
	Tone     string `yaml:"tone,omitempty" json:"tone,omitempty"`
}

// FAQEntry is one tenant FAQ item served by the Q&A short-circuits.
type FAQEntry struct {
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
	Topic    string `yaml:"topic,omitempty" json:"topic,omitempty"`
}

// PromptVersion is one historical value of a manager-editable prompt.
type PromptVersion struct {
	Value   string    `json:"value"`
	SavedAt time.Time `json:"saved_at"`
	Author  string    `json:"author,omitempty"`
}

// PromptOverride is a manager-editable prompt with version history
// (latest MaxPromptHistory kept).
type PromptOverride struct {
	Key     string          `json:"key"`
	Value   string          `json:"value"`
	History []PromptVersion `json:"history,omitempty"`
}

// MaxPromptHistory caps per-prompt version history.
const MaxPromptHistory = 50

// TenantSettings are the per-tenant runtime toggles, stored in the tenant
// record and served through the settings cache.
type TenantSettings struct {
	Deposit       DepositPolicy     `yaml:"deposit" json:"deposit"`
	HILAllReplies bool              `yaml:"hil_all_llm_replies" json:"hil_all_llm_replies"`
	EmailFormat   string            `yaml:"email_format,omitempty" json:"email_format,omitempty"` // "text" | "html"
	LLMProvider   string            `yaml:"llm_provider,omitempty" json:"llm_provider,omitempty"`
	PrefilterOn   *bool             `yaml:"pre_filter,omitempty" json:"pre_filter,omitempty"`
	DetectionMode DetectionMode     `yaml:"detection_mode,omitempty" json:"detection_mode,omitempty"`
	SiteVisit     SiteVisitSettings `yaml:"site_visit" json:"site_visit"`
	Venue         VenueInfo         `yaml:"venue" json:"venue"`
	Managers      []string          `yaml:"managers,omitempty" json:"managers,omitempty"`
	FAQ           []FAQEntry        `yaml:"faq,omitempty" json:"faq,omitempty"`
	// AllowEventReuseInProd extends the dev continue-vs-reset behavior to
	// production tenants.
	AllowEventReuseInProd bool `yaml:"allow_event_reuse_in_prod,omitempty" json:"allow_event_reuse_in_prod,omitempty"`
}

// PrefilterEnabled reports the pre-filter toggle, defaulting to on.
func (s *TenantSettings) PrefilterEnabled() bool {
	return s.PrefilterOn == nil || *s.PrefilterOn
}

// Mode returns the detection mode, defaulting to unified.
func (s *TenantSettings) Mode() DetectionMode {
	if s.DetectionMode == DetectionLegacy {
		return DetectionLegacy
	}
	return DetectionUnified
}

// QueueConfig controls background maintenance loops.
type QueueConfig struct {
	TaskRetention           time.Duration `yaml:"task_retention" json:"task_retention"`
	CleanupInterval         time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout" json:"graceful_shutdown_timeout"`
}

// LLMConfig configures the LLM gateway.
type LLMConfig struct {
	DefaultProvider string        `yaml:"default_provider" json:"default_provider"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	MaxRetries      int           `yaml:"max_retries" json:"max_retries"`
}

// SnapshotConfig configures the info-page snapshot store.
type SnapshotConfig struct {
	TTL time.Duration `yaml:"ttl" json:"ttl"`
	// SummaryThreshold is the chat-body length above which the reply carries
	// a short summary plus a snapshot link.
	SummaryThreshold int `yaml:"summary_threshold" json:"summary_threshold"`
}
