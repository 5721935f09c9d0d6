// Package detect converts one inbound message into the unified
// DetectionResult every downstream component consumes, with bounded cost:
// a free regex pre-filter, one LLM call, and a deterministic fallback.
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/dateparse"
	"github.com/venueflow/venueflow/pkg/llm"
	"github.com/venueflow/venueflow/pkg/models"
)

// Detector runs the detection pipeline for one tenant-configured mode.
type Detector struct {
	gateway *llm.Gateway
	now     func() time.Time
}

// NewDetector creates a detector backed by the LLM gateway.
func NewDetector(gateway *llm.Gateway) *Detector {
	if gateway == nil {
		panic("NewDetector: gateway must not be nil")
	}
	return &Detector{gateway: gateway, now: time.Now}
}

// Detect classifies one message. It never returns an error: LLM failures
// degrade to a heuristic result carrying a FallbackContext.
func (d *Detector) Detect(ctx context.Context, settings *config.TenantSettings, event *models.Event, msg *models.InboundMessage) *models.DetectionResult {
	now := d.now()

	var flags models.PrefilterFlags
	if settings.PrefilterEnabled() {
		flags = Prefilter(msg.Body, now)
		if flags.Gibberish {
			return &models.DetectionResult{
				Intent:     models.IntentNonsense,
				Confidence: 0.95,
				Prefilter:  flags,
			}
		}
	}

	var result *models.DetectionResult
	var err error
	switch settings.Mode() {
	case config.DetectionLegacy:
		result, err = d.detectLegacy(ctx, settings, event, msg, now)
	default:
		result, err = d.detectUnified(ctx, settings, event, msg, now)
	}
	if err != nil {
		slog.Warn("Detection failed, using heuristic fallback",
			"tenant_id", msg.TenantID, "thread_id", msg.ThreadID, "error", err)
		result = fallbackResult(flags, err)
	}

	mergeSignals(result, flags)
	normalizeEntities(&result.Entities, now)
	return result
}

func (d *Detector) detectUnified(ctx context.Context, settings *config.TenantSettings, event *models.Event, msg *models.InboundMessage, now time.Time) (*models.DetectionResult, error) {
	prompt := buildUnifiedPrompt(event, msg, now)
	raw, err := d.gateway.Structured(ctx, settings.LLMProvider, llm.OpUnified, prompt, unifiedSchema)
	if err != nil {
		return nil, err
	}
	var result models.DetectionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode detection result: %w", err)
	}
	return &result, nil
}

// detectLegacy is the fallback mode: separate intent and entity calls.
func (d *Detector) detectLegacy(ctx context.Context, settings *config.TenantSettings, event *models.Event, msg *models.InboundMessage, now time.Time) (*models.DetectionResult, error) {
	intentRaw, err := d.gateway.Structured(ctx, settings.LLMProvider, llm.OpIntent,
		buildIntentPrompt(msg, now), intentSchema)
	if err != nil {
		return nil, err
	}
	var result models.DetectionResult
	if err := json.Unmarshal(intentRaw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode intent result: %w", err)
	}

	entityRaw, err := d.gateway.Structured(ctx, settings.LLMProvider, llm.OpEntity,
		buildEntityPrompt(event, msg, now), entitySchema)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Entities models.Entities `json:"entities"`
	}
	if err := json.Unmarshal(entityRaw, &wrapper); err != nil {
		// The unified stub returns entities at the top level.
		if err2 := json.Unmarshal(entityRaw, &result); err2 != nil {
			return nil, fmt.Errorf("failed to decode entity result: %w", err)
		}
		return &result, nil
	}
	result.Entities = wrapper.Entities
	return &result, nil
}

// mergeSignals merges pre-filter flags into the LLM result. LLM-first: an
// action signal set by the LLM vetoes the pre-filter's question flag;
// pre-filter signals only fill gaps the LLM left blank.
func mergeSignals(result *models.DetectionResult, flags models.PrefilterFlags) {
	result.Prefilter = flags

	if flags.HasQuestionSignal && !result.HasActionSignal() && !result.IsQuestion {
		result.IsQuestion = true
	}
	if flags.HasConfirmWord && !result.HasActionSignal() && !result.IsConfirmation {
		result.IsConfirmation = true
	}
}

// normalizeEntities converts date entities to ISO in place.
func normalizeEntities(e *models.Entities, now time.Time) {
	if dateparse.Specified(e.Date) {
		e.Date = dateparse.Normalize(e.Date, now)
	} else {
		e.Date = ""
	}
	if dateparse.Specified(e.SiteVisitDate) {
		e.SiteVisitDate = dateparse.Normalize(e.SiteVisitDate, now)
	} else {
		e.SiteVisitDate = ""
	}
}

// fallbackResult is the deterministic degraded result used when the LLM is
// unreachable or keeps returning malformed JSON. Downstream handlers treat
// the low confidence as "needs HIL" when borderline.
func fallbackResult(flags models.PrefilterFlags, cause error) *models.DetectionResult {
	intent := models.IntentOther
	failed := []string{"llm_unavailable"}
	if flags.HasDate || flags.HasParticipants {
		intent = models.IntentEventRequest
		failed = append(failed, "prefilter_saw_booking_signal")
	}
	return &models.DetectionResult{
		Intent:     intent,
		IsQuestion: flags.HasQuestionSignal,
		Confidence: 0.5,
		Fallback: &models.FallbackContext{
			Source:           "detection",
			Trigger:          "llm_failure",
			FailedConditions: failed,
			OriginalError:    cause.Error(),
		},
	}
}

func buildUnifiedPrompt(event *models.Event, msg *models.InboundMessage, now time.Time) string {
	var b strings.Builder
	b.WriteString("You classify one client message in a venue booking conversation.\n")
	b.WriteString("Return a single JSON object with intent, boolean signals, entities, and confidence.\n")
	b.WriteString("Resolve relative dates against the current date.\n\n")
	fmt.Fprintf(&b, "CURRENT DATE: %s\n", now.Format(dateparse.ISO))
	writeProfile(&b, event)
	fmt.Fprintf(&b, "\nCLIENT MESSAGE:\n%s\n%s\n%s\n", llm.PromptBodyOpen, msg.Body, llm.PromptBodyClose)
	return b.String()
}

func buildIntentPrompt(msg *models.InboundMessage, now time.Time) string {
	var b strings.Builder
	b.WriteString("Classify the intent of this venue booking message as JSON {intent, confidence, signals...}.\n")
	fmt.Fprintf(&b, "CURRENT DATE: %s\n", now.Format(dateparse.ISO))
	fmt.Fprintf(&b, "\nCLIENT MESSAGE:\n%s\n%s\n%s\n", llm.PromptBodyOpen, msg.Body, llm.PromptBodyClose)
	return b.String()
}

func buildEntityPrompt(event *models.Event, msg *models.InboundMessage, now time.Time) string {
	var b strings.Builder
	b.WriteString("Extract booking entities (date, times, room, participants, contact fields) as JSON.\n")
	fmt.Fprintf(&b, "CURRENT DATE: %s\n", now.Format(dateparse.ISO))
	writeProfile(&b, event)
	fmt.Fprintf(&b, "\nCLIENT MESSAGE:\n%s\n%s\n%s\n", llm.PromptBodyOpen, msg.Body, llm.PromptBodyClose)
	return b.String()
}

// writeProfile adds the event's captured profile so the model can resolve
// references like "the same room".
func writeProfile(b *strings.Builder, event *models.Event) {
	if event == nil {
		return
	}
	b.WriteString("\nKNOWN PROFILE:\n")
	if event.ChosenDate != "" {
		fmt.Fprintf(b, "- event date: %s\n", event.ChosenDate)
	}
	if event.LockedRoomID != "" {
		fmt.Fprintf(b, "- locked room: %s\n", event.LockedRoomID)
	}
	if event.Profile.Participants > 0 {
		fmt.Fprintf(b, "- participants: %d\n", event.Profile.Participants)
	}
	if event.Profile.EventType != "" {
		fmt.Fprintf(b, "- event type: %s\n", event.Profile.EventType)
	}
	if event.SiteVisit.Status != "" && event.SiteVisit.Status != models.SiteVisitIdle {
		fmt.Fprintf(b, "- site visit: %s\n", event.SiteVisit.Status)
	}
}
