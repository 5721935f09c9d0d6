// Package compose turns structured workflow output into client-facing text.
// The empathetic mode is a safety sandwich: the LLM rewrites only the intro,
// the structured body is emitted verbatim, and the result is verified
// against the hard-facts bundle before it can leave the system.
package compose

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/llm"
	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/snapshot"
)

// Verbalizer rewrites intros in the tenant's tone and verifies the result.
type Verbalizer struct {
	gateway   *llm.Gateway
	snapshots *snapshot.Store
	cfg       *config.SnapshotConfig
}

// NewVerbalizer creates a verbalizer.
func NewVerbalizer(gateway *llm.Gateway, snapshots *snapshot.Store, cfg *config.SnapshotConfig) *Verbalizer {
	if gateway == nil {
		panic("NewVerbalizer: gateway must not be nil")
	}
	if snapshots == nil {
		panic("NewVerbalizer: snapshots must not be nil")
	}
	return &Verbalizer{gateway: gateway, snapshots: snapshots, cfg: cfg}
}

// Plain joins intro and structured body without any LLM involvement. Used
// for offers' structured bodies, gate reminders, security refusals, and
// deposit reminders.
func Plain(intro, structured string) string {
	return joinParts(intro, structured)
}

// Verbalize rewrites only the intro in the tenant's tone, keeps the
// structured part verbatim, and verifies hard facts. On verification
// failure it attempts surgical unit patching, then falls back to the
// deterministic template. The returned FallbackContext is nil on the happy
// path.
func (v *Verbalizer) Verbalize(ctx context.Context, settings *config.TenantSettings, tonePrompt, intro, structured string, facts Facts) (string, *models.FallbackContext) {
	prompt := buildVerbalizePrompt(settings, tonePrompt, intro)
	rewritten, err := v.gateway.Complete(ctx, settings.LLMProvider, llm.OpVerbalize, prompt)
	if err != nil {
		return Plain(intro, structured), &models.FallbackContext{
			Source:        "verbalizer",
			Trigger:       "llm_failure",
			OriginalError: err.Error(),
		}
	}

	candidate := joinParts(strings.TrimSpace(rewritten), structured)
	res := Verify(candidate, facts)
	if res.OK() {
		return candidate, nil
	}

	if patched, changed := PatchUnits(candidate, facts); changed {
		if res2 := Verify(patched, facts); res2.OK() {
			return patched, nil
		}
	}

	slog.Warn("Verbalizer output drifted from hard facts, using template",
		"missing", res.Missing, "invented", res.Invented, "unit_swapped", res.UnitSwapped)
	return Plain(intro, structured), &models.FallbackContext{
		Source:           "verbalizer",
		Trigger:          "fact_verification_failed",
		FailedConditions: append(res.Missing, res.Invented...),
		Context:          res.Error(),
	}
}

// AppendFooter appends the info-page link. Content above the summary
// threshold is snapshotted: the chat body keeps a short summary plus the
// snapshot link so the full view survives workflow progress.
func (v *Verbalizer) AppendFooter(tenantID string, settings *config.TenantSettings, kind, body string) string {
	page := settings.Venue.InfoPage
	if body == "" {
		return body
	}
	if v.cfg != nil && len(body) > v.cfg.SummaryThreshold {
		id := v.snapshots.Put(tenantID, kind, body)
		summary := summarize(body)
		link := fmt.Sprintf("%s?snapshot_id=%s", page, id)
		if page == "" {
			link = fmt.Sprintf("/info?snapshot_id=%s", id)
		}
		return fmt.Sprintf("%s\n\nFull details: %s", summary, link)
	}
	if page != "" {
		return fmt.Sprintf("%s\n\nMore information: %s?live=1", body, page)
	}
	return body
}

func summarize(body string) string {
	lines := strings.Split(body, "\n")
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		kept = append(kept, l)
		if len(kept) == 3 {
			break
		}
	}
	return strings.Join(kept, "\n")
}

func joinParts(intro, structured string) string {
	intro = strings.TrimSpace(intro)
	structured = strings.TrimSpace(structured)
	switch {
	case intro == "":
		return structured
	case structured == "":
		return intro
	}
	return intro + "\n\n" + structured
}

// buildVerbalizePrompt asks for a tone rewrite of the intro only. Manager
// prompt overrides adjust tone, never facts.
func buildVerbalizePrompt(settings *config.TenantSettings, tonePrompt, intro string) string {
	tone := settings.Venue.Tone
	if tonePrompt != "" {
		tone = tonePrompt
	}
	var b strings.Builder
	b.WriteString("Rewrite the text below as the intro of a venue booking reply.\n")
	fmt.Fprintf(&b, "Tone: %s.\n", tone)
	b.WriteString("Keep every date, price, room name, and product name exactly as written. Do not add facts.\n\n")
	fmt.Fprintf(&b, "TEXT:\n%s\n%s\n%s\n", llm.PromptBodyOpen, intro, llm.PromptBodyClose)
	return b.String()
}
