// Package workflow is the conversation orchestrator: the pre-route
// pipeline, the seven step handlers, and the routing loop that moves one
// inbound message through them under the event lock.
package workflow

import (
	"context"
	"time"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/detour"
	"github.com/venueflow/venueflow/pkg/models"
)

// turnContext carries everything one turn needs. It lives for exactly one
// inbound message; nothing in it survives the turn except the event record,
// which the router persists once at end-of-turn.
type turnContext struct {
	ctx context.Context
	now time.Time

	settings *config.TenantSettings
	catalog  *catalog.Catalog
	prompts  map[string]*config.PromptOverride

	event  *models.Event
	client *models.Client
	msg    *models.InboundMessage

	detection *models.DetectionResult
	change    *detour.ChangeRequest
	guard     models.GuardSnapshot

	// prefix is prepended to the next emitted draft body, then cleared.
	// Used for intake greetings and cleared-room notices.
	prefix string

	// excludeRoom drops one room from evaluation for the rest of the turn
	// (conflict-loser redirection).
	excludeRoom string

	// qnaAnswered prevents the same turn from answering its questions twice
	// when multiple handlers run.
	qnaAnswered bool

	// skipPersist ends the turn without writing the event record
	// (duplicate gate, nonsense gate, injection refusal).
	skipPersist bool

	// forceDirect sends this turn's drafts directly even when the tenant
	// routes AI replies through HIL; set for deterministic gate replies.
	forceDirect bool

	drafts []models.Draft
}

// addDrafts applies the pending prefix to the first non-silent draft and
// collects them.
func (tc *turnContext) addDrafts(drafts ...models.Draft) {
	for _, d := range drafts {
		if tc.prefix != "" && !d.Silent && d.Body != "" {
			d.Body = tc.prefix + "\n\n" + d.Body
			if d.BodyMarkdown != "" {
				d.BodyMarkdown = tc.prefix + "\n\n" + d.BodyMarkdown
			}
			tc.prefix = ""
		}
		tc.drafts = append(tc.drafts, d)
	}
}

// hasReply reports whether any collected draft carries client-facing text
// or is a deliberate silent turn.
func (tc *turnContext) hasReply() bool {
	for _, d := range tc.drafts {
		if d.Silent || d.Body != "" {
			return true
		}
	}
	return false
}

// qnaSuffix returns the "---"-separated answer block for this turn's
// questions, or "" when there is nothing to answer.
func (tc *turnContext) qnaSuffix() string {
	if tc.qnaAnswered || tc.detection == nil || !tc.detection.IsQuestion || len(tc.detection.QATypes) == 0 {
		return ""
	}
	answers := answerQuestions(tc.settings, tc.catalog, tc.event, tc.detection.QATypes)
	if answers == "" {
		return ""
	}
	tc.qnaAnswered = true
	return answers
}

// withQnA appends the turn's Q&A answers to a workflow reply, separated by
// a horizontal rule: workflow first, answers second.
func (tc *turnContext) withQnA(body string) string {
	if suffix := tc.qnaSuffix(); suffix != "" {
		return body + "\n\n---\n\n" + suffix
	}
	return body
}
