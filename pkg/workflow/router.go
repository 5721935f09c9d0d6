package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/compose"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/dateparse"
	"github.com/venueflow/venueflow/pkg/detect"
	"github.com/venueflow/venueflow/pkg/hil"
	"github.com/venueflow/venueflow/pkg/models"
	"github.com/venueflow/venueflow/pkg/store"
)

// maxRouteHops bounds the per-turn dispatch loop; a shortcut turn touches
// at most four steps, so eight leaves comfortable slack.
const maxRouteHops = 8

// cacheTTL is the catalog/settings/prompts read cache lifetime.
const cacheTTL = 30 * time.Second

// Router owns one inbound message end to end: event resolution, the
// pre-route pipeline, step dispatch, and the end-of-turn persist, all
// under the event lock.
type Router struct {
	store      store.TenantStore
	locks      *store.LockRegistry
	detector   *detect.Detector
	verbalizer *compose.Verbalizer
	queue      *hil.Queue
	calendar   Calendar
	mailer     Mailer
	cfg        *config.Config

	settingsCache *config.TTLCache[*config.TenantSettings]
	catalogCache  *config.TTLCache[*catalog.Catalog]
	promptsCache  *config.TTLCache[map[string]*config.PromptOverride]

	// nowFn is replaceable in tests for deterministic dates.
	nowFn func() time.Time
}

// TurnResult is what one processed inbound message returns to the API.
type TurnResult struct {
	ThreadID string         `json:"thread_id"`
	EventID  string         `json:"event_id"`
	Response string         `json:"response"`
	Drafts   []models.Draft `json:"drafts,omitempty"`

	Event          *models.Event       `json:"event_info,omitempty"`
	DepositInfo    *models.DepositInfo `json:"deposit_info,omitempty"`
	Progress       *Progress           `json:"progress,omitempty"`
	PendingActions []string            `json:"pending_actions,omitempty"`
}

// NewRouter wires the orchestrator. All collaborators are required except
// the mailer, which defaults to the dev log mailer.
func NewRouter(st store.TenantStore, locks *store.LockRegistry, detector *detect.Detector,
	verbalizer *compose.Verbalizer, queue *hil.Queue, cal Calendar, mailer Mailer, cfg *config.Config) *Router {
	if st == nil {
		panic("NewRouter: store must not be nil")
	}
	if locks == nil {
		panic("NewRouter: locks must not be nil")
	}
	if detector == nil {
		panic("NewRouter: detector must not be nil")
	}
	if verbalizer == nil {
		panic("NewRouter: verbalizer must not be nil")
	}
	if queue == nil {
		panic("NewRouter: queue must not be nil")
	}
	if cal == nil {
		panic("NewRouter: calendar must not be nil")
	}
	if cfg == nil {
		panic("NewRouter: config must not be nil")
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &Router{
		store:         st,
		locks:         locks,
		detector:      detector,
		verbalizer:    verbalizer,
		queue:         queue,
		calendar:      cal,
		mailer:        mailer,
		cfg:           cfg,
		settingsCache: config.NewTTLCache[*config.TenantSettings](cacheTTL),
		catalogCache:  config.NewTTLCache[*catalog.Catalog](cacheTTL),
		promptsCache:  config.NewTTLCache[map[string]*config.PromptOverride](cacheTTL),
		nowFn:         time.Now,
	}
}

// SetClock replaces the router's time source. Test use only.
func (r *Router) SetClock(now func() time.Time) { r.nowFn = now }

// InvalidateCatalog drops the tenant's catalog cache entry after a write.
func (r *Router) InvalidateCatalog(tenantID string) { r.catalogCache.Invalidate(tenantID) }

// InvalidateSettings drops the tenant's settings and prompts cache entries.
func (r *Router) InvalidateSettings(tenantID string) {
	r.settingsCache.Invalidate(tenantID)
	r.promptsCache.Invalidate(tenantID)
}

// HandleMessage processes one inbound message through the full pipeline.
// All turns for the same event serialize behind the event lock.
func (r *Router) HandleMessage(ctx context.Context, msg *models.InboundMessage) (*TurnResult, error) {
	if msg == nil || msg.TenantID == "" || msg.ClientID == "" || msg.ThreadID == "" {
		return nil, newValidationError("tenant_id, client_id, and thread_id are required")
	}

	client, err := r.resolveClient(ctx, msg)
	if err != nil {
		return nil, err
	}

	event, created, err := r.resolveEvent(ctx, msg, client)
	if err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(msg.TenantID, event.EventID)
	defer unlock()

	// Re-read under the lock unless we just created it; a racing turn may
	// have advanced the event between resolution and lock acquisition.
	if !created {
		if fresh, err := r.store.GetEvent(ctx, msg.TenantID, event.EventID); err == nil {
			event = fresh
		}
	}

	if event.Status == models.StatusCancelled {
		return &TurnResult{
			ThreadID: msg.ThreadID,
			EventID:  event.EventID,
			Response: "This inquiry was cancelled. If you'd like to start over, just tell me about your new event.",
		}, nil
	}

	tc := &turnContext{
		ctx:    ctx,
		now:    r.nowFn(),
		event:  event,
		client: client,
		msg:    msg,
	}
	if event.ExcludedRoomID != "" {
		tc.excludeRoom = event.ExcludedRoomID
		event.ExcludedRoomID = ""
	}
	if tc.settings, err = r.loadSettings(ctx, msg.TenantID); err != nil {
		return nil, err
	}
	if tc.catalog, err = r.loadCatalog(ctx, msg.TenantID); err != nil {
		return nil, err
	}
	tc.prompts = r.loadPrompts(ctx, msg.TenantID)

	if r.preroute(tc) == proceedDispatch {
		r.dispatch(tc)
	}

	// Empty-reply safety net: no turn ever produces an empty response,
	// except a deliberate silent ignore.
	if !tc.hasReply() {
		tc.addDrafts(models.Draft{
			Body: fallbackReply(event.CurrentStep),
			Fallback: &models.FallbackContext{
				Source:  "router",
				Trigger: "empty_reply",
				Context: fmt.Sprintf("step %d produced no drafts", event.CurrentStep),
			},
		})
	}

	return r.finishTurn(tc)
}

// dispatch runs the step loop: handlers keep running while they advance,
// each turn ends on the first halting result.
func (r *Router) dispatch(tc *turnContext) {
	for hops := 0; hops < maxRouteHops; hops++ {
		step := tc.event.CurrentStep
		res := r.handlerFor(step)(tc)
		tc.addDrafts(res.Drafts...)
		if res.Halt || tc.event.CurrentStep == step {
			return
		}
	}
	slog.Warn("Routing loop exceeded hop budget",
		"tenant_id", tc.event.TenantID, "event_id", tc.event.EventID,
		"step", tc.event.CurrentStep)
}

// finishTurn persists the turn's writes once and routes each draft: direct
// send, or the HIL queue when approval is required or the tenant gates all
// AI replies.
func (r *Router) finishTurn(tc *turnContext) (*TurnResult, error) {
	event, msg := tc.event, tc.msg

	if !tc.skipPersist {
		if !msg.Extras.DepositJustPaid {
			event.LastInboundBody = msg.Body
		}
		event.UpdatedAt = time.Now().UTC()
		if err := r.store.PutEvent(tc.ctx, event); err != nil {
			return nil, fmt.Errorf("failed to persist event: %w", err)
		}
		tc.client.UpdatedAt = time.Now().UTC()
		if err := r.store.PutClient(tc.ctx, tc.client); err != nil {
			return nil, fmt.Errorf("failed to persist client: %w", err)
		}
	}

	result := &TurnResult{
		ThreadID: msg.ThreadID,
		EventID:  event.EventID,
		Drafts:   tc.drafts,
		Event:    event,
	}
	if event.Deposit.Required {
		d := event.Deposit
		result.DepositInfo = &d
	}
	p := ProgressFor(event)
	result.Progress = &p

	var direct []string
	for _, draft := range tc.drafts {
		if draft.Silent || draft.Body == "" {
			continue
		}
		switch {
		case draft.RequiresApproval && !tc.forceDirect:
			task, _, err := r.queue.Enqueue(tc.ctx, event.TenantID, event.EventID,
				event.ThreadID, draft.Category, draft, "")
			if err != nil {
				slog.Error("Failed to enqueue HIL task", "error", err)
				continue
			}
			result.PendingActions = append(result.PendingActions, task.TaskID)
		case tc.settings.HILAllReplies && !tc.forceDirect:
			task, _, err := r.queue.Enqueue(tc.ctx, event.TenantID, event.EventID,
				event.ThreadID, models.TaskAIReplyApproval, draft, "")
			if err != nil {
				slog.Error("Failed to enqueue AI reply approval", "error", err)
				continue
			}
			result.PendingActions = append(result.PendingActions, task.TaskID)
		default:
			direct = append(direct, draft.Body)
		}
	}

	switch {
	case len(direct) > 0:
		result.Response = strings.Join(direct, "\n\n")
		r.deliver(tc, result.Response)
	case len(result.PendingActions) > 0:
		result.Response = "Thank you! Our team is preparing your reply and will be in touch shortly."
	}
	return result, nil
}

// deliver hands the reply to the mailer; failures degrade to a log line
// because the reply is also returned synchronously.
func (r *Router) deliver(tc *turnContext, body string) {
	subject := "Your event inquiry"
	if tc.msg.Subject != "" {
		subject = "Re: " + tc.msg.Subject
	}
	if err := r.mailer.Send(tc.ctx, tc.client.Email, subject, body, ""); err != nil {
		slog.Warn("Outbound mail failed",
			"tenant_id", tc.event.TenantID, "to", tc.client.Email, "error", err)
	}
}

// resolveClient loads the client or creates it on first contact.
func (r *Router) resolveClient(ctx context.Context, msg *models.InboundMessage) (*models.Client, error) {
	client, err := r.store.GetClient(ctx, msg.TenantID, msg.ClientID)
	if err == nil {
		return client, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	client = &models.Client{
		TenantID:  msg.TenantID,
		Email:     msg.ClientID,
		Status:    models.StatusLead,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.PutClient(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

var revisionHintRe = regexp.MustCompile(`(?i)\b(change|switch|reschedule|instead|actually|move|ändern|stattdessen|verschieben)\b`)

// resolveEvent binds the message to an event: explicit id first, then the
// thread's event, then the client's latest event subject to the
// continue-vs-new rules, else a fresh one.
func (r *Router) resolveEvent(ctx context.Context, msg *models.InboundMessage, client *models.Client) (*models.Event, bool, error) {
	if id := msg.Extras.EventID; id != "" {
		event, err := r.store.GetEvent(ctx, msg.TenantID, id)
		if err != nil {
			return nil, false, err
		}
		return event, false, nil
	}

	if event, err := r.store.FindEventByThread(ctx, msg.TenantID, msg.ThreadID); err == nil {
		return event, false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	if latest, err := r.store.LatestEventForClient(ctx, msg.TenantID, msg.ClientID); err == nil {
		if r.reuseLatest(ctx, latest, msg) {
			return latest, false, nil
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	event := &models.Event{
		EventID:     uuid.New().String(),
		TenantID:    msg.TenantID,
		ClientID:    client.Email,
		ThreadID:    msg.ThreadID,
		CurrentStep: models.StepIntake,
		Status:      models.StatusLead,
		CreatedAt:   time.Now().UTC(),
	}
	return event, true, nil
}

// reuseLatest applies the continue-vs-new rules to the client's most
// recent event when a new thread arrives. Terminal or confirmed events,
// events mid site-visit scheduling, and messages naming a genuinely
// different date all start a new inquiry. Outside the dev continue choice,
// cross-thread reuse requires the tenant's allow_event_reuse_in_prod
// toggle; by default every new thread is a fresh inquiry.
func (r *Router) reuseLatest(ctx context.Context, latest *models.Event, msg *models.InboundMessage) bool {
	if latest.Status.Terminal() || latest.Status == models.StatusConfirmed {
		return false
	}
	switch latest.SiteVisit.Status {
	case models.SiteVisitProposed, models.SiteVisitTimePending,
		models.SiteVisitConfirmPending, models.SiteVisitScheduled:
		return false
	}
	if msg.Extras.SkipDevChoice {
		return true
	}
	settings, err := r.loadSettings(ctx, msg.TenantID)
	if err != nil || !settings.AllowEventReuseInProd {
		return false
	}
	if d := dateparse.ExtractDate(msg.Body, r.nowFn()); d != "" &&
		latest.ChosenDate != "" && d != latest.ChosenDate &&
		!revisionHintRe.MatchString(msg.Body) {
		return false
	}
	return true
}

// loadSettings serves tenant settings through the read cache, falling back
// to the configured defaults for tenants without stored overrides.
func (r *Router) loadSettings(ctx context.Context, tenantID string) (*config.TenantSettings, error) {
	if s, ok := r.settingsCache.Get(tenantID); ok {
		return s, nil
	}
	s, err := r.store.GetSettings(ctx, tenantID)
	if errors.Is(err, store.ErrNotFound) {
		copied := *r.cfg.Defaults
		s, err = &copied, nil
	}
	if err != nil {
		return nil, err
	}
	r.settingsCache.Put(tenantID, s)
	return s, nil
}

func (r *Router) loadCatalog(ctx context.Context, tenantID string) (*catalog.Catalog, error) {
	if c, ok := r.catalogCache.Get(tenantID); ok {
		return c, nil
	}
	c, err := r.store.GetCatalog(ctx, tenantID)
	if errors.Is(err, store.ErrNotFound) {
		c, err = &catalog.Catalog{}, nil
	}
	if err != nil {
		return nil, err
	}
	r.catalogCache.Put(tenantID, c)
	return c, nil
}

func (r *Router) loadPrompts(ctx context.Context, tenantID string) map[string]*config.PromptOverride {
	if p, ok := r.promptsCache.Get(tenantID); ok {
		return p
	}
	p, err := r.store.GetPrompts(ctx, tenantID)
	if err != nil {
		return map[string]*config.PromptOverride{}
	}
	r.promptsCache.Put(tenantID, p)
	return p
}
