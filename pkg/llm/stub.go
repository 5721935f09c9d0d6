package llm

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/venueflow/venueflow/pkg/dateparse"
)

// PromptBodyOpen and PromptBodyClose delimit the client message (or the
// text to rewrite) inside every prompt the pipeline builds. The stub
// provider depends on them; real providers just see clean delimiters.
const (
	PromptBodyOpen  = "<<<"
	PromptBodyClose = ">>>"
)

// ExtractPromptBody returns the last delimited block of a prompt.
func ExtractPromptBody(prompt string) string {
	open := strings.LastIndex(prompt, PromptBodyOpen)
	if open < 0 {
		return prompt
	}
	rest := prompt[open+len(PromptBodyOpen):]
	if close := strings.Index(rest, PromptBodyClose); close >= 0 {
		rest = rest[:close]
	}
	return strings.TrimSpace(rest)
}

// extractPromptDate pulls the CURRENT DATE line the detection prompt carries
// for relative date resolution.
func extractPromptDate(prompt string) time.Time {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, "CURRENT DATE:"); ok {
			if t, err := time.Parse(dateparse.ISO, strings.TrimSpace(rest)); err == nil {
				return t
			}
		}
	}
	return time.Now()
}

// StubProvider is the deterministic development provider: pure heuristics,
// no network. It keeps the full pipeline runnable offline and is the
// fixture the end-to-end scenarios run against.
type StubProvider struct{}

var _ Provider = (*StubProvider)(nil)

// NewStubProvider returns the heuristic provider.
func NewStubProvider() *StubProvider { return &StubProvider{} }

// Complete echoes the delimited text unchanged. For verbalization this
// preserves every hard fact, so verification always passes in dev.
func (s *StubProvider) Complete(_ context.Context, prompt string) (string, error) {
	return ExtractPromptBody(prompt), nil
}

var (
	stubAcceptRe    = regexp.MustCompile(`(?i)\b(accept|sounds good|looks (great|good|perfect)|perfect|we('| wi)ll take|go ahead|that works|deal)\b`)
	stubRejectRe    = regexp.MustCompile(`(?i)\b(decline|reject|not interested|cancel the (offer|booking)|no longer need)\b`)
	stubConfirmRe   = regexp.MustCompile(`(?i)\b(confirm|confirmed|i confirm)\b`)
	stubChangeRe    = regexp.MustCompile(`(?i)\b(change|switch|reschedule|instead|move (it|the)|actually|ändern|stattdessen|verschieben)\b`)
	stubManagerRe   = regexp.MustCompile(`(?i)\b(speak|talk) (to|with) (a |the )?(manager|human|person)\b`)
	stubInjectionRe = regexp.MustCompile(`(?i)(ignore (all |the )?(previous|prior|above) instructions|system prompt|you are now|disregard your)`)
	stubPeopleRe    = regexp.MustCompile(`(?i)\b(\d{1,4})\s*(people|persons?|participants?|guests?|pax|attendees)\b`)
	stubRoomRe      = regexp.MustCompile(`(?i)\b(?:room|raum|saal)\s+([A-Za-z0-9][\w-]*)`)
	stubEmailRe     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	stubPhoneRe     = regexp.MustCompile(`\+?\d[\d\s/-]{6,}\d`)
	stubNameRe      = regexp.MustCompile(`(?i)\bmy name is\s+([A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+)?)`)
	stubGermanRe    = regexp.MustCompile(`(?i)\b(und|nicht|bitte|danke|termin|buchung)\b|[äöüß]`)
	stubSiteVisitRe = regexp.MustCompile(`(?i)\b(site visit|viewing|tour|visit the venue|besichtigung)\b`)
	stubEventTypeRe = regexp.MustCompile(`(?i)\b(workshop|conference|wedding|birthday|seminar|meeting|party|reception|offsite)\b`)
)

// Structured classifies the delimited client message with regex heuristics
// and returns a unified detection object.
func (s *StubProvider) Structured(_ context.Context, prompt string) (json.RawMessage, error) {
	body := ExtractPromptBody(prompt)
	now := extractPromptDate(prompt)

	obj := map[string]any{
		"language":   "en",
		"intent":     "other",
		"confidence": 0.85,
	}
	if stubGermanRe.MatchString(body) {
		obj["language"] = "de"
	}

	entities := map[string]any{}
	if d := dateparse.ExtractDate(body, now); d != "" {
		if stubSiteVisitRe.MatchString(body) {
			entities["site_visit_date"] = d
		} else {
			entities["date"] = d
		}
	}
	if t := dateparse.ExtractTime(body); t != "" {
		if stubSiteVisitRe.MatchString(body) {
			entities["site_visit_time"] = t
		} else {
			entities["start_time"] = t
		}
	}
	if m := stubPeopleRe.FindStringSubmatch(body); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			entities["participants"] = n
		}
	}
	if m := stubRoomRe.FindStringSubmatch(body); m != nil {
		entities["room_preference"] = "Room " + strings.ToUpper(m[1][:1]) + m[1][1:]
	}
	if m := stubEmailRe.FindString(body); m != "" {
		entities["contact_email"] = m
	}
	if m := stubPhoneRe.FindString(body); m != "" {
		entities["contact_phone"] = strings.TrimSpace(m)
	}
	if m := stubNameRe.FindStringSubmatch(body); m != nil {
		entities["contact_name"] = m[1]
	}
	if m := stubEventTypeRe.FindString(body); m != "" {
		entities["event_type"] = strings.ToLower(m)
	}
	obj["entities"] = entities

	hasQuestion := strings.Contains(body, "?")
	switch {
	case stubInjectionRe.MatchString(body):
		obj["has_injection_attempt"] = true
		obj["intent"] = "other"
	case stubManagerRe.MatchString(body):
		obj["is_manager_request"] = true
		obj["intent"] = "manager_request"
	case stubAcceptRe.MatchString(body):
		obj["is_acceptance"] = true
		obj["intent"] = "acceptance"
		if hasQuestion {
			obj["is_question"] = true
			obj["qna_types"] = questionTopics(body)
		}
	case stubRejectRe.MatchString(body):
		obj["is_rejection"] = true
		obj["intent"] = "rejection"
	case stubChangeRe.MatchString(body):
		obj["is_change_request"] = true
		obj["intent"] = "change_request"
	case stubConfirmRe.MatchString(body):
		obj["is_confirmation"] = true
		obj["intent"] = "confirmation"
	case hasQuestion && len(entities) == 0:
		obj["is_question"] = true
		obj["intent"] = "question"
		obj["qna_types"] = questionTopics(body)
	case len(entities) > 0:
		obj["intent"] = "event_request"
		if hasQuestion {
			obj["is_question"] = true
			obj["qna_types"] = questionTopics(body)
		}
	default:
		obj["intent"] = "other"
		obj["confidence"] = 0.4
	}

	return json.Marshal(obj)
}

func questionTopics(body string) []string {
	lower := strings.ToLower(body)
	var topics []string
	for topic, words := range map[string][]string{
		"catering":      {"catering", "food", "menu", "drinks", "beverage"},
		"rooms":         {"room", "space", "hall", "capacity"},
		"pricing":       {"price", "cost", "how much", "rate"},
		"parking":       {"parking", "park"},
		"accessibility": {"wheelchair", "accessible", "accessibility"},
	} {
		for _, w := range words {
			if strings.Contains(lower, w) {
				topics = append(topics, topic)
				break
			}
		}
	}
	if len(topics) == 0 {
		topics = []string{"general"}
	}
	return topics
}
