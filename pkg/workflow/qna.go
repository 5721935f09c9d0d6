package workflow

import (
	"fmt"
	"strings"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/models"
)

// answerQuestions builds a deterministic answer block for the Q&A types the
// detector tagged on this turn. Answers come from the tenant catalog and
// FAQ only; unanswerable topics get an honest deferral instead of a guess.
func answerQuestions(settings *config.TenantSettings, cat *catalog.Catalog, event *models.Event, types []models.QAType) string {
	var parts []string
	seen := map[models.QAType]bool{}
	for _, t := range types {
		if seen[t] {
			continue
		}
		seen[t] = true
		if a := answerOne(settings, cat, event, t); a != "" {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, "\n\n")
}

func answerOne(settings *config.TenantSettings, cat *catalog.Catalog, event *models.Event, t models.QAType) string {
	switch t {
	case models.QACatering:
		return answerCatering(cat, event)
	case models.QARooms:
		return answerRooms(cat)
	case models.QAPricing:
		return answerPricing(cat)
	case models.QAParking, models.QAAccessibility, models.QAGeneral:
		if a := faqAnswer(settings, t); a != "" {
			return a
		}
		return "I will check that with our team and get back to you with the details."
	default:
		return ""
	}
}

func answerCatering(cat *catalog.Catalog, event *models.Event) string {
	options := cat.CateringFor(event.ChosenDate, event.LockedRoomID)
	if len(options) == 0 {
		return "For catering on your date I will need to confirm options with our kitchen team; I will follow up shortly."
	}
	var b strings.Builder
	b.WriteString("Catering options for your event:\n")
	for _, p := range options {
		fmt.Fprintf(&b, "- %s: %.2f EUR %s\n", p.Name, p.UnitPrice, p.Unit)
	}
	return strings.TrimRight(b.String(), "\n")
}

func answerRooms(cat *catalog.Catalog) string {
	if len(cat.Rooms) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Our rooms:\n")
	for _, r := range cat.Rooms {
		fmt.Fprintf(&b, "- %s (up to %d guests)\n", r.Name, r.CapacityMax)
	}
	return strings.TrimRight(b.String(), "\n")
}

func answerPricing(cat *catalog.Catalog) string {
	if len(cat.Rooms) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Room rates:\n")
	for _, r := range cat.Rooms {
		fmt.Fprintf(&b, "- %s: %.2f EUR per event\n", r.Name, r.UnitPrice)
	}
	return strings.TrimRight(b.String(), "\n")
}

func faqAnswer(settings *config.TenantSettings, t models.QAType) string {
	keywords := map[models.QAType][]string{
		models.QAParking:       {"parking", "park"},
		models.QAAccessibility: {"accessib", "wheelchair", "barrier"},
	}[t]
	if t == models.QAGeneral {
		return ""
	}
	for _, entry := range settings.FAQ {
		if strings.EqualFold(entry.Topic, string(t)) {
			return entry.Answer
		}
		q := strings.ToLower(entry.Question)
		for _, kw := range keywords {
			if strings.Contains(q, kw) {
				return entry.Answer
			}
		}
	}
	return ""
}
