package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/venueflow/venueflow/pkg/catalog"
	"github.com/venueflow/venueflow/pkg/config"
	"github.com/venueflow/venueflow/pkg/models"
)

func TestAnswerQuestions(t *testing.T) {
	cat := routerFixtureCatalog()
	settings := &config.TenantSettings{
		FAQ: []config.FAQEntry{
			{Question: "Is parking available on site?", Answer: "Yes, 80 free spots in the underground garage."},
			{Topic: "accessibility", Answer: "All rooms are wheelchair accessible."},
		},
	}
	event := &models.Event{ChosenDate: "2030-06-25"}

	t.Run("catering lists available products", func(t *testing.T) {
		got := answerQuestions(settings, cat, event, []models.QAType{models.QACatering})
		assert.Contains(t, got, "Catering options for your event:")
		assert.Contains(t, got, "- Business Lunch: 35.00 EUR per person")
	})

	t.Run("rooms and pricing come from the catalog", func(t *testing.T) {
		got := answerQuestions(settings, cat, event, []models.QAType{models.QARooms, models.QAPricing})
		assert.Contains(t, got, "- Room Alpha (up to 50 guests)")
		assert.Contains(t, got, "- Room Beta: 900.00 EUR per event")
	})

	t.Run("faq answers by keyword and topic", func(t *testing.T) {
		got := answerQuestions(settings, cat, event, []models.QAType{models.QAParking})
		assert.Equal(t, "Yes, 80 free spots in the underground garage.", got)

		got = answerQuestions(settings, cat, event, []models.QAType{models.QAAccessibility})
		assert.Equal(t, "All rooms are wheelchair accessible.", got)
	})

	t.Run("unanswerable topics defer honestly", func(t *testing.T) {
		got := answerQuestions(&config.TenantSettings{}, cat, event, []models.QAType{models.QAParking})
		assert.Equal(t, "I will check that with our team and get back to you with the details.", got)
	})

	t.Run("repeated types answer once", func(t *testing.T) {
		got := answerQuestions(settings, cat, event, []models.QAType{models.QARooms, models.QARooms})
		assert.Equal(t, 1, strings.Count(got, "Our rooms:"))
	})

	t.Run("empty catalog yields nothing for rooms", func(t *testing.T) {
		got := answerQuestions(settings, &catalog.Catalog{}, event, []models.QAType{models.QARooms})
		assert.Empty(t, got)
	})
}
