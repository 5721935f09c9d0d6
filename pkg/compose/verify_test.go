package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFacts(t *testing.T) {
	text := "Room Alpha on 2026-06-25: 500 EUR per event, Business Lunch 35 EUR per person."
	facts := ExtractFacts(text, []string{"Room Alpha"}, []string{"Business Lunch"})

	assert.Equal(t, []string{"2026-06-25"}, facts.Dates)
	assert.Contains(t, facts.Prices, "500 EUR")
	assert.Contains(t, facts.Prices, "35 EUR")
	assert.ElementsMatch(t, []string{"per event", "per person"}, facts.Units)
	assert.Equal(t, []string{"Room Alpha"}, facts.RoomNames)
	assert.Equal(t, []string{"Business Lunch"}, facts.ProductNames)
}

func TestVerify(t *testing.T) {
	facts := Facts{
		Dates:        []string{"2026-06-25"},
		Prices:       []string{"500 EUR"},
		Units:        []string{"per event"},
		RoomNames:    []string{"Room Alpha"},
		ProductNames: []string{"Business Lunch"},
	}

	t.Run("clean output passes", func(t *testing.T) {
		out := "We are happy to offer Room Alpha with Business Lunch on 2026-06-25 for 500 EUR per event."
		assert.True(t, Verify(out, facts).OK())
	})

	t.Run("missing fact", func(t *testing.T) {
		out := "We are happy to offer Room Alpha on 2026-06-25 for 500 EUR per event."
		res := Verify(out, facts)
		assert.False(t, res.OK())
		assert.Contains(t, res.Missing, "Business Lunch")
	})

	t.Run("invented date", func(t *testing.T) {
		out := "Room Alpha and Business Lunch on 2026-06-25, or maybe 2026-07-01, for 500 EUR per event."
		res := Verify(out, facts)
		assert.False(t, res.OK())
		assert.Contains(t, res.Invented, "2026-07-01")
	})

	t.Run("invented price", func(t *testing.T) {
		out := "Room Alpha, Business Lunch, 2026-06-25, 500 EUR per event, discounted from 800 EUR."
		res := Verify(out, facts)
		assert.False(t, res.OK())
		assert.Contains(t, res.Invented, "800 EUR")
	})

	t.Run("unit swap", func(t *testing.T) {
		out := "Room Alpha with Business Lunch on 2026-06-25 for 500 EUR per person."
		res := Verify(out, facts)
		assert.False(t, res.OK())
		assert.True(t, res.UnitSwapped)
	})

	t.Run("case insensitive fact match", func(t *testing.T) {
		out := "room alpha with business lunch on 2026-06-25 for 500 eur per event."
		res := Verify(out, facts)
		assert.Empty(t, res.Missing)
	})
}

func TestPatchUnits(t *testing.T) {
	t.Run("single unit gets repaired", func(t *testing.T) {
		facts := Facts{Units: []string{"per event"}}
		patched, changed := PatchUnits("The room costs 500 EUR per person.", facts)
		require.True(t, changed)
		assert.Contains(t, patched, "per event")
		assert.NotContains(t, patched, "per person")
	})

	t.Run("correct unit untouched", func(t *testing.T) {
		facts := Facts{Units: []string{"per event"}}
		_, changed := PatchUnits("The room costs 500 EUR per event.", facts)
		assert.False(t, changed)
	})

	t.Run("two units cannot be patched", func(t *testing.T) {
		facts := Facts{Units: []string{"per event", "per person"}}
		_, changed := PatchUnits("Some text per person.", facts)
		assert.False(t, changed)
	})
}
