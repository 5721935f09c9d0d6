package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venueflow/venueflow/pkg/dateparse"
)

// 2026-03-10 is a Tuesday.
var testClock = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestProposeDates(t *testing.T) {
	t.Run("weekday in message", func(t *testing.T) {
		dates := proposeDates(testClock, "a friday evening would be ideal", "")
		require.Len(t, dates, maxDateProposals)
		assert.Equal(t, "2026-03-13", dates[0])
		for _, d := range dates {
			parsed, err := dateparse.ParseISO(d)
			require.NoError(t, err)
			assert.Equal(t, time.Friday, parsed.Weekday())
		}
	})

	t.Run("stored weekday preference", func(t *testing.T) {
		dates := proposeDates(testClock, "any time works", "saturday")
		require.NotEmpty(t, dates)
		parsed, err := dateparse.ParseISO(dates[0])
		require.NoError(t, err)
		assert.Equal(t, time.Saturday, parsed.Weekday())
	})

	t.Run("no signal starts tomorrow", func(t *testing.T) {
		dates := proposeDates(testClock, "whenever", "")
		require.Len(t, dates, maxDateProposals)
		assert.Equal(t, "2026-03-11", dates[0])
		assert.Equal(t, "2026-03-15", dates[4])
	})
}

func TestAlternativesFor(t *testing.T) {
	// 2026-02-06 was a Friday; alternatives stay on Fridays in the future.
	alts := alternativesFor(testClock, "2026-02-06")
	require.Len(t, alts, 3)
	assert.Equal(t, "2026-03-13", alts[0])
	assert.Equal(t, "2026-03-20", alts[1])
	assert.Equal(t, "2026-03-27", alts[2])

	// Unparseable input still produces suggestions.
	assert.Len(t, alternativesFor(testClock, "garbage"), 3)
}

func TestSiteVisitDates(t *testing.T) {
	t.Run("strictly before the event", func(t *testing.T) {
		dates := siteVisitDates(testClock, "2026-03-18", nil)
		require.NotEmpty(t, dates)
		for _, d := range dates {
			assert.Less(t, d, "2026-03-18")
		}
		assert.Equal(t, "2026-03-12", dates[0], "proposals start two days out")
	})

	t.Run("restricted weekdays", func(t *testing.T) {
		dates := siteVisitDates(testClock, "2026-04-30", []string{"monday", "wednesday"})
		require.NotEmpty(t, dates)
		for _, d := range dates {
			parsed, err := dateparse.ParseISO(d)
			require.NoError(t, err)
			assert.Contains(t, []time.Weekday{time.Monday, time.Wednesday}, parsed.Weekday())
		}
	})

	t.Run("event too soon leaves nothing", func(t *testing.T) {
		assert.Empty(t, siteVisitDates(testClock, "2026-03-11", nil))
	})

	t.Run("bad event date", func(t *testing.T) {
		assert.Nil(t, siteVisitDates(testClock, "not-a-date", nil))
	})
}
