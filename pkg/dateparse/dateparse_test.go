package dateparse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ISO passes through", input: "2026-06-25", expected: "2026-06-25"},
		{name: "dotted day first", input: "25.06.2026", expected: "2026-06-25"},
		{name: "dotted single digits", input: "5.6.2026", expected: "2026-06-05"},
		{name: "month name with year", input: "June 25, 2026", expected: "2026-06-25"},
		{name: "day first with of", input: "25th of June 2026", expected: "2026-06-25"},
		{name: "ordinal suffix", input: "June 3rd, 2026", expected: "2026-06-03"},
		{name: "no year rolls forward", input: "June 25", expected: "2026-06-25"},
		{name: "no year already passed this year", input: "January 5", expected: "2027-01-05"},
		{name: "not specified placeholder", input: "Not specified", expected: ""},
		{name: "empty", input: "", expected: ""},
		{name: "garbage", input: "sometime soon", expected: ""},
		{name: "invalid calendar date", input: "February 30, 2026", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input, testNow))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize("25.06.2026", testNow)
	require.NotEmpty(t, once)
	assert.Equal(t, once, Normalize(once, testNow))
}

func TestExtractDate(t *testing.T) {
	got := ExtractDate("we would prefer June 25, 2026 if the hall is free", testNow)
	assert.Equal(t, "2026-06-25", got)

	assert.Equal(t, "", ExtractDate("no dates here", testNow))
	assert.True(t, ContainsDate("party on 2026-09-01", testNow))
	assert.False(t, ContainsDate("party soon", testNow))
}

func TestExtractTime(t *testing.T) {
	assert.Equal(t, "14:30", ExtractTime("let's say 14:30 works"))
	assert.Equal(t, "", ExtractTime("in the afternoon"))
}

func TestIsPast(t *testing.T) {
	assert.True(t, IsPast("2026-03-09", testNow))
	assert.False(t, IsPast("2026-03-10", testNow), "today is not past")
	assert.False(t, IsPast("2026-03-11", testNow))
	assert.False(t, IsPast("not-a-date", testNow))
}

func TestWeekday(t *testing.T) {
	wd, ok := Weekday("Friday")
	require.True(t, ok)
	assert.Equal(t, time.Friday, wd)

	wd, ok = Weekday("tue")
	require.True(t, ok)
	assert.Equal(t, time.Tuesday, wd)

	_, ok = Weekday("someday")
	assert.False(t, ok)
}

func TestNextOnWeekday(t *testing.T) {
	// testNow is a Tuesday; next Tuesday must be strictly after, not today.
	next := NextOnWeekday(testNow, time.Tuesday)
	assert.Equal(t, "2026-03-17", next.Format(ISO))

	fri := NextOnWeekday(testNow, time.Friday)
	assert.Equal(t, "2026-03-13", fri.Format(ISO))
}
