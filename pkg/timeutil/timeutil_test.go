package timeutil

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOf_UsesLocation(t *testing.T) {
	berlin := time.FixedZone("CET", 60*60)
	// 23:30 UTC on Mar 1 is already Mar 2 in Berlin.
	instant := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, NewDate(2026, 3, 1), DateOf(instant))
	assert.Equal(t, NewDate(2026, 3, 2), DateOf(instant.In(berlin)))
}

func TestToday_FixedClock(t *testing.T) {
	loc := time.FixedZone("CET", 60*60)
	clock := NewFixedClock(time.Date(2026, 10, 14, 0, 30, 0, 0, loc))

	assert.Equal(t, "2026-10-14", Today(clock).String())
	clock.Advance(24 * time.Hour)
	assert.Equal(t, "2026-10-15", Today(clock).String())
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2024, 12, 31)

	assert.Equal(t, 366, d.DayOfYear())
	assert.Equal(t, NewDate(2025, 1, 1), d.AddDays(1))
	assert.Equal(t, 1, d.AddDays(1).DaysSince(d))
	assert.Equal(t, -3, d.AddDays(-3).DaysSince(d))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.Before(d))
}

func TestDate_JSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Day Date `json:"day"`
	}
	data, err := json.Marshal(wrapper{Day: NewDate(2026, 2, 3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2026-02-03"}`, string(data))

	var out wrapper
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, NewDate(2026, 2, 3), out.Day)
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("14.10.2026")
	assert.Error(t, err)
}

func TestLoadLocation_Fallback(t *testing.T) {
	loc := LoadLocation("Not/AZone")
	assert.Equal(t, "Not/AZone", loc.String())
}
