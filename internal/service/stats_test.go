package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreakDays(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	now := time.Date(2026, 5, 20, 21, 30, 0, 0, loc)
	day := func(offset int, hour int) time.Time {
		return time.Date(2026, 5, 20+offset, hour, 0, 0, 0, loc)
	}

	cases := []struct {
		name  string
		times []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"today yesterday and day before", []time.Time{day(0, 8), day(-1, 23), day(-2, 1)}, 3},
		{"today missing keeps yesterday's run", []time.Time{day(-1, 9), day(-2, 9)}, 2},
		{"gap after yesterday", []time.Time{day(-1, 9), day(-3, 9)}, 1},
		{"only older entries", []time.Time{day(-2, 9), day(-3, 9)}, 0},
		{"several entries on one day count once", []time.Time{day(0, 1), day(0, 2), day(0, 3)}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StreakDays(tc.times, now))
		})
	}
}

func TestStreakUsesCallerTimezone(t *testing.T) {
	// 02:00 UTC on the 21st is still the 20th in PST.
	loc := time.FixedZone("PST", -8*3600)
	now := time.Date(2026, 5, 20, 22, 0, 0, 0, loc)
	entry := time.Date(2026, 5, 21, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, StreakDays([]time.Time{entry}, now))
}

func TestCountSince(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	times := []time.Time{now, now.Add(-6 * 24 * time.Hour), now.Add(-8 * 24 * time.Hour)}
	assert.Equal(t, 2, countSince(times, weekAgo(now)))
}
