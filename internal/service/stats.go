package service

import (
	"time"

	"guardian/internal/catalog"
)

const maxStreakDays = 365

// StreakDays counts consecutive calendar days, walking back from now, that
// have at least one timestamp. A day with nothing stops the walk, except
// today itself: an empty today leaves an existing streak intact.
func StreakDays(times []time.Time, now time.Time) int {
	loc := now.Location()
	days := make(map[string]bool, len(times))
	for _, t := range times {
		days[t.In(loc).Format(time.DateOnly)] = true
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)

	streak := 0
	for i := 0; i < maxStreakDays; i++ {
		day := today.AddDate(0, 0, -i)
		if days[day.Format(time.DateOnly)] {
			streak++
		} else if i > 0 {
			break
		}
	}
	return streak
}

// weekAgo is the lower bound of "this week" counters: the last 7×24 hours.
func weekAgo(now time.Time) time.Time { return now.Add(-7 * 24 * time.Hour) }

func countSince(times []time.Time, since time.Time) int {
	n := 0
	for _, t := range times {
		if !t.Before(since) {
			n++
		}
	}
	return n
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round1(v float64) float64 { return catalog.Round(v, 1) }
func round2(v float64) float64 { return catalog.Round(v, 2) }

func inRange(v, lo, hi int) bool { return v >= lo && v <= hi }
