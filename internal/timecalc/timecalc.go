package timecalc

import (
	"fmt"
	"time"
)

// FormatMinutes formats a minute count as separate hour and minute strings,
// e.g. 450 -> ("7h", "30m"). Zero components come back empty so callers can
// right-align them independently.
func FormatMinutes(minutes int) (string, string) {
	hours := minutes / 60
	minutes -= hours * 60
	h, m := "", ""
	if hours > 0 {
		h = fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 {
		m = fmt.Sprintf("%dm", minutes)
	}
	return h, m
}

// FormatDuration formats a minute count as a single human-readable string
// like "7h 30m" or "45m".
func FormatDuration(minutes int) string {
	h, m := FormatMinutes(minutes)
	switch {
	case h != "" && m != "":
		return h + " " + m
	case h != "":
		return h
	case m != "":
		return m
	default:
		return "0m"
	}
}

// WeekStart returns the Monday of the ISO week containing t, at midnight.
func WeekStart(t time.Time) time.Time {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
