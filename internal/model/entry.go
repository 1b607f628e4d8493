package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RemoteEntry is a single time entry as reported by the GetMyTime service,
// with lookup ids already resolved to names. Entries are never mutated after
// parsing.
type RemoteEntry struct {
	ID       int             `json:"id"`
	Date     time.Time       `json:"entry_date"`
	Week     time.Time       `json:"entry_week"` // Monday of the ISO week containing Date
	Minutes  int             `json:"minutes"`
	Hours    decimal.Decimal `json:"hours"`
	Customer string          `json:"customer"`
	Task     string          `json:"task"`
	Comments string          `json:"comments"`
	Billable bool            `json:"is_billable"`
	Approved bool            `json:"is_approved"`
}

// SameDay reports whether the entry falls on the given calendar date.
func (e RemoteEntry) SameDay(t time.Time) bool {
	ey, em, ed := e.Date.Date()
	ty, tm, td := t.Date()
	return ey == ty && em == tm && ed == td
}
