package gmt

import (
	"github.com/shopspring/decimal"

	"github.com/gmtsync/gmt/internal/model"
)

// FindMatch scans entries in order for one whose customer name, task name,
// and decimal hours all equal the given values, returning the first match
// and the total number of matching entries. Used after a successful create
// to recover the server-assigned id, since the create response does not
// carry it. A count above one means genuinely ambiguous duplicates; callers
// should warn but may still use the first match.
func FindMatch(customer, activity string, hours decimal.Decimal, entries []model.RemoteEntry) (*model.RemoteEntry, int) {
	var first *model.RemoteEntry
	count := 0
	for i := range entries {
		e := &entries[i]
		if e.Customer == customer && e.Task == activity && e.Hours.Equal(hours) {
			if first == nil {
				first = e
			}
			count++
		}
	}
	return first, count
}
