package gmt

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gmtsync/gmt/internal/model"
)

// PageFetcher fetches one page of entries beginning at a date. *Client
// satisfies it; tests substitute fakes.
type PageFetcher interface {
	FetchPage(ctx context.Context, start time.Time) ([]model.RemoteEntry, error)
}

// Cursor walks remote entries for [start, end) in chronological order,
// fetching one week-sized page at a time. Forward-only and single-use, in
// the manner of sql.Rows:
//
//	cur := gmt.FetchEntries(ctx, client, start, end)
//	for cur.Next() {
//		entry := cur.Entry()
//		...
//	}
//	if err := cur.Err(); err != nil { ... }
//
// An empty first page surfaces through Err as ErrNoEntries; an empty later
// page is normal termination (the service ran out of data mid-range).
type Cursor struct {
	ctx       context.Context
	pf        PageFetcher
	cur, end  time.Time
	firstPage bool

	page  []model.RemoteEntry
	idx   int
	entry model.RemoteEntry
	err   error
	done  bool
}

// FetchEntries returns a cursor over entries in [start, end).
func FetchEntries(ctx context.Context, pf PageFetcher, start, end time.Time) *Cursor {
	return &Cursor{
		ctx:       ctx,
		pf:        pf,
		cur:       start,
		end:       end,
		firstPage: true,
	}
}

// Next advances to the next entry, fetching further pages as needed. It
// returns false at the end of the range or on error; check Err afterwards.
func (c *Cursor) Next() bool {
	for {
		if c.done {
			return false
		}
		if c.idx < len(c.page) {
			c.entry = c.page[c.idx]
			c.idx++
			return true
		}
		if !c.cur.Before(c.end) {
			c.done = true
			return false
		}

		page, err := c.pf.FetchPage(c.ctx, c.cur)
		if err != nil {
			c.err = err
			c.done = true
			return false
		}
		if len(page) == 0 {
			if c.firstPage {
				c.err = fmt.Errorf("fetch starting %s: %w", c.cur.Format("2006-01-02"), ErrNoEntries)
			}
			c.done = true
			return false
		}
		c.firstPage = false

		sort.SliceStable(page, func(i, j int) bool {
			return page[i].Date.Before(page[j].Date)
		})
		// The page may extend past the requested window; keep only entries
		// strictly before end.
		filtered := page[:0]
		for _, e := range page {
			if e.Date.Before(c.end) {
				filtered = append(filtered, e)
			}
		}
		c.page = filtered
		c.idx = 0
		c.cur = c.cur.AddDate(0, 0, 7)
	}
}

// Entry returns the entry positioned by the last successful Next.
func (c *Cursor) Entry() model.RemoteEntry { return c.entry }

// Err returns the error that terminated iteration, if any.
func (c *Cursor) Err() error { return c.err }

// Collect drains the cursor into a slice.
func (c *Cursor) Collect() ([]model.RemoteEntry, error) {
	var entries []model.RemoteEntry
	for c.Next() {
		entries = append(entries, c.Entry())
	}
	return entries, c.Err()
}
