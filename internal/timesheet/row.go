package timesheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gmtsync/gmt/internal/model"
)

// Fields is the timesheet CSV header, in column order.
var Fields = []string{"ID", "Date", "Hours", "Customer", "Activity", "Billable", "Notes"}

const (
	// DateLayout is the timesheet date format.
	DateLayout = "2006-01-02"
	// BillableLabel and NotBillableLabel are the only valid Billable values.
	BillableLabel    = "Billable"
	NotBillableLabel = "Not-Billable"
)

// Row is one local timesheet record. The ID field is sentinel-encoded:
// empty or non-numeric means "new, create remotely", a negative integer
// means "delete the remote entry with the absolute value as id", and a
// positive integer means "already synced".
type Row struct {
	ID       string
	Date     string
	Hours    string
	Customer string
	Activity string
	Billable string
	Notes    string

	deleted bool
}

// Action is the remote operation a row's sentinel ID calls for.
type Action int

const (
	ActionSkip Action = iota
	ActionCreate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionDelete:
		return "delete"
	default:
		return "skip"
	}
}

// Classify decodes the sentinel ID convention. For deletes the returned id
// is the remote entry id to delete; for skips it is the already-assigned id.
// Pure function of the row's current ID field.
func Classify(r *Row) (Action, int) {
	id, err := strconv.Atoi(strings.TrimSpace(r.ID))
	if err != nil {
		// Empty string or non-numeric: no id assigned yet.
		return ActionCreate, 0
	}
	switch {
	case id < 0:
		return ActionDelete, -id
	case id == 0:
		return ActionCreate, 0
	default:
		return ActionSkip, id
	}
}

// MarkDeleted flags the row as successfully deleted remotely; Write excludes
// flagged rows from the output.
func (r *Row) MarkDeleted() { r.deleted = true }

// Deleted reports whether the row has been flagged by MarkDeleted.
func (r *Row) Deleted() bool { return r.deleted }

// ParsedDate returns the row's entry date.
func (r *Row) ParsedDate() (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(r.Date))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid Date %q: %w", r.Date, err)
	}
	return t, nil
}

// ParsedHours returns the Hours column as an exact decimal.
func (r *Row) ParsedHours() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(r.Hours))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("expected Hours column to contain a valid number, got %q", r.Hours)
	}
	return d, nil
}

// Minutes converts the Hours column to whole minutes.
func (r *Row) Minutes() (int, error) {
	hours, err := r.ParsedHours()
	if err != nil {
		return 0, err
	}
	return int(hours.Mul(decimal.NewFromInt(60)).IntPart()), nil
}

// IsBillable reports whether the Billable column carries the billable label.
func (r *Row) IsBillable() bool {
	return strings.TrimSpace(r.Billable) == BillableLabel
}

// FromEntry converts a fetched remote entry into a timesheet row. The
// resulting ID is the positive remote id, so a re-upload classifies the row
// as already synced.
func FromEntry(e model.RemoteEntry) *Row {
	billable := NotBillableLabel
	if e.Billable {
		billable = BillableLabel
	}
	return &Row{
		ID:       strconv.Itoa(e.ID),
		Date:     e.Date.Format(DateLayout),
		Hours:    e.Hours.String(),
		Customer: e.Customer,
		Activity: e.Task,
		Billable: billable,
		Notes:    e.Comments,
	}
}

// record returns the row's CSV fields in header order.
func (r *Row) record() []string {
	return []string{r.ID, r.Date, r.Hours, r.Customer, r.Activity, r.Billable, r.Notes}
}
