package timesheet_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmtsync/gmt/internal/model"
	"github.com/gmtsync/gmt/internal/timesheet"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		id         string
		wantAction timesheet.Action
		wantID     int
	}{
		{"", timesheet.ActionCreate, 0},
		{"0", timesheet.ActionCreate, 0},
		{"garbage", timesheet.ActionCreate, 0},
		{"12.5", timesheet.ActionCreate, 0},
		{"X", timesheet.ActionCreate, 0},
		{"-1", timesheet.ActionDelete, 1},
		{"-4021", timesheet.ActionDelete, 4021},
		{"  -7  ", timesheet.ActionDelete, 7},
		{"1", timesheet.ActionSkip, 1},
		{"88231544", timesheet.ActionSkip, 88231544},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			action, id := timesheet.Classify(&timesheet.Row{ID: tt.id})
			assert.Equal(t, tt.wantAction, action)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "create", timesheet.ActionCreate.String())
	assert.Equal(t, "delete", timesheet.ActionDelete.String())
	assert.Equal(t, "skip", timesheet.ActionSkip.String())
}

func TestParsedDate(t *testing.T) {
	row := &timesheet.Row{Date: "2024-03-01"}
	d, err := row.ParsedDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d)

	row = &timesheet.Row{Date: "03/01/2024"}
	_, err = row.ParsedDate()
	assert.Error(t, err)
}

func TestMinutes(t *testing.T) {
	tests := []struct {
		hours string
		want  int
	}{
		{"2.5", 150},
		{"0.25", 15},
		{"8", 480},
		{"1.75", 105},
	}
	for _, tt := range tests {
		row := &timesheet.Row{Hours: tt.hours}
		got, err := row.Minutes()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "hours=%s", tt.hours)
	}

	_, err := (&timesheet.Row{Hours: "two"}).Minutes()
	assert.Error(t, err)
}

func TestIsBillable(t *testing.T) {
	assert.True(t, (&timesheet.Row{Billable: "Billable"}).IsBillable())
	assert.False(t, (&timesheet.Row{Billable: "Not-Billable"}).IsBillable())
	assert.False(t, (&timesheet.Row{Billable: ""}).IsBillable())
}

func TestFromEntry(t *testing.T) {
	e := model.RemoteEntry{
		ID:       88231544,
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Minutes:  150,
		Hours:    decimal.RequireFromString("2.5"),
		Customer: "Acme",
		Task:     "Dev:Coding",
		Comments: "Fixed bug",
		Billable: true,
	}
	row := timesheet.FromEntry(e)
	assert.Equal(t, "88231544", row.ID)
	assert.Equal(t, "2024-03-01", row.Date)
	assert.Equal(t, "2.5", row.Hours)
	assert.Equal(t, "Acme", row.Customer)
	assert.Equal(t, "Dev:Coding", row.Activity)
	assert.Equal(t, timesheet.BillableLabel, row.Billable)
	assert.Equal(t, "Fixed bug", row.Notes)

	// Round trip: a downloaded row classifies as already synced.
	action, id := timesheet.Classify(row)
	assert.Equal(t, timesheet.ActionSkip, action)
	assert.Equal(t, 88231544, id)

	e.Billable = false
	assert.Equal(t, timesheet.NotBillableLabel, timesheet.FromEntry(e).Billable)
}
