package gmt_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gmtsync/gmt/internal/gmt"
	"github.com/gmtsync/gmt/internal/model"
	"github.com/gmtsync/gmt/internal/timesheet"
)

// fakeGateway records calls and serves canned fetch pages.
type fakeGateway struct {
	pages   map[string][]model.RemoteEntry
	created []gmt.Candidate
	deleted []int
	fetches []string

	createErr     error
	deleteErr     error
	fetchErr      error
	panicOnCreate bool
}

func (f *fakeGateway) CreateEntry(_ context.Context, cand gmt.Candidate) error {
	if f.panicOnCreate {
		panic("gateway exploded")
	}
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, cand)
	return nil
}

func (f *fakeGateway) DeleteEntry(_ context.Context, id int) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeGateway) FetchPage(_ context.Context, start time.Time) ([]model.RemoteEntry, error) {
	key := start.Format("2006-01-02")
	f.fetches = append(f.fetches, key)
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.pages[key], nil
}

func newReconciler(t *testing.T, gw gmt.Gateway) *gmt.Reconciler {
	t.Helper()
	validator := gmt.NewValidator(testRuleConfig(), testLookups())
	return gmt.NewReconciler(gw, validator, zaptest.NewLogger(t))
}

func writeTimesheet(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "timesheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readRows(t *testing.T, path string) []*timesheet.Row {
	t.Helper()
	rows, err := timesheet.ReadFile(path)
	require.NoError(t, err)
	return rows
}

const header = "ID,Date,Hours,Customer,Activity,Billable,Notes\n"

func TestReconcileCreateAssignsRecoveredID(t *testing.T) {
	// Scenario: a new row is created remotely and its server-assigned id
	// is recovered by re-fetching the day and matching.
	gw := &fakeGateway{pages: map[string][]model.RemoteEntry{
		"2024-03-01": {
			entryOn(111, "2024-03-01"), // one hour of Dev:Coding, must not match
			{
				ID:       88231544,
				Date:     day("2024-03-01"),
				Minutes:  150,
				Hours:    decimal.RequireFromString("2.5"),
				Customer: "Acme",
				Task:     "Dev:Coding",
				Comments: "Fixed bug",
			},
		},
	}}

	path := writeTimesheet(t, header+`,2024-03-01,2.5,Acme,Dev:Coding,Billable,Fixed bug`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.Unresolved)

	require.Len(t, gw.created, 1)
	assert.Equal(t, "Acme", gw.created[0].Customer)
	assert.Equal(t, 150, gw.created[0].Minutes)
	assert.True(t, gw.created[0].Billable)

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "88231544", rows[0].ID)
}

func TestReconcileDeleteRemovesRow(t *testing.T) {
	gw := &fakeGateway{}
	path := writeTimesheet(t, header+`-4021,2024-03-02,1,Acme,Dev:Review,Not-Billable,Code review`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, []int{4021}, gw.deleted)
	assert.Empty(t, readRows(t, path))

	// The backup still holds the deleted row.
	bak, err := os.ReadFile(path + timesheet.BackupSuffix)
	require.NoError(t, err)
	assert.Contains(t, string(bak), "-4021")
}

func TestReconcileValidationFailureMakesNoRemoteCall(t *testing.T) {
	// Scenario: empty notes fail validation before any remote call; the
	// row is carried over unchanged.
	gw := &fakeGateway{}
	line := `,2024-03-01,2.5,Acme,Dev:Coding,Billable,` + "\n"
	path := writeTimesheet(t, header+line)

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, gw.created)
	assert.Empty(t, gw.fetches)

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].ID)
}

func TestReconcileTopLevelCategoryRejected(t *testing.T) {
	gw := &fakeGateway{}
	path := writeTimesheet(t, header+`,2024-03-01,2.5,Acme,Dev,Billable,Worked on things`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, gw.created)

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "Dev", rows[0].Activity)
	assert.Equal(t, "", rows[0].ID)
}

func TestReconcileIdempotentReplay(t *testing.T) {
	// Rerunning a fully reconciled file makes no mutating calls at all.
	gw := &fakeGateway{}
	path := writeTimesheet(t, header+
		`88231544,2024-03-01,2.5,Acme,Dev:Coding,Billable,Fixed bug`+"\n"+
		`88231545,2024-03-02,1,Initech,Dev:Review,Not-Billable,Review`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Skipped)
	assert.Empty(t, gw.created)
	assert.Empty(t, gw.deleted)
	assert.Empty(t, gw.fetches)
	assert.Len(t, readRows(t, path), 2)
}

func TestReconcileFailedDeleteKeepsRow(t *testing.T) {
	gw := &fakeGateway{deleteErr: &gmt.RemoteError{Op: "deleteTimeEntry", Code: "500", Message: "nope"}}
	path := writeTimesheet(t, header+`-4021,2024-03-02,1,Acme,Dev:Review,Not-Billable,Code review`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Deleted)

	// The row survives unchanged, so a retry will attempt the delete again.
	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "-4021", rows[0].ID)
}

func TestReconcileCreateFailureKeepsRow(t *testing.T) {
	gw := &fakeGateway{createErr: &gmt.RemoteError{Op: "createTimeEntry", Message: "server unhappy"}}
	path := writeTimesheet(t, header+`,2024-03-01,2.5,Acme,Dev:Coding,Billable,Fixed bug`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Created)

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].ID)
}

func TestReconcileUnresolvedIDKeepsRowWithoutID(t *testing.T) {
	// Create succeeds but the re-fetch finds nothing equal: the entry is
	// remote, the row just keeps no id.
	gw := &fakeGateway{pages: map[string][]model.RemoteEntry{
		"2024-03-01": {entryOn(111, "2024-03-01")}, // hours differ from the row's
	}}
	path := writeTimesheet(t, header+`,2024-03-01,2.5,Acme,Dev:Coding,Billable,Fixed bug`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Unresolved)

	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].ID)
}

func TestReconcileIDRecoveryFetchFailureIsConfined(t *testing.T) {
	// An empty first page during id recovery is confined to the row.
	gw := &fakeGateway{}
	path := writeTimesheet(t, header+
		`,2024-03-01,2.5,Acme,Dev:Coding,Billable,Fixed bug`+"\n"+
		`88231545,2024-03-02,1,Initech,Dev:Review,Not-Billable,Review`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Unresolved)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, readRows(t, path), 2)
}

func TestReconcileOneBadRowDoesNotAbortBatch(t *testing.T) {
	// A panic inside row handling is recovered; later rows still process.
	gw := &fakeGateway{panicOnCreate: true}
	path := writeTimesheet(t, header+
		`,2024-03-01,2.5,Acme,Dev:Coding,Billable,Fixed bug`+"\n"+
		`-4021,2024-03-02,1,Acme,Dev:Review,Not-Billable,Code review`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, []int{4021}, gw.deleted)

	// The panicked row is carried over unchanged; the deleted one is gone.
	rows := readRows(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].ID)
	assert.Equal(t, "Fixed bug", rows[0].Notes)
}

func TestReconcileDryRun(t *testing.T) {
	gw := &fakeGateway{}
	content := header +
		`,2024-03-01,2.5,Acme,Dev:Coding,Billable,Fixed bug` + "\n" +
		`-4021,2024-03-02,1,Acme,Dev:Review,Not-Billable,Code review` + "\n"
	path := writeTimesheet(t, content)

	rec := newReconciler(t, gw)
	rec.DryRun = true
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Deleted)
	assert.Empty(t, gw.created, "dry run must not create")
	assert.Empty(t, gw.deleted, "dry run must not delete")

	// The file is untouched and no backup appears.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	_, statErr := os.Stat(path + timesheet.BackupSuffix)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReconcileForceBypassesOverridableRules(t *testing.T) {
	gw := &fakeGateway{pages: map[string][]model.RemoteEntry{}}
	path := writeTimesheet(t, header+`,2024-03-01,1,Acme,Indirect - Admin:Miscellaneous,Not-Billable,odds and ends`+"\n")

	rec := newReconciler(t, gw)
	result, err := rec.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed, "without force the bucket is rejected")
	assert.Empty(t, gw.created)

	rec = newReconciler(t, gw)
	rec.Force = true
	result, err = rec.Run(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	require.Len(t, gw.created, 1)
}

func TestReconcileMissingFileIsFatal(t *testing.T) {
	rec := newReconciler(t, &fakeGateway{})
	_, err := rec.Run(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
