package timesheet_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmtsync/gmt/internal/timesheet"
)

const sampleCSV = `ID,Date,Hours,Customer,Activity,Billable,Notes
,2024-03-01,2.5,Acme,Dev:Coding,Billable,Fixed bug
-4021,2024-03-02,1,Acme,Dev:Review,Not-Billable,Code review
88231544,2024-03-03,8,Initech,Dev:Coding,Billable,Feature work
`

func TestRead(t *testing.T) {
	rows, err := timesheet.Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "", rows[0].ID)
	assert.Equal(t, "2024-03-01", rows[0].Date)
	assert.Equal(t, "Fixed bug", rows[0].Notes)
	assert.Equal(t, "-4021", rows[1].ID)
	assert.Equal(t, "88231544", rows[2].ID)
}

func TestReadRejectsBadHeader(t *testing.T) {
	_, err := timesheet.Read(strings.NewReader("ID,Date,Hours,Client,Activity,Billable,Notes\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Client")
}

func TestReadEmptyFile(t *testing.T) {
	_, err := timesheet.Read(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteExcludesDeleted(t *testing.T) {
	rows, err := timesheet.Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	rows[1].MarkDeleted()

	var out strings.Builder
	require.NoError(t, timesheet.Write(&out, rows))

	got := out.String()
	assert.Contains(t, got, "ID,Date,Hours,Customer,Activity,Billable,Notes")
	assert.Contains(t, got, "Fixed bug")
	assert.NotContains(t, got, "-4021")
	assert.Contains(t, got, "88231544")
}

func TestWriteQuotesSpecialCharacters(t *testing.T) {
	rows := []*timesheet.Row{{
		ID:       "1",
		Date:     "2024-03-01",
		Hours:    "1",
		Customer: "Acme, Inc.",
		Activity: "Dev:Coding",
		Billable: "Billable",
		Notes:    `said "done"`,
	}}
	var out strings.Builder
	require.NoError(t, timesheet.Write(&out, rows))

	reread, err := timesheet.Read(strings.NewReader(out.String()))
	require.NoError(t, err)
	require.Len(t, reread, 1)
	assert.Equal(t, "Acme, Inc.", reread[0].Customer)
	assert.Equal(t, `said "done"`, reread[0].Notes)
}

func TestRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "timesheet.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	rows, err := timesheet.ReadFile(path)
	require.NoError(t, err)
	rows[0].ID = "99000001"
	rows[1].MarkDeleted()

	require.NoError(t, timesheet.Rewrite(path, rows))

	// The backup holds the original content.
	bak, err := os.ReadFile(path + timesheet.BackupSuffix)
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(bak))

	// The primary holds the new content.
	updated, err := timesheet.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, "99000001", updated[0].ID)
	assert.Equal(t, "88231544", updated[1].ID)

	// No temp file left behind.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestRewriteLeavesOriginalOnFailure(t *testing.T) {
	// A row the CSV writer cannot encode is hard to construct, so provoke
	// the failure earlier: make the temp file path unwritable by pointing
	// the rewrite at a path inside a missing directory.
	dir := t.TempDir()
	path := filepath.Join(dir, "missing", "timesheet.csv")

	err := timesheet.Rewrite(path, []*timesheet.Row{})
	require.Error(t, err)

	// Nothing was created.
	_, statErr := os.Stat(filepath.Join(dir, "missing"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRewriteMissingOriginal(t *testing.T) {
	// If the original disappears between read and publish, the primary
	// name must not be left pointing at nothing.
	dir := t.TempDir()
	path := filepath.Join(dir, "timesheet.csv")

	err := timesheet.Rewrite(path, []*timesheet.Row{})
	require.Error(t, err)

	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr), "temp file should be cleaned up")
}
