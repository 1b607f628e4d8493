// Package timesheet reads and writes the local timesheet CSV and implements
// the sentinel-ID convention that encodes each row's pending remote action.
package timesheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

const (
	// BackupSuffix is appended to the original file name during Rewrite.
	BackupSuffix = ".bak"
	tmpSuffix    = ".tmp"
)

// Read parses timesheet rows from r. The header must match Fields exactly.
func Read(r io.Reader) ([]*Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Fields)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("timesheet is empty: missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("reading timesheet header: %w", err)
	}
	for i, name := range Fields {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected timesheet header: column %d is %q, want %q", i+1, header[i], name)
		}
	}

	var rows []*Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading timesheet row: %w", err)
		}
		rows = append(rows, &Row{
			ID:       rec[0],
			Date:     rec[1],
			Hours:    rec[2],
			Customer: rec[3],
			Activity: rec[4],
			Billable: rec[5],
			Notes:    rec[6],
		})
	}
	return rows, nil
}

// ReadFile parses the timesheet at path.
func ReadFile(path string) ([]*Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening timesheet %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Write emits the header and all rows not flagged as deleted.
func Write(w io.Writer, rows []*Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Fields); err != nil {
		return fmt.Errorf("writing timesheet header: %w", err)
	}
	for _, row := range rows {
		if row.Deleted() {
			continue
		}
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("writing timesheet row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing timesheet: %w", err)
	}
	return nil
}

// Rewrite atomically replaces the timesheet at path with rows. The new
// content is written to a temp file first; only after that write succeeds is
// the original renamed to path+".bak" and the temp file renamed into place.
// A failure at any step before the final rename leaves the original file
// untouched.
func Rewrite(path string, rows []*Row) error {
	tmpPath := path + tmpSuffix
	bakPath := path + BackupSuffix

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp timesheet: %w", err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp timesheet: %w", err)
	}

	if err := os.Rename(path, bakPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("backing up timesheet: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// Restore the original so the primary file never goes missing.
		_ = os.Rename(bakPath, path)
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing timesheet: %w", err)
	}
	return nil
}
