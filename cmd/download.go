package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmtsync/gmt/internal/gmt"
	"github.com/gmtsync/gmt/internal/timesheet"
)

// downloadWindowDays is how far past the start date entries are fetched.
const downloadWindowDays = 60

var downloadCmd = &cobra.Command{
	Use:   "download <date>",
	Short: "Fetch remote entries as timesheet CSV on stdout",
	Long: `download fetches up to 60 days of entries beginning at the given date
(YYYY-MM-DD) and writes them in timesheet CSV format. The ids are positive,
so uploading the file back is a no-op until rows are edited.`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	start, err := time.Parse(timesheet.DateLayout, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to parse date %q (want YYYY-MM-DD)\n", args[0])
		os.Exit(1)
	}
	end := start.AddDate(0, 0, downloadWindowDays)

	ctx := context.Background()
	client := login(ctx)

	entries, err := gmt.FetchEntries(ctx, client, start, end).Collect()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	rows := make([]*timesheet.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, timesheet.FromEntry(e))
	}
	if err := timesheet.Write(os.Stdout, rows); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return nil
}
