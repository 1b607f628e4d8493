package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gmtsync/gmt/internal/gmt"
	"github.com/gmtsync/gmt/internal/timesheet"
)

var (
	importDryRun bool
	importForce  bool
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Bulk-create time entries from a JSON records file",
	Long: `import reads a JSON array of entry records from the given file (or stdin
when the file is "-" or omitted) and creates each one remotely. Records look
like:

  [{"startdate": "2024-03-01", "customer": "Acme", "activity": "Dev:Coding",
    "comments": "Fixed bug", "tags": ["billable"], "minutes": 150}]`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Do nothing destructive (useful for testing)")
	importCmd.Flags().BoolVarP(&importForce, "force", "f", false, "Ignore some validation rules")
}

// importRecord is one element of the records file.
type importRecord struct {
	StartDate string   `json:"startdate"`
	Customer  string   `json:"customer"`
	Activity  string   `json:"activity"`
	Comments  string   `json:"comments"`
	Tags      []string `json:"tags"`
	Minutes   int      `json:"minutes"`
}

func (r importRecord) candidate() (gmt.Candidate, error) {
	date, err := time.Parse(timesheet.DateLayout, r.StartDate)
	if err != nil {
		return gmt.Candidate{}, fmt.Errorf("invalid startdate %q (want YYYY-MM-DD)", r.StartDate)
	}
	billable := false
	for _, tag := range r.Tags {
		if tag == "billable" {
			billable = true
		}
	}
	return gmt.Candidate{
		Date:     date,
		Customer: r.Customer,
		Activity: r.Activity,
		Comments: r.Comments,
		Minutes:  r.Minutes,
		Billable: billable,
	}, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var in io.Reader = os.Stdin
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	var records []importRecord
	if err := json.NewDecoder(in).Decode(&records); err != nil {
		fmt.Fprintf(os.Stderr, "parsing records: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := login(ctx)
	validator := gmt.NewValidator(ruleConfig(), client.Lookups())

	fmt.Printf("Importing %d entries...\n", len(records))
	for i, record := range records {
		cand, err := record.candidate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "record %d: %v\n", i+1, err)
			os.Exit(1)
		}
		if err := validator.Validate(cand, importForce); err != nil {
			fmt.Fprintf(os.Stderr, "record %d: %v\n", i+1, err)
			os.Exit(1)
		}
		if importDryRun {
			continue
		}
		if err := client.CreateEntry(ctx, cand); err != nil {
			fmt.Fprintf(os.Stderr, "record %d: %v\n", i+1, err)
			os.Exit(2)
		}
	}
	fmt.Println("Done")
	return nil
}
