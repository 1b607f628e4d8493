package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gmtsync/gmt/internal/gmt"
	"github.com/gmtsync/gmt/internal/timesheet"
)

var (
	uploadDryRun bool
	uploadForce  bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <timesheet.csv>",
	Short: "Reconcile a timesheet CSV with the remote service",
	Long: `upload walks the timesheet row by row and applies the action encoded in
each ID field: empty or non-numeric creates a new remote entry, a negative
integer deletes the entry with that (absolute) id, and a positive integer is
left alone. The file is then rewritten in place with server-assigned ids
filled in and deleted rows removed; the original is kept as <file>` + timesheet.BackupSuffix + `.

A failure while handling a single row never aborts the rest of the file;
the failed row is carried over unchanged so a retry is safe.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "Preview changes without creating, deleting, or rewriting")
	uploadCmd.Flags().BoolVarP(&uploadForce, "force", "f", false, "Ignore some validation rules")
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client := login(ctx)

	validator := gmt.NewValidator(ruleConfig(), client.Lookups())
	rec := gmt.NewReconciler(client, validator, logger)
	rec.DryRun = uploadDryRun
	rec.Force = uploadForce

	dryTag := ""
	if uploadDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Printf("Reconciling %s%s...\n", args[0], dryTag)

	result, err := rec.Run(ctx, args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d rows processed\n", result.Processed)
	fmt.Printf("  %d created\n", result.Created)
	fmt.Printf("  %d deleted\n", result.Deleted)
	fmt.Printf("  %d unchanged\n", result.Skipped)
	if result.Unresolved > 0 {
		fmt.Printf("  %d created without a recovered id\n", result.Unresolved)
	}
	if result.Failed > 0 {
		fmt.Printf("  %d failed (left unchanged, see log)\n", result.Failed)
	}
	return nil
}
