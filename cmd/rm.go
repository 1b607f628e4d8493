package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/spf13/cobra"
)

var rmDryRun bool

// idPattern matches the 8-digit entry ids GetMyTime assigns, so ids can be
// scraped out of piped `gmt ls --oneline` output.
var idPattern = regexp.MustCompile(`\d{8}`)

var rmCmd = &cobra.Command{
	Use:   "rm [ids...]",
	Short: "Delete time entries by id",
	Long: `rm deletes the remote entries with the given ids. With no arguments, ids
are scraped from stdin, one per line, so listings can be piped in:

  gmt ls --oneline | grep Standup | gmt rm`,
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVar(&rmDryRun, "dry-run", false, "Do nothing destructive (useful for testing)")
}

// scrapeIDs returns the ids found in each line of r.
func scrapeIDs(r io.Reader) ([]int, error) {
	var ids []int
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if m := idPattern.FindString(scanner.Text()); m != "" {
			id, err := strconv.Atoi(m)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ids from stdin: %w", err)
	}
	return ids, nil
}

func runRm(cmd *cobra.Command, args []string) error {
	var ids []int
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid id %q\n", arg)
			os.Exit(1)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		var err error
		ids, err = scrapeIDs(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "no ids given")
		os.Exit(1)
	}

	ctx := context.Background()
	client := login(ctx)

	for _, id := range ids {
		if rmDryRun {
			fmt.Printf("dry-run: would delete %d\n", id)
			continue
		}
		if err := client.DeleteEntry(ctx, id); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}
	return nil
}
