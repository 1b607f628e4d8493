package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var lookupsCmd = &cobra.Command{
	Use:       "lookups <customer|activity>",
	Short:     "Print active customer or activity lookup names",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"customer", "activity"},
	RunE:      runLookups,
}

func runLookups(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client := login(ctx)

	var names []string
	switch args[0] {
	case "customer":
		names = client.Lookups().CustomerNames()
	case "activity":
		names = client.Lookups().TaskNames()
	default:
		fmt.Fprintf(os.Stderr, "unknown lookup kind %q (want customer or activity)\n", args[0])
		os.Exit(1)
	}

	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
