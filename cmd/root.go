package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gmtsync/gmt/internal/config"
	"github.com/gmtsync/gmt/internal/gmt"
	"github.com/gmtsync/gmt/internal/logging"
)

var (
	verbose bool

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gmt",
	Short: "gmt is a GetMyTime command-line client",
	Long: `gmt talks to the getmytime.com time-tracking service: list, create and
delete time entries, and reconcile a local timesheet CSV with the remote
system. Credentials are read from the GETMYTIME_USERNAME and
GETMYTIME_PASSWORD environment variables (a .env file works too).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(verbose)
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Display debug messages")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(lookupsCmd)
}

// login builds an authenticated client or exits non-zero. Authentication
// failure is fatal before any other work starts.
func login(ctx context.Context) *gmt.Client {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client, err := gmt.NewClient(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return client
}

// ruleConfig builds the validation policy from the loaded configuration.
func ruleConfig() gmt.RuleConfig {
	return gmt.RuleConfig{
		DisallowedBucket: cfg.DisallowedBucket,
		HiringBucketHint: cfg.HiringBucketHint,
	}
}
