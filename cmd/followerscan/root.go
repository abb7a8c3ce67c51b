package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for followerscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "followerscan",
		Short: "Find suspicious followers on Strava",
		Long: `followerscan reads the follower list of your Strava account through a
signed-in browser session, fetches every follower's profile and reports the
ones that look like spam or bot accounts.

Profiles are cached locally for 30 days so repeated scans only fetch new
followers. Requests are paced to stay polite to the site.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .followerscan in current or home directory)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
