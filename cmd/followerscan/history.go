package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/followerscan/internal/config"
	"github.com/nao1215/followerscan/internal/report"
)

// defaultHistoryLimit is how many sessions history shows by default.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous scans",
		Long: `History shows the most recent scan sessions stored in the local database,
newest first, with how many profiles each scan checked and flagged.

Examples:
  # Show the last 20 scans
  followerscan history

  # Show the last 5 scans
  followerscan history -l 5`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}
	cmd.Flags().IntP("limit", "l", defaultHistoryLimit, "Maximum number of sessions to show (0 = all)")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory holding the local cache database")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	st, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, err := st.db.ListSessions(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list scan history: %w", err)
	}
	return report.NewHistoryWriter(cmd.OutOrStdout()).Write(sessions)
}
