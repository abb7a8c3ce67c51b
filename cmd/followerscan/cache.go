package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/followerscan/internal/config"
)

// NewCacheCmd creates the cache command group.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local profile cache",
	}
	cmd.AddCommand(newCacheClearCmd())
	return cmd
}

func newCacheClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached profile, follower list and athlete id",
		Long: `Clear deletes all cached entries so the next scan fetches every profile
again. Scan history is kept.`,
		Args: cobra.NoArgs,
		RunE: runCacheClearCmd,
	}
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory holding the local cache database")
	return cmd
}

func runCacheClearCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	st, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := st.cache.ClearAll(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached entries\n", removed)
	return nil
}
