package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/followerscan/internal/config"
	"github.com/nao1215/followerscan/internal/pipeline"
	"github.com/nao1215/followerscan/internal/report"
)

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch [profile-url...]",
		Short: "Check specific profiles, or your newest followers",
		Long: `Batch fetches and classifies the given athlete profiles concurrently, with
the same rules as scan. Arguments may be profile URLs or bare athlete ids.

With --notifications, the profiles of "new follower" entries in your
notifications feed are checked instead.

Examples:
  # Check two profiles
  followerscan batch https://www.strava.com/athletes/123 456

  # Check the followers announced in your notifications
  followerscan batch --notifications

  # Limit concurrent requests
  followerscan batch -b 4 --notifications`,
		Args: cobra.ArbitraryArgs,
		RunE: runBatchCmd,
	}

	addSessionFlags(cmd)
	addStorageFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().BoolP("notifications", "n", false,
		"Check the new followers listed in your notifications")
	cmd.Flags().IntP("concurrency", "b", 0,
		"Maximum concurrent profile fetches (0 = unlimited)")

	return cmd
}

// runBatchCmd executes the batch command.
func runBatchCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.BatchConcurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return err
	}
	fromNotifications, err := cmd.Flags().GetBool("notifications")
	if err != nil {
		return err
	}

	if len(args) == 0 && !fromNotifications {
		return config.ErrNoTarget
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runBatch(ctx, cfg, args, fromNotifications, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runBatch resolves profileURLs, plus the notification feed's new
// followers when fromNotifications is set.
func runBatch(ctx context.Context, cfg *config.Config, profileURLs []string, fromNotifications bool, logger *slog.Logger, stdout, stderr io.Writer) error {
	st, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	alerts := report.NewAlertWriter(stderr)
	orch, err := newOrchestrator(cfg, logger, st, alerts)
	if err != nil {
		return err
	}

	urls := append([]string(nil), profileURLs...)
	if fromNotifications {
		fmt.Fprintln(stderr, "Reading notifications...")
		found, err := orch.NewFollowerURLs(ctx)
		switch {
		case errors.Is(err, pipeline.ErrListNotReady):
			logger.Debug("no new followers in notifications", "error", err)
		case err != nil:
			return fmt.Errorf("failed to read notifications: %w", err)
		}
		urls = append(urls, found...)
	}

	if len(urls) == 0 {
		fmt.Fprintln(stdout, "No new followers to check.")
		return nil
	}

	fmt.Fprintf(stderr, "Checking %d profile(s)...\n", len(urls))
	summary, scanErr := orch.ScanBatch(ctx, urls)

	if err := writeReport(cfg, summary, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if scanErr != nil {
		return fmt.Errorf("batch scan incomplete: %w", scanErr)
	}
	return nil
}
