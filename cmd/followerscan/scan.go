package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/followerscan/internal/config"
	"github.com/nao1215/followerscan/internal/model"
	"github.com/nao1215/followerscan/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [athlete-id]",
		Short: "Scan every follower of your account",
		Long: `Scan collects the follower list of the signed-in athlete (or of the athlete
given as argument), fetches each follower's profile and flags accounts that:
- look like bot accounts with generated names
- have fewer than 5 followers
- follow more than 4 times as many athletes as follow them
- joined less than 30 days ago

Suspicious followers are printed as soon as they are found; the full report
follows at the end. Profiles fetched in the last 30 days come from the local
cache and are not requested again.

Examples:
  # Scan your own followers
  followerscan scan

  # Scan the followers of another athlete
  followerscan scan 12345678

  # Write a Markdown report
  followerscan scan --markdown -o report.md

Configuration file (.followerscan) example:
  session:
    cookie: "_strava4_session=..."
    athleteId: "12345678"`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScanCmd,
	}

	addSessionFlags(cmd)
	addStorageFlags(cmd)
	addReportFlags(cmd)

	cmd.Flags().Duration("crawl-delay", config.DefaultCrawlDelay,
		"Minimum interval between follower listing pages")
	cmd.Flags().Duration("profile-delay", config.DefaultProfileDelay,
		"Minimum interval after each profile fetched from the site")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of follower listing pages to crawl (0 = unlimited)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.CrawlDelay, err = cmd.Flags().GetDuration("crawl-delay"); err != nil {
		return err
	}
	if cfg.ProfileDelay, err = cmd.Flags().GetDuration("profile-delay"); err != nil {
		return err
	}
	if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
		return err
	}

	var target string
	if len(args) == 1 {
		if target = parseAthleteID(args[0]); target == "" {
			return fmt.Errorf("%w: %q", config.ErrInvalidAthleteID, args[0])
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, target, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// parseAthleteID accepts a bare id or a profile URL.
func parseAthleteID(arg string) string {
	if model.IsAthleteID(arg) {
		return arg
	}
	return model.ExtractAthleteID(arg)
}

// runScan crawls and classifies the followers of target, or of the
// signed-in athlete when target is empty.
func runScan(ctx context.Context, cfg *config.Config, target string, logger *slog.Logger, stdout, stderr io.Writer) error {
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

	if target == "" {
		fmt.Fprintln(stderr, "Scanning your followers...")
	} else {
		fmt.Fprintf(stderr, "Scanning followers of athlete %s...\n", target)
	}

	summary, scanErr := orch.ScanFollowers(ctx, target)
	if scanErr != nil && len(summary.Results) == 0 {
		return fmt.Errorf("scan failed: %w", scanErr)
	}

	if err := writeReport(cfg, summary, stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if scanErr != nil {
		return fmt.Errorf("scan incomplete: %w", scanErr)
	}
	return nil
}
