package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/followerscan/internal/cache"
	"github.com/nao1215/followerscan/internal/config"
	"github.com/nao1215/followerscan/internal/database"
	"github.com/nao1215/followerscan/internal/fetch"
	applog "github.com/nao1215/followerscan/internal/log"
	"github.com/nao1215/followerscan/internal/model"
	"github.com/nao1215/followerscan/internal/pipeline"
	"github.com/nao1215/followerscan/internal/report"
)

// addSessionFlags registers the flags that control how the site is reached.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().String("base-url", model.DefaultBaseURL,
		"Site root URL")
	cmd.Flags().String("cookie", "",
		"Cookie header of a signed-in browser session (prefer the config file)")
	cmd.Flags().StringToStringP("header", "H", nil,
		"Extra request header as name=value (repeatable)")
	cmd.Flags().String("athlete-id", "",
		"Your athlete id (skips discovery from the dashboard)")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (host:port)")
	cmd.Flags().String("user-agent", "",
		"Override the User-Agent header")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Largest page body to read, in bytes")
	cmd.Flags().Duration("profile-ttl", config.DefaultProfileTTL,
		"How long cached profiles are reused (0 = forever)")
	cmd.Flags().Duration("viewer-ttl", config.DefaultViewerTTL,
		"How long the discovered athlete id is reused")
}

// addStorageFlags registers the cache location flags.
func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory holding the local cache database")
	cmd.Flags().Bool("in-memory", false,
		"Keep the cache in memory for this run only")
}

// addReportFlags registers the report output flags.
func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

func hasFlag(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Lookup(name) != nil
}

// buildConfig creates a Config from the flags the command defines and the
// config file. Flag values win over the file.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = getConfigFlag(cmd)

	var err error

	if hasFlag(cmd, "base-url") {
		if cfg.BaseURL, err = cmd.Flags().GetString("base-url"); err != nil {
			return nil, err
		}
		if cfg.Cookie, err = cmd.Flags().GetString("cookie"); err != nil {
			return nil, err
		}
		var headers map[string]string
		if headers, err = cmd.Flags().GetStringToString("header"); err != nil {
			return nil, err
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
		if cfg.AthleteID, err = cmd.Flags().GetString("athlete-id"); err != nil {
			return nil, err
		}
		if cfg.ProxyAddress, err = cmd.Flags().GetString("proxy"); err != nil {
			return nil, err
		}
		if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
			return nil, err
		}
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
		if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
			return nil, err
		}
		if cfg.ProfileTTL, err = cmd.Flags().GetDuration("profile-ttl"); err != nil {
			return nil, err
		}
		if cfg.ViewerTTL, err = cmd.Flags().GetDuration("viewer-ttl"); err != nil {
			return nil, err
		}
	}

	if hasFlag(cmd, "db-dir") {
		if cfg.DBDir, err = cmd.Flags().GetString("db-dir"); err != nil {
			return nil, err
		}
	}
	if hasFlag(cmd, "in-memory") {
		if cfg.InMemory, err = cmd.Flags().GetBool("in-memory"); err != nil {
			return nil, err
		}
	}

	if hasFlag(cmd, "json") {
		if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
			return nil, err
		}
		if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
			return nil, err
		}
		if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
			return nil, err
		}
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, nil
}

// applyConfigFile loads the config file, if any, into cfg.
// An explicitly named file that does not exist is an error; a missing
// default file is not.
func applyConfigFile(cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath == "" {
		if explicitConfigPath {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	cfg.ApplyFile(file)
	return nil
}

// setupLogger creates a logger that masks session credentials.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	return applog.NewSecureLogger(w, verbose)
}

// storage is the cache backend opened for one command.
type storage struct {
	// db is nil when the cache lives in memory.
	db    *database.SQLiteStore
	cache *cache.Cache
}

// openStorage opens the SQLite cache in cfg.DBDir, or an in-memory cache
// when cfg.InMemory is set.
func openStorage(cfg *config.Config, logger *slog.Logger) (*storage, error) {
	if cfg.InMemory {
		return &storage{
			cache: cache.New(database.NewMemoryStore(), cache.WithLogger(logger)),
		}, nil
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())

	return &storage{
		db:    db,
		cache: cache.New(db, cache.WithLogger(logger)),
	}, nil
}

// Close releases the database, if any.
func (s *storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// newOrchestrator builds the HTTP client and the scan orchestrator for cfg.
func newOrchestrator(cfg *config.Config, logger *slog.Logger, st *storage, notifier pipeline.Notifier) (*pipeline.Orchestrator, error) {
	fetchOpts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithCookie(cfg.Cookie),
		fetch.WithHeaders(cfg.Headers),
		fetch.WithProxy(cfg.ProxyAddress),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
	}
	if cfg.UserAgent != "" {
		fetchOpts = append(fetchOpts, fetch.WithUserAgent(cfg.UserAgent))
	}

	client, err := fetch.NewClient(fetchOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if cfg.Cookie == "" {
		logger.Warn("no session cookie configured; the site may answer with its login page")
	}
	logger.Debug("session settings",
		"base_url", cfg.BaseURL,
		"cookie", cfg.Cookie,
		"headers", cfg.Headers,
		"proxy", client.ProxyAddress())

	opts := []pipeline.OrchestratorOption{
		pipeline.WithOrchestratorLogger(logger),
		pipeline.WithBaseURL(cfg.BaseURL),
		pipeline.WithViewerID(cfg.AthleteID),
		pipeline.WithCrawlDelay(cfg.CrawlDelay),
		pipeline.WithProfileDelay(cfg.ProfileDelay),
		pipeline.WithProfileTTL(cfg.ProfileTTL),
		pipeline.WithViewerTTL(cfg.ViewerTTL),
		pipeline.WithBatchConcurrency(cfg.BatchConcurrency),
		pipeline.WithMaxPages(cfg.MaxPages),
	}
	if notifier != nil {
		opts = append(opts, pipeline.WithScanNotifier(notifier))
	}
	if st.db != nil {
		opts = append(opts, pipeline.WithRecorder(st.db))
	}

	return pipeline.NewOrchestrator(client, st.cache, opts...), nil
}

// writeReport renders summary in the configured format. With --output the
// report goes to the file and a plain summary still goes to stdout.
func writeReport(cfg *config.Config, summary *model.ScanSummary, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		writer, err := report.NewWriter(cfg.ReportFormat(), stdout, getVersion(), cfg.Verbose)
		if err != nil {
			return err
		}
		_, err = writer.Write(summary)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports name accounts and the scanning athlete; keep them owner-only.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	fileWriter, err := report.NewWriter(cfg.ReportFormat(), f, getVersion(), cfg.Verbose)
	if err != nil {
		return err
	}
	writer := report.NewMultiWriter(fileWriter, report.NewSimpleWriter(stdout))
	if _, err := writer.Write(summary); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\nReport written to %s\n", cfg.ReportFile)
	return nil
}
