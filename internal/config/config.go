package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/followerscan/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "followerscan"

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the interval between follower listing pages.
	DefaultCrawlDelay = 1 * time.Second

	// DefaultProfileDelay is the interval after each live profile fetch.
	DefaultProfileDelay = 500 * time.Millisecond

	// DefaultProfileTTL is how long a cached profile is reused.
	DefaultProfileTTL = 30 * 24 * time.Hour

	// DefaultViewerTTL is how long the discovered viewer id is reused.
	DefaultViewerTTL = 60 * time.Minute

	// DefaultMaxPages caps a follower crawl.
	DefaultMaxPages = 1000

	// DefaultMaxBodySize limits the size of a fetched page.
	DefaultMaxBodySize int64 = 5 << 20
)

// Config holds all options for a followerscan run. It is filled from CLI
// flags and the config file and passed down explicitly.
type Config struct {
	// BaseURL is the site root, e.g. https://www.strava.com.
	BaseURL string

	// Cookie is the raw Cookie header of a signed-in browser session.
	Cookie string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// AthleteID fixes the signed-in athlete instead of discovering it.
	AthleteID string

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// CrawlDelay is the minimum interval between listing pages.
	CrawlDelay time.Duration

	// ProfileDelay is the minimum interval after each live profile fetch.
	ProfileDelay time.Duration

	// ProfileTTL is the profile cache lifetime. 0 means never expire.
	ProfileTTL time.Duration

	// ViewerTTL is the viewer id cache lifetime.
	ViewerTTL time.Duration

	// BatchConcurrency caps concurrent batch resolutions. 0 means unlimited.
	BatchConcurrency int

	// MaxPages caps a follower crawl. 0 means unlimited.
	MaxPages int

	// MaxBodySize is the largest page body read, in bytes.
	MaxBodySize int64

	// Verbose enables debug logging and lists clean profiles in reports.
	Verbose bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit path to the config file.
	ConfigFilePath string

	// DBDir is where the SQLite cache lives. Defaults to the XDG data dir.
	DBDir string

	// InMemory keeps the cache in memory for this run only.
	InMemory bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:      model.DefaultBaseURL,
		Headers:      make(map[string]string),
		Timeout:      DefaultTimeout,
		CrawlDelay:   DefaultCrawlDelay,
		ProfileDelay: DefaultProfileDelay,
		ProfileTTL:   DefaultProfileTTL,
		ViewerTTL:    DefaultViewerTTL,
		MaxPages:     DefaultMaxPages,
		MaxBodySize:  DefaultMaxBodySize,
		DBDir:        XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for followerscan.
// On Linux: ~/.local/share/followerscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for followerscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ReportFormat returns the report format name selected by the flags.
func (c *Config) ReportFormat() string {
	switch {
	case c.JSONReport:
		return "json"
	case c.MarkdownReport:
		return "markdown"
	default:
		return "text"
	}
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidBaseURL
	}

	if c.AthleteID != "" && !model.IsAthleteID(c.AthleteID) {
		return ErrInvalidAthleteID
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CrawlDelay < 0 || c.ProfileDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.ProfileTTL < 0 || c.ViewerTTL < 0 {
		return ErrInvalidTTL
	}

	if c.BatchConcurrency < 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// ApplyFile fills settings that were not set on the command line from the
// config file entry matching the base URL host. Flag values win.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if f.BaseURL != "" && c.BaseURL == model.DefaultBaseURL {
		c.BaseURL = f.BaseURL
	}
	if c.ProxyAddress == "" {
		c.ProxyAddress = f.Proxy
	}

	host := c.BaseURL
	if u, err := url.Parse(c.BaseURL); err == nil && u.Host != "" {
		host = u.Host
	}
	site := f.GetSiteConfig(strings.ToLower(host))

	if c.Cookie == "" {
		c.Cookie = site.Cookie
	}
	if c.AthleteID == "" {
		c.AthleteID = site.AthleteID
	}
	if c.UserAgent == "" {
		c.UserAgent = site.UserAgent
	}
	if c.Headers == nil {
		c.Headers = make(map[string]string)
	}
	for k, v := range site.Headers {
		if _, set := c.Headers[k]; !set {
			c.Headers[k] = v
		}
	}
}
