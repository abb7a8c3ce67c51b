package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestNewConfig pins the documented defaults so changes to them are
// intentional.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default BaseURL is strava", func(t *testing.T) {
		t.Parallel()
		if cfg.BaseURL != "https://www.strava.com" {
			t.Errorf("expected BaseURL https://www.strava.com, got %q", cfg.BaseURL)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default delays", func(t *testing.T) {
		t.Parallel()
		if cfg.CrawlDelay != time.Second {
			t.Errorf("expected CrawlDelay 1s, got %v", cfg.CrawlDelay)
		}
		if cfg.ProfileDelay != 500*time.Millisecond {
			t.Errorf("expected ProfileDelay 500ms, got %v", cfg.ProfileDelay)
		}
	})

	t.Run("default cache lifetimes", func(t *testing.T) {
		t.Parallel()
		if cfg.ProfileTTL != 30*24*time.Hour {
			t.Errorf("expected ProfileTTL 30 days, got %v", cfg.ProfileTTL)
		}
		if cfg.ViewerTTL != time.Hour {
			t.Errorf("expected ViewerTTL 60m, got %v", cfg.ViewerTTL)
		}
	})

	t.Run("default BatchConcurrency is unlimited", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchConcurrency != 0 {
			t.Errorf("expected BatchConcurrency 0, got %d", cfg.BatchConcurrency)
		}
	})

	t.Run("default MaxBodySize is 5 MiB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxBodySize != 5*1024*1024 {
			t.Errorf("expected MaxBodySize 5MiB, got %d", cfg.MaxBodySize)
		}
	})

	t.Run("default DBDir is the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("default config validates", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected defaults to validate, got %v", err)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{
			name:   "valid config returns nil",
			mutate: func(*Config) {},
		},
		{
			name:   "relative base URL",
			mutate: func(c *Config) { c.BaseURL = "/athletes" },
			want:   ErrInvalidBaseURL,
		},
		{
			name:   "non-http base URL",
			mutate: func(c *Config) { c.BaseURL = "ftp://www.strava.com" },
			want:   ErrInvalidBaseURL,
		},
		{
			name:   "http base URL is allowed",
			mutate: func(c *Config) { c.BaseURL = "http://127.0.0.1:8080" },
		},
		{
			name:   "non-numeric athlete id",
			mutate: func(c *Config) { c.AthleteID = "me" },
			want:   ErrInvalidAthleteID,
		},
		{
			name:   "numeric athlete id",
			mutate: func(c *Config) { c.AthleteID = "12345" },
		},
		{
			name:   "zero timeout",
			mutate: func(c *Config) { c.Timeout = 0 },
			want:   ErrInvalidTimeout,
		},
		{
			name:   "negative crawl delay",
			mutate: func(c *Config) { c.CrawlDelay = -time.Second },
			want:   ErrInvalidCrawlDelay,
		},
		{
			name:   "negative profile delay",
			mutate: func(c *Config) { c.ProfileDelay = -time.Millisecond },
			want:   ErrInvalidCrawlDelay,
		},
		{
			name:   "zero delays are allowed",
			mutate: func(c *Config) { c.CrawlDelay, c.ProfileDelay = 0, 0 },
		},
		{
			name:   "negative profile TTL",
			mutate: func(c *Config) { c.ProfileTTL = -time.Hour },
			want:   ErrInvalidTTL,
		},
		{
			name:   "negative viewer TTL",
			mutate: func(c *Config) { c.ViewerTTL = -time.Minute },
			want:   ErrInvalidTTL,
		},
		{
			name:   "negative concurrency",
			mutate: func(c *Config) { c.BatchConcurrency = -1 },
			want:   ErrInvalidConcurrency,
		},
		{
			name:   "conflicting report formats",
			mutate: func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			want:   ErrConflictingReportFormats,
		},
		{
			name:   "negative max body size",
			mutate: func(c *Config) { c.MaxBodySize = -1 },
			want:   ErrInvalidMaxBodySize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestConfigReportFormat(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if got := cfg.ReportFormat(); got != "text" {
		t.Errorf("expected text, got %q", got)
	}
	cfg.JSONReport = true
	if got := cfg.ReportFormat(); got != "json" {
		t.Errorf("expected json, got %q", got)
	}
	cfg.JSONReport, cfg.MarkdownReport = false, true
	if got := cfg.ReportFormat(); got != "markdown" {
		t.Errorf("expected markdown, got %q", got)
	}
}

func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns session defaults for unknown host", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Session: SiteConfig{
				Cookie:  "_strava4_session=abc",
				Headers: map[string]string{"Accept-Language": "en"},
			},
		}
		got := cf.GetSiteConfig("www.strava.com")
		if got.Cookie != "_strava4_session=abc" {
			t.Errorf("expected session cookie, got %q", got.Cookie)
		}
		if got.Headers["Accept-Language"] != "en" {
			t.Errorf("expected Accept-Language header, got %v", got.Headers)
		}
	})

	t.Run("site entry overrides session", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Session: SiteConfig{
				Cookie:    "default=1",
				AthleteID: "1",
				Headers:   map[string]string{"X-A": "a", "X-B": "b"},
			},
			Sites: map[string]SiteConfig{
				"staging.example.com": {
					Cookie:    "staging=2",
					AthleteID: "2",
					UserAgent: "followerscan-test",
					Headers:   map[string]string{"X-B": "override"},
				},
			},
		}
		got := cf.GetSiteConfig("staging.example.com")
		if got.Cookie != "staging=2" {
			t.Errorf("expected site cookie, got %q", got.Cookie)
		}
		if got.AthleteID != "2" {
			t.Errorf("expected site athlete id, got %q", got.AthleteID)
		}
		if got.UserAgent != "followerscan-test" {
			t.Errorf("expected site user agent, got %q", got.UserAgent)
		}
		if got.Headers["X-A"] != "a" || got.Headers["X-B"] != "override" {
			t.Errorf("unexpected merged headers: %v", got.Headers)
		}
	})

	t.Run("merging does not mutate session headers", func(t *testing.T) {
		t.Parallel()

		cf := &File{
			Session: SiteConfig{Headers: map[string]string{"X-B": "b"}},
			Sites: map[string]SiteConfig{
				"h": {Headers: map[string]string{"X-B": "site"}},
			},
		}
		_ = cf.GetSiteConfig("h")
		if cf.Session.Headers["X-B"] != "b" {
			t.Errorf("session headers were mutated: %v", cf.Session.Headers)
		}
	})
}

func TestConfigApplyFile(t *testing.T) {
	t.Parallel()

	t.Run("nil file is a no-op", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(nil)
		if cfg.Cookie != "" {
			t.Errorf("expected empty cookie, got %q", cfg.Cookie)
		}
	})

	t.Run("fills unset fields from the file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(&File{
			BaseURL: "http://127.0.0.1:9999",
			Proxy:   "127.0.0.1:1080",
			Session: SiteConfig{Cookie: "base=1", AthleteID: "7"},
			Sites: map[string]SiteConfig{
				"127.0.0.1:9999": {Cookie: "local=1", Headers: map[string]string{"X-Test": "1"}},
			},
		})

		if cfg.BaseURL != "http://127.0.0.1:9999" {
			t.Errorf("expected base URL from file, got %q", cfg.BaseURL)
		}
		if cfg.ProxyAddress != "127.0.0.1:1080" {
			t.Errorf("expected proxy from file, got %q", cfg.ProxyAddress)
		}
		if cfg.Cookie != "local=1" {
			t.Errorf("expected host-specific cookie, got %q", cfg.Cookie)
		}
		if cfg.AthleteID != "7" {
			t.Errorf("expected athlete id from session, got %q", cfg.AthleteID)
		}
		if cfg.Headers["X-Test"] != "1" {
			t.Errorf("expected header from file, got %v", cfg.Headers)
		}
	})

	t.Run("flag values win over the file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.Cookie = "flag=1"
		cfg.AthleteID = "99"
		cfg.Headers["X-Test"] = "flag"
		cfg.ApplyFile(&File{
			Session: SiteConfig{
				Cookie:    "file=1",
				AthleteID: "7",
				Headers:   map[string]string{"X-Test": "file"},
			},
		})

		if cfg.Cookie != "flag=1" {
			t.Errorf("expected flag cookie, got %q", cfg.Cookie)
		}
		if cfg.AthleteID != "99" {
			t.Errorf("expected flag athlete id, got %q", cfg.AthleteID)
		}
		if cfg.Headers["X-Test"] != "flag" {
			t.Errorf("expected flag header, got %q", cfg.Headers["X-Test"])
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.followerscan")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `baseURL: https://www.strava.com
proxy: 127.0.0.1:9050
session:
  cookie: "_strava4_session=abc"
  athleteId: "12345"
  headers:
    Accept-Language: en-US
sites:
  staging.example.com:
    cookie: "_strava4_session=staging"
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.BaseURL != "https://www.strava.com" {
			t.Errorf("unexpected baseURL %q", cfg.BaseURL)
		}
		if cfg.Proxy != "127.0.0.1:9050" {
			t.Errorf("unexpected proxy %q", cfg.Proxy)
		}
		if cfg.Session.Cookie != "_strava4_session=abc" {
			t.Errorf("unexpected session cookie %q", cfg.Session.Cookie)
		}
		if cfg.Session.AthleteID != "12345" {
			t.Errorf("unexpected athleteId %q", cfg.Session.AthleteID)
		}
		if cfg.Session.Headers["Accept-Language"] != "en-US" {
			t.Errorf("unexpected headers %v", cfg.Session.Headers)
		}
		if cfg.Sites["staging.example.com"].Cookie != "_strava4_session=staging" {
			t.Errorf("unexpected site entry %v", cfg.Sites)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		} else if !errors.Is(err, ErrInvalidConfigFile) {
			t.Errorf("expected ErrInvalidConfigFile, got %v", err)
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(configPath, []byte("session:\n  cookie: a=b\n"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

func TestLoadConfigFileNormalizes(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
	content := `baseURL: "https://www.strava.com/"
session:
  cookie: "Cookie: _strava4_session=abc; sp=1"
  athleteId: " 42 "
sites:
  "https://Staging.Example.com/":
    cookie: "_strava4_session=staging"
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfigFile(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://www.strava.com" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.Session.Cookie != "_strava4_session=abc; sp=1" {
		t.Errorf("expected header name stripped, got %q", cfg.Session.Cookie)
	}
	if cfg.Session.AthleteID != "42" {
		t.Errorf("expected trimmed athleteId, got %q", cfg.Session.AthleteID)
	}
	if _, ok := cfg.Sites["staging.example.com"]; !ok {
		t.Errorf("expected site keyed by host, got %v", cfg.Sites)
	}
}

func TestLoadConfigFileRejectsBadValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{name: "relative baseURL", content: "baseURL: www.strava.com\n"},
		{name: "non-http baseURL", content: "baseURL: ftp://www.strava.com\n"},
		{name: "non-numeric session athleteId", content: "session:\n  athleteId: me\n"},
		{name: "non-numeric site athleteId", content: "sites:\n  www.strava.com:\n    athleteId: abc\n"},
		{name: "empty site host", content: "sites:\n  \"\":\n    cookie: a=b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			configPath := filepath.Join(t.TempDir(), DefaultConfigFile)
			if err := os.WriteFile(configPath, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			if _, err := LoadConfigFile(configPath); !errors.Is(err, ErrInvalidConfigFile) {
				t.Errorf("expected ErrInvalidConfigFile, got %v", err)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("session: {}"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if got := FindConfigFile(configPath); got != configPath {
			t.Errorf("expected %q, got %q", configPath, got)
		}
	})

	t.Run("ignores a directory given as explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(t.TempDir()); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile("/nonexistent/path/config.yaml"); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}

func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if !strings.HasSuffix(XDGDataDir(), AppName) {
		t.Errorf("expected data dir to end with %q, got %q", AppName, XDGDataDir())
	}
	if !strings.HasSuffix(XDGConfigDir(), AppName) {
		t.Errorf("expected config dir to end with %q, got %q", AppName, XDGConfigDir())
	}
}
