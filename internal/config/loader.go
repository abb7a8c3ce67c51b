package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/followerscan/internal/model"
)

// DefaultConfigFile is the config file name looked up in the working
// directory and the home directory.
const DefaultConfigFile = ".followerscan"

// XDGConfigFile is the config file name inside XDGConfigDir.
const XDGConfigFile = "config.yaml"

var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFile is returned when the file parses but holds a
	// value followerscan cannot use.
	ErrInvalidConfigFile = errors.New("invalid configuration file")
)

// LoadConfigFile reads and checks a config file. Cookies pasted together
// with their "Cookie:" header name are trimmed to the value, and site keys
// given as URLs are reduced to their host.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfigFile, err)
	}

	if cf.BaseURL != "" {
		cf.BaseURL = strings.TrimRight(strings.TrimSpace(cf.BaseURL), "/")
		u, err := url.Parse(cf.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("%w: baseURL %q is not an absolute http(s) URL", ErrInvalidConfigFile, cf.BaseURL)
		}
	}
	cf.Proxy = strings.TrimSpace(cf.Proxy)

	if err := cf.Session.normalize("session"); err != nil {
		return nil, err
	}

	sites := make(map[string]SiteConfig, len(cf.Sites))
	for key, site := range cf.Sites {
		host := siteHost(key)
		if host == "" {
			return nil, fmt.Errorf("%w: empty host in sites", ErrInvalidConfigFile)
		}
		if err := site.normalize("sites." + key); err != nil {
			return nil, err
		}
		sites[host] = site
	}
	cf.Sites = sites

	return &cf, nil
}

// normalize cleans up s in place and rejects ids that are not numeric.
func (s *SiteConfig) normalize(field string) error {
	s.Cookie = strings.TrimSpace(s.Cookie)
	if name, value, ok := strings.Cut(s.Cookie, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "cookie") {
		s.Cookie = strings.TrimSpace(value)
	}
	s.AthleteID = strings.TrimSpace(s.AthleteID)
	if s.AthleteID != "" && !model.IsAthleteID(s.AthleteID) {
		return fmt.Errorf("%w: %s.athleteId %q is not numeric", ErrInvalidConfigFile, field, s.AthleteID)
	}
	return nil
}

// siteHost accepts "www.strava.com" as well as "https://www.strava.com/".
func siteHost(key string) string {
	key = strings.TrimSpace(key)
	if u, err := url.Parse(key); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return strings.ToLower(strings.TrimRight(key, "/"))
}

// FindConfigFile returns the config file to load, or "" when there is none.
// An explicit configPath is used only if it exists. Otherwise the working
// directory, the XDG config directory and the home directory are tried in
// that order.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if fileExists(configPath) {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, path := range candidates {
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
