package config

// SiteConfig holds the session settings for one site host.
type SiteConfig struct {
	// Cookie is the raw Cookie header of a signed-in session.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests.
	Headers map[string]string `yaml:"headers,omitempty"`

	// AthleteID is the signed-in athlete, skipping discovery.
	AthleteID string `yaml:"athleteId,omitempty"`

	// UserAgent overrides the default User-Agent.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .followerscan configuration file.
type File struct {
	// BaseURL overrides the default site root.
	BaseURL string `yaml:"baseURL,omitempty"`

	// Proxy is an optional SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// Session applies to every host unless overridden in Sites.
	Session SiteConfig `yaml:"session,omitempty"`

	// Sites maps a host (e.g. "www.strava.com") to its own session settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the session settings for host, with the
// site-specific entry layered over Session.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Session
	if cf.Session.Headers != nil {
		result.Headers = make(map[string]string, len(cf.Session.Headers))
		for k, v := range cf.Session.Headers {
			result.Headers[k] = v
		}
	}

	siteConfig, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.AthleteID != "" {
		result.AthleteID = siteConfig.AthleteID
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}
	return result
}
