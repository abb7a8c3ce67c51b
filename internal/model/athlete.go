package model

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultBaseURL is the site the crawler talks to.
const DefaultBaseURL = "https://www.strava.com"

// NotFoundPath is where the site redirects requests for missing athletes.
const NotFoundPath = "/athletes/search"

var athleteIDPattern = regexp.MustCompile(`/athletes/(\d+)`)

// ProfileURL returns the canonical profile URL for an athlete.
func ProfileURL(baseURL, athleteID string) string {
	return strings.TrimRight(baseURL, "/") + "/athletes/" + athleteID
}

// FollowersPageURL returns the URL of one page of an athlete's follower listing.
func FollowersPageURL(baseURL, athleteID string, page int) string {
	return fmt.Sprintf("%s/athletes/%s/follows?page=%d&page_uses_modern_javascript=true&type=followers",
		strings.TrimRight(baseURL, "/"), athleteID, page)
}

// ExtractAthleteID returns the numeric athlete id embedded in a profile URL
// or path, or "" when there is none.
func ExtractAthleteID(rawURL string) string {
	m := athleteIDPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsNotFoundURL reports whether a final (post-redirect) URL points at the
// athlete search page the site uses in place of a 404.
func IsNotFoundURL(finalURL string) bool {
	u, err := url.Parse(finalURL)
	if err != nil {
		return strings.Contains(finalURL, NotFoundPath)
	}
	return strings.HasPrefix(u.Path, NotFoundPath)
}

// IsAthleteID reports whether s looks like an athlete identifier.
func IsAthleteID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
