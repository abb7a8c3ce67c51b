package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// fakeSite serves a tiny version of the athlete site: a dashboard naming
// athlete 100, one listing page with followers 1 and 2, their profiles and
// a notifications feed announcing follower 2.
type fakeSite struct {
	*httptest.Server

	mu      sync.Mutex
	cookies []string
	paths   []string
}

func newFakeSite(t *testing.T) *fakeSite {
	t.Helper()

	site := &fakeSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dashboard", func(w http.ResponseWriter, _ *http.Request) {
		writeHTML(w, `<div class="user-menu"><a href="/athletes/100">Me</a></div>`)
	})
	mux.HandleFunc("GET /athletes/{id}/follows", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "100" && r.URL.Query().Get("page") == "1" {
			writeHTML(w, `<ul><li data-athlete-id="1">one</li><li data-athlete-id="2">two</li></ul>`)
			return
		}
		writeHTML(w, `<ul></ul>`)
	})
	mux.HandleFunc("GET /athletes/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch r.PathValue("id") {
		case "1":
			writeHTML(w, profileHTML("Wang Wei", 2, 50))
		case "2":
			writeHTML(w, profileHTML("Jane Runner", 120, 80))
		default:
			http.Redirect(w, r, "/athletes/search", http.StatusFound)
		}
	})
	mux.HandleFunc("GET /athletes/search", func(w http.ResponseWriter, _ *http.Request) {
		writeHTML(w, `<h1>Search</h1>`)
	})
	mux.HandleFunc("GET /notifications", func(w http.ResponseWriter, _ *http.Request) {
		writeHTML(w, `<ul id="notifications-list">
<li><a href="/athletes/2">Jane Runner</a> is your new follower</li>
<li><a href="/activities/9">Someone</a> gave you kudos</li>
</ul>`)
	})

	site.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		site.mu.Lock()
		site.cookies = append(site.cookies, r.Header.Get("Cookie"))
		site.paths = append(site.paths, r.URL.Path)
		site.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(site.Close)
	return site
}

func (s *fakeSite) requestsTo(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.paths {
		if p == path {
			n++
		}
	}
	return n
}

func (s *fakeSite) allCookies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cookies...)
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<html><body>%s</body></html>", body)
}

func profileHTML(name string, followers, following int) string {
	return fmt.Sprintf(`<h1 class="athlete-name" title="Member Since: January 5, 2015">%s</h1>
<ul class="inline-stats"><li>%d Followers</li><li>%d Following</li></ul>`, name, followers, following)
}

// writeConfigFile writes a .followerscan file carrying a session cookie and
// returns its path.
func writeConfigFile(t *testing.T, cookie string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".followerscan")
	content := fmt.Sprintf("session:\n  cookie: %q\n", cookie)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
