package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/followerscan/internal/database"
	"github.com/nao1215/followerscan/internal/model"
)

// createTestSummary creates a summary with one suspicious, one clean, one
// failed and one invalid entry.
func createTestSummary() *model.ScanSummary {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return &model.ScanSummary{
		SessionID:    "6f1c6c1e-1111-4a8e-9a55-000000000001",
		Kind:         model.ScanKindFollowers,
		ViewerID:     "99",
		StartedAt:    start,
		FinishedAt:   start.Add(90 * time.Second),
		PagesCrawled: 3,
		Results: []model.Resolution{
			{
				Record: model.ProfileRecord{
					ID:             "1",
					Name:           model.StringPtr("Wang Wei"),
					Location:       model.StringPtr("Shenzhen"),
					FollowersCount: model.IntPtr(2),
					FollowingCount: model.IntPtr(300),
					SourceURL:      "https://www.strava.com/athletes/1",
				},
				FromCache: true,
				Verdict: model.Verdict{
					Suspicious: true,
					Reasons:    []string{"Likely Chinese bot", "Low follower count", "High follow ratio (150.00)"},
				},
			},
			{
				Record: model.ProfileRecord{
					ID:             "2",
					Name:           model.StringPtr("Dana Miles"),
					FollowersCount: model.IntPtr(120),
					FollowingCount: model.IntPtr(80),
					MemberSince:    model.TimePtr(time.Date(2015, 1, 5, 0, 0, 0, 0, time.UTC)),
					SourceURL:      "https://www.strava.com/athletes/2",
				},
				Verdict: model.Verdict{Reasons: []string{}},
			},
			{
				Record:  model.NewEmptyProfile("3", "https://www.strava.com/athletes/3"),
				Verdict: model.Verdict{Reasons: []string{}},
				Error:   "profile not found: athlete 3",
			},
		},
		Invalid: []string{"https://www.strava.com/dashboard"},
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes headline and suspicious profiles", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"FOLLOWER SCAN REPORT",
			"Found 1 suspicious profile(s) out of 3 scanned",
			"2 clean profile(s)",
			"Wang Wei",
			"https://www.strava.com/athletes/1",
			"- Low follower count",
			"followers 2, following 300, member since -",
			"[x] 3: profile not found",
			"[?] https://www.strava.com/dashboard",
			"Invalid:     1",
			"Pages:       3",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "Dana Miles") {
			t.Error("expected clean profiles to be hidden without verbose")
		}
	})

	t.Run("verbose lists clean profiles", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestSummary()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "CLEAN PROFILES (2)") || !strings.Contains(buf.String(), "Dana Miles (2)") {
			t.Errorf("expected clean section, got:\n%s", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewMarkdownWriter(&buf).Write(createTestSummary())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 {
		t.Error("expected non-zero byte count")
	}

	output := buf.String()
	for _, want := range []string{
		"# Follower Scan Report",
		"## Summary",
		"pie",
		"Suspicious vs Clean",
		"[!WARNING]",
		"## Suspicious Profiles",
		"Wang Wei",
		"Low follower count",
		"<details>",
		"Shenzhen",
		"## Not Scanned",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}
}

func TestMarkdownWriterClean(t *testing.T) {
	t.Parallel()

	summary := &model.ScanSummary{SessionID: "s", Kind: model.ScanKindBatch, Results: []model.Resolution{}}
	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "mermaid") {
		t.Error("expected no chart for an empty scan")
	}
	if !strings.Contains(buf.String(), "[!TIP]") {
		t.Error("expected the all-clear tip")
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("1.2.3"))
	if _, err := w.Write(createTestSummary()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got struct {
		Version string     `json:"version"`
		Message string     `json:"message"`
		Totals  JSONTotals `json:"totals"`
		Scan    struct {
			SessionID string `json:"session_id"`
			Results   []struct {
				Profile struct {
					ID        string `json:"id"`
					Followers *int   `json:"followers"`
				} `json:"profile"`
				FromCache bool `json:"fromCache"`
			} `json:"results"`
		} `json:"scan"`
	}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if got.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", got.Version)
	}
	if got.Totals != (JSONTotals{Scanned: 3, Suspicious: 1, Clean: 2, Cached: 1, Failed: 1, Invalid: 1}) {
		t.Errorf("unexpected totals %+v", got.Totals)
	}
	if len(got.Scan.Results) != 3 || !got.Scan.Results[0].FromCache {
		t.Errorf("unexpected results %+v", got.Scan.Results)
	}
	if got.Scan.Results[2].Profile.Followers != nil {
		t.Error("expected unknown follower count to stay null")
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected trailing newline")
	}
}

func TestNewWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{"text", false},
		{"Markdown", false},
		{"md", false},
		{"json", false},
		{"xml", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()

			_, err := NewWriter(tt.format, &bytes.Buffer{}, "dev", false)
			if tt.wantErr != (err != nil) {
				t.Fatalf("format %q: unexpected error %v", tt.format, err)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("expected ErrUnknownFormat, got %v", err)
			}
		})
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
	n, err := m.Write(createTestSummary())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
	}
}

func TestAlertWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := NewAlertWriter(&buf)
	summary := createTestSummary()
	res := summary.Results[0]

	if err := a.Notify(context.Background(), res.Record, res.Verdict.Reasons); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Count() != 1 {
		t.Errorf("expected count 1, got %d", a.Count())
	}
	output := buf.String()
	if !strings.Contains(output, "Suspicious follower #1: Wang Wei") || !strings.Contains(output, "- Likely Chinese bot") {
		t.Errorf("unexpected alert:\n%s", output)
	}
}

func TestHistoryWriter(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := NewHistoryWriter(&buf).Write(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No scans recorded yet.") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("lists sessions", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		err := NewHistoryWriter(&buf).Write([]database.SessionRecord{{
			ID:         "abc",
			Kind:       model.ScanKindBatch,
			StartedAt:  time.Now(),
			Scanned:    12,
			Suspicious: 3,
		}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "abc") || !strings.Contains(output, "batch") || !strings.Contains(output, "12") {
			t.Errorf("unexpected output:\n%s", output)
		}
	})
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	if got := truncateString("short", 10); got != "short" {
		t.Errorf("expected unchanged, got %q", got)
	}
	if got := truncateString("a longer name", 8); got != "a lon..." {
		t.Errorf("expected truncation, got %q", got)
	}
	if got := truncateString("王伟王伟王伟", 5); got != "王伟..." {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
}
