package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/followerscan/internal/model"
)

// MarkdownWriter outputs reports in GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.ScanSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeSuspicious(md, summary)
	w.writeProblems(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.ScanSummary) {
	md.H1("Follower Scan Report")
	md.PlainText("")

	rows := [][]string{
		{"Session", "`" + summary.SessionID + "`"},
		{"Scan Type", string(summary.Kind)},
	}
	if summary.ViewerID != "" {
		rows = append(rows, []string{"Athlete", summary.ViewerID})
	}
	rows = append(rows,
		[]string{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Duration", summary.Duration().Round(time.Millisecond).String()},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.ScanSummary) {
	suspicious := len(summary.Suspicious())
	clean := len(summary.Clean())

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Result", "Count"},
		Rows: [][]string{
			{"Suspicious", strconv.Itoa(suspicious)},
			{"Clean", strconv.Itoa(clean)},
			{"Served from cache", strconv.Itoa(summary.CachedCount())},
			{"Fetch failures", strconv.Itoa(summary.FailedCount())},
			{"**Scanned**", "**" + strconv.Itoa(summary.Scanned()) + "**"},
			{"Invalid inputs", strconv.Itoa(len(summary.Invalid))},
		},
	})
	md.PlainText("")

	if summary.Scanned() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Suspicious vs Clean"),
			piechart.WithShowData(true),
		)
		if suspicious > 0 {
			chart.LabelAndIntValue("Suspicious", uint64(suspicious))
		}
		if clean > 0 {
			chart.LabelAndIntValue("Clean", uint64(clean))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case suspicious > 0:
		md.Warningf("Found %d suspicious profile(s) out of %d scanned.", suspicious, summary.Scanned())
	case summary.FailedCount() > 0:
		md.Note("No suspicious profiles, but some profiles could not be fetched.")
	default:
		md.Tip("No suspicious profiles found.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeSuspicious(md *markdown.Markdown, summary *model.ScanSummary) {
	suspicious := summary.Suspicious()
	if len(suspicious) == 0 {
		return
	}

	md.H2("Suspicious Profiles")
	md.PlainText("")

	rows := make([][]string, len(suspicious))
	for i, res := range suspicious {
		rec := res.Record
		rows[i] = []string{
			"[" + escapeCell(truncateString(rec.DisplayName(), 40)) + "](" + rec.SourceURL + ")",
			countText(rec.FollowersCount),
			countText(rec.FollowingCount),
			memberSinceText(rec),
			escapeCell(strings.Join(res.Verdict.Reasons, "; ")),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Athlete", "Followers", "Following", "Member Since", "Reasons"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, res := range suspicious {
		md.Details(res.Record.DisplayName(), profileDetails(res.Record))
	}
	md.PlainText("")
}

// profileDetails lists the secondary fields of a record.
func profileDetails(rec model.ProfileRecord) string {
	lines := []string{
		"Athlete ID: " + rec.ID,
		"Location: " + orDash(rec.LocationText()),
		"Clubs: " + strconv.Itoa(rec.ClubCount),
		"Premium avatar: " + strconv.FormatBool(rec.IsPremium),
		"Can block: " + strconv.FormatBool(rec.CanBlock),
	}
	if rec.AvatarURL != nil {
		lines = append(lines, "Avatar: "+*rec.AvatarURL)
	}
	return strings.Join(lines, "\n")
}

func (w *MarkdownWriter) writeProblems(md *markdown.Markdown, summary *model.ScanSummary) {
	items := make([]string, 0)
	for _, res := range summary.Results {
		if res.Failed() {
			items = append(items, "`"+res.Record.ID+"`: "+res.Error)
		}
	}
	for _, raw := range summary.Invalid {
		items = append(items, "`"+raw+"`: no athlete id")
	}
	if len(items) == 0 {
		return
	}

	md.H2("Not Scanned")
	md.PlainText("")
	md.BulletList(items...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [followerscan](https://github.com/nao1215/followerscan)*")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
