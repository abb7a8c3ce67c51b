package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/followerscan/internal/model"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text reports.
type SimpleWriter struct {
	baseWriter

	// verbose also lists every clean profile.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables listing clean profiles.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.ScanSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeSuspicious(&sb, summary)
	w.writeClean(&sb, summary)
	w.writeProblems(&sb, summary)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.ScanSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                       FOLLOWER SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Session:     %s\n", summary.SessionID)
	fmt.Fprintf(sb, "Scan Type:   %s\n", summary.Kind)
	if summary.ViewerID != "" {
		fmt.Fprintf(sb, "Athlete:     %s\n", summary.ViewerID)
	}
	fmt.Fprintf(sb, "Started:     %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:    %s\n", summary.Duration().Round(time.Millisecond))
	if summary.Kind == model.ScanKindFollowers {
		if summary.FollowerListCached {
			sb.WriteString("Followers:   list from cache\n")
		} else {
			fmt.Fprintf(sb, "Pages:       %d\n", summary.PagesCrawled)
		}
	}
	fmt.Fprintf(sb, "From Cache:  %d of %d\n", summary.CachedCount(), summary.Scanned())
	if len(summary.Invalid) > 0 {
		fmt.Fprintf(sb, "Invalid:     %d\n", len(summary.Invalid))
	}
	sb.WriteString("\n")
	sb.WriteString(headline(summary))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeSuspicious(sb *strings.Builder, summary *model.ScanSummary) {
	suspicious := summary.Suspicious()
	if len(suspicious) == 0 {
		return
	}

	w.section(sb, "SUSPICIOUS PROFILES")
	for _, res := range suspicious {
		writeProfileBlock(sb, res)
	}
}

// writeProfileBlock renders one suspicious profile with its reasons.
func writeProfileBlock(sb *strings.Builder, res model.Resolution) {
	rec := res.Record
	fmt.Fprintf(sb, "  [!] %s\n", rec.DisplayName())
	fmt.Fprintf(sb, "      %s\n", rec.SourceURL)
	fmt.Fprintf(sb, "      followers %s, following %s, member since %s\n",
		countText(rec.FollowersCount), countText(rec.FollowingCount), memberSinceText(rec))
	for _, reason := range res.Verdict.Reasons {
		fmt.Fprintf(sb, "      - %s\n", reason)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeClean(sb *strings.Builder, summary *model.ScanSummary) {
	clean := summary.Clean()
	if !w.verbose {
		fmt.Fprintf(sb, "%d clean profile(s)\n\n", len(clean))
		return
	}

	w.section(sb, fmt.Sprintf("CLEAN PROFILES (%d)", len(clean)))
	for _, res := range clean {
		marker := "[+]"
		if res.FromCache {
			marker = "[c]"
		}
		fmt.Fprintf(sb, "  %s %s (%s)\n", marker, res.Record.DisplayName(), res.Record.ID)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeProblems(sb *strings.Builder, summary *model.ScanSummary) {
	failed := make([]model.Resolution, 0)
	for _, res := range summary.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	if len(failed) == 0 && len(summary.Invalid) == 0 {
		return
	}

	w.section(sb, "NOT SCANNED")
	for _, res := range failed {
		fmt.Fprintf(sb, "  [x] %s: %s\n", res.Record.ID, res.Error)
	}
	for _, raw := range summary.Invalid {
		fmt.Fprintf(sb, "  [?] %s: no athlete id\n", raw)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by followerscan\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
