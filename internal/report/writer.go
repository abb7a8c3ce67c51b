package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/followerscan/internal/model"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Format names accepted by NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Writer renders a scan summary to its destination.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary *model.ScanSummary) (int, error)
}

// NewWriter returns the writer for format. version is embedded in JSON
// output; verbose lists clean profiles in text output.
func NewWriter(format string, output io.Writer, version string, verbose bool) (Writer, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return NewSimpleWriter(output, WithVerbose(verbose)), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint(), WithVersion(version)), nil
	default:
		return nil, fmt.Errorf("%w: %q (use text, markdown or json)", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every writer, stopping at the first error.
func (m *MultiWriter) Write(summary *model.ScanSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// headline is the one-line verdict shown at the top of every report.
func headline(summary *model.ScanSummary) string {
	return fmt.Sprintf("Found %d suspicious profile(s) out of %d scanned",
		len(summary.Suspicious()), summary.Scanned())
}

// countText renders an optional count, "?" when unknown.
func countText(n *int) string {
	if n == nil {
		return "?"
	}
	return strconv.Itoa(*n)
}

// memberSinceText renders an optional registration date.
func memberSinceText(record model.ProfileRecord) string {
	if record.MemberSince == nil {
		return "-"
	}
	return record.MemberSince.Format("2006-01-02")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
