package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/followerscan/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is embedded in every document.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion sets the tool version recorded in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONTotals are the headline counts of a scan.
type JSONTotals struct {
	Scanned    int `json:"scanned"`
	Suspicious int `json:"suspicious"`
	Clean      int `json:"clean"`
	Cached     int `json:"cached"`
	Failed     int `json:"failed"`
	Invalid    int `json:"invalid"`
}

// JSONReport wraps a summary with output metadata.
type JSONReport struct {
	// Version is the followerscan version that produced the report.
	Version string `json:"version,omitempty"`

	// Message is the one-line verdict.
	Message string `json:"message"`

	// Totals are precomputed counts.
	Totals JSONTotals `json:"totals"`

	// Scan is the full summary.
	Scan *model.ScanSummary `json:"scan"`
}

// NewJSONReport builds the JSON document for summary.
func NewJSONReport(summary *model.ScanSummary, version string) *JSONReport {
	return &JSONReport{
		Version: version,
		Message: headline(summary),
		Totals: JSONTotals{
			Scanned:    summary.Scanned(),
			Suspicious: len(summary.Suspicious()),
			Clean:      len(summary.Clean()),
			Cached:     summary.CachedCount(),
			Failed:     summary.FailedCount(),
			Invalid:    len(summary.Invalid),
		},
		Scan: summary,
	}
}

// Write outputs the summary in JSON format.
func (w *JSONWriter) Write(summary *model.ScanSummary) (int, error) {
	return w.writeJSON(NewJSONReport(summary, w.version))
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
