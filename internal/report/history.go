package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/followerscan/internal/database"
)

// HistoryWriter lists recorded scan sessions as a Markdown table.
type HistoryWriter struct {
	baseWriter
}

// NewHistoryWriter creates a HistoryWriter.
func NewHistoryWriter(output io.Writer) *HistoryWriter {
	return &HistoryWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs one row per session, newest first as given.
func (w *HistoryWriter) Write(sessions []database.SessionRecord) error {
	md := markdown.NewMarkdown(w.output)

	if len(sessions) == 0 {
		md.PlainText("No scans recorded yet.")
		return md.Build()
	}

	rows := make([][]string, len(sessions))
	for i, s := range sessions {
		rows[i] = []string{
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			string(s.Kind),
			orDash(s.ViewerID),
			strconv.Itoa(s.Scanned),
			strconv.Itoa(s.Suspicious),
			strconv.Itoa(s.Cached),
			strconv.Itoa(s.Failed),
			s.ID,
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Started", "Type", "Athlete", "Scanned", "Suspicious", "Cached", "Failed", "Session"},
		Rows:   rows,
	})
	return md.Build()
}
