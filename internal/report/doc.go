// Package report renders scan summaries.
//
// Writers for the supported formats:
//   - SimpleWriter: human-readable text for the terminal
//   - MarkdownWriter: a shareable document with tables and a pie chart
//   - JSONWriter: structured output for other tools
//
// All writers implement the Writer interface and can be combined with
// MultiWriter. AlertWriter prints suspicious profiles one at a time while
// a scan is still running, and HistoryWriter lists past scan sessions.
package report
