package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nao1215/followerscan/internal/model"
)

// AlertWriter prints a short alert for each suspicious profile as soon as
// it is found. It satisfies pipeline.Notifier.
type AlertWriter struct {
	mu     sync.Mutex
	output io.Writer
	count  int
}

// NewAlertWriter creates an AlertWriter.
func NewAlertWriter(output io.Writer) *AlertWriter {
	return &AlertWriter{output: output}
}

// Notify writes one alert block.
func (a *AlertWriter) Notify(_ context.Context, record model.ProfileRecord, reasons []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.count++
	var sb strings.Builder
	fmt.Fprintf(&sb, "[!] Suspicious follower #%d: %s\n", a.count, record.DisplayName())
	fmt.Fprintf(&sb, "    %s\n", record.SourceURL)
	if loc := record.LocationText(); loc != "" {
		fmt.Fprintf(&sb, "    %s\n", loc)
	}
	for _, reason := range reasons {
		fmt.Fprintf(&sb, "    - %s\n", reason)
	}

	_, err := io.WriteString(a.output, sb.String())
	return err
}

// Count returns the number of alerts written.
func (a *AlertWriter) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}
