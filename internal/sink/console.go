package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

// ConsoleSink prints a human-readable report for each record.
type ConsoleSink struct {
	out io.Writer
	mu  sync.Mutex
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

func (s *ConsoleSink) Name() string {
	return "console"
}

func (s *ConsoleSink) Write(ctx context.Context, record models.BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := io.WriteString(s.out, FormatReport(record))
	return err
}

// FormatReport renders severities, per-category status, verdict and metadata.
func FormatReport(record models.BatchRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\nAnalysis Results for %q:\n", record.Text)
	for _, c := range record.Categories {
		status := "ALLOWED"
		if c.Severity > record.Threshold {
			status = "BLOCKED"
		}
		fmt.Fprintf(&b, "  - %s: Severity %d (%s) - %s\n", c.Category, int(c.Severity), c.Severity.Label(), status)
	}

	fmt.Fprintf(&b, "\nVerdict: %s\n", record.Verdict)
	if record.Override != "" {
		fmt.Fprintf(&b, "  forced by rule: %s\n", record.Override)
	}

	b.WriteString("\nMetadata:\n")
	fmt.Fprintf(&b, "  timestamp: %s\n", record.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(&b, "  threshold: %d\n", int(record.Threshold))
	fmt.Fprintf(&b, "  response_time_ms: %d\n", record.ResponseTimeMs())

	return b.String()
}
