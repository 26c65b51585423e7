package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/rs/zerolog"
)

const (
	OutputJSONL   = "jsonl"
	OutputSummary = "summary"
)

// Writer emits check results either as one JSON object per line or, in
// summary mode, as a single totals object written on Close.
type Writer struct {
	format  string
	encoder *json.Encoder
	totals  models.CheckSummary
	latency int64
	logger  *zerolog.Logger
}

func NewWriter(out io.Writer, format string, logger *zerolog.Logger) (*Writer, error) {
	if format != OutputJSONL && format != OutputSummary {
		return nil, fmt.Errorf("unsupported output format %q (supported: %s, %s)", format, OutputJSONL, OutputSummary)
	}

	return &Writer{
		format:  format,
		encoder: json.NewEncoder(out),
		logger:  logger,
	}, nil
}

func (w *Writer) Write(result models.CheckResult) error {
	w.totals.Total++
	switch {
	case result.Error != "":
		w.totals.Failed++
	case result.Verdict == models.VerdictBlocked:
		w.totals.Blocked++
		w.latency += result.ResponseTimeMs
	default:
		w.totals.Allowed++
		w.latency += result.ResponseTimeMs
	}

	if w.format != OutputJSONL {
		return nil
	}
	if err := w.encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to write result for %q: %w", result.Name, err)
	}
	return nil
}

// Totals returns the counts seen so far. Failed results are excluded from the
// average response time.
func (w *Writer) Totals() models.CheckSummary {
	totals := w.totals
	if decided := totals.Allowed + totals.Blocked; decided > 0 {
		totals.AvgResponseTimeS = float64(w.latency) / float64(decided) / 1000
	}
	return totals
}

func (w *Writer) Close() error {
	if w.format != OutputSummary {
		return nil
	}

	totals := w.Totals()
	w.logger.Debug().Int("total", totals.Total).Msg("writing batch summary")
	return w.encoder.Encode(totals)
}
