package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/pipeline"
)

const barWidth = 40

// Integrations lists the optional exporters and whether each one is active.
type Integrations map[string]bool

// WriteSummary prints the end-of-run statistics.
func WriteSummary(w io.Writer, label string, summary pipeline.Summary, integrations Integrations) {
	fmt.Fprintf(w, "\nSummary Statistics:\n")
	fmt.Fprintf(w, "  - Total %s: %d\n", label, summary.Total)
	fmt.Fprintf(w, "  - Allowed names: %d\n", summary.Allowed)
	fmt.Fprintf(w, "  - Blocked names: %d\n", summary.Blocked)
	if summary.Overridden > 0 {
		fmt.Fprintf(w, "  - Blocked by override rule: %d\n", summary.Overridden)
	}
	fmt.Fprintf(w, "  - Failed checks: %d\n", summary.Failed)
	fmt.Fprintf(w, "  - Average response time: %.2fs\n", summary.AvgLatency.Seconds())

	names := make([]string, 0, len(integrations))
	for name := range integrations {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		state := "Disabled"
		if integrations[name] {
			state = "Enabled"
		}
		fmt.Fprintf(w, "  - %s integration: %s\n", name, state)
	}

	for _, f := range summary.Failures {
		fmt.Fprintf(w, "  ! %q failed: %v\n", f.Text, f.Err)
	}
	for _, o := range summary.SinkFailures {
		fmt.Fprintf(w, "  ! sink %s: %v\n", o.Sink, o.Err)
	}
}

// VisualizationFileName derives the chart file name from the run start time.
func VisualizationFileName(startedAt time.Time) string {
	return fmt.Sprintf("visualization_%s.txt", startedAt.Format("20060102_150405"))
}

// Render draws the verdict share and the per-category severity distribution
// as text bars.
func Render(records []models.BatchRecord) string {
	if len(records) == 0 {
		return "No results to visualize.\n"
	}

	var b strings.Builder

	counts := map[models.Verdict]int{}
	for _, r := range records {
		counts[r.Verdict]++
	}

	b.WriteString("Band Name Verdicts\n")
	for _, v := range []models.Verdict{models.VerdictAllowed, models.VerdictBlocked} {
		share := float64(counts[v]) / float64(len(records))
		fmt.Fprintf(&b, "  %-8s %-*s %5.1f%% (%d)\n", v, barWidth, bar(share), share*100, counts[v])
	}

	distribution := map[models.Category]map[models.Severity]int{}
	var order []models.Category
	for _, r := range records {
		for _, c := range r.Categories {
			if _, ok := distribution[c.Category]; !ok {
				distribution[c.Category] = map[models.Severity]int{}
				order = append(order, c.Category)
			}
			distribution[c.Category][c.Severity]++
		}
	}

	if len(order) > 0 {
		b.WriteString("\nCategory Severity Distribution\n")
	}
	for _, category := range order {
		levels := distribution[category]
		total := 0
		for _, n := range levels {
			total += n
		}

		fmt.Fprintf(&b, "  %s\n", category)
		for _, level := range models.SeverityLevels() {
			share := float64(levels[level]) / float64(total)
			fmt.Fprintf(&b, "    %d %-6s %-*s %d\n", int(level), level.Label(), barWidth, bar(share), levels[level])
		}
	}

	return b.String()
}

// WriteVisualization renders records into dir and returns the file path.
func WriteVisualization(dir string, startedAt time.Time, records []models.BatchRecord) (string, error) {
	path := filepath.Join(dir, VisualizationFileName(startedAt))
	if err := os.WriteFile(path, []byte(Render(records)), 0o644); err != nil {
		return "", fmt.Errorf("failed to write visualization: %w", err)
	}
	return path, nil
}

func bar(share float64) string {
	n := int(share*barWidth + 0.5)
	return strings.Repeat("#", n)
}
