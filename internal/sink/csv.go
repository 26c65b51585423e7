package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

var csvHeader = []string{"Band Name", "Verdict", "Response Time (ms)", "Categories"}

// CSVFileName derives the results file name from the batch start time.
func CSVFileName(startedAt time.Time) string {
	return fmt.Sprintf("results_%s.csv", startedAt.Format("20060102_150405"))
}

// CSVSink buffers records and writes them to a single file on Flush.
type CSVSink struct {
	path    string
	records []models.BatchRecord
	mu      sync.Mutex
}

func NewCSVSink(dir string, startedAt time.Time) (*CSVSink, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &CSVSink{path: filepath.Join(dir, CSVFileName(startedAt))}, nil
}

func (s *CSVSink) Name() string {
	return "csv"
}

// Path is where Flush writes the file.
func (s *CSVSink) Path() string {
	return s.path
}

func (s *CSVSink) Write(ctx context.Context, record models.BatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	return nil
}

// Flush rewrites the file with every record buffered so far. Nothing is
// written for an empty batch.
func (s *CSVSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 {
		return nil
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	if err := writeCSV(f, s.records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	return os.Rename(tmp, s.path)
}

func writeCSV(w io.Writer, records []models.BatchRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Text,
			string(r.Verdict),
			strconv.FormatInt(r.ResponseTimeMs(), 10),
			formatCategories(r.Categories),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row for %q: %w", r.Text, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCategories(categories []models.CategoryResult) string {
	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = fmt.Sprintf("%s: %d", c.Category, int(c.Severity))
	}
	return strings.Join(parts, "; ")
}

func parseCategories(value string) ([]models.CategoryResult, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	parts := strings.Split(value, ";")
	out := make([]models.CategoryResult, 0, len(parts))
	for _, part := range parts {
		name, level, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("malformed category entry %q", part)
		}
		category, err := models.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(level))
		if err != nil {
			return nil, fmt.Errorf("malformed severity in %q: %w", part, err)
		}
		out = append(out, models.CategoryResult{Category: category, Severity: models.Severity(n)})
	}
	return out, nil
}

// ReadCSV parses a file produced by CSVSink. Only the columns present in the
// file are restored: name, verdict, response time and categories.
func ReadCSV(path string) ([]models.BatchRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}

	records := make([]models.BatchRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("%s line %d: expected %d columns, got %d", path, i+2, len(csvHeader), len(row))
		}

		ms, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid response time: %w", path, i+2, err)
		}
		categories, err := parseCategories(row[3])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}

		records = append(records, models.BatchRecord{
			Text:       row[0],
			Verdict:    models.Verdict(row[1]),
			Elapsed:    time.Duration(ms) * time.Millisecond,
			Categories: categories,
		})
	}

	return records, nil
}
