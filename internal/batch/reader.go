package batch

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

type Format int

const (
	FormatText Format = iota
	FormatCSV
)

// FormatForPath picks CSV for .csv files and one-name-per-line otherwise.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatText
}

// InputRecord is one band name read from the input, or the error that
// prevented reading it.
type InputRecord struct {
	LineNumber int
	Name       string
	Error      error
}

type Reader struct {
	source io.Reader
	format Format
	logger *zerolog.Logger
}

func NewReader(source io.Reader, format Format, logger *zerolog.Logger) *Reader {
	return &Reader{
		source: source,
		format: format,
		logger: logger,
	}
}

// ReadAll streams names until EOF or ctx cancellation. Blank entries are skipped.
func (r *Reader) ReadAll(ctx context.Context) <-chan InputRecord {
	out := make(chan InputRecord)

	go func() {
		defer close(out)

		var err error
		switch r.format {
		case FormatCSV:
			err = r.readCSV(ctx, out)
		default:
			err = r.readLines(ctx, out)
		}

		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error().Err(err).Msg("failed to read batch input")
		}
	}()

	return out
}

func (r *Reader) readLines(ctx context.Context, out chan<- InputRecord) error {
	scanner := bufio.NewScanner(r.source)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}

		if !send(ctx, out, InputRecord{LineNumber: lineNumber, Name: name}) {
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		send(ctx, out, InputRecord{LineNumber: lineNumber + 1, Error: fmt.Errorf("read line: %w", err)})
		return err
	}
	return nil
}

// readCSV takes the first column of every row.
func (r *Reader) readCSV(ctx context.Context, out chan<- InputRecord) error {
	reader := csv.NewReader(r.source)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				if !send(ctx, out, InputRecord{LineNumber: parseErr.StartLine, Error: err}) {
					return ctx.Err()
				}
				continue
			}
			send(ctx, out, InputRecord{Error: err})
			return err
		}

		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}

		line, _ := reader.FieldPos(0)
		if !send(ctx, out, InputRecord{LineNumber: line, Name: name}) {
			return ctx.Err()
		}
	}
}

func send(ctx context.Context, out chan<- InputRecord, record InputRecord) bool {
	select {
	case out <- record:
		return true
	case <-ctx.Done():
		return false
	}
}

// ReadFile collects every name from path. Unreadable entries are logged with
// their line number and skipped.
func ReadFile(ctx context.Context, path string, logger *zerolog.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	var names []string
	for record := range NewReader(f, FormatForPath(path), logger).ReadAll(ctx) {
		if record.Error != nil {
			logger.Warn().
				Err(record.Error).
				Str("file", path).
				Int("line", record.LineNumber).
				Msg("skipping unreadable entry")
			continue
		}
		names = append(names, record.Name)
	}

	if err := ctx.Err(); err != nil {
		return names, err
	}
	return names, nil
}
