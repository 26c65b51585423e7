package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/batch"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/config"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/executor"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/setup"
	applog "github.com/povarna/generative-ai-agents/bandcheck/internal/setup/logger"
	"github.com/rs/zerolog"
)

type batchFlags struct {
	input   string
	output  string
	format  string
	workers int
	csv     bool
	dryRun  bool
}

func parseFlags() batchFlags {
	var f batchFlags
	flag.StringVar(&f.input, "input", "", "Input file relative path ('-' for stdin)")
	flag.StringVar(&f.output, "output", "", "Output file relative path (default stdout)")
	flag.StringVar(&f.format, "format", batch.OutputJSONL, "Output format: 'jsonl' or 'summary'")
	flag.IntVar(&f.workers, "workers", 5, "Concurrent classification workers")
	flag.BoolVar(&f.csv, "csv", false, "Also write results_YYYYMMDD_HHMMSS.csv into the checker output dir")
	flag.BoolVar(&f.dryRun, "dry-run", false, "Validate input without classifying")
	flag.Parse()
	return f
}

func main() {
	startTime := time.Now()
	f := parseFlags()

	if err := godotenv.Load(); err != nil {
		_, _ = io.WriteString(os.Stderr, "no .env file found, using environment variables\n")
	}
	cfg := setup.LoadConfig()
	logger := applog.New(cfg.LogLevel, true)

	if f.input == "" {
		logger.Fatal().Msg("required flag -input not provided")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, inputFormat, closeIn, err := openInput(f.input)
	if err != nil {
		logger.Fatal().Err(err).Str("file", f.input).Msg("Failed to open input file")
	}
	defer closeIn()

	names, invalid := readNames(ctx, in, inputFormat, &logger)
	logger.Info().Int("total", len(names)).Int("errors", invalid).Msg("Input parsed")

	if f.dryRun {
		if invalid > 0 {
			logger.Fatal().Int("errors", invalid).Msg("Validation failed")
		}
		logger.Info().Msg("Validation successful")
		return
	}

	checker, err := config.LoadCheckerConfig(cfg.CheckerConfigPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load checker config")
	}
	checker.Checker.Workers = f.workers

	deps, err := setup.Wire(ctx, cfg, setup.Options{
		CSV:       f.csv,
		StartedAt: startTime,
		Checker:   checker,
	}, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer deps.Close(context.WithoutCancel(ctx))

	out, closeOut, err := openOutput(f.output)
	if err != nil {
		logger.Fatal().Err(err).Str("file", f.output).Msg("Failed to create output file")
	}
	defer closeOut()

	writer, err := batch.NewWriter(out, f.format, deps.Logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create writer")
	}

	summary := deps.Pipeline.Run(ctx, deps.Request(names, false))

	for _, result := range executor.Results(names, summary) {
		if err := writer.Write(result); err != nil {
			logger.Error().Err(err).Str("name", result.Name).Msg("Failed to write result")
		}
	}
	if err := writer.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to write summary")
	}

	logger.Info().
		Int("allowed", summary.Allowed).
		Int("blocked", summary.Blocked).
		Int("failed", summary.Failed).
		Int("sink_failures", len(summary.SinkFailures)).
		Dur("duration", time.Since(startTime)).
		Msg("Batch complete")
}

// openInput resolves "-" to stdin; files get their format from the extension.
func openInput(path string) (io.Reader, batch.Format, func(), error) {
	if path == "-" {
		return os.Stdin, batch.FormatText, func() {}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, batch.FormatText, nil, err
	}
	return file, batch.FormatForPath(path), func() { _ = file.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { _ = file.Close() }, nil
}

// readNames drains the reader, logging and counting invalid lines.
func readNames(ctx context.Context, in io.Reader, format batch.Format, logger *zerolog.Logger) ([]string, int) {
	var (
		names   []string
		invalid int
	)
	for record := range batch.NewReader(in, format, logger).ReadAll(ctx) {
		if record.Error != nil {
			logger.Error().Int("line", record.LineNumber).Err(record.Error).Msg("Invalid record")
			invalid++
			continue
		}
		names = append(names, record.Name)
	}
	return names, invalid
}
