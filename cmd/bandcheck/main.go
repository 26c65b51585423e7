package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/batch"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/config"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/pipeline"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/report"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/setup"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/setup/logger"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	startedAt := time.Now()

	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	_ = godotenv.Load()

	cfg := setup.LoadConfig()
	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	log := logger.New(level, true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checker, err := config.LoadCheckerConfig(opts.configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load checker config")
		return 1
	}
	if err := opts.apply(checker); err != nil {
		log.Error().Err(err).Msg("Invalid command line options")
		return 1
	}

	deps, err := setup.Wire(ctx, cfg, setup.Options{
		Console:   stdout,
		CSV:       opts.batch != "",
		StartedAt: startedAt,
		Checker:   checker,
	}, &log)
	if err != nil {
		if errors.Is(err, setup.ErrConfiguration) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		log.Error().Err(err).Msg("Unable to load dependencies")
		return 1
	}
	defer deps.Close(context.WithoutCancel(ctx))

	switch {
	case opts.batch != "":
		return runBatch(ctx, deps, opts, startedAt, stdout, &log)
	case opts.name != "":
		checkName(ctx, deps, opts.name, stdout)
		return 0
	default:
		return interactive(ctx, deps, stdin, stdout)
	}
}

func runBatch(ctx context.Context, deps *setup.Dependencies, opts options, startedAt time.Time, stdout io.Writer, log *zerolog.Logger) int {
	names, err := batch.ReadFile(ctx, opts.batch, log)
	if err != nil {
		log.Error().Err(err).Str("file", opts.batch).Msg("Failed to read batch file")
		return 1
	}

	fmt.Fprintf(stdout, "Processing %d band names from %s\n", len(names), opts.batch)

	summary := deps.Pipeline.Run(ctx, deps.Request(names, false))
	report.WriteSummary(stdout, "names checked", summary, deps.Integrations)

	if deps.CSV != nil && len(summary.Records) > 0 {
		fmt.Fprintf(stdout, "\nResults saved to %s\n", deps.CSV.Path())
	}

	if !opts.noViz && len(summary.Records) > 0 {
		path, err := report.WriteVisualization(deps.Checker.Checker.OutputDir, startedAt, summary.Records)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to write visualization")
		} else {
			fmt.Fprintf(stdout, "Visualization saved to %s\n", path)
		}
	}

	if ctx.Err() != nil {
		return 1
	}
	return 0
}

func checkName(ctx context.Context, deps *setup.Dependencies, name string, stdout io.Writer) {
	texts := []string{name}
	variants := deps.Checker.Checker.Variants
	if variants {
		texts = pipeline.GenerateVariants(name)
	}

	summary := deps.Pipeline.Run(ctx, deps.Request(texts, variants))
	report.WriteSummary(stdout, "variants checked", summary, deps.Integrations)
}

func interactive(ctx context.Context, deps *setup.Dependencies, stdin io.Reader, stdout io.Writer) int {
	fmt.Fprintln(stdout, "Rock Band Name Checker")
	fmt.Fprintln(stdout, "Type a band name to check it, or 'quit' to exit.")

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprint(stdout, "\nBand name: ")
		if !scanner.Scan() {
			break
		}

		name := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(name) {
		case "":
			continue
		case "quit", "exit", "q":
			return 0
		}

		checkName(ctx, deps, name, stdout)
		if ctx.Err() != nil {
			return 1
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(stdout, "\nFailed to read input: %v\n", err)
		return 1
	}
	return 0
}
