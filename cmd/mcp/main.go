package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/mcpadapter"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/setup"
	applog "github.com/povarna/generative-ai-agents/bandcheck/internal/setup/logger"
	"github.com/rs/zerolog/log"
)

const serverVersion = "1.0.0"

// isClosedStdin reports the normal end of a stdio session.
func isClosedStdin(err error) bool {
	return errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing")
}

func main() {
	_ = godotenv.Load()
	cfg := setup.LoadConfig()

	// stdout carries the protocol, so logs go to stderr
	logger := applog.New(cfg.LogLevel, true)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.Wire(ctx, cfg, setup.Options{}, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to load dependencies")
		os.Exit(1)
	}

	server := mcpadapter.NewServer(deps.Executor, serverVersion)
	logger.Info().Str("version", serverVersion).Msg("Serving band name tools over stdio")

	runErr := server.Run(ctx, &mcp.StdioTransport{})
	deps.Close(context.WithoutCancel(ctx))

	switch {
	case runErr == nil:
	case isClosedStdin(runErr):
		logger.Debug().Err(runErr).Msg("MCP session ended")
	default:
		logger.Error().Err(runErr).Msg("Failed to run mcp server")
		os.Exit(1)
	}
}
