package setup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/classifier"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/config"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/contentsafety"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/database"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/executor"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/llm"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/pipeline"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/prechecks"
	red "github.com/povarna/generative-ai-agents/bandcheck/internal/redis"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/report"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/secrets"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/sink"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/telemetry"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/verdict"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	secretContentSafetyKey = "CONTENT_SAFETY_API_KEY"
	secretLogAnalyticsKey  = "LOG_ANALYTICS_SHARED_KEY"
)

// Options selects the per-command sinks.
type Options struct {
	// Console receives the per-record report; nil disables it.
	Console io.Writer
	// CSV enables the results file, written into the checker output dir.
	CSV       bool
	StartedAt time.Time
	// Checker overrides the YAML policy, e.g. after applying CLI flags.
	Checker *config.Config
	// Redis reuses an existing client instead of connecting from REDIS_ADDR.
	Redis *redis.Client
}

type Dependencies struct {
	Config       *Config
	Checker      *config.Config
	Gateway      *classifier.Gateway
	Publisher    *sink.Publisher
	Pipeline     *pipeline.Pipeline
	Executor     *executor.Executor
	CSV          *sink.CSVSink
	Redis        *redis.Client
	Integrations report.Integrations
	Logger       *zerolog.Logger

	closers []func(context.Context)
}

func Wire(ctx context.Context, cfg *Config, opts Options, logger *zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:       cfg,
		Checker:      opts.Checker,
		Redis:        opts.Redis,
		Integrations: report.Integrations{},
		Logger:       logger,
	}

	if deps.Checker == nil {
		checker, err := config.LoadCheckerConfig(cfg.CheckerConfigPath)
		if err != nil {
			return nil, &ConfigurationError{Setting: "checker config", Reason: "could not be loaded", Err: err}
		}
		deps.Checker = checker
	} else if err := deps.Checker.Validate(); err != nil {
		return nil, &ConfigurationError{Setting: "checker config", Reason: "is invalid", Err: err}
	}

	secretProvider, err := newSecretsProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	backend, err := newBackend(ctx, cfg, deps.Checker, secretProvider, logger)
	if err != nil {
		return nil, err
	}

	deps.Gateway = classifier.NewGateway(backend, classifier.RetryPolicy{
		MaxAttempts: deps.Checker.Retry.MaxAttempts,
		BaseDelay:   deps.Checker.Retry.BaseDelay,
	}, logger)

	sinks, err := deps.wireSinks(ctx, cfg, opts, secretProvider)
	if err != nil {
		deps.Close(ctx)
		return nil, err
	}

	deps.Publisher = sink.NewPublisher(logger, sinks...)
	deps.Pipeline = pipeline.NewPipeline(deps.Gateway, deps.Publisher, deps.Checker.Checker.Workers, logger)

	categories, _ := deps.Checker.CategoryList()
	deps.Executor = executor.NewExecutor(deps.Pipeline, prechecks.Default(), executor.Defaults{
		Categories: categories,
		Threshold:  deps.Checker.Threshold(),
		Overrides:  deps.Checker.OverrideRules(),
	}, logger)

	logger.Info().
		Str("provider", cfg.ClassifierProvider).
		Strs("sinks", deps.Publisher.Names()).
		Int("threshold", int(deps.Checker.Threshold())).
		Msg("dependencies wired")

	return deps, nil
}

// Request builds a pipeline request from the checker policy. Override rules
// are attached only when variants are being checked.
func (d *Dependencies) Request(texts []string, variants bool) pipeline.Request {
	categories, _ := d.Checker.CategoryList()

	policy := verdict.Policy{Threshold: d.Checker.Threshold()}
	if variants {
		policy.Overrides = d.Checker.OverrideRules()
	}

	return pipeline.Request{
		Texts:      texts,
		Categories: categories,
		Policy:     policy,
	}
}

// Close flushes metrics and releases connections.
func (d *Dependencies) Close(ctx context.Context) {
	if d.Publisher != nil {
		d.Publisher.Close(ctx)
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i](ctx)
	}
	d.closers = nil
}

func newSecretsProvider(ctx context.Context, cfg *Config, logger *zerolog.Logger) (secrets.Provider, error) {
	env := secrets.NewEnvProvider()

	switch cfg.SecretsProvider {
	case "", SecretsEnv:
		return env, nil
	case SecretsAWS:
		aws, err := secrets.NewAWSSecretsManagerProvider(ctx, cfg.AWSRegion, cfg.AWSSecretPrefix)
		if err != nil {
			return nil, &ConfigurationError{Setting: "SECRETS_PROVIDER", Reason: "could not be initialised", Err: err}
		}
		return secrets.NewChainProvider(logger, aws, env), nil
	default:
		return nil, &ConfigurationError{Setting: "SECRETS_PROVIDER", Reason: fmt.Sprintf("has unsupported value %q", cfg.SecretsProvider)}
	}
}

func newBackend(ctx context.Context, cfg *Config, checker *config.Config, provider secrets.Provider, logger *zerolog.Logger) (classifier.Backend, error) {
	switch cfg.ClassifierProvider {
	case "", ProviderContentSafety:
		if cfg.ContentSafetyEndpoint == "" {
			return nil, &ConfigurationError{Setting: "CONTENT_SAFETY_ENDPOINT", Reason: "is not set"}
		}
		apiKey, err := provider.Secret(ctx, secretContentSafetyKey)
		if err != nil {
			return nil, &ConfigurationError{Setting: secretContentSafetyKey, Reason: "is not available", Err: err}
		}
		client, err := contentsafety.NewClient(cfg.ContentSafetyEndpoint, apiKey, cfg.RequestTimeout)
		if err != nil {
			return nil, &ConfigurationError{Setting: "content safety client", Reason: "is invalid", Err: err}
		}
		return client, nil

	case ProviderBedrock:
		client, err := bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID)
		if err != nil {
			return nil, &ConfigurationError{Setting: "CLAUDE_MODEL_ID", Reason: "could not create Bedrock client", Err: err}
		}
		moderator, err := llm.NewModerator(client, checker.LLM.Prompt, checker.LLM.MaxTokens, logger)
		if err != nil {
			return nil, &ConfigurationError{Setting: "llm.prompt", Reason: "is invalid", Err: err}
		}
		return moderator, nil

	default:
		return nil, &ConfigurationError{Setting: "CLASSIFIER_PROVIDER", Reason: fmt.Sprintf("has unsupported value %q", cfg.ClassifierProvider)}
	}
}

func (d *Dependencies) wireSinks(ctx context.Context, cfg *Config, opts Options, provider secrets.Provider) ([]sink.Sink, error) {
	var sinks []sink.Sink

	if opts.Console != nil {
		sinks = append(sinks, sink.NewConsoleSink(opts.Console))
	}

	if opts.CSV {
		startedAt := opts.StartedAt
		if startedAt.IsZero() {
			startedAt = time.Now()
		}
		csvSink, err := sink.NewCSVSink(d.Checker.Checker.OutputDir, startedAt)
		if err != nil {
			return nil, &ConfigurationError{Setting: "checker.output_dir", Reason: "is not writable", Err: err}
		}
		d.CSV = csvSink
		sinks = append(sinks, csvSink)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.OTLPEndpoint != "",
		Endpoint: cfg.OTLPEndpoint,
		Insecure: cfg.OTLPInsecure,
		Service:  "bandcheck",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up telemetry: %w", err)
	}
	d.Integrations["Metrics"] = tp.Enabled
	if tp.Enabled {
		metricsSink, err := sink.NewMetricsSink(tp.Meter())
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics sink: %w", err)
		}
		sinks = append(sinks, metricsSink)
		d.closers = append(d.closers, func(ctx context.Context) {
			if err := tp.Shutdown(ctx); err != nil {
				d.Logger.Warn().Err(err).Msg("failed to flush metrics")
			}
		})
	}

	laSink, err := d.logAnalyticsSink(ctx, cfg, provider)
	if err != nil {
		return nil, err
	}
	d.Integrations["Log Analytics"] = laSink != nil
	if laSink != nil {
		sinks = append(sinks, laSink)
	}

	if cfg.ResultsStream != "" {
		if d.Redis == nil {
			if cfg.RedisAddr == "" {
				return nil, &ConfigurationError{Setting: "REDIS_ADDR", Reason: "is required when RESULTS_STREAM is set"}
			}
			client, err := red.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 3, d.Logger)
			if err != nil {
				return nil, err
			}
			d.Redis = client
			d.closers = append(d.closers, func(context.Context) { client.Close() })
		}
		sinks = append(sinks, sink.NewStreamSink(d.Redis, cfg.ResultsStream, cfg.StreamMaxLen))
	}
	d.Integrations["Redis stream"] = cfg.ResultsStream != ""

	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func(context.Context) { db.Close() })
		if err := db.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, sink.NewPostgresSink(db.Pool))
	}
	d.Integrations["Postgres"] = cfg.DatabaseURL != ""

	return sinks, nil
}

// logAnalyticsSink returns nil when the workspace or shared key is missing.
func (d *Dependencies) logAnalyticsSink(ctx context.Context, cfg *Config, provider secrets.Provider) (*sink.LogAnalyticsSink, error) {
	if cfg.LogAnalyticsWorkspaceID == "" {
		return nil, nil
	}

	sharedKey, err := provider.Secret(ctx, secretLogAnalyticsKey)
	if errors.Is(err, secrets.ErrSecretNotFound) {
		d.Logger.Warn().Msg("LOG_ANALYTICS_SHARED_KEY not set, skipping Log Analytics upload")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	laSink, err := sink.NewLogAnalyticsSink(sink.LogAnalyticsConfig{
		WorkspaceID: cfg.LogAnalyticsWorkspaceID,
		SharedKey:   sharedKey,
		LogType:     cfg.LogType,
		Timeout:     cfg.RequestTimeout,
	})
	if err != nil {
		return nil, &ConfigurationError{Setting: secretLogAnalyticsKey, Reason: "is invalid", Err: err}
	}
	return laSink, nil
}
