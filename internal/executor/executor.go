package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/pipeline"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/prechecks"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/verdict"
	"github.com/rs/zerolog"
)

//go:generate mockgen -source=executor.go -destination=mocks/mock_runner.go -package=mocks

const MaxNamesPerRequest = 100

var ErrInvalidRequest = errors.New("invalid check request")

// Runner runs a classification batch
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Summary
}

// Defaults is the configured policy a request may narrow.
type Defaults struct {
	Categories []models.Category
	Threshold  models.Severity
	Overrides  []verdict.OverrideRule
}

// Executor serves check requests coming from the API, MCP and stream surfaces.
type Executor struct {
	runner    Runner
	prechecks *prechecks.StageRunner
	defaults  Defaults
	logger    *zerolog.Logger
}

// NewExecutor builds an executor. A nil checks runner skips local name checks.
func NewExecutor(runner Runner, checks *prechecks.StageRunner, defaults Defaults, logger *zerolog.Logger) *Executor {
	return &Executor{
		runner:    runner,
		prechecks: checks,
		defaults:  defaults,
		logger:    logger,
	}
}

func (e *Executor) Execute(ctx context.Context, req models.CheckRequest) (models.CheckResponse, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	run, err := e.buildRequest(req)
	if err != nil {
		e.logger.Warn().Err(err).Str("requestID", req.RequestID).Msg("rejected check request")
		return models.CheckResponse{RequestID: req.RequestID}, err
	}

	e.logger.Info().
		Str("requestID", req.RequestID).
		Int("names", len(run.Texts)).
		Int("threshold", int(run.Policy.Threshold)).
		Msg("starting check")

	summary := e.runner.Run(ctx, run)

	response := models.CheckResponse{
		RequestID: req.RequestID,
		Threshold: run.Policy.Threshold,
		Results:   Results(run.Texts, summary),
		Summary:   SummaryOf(summary),
	}

	e.logger.Info().
		Str("requestID", req.RequestID).
		Int("allowed", summary.Allowed).
		Int("blocked", summary.Blocked).
		Int("failed", summary.Failed).
		Msg("check complete")

	return response, nil
}

func (e *Executor) buildRequest(req models.CheckRequest) (pipeline.Request, error) {
	var names []string
	for _, name := range req.Names {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return pipeline.Request{}, fmt.Errorf("%w: at least one name is required", ErrInvalidRequest)
	}
	if len(names) > MaxNamesPerRequest {
		return pipeline.Request{}, fmt.Errorf("%w: at most %d names per request, got %d", ErrInvalidRequest, MaxNamesPerRequest, len(names))
	}
	if e.prechecks != nil {
		for _, name := range names {
			if failure, failed := e.prechecks.FirstFailure(name); failed {
				return pipeline.Request{}, fmt.Errorf("%w: name %q failed %s: %s", ErrInvalidRequest, name, failure.Name, failure.Reason)
			}
		}
	}

	categories := e.defaults.Categories
	if len(req.Categories) > 0 {
		categories = make([]models.Category, 0, len(req.Categories))
		for _, name := range req.Categories {
			category, err := models.ParseCategory(name)
			if err != nil {
				return pipeline.Request{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
			}
			categories = append(categories, category)
		}
	}

	threshold := e.defaults.Threshold
	if req.Threshold != nil {
		threshold = models.Severity(*req.Threshold)
		if !threshold.Valid() {
			return pipeline.Request{}, fmt.Errorf("%w: threshold %d must be one of 0, 2, 4, 6", ErrInvalidRequest, *req.Threshold)
		}
	}

	policy := verdict.Policy{Threshold: threshold}
	if req.Variants && len(names) == 1 {
		names = pipeline.GenerateVariants(names[0])
		policy.Overrides = e.defaults.Overrides
	}

	return pipeline.Request{
		Texts:      names,
		Categories: categories,
		Policy:     policy,
	}, nil
}

// SummaryOf converts a run summary to its wire form.
func SummaryOf(summary pipeline.Summary) models.CheckSummary {
	return models.CheckSummary{
		Total:            summary.Total,
		Allowed:          summary.Allowed,
		Blocked:          summary.Blocked,
		Failed:           summary.Failed,
		AvgResponseTimeS: summary.AvgLatency.Seconds(),
		SinkFailures:     len(summary.SinkFailures),
	}
}

// Results lines records and failures back up with the submitted texts.
func Results(texts []string, summary pipeline.Summary) []models.CheckResult {
	failed := make(map[int]error, len(summary.Failures))
	for _, f := range summary.Failures {
		failed[f.Index] = f.Err
	}

	results := make([]models.CheckResult, 0, len(texts))
	next := 0
	for i, text := range texts {
		if err, ok := failed[i]; ok {
			results = append(results, models.CheckResult{Name: text, Error: err.Error()})
			continue
		}
		if next >= len(summary.Records) {
			break
		}

		record := summary.Records[next]
		next++

		max := models.SeveritySafe
		for _, c := range record.Categories {
			if c.Severity > max {
				max = c.Severity
			}
		}

		results = append(results, models.CheckResult{
			Name:           record.Text,
			Verdict:        record.Verdict,
			MaxSeverity:    max,
			Categories:     record.Categories,
			Override:       record.Override,
			ResponseTimeMs: record.ResponseTimeMs(),
		})
	}
	return results
}
