package pipeline

import (
	"context"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/classifier"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/sink"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/verdict"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=pipeline.go -destination=mocks/mock_classifier.go -package=mocks

// Classifier is satisfied by *classifier.Gateway.
type Classifier interface {
	Classify(ctx context.Context, text string, categories []models.Category) (models.AnalysisResult, error)
}

// Request describes one run. The policy travels with the request so
// concurrent runs never share a threshold.
type Request struct {
	Texts      []string
	Categories []models.Category
	Policy     verdict.Policy
}

// Outcome is the result of evaluating one text. Err is set when
// classification failed; Record is only meaningful when Err is nil.
type Outcome struct {
	Index    int
	Text     string
	Result   models.AnalysisResult
	Decision models.Decision
	Record   models.BatchRecord
	Err      error
	Sinks    []sink.Outcome
}

type Pipeline struct {
	classifier Classifier
	publisher  *sink.Publisher
	workers    int
	now        func() time.Time
	logger     *zerolog.Logger
}

func NewPipeline(classifier Classifier, publisher *sink.Publisher, workers int, logger *zerolog.Logger) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		classifier: classifier,
		publisher:  publisher,
		workers:    workers,
		now:        time.Now,
		logger:     logger,
	}
}

// Evaluate classifies text and applies the request policy. Nothing is published.
func (p *Pipeline) Evaluate(ctx context.Context, text string, req Request) Outcome {
	result, err := p.classifier.Classify(ctx, text, req.Categories)
	if err != nil {
		p.logger.Warn().
			Err(err).
			Str("text", text).
			Msg("skipping band name")
		return Outcome{Text: text, Err: err}
	}

	decision := req.Policy.Decide(result)

	return Outcome{
		Text:     text,
		Result:   result,
		Decision: decision,
		Record:   models.NewBatchRecord(result, decision, p.now()),
	}
}

// Run evaluates every text with at most `workers` in flight, publishes the
// decided records in input order, flushes aggregating sinks once and returns
// the summary. A failed item never stops the batch. Once ctx is cancelled the
// remaining items are counted as failed, while records already decided are
// still published and flushed.
func (p *Pipeline) Run(ctx context.Context, req Request) Summary {
	n := len(req.Texts)
	outcomes := make([]Outcome, n)
	done := make(chan int, n)

	go func() {
		defer close(done)

		var g errgroup.Group
		g.SetLimit(p.workers)

		for i, text := range req.Texts {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{Index: i, Text: text, Err: &classifier.ClassificationError{Text: text, Err: err}}
				done <- i
				continue
			}

			g.Go(func() error {
				outcome := p.Evaluate(ctx, text, req)
				outcome.Index = i
				outcomes[i] = outcome
				done <- i
				return nil
			})
		}

		_ = g.Wait()
	}()

	publishCtx := context.WithoutCancel(ctx)
	acc := NewAccumulator()

	ready := make([]bool, n)
	next := 0
	for i := range done {
		ready[i] = true
		for next < n && ready[next] {
			outcome := &outcomes[next]
			if outcome.Err == nil && p.publisher != nil {
				outcome.Sinks = p.publisher.Publish(publishCtx, outcome.Record)
			}
			acc.Add(*outcome)
			next++
		}
	}

	if p.publisher != nil {
		acc.AddSinkOutcomes(p.publisher.Flush(publishCtx))
	}

	summary := acc.Summary()
	p.logger.Info().
		Int("total", summary.Total).
		Int("allowed", summary.Allowed).
		Int("blocked", summary.Blocked).
		Int("failed", summary.Failed).
		Int("sink_failures", len(summary.SinkFailures)).
		Dur("avg_latency", summary.AvgLatency).
		Msg("run complete")

	return summary
}

// GenerateVariants returns the spellings checked in single-name mode.
func GenerateVariants(name string) []string {
	return []string{
		name,
		"The " + name,
		name + " Band",
		name + " 123",
	}
}
