package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 1 * time.Second
)

//go:generate mockgen -source=gateway.go -destination=mocks/mock_backend.go -package=mocks

// Backend performs one remote classification round trip.
type Backend interface {
	Analyze(ctx context.Context, request models.ClassificationRequest) ([]models.CategoryResult, error)
}

type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type Gateway struct {
	backend Backend
	retry   RetryPolicy
	now     func() time.Time
	logger  *zerolog.Logger
}

func NewGateway(backend Backend, policy RetryPolicy, logger *zerolog.Logger) *Gateway {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}

	return &Gateway{
		backend: backend,
		retry:   policy,
		now:     time.Now,
		logger:  logger,
	}
}

// Classify sends text to the backend and returns the per-category severities.
// Transient failures are retried with exponential backoff; permanent ones and
// malformed responses fail on the spot.
func (g *Gateway) Classify(ctx context.Context, text string, categories []models.Category) (models.AnalysisResult, error) {
	request, err := newRequest(text, categories)
	if err != nil {
		return models.AnalysisResult{}, &ClassificationError{Text: text, Err: err}
	}

	backoff := retry.WithMaxRetries(uint64(g.retry.MaxAttempts-1), retry.NewExponential(g.retry.BaseDelay))

	var (
		results  []models.CategoryResult
		attempts int
		lastErr  error
	)

	start := g.now()
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++

		out, err := g.backend.Analyze(ctx, request)
		if err != nil {
			lastErr = err
			if IsRetryable(err) {
				g.logger.Warn().
					Err(err).
					Str("text", text).
					Int("attempt", attempts).
					Int("max_attempts", g.retry.MaxAttempts).
					Msg("classification attempt failed, retrying")
				return retry.RetryableError(err)
			}
			return err
		}

		results, err = validate(request, out)
		if err != nil {
			lastErr = err
			return err
		}
		return nil
	})
	elapsed := g.now().Sub(start)

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w (last error: %v)", err, lastErr)
		}
		g.logger.Error().
			Err(err).
			Str("text", text).
			Int("attempts", attempts).
			Dur("elapsed", elapsed).
			Msg("classification failed")
		return models.AnalysisResult{}, &ClassificationError{
			Text:      text,
			Attempts:  attempts,
			Transient: IsRetryable(lastErr),
			Err:       err,
		}
	}

	g.logger.Debug().
		Str("text", text).
		Int("attempts", attempts).
		Dur("elapsed", elapsed).
		Msg("classification complete")

	return models.AnalysisResult{
		Request:    request,
		Categories: results,
		Elapsed:    elapsed,
		Attempts:   attempts,
	}, nil
}

func newRequest(text string, categories []models.Category) (models.ClassificationRequest, error) {
	if strings.TrimSpace(text) == "" {
		return models.ClassificationRequest{}, ErrEmptyText
	}

	if len(categories) == 0 {
		categories = models.AllCategories()
	}

	seen := make(map[models.Category]bool, len(categories))
	requested := make([]models.Category, 0, len(categories))
	for _, name := range categories {
		c, err := models.ParseCategory(string(name))
		if err != nil {
			return models.ClassificationRequest{}, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		requested = append(requested, c)
	}

	return models.ClassificationRequest{
		Text:       text,
		Categories: requested,
	}, nil
}

// validate checks the response against the request and returns it in request order.
func validate(request models.ClassificationRequest, out []models.CategoryResult) ([]models.CategoryResult, error) {
	byCategory := make(map[models.Category]models.CategoryResult, len(out))
	for _, r := range out {
		category, err := models.ParseCategory(string(r.Category))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnexpectedCategory, r.Category)
		}
		if !r.Severity.Valid() {
			return nil, fmt.Errorf("%w: %s=%d", ErrUnexpectedSeverity, category, int(r.Severity))
		}
		byCategory[category] = models.CategoryResult{Category: category, Severity: r.Severity}
	}

	ordered := make([]models.CategoryResult, 0, len(request.Categories))
	for _, c := range request.Categories {
		r, ok := byCategory[c]
		if !ok {
			continue
		}
		ordered = append(ordered, r)
		delete(byCategory, c)
	}

	for c := range byCategory {
		return nil, fmt.Errorf("%w: %s was not requested", ErrUnexpectedCategory, c)
	}

	return ordered, nil
}
