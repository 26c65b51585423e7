package sink

import (
	"context"
	"fmt"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/rs/zerolog"
)

//go:generate mockgen -source=sink.go -destination=mocks/mock_sink.go -package=mocks

// Sink consumes decided records (console, CSV, metrics, log exporter, etc.).
type Sink interface {
	Name() string
	Write(ctx context.Context, record models.BatchRecord) error
}

// Flusher is implemented by sinks that buffer records until the end of a batch.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Closer is implemented by sinks holding resources.
type Closer interface {
	Close(ctx context.Context) error
}

// SinkError is a failure of one sink for one operation. It never stops the
// other sinks from running.
type SinkError struct {
	Sink string
	Op   string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s %s failed: %v", e.Sink, e.Op, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// Outcome reports what one sink did with one operation; Err is nil on success.
type Outcome struct {
	Sink string
	Err  error
}

// Failures returns only the failed outcomes.
func Failures(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Publisher fans each record out to every configured sink.
type Publisher struct {
	sinks  []Sink
	logger *zerolog.Logger
}

func NewPublisher(logger *zerolog.Logger, sinks ...Sink) *Publisher {
	return &Publisher{
		sinks:  sinks,
		logger: logger,
	}
}

// Names lists the configured sinks in registration order.
func (p *Publisher) Names() []string {
	names := make([]string, len(p.sinks))
	for i, s := range p.sinks {
		names[i] = s.Name()
	}
	return names
}

// Publish writes record to every sink. Errors and panics are converted into
// outcomes; a failing sink does not affect the others.
func (p *Publisher) Publish(ctx context.Context, record models.BatchRecord) []Outcome {
	outcomes := make([]Outcome, 0, len(p.sinks))
	for _, s := range p.sinks {
		err := p.invoke(s.Name(), "write", func() error {
			return s.Write(ctx, record)
		})
		outcomes = append(outcomes, Outcome{Sink: s.Name(), Err: err})
	}
	return outcomes
}

// Flush flushes every sink that buffers records.
func (p *Publisher) Flush(ctx context.Context) []Outcome {
	var outcomes []Outcome
	for _, s := range p.sinks {
		flusher, ok := s.(Flusher)
		if !ok {
			continue
		}
		err := p.invoke(s.Name(), "flush", func() error {
			return flusher.Flush(ctx)
		})
		outcomes = append(outcomes, Outcome{Sink: s.Name(), Err: err})
	}
	return outcomes
}

// Close releases sink resources.
func (p *Publisher) Close(ctx context.Context) []Outcome {
	var outcomes []Outcome
	for _, s := range p.sinks {
		closer, ok := s.(Closer)
		if !ok {
			continue
		}
		err := p.invoke(s.Name(), "close", func() error {
			return closer.Close(ctx)
		})
		outcomes = append(outcomes, Outcome{Sink: s.Name(), Err: err})
	}
	return outcomes
}

func (p *Publisher) invoke(name string, op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SinkError{Sink: name, Op: op, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			p.logger.Error().
				Err(err).
				Str("sink", name).
				Str("op", op).
				Msg("sink failed")
		}
	}()

	if err := fn(); err != nil {
		return &SinkError{Sink: name, Op: op, Err: err}
	}
	return nil
}
