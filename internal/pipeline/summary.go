package pipeline

import (
	"time"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
	"github.com/povarna/generative-ai-agents/bandcheck/internal/sink"
)

type Failure struct {
	Index int
	Text  string
	Err   error
}

// Summary aggregates a run. Failed items are excluded from the verdict
// counts and from the average latency.
type Summary struct {
	Total        int
	Allowed      int
	Blocked      int
	Failed       int
	Overridden   int
	AvgLatency   time.Duration
	SinkFailures []sink.Outcome
	Records      []models.BatchRecord
	Failures     []Failure
}

// Accumulator folds outcomes into a Summary.
type Accumulator struct {
	summary      Summary
	totalLatency time.Duration
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Add(o Outcome) {
	a.summary.Total++
	a.AddSinkOutcomes(o.Sinks)

	if o.Err != nil {
		a.summary.Failed++
		a.summary.Failures = append(a.summary.Failures, Failure{Index: o.Index, Text: o.Text, Err: o.Err})
		return
	}

	switch o.Decision.Verdict {
	case models.VerdictBlocked:
		a.summary.Blocked++
	default:
		a.summary.Allowed++
	}
	if o.Decision.Override != "" {
		a.summary.Overridden++
	}

	a.totalLatency += o.Record.Elapsed
	a.summary.Records = append(a.summary.Records, o.Record)
}

// AddSinkOutcomes records the failed sink operations among outcomes.
func (a *Accumulator) AddSinkOutcomes(outcomes []sink.Outcome) {
	a.summary.SinkFailures = append(a.summary.SinkFailures, sink.Failures(outcomes)...)
}

func (a *Accumulator) Summary() Summary {
	s := a.summary
	if decided := s.Allowed + s.Blocked; decided > 0 {
		s.AvgLatency = a.totalLatency / time.Duration(decided)
	}
	return s
}

// Summarize folds outcomes in order.
func Summarize(outcomes []Outcome) Summary {
	acc := NewAccumulator()
	for _, o := range outcomes {
		acc.Add(o)
	}
	return acc.Summary()
}
