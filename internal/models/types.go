package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Verdict string

const (
	VerdictAllowed Verdict = "ALLOWED"
	VerdictBlocked Verdict = "BLOCKED"
)

type Category string

const (
	CategoryHate     Category = "Hate"
	CategoryViolence Category = "Violence"
	CategorySelfHarm Category = "SelfHarm"
	CategorySexual   Category = "Sexual"
)

// AllCategories returns the full category set in its canonical order.
func AllCategories() []Category {
	return []Category{CategoryHate, CategoryViolence, CategorySelfHarm, CategorySexual}
}

// ParseCategory matches a category name case-insensitively against the closed set.
func ParseCategory(name string) (Category, error) {
	for _, c := range AllCategories() {
		if strings.EqualFold(string(c), strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", name)
}

// Severity is a discrete band reported by the classification service.
// Only 0, 2, 4 and 6 are declared; the gaps are intentional.
type Severity int

const (
	SeveritySafe   Severity = 0
	SeverityLow    Severity = 2
	SeverityMedium Severity = 4
	SeverityHigh   Severity = 6
)

func SeverityLevels() []Severity {
	return []Severity{SeveritySafe, SeverityLow, SeverityMedium, SeverityHigh}
}

func (s Severity) Valid() bool {
	switch s {
	case SeveritySafe, SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

func (s Severity) Label() string {
	switch s {
	case SeveritySafe:
		return "Safe"
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	}
	return fmt.Sprintf("Unknown(%d)", int(s))
}

// Input to the classifier
type ClassificationRequest struct {
	Text       string     `json:"text"`
	Categories []Category `json:"categories"`
}

type CategoryResult struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
}

// Output of one gateway call, possibly spanning several attempts
type AnalysisResult struct {
	Request    ClassificationRequest `json:"request"`
	Categories []CategoryResult      `json:"categories"`
	Elapsed    time.Duration         `json:"elapsed_ns"`
	Attempts   int                   `json:"attempts"`
}

// MaxSeverity returns the highest severity across all categories.
func (r AnalysisResult) MaxSeverity() Severity {
	max := SeveritySafe
	for _, c := range r.Categories {
		if c.Severity > max {
			max = c.Severity
		}
	}
	return max
}

type Decision struct {
	Verdict     Verdict  `json:"verdict"`
	Threshold   Severity `json:"threshold"`
	MaxSeverity Severity `json:"max_severity"`
	// Override names the rule that forced the verdict, empty when none fired.
	Override string `json:"override,omitempty"`
}

// BatchRecord is the unit handed to every sink.
type BatchRecord struct {
	Timestamp  time.Time        `json:"timestamp"`
	Text       string           `json:"band_name"`
	Verdict    Verdict          `json:"verdict"`
	Threshold  Severity         `json:"threshold"`
	Elapsed    time.Duration    `json:"-"`
	Categories []CategoryResult `json:"categories"`
	Override   string           `json:"override,omitempty"`
}

func NewBatchRecord(result AnalysisResult, decision Decision, at time.Time) BatchRecord {
	categories := make([]CategoryResult, len(result.Categories))
	copy(categories, result.Categories)

	return BatchRecord{
		Timestamp:  at.UTC(),
		Text:       result.Request.Text,
		Verdict:    decision.Verdict,
		Threshold:  decision.Threshold,
		Elapsed:    result.Elapsed,
		Categories: categories,
		Override:   decision.Override,
	}
}

func (r BatchRecord) ResponseTimeMs() int64 {
	return r.Elapsed.Milliseconds()
}

// MarshalJSON adds the millisecond response time used by the log exporters.
func (r BatchRecord) MarshalJSON() ([]byte, error) {
	type alias BatchRecord
	return json.Marshal(struct {
		alias
		ResponseTimeMs int64 `json:"response_time_ms"`
	}{
		alias:          alias(r),
		ResponseTimeMs: r.ResponseTimeMs(),
	})
}

func (r *BatchRecord) UnmarshalJSON(data []byte) error {
	type alias BatchRecord
	var aux struct {
		alias
		ResponseTimeMs int64 `json:"response_time_ms"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = BatchRecord(aux.alias)
	r.Elapsed = time.Duration(aux.ResponseTimeMs) * time.Millisecond
	return nil
}

// CheckRequest is the wire form of a check submitted over HTTP, MCP or a stream.
// Categories and Threshold fall back to the configured policy when omitted.
type CheckRequest struct {
	RequestID  string   `json:"request_id,omitempty"`
	Names      []string `json:"names"`
	Categories []string `json:"categories,omitempty"`
	Threshold  *int     `json:"threshold,omitempty"`
	Variants   bool     `json:"variants,omitempty"`
}

type CheckResult struct {
	Name           string           `json:"name"`
	Verdict        Verdict          `json:"verdict,omitempty"`
	MaxSeverity    Severity         `json:"max_severity"`
	Categories     []CategoryResult `json:"categories,omitempty"`
	Override       string           `json:"override,omitempty"`
	ResponseTimeMs int64            `json:"response_time_ms"`
	Error          string           `json:"error,omitempty"`
}

type CheckSummary struct {
	Total            int     `json:"total"`
	Allowed          int     `json:"allowed"`
	Blocked          int     `json:"blocked"`
	Failed           int     `json:"failed"`
	AvgResponseTimeS float64 `json:"avg_response_time_s"`
	SinkFailures     int     `json:"sink_failures"`
}

type CheckResponse struct {
	RequestID string        `json:"request_id"`
	Threshold Severity      `json:"threshold"`
	Results   []CheckResult `json:"results"`
	Summary   CheckSummary  `json:"summary"`
}
