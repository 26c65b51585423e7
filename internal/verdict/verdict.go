package verdict

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/povarna/generative-ai-agents/bandcheck/internal/models"
)

// OverrideRule forces a BLOCKED verdict when it matches the classified text.
type OverrideRule interface {
	Name() string
	Matches(text string) bool
}

// KeywordRule matches when the text contains any keyword, case-insensitively.
type KeywordRule struct {
	RuleName string
	Keywords []string
}

func (r KeywordRule) Name() string {
	return r.RuleName
}

func (r KeywordRule) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range r.Keywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword != "" && strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Policy is the threshold plus the override rules active for one run.
type Policy struct {
	Threshold models.Severity
	Overrides []OverrideRule
}

// Decide returns BLOCKED iff any category severity is strictly greater than threshold.
func Decide(result models.AnalysisResult, threshold models.Severity) models.Decision {
	max := result.MaxSeverity()

	v := models.VerdictAllowed
	if max > threshold {
		v = models.VerdictBlocked
	}

	return models.Decision{
		Verdict:     v,
		Threshold:   threshold,
		MaxSeverity: max,
	}
}

// Decide applies the threshold, then the override rules in order.
// The first matching rule forces BLOCKED and is recorded on the decision.
func (p Policy) Decide(result models.AnalysisResult) models.Decision {
	decision := Decide(result, p.Threshold)

	for _, rule := range p.Overrides {
		if rule.Matches(result.Request.Text) {
			decision.Verdict = models.VerdictBlocked
			decision.Override = rule.Name()
			break
		}
	}

	return decision
}

// ParseThreshold accepts only the declared severity levels.
func ParseThreshold(value string) (models.Severity, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return models.SeveritySafe, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", value, err)
	}

	severity := models.Severity(n)
	if !severity.Valid() {
		return 0, fmt.Errorf("invalid threshold %d: must be one of 0, 2, 4, 6", n)
	}
	return severity, nil
}
