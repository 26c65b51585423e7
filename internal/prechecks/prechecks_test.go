package prechecks

import (
	"strings"
	"testing"
)

func TestLengthChecker(t *testing.T) {
	checker := NewLengthChecker(20)

	tests := []struct {
		name       string
		input      string
		wantPassed bool
		wantReason string
	}{
		{"empty", "", false, "Empty name"},
		{"blank", "   ", false, "Empty name"},
		{"acceptable", "Angry Puppies", true, "acceptable"},
		{"multibyte counts runes", strings.Repeat("é", 20), true, "acceptable"},
		{"too long", strings.Repeat("a", 21), false, "limit is 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checker.Check(tt.input)
			if result.Passed != tt.wantPassed {
				t.Errorf("Passed = %v, want %v (%s)", result.Passed, tt.wantPassed, result.Reason)
			}
			if !strings.Contains(result.Reason, tt.wantReason) {
				t.Errorf("Reason %q does not contain %q", result.Reason, tt.wantReason)
			}
		})
	}
}

func TestNewLengthChecker_Default(t *testing.T) {
	if got := NewLengthChecker(0).MaxLength; got != DefaultMaxLength {
		t.Errorf("expected default %d, got %d", DefaultMaxLength, got)
	}
}

func TestFormatChecker(t *testing.T) {
	checker := NewFormatChecker()

	tests := []struct {
		name       string
		input      string
		wantPassed bool
	}{
		{"plain", "Metal Kittens", true},
		{"digits only", "311", true},
		{"unicode letters", "Mötley Crüe", true},
		{"punctuation only", "!!! ???", false},
		{"control character", "Angry\x00Puppies", false},
		{"invalid utf-8", "Angry\xffPuppies", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := checker.Check(tt.input); result.Passed != tt.wantPassed {
				t.Errorf("Check(%q) Passed = %v, want %v (%s)", tt.input, result.Passed, tt.wantPassed, result.Reason)
			}
		})
	}
}

func TestStageRunner(t *testing.T) {
	runner := Default()

	results := runner.Run("Angry Puppies")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Name != "length-checker" || results[1].Name != "format-checker" {
		t.Errorf("results out of checker order: %+v", results)
	}

	if _, failed := runner.FirstFailure("Angry Puppies"); failed {
		t.Error("expected a valid name to pass")
	}

	failure, failed := runner.FirstFailure("???")
	if !failed || failure.Name != "format-checker" {
		t.Errorf("expected format-checker failure, got %+v (failed=%v)", failure, failed)
	}
}
