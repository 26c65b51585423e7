package prechecks

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type FormatChecker struct {
}

func NewFormatChecker() *FormatChecker {
	return &FormatChecker{}
}

var hasLetterOrDigit = regexp.MustCompile(`[\p{L}\p{N}]`)

func (c *FormatChecker) Check(name string) Result {
	result := Result{Name: "format-checker"}

	if !utf8.ValidString(name) {
		result.Reason = "Name is not valid UTF-8"
		return result
	}

	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		result.Reason = "Name contains control characters"
		return result
	}

	if !hasLetterOrDigit.MatchString(name) {
		result.Reason = "Name has no letters or digits"
		return result
	}

	result.Passed = true
	result.Reason = "Valid name"
	return result
}
