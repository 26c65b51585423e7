package prechecks

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxLength is the text limit of the content safety analyze endpoint.
const DefaultMaxLength = 10000

type LengthChecker struct {
	MaxLength int
}

func NewLengthChecker(maxLength int) *LengthChecker {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &LengthChecker{MaxLength: maxLength}
}

// Check rejects blank names and names longer than MaxLength characters.
func (c *LengthChecker) Check(name string) Result {
	result := Result{Name: "length-checker"}

	length := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case length == 0:
		result.Reason = "Empty name"
	case length > c.MaxLength:
		result.Reason = fmt.Sprintf("Name is %d characters long, the limit is %d", length, c.MaxLength)
	default:
		result.Passed = true
		result.Reason = "Name length is acceptable"
	}
	return result
}
