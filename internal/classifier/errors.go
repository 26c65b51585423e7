package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var (
	ErrClassification     = errors.New("classification failed")
	ErrEmptyText          = errors.New("text is empty")
	ErrUnexpectedSeverity = errors.New("unexpected severity level")
	ErrUnexpectedCategory = errors.New("unexpected category in response")
)

// ClassificationError is returned by the gateway once a call has failed for good,
// either because the retry budget ran out or because the failure was permanent.
type ClassificationError struct {
	Text      string
	Attempts  int
	Transient bool
	Err       error
}

func (e *ClassificationError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("classify %q failed after %d attempt(s) (%s): %v", e.Text, e.Attempts, kind, e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func (e *ClassificationError) Is(target error) bool {
	return target == ErrClassification
}

// TransientError marks a backend failure that is expected to clear on retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err so the gateway retries it. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsRetryable reports whether err should consume retry budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return false
}
