package domain

import (
	"errors"
	"fmt"
)

// ErrRateLimited is returned by a classifier when the service answered
// 429. It marks the one retry-able condition; the resolver backs off and
// tries again up to its attempt ceiling.
var ErrRateLimited = errors.New("rate limited by classification service")

// ClassificationError is a hard classification failure: the service
// answered with a status that is neither success nor rate-limiting.
// It is never retried and aborts the enclosing resolve batch.
type ClassificationError struct {
	StatusCode int
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed with status %d", e.StatusCode)
}

// TimeoutError reports a phrase that stayed rate-limited through every
// allowed attempt. It aborts the enclosing resolve batch, but is distinct
// from a hard ClassificationError.
type TimeoutError struct {
	Phrase   string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("classification of %q still rate limited after %d attempts", e.Phrase, e.Attempts)
}

// InvariantError reports a broken internal contract, such as a human turn
// reaching the merge step without a resolved intent. It indicates a bug in
// the caller, not bad input data, and must terminate processing.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Reason
}
