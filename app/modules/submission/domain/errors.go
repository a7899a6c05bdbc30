package submissiondomain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrValidation          = errors.New("invalid submission")
	ErrAuthMismatch        = errors.New("round claim mismatch")
	ErrAttemptLimit        = errors.New("attempt limit exceeded")
	ErrDuplicateSubmission = errors.New("duplicate submission")
	ErrTransient           = errors.New("temporary failure")
	ErrAttemptNotFound     = errors.New("submission attempt not found")
)

// ValidationError reports malformed input. Safe to show to the client.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthMismatchError reports a submission to a round the token was not issued for.
type AuthMismatchError struct {
	ClaimRound   int
	RequestRound int
}

func (e *AuthMismatchError) Error() string {
	return fmt.Sprintf("session is for round %d, not round %d", e.ClaimRound, e.RequestRound)
}

func (e *AuthMismatchError) Is(target error) bool { return target == ErrAuthMismatch }

// AttemptLimitError reports an exhausted attempt budget.
type AttemptLimitError struct {
	Max  int
	Used int
}

func (e *AttemptLimitError) Error() string {
	return fmt.Sprintf("attempt limit reached (%d of %d used)", e.Used, e.Max)
}

func (e *AttemptLimitError) Is(target error) bool { return target == ErrAttemptLimit }

// DuplicateSubmissionError reports a flag already submitted in the same scope.
type DuplicateSubmissionError struct {
	OriginalSubmittedAt time.Time
}

func (e *DuplicateSubmissionError) Error() string {
	return fmt.Sprintf("flag already submitted at %s", e.OriginalSubmittedAt.UTC().Format(time.RFC3339))
}

func (e *DuplicateSubmissionError) Is(target error) bool { return target == ErrDuplicateSubmission }

// TransientError hides an infrastructure failure behind a correlation id.
type TransientError struct {
	CorrelationID string
	Err           error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("temporary failure, reference %s", e.CorrelationID)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }
