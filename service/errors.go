package service

import (
	"errors"
	"fmt"
)

var (
	ErrCaseNotFound = errors.New("case not found")

	// Prediction failures, distinguished by retryability: unavailable
	// means the caller may retry, invalid is terminal for the attempt.
	ErrPredictionUnavailable = errors.New("eligibility predictor unavailable")
	ErrPredictionInvalid     = errors.New("eligibility predictor returned malformed response")
	ErrPredictionExists      = errors.New("prediction already recorded; re-run must be explicit")

	// Decision conflicts. These are correctness signals, not faults.
	ErrAlreadyDecided  = errors.New("case already decided")
	ErrResetNotAllowed = errors.New("case has no decision to reset")

	ErrAssistiveUnavailable = errors.New("assistive service unavailable")

	ErrUnknownRole = errors.New("unknown role")
)

// ValidationError rejects bad intake input before any store write
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
