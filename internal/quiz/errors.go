package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveAttempt    = errors.New("no active attempt")
	ErrEmptyPool          = errors.New("no questions available")
	ErrQuestionOutOfRange = errors.New("question index out of range")
	ErrOptionOutOfRange   = errors.New("option index out of range")
	ErrUnknownMode        = errors.New("unknown quiz mode")
	ErrReviewNotFound     = errors.New("review not found")
	ErrStaleAttempt       = errors.New("attempt has been replaced")
	ErrInvalidQuestion    = errors.New("invalid question")
)

// ErrAttemptExpired is returned when a late action finds the time limit
// passed. The timeout result has already gone to the Notifier.
var ErrAttemptExpired = fmt.Errorf("%w: time limit reached", ErrNoActiveAttempt)
