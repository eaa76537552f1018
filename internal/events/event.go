package events

import (
	"time"

	"github.com/google/uuid"

	"quiz-bot/internal/quiz"
)

type EventType string

const (
	EventAttemptFinished EventType = "quiz.attempt_finished"

	eventSource  = "quiz-bot"
	eventVersion = "1"
)

// AttemptFinished is published once per finalized attempt.
type AttemptFinished struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	Timestamp   time.Time   `json:"timestamp"`
	UserID      int64       `json:"user_id"`
	DisplayName string      `json:"display_name"`
	Topic       string      `json:"topic"`
	Mode        string      `json:"mode"`
	Reason      quiz.Reason `json:"reason"`
	Correct     int         `json:"correct"`
	Total       int         `json:"total"`
	Percent     float64     `json:"percent"`
	ElapsedMS   int64       `json:"elapsed_ms"`
	FinishedAt  time.Time   `json:"finished_at"`
	ReviewID    string      `json:"review_id,omitempty"`
}

func NewAttemptFinished(r quiz.Result, now time.Time) AttemptFinished {
	return AttemptFinished{
		ID:          uuid.NewString(),
		Type:        EventAttemptFinished,
		Timestamp:   now.UTC(),
		UserID:      r.UserID,
		DisplayName: r.DisplayName,
		Topic:       r.Topic,
		Mode:        r.ModeKey,
		Reason:      r.Reason,
		Correct:     r.Correct,
		Total:       r.Total,
		Percent:     r.Percent,
		ElapsedMS:   r.Elapsed.Milliseconds(),
		FinishedAt:  r.FinishedAt.UTC(),
		ReviewID:    r.ReviewID,
	}
}
