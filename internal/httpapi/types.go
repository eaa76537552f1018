package httpapi

import (
	"time"

	"quiz-bot/internal/events"
	"quiz-bot/internal/quiz"
)

type healthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

type topicsResponse struct {
	Topics []quiz.Topic `json:"topics"`
}

type modeResponse struct {
	Key              string  `json:"key"`
	Label            string  `json:"label"`
	QuestionCount    int     `json:"question_count"`
	Timed            bool    `json:"timed"`
	TimeLimitSeconds float64 `json:"time_limit_seconds,omitempty"`
	InstantFeedback  bool    `json:"instant_feedback"`
}

type modesResponse struct {
	Modes     []modeResponse `json:"modes"`
	TopicMode modeResponse   `json:"topic_mode"`
}

type leaderboardEntryResponse struct {
	Rank           int     `json:"rank"`
	UserID         int64   `json:"user_id"`
	DisplayName    string  `json:"display_name"`
	BestPercent    float64 `json:"best_percent"`
	AveragePercent float64 `json:"average_percent"`
	AttemptsTaken  int     `json:"attempts_taken"`
}

type leaderboardResponse struct {
	Leaderboard []leaderboardEntryResponse `json:"leaderboard"`
}

type userStatsResponse struct {
	quiz.UserStats
	AveragePercent float64 `json:"average_percent"`
}

type reviewItemResponse struct {
	Position int       `json:"position"`
	Prompt   string    `json:"prompt"`
	Options  []string  `json:"options"`
	Kind     quiz.Kind `json:"kind"`
	Topic    string    `json:"topic,omitempty"`
	MediaURL string    `json:"media_url,omitempty"`
	Answer   []int     `json:"answer"`
	Expected []int     `json:"expected"`
	Correct  bool      `json:"correct"`
}

type reviewResponse struct {
	ReviewID   string               `json:"review_id"`
	UserID     int64                `json:"user_id"`
	Topic      string               `json:"topic"`
	Mode       string               `json:"mode"`
	FinishedAt time.Time            `json:"finished_at"`
	Wrong      []int                `json:"wrong"`
	Items      []reviewItemResponse `json:"items"`
}

type activityResponse struct {
	Total  int                      `json:"total"`
	Events []events.AttemptFinished `json:"events"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toModeResponse(m quiz.Mode) modeResponse {
	return modeResponse{
		Key:              m.Key,
		Label:            m.Label,
		QuestionCount:    m.QuestionCount,
		Timed:            m.Timed,
		TimeLimitSeconds: m.TimeLimit.Seconds(),
		InstantFeedback:  m.InstantFeedback,
	}
}

func toReviewResponse(r quiz.Review) reviewResponse {
	items := make([]reviewItemResponse, 0, len(r.Items))
	for i, item := range r.Items {
		answer := []int(item.Answer)
		if answer == nil {
			answer = []int{}
		}
		items = append(items, reviewItemResponse{
			Position: i,
			Prompt:   item.Question.Prompt,
			Options:  item.Question.Options,
			Kind:     item.Question.Kind,
			Topic:    item.Question.Topic,
			MediaURL: item.Question.MediaURL,
			Answer:   answer,
			Expected: item.Question.Correct,
			Correct:  item.Correct,
		})
	}
	return reviewResponse{
		ReviewID:   r.ID,
		UserID:     r.UserID,
		Topic:      r.Topic,
		Mode:       r.ModeKey,
		FinishedAt: r.FinishedAt,
		Wrong:      r.Wrong(),
		Items:      items,
	}
}
