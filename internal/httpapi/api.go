package httpapi

import (
	"quiz-bot/internal/events"
	"quiz-bot/internal/logger"
	"quiz-bot/internal/quiz"
)

// ActivityFeed exposes recently finished attempts.
type ActivityFeed interface {
	Recent() []events.AttemptFinished
	Total() int
}

type API struct {
	engine   *quiz.Engine
	activity ActivityFeed
	log      *logger.Logger
}

func NewAPI(engine *quiz.Engine, activity ActivityFeed, log *logger.Logger) *API {
	if log == nil {
		log = logger.Nop()
	}
	return &API{
		engine:   engine,
		activity: activity,
		log:      log,
	}
}
