package events

import (
	"github.com/ThreeDotsLabs/watermill"

	"quiz-bot/internal/logger"
)

// loggerAdapter routes watermill's internal logging through the zap logger.
type loggerAdapter struct {
	log *logger.Logger
}

func NewLoggerAdapter(log *logger.Logger) watermill.LoggerAdapter {
	if log == nil {
		log = logger.Nop()
	}
	return &loggerAdapter{log: log}
}

func (a *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Error(msg, append(flatten(fields), "error", err)...)
}

func (a *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info(msg, flatten(fields)...)
}

func (a *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, flatten(fields)...)
}

// Trace is folded into debug; zap has no lower level.
func (a *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug(msg, flatten(fields)...)
}

func (a *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{log: a.log.With(flatten(fields)...)}
}

func flatten(fields watermill.LogFields) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
