package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"quiz-bot/internal/logger"
)

const defaultRecent = 20

// Audit consumes attempt events, logs them and keeps the most recent ones
// for the activity endpoint.
type Audit struct {
	log   *logger.Logger
	limit int

	mu     sync.RWMutex
	recent []AttemptFinished
	total  int
}

func NewAudit(limit int, log *logger.Logger) *Audit {
	if limit <= 0 {
		limit = defaultRecent
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Audit{limit: limit, log: log.With("component", "AttemptAudit")}
}

// Run subscribes to topic and blocks until ctx is done or the subscriber
// closes its channel.
func (a *Audit) Run(ctx context.Context, sub message.Subscriber, topic string) error {
	if topic == "" {
		topic = DefaultTopic
	}
	messages, err := sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	a.log.Info("attempt audit started", "topic", topic)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			a.handle(msg)
		}
	}
}

func (a *Audit) handle(msg *message.Message) {
	defer msg.Ack()

	if t := msg.Metadata.Get("event_type"); t != string(EventAttemptFinished) {
		a.log.Debug("ignoring event", "event_type", t, "message_uuid", msg.UUID)
		return
	}
	var event AttemptFinished
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		a.log.Warn("malformed attempt event", "message_uuid", msg.UUID, "error", err)
		return
	}

	a.mu.Lock()
	a.total++
	a.recent = append(a.recent, event)
	if len(a.recent) > a.limit {
		a.recent = append([]AttemptFinished(nil), a.recent[len(a.recent)-a.limit:]...)
	}
	a.mu.Unlock()

	a.log.Info("attempt finished",
		"event_id", event.ID,
		"user_id", event.UserID,
		"topic", event.Topic,
		"mode", event.Mode,
		"reason", event.Reason,
		"correct", event.Correct,
		"total", event.Total,
	)
}

// Recent returns the latest events, newest first.
func (a *Audit) Recent() []AttemptFinished {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AttemptFinished, len(a.recent))
	for i, e := range a.recent {
		out[len(a.recent)-1-i] = e
	}
	return out
}

func (a *Audit) Total() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.total
}
