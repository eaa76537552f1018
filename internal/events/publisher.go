package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"quiz-bot/internal/logger"
	"quiz-bot/internal/quiz"
)

const (
	BackendGoChannel = "gochannel"
	BackendKafka     = "kafka"
	BackendNone      = "none"

	DefaultTopic = "quiz.attempts"
)

// Publisher turns finalized attempts into watermill messages.
type Publisher struct {
	publisher message.Publisher
	topic     string
	log       *logger.Logger
	now       func() time.Time
}

func NewPublisher(pub message.Publisher, topic string, log *logger.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{
		publisher: pub,
		topic:     topic,
		log:       log.With("component", "EventPublisher"),
		now:       time.Now,
	}
}

func (p *Publisher) Topic() string { return p.topic }

func (p *Publisher) PublishAttemptFinished(ctx context.Context, result quiz.Result) error {
	event := NewAttemptFinished(result, p.now())

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", eventSource)
	msg.Metadata.Set("version", eventVersion)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.log.Error("failed to publish attempt event",
			"event_id", event.ID,
			"user_id", event.UserID,
			"error", err)
		return fmt.Errorf("failed to publish attempt event: %w", err)
	}

	p.log.Debug("published attempt event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.publisher.Close()
}

type Config struct {
	Backend      string
	KafkaBrokers []string
	Topic        string
}

// Bus is the wiring produced by Setup. Publisher is nil when events are
// disabled; Subscriber is only set for the in-process backend.
type Bus struct {
	Publisher  *Publisher
	Subscriber message.Subscriber
}

func (b *Bus) Close() error {
	if b == nil || b.Publisher == nil {
		return nil
	}
	return b.Publisher.Close()
}

func Setup(cfg Config, log *logger.Logger) (*Bus, error) {
	if log == nil {
		log = logger.Nop()
	}
	adapter := NewLoggerAdapter(log.With("component", "Watermill"))

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendGoChannel:
		log.Info("using in-process event bus", "topic", cfg.Topic)
		ch := gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            64,
			BlockPublishUntilSubscriberAck: true,
		}, adapter)
		return &Bus{Publisher: NewPublisher(ch, cfg.Topic, log), Subscriber: ch}, nil
	case BackendKafka:
		log.Info("creating kafka event publisher", "brokers", strings.Join(cfg.KafkaBrokers, ","), "topic", cfg.Topic)
		pub, err := kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			Marshaler: kafka.DefaultMarshaler{},
		}, adapter)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
		}
		return &Bus{Publisher: NewPublisher(pub, cfg.Topic, log)}, nil
	case BackendNone:
		log.Info("event publishing disabled")
		return &Bus{}, nil
	default:
		return nil, fmt.Errorf("unknown events publisher %q", cfg.Backend)
	}
}
