package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-bot/internal/quiz"
)

func sampleResult() quiz.Result {
	return quiz.Result{
		UserID:      42,
		DisplayName: "alice",
		Topic:       "toc",
		ModeKey:     "quick_5",
		Reason:      quiz.ReasonManual,
		Correct:     3,
		Total:       5,
		Percent:     60,
		Elapsed:     90 * time.Second,
		ReviewID:    "review-1",
		FinishedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func TestPublisherWritesEventWithMetadata(t *testing.T) {
	ch := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, NewLoggerAdapter(nil))
	t.Cleanup(func() { _ = ch.Close() })

	pub := NewPublisher(ch, "attempts.test", nil)
	require.NoError(t, pub.PublishAttemptFinished(context.Background(), sampleResult()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	messages, err := ch.Subscribe(ctx, "attempts.test")
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, string(EventAttemptFinished), msg.Metadata.Get("event_type"))
		assert.Equal(t, "quiz-bot", msg.Metadata.Get("source"))
		assert.Equal(t, "1", msg.Metadata.Get("version"))

		var event AttemptFinished
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, msg.UUID, event.ID)
		assert.Equal(t, int64(42), event.UserID)
		assert.Equal(t, "quick_5", event.Mode)
		assert.Equal(t, int64(90000), event.ElapsedMS)
		assert.Equal(t, "review-1", event.ReviewID)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}

func TestPublisherPropagatesFailure(t *testing.T) {
	pub := NewPublisher(failingPublisher{}, "", nil)
	assert.Equal(t, DefaultTopic, pub.Topic())
	assert.Error(t, pub.PublishAttemptFinished(context.Background(), sampleResult()))
}

func TestAuditRecordsPublishedEvents(t *testing.T) {
	bus, err := Setup(Config{Backend: BackendGoChannel, Topic: "attempts.audit"}, nil)
	require.NoError(t, err)
	require.NotNil(t, bus.Subscriber)
	t.Cleanup(func() { _ = bus.Close() })

	audit := NewAudit(2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- audit.Run(ctx, bus.Subscriber, "attempts.audit") }()

	// Subscribe races with the first publish on a non-persistent channel.
	require.Eventually(t, func() bool {
		_ = bus.Publisher.PublishAttemptFinished(context.Background(), sampleResult())
		return audit.Total() > 0
	}, 2*time.Second, 10*time.Millisecond)

	second := sampleResult()
	second.UserID = 7
	third := sampleResult()
	third.UserID = 8
	require.NoError(t, bus.Publisher.PublishAttemptFinished(context.Background(), second))
	require.NoError(t, bus.Publisher.PublishAttemptFinished(context.Background(), third))

	require.Eventually(t, func() bool {
		recent := audit.Recent()
		return len(recent) == 2 && recent[0].UserID == 8
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(7), audit.Recent()[1].UserID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("audit did not stop")
	}
}

func TestAuditIgnoresForeignAndMalformedMessages(t *testing.T) {
	audit := NewAudit(0, nil)

	foreign := message.NewMessage("m1", []byte(`{}`))
	foreign.Metadata.Set("event_type", "quiz.other")
	audit.handle(foreign)

	bad := message.NewMessage("m2", []byte(`not json`))
	bad.Metadata.Set("event_type", string(EventAttemptFinished))
	audit.handle(bad)

	assert.Zero(t, audit.Total())
	assert.Empty(t, audit.Recent())
}

func TestSetupBackends(t *testing.T) {
	bus, err := Setup(Config{Backend: BackendNone}, nil)
	require.NoError(t, err)
	assert.Nil(t, bus.Publisher)
	assert.NoError(t, bus.Close())

	_, err = Setup(Config{Backend: "rabbit"}, nil)
	assert.Error(t, err)
}

func TestLoggerAdapterWith(t *testing.T) {
	adapter := NewLoggerAdapter(nil).With(map[string]interface{}{"topic": "x"})
	adapter.Info("info", nil)
	adapter.Error("error", errors.New("boom"), map[string]interface{}{"k": 1})
	adapter.Trace("trace", nil)
}
