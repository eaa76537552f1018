// Package reviewstore keeps review snapshots in Redis so they survive a bot
// restart and can be shared by several bot processes.
package reviewstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-bot/internal/logger"
	"quiz-bot/internal/quiz"
)

const keyPrefix = "quiz:review:"

// NewClient parses a redis:// URL and checks the connection.
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if opt.DialTimeout == 0 {
		opt.DialTimeout = 5 * time.Second
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Redis stores each review as JSON under quiz:review:<id> with a TTL.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedis(client redis.Cmdable, ttl time.Duration, log *logger.Logger) *Redis {
	if ttl <= 0 {
		ttl = quiz.DefaultReviewTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Redis{client: client, ttl: ttl, log: log.With("component", "RedisReviewStore")}
}

func Key(id string) string {
	return keyPrefix + id
}

func (r *Redis) Save(ctx context.Context, review quiz.Review) error {
	if review.ID == "" {
		return errors.New("review id is required")
	}
	raw, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}
	if err := r.client.Set(ctx, Key(review.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store review %s: %w", review.ID, err)
	}
	r.log.Debug("review stored", "review_id", review.ID, "items", len(review.Items))
	return nil
}

func (r *Redis) Get(ctx context.Context, id string) (quiz.Review, error) {
	raw, err := r.client.Get(ctx, Key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return quiz.Review{}, quiz.ErrReviewNotFound
		}
		return quiz.Review{}, fmt.Errorf("load review %s: %w", id, err)
	}
	var review quiz.Review
	if err := json.Unmarshal(raw, &review); err != nil {
		return quiz.Review{}, fmt.Errorf("decode review %s: %w", id, err)
	}
	return review, nil
}
