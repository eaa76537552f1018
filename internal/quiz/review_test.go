package quiz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReviewsSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReviews(time.Hour, 10)

	review := Review{ID: "r1", UserID: 1, Items: []ReviewItem{{Question: mcq("q", 0), Answer: Selection{1}}}}
	require.NoError(t, store.Save(ctx, review))

	got, err := store.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, review, got)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestMemoryReviewsEvictsOldestAtCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryReviews(time.Hour, 2)

	for _, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, store.Save(ctx, Review{ID: id}))
	}

	assert.Equal(t, 2, store.Len())
	_, err := store.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrReviewNotFound)
	_, err = store.Get(ctx, "r3")
	assert.NoError(t, err)
}

func TestMemoryReviewsExpire(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryReviews(time.Minute, 10)
	store.now = clock.Now

	require.NoError(t, store.Save(ctx, Review{ID: "r1"}))
	clock.Advance(30 * time.Second)
	require.NoError(t, store.Save(ctx, Review{ID: "r2"}))

	clock.Advance(31 * time.Second)
	_, err := store.Get(ctx, "r1")
	assert.ErrorIs(t, err, ErrReviewNotFound)
	_, err = store.Get(ctx, "r2")
	assert.NoError(t, err)

	clock.Advance(time.Minute)
	require.NoError(t, store.Save(ctx, Review{ID: "r3"}))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryReviewsDefaults(t *testing.T) {
	store := NewMemoryReviews(0, 0)
	assert.Equal(t, DefaultReviewTTL, store.ttl)
	assert.Equal(t, DefaultReviewCapacity, store.capacity)
}

func TestReviewWrong(t *testing.T) {
	r := Review{Items: []ReviewItem{{Correct: true}, {Correct: false}, {Correct: true}, {Correct: false}}}
	assert.Equal(t, []int{1, 3}, r.Wrong())
	assert.Empty(t, Review{}.Wrong())
}
