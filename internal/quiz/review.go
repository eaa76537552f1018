package quiz

import (
	"container/list"
	"context"
	"sync"
	"time"
)

const (
	DefaultReviewTTL      = 24 * time.Hour
	DefaultReviewCapacity = 1000
)

type ReviewItem struct {
	Question Question  `json:"question"`
	Answer   Selection `json:"answer"`
	Correct  bool      `json:"correct"`
}

// Review is an immutable copy of a finished attempt, kept for browsing.
type Review struct {
	ID         string       `json:"id"`
	UserID     int64        `json:"user_id"`
	Topic      string       `json:"topic"`
	ModeKey    string       `json:"mode_key"`
	Items      []ReviewItem `json:"items"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Wrong returns the positions of incorrectly answered items.
func (r Review) Wrong() []int {
	out := make([]int, 0)
	for i, item := range r.Items {
		if !item.Correct {
			out = append(out, i)
		}
	}
	return out
}

type ReviewStore interface {
	Save(ctx context.Context, review Review) error
	Get(ctx context.Context, id string) (Review, error)
}

type reviewRecord struct {
	review    Review
	expiresAt time.Time
}

// MemoryReviews keeps at most capacity snapshots for ttl each, evicting the
// oldest first.
type MemoryReviews struct {
	ttl      time.Duration
	capacity int
	now      func() time.Time

	mu    sync.Mutex
	order *list.List // of *reviewRecord, oldest at front
	byID  map[string]*list.Element
}

func NewMemoryReviews(ttl time.Duration, capacity int) *MemoryReviews {
	if ttl <= 0 {
		ttl = DefaultReviewTTL
	}
	if capacity <= 0 {
		capacity = DefaultReviewCapacity
	}
	return &MemoryReviews{
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		order:    list.New(),
		byID:     make(map[string]*list.Element),
	}
}

func (m *MemoryReviews) Save(_ context.Context, review Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evictExpiredLocked(now)

	if el, ok := m.byID[review.ID]; ok {
		m.order.Remove(el)
		delete(m.byID, review.ID)
	}
	for m.order.Len() >= m.capacity {
		m.removeLocked(m.order.Front())
	}
	m.byID[review.ID] = m.order.PushBack(&reviewRecord{review: review, expiresAt: now.Add(m.ttl)})
	return nil
}

func (m *MemoryReviews) Get(_ context.Context, id string) (Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.byID[id]
	if !ok {
		return Review{}, ErrReviewNotFound
	}
	rec := el.Value.(*reviewRecord)
	if !m.now().Before(rec.expiresAt) {
		m.removeLocked(el)
		return Review{}, ErrReviewNotFound
	}
	return rec.review, nil
}

func (m *MemoryReviews) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *MemoryReviews) evictExpiredLocked(now time.Time) {
	for el := m.order.Front(); el != nil; {
		rec := el.Value.(*reviewRecord)
		if now.Before(rec.expiresAt) {
			return
		}
		next := el.Next()
		m.removeLocked(el)
		el = next
	}
}

func (m *MemoryReviews) removeLocked(el *list.Element) {
	rec := m.order.Remove(el).(*reviewRecord)
	delete(m.byID, rec.review.ID)
}
