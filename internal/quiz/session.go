package quiz

import (
	"sync"
	"time"
)

type attemptState int

const (
	stateInProgress attemptState = iota
	stateFinished
	stateDiscarded
)

type User struct {
	ID          int64
	DisplayName string
}

// Attempt is one user's quiz run. Every field below mu is guarded by it.
type Attempt struct {
	generation uint64
	user       User
	topic      string
	mode       Mode
	questions  []Question
	startedAt  time.Time
	deadline   time.Time

	mu      sync.Mutex
	state   attemptState
	cursor  int
	answers []Selection
	timers  []*time.Timer
}

func newAttempt(generation uint64, user User, topic string, questions []Question, mode Mode, now time.Time) *Attempt {
	a := &Attempt{
		generation: generation,
		user:       user,
		topic:      topic,
		mode:       mode,
		questions:  cloneQuestions(questions),
		startedAt:  now,
		answers:    make([]Selection, len(questions)),
	}
	if !IsMixed(topic) {
		for i := range a.questions {
			if a.questions[i].Topic == "" {
				a.questions[i].Topic = topic
			}
		}
	}
	if mode.Timed && mode.TimeLimit > 0 {
		a.deadline = now.Add(mode.TimeLimit)
	}
	return a
}

// stopTimersLocked cancels pending countdowns. Callers hold a.mu.
func (a *Attempt) stopTimersLocked() {
	for _, t := range a.timers {
		t.Stop()
	}
	a.timers = nil
}

// SessionStore maps a user to their single live attempt.
type SessionStore struct {
	mu       sync.Mutex
	attempts map[int64]*Attempt
}

func NewSessionStore() *SessionStore {
	return &SessionStore{attempts: make(map[int64]*Attempt)}
}

// Swap installs a as the user's attempt and returns the one it replaced.
func (s *SessionStore) Swap(userID int64, a *Attempt) *Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.attempts[userID]
	s.attempts[userID] = a
	return prev
}

func (s *SessionStore) Get(userID int64) (*Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[userID]
	return a, ok
}

// Remove deletes the user's entry only while it still points at a.
func (s *SessionStore) Remove(userID int64, a *Attempt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.attempts[userID]; ok && cur == a {
		delete(s.attempts, userID)
		return true
	}
	return false
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}
