package quiz

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"quiz-bot/internal/logger"
)

type Reason string

const (
	ReasonManual  Reason = "manual"
	ReasonTimeout Reason = "timeout"
)

const DefaultWarningLead = 60 * time.Second

// AnyAttempt skips the generation check in RecordAnswer, Navigate and
// Finalize.
const AnyAttempt uint64 = 0

// Notifier delivers engine-initiated messages: the countdown warning and the
// result of an attempt that ran out of time.
type Notifier interface {
	NotifyWarning(userID int64, remaining time.Duration)
	NotifyExpired(result Result)
}

// Publisher receives every finalized attempt.
type Publisher interface {
	PublishAttemptFinished(ctx context.Context, result Result) error
}

type Result struct {
	UserID      int64                 `json:"user_id"`
	DisplayName string                `json:"display_name"`
	Topic       string                `json:"topic"`
	ModeKey     string                `json:"mode_key"`
	Reason      Reason                `json:"reason"`
	Correct     int                   `json:"correct"`
	Total       int                   `json:"total"`
	Percent     float64               `json:"percent"`
	Elapsed     time.Duration         `json:"elapsed"`
	Outcomes    []bool                `json:"outcomes"`
	Topics      map[string]TopicTally `json:"topics"`
	ReviewID    string                `json:"review_id,omitempty"`
	FinishedAt  time.Time             `json:"finished_at"`
}

// View is a read-only snapshot of an attempt positioned at its cursor.
type View struct {
	// Attempt is the generation of the attempt this view belongs to.
	Attempt   uint64
	UserID    int64
	Topic     string
	Mode      Mode
	Index     int
	Total     int
	Question  Question
	Selected  Selection
	Answered  []bool
	Remaining time.Duration
	// Feedback is set in instant-feedback mode once a single-select question
	// has an answer.
	Feedback *bool
}

func (v View) AnsweredCount() int {
	n := 0
	for _, ok := range v.Answered {
		if ok {
			n++
		}
	}
	return n
}

type EngineOption func(*Engine)

func WithLogger(log *logger.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log.With("component", "QuizEngine")
		}
	}
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithPublisher(p Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithWarningLead sets how long before expiry the warning fires. Time
// budgets at or below the lead get no warning.
func WithWarningLead(d time.Duration) EngineOption {
	return func(e *Engine) { e.warningLead = d }
}

type Engine struct {
	repo     *Repository
	stats    *Stats
	reviews  ReviewStore
	sessions *SessionStore

	log         *logger.Logger
	now         func() time.Time
	warningLead time.Duration
	publisher   Publisher

	notifierMu sync.RWMutex
	notifier   Notifier

	generations atomic.Uint64
}

func NewEngine(repo *Repository, stats *Stats, reviews ReviewStore, opts ...EngineOption) *Engine {
	e := &Engine{
		repo:        repo,
		stats:       stats,
		reviews:     reviews,
		sessions:    NewSessionStore(),
		log:         logger.Nop(),
		now:         time.Now,
		warningLead: DefaultWarningLead,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.stats == nil {
		e.stats = NewStats()
	}
	if e.reviews == nil {
		e.reviews = NewMemoryReviews(DefaultReviewTTL, DefaultReviewCapacity)
	}
	// Generations start from the wall clock so they differ across restarts.
	e.generations.Store(uint64(time.Now().UnixMilli()) << 16)
	return e
}

// SetNotifier attaches the gateway after construction.
func (e *Engine) SetNotifier(n Notifier) {
	e.notifierMu.Lock()
	e.notifier = n
	e.notifierMu.Unlock()
}

func (e *Engine) Stats() *Stats { return e.stats }

func (e *Engine) Repository() *Repository { return e.repo }

func (e *Engine) ActiveSessions() int { return e.sessions.Len() }

// StartQuiz samples mode.QuestionCount questions from topic and starts an attempt.
func (e *Engine) StartQuiz(ctx context.Context, user User, topic string, mode Mode) (View, error) {
	if e.repo == nil {
		return View{}, ErrEmptyPool
	}
	if IsMixed(topic) {
		topic = MixedTopic
	}
	return e.Start(ctx, user, topic, e.repo.Sample(ctx, topic, mode.QuestionCount), mode)
}

// Start begins a new attempt. Any live attempt of the same user is discarded
// without being scored.
func (e *Engine) Start(_ context.Context, user User, topic string, questions []Question, mode Mode) (View, error) {
	if len(questions) == 0 {
		return View{}, ErrEmptyPool
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return View{}, fmt.Errorf("%w: question %d: %v", ErrInvalidQuestion, i, err)
		}
	}

	a := newAttempt(e.generations.Add(1), user, topic, questions, mode, e.now())
	if prev := e.sessions.Swap(user.ID, a); prev != nil {
		e.discard(prev)
	}

	a.mu.Lock()
	e.scheduleLocked(a)
	view := e.viewLocked(a)
	a.mu.Unlock()

	e.log.Info("attempt started",
		"user_id", user.ID,
		"topic", topic,
		"mode", mode.Key,
		"questions", len(questions),
		"timed", mode.Timed,
	)
	return view, nil
}

func (e *Engine) Current(userID int64) (View, error) {
	a, ok := e.sessions.Get(userID)
	if !ok {
		return View{}, ErrNoActiveAttempt
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateInProgress {
		return View{}, ErrNoActiveAttempt
	}
	return e.viewLocked(a), nil
}

// lock returns the user's in-progress attempt with a.mu held. A non-zero
// generation must match the attempt, otherwise ErrStaleAttempt is returned.
// An attempt found past its deadline is finalized as a timeout.
func (e *Engine) lock(ctx context.Context, userID int64, generation uint64, checkDeadline bool) (*Attempt, error) {
	a, ok := e.sessions.Get(userID)
	if !ok {
		return nil, ErrNoActiveAttempt
	}
	a.mu.Lock()
	if a.state != stateInProgress {
		a.mu.Unlock()
		return nil, ErrNoActiveAttempt
	}
	if generation != AnyAttempt && generation != a.generation {
		a.mu.Unlock()
		return nil, ErrStaleAttempt
	}
	if checkDeadline && e.overdueLocked(a) {
		e.expireLocked(ctx, a)
		return nil, ErrAttemptExpired
	}
	return a, nil
}

// RecordAnswer stores optionIndex for questionIndex. Single-select answers
// overwrite, multi-select answers toggle. Nothing is scored here.
func (e *Engine) RecordAnswer(ctx context.Context, userID int64, generation uint64, questionIndex, optionIndex int) (View, error) {
	a, err := e.lock(ctx, userID, generation, true)
	if err != nil {
		return View{}, err
	}
	defer a.mu.Unlock()

	if questionIndex < 0 || questionIndex >= len(a.questions) {
		return View{}, ErrQuestionOutOfRange
	}
	q := a.questions[questionIndex]
	if optionIndex < 0 || optionIndex >= len(q.Options) {
		return View{}, ErrOptionOutOfRange
	}

	if q.IsMulti() {
		a.answers[questionIndex] = a.answers[questionIndex].Toggle(optionIndex)
	} else {
		a.answers[questionIndex] = Selection{optionIndex}
	}
	a.cursor = questionIndex
	return e.viewLocked(a), nil
}

// Navigate moves the cursor, clamped into the question range.
func (e *Engine) Navigate(ctx context.Context, userID int64, generation uint64, target int) (View, error) {
	a, err := e.lock(ctx, userID, generation, true)
	if err != nil {
		return View{}, err
	}
	defer a.mu.Unlock()

	switch {
	case target < 0:
		target = 0
	case target >= len(a.questions):
		target = len(a.questions) - 1
	}
	a.cursor = target
	return e.viewLocked(a), nil
}

// Finalize scores the user's attempt and retires it. Calling it again, or
// after a timeout already finalized the attempt, returns ErrNoActiveAttempt.
func (e *Engine) Finalize(ctx context.Context, userID int64, generation uint64, reason Reason) (Result, error) {
	a, err := e.lock(ctx, userID, generation, false)
	if err != nil {
		return Result{}, err
	}
	result := e.finishLocked(a, reason)
	a.mu.Unlock()

	return e.complete(ctx, a, result), nil
}

func (e *Engine) Review(ctx context.Context, reviewID string) (Review, error) {
	return e.reviews.Get(ctx, reviewID)
}

func (e *Engine) discard(a *Attempt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != stateInProgress {
		return
	}
	a.state = stateDiscarded
	a.stopTimersLocked()
	e.log.Info("attempt discarded", "user_id", a.user.ID, "topic", a.topic, "mode", a.mode.Key)
}

func (e *Engine) scheduleLocked(a *Attempt) {
	if !a.mode.Timed || a.mode.TimeLimit <= 0 {
		return
	}
	limit := a.mode.TimeLimit
	if e.warningLead > 0 && limit > e.warningLead {
		a.timers = append(a.timers, time.AfterFunc(limit-e.warningLead, func() { e.warn(a) }))
	}
	a.timers = append(a.timers, time.AfterFunc(limit, func() { e.expire(a) }))
}

func (e *Engine) warn(a *Attempt) {
	a.mu.Lock()
	active := a.state == stateInProgress
	a.mu.Unlock()
	if !active {
		return
	}
	if n := e.currentNotifier(); n != nil {
		n.NotifyWarning(a.user.ID, e.warningLead)
	}
}

func (e *Engine) expire(a *Attempt) {
	a.mu.Lock()
	if a.state != stateInProgress {
		a.mu.Unlock()
		return
	}
	e.expireLocked(context.Background(), a)
}

// expireLocked finalizes a with ReasonTimeout and releases a.mu.
func (e *Engine) expireLocked(ctx context.Context, a *Attempt) {
	result := e.finishLocked(a, ReasonTimeout)
	a.mu.Unlock()

	result = e.complete(ctx, a, result)
	if n := e.currentNotifier(); n != nil {
		n.NotifyExpired(result)
	}
}

func (e *Engine) overdueLocked(a *Attempt) bool {
	return !a.deadline.IsZero() && !e.now().Before(a.deadline)
}

// finishLocked moves a to Finished and scores it. Callers hold a.mu and have
// checked that a is still in progress.
func (e *Engine) finishLocked(a *Attempt, reason Reason) Result {
	a.state = stateFinished
	a.stopTimersLocked()

	now := e.now()
	result := Result{
		UserID:      a.user.ID,
		DisplayName: a.user.DisplayName,
		Topic:       a.topic,
		ModeKey:     a.mode.Key,
		Reason:      reason,
		Total:       len(a.questions),
		Elapsed:     now.Sub(a.startedAt),
		Outcomes:    make([]bool, len(a.questions)),
		Topics:      make(map[string]TopicTally),
		ReviewID:    uuid.NewString(),
		FinishedAt:  now,
	}
	for i, q := range a.questions {
		correct := q.IsCorrect(a.answers[i])
		result.Outcomes[i] = correct
		tally := result.Topics[q.Topic]
		tally.Total++
		if correct {
			result.Correct++
			tally.Correct++
		}
		result.Topics[q.Topic] = tally
	}
	if result.Total > 0 {
		result.Percent = float64(result.Correct) / float64(result.Total) * 100
	}
	return result
}

// complete runs the side effects of a finalized attempt outside its lock.
func (e *Engine) complete(ctx context.Context, a *Attempt, result Result) Result {
	e.sessions.Remove(a.user.ID, a)

	e.stats.Record(Entry{
		UserID:      result.UserID,
		DisplayName: result.DisplayName,
		Correct:     result.Correct,
		Total:       result.Total,
		Percent:     result.Percent,
		Elapsed:     result.Elapsed,
		FinishedAt:  result.FinishedAt,
		Topics:      result.Topics,
	})

	review := Review{
		ID:         result.ReviewID,
		UserID:     result.UserID,
		Topic:      result.Topic,
		ModeKey:    result.ModeKey,
		Items:      make([]ReviewItem, len(a.questions)),
		FinishedAt: result.FinishedAt,
	}
	for i, q := range a.questions {
		review.Items[i] = ReviewItem{Question: q, Answer: a.answers[i].Clone(), Correct: result.Outcomes[i]}
	}
	if err := e.reviews.Save(ctx, review); err != nil {
		e.log.Warn("store review failed", "review_id", review.ID, "error", err)
		result.ReviewID = ""
	}

	if e.publisher != nil {
		if err := e.publisher.PublishAttemptFinished(ctx, result); err != nil {
			e.log.Warn("publish attempt finished failed", "user_id", result.UserID, "error", err)
		}
	}

	e.log.Info("attempt finalized",
		"user_id", result.UserID,
		"reason", result.Reason,
		"correct", result.Correct,
		"total", result.Total,
		"percent", result.Percent,
	)
	return result
}

func (e *Engine) viewLocked(a *Attempt) View {
	q := a.questions[a.cursor]
	view := View{
		Attempt:  a.generation,
		UserID:   a.user.ID,
		Topic:    a.topic,
		Mode:     a.mode,
		Index:    a.cursor,
		Total:    len(a.questions),
		Question: q,
		Selected: a.answers[a.cursor].Clone(),
		Answered: make([]bool, len(a.questions)),
	}
	for i, ans := range a.answers {
		view.Answered[i] = len(ans) > 0
	}
	if !a.deadline.IsZero() {
		if remaining := a.deadline.Sub(e.now()); remaining > 0 {
			view.Remaining = remaining
		}
	}
	if a.mode.InstantFeedback && !q.IsMulti() && len(view.Selected) > 0 {
		correct := q.IsCorrect(view.Selected)
		view.Feedback = &correct
	}
	return view
}

func (e *Engine) currentNotifier() Notifier {
	e.notifierMu.RLock()
	defer e.notifierMu.RUnlock()
	return e.notifier
}
