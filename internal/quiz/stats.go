package quiz

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const historySize = 5

type TopicTally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

type HistoryEntry struct {
	Correct    int           `json:"correct"`
	Total      int           `json:"total"`
	Percent    float64       `json:"percent"`
	Elapsed    time.Duration `json:"elapsed"`
	FinishedAt time.Time     `json:"finished_at"`
}

type UserStats struct {
	UserID         int64                 `json:"user_id"`
	DisplayName    string                `json:"display_name"`
	TotalCorrect   int                   `json:"total_correct"`
	TotalQuestions int                   `json:"total_questions"`
	AttemptsTaken  int                   `json:"attempts_taken"`
	BestPercent    float64               `json:"best_percent"`
	Topics         map[string]TopicTally `json:"topics,omitempty"`
	// History keeps the most recent attempts, oldest first.
	History []HistoryEntry `json:"history,omitempty"`
}

func (u UserStats) AveragePercent() float64 {
	if u.TotalQuestions == 0 {
		return 0
	}
	return float64(u.TotalCorrect) / float64(u.TotalQuestions) * 100
}

func (u UserStats) clone() UserStats {
	if u.Topics != nil {
		topics := make(map[string]TopicTally, len(u.Topics))
		for k, v := range u.Topics {
			topics[k] = v
		}
		u.Topics = topics
	}
	u.History = append([]HistoryEntry(nil), u.History...)
	return u
}

// Entry is one finalized attempt folded into a user's stats.
type Entry struct {
	UserID      int64
	DisplayName string
	Correct     int
	Total       int
	Percent     float64
	Elapsed     time.Duration
	FinishedAt  time.Time
	Topics      map[string]TopicTally
}

type statsEntry struct {
	seq   uint64
	mu    sync.Mutex
	stats UserStats
}

// Stats accumulates per-user results across attempts. Each user has their
// own lock, so updates for different users never wait on each other.
type Stats struct {
	users sync.Map // int64 -> *statsEntry
	seq   atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) RecordResult(userID int64, displayName string, correctCount, totalCount int, scorePercent float64) {
	s.Record(Entry{
		UserID:      userID,
		DisplayName: displayName,
		Correct:     correctCount,
		Total:       totalCount,
		Percent:     scorePercent,
	})
}

func (s *Stats) Record(e Entry) {
	entry := s.entry(e.UserID)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	st := &entry.stats
	if e.DisplayName != "" {
		st.DisplayName = e.DisplayName
	}
	st.TotalCorrect += e.Correct
	st.TotalQuestions += e.Total
	st.AttemptsTaken++
	if e.Percent > st.BestPercent {
		st.BestPercent = e.Percent
	}
	for topic, tally := range e.Topics {
		if st.Topics == nil {
			st.Topics = make(map[string]TopicTally)
		}
		cur := st.Topics[topic]
		cur.Correct += tally.Correct
		cur.Total += tally.Total
		st.Topics[topic] = cur
	}
	st.History = append(st.History, HistoryEntry{
		Correct:    e.Correct,
		Total:      e.Total,
		Percent:    e.Percent,
		Elapsed:    e.Elapsed,
		FinishedAt: e.FinishedAt,
	})
	if len(st.History) > historySize {
		st.History = append([]HistoryEntry(nil), st.History[len(st.History)-historySize:]...)
	}
}

func (s *Stats) Get(userID int64) (UserStats, bool) {
	value, ok := s.users.Load(userID)
	if !ok {
		return UserStats{}, false
	}
	entry := value.(*statsEntry)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.stats.clone(), true
}

// TopN ranks users by best percentage. Ties go to whoever was recorded
// first. n <= 0 returns every user.
func (s *Stats) TopN(n int) []UserStats {
	type ranked struct {
		seq   uint64
		stats UserStats
	}
	all := make([]ranked, 0)
	s.users.Range(func(_, value any) bool {
		entry := value.(*statsEntry)
		entry.mu.Lock()
		all = append(all, ranked{seq: entry.seq, stats: entry.stats.clone()})
		entry.mu.Unlock()
		return true
	})

	sort.Slice(all, func(i, j int) bool {
		if all[i].stats.BestPercent != all[j].stats.BestPercent {
			return all[i].stats.BestPercent > all[j].stats.BestPercent
		}
		return all[i].seq < all[j].seq
	})

	if n > 0 && n < len(all) {
		all = all[:n]
	}
	out := make([]UserStats, len(all))
	for i, r := range all {
		out[i] = r.stats
	}
	return out
}

func (s *Stats) entry(userID int64) *statsEntry {
	if value, ok := s.users.Load(userID); ok {
		return value.(*statsEntry)
	}
	fresh := &statsEntry{seq: s.seq.Add(1), stats: UserStats{UserID: userID}}
	value, _ := s.users.LoadOrStore(userID, fresh)
	return value.(*statsEntry)
}
