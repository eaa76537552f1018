package quiz

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsBestPercentIsMonotonic(t *testing.T) {
	stats := NewStats()

	stats.RecordResult(1, "alice", 9, 10, 90)
	stats.RecordResult(1, "alice", 5, 10, 50)

	st, ok := stats.Get(1)
	require.True(t, ok)
	assert.InDelta(t, 90.0, st.BestPercent, 1e-9)
	assert.Equal(t, 14, st.TotalCorrect)
	assert.Equal(t, 20, st.TotalQuestions)
	assert.Equal(t, 2, st.AttemptsTaken)
	assert.InDelta(t, 70.0, st.AveragePercent(), 1e-9)
}

func TestStatsTopNOrdersByBestThenFirstRecorded(t *testing.T) {
	stats := NewStats()
	stats.RecordResult(1, "first", 8, 10, 80)
	stats.RecordResult(2, "second", 9, 10, 90)
	stats.RecordResult(3, "third", 8, 10, 80)
	stats.RecordResult(4, "fourth", 1, 10, 10)

	top := stats.TopN(3)
	require.Len(t, top, 3)
	assert.Equal(t, []int64{2, 1, 3}, []int64{top[0].UserID, top[1].UserID, top[2].UserID})

	assert.Len(t, stats.TopN(0), 4)
	assert.Len(t, stats.TopN(100), 4)
}

func TestStatsGetUnknownUser(t *testing.T) {
	_, ok := NewStats().Get(99)
	assert.False(t, ok)
	assert.Empty(t, NewStats().TopN(5))
}

func TestStatsHistoryKeepsMostRecent(t *testing.T) {
	stats := NewStats()
	for i := 1; i <= 7; i++ {
		stats.Record(Entry{UserID: 1, Correct: i, Total: 10, Percent: float64(i * 10)})
	}

	st, _ := stats.Get(1)
	require.Len(t, st.History, historySize)
	assert.Equal(t, 3, st.History[0].Correct)
	assert.Equal(t, 7, st.History[len(st.History)-1].Correct)
}

func TestStatsTopicTalliesAccumulate(t *testing.T) {
	stats := NewStats()
	stats.Record(Entry{UserID: 1, Correct: 1, Total: 2, Topics: map[string]TopicTally{"toc": {Correct: 1, Total: 2}}})
	stats.Record(Entry{UserID: 1, Correct: 2, Total: 3, Topics: map[string]TopicTally{
		"toc":  {Correct: 1, Total: 1},
		"dbms": {Correct: 1, Total: 2},
	}})

	st, _ := stats.Get(1)
	assert.Equal(t, map[string]TopicTally{
		"toc":  {Correct: 2, Total: 3},
		"dbms": {Correct: 1, Total: 2},
	}, st.Topics)
}

func TestStatsGetReturnsCopy(t *testing.T) {
	stats := NewStats()
	stats.Record(Entry{UserID: 1, Correct: 1, Total: 1, Percent: 100, Topics: map[string]TopicTally{"toc": {Correct: 1, Total: 1}}})

	st, _ := stats.Get(1)
	st.Topics["toc"] = TopicTally{}
	st.History[0].Correct = 99

	again, _ := stats.Get(1)
	assert.Equal(t, TopicTally{Correct: 1, Total: 1}, again.Topics["toc"])
	assert.Equal(t, 1, again.History[0].Correct)
}

func TestStatsDisplayNameKeepsLatestNonEmpty(t *testing.T) {
	stats := NewStats()
	stats.RecordResult(1, "alice", 1, 1, 100)
	stats.RecordResult(1, "", 1, 1, 100)

	st, _ := stats.Get(1)
	assert.Equal(t, "alice", st.DisplayName)
}

func TestStatsConcurrentRecords(t *testing.T) {
	stats := NewStats()
	var wg sync.WaitGroup
	for u := int64(1); u <= 4; u++ {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(userID int64) {
				defer wg.Done()
				stats.RecordResult(userID, "u", 1, 2, 50)
			}(u)
		}
	}
	wg.Wait()

	for u := int64(1); u <= 4; u++ {
		st, ok := stats.Get(u)
		require.True(t, ok)
		assert.Equal(t, 50, st.AttemptsTaken)
		assert.Equal(t, 100, st.TotalQuestions)
	}
	assert.Len(t, stats.TopN(0), 4)
}
