package quiz

import (
	"context"
	"errors"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	topics    []Topic
	questions map[string][]Question
	err       error
	loads     int
}

func (s *staticSource) Topics(context.Context) ([]Topic, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.topics, nil
}

func (s *staticSource) Load(_ context.Context, topic string) ([]Question, error) {
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return s.questions[topic], nil
}

func fourQuestionSource() *staticSource {
	return &staticSource{
		topics: []Topic{{ID: "algorithms", Title: "Algorithms"}},
		questions: map[string][]Question{
			"algorithms": {
				mcq("q1", 1), mcq("q2", 1), mcq("q3", 2), mcq("q4", 0),
			},
		},
	}
}

func TestRepositorySampleLargerThanPoolReturnsWholePoolOnce(t *testing.T) {
	repo := NewRepository(nil, fourQuestionSource()).WithSeed(7)

	got := repo.Sample(context.Background(), "algorithms", 50)
	require.Len(t, got, 4)

	seen := make(map[string]int)
	for _, q := range got {
		seen[q.Prompt]++
		assert.Equal(t, "algorithms", q.Topic)
	}
	assert.Equal(t, map[string]int{"q1": 1, "q2": 1, "q3": 1, "q4": 1}, seen)
}

func TestRepositorySampleDrawsWithoutReplacement(t *testing.T) {
	repo := NewRepository(nil, fourQuestionSource())

	got := repo.Sample(context.Background(), "algorithms", 3)
	require.Len(t, got, 3)
	seen := make(map[string]bool)
	for _, q := range got {
		assert.False(t, seen[q.Prompt], "duplicate %s", q.Prompt)
		seen[q.Prompt] = true
	}
}

func TestRepositorySampleUnknownTopicIsEmpty(t *testing.T) {
	repo := NewRepository(nil, fourQuestionSource())
	assert.Empty(t, repo.Sample(context.Background(), "compilers", 5))
}

func TestRepositorySampleMixedSpansTopics(t *testing.T) {
	src := &staticSource{
		topics: []Topic{{ID: "toc"}, {ID: "coa"}},
		questions: map[string][]Question{
			"toc": {mcq("t1", 0), mcq("t2", 0)},
			"coa": {mcq("c1", 0)},
		},
	}
	repo := NewRepository(nil, src)

	got := repo.Sample(context.Background(), "random", 0)
	require.Len(t, got, 3)
	topics := map[string]int{}
	for _, q := range got {
		topics[q.Topic]++
	}
	assert.Equal(t, map[string]int{"toc": 2, "coa": 1}, topics)
}

func TestRepositoryFailingSourceIsTreatedAsEmpty(t *testing.T) {
	broken := &staticSource{err: errors.New("malformed document")}
	repo := NewRepository(nil, broken, fourQuestionSource())

	assert.Len(t, repo.LoadTopic(context.Background(), "algorithms"), 4)
	assert.Equal(t, []Topic{{ID: "algorithms", Title: "Algorithms"}}, repo.ListTopics(context.Background()))
}

func TestRepositoryFirstNonEmptySourceWins(t *testing.T) {
	first := &staticSource{
		topics:    []Topic{{ID: "algorithms", Title: "Algo (local)"}},
		questions: map[string][]Question{"algorithms": {mcq("local", 0)}},
	}
	repo := NewRepository(nil, first, fourQuestionSource())

	got := repo.LoadTopic(context.Background(), "algorithms")
	require.Len(t, got, 1)
	assert.Equal(t, "local", got[0].Prompt)
	assert.Equal(t, "Algo (local)", repo.TopicTitle(context.Background(), "algorithms"))
}

func TestRepositoryLoadTopicReturnsCopies(t *testing.T) {
	src := fourQuestionSource()
	repo := NewRepository(nil, src)

	got := repo.LoadTopic(context.Background(), "algorithms")
	got[0].Options[0] = "mutated"
	assert.Equal(t, "A1", src.questions["algorithms"][0].Options[0])
}

func TestHumanizeTopic(t *testing.T) {
	assert.Equal(t, "Operating Systems", HumanizeTopic("operating_systems"))
	assert.Equal(t, "Toc", HumanizeTopic("toc"))
	assert.Equal(t, "Élan Vital", HumanizeTopic("élan_vital"))
	assert.True(t, utf8.ValidString(HumanizeTopic("ünïcode-topic")))
	assert.Equal(t, "Random Mix", NewRepository(nil).TopicTitle(context.Background(), "random"))
}
