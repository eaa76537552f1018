package quiz

import (
	"context"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"quiz-bot/internal/logger"
)

// Source provides questions for a set of topics. Implementations include the
// embedded catalog, a directory of documents, the SQLite bank and a remote feed.
type Source interface {
	Topics(ctx context.Context) ([]Topic, error)
	Load(ctx context.Context, topic string) ([]Question, error)
}

// Repository is read-only question lookup over an ordered list of sources.
// Failing sources are logged and treated as empty.
type Repository struct {
	sources []Source
	log     *logger.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRepository(log *logger.Logger, sources ...Source) *Repository {
	if log == nil {
		log = logger.Nop()
	}
	return &Repository{
		sources: sources,
		log:     log.With("component", "QuestionRepository"),
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// WithSeed makes sampling deterministic.
func (r *Repository) WithSeed(seed uint64) *Repository {
	r.mu.Lock()
	r.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	r.mu.Unlock()
	return r
}

func (r *Repository) ListTopics(ctx context.Context) []Topic {
	seen := make(map[string]bool)
	topics := make([]Topic, 0)
	for _, src := range r.sources {
		items, err := src.Topics(ctx)
		if err != nil {
			r.log.Warn("list topics failed, skipping source", "error", err)
			continue
		}
		for _, item := range items {
			if item.ID == "" || seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			if item.Title == "" {
				item.Title = HumanizeTopic(item.ID)
			}
			topics = append(topics, item)
		}
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].ID < topics[j].ID })
	return topics
}

func (r *Repository) TopicTitle(ctx context.Context, id string) string {
	if IsMixed(id) {
		return "Random Mix"
	}
	for _, t := range r.ListTopics(ctx) {
		if t.ID == id {
			return t.Title
		}
	}
	return HumanizeTopic(id)
}

// LoadTopic returns the questions of the first source that has any for topic.
func (r *Repository) LoadTopic(ctx context.Context, topic string) []Question {
	for _, src := range r.sources {
		questions, err := src.Load(ctx, topic)
		if err != nil {
			r.log.Warn("load topic failed, treating as empty", "topic", topic, "error", err)
			continue
		}
		if len(questions) == 0 {
			continue
		}
		out := cloneQuestions(questions)
		for i := range out {
			if out[i].Topic == "" {
				out[i].Topic = topic
			}
		}
		return out
	}
	r.log.Info("no questions found for topic", "topic", topic)
	return nil
}

// Sample draws count questions without replacement. A pool smaller than
// count is returned whole; count <= 0 also returns the whole pool.
func (r *Repository) Sample(ctx context.Context, topic string, count int) []Question {
	var pool []Question
	if IsMixed(topic) {
		for _, t := range r.ListTopics(ctx) {
			pool = append(pool, r.LoadTopic(ctx, t.ID)...)
		}
	} else {
		pool = r.LoadTopic(ctx, topic)
	}

	r.mu.Lock()
	r.rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	r.mu.Unlock()

	if count > 0 && count < len(pool) {
		pool = pool[:count]
	}
	return pool
}

// HumanizeTopic turns "operating_systems" into "Operating Systems".
func HumanizeTopic(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
