package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"quiz-bot/internal/quiz"
)

var ErrTopicRequired = errors.New("topic id is required")

// TopicSummary describes one imported topic.
type TopicSummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	QuestionCount int       `json:"question_count"`
	ImportedAt    time.Time `json:"imported_at"`
}

// ImportTopic replaces every question of topic with questions in a single
// transaction. Duplicate questions (same prompt and options) are stored
// once; the returned count is the number of rows written.
func (s *Store) ImportTopic(ctx context.Context, topic, title, source string, questions []quiz.Question) (int, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return 0, ErrTopicRequired
	}
	if title == "" {
		title = quiz.HumanizeTopic(topic)
	}
	if source == "" {
		source = "import"
	}
	now := time.Now().UTC().UnixNano()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE topic_id = ?`, topic); err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO topics (topic_id, title, imported_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(topic_id) DO UPDATE SET
			title = excluded.title,
			imported_at_unix = excluded.imported_at_unix`,
		topic,
		title,
		now,
	)
	if err != nil {
		return 0, err
	}

	written := 0
	for idx, question := range questions {
		optionsJSON, err := json.Marshal(question.Options)
		if err != nil {
			return 0, err
		}
		correctJSON, err := json.Marshal(question.Correct)
		if err != nil {
			return 0, err
		}

		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO questions (question_id, topic_id, position, prompt, options_json, correct_json, kind, marks, media_url, source, created_at_unix)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(topic_id, question_id) DO NOTHING`,
			quiz.QuestionID(question),
			topic,
			idx,
			question.Prompt,
			string(optionsJSON),
			string(correctJSON),
			string(question.Kind),
			question.Points,
			question.MediaURL,
			source,
			now,
		)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			written++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

// DeleteTopic removes a topic and its questions. Deleting an unknown topic is
// not an error.
func (s *Store) DeleteTopic(ctx context.Context, topic string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE topic_id = ?`, topic); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM topics WHERE topic_id = ?`, topic); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Summaries(ctx context.Context) ([]TopicSummary, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT t.topic_id, t.title, t.imported_at_unix, COUNT(q.question_id)
		 FROM topics t
		 LEFT JOIN questions q ON q.topic_id = t.topic_id
		 GROUP BY t.topic_id, t.title, t.imported_at_unix
		 ORDER BY t.topic_id ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]TopicSummary, 0)
	for rows.Next() {
		var (
			item           TopicSummary
			importedAtUnix int64
		)
		if err := rows.Scan(&item.ID, &item.Title, &importedAtUnix, &item.QuestionCount); err != nil {
			return nil, err
		}
		item.ImportedAt = time.Unix(0, importedAtUnix).UTC()
		summaries = append(summaries, item)
	}
	return summaries, rows.Err()
}

// Topics lists imported topics that still hold questions.
func (s *Store) Topics(ctx context.Context) ([]quiz.Topic, error) {
	summaries, err := s.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	topics := make([]quiz.Topic, 0, len(summaries))
	for _, item := range summaries {
		if item.QuestionCount == 0 {
			continue
		}
		topics = append(topics, quiz.Topic{ID: item.ID, Title: item.Title})
	}
	return topics, nil
}

// Load returns a topic's questions in import order. Unknown topics yield an
// empty slice.
func (s *Store) Load(ctx context.Context, topic string) ([]quiz.Question, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT prompt, options_json, correct_json, kind, marks, media_url
		 FROM questions
		 WHERE topic_id = ?
		 ORDER BY position ASC`,
		topic,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]quiz.Question, 0)
	for rows.Next() {
		var (
			q           quiz.Question
			optionsJSON string
			correctJSON string
			kind        string
		)
		if err := rows.Scan(&q.Prompt, &optionsJSON, &correctJSON, &kind, &q.Points, &q.MediaURL); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(correctJSON), &q.Correct); err != nil {
			return nil, err
		}
		q.Kind = quiz.Kind(kind)
		q.Topic = topic
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// TopicExists reports whether topic has been imported.
func (s *Store) TopicExists(ctx context.Context, topic string) (bool, error) {
	var found int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT 1 FROM topics WHERE topic_id = ? LIMIT 1`,
		topic,
	).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
