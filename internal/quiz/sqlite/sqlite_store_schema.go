package sqlite

import (
	"context"
)

func (s *Store) initSchema(ctx context.Context) error {
	// No FK constraints: ImportTopic replaces a topic's rows inside one transaction.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS topics (
			topic_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			imported_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			question_id TEXT NOT NULL,
			topic_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			options_json TEXT NOT NULL,
			correct_json TEXT NOT NULL,
			kind TEXT NOT NULL,
			marks INTEGER NOT NULL,
			media_url TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL,
			PRIMARY KEY (topic_id, question_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_topic_position ON questions(topic_id, position);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
