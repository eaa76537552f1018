package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"quiz-bot/internal/logger"
	"quiz-bot/internal/questiondoc"
	"quiz-bot/internal/quiz/sqlite"
)

func main() {
	db := flag.String("db", "questions.db", "SQLite question bank")
	dir := flag.String("dir", "", "import every document in this directory")
	builtin := flag.Bool("builtin", false, "import the built-in catalog")
	export := flag.String("export", "", "topic id to export as XLSX")
	out := flag.String("out", "", "export destination (default <topic>.xlsx)")
	list := flag.Bool("list", false, "list stored topics")
	flag.Parse()

	log, err := logger.New("development")
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), log, *db, *dir, *builtin, *export, *out, *list); err != nil {
		log.Error("quiz-import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, dbPath, dir string, builtin bool, export, out string, list bool) error {
	if dir == "" && !builtin && export == "" && !list {
		flag.Usage()
		return fmt.Errorf("nothing to do")
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if builtin {
		if err := importSource(ctx, log, store, questiondoc.EmbeddedCatalog(log), "builtin"); err != nil {
			return err
		}
	}
	if dir != "" {
		if err := importSource(ctx, log, store, questiondoc.DirSource(dir, log), dir); err != nil {
			return err
		}
	}
	if export != "" {
		if err := exportTopic(ctx, log, store, export, out); err != nil {
			return err
		}
	}
	if list {
		summaries, err := store.Summaries(ctx)
		if err != nil {
			return err
		}
		for _, s := range summaries {
			fmt.Printf("%-20s %-32s %4d questions  %s\n", s.ID, s.Title, s.QuestionCount, s.ImportedAt.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

func importSource(ctx context.Context, log *logger.Logger, store *sqlite.Store, src *questiondoc.FSSource, origin string) error {
	files, err := src.Documents()
	if err != nil {
		return err
	}
	topics := make([]string, 0, len(files))
	for topic := range files {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		doc, err := src.ReadDocument(files[topic])
		if err != nil {
			log.Warn("skipping document", "file", files[topic], "error", err)
			continue
		}
		count, err := store.ImportTopic(ctx, doc.Topic, doc.Title, filepath.Join(origin, files[topic]), doc.Questions)
		if err != nil {
			return fmt.Errorf("import %s: %w", topic, err)
		}
		log.Info("topic imported",
			"topic", doc.Topic,
			"questions", count,
			"rejected", len(doc.Rejected),
		)
	}
	return nil
}

func exportTopic(ctx context.Context, log *logger.Logger, store *sqlite.Store, topic, out string) error {
	questions, err := store.Load(ctx, topic)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return fmt.Errorf("topic %q has no stored questions", topic)
	}
	title := topic
	if summaries, err := store.Summaries(ctx); err == nil {
		for _, s := range summaries {
			if s.ID == topic {
				title = s.Title
			}
		}
	}
	if out == "" {
		out = topic + ".xlsx"
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := questiondoc.WriteXLSX(f, title, questions); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Info("topic exported", "topic", topic, "questions", len(questions), "file", out)
	return nil
}
