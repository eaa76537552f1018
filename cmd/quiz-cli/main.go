package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"quiz-bot/internal/cli"
	"quiz-bot/internal/logger"
	"quiz-bot/internal/questiondoc"
	"quiz-bot/internal/quiz"
	"quiz-bot/internal/quiz/sqlite"
)

func main() {
	topic := flag.String("topic", quiz.MixedTopic, "topic id, or mixed")
	modeKey := flag.String("mode", "", "quiz mode key (default: topic practice)")
	dir := flag.String("dir", "", "directory of question documents")
	db := flag.String("db", "", "SQLite question bank")
	listModes := flag.Bool("modes", false, "list quiz modes and exit")
	flag.Parse()

	if *listModes {
		for _, m := range quiz.Modes() {
			fmt.Printf("%-18s %s\n", m.Key, m.Label)
		}
		return
	}

	mode := quiz.TopicMode
	if *modeKey != "" {
		m, err := quiz.LookupMode(*modeKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v %q (see -modes)\n", err, *modeKey)
			os.Exit(2)
		}
		mode = m
	}

	log := logger.Nop()
	var sources []quiz.Source
	if *db != "" {
		store, err := sqlite.NewStore(*db)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		defer store.Close()
		sources = append(sources, store)
	}
	if *dir != "" {
		sources = append(sources, questiondoc.DirSource(*dir, log))
	}
	sources = append(sources, questiondoc.EmbeddedCatalog(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine := quiz.NewEngine(quiz.NewRepository(log, sources...), nil, nil)
	_, err := cli.Run(ctx, os.Stdin, os.Stdout, cli.Options{
		Engine: engine,
		User:   quiz.User{ID: int64(os.Getpid()), DisplayName: os.Getenv("USER")},
		Topic:  *topic,
		Mode:   mode,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
