package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"quiz-bot/internal/config"
	"quiz-bot/internal/events"
	"quiz-bot/internal/httpapi"
	"quiz-bot/internal/logger"
	"quiz-bot/internal/questiondoc"
	"quiz-bot/internal/questionfeed"
	"quiz-bot/internal/quiz"
	"quiz-bot/internal/quiz/sqlite"
	"quiz-bot/internal/reviewstore"
	"quiz-bot/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Environment)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("quiz-bot stopped", "error", err)
	}
	log.Info("quiz-bot stopped")
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if err := cfg.RequireBotToken(); err != nil {
		return err
	}

	sources, closeSources, err := buildSources(cfg, log)
	if err != nil {
		return err
	}
	defer closeSources()

	reviews, closeReviews, err := buildReviews(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeReviews()

	bus, err := events.Setup(events.Config{
		Backend:      cfg.EventsPublisher,
		KafkaBrokers: cfg.KafkaBrokers,
		Topic:        cfg.EventsTopic,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			log.Warn("close event bus failed", "error", err)
		}
	}()

	opts := []quiz.EngineOption{quiz.WithLogger(log)}
	if bus.Publisher != nil {
		opts = append(opts, quiz.WithPublisher(bus.Publisher))
	}
	engine := quiz.NewEngine(quiz.NewRepository(log, sources...), quiz.NewStats(), reviews, opts...)

	gateway, err := telegram.New(telegram.Settings{
		Token:         cfg.BotToken,
		Delivery:      cfg.DeliveryMode,
		PollTimeout:   cfg.PollTimeout,
		WebhookURL:    cfg.PublicWebhookURL(),
		WebhookSecret: cfg.WebhookSecret,
	}, engine, log)
	if err != nil {
		return err
	}

	audit := events.NewAudit(0, log)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Options{
		Engine:       engine,
		Activity:     audit,
		Log:          log,
		Webhook:      gateway.WebhookHandler(),
		WebhookPath:  cfg.WebhookPath,
		AllowOrigins: cfg.CORSOrigins,
	})
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http api listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return gateway.Run(gctx)
	})
	if bus.Subscriber != nil {
		g.Go(func() error {
			return audit.Run(gctx, bus.Subscriber, cfg.EventsTopic)
		})
	}

	log.Info("quiz-bot started",
		"delivery", cfg.DeliveryMode,
		"sources", len(sources),
		"events", cfg.EventsPublisher,
	)
	return g.Wait()
}

// buildSources orders question sources by precedence: the SQLite bank, the
// documents directory, the remote feed and finally the built-in catalog.
func buildSources(cfg *config.Config, log *logger.Logger) ([]quiz.Source, func(), error) {
	var (
		sources []quiz.Source
		closers []func() error
	)
	if cfg.QuestionDB != "" {
		store, err := sqlite.NewStore(cfg.QuestionDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open question bank: %w", err)
		}
		closers = append(closers, store.Close)
		sources = append(sources, store)
		log.Info("question bank enabled", "path", cfg.QuestionDB)
	}
	if cfg.QuizDataDir != "" {
		sources = append(sources, questiondoc.DirSource(cfg.QuizDataDir, log))
	}
	if cfg.QuestionFeedURL != "" {
		client := &http.Client{Timeout: 10 * time.Second}
		sources = append(sources, questionfeed.NewClient(client, cfg.QuestionFeedURL, log))
		log.Info("question feed enabled", "url", cfg.QuestionFeedURL)
	}
	sources = append(sources, questiondoc.EmbeddedCatalog(log))

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("close question source failed", "error", err)
			}
		}
	}
	return sources, closeAll, nil
}

// buildReviews picks the review store. The returned func releases it.
func buildReviews(ctx context.Context, cfg *config.Config, log *logger.Logger) (quiz.ReviewStore, func(), error) {
	if cfg.RedisURL == "" {
		return quiz.NewMemoryReviews(cfg.ReviewTTL, cfg.ReviewCapacity), func() {}, nil
	}
	client, err := reviewstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("redis review store enabled", "ttl", cfg.ReviewTTL.String())
	closeClient := func() {
		if err := client.Close(); err != nil {
			log.Warn("close redis client failed", "error", err)
		}
	}
	return reviewstore.NewRedis(client, cfg.ReviewTTL, log), closeClient, nil
}
