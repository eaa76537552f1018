package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"quiz-bot/internal/logger"
	"quiz-bot/internal/quiz"
)

const (
	DeliveryPolling = "polling"
	DeliveryWebhook = "webhook"

	handlerTimeout  = 15 * time.Second
	secretHeader    = "X-Telegram-Bot-Api-Secret-Token"
	maxWebhookBytes = 1 << 20
)

type Settings struct {
	Token string
	// APIURL overrides the Bot API endpoint.
	APIURL      string
	Delivery    string
	PollTimeout time.Duration

	// Webhook delivery.
	WebhookURL    string
	WebhookSecret string

	// Offline skips the getMe call on construction.
	Offline bool
	// Synchronous runs handlers on the update goroutine.
	Synchronous bool
}

// Gateway connects the quiz engine to Telegram. It also receives the
// engine's timer notifications.
type Gateway struct {
	bot      *tele.Bot
	engine   *quiz.Engine
	log      *logger.Logger
	delivery string
	webhook  *tele.Webhook
}

func New(s Settings, engine *quiz.Engine, log *logger.Logger) (*Gateway, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "TelegramGateway")
	if strings.TrimSpace(s.Token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if s.PollTimeout <= 0 {
		s.PollTimeout = 10 * time.Second
	}
	if s.Delivery == "" {
		s.Delivery = DeliveryPolling
	}

	g := &Gateway{engine: engine, log: log, delivery: s.Delivery}
	switch s.Delivery {
	case DeliveryPolling:
	case DeliveryWebhook:
		if s.WebhookURL == "" {
			return nil, errors.New("telegram: webhook url is required in webhook mode")
		}
		g.webhook = &tele.Webhook{
			SecretToken: s.WebhookSecret,
			Endpoint:    &tele.WebhookEndpoint{PublicURL: s.WebhookURL},
		}
	default:
		return nil, fmt.Errorf("telegram: unknown delivery mode %q", s.Delivery)
	}

	bot, err := tele.NewBot(tele.Settings{
		URL:         s.APIURL,
		Token:       s.Token,
		Poller:      &tele.LongPoller{Timeout: s.PollTimeout},
		Offline:     s.Offline,
		Synchronous: s.Synchronous,
		OnError: func(err error, c tele.Context) {
			if c != nil && c.Sender() != nil {
				log.Error("telegram handler failed", "user_id", c.Sender().ID, "error", err)
				return
			}
			log.Error("telegram error", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	g.bot = bot
	g.routes()
	engine.SetNotifier(g)
	return g, nil
}

func (g *Gateway) routes() {
	g.bot.Handle("/start", g.onStart)
	g.bot.Handle("/help", g.onHelp)
	g.bot.Handle("/quiz", g.onQuiz)
	g.bot.Handle("/topics", g.onTopics)
	g.bot.Handle("/leaderboard", g.onLeaderboard)
	g.bot.Handle("/mystats", g.onMyStats)
	g.bot.Handle("/topicstats", g.onTopicStats)
	g.bot.Handle(tele.OnCallback, g.onCallback)
}

// Run receives updates until ctx is cancelled. In webhook mode it registers
// the webhook and leaves delivery to WebhookHandler.
func (g *Gateway) Run(ctx context.Context) error {
	if g.delivery == DeliveryWebhook {
		if err := g.bot.SetWebhook(g.webhook); err != nil {
			return fmt.Errorf("telegram: set webhook: %w", err)
		}
		g.log.Info("webhook registered", "url", g.webhook.Endpoint.PublicURL)
		<-ctx.Done()
		return nil
	}

	if err := g.bot.RemoveWebhook(); err != nil {
		g.log.Warn("remove webhook failed", "error", err)
	}
	go func() {
		<-ctx.Done()
		g.bot.Stop()
	}()
	g.log.Info("long polling started")
	g.bot.Start()
	g.log.Info("long polling stopped")
	return nil
}

// WebhookHandler accepts Telegram update pushes. It is nil in polling mode.
func (g *Gateway) WebhookHandler() http.Handler {
	if g.webhook == nil {
		return nil
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if secret := g.webhook.SecretToken; secret != "" && r.Header.Get(secretHeader) != secret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var update tele.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWebhookBytes)).Decode(&update); err != nil {
			g.log.Warn("decode webhook update failed", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		g.bot.ProcessUpdate(update)
		w.WriteHeader(http.StatusOK)
	})
}

// NotifyWarning implements quiz.Notifier.
func (g *Gateway) NotifyWarning(userID int64, remaining time.Duration) {
	if _, err := g.bot.Send(tele.ChatID(userID), WarningText(remaining), tele.ModeHTML); err != nil {
		g.log.Warn("deliver time warning failed", "user_id", userID, "error", err)
	}
}

// NotifyExpired implements quiz.Notifier.
func (g *Gateway) NotifyExpired(result quiz.Result) {
	text := ResultText(result, g.engine.Stats().TopN(resultBoardSize))
	if _, err := g.bot.Send(tele.ChatID(result.UserID), text, tele.ModeHTML, ResultKeyboard(result)); err != nil {
		g.log.Warn("deliver expired result failed", "user_id", result.UserID, "error", err)
	}
}

// deliver logs failed sends. The attempt carries on either way.
func (g *Gateway) deliver(c tele.Context, what string, err error) {
	if err == nil {
		return
	}
	if strings.Contains(err.Error(), "message is not modified") {
		g.log.Debug("edit skipped, content unchanged", "message", what)
		return
	}
	fields := []interface{}{"message", what, "error", err}
	if c.Sender() != nil {
		fields = append(fields, "user_id", c.Sender().ID)
	}
	g.log.Warn("telegram delivery failed", fields...)
}
