package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"quiz-bot/internal/events"
	"quiz-bot/internal/logger"
	"quiz-bot/internal/quiz"
)

type Options struct {
	Engine   *quiz.Engine
	Activity ActivityFeed
	Log      *logger.Logger

	// Webhook receives Telegram updates on WebhookPath when set.
	Webhook     http.Handler
	WebhookPath string

	// AllowOrigins lists CORS origins. Empty allows any origin.
	AllowOrigins []string
}

func NewRouter(opts Options) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("component", "HTTPAPI")
	if opts.Activity == nil {
		opts.Activity = events.NewAudit(0, log)
	}
	api := NewAPI(opts.Engine, opts.Activity, log)

	router := gin.New()
	router.Use(requestLogger(log))
	router.Use(recovery(log))

	corsConfig := cors.Config{
		AllowOrigins:  opts.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(opts.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", api.HandleHealth)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/topics", api.HandleTopics)
		v1.GET("/modes", api.HandleModes)
		v1.GET("/leaderboard", api.HandleLeaderboard)
		v1.GET("/users/:user_id/stats", api.HandleUserStats)
		v1.GET("/reviews/:review_id", api.HandleReview)
		v1.GET("/activity", api.HandleActivity)
	}

	if opts.Webhook != nil && opts.WebhookPath != "" {
		router.POST(opts.WebhookPath, gin.WrapH(opts.Webhook))
	}

	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})
	return router
}
