package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quiz-bot/internal/quiz"
)

func (a *API) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:         "ok",
		ActiveSessions: a.engine.ActiveSessions(),
	})
}

func (a *API) HandleTopics(c *gin.Context) {
	c.JSON(http.StatusOK, topicsResponse{
		Topics: a.engine.Repository().ListTopics(c.Request.Context()),
	})
}

func (a *API) HandleModes(c *gin.Context) {
	catalog := quiz.Modes()
	items := make([]modeResponse, 0, len(catalog))
	for _, m := range catalog {
		items = append(items, toModeResponse(m))
	}
	c.JSON(http.StatusOK, modesResponse{
		Modes:     items,
		TopicMode: toModeResponse(quiz.TopicMode),
	})
}

func (a *API) HandleLeaderboard(c *gin.Context) {
	limit, err := parseLeaderboardLimit(c, defaultLeaderboardLimit)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	top := a.engine.Stats().TopN(limit)
	items := make([]leaderboardEntryResponse, 0, len(top))
	for i, u := range top {
		items = append(items, leaderboardEntryResponse{
			Rank:           i + 1,
			UserID:         u.UserID,
			DisplayName:    u.DisplayName,
			BestPercent:    u.BestPercent,
			AveragePercent: u.AveragePercent(),
			AttemptsTaken:  u.AttemptsTaken,
		})
	}
	c.JSON(http.StatusOK, leaderboardResponse{Leaderboard: items})
}

func (a *API) HandleUserStats(c *gin.Context) {
	userID, err := parseUserID(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	stats, ok := a.engine.Stats().Get(userID)
	if !ok {
		writeError(c, http.StatusNotFound, "user has no recorded attempts")
		return
	}
	c.JSON(http.StatusOK, userStatsResponse{UserStats: stats, AveragePercent: stats.AveragePercent()})
}

func (a *API) HandleReview(c *gin.Context) {
	reviewID := strings.TrimSpace(c.Param("review_id"))
	review, err := a.engine.Review(c.Request.Context(), reviewID)
	if err != nil {
		if errors.Is(err, quiz.ErrReviewNotFound) {
			writeError(c, http.StatusNotFound, "review not found")
			return
		}
		a.log.Error("load review failed", "review_id", reviewID, "error", err)
		writeError(c, http.StatusInternalServerError, "request failed")
		return
	}
	c.JSON(http.StatusOK, toReviewResponse(review))
}

func (a *API) HandleActivity(c *gin.Context) {
	c.JSON(http.StatusOK, activityResponse{
		Total:  a.activity.Total(),
		Events: a.activity.Recent(),
	})
}
