package httpapi

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const defaultLeaderboardLimit = 10

func parseLeaderboardLimit(c *gin.Context, defaultValue int) (int, error) {
	value := strings.TrimSpace(c.Query("limit"))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	// <=0 means "entire leaderboard".
	return parsed, nil
}

func parseUserID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("user_id")), 10, 64)
	if err != nil {
		return 0, errors.New("user_id must be an integer")
	}
	return id, nil
}

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, errorResponse{Error: message})
}
