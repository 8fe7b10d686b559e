package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pugmatch/pugmatch-backend/internal/service"
)

type LeaderboardHandler struct {
	standingsService *service.StandingsService
}

func NewLeaderboardHandler(standingsService *service.StandingsService) *LeaderboardHandler {
	return &LeaderboardHandler{
		standingsService: standingsService,
	}
}

// GetLeaderboard godoc
// @Summary Get per-game leaderboard
// @Description Players of a game ranked by current skill rating
// @Tags leaderboard
// @Produce json
// @Param id path string true "Game ID"
// @Param finishedAfter query string false "Only sessions finished at or after this RFC3339 time"
// @Param finishedBefore query string false "Only sessions finished at or before this RFC3339 time"
// @Param limit query int false "Number of rows to return" default(20)
// @Success 200 {object} map[string]interface{} "Leaderboard rows"
// @Router /games/{id}/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	gameID := c.Param("id")
	limit := parseLimit(c, 20, 100)

	var finishedAfter, finishedBefore time.Time
	if after := c.Query("finishedAfter"); after != "" {
		if t, err := time.Parse(time.RFC3339, after); err == nil {
			finishedAfter = t
		}
	}
	if before := c.Query("finishedBefore"); before != "" {
		if t, err := time.Parse(time.RFC3339, before); err == nil {
			finishedBefore = t
		}
	}

	rows, err := h.standingsService.Leaderboard(gameID, finishedAfter, finishedBefore, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get leaderboard",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gameId":      gameID,
		"leaderboard": rows,
		"total":       len(rows),
	})
}

// GetForm returns a player's recent results for a game.
func (h *LeaderboardHandler) GetForm(c *gin.Context) {
	gameID := c.Param("id")
	userID := c.Param("userId")

	form, err := h.standingsService.Form(userID, gameID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get form",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gameId": gameID,
		"userId": userID,
		"form":   form,
	})
}
