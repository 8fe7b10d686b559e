package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pugmatch/pugmatch-backend/internal/service"
)

type GameHandler struct {
	gameStore service.GameStore
}

func NewGameHandler(gameStore service.GameStore) *GameHandler {
	return &GameHandler{
		gameStore: gameStore,
	}
}

// ListGames returns the game catalog.
func (h *GameHandler) ListGames(c *gin.Context) {
	games, err := h.gameStore.ListGames()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list games"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"games": games,
		"total": len(games),
	})
}

// GetGame returns one catalog entry.
func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.gameStore.GetGame(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get game"})
		return
	}
	if game == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	c.JSON(http.StatusOK, game)
}
