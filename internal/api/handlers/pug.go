package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pugmatch/pugmatch-backend/internal/models"
	"github.com/pugmatch/pugmatch-backend/internal/service"
)

type PugHandler struct {
	pugService     *service.PugService
	commentService *service.CommentService
}

func NewPugHandler(pugService *service.PugService, commentService *service.CommentService) *PugHandler {
	return &PugHandler{
		pugService:     pugService,
		commentService: commentService,
	}
}

type CreatePugRequest struct {
	GameID         string   `json:"gameId"`
	GameOtherTitle string   `json:"gameOtherTitle"`
	Message        string   `json:"message"`
	MaxPlayers     int      `json:"maxPlayers" binding:"required"`
	TeamCount      int      `json:"teamCount" binding:"required"`
	TeamMode       string   `json:"teamMode" binding:"required"`
	Invites        []string `json:"invites"`
	ReadyPlayers   []string `json:"readyPlayers"`
}

// CreatePug creates a new session, optionally pre-seeded with players.
func (h *PugHandler) CreatePug(c *gin.Context) {
	var req CreatePugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pug, err := h.pugService.Create(service.CreatePugParams{
		UserID:         c.GetString("userId"),
		GameID:         req.GameID,
		GameOtherTitle: req.GameOtherTitle,
		Message:        req.Message,
		Settings: models.PugSettings{
			MaxPlayers: req.MaxPlayers,
			TeamCount:  req.TeamCount,
			TeamMode:   models.TeamMode(req.TeamMode),
			Invites:    req.Invites,
		},
		ReadyPlayers: req.ReadyPlayers,
	})
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusCreated, pug)
}

// GetPug returns one session with player form attached.
func (h *PugHandler) GetPug(c *gin.Context) {
	pug, err := h.pugService.GetPug(c.Param("id"))
	if err != nil {
		respondPugError(c, err)
		return
	}

	h.pugService.AttachForm(pug)

	c.JSON(http.StatusOK, pug)
}

// ListPugs returns sessions, filtered by state and game.
func (h *PugHandler) ListPugs(c *gin.Context) {
	filter := models.PugFilter{
		GameID: c.Query("gameId"),
	}
	if state := c.Query("state"); state != "" {
		filter.States = []models.PugState{models.PugState(state)}
	}
	if c.Query("includeCanceled") == "true" {
		filter.IncludeCanceled = true
	}
	if since := c.Query("updatedSince"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			filter.UpdatedSince = t
		}
	}
	if after := c.Query("finishedAfter"); after != "" {
		if t, err := time.Parse(time.RFC3339, after); err == nil {
			filter.FinishedAfter = t
		}
	}

	pugs, err := h.pugService.ListPugs(filter)
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pugs":  pugs,
		"total": len(pugs),
	})
}

type JoinPugRequest struct {
	Slot *int `json:"slot"`
}

// JoinPug adds the authenticated user to a waiting session.
func (h *PugHandler) JoinPug(c *gin.Context) {
	var req JoinPugRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pug, err := h.pugService.AddPlayer(c.Param("id"), c.GetString("userId"), req.Slot)
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusOK, pug)
}

// LeavePug removes the authenticated user from a waiting session.
func (h *PugHandler) LeavePug(c *gin.Context) {
	pug, err := h.pugService.RemovePlayer(c.Param("id"), c.GetString("userId"))
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusOK, pug)
}

type FinishPugRequest struct {
	Scores []int `json:"scores" binding:"required"`
}

// FinishPug records the outcome of a ready session.
func (h *PugHandler) FinishPug(c *gin.Context) {
	var req FinishPugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pug, err := h.pugService.Finish(c.Param("id"), c.GetString("userId"), req.Scores)
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusOK, pug)
}

type CancelPugRequest struct {
	Message string `json:"message"`
}

// CancelPug cancels a waiting or ready session. Creator only.
func (h *PugHandler) CancelPug(c *gin.Context) {
	var req CancelPugRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userId")
	pug, err := h.pugService.Cancel(c.Param("id"), &userID, req.Message)
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusOK, pug)
}

type InvitePugRequest struct {
	Invites []string `json:"invites"`
}

// InvitePug replaces the session's invite list. Creator only.
func (h *PugHandler) InvitePug(c *gin.Context) {
	var req InvitePugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pug, err := h.pugService.Invite(c.Param("id"), c.GetString("userId"), req.Invites)
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusOK, pug)
}

// ListComments returns a session's comments.
func (h *PugHandler) ListComments(c *gin.Context) {
	comments, err := h.commentService.List(c.Param("id"))
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"total":    len(comments),
	})
}

// CreateComment appends a comment to a session.
func (h *PugHandler) CreateComment(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.commentService.Create(c.Param("id"), c.GetString("userId"), req.Message)
	if err != nil {
		respondPugError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// parseLimit reads a limit query param with a default and cap.
func parseLimit(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
