package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/pugmatch/pugmatch-backend/internal/websocket"
)

type WebSocketHandler struct {
	hub *websocket.Hub
}

func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleWebSocket upgrades the connection and subscribes the
// authenticated user to pug events.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString("userId")
	websocket.ServeWs(h.hub, c.Writer, c.Request, userID)
}
