package websocket

import (
	"sync"

	"github.com/pugmatch/pugmatch-backend/pkg/logger"
)

// Hub tracks websocket connections per user and fans pug lifecycle
// events out to them. It implements service.Notifier; delivery is
// fire-and-forget and never blocks a lifecycle operation.
type Hub struct {
	// one connection per user id
	clients map[string]*Client
	mu      sync.RWMutex

	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
}

// Message is one event pushed to a client.
type Message struct {
	UserID  string      `json:"-"` // recipient; empty broadcasts to everyone
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes registrations and outbound messages. Call in its own
// goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Replace any existing connection for the user
	if oldClient, exists := h.clients[client.userID]; exists {
		close(oldClient.send)
		logger.Info("Replaced existing WebSocket connection", "userId", client.userID)
	}

	h.clients[client.userID] = client
	logger.Info("WebSocket client registered",
		"userId", client.userID,
		"totalClients", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.clients[client.userID]; exists && current == client {
		delete(h.clients, client.userID)
		close(client.send)
		logger.Info("WebSocket client unregistered",
			"userId", client.userID,
			"totalClients", len(h.clients))
	}
}

func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if message.UserID == "" {
		for _, client := range h.clients {
			h.send(client, message)
		}
		return
	}

	if client, exists := h.clients[message.UserID]; exists {
		h.send(client, message)
	}
}

func (h *Hub) send(client *Client, message *Message) {
	select {
	case client.send <- message:
	default:
		// Slow consumer; drop the connection rather than block
		logger.Warn("Client send channel full, unregistering", "userId", client.userID)
		go func(c *Client) {
			h.unregister <- c
		}(client)
	}
}

// Notify implements service.Notifier. A nil recipient list broadcasts
// to every connected user.
func (h *Hub) Notify(event string, payload interface{}, userIDs []string) {
	if len(userIDs) == 0 {
		h.broadcast <- &Message{Type: event, Payload: payload}
		return
	}
	for _, userID := range userIDs {
		h.broadcast <- &Message{UserID: userID, Type: event, Payload: payload}
	}
}
