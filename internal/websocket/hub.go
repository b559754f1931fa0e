package websocket

import (
	"context"
	"log/slog"
)

// Hub tracks the connected clients. Live data reaches clients through their own broker
// subscriptions, so the hub only owns connection lifecycles. clients is owned by Run.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	services Services
}

func NewHub(services Services) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		services:   services,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				client.close()
			}
			slog.Info("Websocket hub stopped", "clients", len(h.clients))
			h.clients = make(map[*Client]bool)
			return

		case client := <-h.register:
			h.clients[client] = true
			slog.Debug("Websocket client connected", "userID", client.UserID)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				slog.Debug("Websocket client disconnected", "userID", client.UserID)
			}
		}
	}
}

// Register returns false when the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
