package realtime

import (
	"context"

	"github.com/tidwall/gjson"
)

type directMessage struct {
	client *Client
	data   []byte
}

// Hub owns the set of connected clients. All sends to a client's channel
// happen on the Run goroutine.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Messages from Redis to fan out.
	broadcast chan []byte

	// Replies addressed to one client.
	direct chan directMessage

	register   chan *Client
	unregister chan *Client

	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
			}

		case msg := <-h.direct:
			if _, ok := h.clients[msg.client]; ok {
				h.deliver(msg.client, msg.data)
			}

		case message := <-h.broadcast:
			userID := gjson.GetBytes(message, "user_id").String()
			origin := gjson.GetBytes(message, "origin").String()
			for client := range h.clients {
				if origin != "" && client.id == origin {
					continue
				}
				if userID != "" && client.UserID() != userID {
					continue
				}
				h.deliver(client, message)
			}
		}
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		// slow consumer
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	close(client.send)
	_ = client.conn.Close()
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues message for every client. Messages carrying a user_id
// only reach that user's connections, and the connection named by origin is
// skipped.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Send queues data for a single client. It is a no-op once the client has
// been dropped.
func (h *Hub) Send(c *Client, data []byte) {
	select {
	case h.direct <- directMessage{client: c, data: data}:
	case <-h.done:
	}
}
