package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ikkim/neighborly-backend/pkg/logger"
)

type EventType string

const (
	EventReviewSubmitted     EventType = "review_submitted"
	EventReviewStatusChanged EventType = "review_status_changed"
	EventReviewReported      EventType = "review_reported"
	EventReviewResponded     EventType = "review_responded"
)

// Event is one moderation feed message.
type Event struct {
	Type           EventType `json:"type"`
	ReviewID       uint      `json:"review_id"`
	BusinessID     uint      `json:"business_id"`
	Status         string    `json:"status,omitempty"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Action         string    `json:"action,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	ActorID        uint      `json:"actor_id,omitempty"`
	SpamScore      *float64  `json:"spam_score,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Client is one subscribed moderator session.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
}

// Hub fans moderation events out to every subscribed session.
type Hub struct {
	// UserID -> sessions, several devices per moderator
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	quit       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan []byte, 1024),
		quit:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("Moderation feed client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			var stale []*Client
			h.mu.RLock()
			for _, sessions := range h.clients {
				for _, client := range sessions {
					select {
					case client.Send <- message:
					default:
						stale = append(stale, client)
					}
				}
			}
			h.mu.RUnlock()

			for _, client := range stale {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.removeClient(client)
			}

		case <-h.quit:
			h.mu.Lock()
			for userID, sessions := range h.clients {
				for _, client := range sessions {
					close(client.Send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[client.UserID]
	if !ok {
		return
	}

	remaining := make([]*Client, 0, len(sessions))
	found := false
	for _, c := range sessions {
		if c == client {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return
	}

	if len(remaining) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = remaining
	}
	close(client.Send)

	logger.Info("Moderation feed client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(remaining),
	})
}

// Publish queues event for every subscriber. Events are dropped when the
// broadcast buffer is full; the feed is advisory and never blocks a write.
func (h *Hub) Publish(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal moderation event", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type":      event.Type,
			"review_id": event.ReviewID,
		})
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Stop ends Run and closes every session's send channel.
func (h *Hub) Stop() {
	close(h.quit)
}

// SubscriberCount returns the number of connected sessions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, sessions := range h.clients {
		total += len(sessions)
	}
	return total
}
