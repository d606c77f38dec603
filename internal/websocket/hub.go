package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"glassfactory-chat/internal/pkg/logger"
	"glassfactory-chat/pkg/events"

	"github.com/redis/go-redis/v9"
)

const (
	hubLogModule   = "LiveHub"
	clusterChannel = "chat_turn_events"
)

// envelope is what live clients receive for every turn of their session.
type envelope struct {
	Type      string                 `json:"type"`
	SessionID string                 `json:"sessionId"`
	Data      map[string]interface{} `json:"data"`
}

// Hub fans completed turns out to the websockets watching their session.
// With Redis configured every instance publishes there and delivers what it
// receives back, so a watcher sees turns answered by any instance.
type Hub struct {
	// sessionID -> open connections (several tabs may watch one session)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	rdb    *redis.Client
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[string][]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rdb:        rdb,
		logger:     log,
	}
}

// Run serves registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for sessionID, clients := range h.clients {
				for _, c := range clients {
					close(c.Send)
				}
				delete(h.clients, sessionID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info(hubLogModule, "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// remove drops c and closes its Send channel. Removing twice is a no-op.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[c.SessionID]
	for i, existing := range clients {
		if existing == c {
			h.clients[c.SessionID] = append(clients[:i:i], clients[i+1:]...)
			close(c.Send)
			break
		}
	}
	if len(h.clients[c.SessionID]) == 0 {
		delete(h.clients, c.SessionID)
	}
}

// ClientCount reports how many connections watch sessionID.
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Publish implements the consumer's relay interface. Only chat turns are forwarded.
func (h *Hub) Publish(ctx context.Context, event events.Event) error {
	if event.EventType() != events.TypeChatTurn {
		return nil
	}

	payload := event.Payload()
	sessionID, _ := payload["session_id"].(string)
	data, err := json.Marshal(envelope{Type: event.EventType(), SessionID: sessionID, Data: payload})
	if err != nil {
		return err
	}

	if h.rdb != nil {
		if err := h.rdb.Publish(ctx, clusterChannel, data).Err(); err != nil {
			// Local watchers still get it.
			h.deliver(sessionID, data)
			return err
		}
		return nil
	}

	h.deliver(sessionID, data)
	return nil
}

func (h *Hub) deliver(sessionID string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, c := range h.clients[sessionID] {
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn(hubLogModule, "Client send buffer full, disconnecting", map[string]interface{}{"session_id": sessionID})
		h.remove(c)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn(hubLogModule, "Invalid cluster message", map[string]interface{}{"error": err.Error()})
				continue
			}
			h.deliver(env.SessionID, []byte(msg.Payload))
		}
	}
}
