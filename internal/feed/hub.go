package feed

import (
	"bytes"
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub routes raw location fixes pushed by devices to the subscribers of
// each user's feed. When a redis client is supplied, fixes are mirrored
// through pub/sub so every instance sees every device. Mirrored
// messages carry the publishing hub's id so an instance skips its own
// echo.
type Hub struct {
	redis   *redis.Client
	id      string
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	UserID string
	Recv   chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		id:      uuid.NewString(),
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(userID string) *Client {
	client := &Client{
		UserID: userID,
		Recv:   make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = map[*Client]struct{}{}
	}
	h.clients[userID][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if userClients, ok := h.clients[client.UserID]; ok {
		delete(userClients, client)
		if len(userClients) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	close(client.Recv)
}

// deliver fans a payload out to the user's local subscribers. The read
// lock is held across the sends so Unregister cannot close a channel
// mid-send; sends never block, a full subscriber drops the fix.
func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.Recv <- payload:
		default:
		}
	}
}

// Publish delivers a marshaled fix to every local subscriber of the
// user's feed and mirrors it to redis.
func (h *Hub) Publish(userID string, payload []byte) {
	h.deliver(userID, payload)

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(userID), frame(h.id, payload)).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "fixes:*:feed")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		origin, payload := unframe([]byte(msg.Payload))
		if origin == h.id {
			// local subscribers already got it in Publish
			continue
		}
		h.deliver(userIDFromChannel(msg.Channel), payload)
	}
}

func redisChannel(userID string) string {
	return "fixes:" + userID + ":feed"
}

func userIDFromChannel(ch string) string {
	// fixes:{user}:feed
	const prefix = "fixes:"
	const suffix = ":feed"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}

// frame prefixes the payload with the publishing hub's id.
func frame(origin string, payload []byte) []byte {
	out := make([]byte, 0, len(origin)+1+len(payload))
	out = append(out, origin...)
	out = append(out, '\n')
	return append(out, payload...)
}

func unframe(msg []byte) (string, []byte) {
	if i := bytes.IndexByte(msg, '\n'); i >= 0 {
		return string(msg[:i]), msg[i+1:]
	}
	return "", msg
}
