package notify

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hub distributes change events to live subscribers. Each subscriber
// gets a buffered channel; a subscriber that stops draining loses events
// rather than blocking delivery to everyone else.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]chan []byte
	buffer      int
	logger      *zap.Logger
}

// NewHub creates a Hub whose subscriber channels hold buffer events.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]chan []byte),
		buffer:      buffer,
		logger:      logger,
	}
}

// Subscribe registers a new subscriber and returns its id and event
// channel. The channel is closed on Unsubscribe.
func (h *Hub) Subscribe() (uuid.UUID, <-chan []byte) {
	id := uuid.New()
	ch := make(chan []byte, h.buffer)

	h.mu.Lock()
	h.subscribers[id] = ch
	h.mu.Unlock()

	h.logger.Debug("subscriber registered", zap.String("id", id.String()))
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	ch, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()

	if ok {
		close(ch)
		h.logger.Debug("subscriber removed", zap.String("id", id.String()))
	}
}

// Broadcast delivers an event to every subscriber. Full subscriber
// buffers are skipped.
func (h *Hub) Broadcast(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("marshal change event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subscribers {
		select {
		case ch <- payload:
		default:
			h.logger.Warn("subscriber buffer full, dropping event",
				zap.String("id", id.String()))
		}
	}
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
