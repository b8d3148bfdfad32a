package realtime

import (
	"log"
	"sync"

	"github.com/landlink-ke/land-market/api/internal/public/application"
)

const defaultBuffer = 16

// Hub fans conversation events out to every live subscriber of that
// conversation. Delivery is best effort: a subscriber whose buffer is full
// misses the event rather than blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[int64]chan application.ConversationEvent
	nextID int64
	buffer int
	logger *log.Logger
}

func NewHub(buffer int, logger *log.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{
		subs:   make(map[string]map[int64]chan application.ConversationEvent),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a subscriber. The returned cancel func unregisters it
// and closes the channel; it may be called more than once.
func (h *Hub) Subscribe(conversationID string) (<-chan application.ConversationEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[conversationID]; !ok {
		h.subs[conversationID] = make(map[int64]chan application.ConversationEvent)
	}
	h.nextID++
	id := h.nextID
	ch := make(chan application.ConversationEvent, h.buffer)
	h.subs[conversationID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(conversationID, id) })
	}
}

func (h *Hub) unsubscribe(conversationID string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.subs[conversationID]
	if !ok {
		return
	}
	if ch, ok := conns[id]; ok {
		delete(conns, id)
		close(ch)
	}
	if len(conns) == 0 {
		delete(h.subs, conversationID)
	}
}

// Publish delivers the event to current subscribers without blocking.
func (h *Hub) Publish(conversationID string, event application.ConversationEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs[conversationID] {
		select {
		case ch <- event:
		default:
			if h.logger != nil {
				h.logger.Printf("realtime: dropped %s event for conversation=%s subscriber=%d", event.Type, conversationID, id)
			}
		}
	}
}

// Subscribers reports how many subscribers a conversation has.
func (h *Hub) Subscribers(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[conversationID])
}
