package chat

import (
	"sync"
)

// Event types pushed to subscribers.
const (
	EventMessageReceived = "message_received"
	EventMessageUpdated  = "message_updated"
	EventMessageDeleted  = "message_deleted"
	EventTypingStatus    = "typing_status"
)

const subscriberBuffer = 16

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub fans events out to the open streams of each user. A user may hold
// several streams at once (one per tab).
type Hub struct {
	mu   sync.RWMutex
	subs map[uint64]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]map[chan Event]struct{})}
}

// Subscribe registers a stream for userID. The returned cancel func must be
// called once the stream is closed; it closes the channel.
func (h *Hub) Subscribe(userID uint64) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers ev to every stream of userID and returns how many
// streams accepted it. Full streams drop the event.
func (h *Hub) Publish(userID uint64, ev Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subs[userID] {
		select {
		case ch <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

// Online reports whether userID has at least one open stream.
func (h *Hub) Online(userID uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID]) > 0
}

// TypingStatus is the payload of EventTypingStatus.
type TypingStatus struct {
	UserID   uint64 `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}
