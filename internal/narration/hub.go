package narration

import (
	"context"
	"sync"
)

// Hub broadcasts narration to subscribed listeners such as websocket
// connections. A slow listener loses messages instead of stalling the
// dialogue.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
}

type Subscription struct {
	C    <-chan string
	ch   chan string
	hub  *Hub
	once sync.Once
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer}
}

func (h *Hub) Subscribe() *Subscription {
	ch := make(chan string, h.buffer)
	s := &Subscription{C: ch, ch: ch, hub: h}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Close unsubscribes and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s)
		s.hub.mu.Unlock()
		close(s.ch)
	})
}

func (h *Hub) Narrate(_ context.Context, text string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- text:
		default:
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
