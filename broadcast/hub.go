// Package broadcast fans menu changes out to connected observers.
//
// Delivery is best effort: an event reaches the subscribers registered when
// Publish is called, at most once each. There is no replay for subscribers
// that connect later, and a subscriber whose buffer is full misses the event.
package broadcast

import (
	"sync"

	"canteen-api/models"

	"go.uber.org/zap"
)

const EventMenuUpdated = "menu-updated"

type Event struct {
	Name string
	Data any
}

// Subscription receives events on C until it is unsubscribed or the hub closes
type Subscription struct {
	C    <-chan Event
	ch   chan Event
	once sync.Once
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	closed bool
	logger *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a new observer. On a closed hub the returned
// subscription is already closed.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.close()
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	sub.close()
}

// Publish never blocks on a subscriber
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	delivered, dropped := 0, 0
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			dropped++
		}
	}
	h.logger.Debug("broadcast published",
		zap.String("event", ev.Name),
		zap.Int("delivered", delivered),
		zap.Int("dropped", dropped))
}

// PublishMenu sends the post-update snapshot of the given items
func (h *Hub) PublishMenu(items []models.MenuItem) {
	snapshot := make([]models.MenuItem, len(items))
	copy(snapshot, items)
	h.Publish(Event{Name: EventMenuUpdated, Data: snapshot})
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber; later publishes are ignored
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		sub.close()
		delete(h.subs, sub)
	}
}
