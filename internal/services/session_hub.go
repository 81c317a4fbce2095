package services

import (
	"sync"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
	"github.com/docuchat/docuchat-backend/internal/workspace"
)

// SessionHub is the in-process fan-out for session-change events. Auth
// publishes here on sign-in, refresh, and sign-out; session stores subscribe.
// Cross-instance delivery is layered on top by forwarding bus messages into
// Publish.
type SessionHub struct {
	mu   sync.Mutex
	log  *logger.Logger
	subs map[int]func(ev domain.SessionEvent)
	next int
}

func NewSessionHub(log *logger.Logger) *SessionHub {
	return &SessionHub{
		log:  log.With("service", "SessionHub"),
		subs: make(map[int]func(ev domain.SessionEvent)),
	}
}

// Subscribe registers a callback and returns its handle. Unsubscribing twice
// is safe; only the first call removes the registration.
func (h *SessionHub) Subscribe(fn func(ev domain.SessionEvent)) workspace.Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	h.subs[id] = fn
	return &hubSubscription{hub: h, id: id}
}

func (h *SessionHub) Publish(ev domain.SessionEvent) {
	h.mu.Lock()
	callbacks := make([]func(ev domain.SessionEvent), 0, len(h.subs))
	for _, fn := range h.subs {
		callbacks = append(callbacks, fn)
	}
	h.mu.Unlock()

	for _, fn := range callbacks {
		fn(ev)
	}
}

type hubSubscription struct {
	hub  *SessionHub
	id   int
	once sync.Once
}

func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		defer s.hub.mu.Unlock()
		delete(s.hub.subs, s.id)
	})
}
