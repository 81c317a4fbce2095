package workspace

import (
	"context"
	"sync"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
)

// Subscription is a handle to a session-change feed. Unsubscribe must be
// safe to call more than once.
type Subscription interface {
	Unsubscribe()
}

// IdentityProvider is the external identity collaborator: it resolves the
// current session, pushes session-change events, and invalidates sessions.
type IdentityProvider interface {
	GetCurrentSession(ctx context.Context) (*domain.Identity, error)
	OnSessionChange(fn func(ev domain.SessionEvent)) Subscription
	SignOut(ctx context.Context) error
}

// SessionStore holds the resolved identity for the whole workspace. It is
// the root precondition for every other controller: nothing talks to the
// network until Loading is false and an identity is present.
//
// State is mutated only by provider callbacks and Resolve, never by callers.
type SessionStore struct {
	mu       sync.Mutex
	log      *logger.Logger
	provider IdentityProvider

	identity *domain.Identity
	loading  bool

	sub       Subscription
	closeOnce sync.Once
}

func NewSessionStore(log *logger.Logger, provider IdentityProvider) *SessionStore {
	s := &SessionStore{
		log:      log.With("store", "SessionStore"),
		provider: provider,
		loading:  true,
	}
	s.sub = provider.OnSessionChange(s.onSessionChange)
	return s
}

// Resolve performs the one-time initial session fetch. A provider error is
// logged and treated as signed-out; the store never stays stuck loading.
func (s *SessionStore) Resolve(ctx context.Context) {
	identity, err := s.provider.GetCurrentSession(ctx)
	if err != nil {
		s.log.Warn("session resolution failed, treating as signed out", "error", err)
		identity = nil
	}
	s.mu.Lock()
	s.identity = identity
	s.loading = false
	s.mu.Unlock()
}

func (s *SessionStore) onSessionChange(ev domain.SessionEvent) {
	s.mu.Lock()
	s.identity = ev.Identity
	s.loading = false
	s.mu.Unlock()
}

// SignOut asks the provider to invalidate the session. The local state goes
// signed-out no matter what the provider answered, so repeating the call is
// harmless.
func (s *SessionStore) SignOut(ctx context.Context) {
	if err := s.provider.SignOut(ctx); err != nil {
		s.log.Warn("sign-out invalidation failed, clearing local session anyway", "error", err)
	}
	s.mu.Lock()
	s.identity = nil
	s.loading = false
	s.mu.Unlock()
}

// Snapshot returns the current session view.
func (s *SessionStore) Snapshot() (*domain.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.loading
}

// Close releases the provider subscription. Idempotent; the store stops
// receiving events and no longer mutates state after the first call.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() {
		if s.sub != nil {
			s.sub.Unsubscribe()
		}
	})
}
