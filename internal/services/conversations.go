package services

import (
	"context"
	"sync"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
	"github.com/docuchat/docuchat-backend/internal/workspace"
)

// ConversationService keeps one conversation controller per (user, project)
// scope and serializes sends on each one, so two requests for the same
// conversation never interleave their transcript writes.
type ConversationService interface {
	Send(ctx context.Context, scope domain.Scope, question string) ([]domain.ChatMessage, error)
	Transcript(scope domain.Scope) []domain.ChatMessage
}

type conversationService struct {
	mu      sync.Mutex
	log     *logger.Logger
	query   workspace.QueryClient
	entries map[domain.Scope]*conversationEntry
}

type conversationEntry struct {
	sendMu sync.Mutex
	ctrl   *workspace.ConversationController
}

func NewConversationService(log *logger.Logger, query workspace.QueryClient) ConversationService {
	return &conversationService{
		log:     log.With("service", "ConversationService"),
		query:   query,
		entries: make(map[domain.Scope]*conversationEntry),
	}
}

func (cs *conversationService) entry(scope domain.Scope) *conversationEntry {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	e, ok := cs.entries[scope]
	if !ok {
		e = &conversationEntry{
			ctrl: workspace.NewConversationController(cs.log, cs.query, scope),
		}
		cs.entries[scope] = e
	}
	return e
}

func (cs *conversationService) Send(ctx context.Context, scope domain.Scope, question string) ([]domain.ChatMessage, error) {
	if !scope.Valid() {
		return nil, domain.ErrValidation
	}
	e := cs.entry(scope)
	e.sendMu.Lock()
	defer e.sendMu.Unlock()
	if err := e.ctrl.Send(ctx, question); err != nil {
		return e.ctrl.Transcript(), err
	}
	return e.ctrl.Transcript(), nil
}

func (cs *conversationService) Transcript(scope domain.Scope) []domain.ChatMessage {
	if !scope.Valid() {
		return nil
	}
	return cs.entry(scope).ctrl.Transcript()
}
