package workspace

import (
	"context"
	"strings"
	"sync"

	"github.com/docuchat/docuchat-backend/internal/domain"
	"github.com/docuchat/docuchat-backend/internal/platform/logger"
	"github.com/docuchat/docuchat-backend/internal/platform/ragquery"
)

// QueryClient is the slice of the query service the conversation needs.
type QueryClient interface {
	Ask(ctx context.Context, projectID, question string) (*ragquery.Result, error)
}

// ConversationController holds the append-only transcript for one
// (user, project) session and runs the idle -> sending -> idle state
// machine around each question.
//
// The user turn is appended optimistically before the request goes out and
// is never rolled back; a failed request leaves the transcript with the
// question and no answer. Two Sends racing on one instance are not blocked
// here; callers disable the send affordance while Sending() is true.
type ConversationController struct {
	mu    sync.Mutex
	log   *logger.Logger
	query QueryClient
	scope domain.Scope

	transcript []domain.ChatMessage
	sending    bool
	errMsg     string
}

func NewConversationController(log *logger.Logger, query QueryClient, scope domain.Scope) *ConversationController {
	return &ConversationController{
		log:   log.With("controller", "ConversationController"),
		query: query,
		scope: scope,
	}
}

// Send submits one question. Empty or whitespace-only questions and missing
// scope are rejected before any network call with no transcript mutation.
func (c *ConversationController) Send(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" || !c.scope.Valid() {
		return domain.ErrValidation
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, domain.ChatMessage{
		Role:    domain.ChatRoleUser,
		Content: question,
	})
	c.errMsg = ""
	c.sending = true
	c.mu.Unlock()

	result, err := c.query.Ask(ctx, c.scope.ProjectID.String(), question)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false
	if err != nil {
		c.errMsg = err.Error()
		return err
	}

	c.transcript = append(c.transcript, domain.ChatMessage{
		Role:    domain.ChatRoleAssistant,
		Content: result.Answer,
		Sources: result.Sources,
	})
	return nil
}

// Transcript returns a copy of the ordered message history.
func (c *ConversationController) Transcript() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *ConversationController) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

func (c *ConversationController) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}
