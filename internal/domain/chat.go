package domain

import "github.com/google/uuid"

type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// CitedSource is one retrieval hit attached to an assistant turn, in the
// order the query service returned it.
type CitedSource struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
}

// ChatMessage is one transcript turn. The transcript is held in memory only,
// scoped to a single (user, project) session; it is never persisted, so a
// restart loses history.
type ChatMessage struct {
	Role    ChatRole      `json:"role"`
	Content string        `json:"content"`
	Sources []CitedSource `json:"sources,omitempty"`
}

// Scope bundles the resolved identity and the project a controller operates
// on. Every controller operation validates the same scope value instead of
// re-checking identity and project id separately.
type Scope struct {
	UserID    uuid.UUID
	ProjectID uuid.UUID
}

func (s Scope) Valid() bool {
	return s.UserID != uuid.Nil && s.ProjectID != uuid.Nil
}
