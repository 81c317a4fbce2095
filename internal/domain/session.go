package domain

import "github.com/google/uuid"

type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionRefreshed SessionEventType = "refreshed"
	SessionSignedOut SessionEventType = "signed_out"
)

// SessionEvent is pushed by the identity provider whenever a session is
// created, rotated, or invalidated. Identity is nil for signed-out events.
type SessionEvent struct {
	Type     SessionEventType `json:"type"`
	UserID   uuid.UUID        `json:"user_id"`
	Identity *Identity        `json:"identity,omitempty"`
}
