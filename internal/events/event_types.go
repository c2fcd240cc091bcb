package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/todo-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventUserLoggedIn    EventType = "user_logged_in"
	EventUserLoggedOut   EventType = "user_logged_out"
	EventSessionsRevoked EventType = "sessions_revoked"
	EventUserDeleted     EventType = "user_deleted"
	EventRoleChanged     EventType = "role_changed"
	EventProfileUpdated  EventType = "profile_updated"
)

// AllEventTypes lists every type, for subscribers that want everything.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventUserLoggedIn,
	EventUserLoggedOut,
	EventSessionsRevoked,
	EventUserDeleted,
	EventRoleChanged,
	EventProfileUpdated,
}

// Event represents an auth event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    string      `json:"user_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, userID string, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// SessionsRevokedPayload payload.
type SessionsRevokedPayload struct {
	Reason string `json:"reason"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	OldRole   domain.Role `json:"old_role"`
	NewRole   domain.Role `json:"new_role"`
	ChangedBy string      `json:"changed_by"`
}

// ProfileUpdatedPayload names the fields a user changed on their profile.
type ProfileUpdatedPayload struct {
	Fields []string `json:"fields"`
}
