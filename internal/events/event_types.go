package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/storefront-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginRejected  EventType = "login_rejected"
	EventLogout         EventType = "logout"
	EventAdminSeeded    EventType = "admin_seeded"
)

// Flow names which login endpoint produced an event.
type Flow string

const (
	FlowCustomer Flow = "customer"
	FlowAdmin    Flow = "admin"
)

// Event represents an authentication event emitted by the auth service.
// It never carries credentials.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Flow      Flow        `json:"flow,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewEvent stamps an event with an id and the current time.
func NewEvent(t EventType, flow Flow) Event {
	return Event{ID: uuid.NewString(), Type: t, Flow: flow, Timestamp: time.Now().UTC()}
}
