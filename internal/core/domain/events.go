package domain

import "time"

// Routing keys for account lifecycle events.
const (
	EventUserRegistered      = "user.registered"
	EventUserProvisioned     = "user.provisioned"
	EventUserPasswordChanged = "user.password_changed"
	EventUserDeleted         = "user.deleted"
)

// UserEvent is the payload published for every account lifecycle event.
type UserEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Role       Role      `json:"role,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
