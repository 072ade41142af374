package events

import "time"

// Actions published on the user-events queue.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionCleared = "cleared"
)

// UserEvent is the JSON payload put on the RabbitMQ queue after a
// successful mutation. Consumers must tolerate unknown actions.
type UserEvent struct {
	Action       string    `json:"action"`
	UserID       int64     `json:"user_id,omitempty"`
	LoginName    string    `json:"login_name,omitempty"`
	EmailAddress string    `json:"email_address,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}
