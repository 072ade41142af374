package entity

import (
	"time"
)

// User is the aggregate root for the user domain.
// It is treated as an immutable value: updates always supply a complete
// replacement, never a partial patch.
//
// ID and timestamps are assigned by the record store; callers never set them.
type User struct {
	ID           int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LoginName    string
	EmailAddress string
	FirstName    string
	LastName     string
}

// IsNew reports whether the user has not been persisted yet.
// A zero ID marks a creation request in the upsert workflow.
func (u User) IsNew() bool {
	return u.ID == 0
}
