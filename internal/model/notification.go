package model

import "time"

// NotificationKind classifies what kind of change a notification reports.
type NotificationKind string

const (
	NotificationCreated NotificationKind = "created"
	NotificationUpdated NotificationKind = "updated"
	NotificationDeleted NotificationKind = "deleted"
)

// DefaultNotificationTTL is how long a notification stays visible
// before it expires on its own.
const DefaultNotificationTTL = 5 * time.Second

// Notification is an ephemeral alert surfaced to the user when another
// user's change arrives on the feed. It is never persisted; it lives
// in the notification queue until its TTL elapses or the user
// dismisses it.
type Notification struct {
	// ID is a monotonically increasing token assigned at creation.
	ID int64 `json:"id"`

	// TaskID links the notification to the task the event touched.
	TaskID string `json:"task_id"`

	// Kind reports whether the task was created, updated, or deleted.
	Kind NotificationKind `json:"kind"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// CreatedAt is when the notification was generated.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is CreatedAt plus the configured TTL.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the notification's TTL has elapsed at now.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}
