package engine

import (
	"fmt"
	"time"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// NotificationQueue holds the transient notifications surfaced to the
// user, most recent first. Every pushed notification gets its own
// expiry timer; dismissing cancels the timer, and teardown cancels all
// of them so nothing mutates a discarded queue.
//
// NotificationQueue is not safe for concurrent use; the owning engine
// serializes all access.
type NotificationQueue struct {
	ttl    time.Duration
	expire func(id int64)

	nextID int64
	items  []model.Notification
	timers map[int64]*time.Timer
}

// NewNotificationQueue creates an empty queue. expire is called when a
// notification's TTL elapses; the caller routes it back into its
// serialization context before removing the entry with Expire.
func NewNotificationQueue(ttl time.Duration, expire func(id int64)) *NotificationQueue {
	if ttl <= 0 {
		ttl = model.DefaultNotificationTTL
	}
	return &NotificationQueue{
		ttl:    ttl,
		expire: expire,
		timers: make(map[int64]*time.Timer),
	}
}

// Push creates a notification for a task event and schedules its
// expiry exactly TTL after creation.
func (q *NotificationQueue) Push(taskID string, kind model.NotificationKind, message string) model.Notification {
	q.nextID++
	now := time.Now()
	n := model.Notification{
		ID:        q.nextID,
		TaskID:    taskID,
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}

	q.items = append([]model.Notification{n}, q.items...)
	id := n.ID
	q.timers[id] = time.AfterFunc(q.ttl, func() {
		q.expire(id)
	})
	return n
}

// Dismiss removes a notification immediately and cancels its timer.
// Unknown ids are a no-op.
func (q *NotificationQueue) Dismiss(id int64) bool {
	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	return q.remove(id)
}

// Expire removes a notification whose timer fired. A no-op if the
// notification was already dismissed.
func (q *NotificationQueue) Expire(id int64) bool {
	delete(q.timers, id)
	return q.remove(id)
}

// Snapshot returns a copy of the live notifications, most recent
// first. Entries whose TTL has elapsed at now are excluded even if
// their timer has not been processed yet.
func (q *NotificationQueue) Snapshot(now time.Time) []model.Notification {
	out := make([]model.Notification, 0, len(q.items))
	for _, n := range q.items {
		if n.Expired(now) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Len returns the number of queued notifications, including any whose
// timer has fired but not yet been processed.
func (q *NotificationQueue) Len() int {
	return len(q.items)
}

// Shutdown cancels every outstanding timer and empties the queue.
func (q *NotificationQueue) Shutdown() {
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.items = nil
}

// remove deletes the entry with the given id, preserving order.
func (q *NotificationQueue) remove(id int64) bool {
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// MessageFor renders the user-facing text for a task event.
func MessageFor(kind model.NotificationKind, title string) string {
	if title == "" {
		title = "Untitled Task"
	}
	switch kind {
	case model.NotificationCreated:
		return fmt.Sprintf("New task: %q", title)
	case model.NotificationUpdated:
		return fmt.Sprintf("Task updated: %q", title)
	default:
		return fmt.Sprintf("Task deleted: %q", title)
	}
}
