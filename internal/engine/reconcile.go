package engine

import (
	"log/slog"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// Reconciler folds change events into the task store and decides which
// of them the user should hear about. Events caused by the active
// identity still mutate the store but are suppressed from the
// notification queue: the acting user already has local confirmation.
//
// Applying the same event twice is idempotent for the store. It is not
// idempotent for notifications: each delivered foreign event yields at
// most one notification, so duplicate feed delivery produces duplicate
// notifications. That is a known property of the feed, not masked here.
type Reconciler struct {
	store   *TaskStore
	notices *NotificationQueue
}

// NewReconciler creates a reconciler over the given store and queue.
func NewReconciler(store *TaskStore, notices *NotificationQueue) *Reconciler {
	return &Reconciler{store: store, notices: notices}
}

// Apply processes one event in arrival order. activeIdentity is the
// signed-in user's id, or empty when unknown. It reports whether the
// store changed. Malformed events are dropped with a diagnostic and
// never corrupt the store.
func (r *Reconciler) Apply(ev model.ChangeEvent, activeIdentity string) bool {
	if err := ev.Validate(); err != nil {
		slog.Warn("dropping malformed feed event",
			"error", err, "seq", ev.Seq)
		return false
	}

	changed := true
	switch ev.Type {
	case model.EventInserted:
		// Duplicate delivery overwrites in place.
		r.store.Upsert(*ev.New)
	case model.EventUpdated:
		// An update for an unknown id falls back to insert; the feed
		// may skip the insert across a reconnection.
		r.store.Upsert(*ev.New)
	case model.EventDeleted:
		changed = r.store.Remove(ev.Old.ID)
	}

	image := ev.Image()
	if activeIdentity != "" && image.OwnerID == activeIdentity {
		return changed
	}

	kind := kindFor(ev.Type)
	r.notices.Push(image.ID, kind, MessageFor(kind, image.Title))
	return changed
}

// kindFor maps an event type to its notification kind.
func kindFor(t model.EventType) model.NotificationKind {
	switch t {
	case model.EventInserted:
		return model.NotificationCreated
	case model.EventUpdated:
		return model.NotificationUpdated
	default:
		return model.NotificationDeleted
	}
}
