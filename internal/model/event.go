package model

import "fmt"

// EventType identifies the kind of mutation a change event carries.
type EventType string

const (
	EventInserted EventType = "inserted"
	EventUpdated  EventType = "updated"
	EventDeleted  EventType = "deleted"
)

// ChangeEvent is one mutation delivered by the task change feed.
//
// Which images are present depends on the event type: Inserted carries
// the post-image, Deleted carries the pre-image, and Updated carries
// the post-image and may carry the pre-image. Seq is assigned by the
// feed on delivery and is monotonically non-decreasing per connection;
// it is diagnostic only and carries no ordering guarantee across
// distinct tasks.
type ChangeEvent struct {
	Type EventType `json:"type"`
	New  *Task     `json:"new,omitempty"`
	Old  *Task     `json:"old,omitempty"`
	Seq  int64     `json:"seq"`
}

// Image returns the task image relevant to this event's type: the
// post-image for inserts and updates, the pre-image for deletes.
func (e ChangeEvent) Image() *Task {
	if e.Type == EventDeleted {
		return e.Old
	}
	return e.New
}

// Validate checks that the event carries the fields its type requires.
// An event whose relevant image is missing its id or owner id cannot be
// applied or attributed and is considered malformed.
func (e ChangeEvent) Validate() error {
	switch e.Type {
	case EventInserted, EventUpdated:
		if e.New == nil {
			return fmt.Errorf("%s event missing post-image", e.Type)
		}
		if e.New.ID == "" {
			return fmt.Errorf("%s event post-image missing id", e.Type)
		}
		if e.New.OwnerID == "" {
			return fmt.Errorf("%s event post-image missing owner id", e.Type)
		}
	case EventDeleted:
		if e.Old == nil {
			return fmt.Errorf("deleted event missing pre-image")
		}
		if e.Old.ID == "" {
			return fmt.Errorf("deleted event pre-image missing id")
		}
		if e.Old.OwnerID == "" {
			return fmt.Errorf("deleted event pre-image missing owner id")
		}
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}
