package model

import "time"

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is the workflow state of a task.
type Status string

const (
	StatusToDo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Task is a single unit of work tracked by the application.
type Task struct {
	// ID is the unique identifier for this task. Stable across updates.
	ID string `json:"id" db:"id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the full body text.
	Description string `json:"description" db:"description"`

	// Priority is the urgency level (use Priority* constants).
	Priority Priority `json:"priority" db:"priority"`

	// Status is the workflow state (use Status* constants).
	Status Status `json:"status" db:"status"`

	// AssignedUser is the identifier of the assignee, or empty when
	// the task is unassigned.
	AssignedUser string `json:"assigned_user" db:"assigned_user"`

	// DueDate is the calendar due date in YYYY-MM-DD form, with no
	// time component. Empty when no due date is set.
	DueDate string `json:"due_date" db:"due_date"`

	// CreatedAt is when the task was created. Immutable once set.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// OwnerID identifies the authenticated user that created the
	// task. Used to decide whether a feed event is self-originated.
	OwnerID string `json:"owner_id" db:"owner_id"`
}

// DisplayTitle returns the task title, falling back to a placeholder
// when the title is blank.
func (t Task) DisplayTitle() string {
	if t.Title == "" {
		return "Untitled Task"
	}
	return t.Title
}

// Assignee returns the assigned user, or "Unassigned" when empty.
func (t Task) Assignee() string {
	if t.AssignedUser == "" {
		return "Unassigned"
	}
	return t.AssignedUser
}

// User is a registered account that tasks can be assigned to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
