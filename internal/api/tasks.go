package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// CreateTask creates a new task. When the task has no ID one is
// generated client-side so the caller can correlate the feed event
// that follows.
func (c *Client) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}

	var out taskPayload
	if err := c.Post(ctx, "/api/tasks", toPayload(task), &out); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	created, err := fromPayload(out)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &created, nil
}

// GetTask retrieves a single task by id.
func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var out taskPayload
	if err := c.Get(ctx, "/api/tasks/"+id, &out); err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	task, err := fromPayload(out)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	return &task, nil
}

// UpdateTask replaces the stored fields of an existing task.
func (c *Client) UpdateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if task.ID == "" {
		return nil, fmt.Errorf("updating task: missing id")
	}

	var out taskPayload
	if err := c.Put(ctx, "/api/tasks/"+task.ID, toPayload(task), &out); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	updated, err := fromPayload(out)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	return &updated, nil
}

// DeleteTask removes a task by id.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/api/tasks/"+id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

// ListTasks retrieves all tasks visible to the current session,
// ordered by creation time descending.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out listTasksResponse
	if err := c.Get(ctx, "/api/tasks", &out); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	tasks := make([]model.Task, 0, len(out.Tasks))
	for _, p := range out.Tasks {
		task, err := fromPayload(p)
		if err != nil {
			return nil, fmt.Errorf("listing tasks: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ListUsers retrieves all registered users for assignee selection.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var out listUsersResponse
	if err := c.Get(ctx, "/api/users", &out); err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users := make([]model.User, 0, len(out.Users))
	for _, p := range out.Users {
		users = append(users, model.User{ID: p.ID, Email: p.Email, Name: p.Name})
	}
	return users, nil
}

// toPayload converts a task to its wire form.
func toPayload(t model.Task) taskPayload {
	created := ""
	if !t.CreatedAt.IsZero() {
		created = t.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return taskPayload{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Priority:     string(t.Priority),
		Status:       string(t.Status),
		AssignedUser: t.AssignedUser,
		DueDate:      t.DueDate,
		CreatedAt:    created,
		OwnerID:      t.OwnerID,
	}
}

// fromPayload converts a wire task to the model form.
func fromPayload(p taskPayload) (model.Task, error) {
	var created time.Time
	if p.CreatedAt != "" {
		var err error
		created, err = time.Parse(time.RFC3339Nano, p.CreatedAt)
		if err != nil {
			return model.Task{}, fmt.Errorf("parsing created_at %q: %w", p.CreatedAt, err)
		}
	}
	return model.Task{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Priority:     model.Priority(p.Priority),
		Status:       model.Status(p.Status),
		AssignedUser: p.AssignedUser,
		DueDate:      p.DueDate,
		CreatedAt:    created,
		OwnerID:      p.OwnerID,
	}, nil
}
