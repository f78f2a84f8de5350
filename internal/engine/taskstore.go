package engine

import (
	"sort"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// TaskStore is the engine's live, ordered view of the task collection.
// Iteration order is creation time descending with id ascending as the
// tiebreak, so snapshots are deterministic for any event history.
//
// TaskStore is not safe for concurrent use; the owning engine
// serializes all access.
type TaskStore struct {
	tasks []model.Task
	index map[string]int
}

// NewTaskStore returns an empty store.
func NewTaskStore() *TaskStore {
	return &TaskStore{index: make(map[string]int)}
}

// Len returns the number of tasks held.
func (s *TaskStore) Len() int {
	return len(s.tasks)
}

// Get returns the task with the given id.
func (s *TaskStore) Get(id string) (model.Task, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Task{}, false
	}
	return s.tasks[i], true
}

// Upsert inserts the task, or overwrites the existing task with the
// same id. Overwriting makes duplicate insert delivery idempotent.
func (s *TaskStore) Upsert(t model.Task) {
	if i, ok := s.index[t.ID]; ok {
		s.tasks[i] = t
	} else {
		s.tasks = append(s.tasks, t)
	}
	s.reorder()
}

// Remove deletes the task with the given id, reporting whether it was
// present. Absence is not an error.
func (s *TaskStore) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.reorder()
	return true
}

// Replace swaps the entire contents for the given tasks, used when a
// full list load completes. Duplicate ids keep the last occurrence.
func (s *TaskStore) Replace(tasks []model.Task) {
	s.tasks = s.tasks[:0]
	s.index = make(map[string]int, len(tasks))
	for _, t := range tasks {
		if i, ok := s.index[t.ID]; ok {
			s.tasks[i] = t
			continue
		}
		s.index[t.ID] = len(s.tasks)
		s.tasks = append(s.tasks, t)
	}
	s.reorder()
}

// Snapshot returns a copy of the tasks in display order.
func (s *TaskStore) Snapshot() []model.Task {
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// reorder restores display order and rebuilds the id index.
func (s *TaskStore) reorder() {
	sort.SliceStable(s.tasks, func(i, j int) bool {
		a, b := s.tasks[i], s.tasks[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if s.index == nil || len(s.index) > 0 {
		s.index = make(map[string]int, len(s.tasks))
	}
	for i, t := range s.tasks {
		s.index[t.ID] = i
	}
}
