package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashik0401/task-mate-client/internal/model"
)

func validTask(id string) *model.Task {
	return &model.Task{ID: id, Title: "something", OwnerID: "owner-1"}
}

func TestChangeEventImage(t *testing.T) {
	oldT, newT := validTask("t1"), validTask("t1")

	ins := model.ChangeEvent{Type: model.EventInserted, New: newT}
	assert.Same(t, newT, ins.Image())

	upd := model.ChangeEvent{Type: model.EventUpdated, New: newT, Old: oldT}
	assert.Same(t, newT, upd.Image())

	del := model.ChangeEvent{Type: model.EventDeleted, Old: oldT}
	assert.Same(t, oldT, del.Image())
}

func TestChangeEventValidate(t *testing.T) {
	valid := []model.ChangeEvent{
		{Type: model.EventInserted, New: validTask("t1")},
		{Type: model.EventUpdated, New: validTask("t1")},
		{Type: model.EventUpdated, New: validTask("t1"), Old: validTask("t1")},
		{Type: model.EventDeleted, Old: validTask("t1")},
	}
	for _, ev := range valid {
		assert.NoError(t, ev.Validate(), "event %+v", ev)
	}

	malformed := []model.ChangeEvent{
		{Type: model.EventInserted},
		{Type: model.EventInserted, New: &model.Task{OwnerID: "o"}},
		{Type: model.EventUpdated, New: &model.Task{ID: "t1"}},
		{Type: model.EventDeleted},
		{Type: model.EventDeleted, Old: &model.Task{ID: "t1"}},
		{Type: "truncated"},
	}
	for _, ev := range malformed {
		assert.Error(t, ev.Validate(), "event %+v", ev)
	}
}

func TestChangeEventDecodesFromWireForm(t *testing.T) {
	payload := `{"type":"updated","new":{"id":"t1","title":"after","owner_id":"u1"},"old":{"id":"t1","title":"before","owner_id":"u1"},"seq":42}`

	var ev model.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	require.NoError(t, ev.Validate())

	assert.Equal(t, model.EventUpdated, ev.Type)
	assert.Equal(t, "after", ev.New.Title)
	assert.Equal(t, "before", ev.Old.Title)
	assert.Equal(t, int64(42), ev.Seq)
}

func TestTaskDisplayHelpers(t *testing.T) {
	assert.Equal(t, "Untitled Task", model.Task{}.DisplayTitle())
	assert.Equal(t, "Fix the bug", model.Task{Title: "Fix the bug"}.DisplayTitle())

	assert.Equal(t, "Unassigned", model.Task{}.Assignee())
	assert.Equal(t, "user-x", model.Task{AssignedUser: "user-x"}.Assignee())
}
