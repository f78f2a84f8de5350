package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// requestTimeout bounds one API call issued from the UI.
const requestTimeout = 15 * time.Second

// engineUpdatedMsg signals that an engine snapshot changed.
type engineUpdatedMsg struct{}

// signInResultMsg carries the outcome of a sign-in attempt.
type signInResultMsg struct {
	err error
}

// usersLoadedMsg carries the assignee options for the task form.
type usersLoadedMsg struct {
	users []model.User
	err   error
}

// taskSavedMsg carries the outcome of a create or update call.
type taskSavedMsg struct {
	task model.Task
	err  error
}

// taskDeletedMsg carries the outcome of a delete call.
type taskDeletedMsg struct {
	id  string
	err error
}

// signedOutMsg carries the outcome of a sign-out.
type signedOutMsg struct {
	err error
}

// waitForEngine returns a command that blocks until the engine signals
// a snapshot change. The update handler re-issues it to keep listening.
func (m Model) waitForEngine() tea.Cmd {
	updates := m.engine.Updates()
	return func() tea.Msg {
		_, ok := <-updates
		if !ok {
			return nil
		}
		return engineUpdatedMsg{}
	}
}

// doSignIn exchanges credentials for a session, persists it, and nudges
// the monitor so the engine opens its subscription.
func (m Model) doSignIn(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		sess, err := m.client.SignIn(ctx, email, password)
		if err != nil {
			return signInResultMsg{err: err}
		}
		if err := m.provider.StoreSession(sess); err != nil {
			return signInResultMsg{err: err}
		}
		m.monitor.Refresh()
		return signInResultMsg{}
	}
}

// doSignOut revokes the session; the monitor notifies the engine,
// which closes the feed.
func (m Model) doSignOut() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return signedOutMsg{err: m.monitor.SignOut(ctx)}
	}
}

// loadUsers fetches assignee options for the task form.
func (m Model) loadUsers() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		users, err := m.client.ListUsers(ctx)
		return usersLoadedMsg{users: users, err: err}
	}
}

// doSaveTask creates or updates a task through the API. The engine
// applies the result locally right away; the self-originated feed
// event that follows overwrites it idempotently.
func (m Model) doSaveTask(task model.Task, edit bool) tea.Cmd {
	if !edit {
		if sess := m.monitor.Current(); sess != nil {
			task.OwnerID = sess.UserID
		}
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var saved *model.Task
		var err error
		if edit {
			saved, err = m.client.UpdateTask(ctx, task)
		} else {
			saved, err = m.client.CreateTask(ctx, task)
		}
		if err != nil {
			return taskSavedMsg{err: err}
		}
		return taskSavedMsg{task: *saved}
	}
}

// doDeleteTask removes a task through the API.
func (m Model) doDeleteTask(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if err := m.client.DeleteTask(ctx, id); err != nil {
			return taskDeletedMsg{id: id, err: err}
		}
		return taskDeletedMsg{id: id}
	}
}
