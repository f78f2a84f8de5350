// Package app is the root Bubble Tea model: view routing, keybindings,
// and the bridge between the UI and the synchronization engine.
package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/charmbracelet/bubbles/key"

	"github.com/ashik0401/task-mate-client/internal/api"
	"github.com/ashik0401/task-mate-client/internal/engine"
	"github.com/ashik0401/task-mate-client/internal/keys"
	"github.com/ashik0401/task-mate-client/internal/session"
	"github.com/ashik0401/task-mate-client/internal/ui"
	helpview "github.com/ashik0401/task-mate-client/internal/ui/help"
	"github.com/ashik0401/task-mate-client/internal/ui/notices"
	"github.com/ashik0401/task-mate-client/internal/ui/signin"
	"github.com/ashik0401/task-mate-client/internal/ui/taskform"
	"github.com/ashik0401/task-mate-client/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewSignIn ViewState = iota
	ViewList
	ViewForm
	ViewHelp
)

// Model is the root Bubble Tea model.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	engine   *engine.Engine
	client   *api.Client
	provider *session.APIProvider
	monitor  *session.Monitor

	taskList   tasklist.Model
	taskForm   taskform.Model
	signIn     signin.Model
	noticeView notices.Model
	helpView   helpview.Model

	statusText string
	ready      bool
}

// New creates the root application model. The engine must already be
// started; the app only reads its snapshots and forwards commands.
func New(
	eng *engine.Engine,
	client *api.Client,
	provider *session.APIProvider,
	monitor *session.Monitor,
) Model {
	k := keys.DefaultKeyMap()

	view := ViewSignIn
	if monitor.Current() != nil {
		view = ViewList
	}

	return Model{
		currentView: view,
		keys:        k,
		engine:      eng,
		client:      client,
		provider:    provider,
		monitor:     monitor,
		taskList:    tasklist.New(k, 80, 24),
		taskForm:    taskform.New(80, 24),
		signIn:      signin.New(80, 24),
		noticeView:  notices.New(80),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init starts listening for engine updates and prepares the initial
// view.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEngine()}
	if m.currentView == ViewSignIn {
		// Init runs on a value copy, so only the prebuilt form's own
		// command may be issued here; Start would mutate a discarded
		// model.
		cmds = append(cmds, m.signIn.Init())
	} else {
		cmds = append(cmds, m.loadUsers())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.taskList.SetSize(contentWidth, contentHeight)
		m.taskForm.SetSize(contentWidth, contentHeight)
		m.signIn.SetSize(contentWidth, contentHeight)
		m.noticeView.SetSize(contentWidth)
		m.helpView.SetSize(contentWidth, contentHeight)
		return m.updateActiveView(msg)

	case engineUpdatedMsg:
		cmd := m.taskList.SetTasks(m.engine.Tasks())
		m.noticeView.SetNotifications(m.engine.Notifications())

		// A session appearing or vanishing switches the top view.
		if m.monitor.Current() == nil && m.currentView != ViewSignIn {
			m.currentView = ViewSignIn
			return m, tea.Batch(cmd, m.signIn.Start(), m.waitForEngine())
		}
		return m, tea.Batch(cmd, m.waitForEngine())

	case signin.SubmitMsg:
		return m, m.doSignIn(msg.Email, msg.Password)

	case signInResultMsg:
		if msg.err != nil {
			return m, m.signIn.SetError(msg.err)
		}
		m.currentView = ViewList
		return m, m.loadUsers()

	case usersLoadedMsg:
		if msg.err == nil {
			m.taskForm.SetUsers(msg.users)
		}
		return m, nil

	case tasklist.EditTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewForm
		return m, m.taskForm.StartEdit(msg.Task)

	case tasklist.DeleteTaskMsg:
		return m, m.doDeleteTask(msg.Task.ID)

	case taskform.TaskSubmittedMsg:
		m.currentView = ViewList
		return m, m.doSaveTask(msg.Task, msg.Edit)

	case taskform.TaskFormCancelMsg:
		m.currentView = ViewList
		return m, nil

	case taskSavedMsg:
		if msg.err != nil {
			m.statusText = "save failed: " + msg.err.Error()
			return m, nil
		}
		m.statusText = ""
		m.engine.UpsertLocal(msg.task)
		return m, nil

	case taskDeletedMsg:
		if msg.err != nil {
			m.statusText = "delete failed: " + msg.err.Error()
			return m, nil
		}
		m.statusText = ""
		m.engine.RemoveLocal(msg.id)
		return m, nil

	case signedOutMsg:
		if msg.err != nil {
			m.statusText = "sign out failed: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m.updateActiveView(msg)
}

// handleKeys processes global keys before delegating to the active view.
func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Forms own almost all key input while active.
	if m.currentView == ViewForm || m.currentView == ViewSignIn {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
		} else {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil
		}

	case key.Matches(msg, m.keys.NewTask):
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewForm
			return m, m.taskForm.StartCreate()
		}

	case key.Matches(msg, m.keys.Dismiss):
		if n, ok := m.noticeView.Newest(); ok {
			m.engine.DismissNotification(n.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.monitor.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.SignOut):
		return m, m.doSignOut()
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards a message to the current view's model.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewSignIn:
		m.signIn, cmd = m.signIn.Update(msg)
	case ViewForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	default:
		m.taskList, cmd = m.taskList.Update(msg)
	}
	return m, cmd
}

// View renders the full frame: header, active view, notification
// overlay, and status bar.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var content string
	switch m.currentView {
	case ViewSignIn:
		content = m.signIn.View()
	case ViewForm:
		content = m.taskForm.View()
	case ViewHelp:
		content = m.helpView.View()
	default:
		content = m.taskList.View()
	}

	if !m.noticeView.Empty() && m.currentView == ViewList {
		content = m.noticeView.View() + "\n" + content
	}

	header := m.layout.RenderHeader("TaskMate", m.engine.Status().String())

	hints := m.statusText
	if hints == "" {
		hints = "n new · e edit · d delete · x dismiss · ? help · q quit"
	}
	statusBar := m.layout.RenderStatusBar(hints)

	return m.layout.RenderWithFrame(header, content, statusBar)
}
