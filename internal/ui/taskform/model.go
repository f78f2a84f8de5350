package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ashik0401/task-mate-client/internal/model"
	"github.com/ashik0401/task-mate-client/internal/theme"
)

// TaskSubmittedMsg is dispatched when the form is submitted. Edit
// reports whether this was an edit of an existing task.
type TaskSubmittedMsg struct {
	Task model.Task
	Edit bool
}

// TaskFormCancelMsg is dispatched when the user cancels the form.
type TaskFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title        string
	description  string
	priority     string
	status       string
	assignedUser string
	dueDate      string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	editMode bool
	editTask model.Task
	users    []model.User
	width    int
	height   int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb: &formBindings{
			priority: string(model.PriorityMedium),
			status:   string(model.StatusToDo),
		},
		width:  width,
		height: height,
	}
}

// SetUsers sets the accounts offered by the assignee selector.
func (m *Model) SetUsers(users []model.User) {
	m.users = users
}

// StartCreate initializes the form for creating a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editTask = model.Task{}
	m.fb.title = ""
	m.fb.description = ""
	m.fb.priority = string(model.PriorityMedium)
	m.fb.status = string(model.StatusToDo)
	m.fb.assignedUser = ""
	m.fb.dueDate = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing task.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.editTask = task
	m.fb.title = task.Title
	m.fb.description = task.Description
	m.fb.priority = string(task.Priority)
	m.fb.status = string(task.Status)
	m.fb.assignedUser = task.AssignedUser
	m.fb.dueDate = task.DueDate
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return TaskFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs doing?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewSelect[string]().
			Title("Priority").
			Options(
				huh.NewOption("High", string(model.PriorityHigh)),
				huh.NewOption("Medium", string(model.PriorityMedium)),
				huh.NewOption("Low", string(model.PriorityLow)),
			).
			Value(&m.fb.priority),
		huh.NewSelect[string]().
			Title("Status").
			Options(
				huh.NewOption("To Do", string(model.StatusToDo)),
				huh.NewOption("In Progress", string(model.StatusInProgress)),
				huh.NewOption("Done", string(model.StatusDone)),
			).
			Value(&m.fb.status),
		m.assigneeField(),
		huh.NewInput().
			Title("Due Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.dueDate).
			Validate(validateOptionalDate),
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) assigneeField() huh.Field {
	opts := []huh.Option[string]{
		huh.NewOption("Unassigned", ""),
	}
	for _, u := range m.users {
		label := u.Name
		if label == "" {
			label = u.Email
		}
		opts = append(opts, huh.NewOption(label, u.ID))
	}
	return huh.NewSelect[string]().
		Title("Assignee").
		Options(opts...).
		Value(&m.fb.assignedUser)
}

func (m Model) handleSubmit() tea.Cmd {
	task := model.Task{
		Title:        strings.TrimSpace(m.fb.title),
		Description:  m.fb.description,
		Priority:     model.Priority(m.fb.priority),
		Status:       model.Status(m.fb.status),
		AssignedUser: m.fb.assignedUser,
		DueDate:      strings.TrimSpace(m.fb.dueDate),
	}

	edit := m.editMode
	if edit {
		task.ID = m.editTask.ID
		task.CreatedAt = m.editTask.CreatedAt
		task.OwnerID = m.editTask.OwnerID
	}

	return func() tea.Msg { return TaskSubmittedMsg{Task: task, Edit: edit} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
