package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ashik0401/task-mate-client/internal/model"
	"github.com/ashik0401/task-mate-client/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.DisplayTitle() }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		string(i.Task.Status),
		i.Task.Assignee(),
		relativeTime(i.Task.CreatedAt),
	}
	if i.Task.DueDate != "" {
		parts = append(parts, "due "+i.Task.DueDate)
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update is a no-op; key handling lives in the list model.
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

// Render draws a single task row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}

	priority := theme.PriorityStyle(ti.Task.Priority).Render(priorityMark(ti.Task.Priority))
	status := theme.StatusStyle(ti.Task.Status).Render(statusLabel(ti.Task.Status))
	title := ti.Task.DisplayTitle()
	meta := theme.HelpStyle.Render(
		fmt.Sprintf("%s · %s", ti.Task.Assignee(), relativeTime(ti.Task.CreatedAt)),
	)

	row := lipgloss.JoinHorizontal(lipgloss.Top, priority, " ", status, " ", title, "  ", meta)

	if index == m.Index() {
		row = theme.SelectedItemStyle.Render(row)
	} else {
		row = lipgloss.NewStyle().PaddingLeft(2).Render(row)
	}
	fmt.Fprint(w, row)
}

// priorityMark renders a compact priority indicator.
func priorityMark(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "!!"
	case model.PriorityMedium:
		return "! "
	default:
		return "  "
	}
}

// statusLabel renders a short status badge.
func statusLabel(s model.Status) string {
	switch s {
	case model.StatusToDo:
		return "todo"
	case model.StatusInProgress:
		return "wip"
	case model.StatusDone:
		return "done"
	default:
		return string(s)
	}
}

// relativeTime formats a timestamp relative to now (e.g., "3h ago").
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
