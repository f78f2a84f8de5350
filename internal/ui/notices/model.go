package notices

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ashik0401/task-mate-client/internal/model"
	"github.com/ashik0401/task-mate-client/internal/theme"
)

// maxVisible caps how many notifications the overlay shows at once.
const maxVisible = 5

// Model renders the transient notification overlay. It holds the
// engine's latest queue snapshot; expiry and dismissal happen in the
// engine, not here.
type Model struct {
	notifications []model.Notification
	width         int
}

// New creates a notification overlay model.
func New(width int) Model {
	return Model{width: width}
}

// SetNotifications replaces the displayed snapshot, most recent first.
func (m *Model) SetNotifications(ns []model.Notification) {
	m.notifications = ns
}

// Newest returns the most recent notification, used for dismissal.
func (m Model) Newest() (model.Notification, bool) {
	if len(m.notifications) == 0 {
		return model.Notification{}, false
	}
	return m.notifications[0], true
}

// Empty reports whether anything is displayed.
func (m Model) Empty() bool {
	return len(m.notifications) == 0
}

// View renders the stacked notifications.
func (m Model) View() string {
	if len(m.notifications) == 0 {
		return ""
	}

	shown := m.notifications
	if len(shown) > maxVisible {
		shown = shown[:maxVisible]
	}

	lines := make([]string, 0, len(shown))
	for _, n := range shown {
		mark := kindMark(n.Kind)
		body := lipgloss.JoinHorizontal(lipgloss.Top, mark, " ", n.Message)
		lines = append(lines, theme.NotificationStyle.
			Width(m.boxWidth()).
			Render(body))
	}
	return strings.Join(lines, "\n")
}

// SetSize updates the overlay width.
func (m *Model) SetSize(width int) {
	m.width = width
}

func (m Model) boxWidth() int {
	w := m.width / 3
	if w < 30 {
		w = 30
	}
	return w
}

// kindMark renders a colored indicator per notification kind.
func kindMark(k model.NotificationKind) string {
	switch k {
	case model.NotificationCreated:
		return lipgloss.NewStyle().Foreground(theme.ColorGreen).Render("●")
	case model.NotificationUpdated:
		return lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("●")
	default:
		return lipgloss.NewStyle().Foreground(theme.ColorRed).Render("●")
	}
}
