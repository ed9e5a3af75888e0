// Package tui renders an interactive inspector over the history engine:
// resident stacks on the left, the selected key's entries on the right, with
// undo/redo/clear driven from the keyboard.
package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/hylla/rewind/internal/domain"
)

// Service represents the history engine surface the inspector drives.
type Service interface {
	Undo(workflowID, userID string) *domain.OperationEntry
	Redo(workflowID, userID string) *domain.OperationEntry
	Clear(workflowID, userID string)
	ClearRedo(workflowID, userID string)
	StackSizes(workflowID, userID string) (undoSize, redoSize int)
	Entries(workflowID, userID string) (undo, redo []domain.OperationEntry)
	Keys() []string
	Capacity() int
}

// Model holds the inspector state.
type Model struct {
	svc Service

	stackKeys   []string
	selectedKey int

	keys   keyMap
	help   help.Model
	status string
	width  int
	height int
	ready  bool
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:    svc,
		help:   h,
		keys:   newKeyMap(),
		status: "ready",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.reloadKeys()
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	default:
		return m, nil
	}
}

// handleKey routes one key press.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.moveUp):
		if m.selectedKey > 0 {
			m.selectedKey--
		}
		return m, nil

	case key.Matches(msg, m.keys.moveDown):
		if m.selectedKey < len(m.stackKeys)-1 {
			m.selectedKey++
		}
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		m.reloadKeys()
		m.status = "refreshed"
		return m, nil

	case key.Matches(msg, m.keys.undo):
		workflowID, userID, ok := m.currentKey()
		if !ok {
			return m, nil
		}
		if entry := m.svc.Undo(workflowID, userID); entry != nil {
			m.status = "undid " + entry.Operation.Summary()
		} else {
			m.status = "nothing to undo"
		}
		return m, nil

	case key.Matches(msg, m.keys.redo):
		workflowID, userID, ok := m.currentKey()
		if !ok {
			return m, nil
		}
		if entry := m.svc.Redo(workflowID, userID); entry != nil {
			m.status = "redid " + entry.Operation.Summary()
		} else {
			m.status = "nothing to redo"
		}
		return m, nil

	case key.Matches(msg, m.keys.clearRedo):
		workflowID, userID, ok := m.currentKey()
		if !ok {
			return m, nil
		}
		m.svc.ClearRedo(workflowID, userID)
		m.status = "redo stack cleared"
		return m, nil

	case key.Matches(msg, m.keys.clear):
		workflowID, userID, ok := m.currentKey()
		if !ok {
			return m, nil
		}
		m.svc.Clear(workflowID, userID)
		m.reloadKeys()
		m.status = "stack cleared"
		return m, nil

	default:
		return m, nil
	}
}

// View handles view.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	mutedStyle := lipgloss.NewStyle().Foreground(muted)
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	sections := []string{
		titleStyle.Render(fmt.Sprintf("rewind · %d stacks · capacity %d", len(m.stackKeys), m.svc.Capacity())),
		"",
	}

	if len(m.stackKeys) == 0 {
		sections = append(sections, mutedStyle.Render("no history recorded yet"))
	}
	for idx, stackKey := range m.stackKeys {
		workflowID, userID := domain.SplitStackKey(stackKey)
		undoSize, redoSize := m.svc.StackSizes(workflowID, userID)
		line := fmt.Sprintf("%s  undo %d · redo %d", stackKey, undoSize, redoSize)
		if idx == m.selectedKey {
			sections = append(sections, selectedStyle.Render("> "+line))
		} else {
			sections = append(sections, mutedStyle.Render("  "+line))
		}
	}

	if workflowID, userID, ok := m.currentKey(); ok {
		undo, redo := m.svc.Entries(workflowID, userID)
		sections = append(sections, "", titleStyle.Render("undo (newest last)"))
		sections = append(sections, renderEntries(undo, mutedStyle)...)
		sections = append(sections, "", titleStyle.Render("redo (newest last)"))
		sections = append(sections, renderEntries(redo, mutedStyle)...)
	}

	if strings.TrimSpace(m.status) != "" {
		sections = append(sections, "", statusStyle.Render(m.status))
	}

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	v := tea.NewView(strings.Join(sections, "\n") + "\n" + helpLine)
	v.AltScreen = true
	return v
}

// renderEntries formats one stack side for display.
func renderEntries(entries []domain.OperationEntry, style lipgloss.Style) []string {
	if len(entries) == 0 {
		return []string{style.Render("  (empty)")}
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, style.Render("  "+entry.Operation.Summary()))
	}
	return lines
}

// currentKey resolves the selected stack key into its workflow/user pair.
func (m Model) currentKey() (workflowID, userID string, ok bool) {
	if len(m.stackKeys) == 0 || m.selectedKey < 0 || m.selectedKey >= len(m.stackKeys) {
		return "", "", false
	}
	workflowID, userID = domain.SplitStackKey(m.stackKeys[m.selectedKey])
	return workflowID, userID, true
}

// reloadKeys refreshes the resident key list, clamping the selection.
func (m *Model) reloadKeys() {
	m.stackKeys = m.svc.Keys()
	if m.selectedKey >= len(m.stackKeys) {
		m.selectedKey = len(m.stackKeys) - 1
	}
	if m.selectedKey < 0 {
		m.selectedKey = 0
	}
}
