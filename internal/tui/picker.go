// Package tui holds the interactive roster picker and the styled plan and
// report rendering for the command line.
package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrPickAborted is returned when the user leaves the picker without
// confirming a selection.
var ErrPickAborted = errors.New("selection aborted")

// pickItem is one roster id in the picker list.
type pickItem struct {
	id       string
	selected bool
}

func (i pickItem) Title() string {
	if i.selected {
		return "[x] " + i.id
	}
	return "[ ] " + i.id
}

func (i pickItem) Description() string { return "" }
func (i pickItem) FilterValue() string { return i.id }

// pickerModel is the bubbletea model for the roster subset picker.
type pickerModel struct {
	list      list.Model
	confirmed bool
	aborted   bool
}

func newPickerModel(ids []string) pickerModel {
	items := make([]list.Item, len(ids))
	for i, id := range ids {
		items[i] = pickItem{id: id}
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select students"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return pickerModel{list: l}
}

// Init is called once when the program starts.
func (m pickerModel) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.list.SetSize(max(20, msg.Width-4), max(5, msg.Height-4))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit
		case " ":
			if item, ok := m.list.SelectedItem().(pickItem); ok {
				item.selected = !item.selected
				return m, m.list.SetItem(m.list.Index(), item)
			}
			return m, nil
		case "a":
			return m, m.markAll(true)
		case "n":
			return m, m.markAll(false)
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *pickerModel) markAll(selected bool) tea.Cmd {
	var cmds []tea.Cmd
	for i, it := range m.list.Items() {
		item, ok := it.(pickItem)
		if !ok {
			continue
		}
		item.selected = selected
		cmds = append(cmds, m.list.SetItem(i, item))
	}
	return tea.Batch(cmds...)
}

// View renders the current state to a string.
func (m pickerModel) View() string {
	if m.confirmed || m.aborted {
		return ""
	}
	hint := dimStyle.Render("space toggle · a all · n none · enter confirm · q abort")
	return lipgloss.JoinVertical(lipgloss.Left, m.list.View(), hint)
}

// Selected returns the chosen ids in list order.
func (m pickerModel) Selected() []string {
	var ids []string
	for _, it := range m.list.Items() {
		if item, ok := it.(pickItem); ok && item.selected {
			ids = append(ids, item.id)
		}
	}
	return ids
}

// PickStudents runs the interactive picker over the roster members and
// returns the confirmed subset in roster order. Quitting without confirming,
// or confirming an empty selection, yields ErrPickAborted.
func PickStudents(ctx context.Context, ids []string) ([]string, error) {
	program := tea.NewProgram(newPickerModel(ids), tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}

	model, ok := final.(pickerModel)
	if !ok || !model.confirmed {
		return nil, ErrPickAborted
	}
	picked := model.Selected()
	if len(picked) == 0 {
		return nil, ErrPickAborted
	}
	return picked, nil
}
