package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zbook/internal/address"
)

// bookModel displays the saved addresses in a scrollable list.
type bookModel struct {
	entries   []address.Address
	loading   bool
	cursor    int
	flash     string
	flashWarn bool
}

// removeMsg requests deletion of a saved address.
type removeMsg struct {
	id string
}

func newBookModel() bookModel {
	return bookModel{loading: true}
}

func (m bookModel) Init() tea.Cmd {
	return nil
}

func (m bookModel) Update(msg tea.Msg) (bookModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case flashMsg:
		m.flash = ""
		m.flashWarn = false
		return m, nil
	}

	return m, nil
}

func (m bookModel) handleKey(msg tea.KeyMsg) (bookModel, tea.Cmd) {
	if key.Matches(msg, zstyle.KeyQuit) {
		return m, tea.Quit
	}

	if key.Matches(msg, zstyle.KeyBack) {
		return m, func() tea.Msg { return navigateMsg{view: viewMenu} }
	}

	if len(m.entries) == 0 {
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyUp) {
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyDown) {
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
		return m, nil
	}

	if msg.String() == "d" {
		id := m.entries[m.cursor].ID
		return m, func() tea.Msg { return removeMsg{id: id} }
	}

	return m, nil
}

func (m bookModel) setEntries(entries []address.Address, loading bool) bookModel {
	m.entries = entries
	m.loading = loading
	if m.cursor >= len(entries) {
		m.cursor = max(len(entries)-1, 0)
	}
	return m
}

func (m bookModel) setFlash(msg string, warn bool) bookModel {
	m.flash = msg
	m.flashWarn = warn
	return m
}

func (m bookModel) View() string {
	accentStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)

	s := "\n"

	switch {
	case m.loading:
		s += "  " + zstyle.MutedText.Render("loading...") + "\n"
	case len(m.entries) == 0:
		s += "  " + zstyle.MutedText.Render("no saved addresses") + "\n"
	}

	for i, a := range m.entries {
		name := truncate(a.Name(), 24)
		label := truncate(a.Label(), 40)
		line := fmt.Sprintf("%-24s %s", name, zstyle.MutedText.Render(label))

		if i == m.cursor {
			s += "  " + accentStyle.Render("▸") + " " + line + "\n"
		} else {
			s += "    " + line + "\n"
		}
	}

	s += "\n"

	// always reserve a line for flash to prevent layout shift
	switch {
	case m.flash != "" && m.flashWarn:
		s += "  " + zstyle.StatusWarn.Render(m.flash) + "\n"
	case m.flash != "":
		s += "  " + zstyle.StatusOK.Render(m.flash) + "\n"
	default:
		s += "\n"
	}

	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
