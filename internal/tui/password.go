package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
)

var errWrongPassword = errors.New("wrong password")

// passwordModel unlocks the vault in dir, or creates it on first run.
type passwordModel struct {
	input      textinput.Model
	dir        string
	firstRun   bool
	confirming bool
	firstPass  string
	errMsg     string
	failures   int
}

// passwordSubmitMsg is sent when the user submits a password.
type passwordSubmitMsg struct {
	password string
}

// passwordErrMsg is sent when the vault cannot be opened.
type passwordErrMsg struct {
	err error
}

func newPasswordModel(firstRun bool, dir string) passwordModel {
	ti := textinput.New()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.Focus()
	ti.CharLimit = 128
	ti.Width = 40

	return passwordModel{
		input:    ti,
		dir:      dir,
		firstRun: firstRun,
	}
}

func (m passwordModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m passwordModel) Update(msg tea.Msg) (passwordModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// q is a valid password character; only ctrl+c leaves
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if key.Matches(msg, zstyle.KeyEnter) {
			return m.submit()
		}

	case passwordErrMsg:
		return m.fail(msg.err), nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// fail resets the prompt after the vault rejected a password.
func (m passwordModel) fail(err error) passwordModel {
	m.input.SetValue("")
	m.confirming = false
	m.firstPass = ""

	if !errors.Is(err, errWrongPassword) {
		m.errMsg = err.Error()
		return m
	}
	m.failures++
	m.errMsg = err.Error()
	if m.failures > 1 {
		m.errMsg = fmt.Sprintf("%s (%d attempts)", err, m.failures)
	}
	return m
}

func (m passwordModel) submit() (passwordModel, tea.Cmd) {
	val := m.input.Value()
	if val == "" {
		return m, nil
	}
	m.input.SetValue("")

	// first run: need to confirm password
	if m.firstRun && !m.confirming {
		m.firstPass = val
		m.confirming = true
		m.errMsg = ""
		return m, nil
	}

	if m.firstRun && val != m.firstPass {
		m.errMsg = "passwords do not match"
		m.confirming = false
		m.firstPass = ""
		return m, nil
	}

	m.errMsg = ""
	return m, func() tea.Msg {
		return passwordSubmitMsg{password: val}
	}
}

func (m passwordModel) prompt() string {
	if !m.firstRun {
		return "master password:"
	}
	if m.confirming {
		return "confirm password:"
	}
	return "create master password:"
}

func (m passwordModel) View() string {
	indent := lipgloss.NewStyle().MarginLeft(2)
	logo := indent.Render(
		zstyle.StyledLogo(lipgloss.NewStyle().Foreground(accent)),
	)
	toolName := indent.Render(zstyle.MutedText.Render("zbook"))

	s := fmt.Sprintf("\n%s\n%s\n", logo, toolName)
	if m.dir != "" {
		verb := "vault"
		if m.firstRun {
			verb = "new vault"
		}
		s += "  " + zstyle.MutedText.Render(verb+" in "+m.dir) + "\n"
	}
	s += fmt.Sprintf("\n  %s\n  %s\n", m.prompt(), m.input.View())

	if m.errMsg != "" {
		s += "\n  " + zstyle.StatusErr.Render(m.errMsg)
	}

	return s + "\n"
}
