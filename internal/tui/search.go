package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zbook/internal/form"
	"github.com/zarlcorp/zbook/internal/search"
)

const (
	fieldPostCode = iota
	fieldHouseNumber
	fieldFirstName
	fieldLastName
	fieldCount
)

// focusResults is the focus stop of the candidate list.
const focusResults = fieldCount

// selectedField holds the chosen candidate id in the person form.
const selectedField = "selectedAddress"

var fieldNames = [fieldCount]string{
	"postCode",
	"houseNumber",
	"firstName",
	"lastName",
}

var fieldLabels = [fieldCount]string{
	"post code",
	"house number",
	"first name",
	"last name",
}

// searchModel is the find-an-address view: lookup inputs, candidates and
// the personal info that turns a candidate into a saved entry.
type searchModel struct {
	query  *form.Fields
	person *form.Fields
	inputs [fieldCount]textinput.Model
	focus  int

	state  search.State
	cursor int

	errMsg    string
	flash     string
	flashWarn bool
}

// runSearchMsg asks the root to start a lookup.
type runSearchMsg struct {
	postCode    string
	houseNumber string
}

// clearAllMsg asks the root to drop the controller's results.
type clearAllMsg struct{}

// commitMsg asks the root to save the selected candidate.
type commitMsg struct {
	selectedID string
	firstName  string
	lastName   string
}

func newSearchModel() searchModel {
	var inputs [fieldCount]textinput.Model
	for i := range fieldCount {
		ti := textinput.New()
		ti.CharLimit = 64
		ti.Width = 30
		ti.Prompt = ""
		inputs[i] = ti
	}

	m := searchModel{
		query:  form.New(nil, fieldNames[fieldPostCode], fieldNames[fieldHouseNumber]),
		person: form.New(nil, fieldNames[fieldFirstName], fieldNames[fieldLastName], selectedField),
		inputs: inputs,
	}
	m.inputs[m.focus].Focus()
	return m
}

func (m searchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case flashMsg:
		m.flash = ""
		m.flashWarn = false
		return m, nil
	}

	return m.updateInput(msg)
}

func (m searchModel) handleKey(msg tea.KeyMsg) (searchModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyCtrlX:
		return m.clearAll()
	}

	if key.Matches(msg, zstyle.KeyBack) {
		return m, func() tea.Msg { return navigateMsg{view: viewMenu} }
	}

	switch msg.String() {
	case "tab":
		return m.moveFocus(1), textinput.Blink
	case "shift+tab":
		return m.moveFocus(-1), textinput.Blink
	}

	if m.focus == focusResults {
		return m.handleResultsKey(msg)
	}

	if key.Matches(msg, zstyle.KeyEnter) {
		return m.submit()
	}

	return m.updateInput(msg)
}

func (m searchModel) handleResultsKey(msg tea.KeyMsg) (searchModel, tea.Cmd) {
	if key.Matches(msg, zstyle.KeyUp) {
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyDown) {
		if m.cursor < len(m.state.Results)-1 {
			m.cursor++
		}
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyEnter) || msg.String() == " " {
		if m.cursor < len(m.state.Results) {
			m.person.OnChange(selectedField, m.state.Results[m.cursor].ID)
			m.errMsg = ""
			return m.setFocus(fieldFirstName), textinput.Blink
		}
	}

	return m, nil
}

func (m searchModel) submit() (searchModel, tea.Cmd) {
	m.errMsg = ""

	if m.focus == fieldPostCode || m.focus == fieldHouseNumber {
		postCode := m.query.Value(fieldNames[fieldPostCode])
		houseNumber := m.query.Value(fieldNames[fieldHouseNumber])
		return m, func() tea.Msg {
			return runSearchMsg{postCode: postCode, houseNumber: houseNumber}
		}
	}

	c := commitMsg{
		selectedID: m.selected(),
		firstName:  m.person.Value(fieldNames[fieldFirstName]),
		lastName:   m.person.Value(fieldNames[fieldLastName]),
	}
	return m, func() tea.Msg { return c }
}

// clearAll resets both forms and asks the root to clear the results.
func (m searchModel) clearAll() (searchModel, tea.Cmd) {
	m.query.Reset()
	m.person.Reset()
	m.syncInputs()
	m.cursor = 0
	m.errMsg = ""
	m = m.setFocus(fieldPostCode)
	return m, func() tea.Msg { return clearAllMsg{} }
}

func (m searchModel) updateInput(msg tea.Msg) (searchModel, tea.Cmd) {
	if m.focus >= fieldCount {
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	m.fieldsFor(m.focus).OnChange(fieldNames[m.focus], m.inputs[m.focus].Value())
	return m, cmd
}

// setState applies a controller snapshot. A selection that is no longer
// among the candidates is dropped.
func (m searchModel) setState(s search.State) searchModel {
	m.state = s

	if id := m.selected(); id != "" && !containsID(s, id) {
		m.person.OnChange(selectedField, "")
	}
	if m.cursor >= len(s.Results) {
		m.cursor = 0
	}
	if !m.canFocus(m.focus) {
		m = m.setFocus(fieldHouseNumber)
	}
	return m
}

func (m searchModel) setFlash(msg string, warn bool) searchModel {
	m.flash = msg
	m.flashWarn = warn
	return m
}

func (m searchModel) selected() string {
	return m.person.Value(selectedField)
}

func (m searchModel) fieldsFor(i int) *form.Fields {
	if i == fieldPostCode || i == fieldHouseNumber {
		return m.query
	}
	return m.person
}

// syncInputs copies form values into the text inputs.
func (m *searchModel) syncInputs() {
	for i := range fieldCount {
		m.inputs[i].SetValue(m.fieldsFor(i).Value(fieldNames[i]))
	}
}

// stops returns the reachable focus stops in tab order.
func (m searchModel) stops() []int {
	s := []int{fieldPostCode, fieldHouseNumber}
	if len(m.state.Results) > 0 {
		s = append(s, focusResults)
	}
	if m.selected() != "" {
		s = append(s, fieldFirstName, fieldLastName)
	}
	return s
}

func (m searchModel) canFocus(f int) bool {
	for _, s := range m.stops() {
		if s == f {
			return true
		}
	}
	return false
}

func (m searchModel) moveFocus(delta int) searchModel {
	stops := m.stops()
	idx := 0
	for i, s := range stops {
		if s == m.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(stops)) % len(stops)
	return m.setFocus(stops[idx])
}

func (m searchModel) setFocus(f int) searchModel {
	if m.focus < fieldCount {
		m.inputs[m.focus].Blur()
	}
	m.focus = f
	if f < fieldCount {
		m.inputs[f].Focus()
	}
	return m
}

func containsID(s search.State, id string) bool {
	for _, a := range s.Results {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (m searchModel) View() string {
	accentStyle := lipgloss.NewStyle().Foreground(accent).Bold(true)

	s := "\n  " + zstyle.Subtitle.Render("find an address") + "\n\n"
	s += m.fieldView(fieldPostCode) + m.fieldView(fieldHouseNumber)
	s += "\n"

	switch {
	case m.state.Loading:
		s += "  " + zstyle.MutedText.Render("Loading...") + "\n"
	case m.errMsg != "":
		s += "  " + zstyle.StatusErr.Render(m.errMsg) + "\n"
	case m.state.Err != "":
		s += "  " + zstyle.StatusErr.Render(m.state.Err) + "\n"
	default:
		s += "\n"
	}

	if len(m.state.Results) > 0 {
		s += "\n"
		for i, a := range m.state.Results {
			radio := "( )"
			if a.ID == m.selected() {
				radio = "(•)"
			}
			line := radio + " " + truncate(a.Label(), 50)

			if m.focus == focusResults && i == m.cursor {
				s += "  " + accentStyle.Render("▸") + " " + line + "\n"
			} else {
				s += "    " + line + "\n"
			}
		}
	}

	if m.selected() != "" {
		s += "\n  " + zstyle.Subtitle.Render("add personal info") + "\n\n"
		s += m.fieldView(fieldFirstName) + m.fieldView(fieldLastName)
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

func (m searchModel) fieldView(i int) string {
	label := zstyle.MutedText.Render(fmt.Sprintf("%-13s", fieldLabels[i]))
	cursor := "  "
	if i == m.focus {
		cursor = "> "
	}
	return fmt.Sprintf("  %s%s %s\n", cursor, label, m.inputs[i].View())
}
