// Package tui implements the root Bubble Tea model for zbook.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zbook/internal/address"
	"github.com/zarlcorp/zbook/internal/apperr"
	"github.com/zarlcorp/zbook/internal/book"
	"github.com/zarlcorp/zbook/internal/config"
	"github.com/zarlcorp/zbook/internal/logger"
	"github.com/zarlcorp/zbook/internal/lookup"
	"github.com/zarlcorp/zbook/internal/search"
	"github.com/zarlcorp/zbook/internal/store"
)

type viewID int

const (
	viewPassword viewID = iota
	viewMenu
	viewSearch
	viewBook
)

var accent = zstyle.ZburnAccent

// flashMsg clears a flash line.
type flashMsg struct{}

// searchUpdatedMsg signals a new controller state.
type searchUpdatedMsg struct{}

// bookUpdatedMsg signals a change to the saved list.
type bookUpdatedMsg struct{}

// bookLoadedMsg is sent once LoadSaved has finished.
type bookLoadedMsg struct{}

// savedMsg reports the outcome of adding an address.
type savedMsg struct {
	address address.Address
	err     error
}

// removedMsg reports the outcome of removing an address.
type removedMsg struct {
	id  string
	err error
}

// Model is the root TUI model.
type Model struct {
	ctx      context.Context
	version  string
	cfg      *config.Config
	log      *slog.Logger
	searcher search.Searcher
	firstRun bool

	gw       store.Gateway
	addrBook *book.Store
	ctrl     *search.Controller
	unsubs   []func()

	// capacity one; a pending signal already covers later changes
	searchCh chan struct{}
	bookCh   chan struct{}

	active     viewID
	password   passwordModel
	menu       menuModel
	searchView searchModel
	bookView   bookModel

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithGateway uses an already open gateway and skips the password prompt.
func WithGateway(gw store.Gateway) Option {
	return func(m *Model) { m.gw = gw }
}

// WithSearcher replaces the lookup client built from config.
func WithSearcher(s search.Searcher) Option {
	return func(m *Model) { m.searcher = s }
}

// New creates the root TUI model. Without a gateway the vault in
// cfg.DataDir is unlocked through the password view.
func New(ctx context.Context, version string, cfg *config.Config, log *slog.Logger, opts ...Option) Model {
	if log == nil {
		log = logger.Discard()
	}
	m := Model{
		ctx:     ctx,
		version: version,
		cfg:     cfg,
		log:     log,
		menu:    newMenuModel(version),
	}
	for _, o := range opts {
		o(&m)
	}

	if m.searcher == nil {
		m.searcher = lookup.NewClient(lookup.Config{
			BaseURL: cfg.Lookup.URL,
			Timeout: cfg.Lookup.Timeout,
			Logger:  log,
		})
	}

	if m.gw != nil {
		m = m.attach(m.gw)
		m.active = viewMenu
		return m
	}

	m.firstRun = store.IsFirstRun(cfg.DataDir)
	m.password = newPasswordModel(m.firstRun, cfg.DataDir)
	m.active = viewPassword
	return m
}

func (m Model) Init() tea.Cmd {
	if m.active == viewPassword {
		return m.password.Init()
	}
	return m.start()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case passwordSubmitMsg:
		return m.openVault(msg.password)

	case navigateMsg:
		return m.navigate(msg.view)

	case flashMsg:
		m.searchView, _ = m.searchView.Update(msg)
		m.bookView, _ = m.bookView.Update(msg)
		return m, nil

	case searchUpdatedMsg:
		m.searchView = m.searchView.setState(m.ctrl.State())
		return m, listen(m.searchCh, searchUpdatedMsg{})

	case bookUpdatedMsg:
		m = m.refreshBook()
		return m, listen(m.bookCh, bookUpdatedMsg{})

	case bookLoadedMsg:
		return m.refreshBook(), nil

	case runSearchMsg:
		m.ctrl.Search(m.ctx, msg.postCode, msg.houseNumber)
		m.searchView = m.searchView.setState(m.ctrl.State())
		return m, nil

	case clearAllMsg:
		m.ctrl.ClearResults()
		m.searchView = m.searchView.setState(m.ctrl.State())
		return m, nil

	case commitMsg:
		return m.commit(msg)

	case savedMsg:
		if msg.err != nil {
			m.searchView = m.searchView.setFlash(book.MsgSaveFailed, true)
			return m, clearFlashAfter()
		}
		m.searchView = m.searchView.setFlash("saved "+msg.address.Name(), false)
		return m.refreshBook(), clearFlashAfter()

	case removeMsg:
		return m, m.remove(msg.id)

	case removedMsg:
		if msg.err != nil {
			m.bookView = m.bookView.setFlash(book.MsgSaveFailed, true)
			return m.refreshBook(), clearFlashAfter()
		}
		m.bookView = m.bookView.setFlash("deleted", false)
		return m.refreshBook(), clearFlashAfter()
	}

	return m.updateActive(msg)
}

func (m Model) View() string {
	// password and menu include the logo; render directly
	switch m.active {
	case viewPassword:
		return m.password.View()
	case viewMenu:
		return m.menu.View()
	}

	var content string
	switch m.active {
	case viewSearch:
		content = m.searchView.View()
	case viewBook:
		content = m.bookView.View()
	}

	header := zstyle.RenderHeader("zbook", viewTitle(m.active), accent)
	sep := zstyle.RenderSeparator(m.width)
	footer := zstyle.RenderFooter(helpFor(m.active))

	return "\n" + header + "\n" + sep + "\n" + content + "\n" + footer + "\n"
}

// viewTitle returns the display title for each view.
func viewTitle(id viewID) string {
	switch id {
	case viewSearch:
		return "Find an Address"
	case viewBook:
		return "Address Book"
	}
	return ""
}

// helpFor returns keybinding pairs for each view's footer.
func helpFor(id viewID) []zstyle.HelpPair {
	switch id {
	case viewSearch:
		return []zstyle.HelpPair{
			{Key: "tab", Desc: "next"},
			{Key: "enter", Desc: "find/select/add"},
			{Key: "ctrl+x", Desc: "clear all"},
			{Key: "esc", Desc: "back"},
		}
	case viewBook:
		return []zstyle.HelpPair{
			{Key: "j/k", Desc: "navigate"},
			{Key: "d", Desc: "delete"},
			{Key: "esc", Desc: "back"},
			{Key: "q", Desc: "quit"},
		}
	}
	return nil
}

func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.active {
	case viewPassword:
		m.password, cmd = m.password.Update(msg)
	case viewMenu:
		m.menu, cmd = m.menu.Update(msg)
	case viewSearch:
		m.searchView, cmd = m.searchView.Update(msg)
	case viewBook:
		m.bookView, cmd = m.bookView.Update(msg)
	}

	return m, cmd
}

func (m Model) openVault(password string) (tea.Model, tea.Cmd) {
	v, err := store.OpenVaultDir(m.cfg.DataDir, []byte(password))
	if err != nil {
		m.log.Warn("unlock vault", "dir", m.cfg.DataDir, "err", err)
		if errors.Is(err, store.ErrWrongPassword) {
			err = errWrongPassword
		}
		m.password, _ = m.password.Update(passwordErrMsg{err: err})
		return m, nil
	}

	m = m.attach(v)
	m.active = viewMenu
	return m, m.start()
}

// attach wires the address book and search controller to gw.
func (m Model) attach(gw store.Gateway) Model {
	m.gw = gw
	m.addrBook = book.New(gw, book.WithLogger(m.log))
	m.ctrl = search.New(m.searcher, search.WithLogger(m.log))
	m.searchCh = make(chan struct{}, 1)
	m.bookCh = make(chan struct{}, 1)

	searchCh, bookCh := m.searchCh, m.bookCh
	m.unsubs = []func(){
		m.ctrl.Subscribe(func(search.State) { signal(searchCh) }),
		m.addrBook.Subscribe(func([]address.Address) { signal(bookCh) }),
	}

	m.searchView = newSearchModel()
	m.bookView = newBookModel()
	return m
}

// start loads the saved list and begins listening for changes.
func (m Model) start() tea.Cmd {
	b, ctx := m.addrBook, m.ctx
	load := func() tea.Msg {
		b.LoadSaved(ctx)
		return bookLoadedMsg{}
	}
	return tea.Batch(
		load,
		listen(m.searchCh, searchUpdatedMsg{}),
		listen(m.bookCh, bookUpdatedMsg{}),
	)
}

func (m Model) navigate(view viewID) (tea.Model, tea.Cmd) {
	switch view {
	case viewMenu:
		mm := newMenuModel(m.version)
		if m.addrBook != nil {
			mm.addressCount = len(m.addrBook.List())
		}
		m.menu = mm
		m.active = viewMenu
		return m, tea.ClearScreen

	case viewSearch:
		m.active = viewSearch
		return m, tea.Batch(tea.ClearScreen, m.searchView.Init())

	case viewBook:
		m = m.refreshBook()
		m.active = viewBook
		return m, tea.ClearScreen
	}

	return m, nil
}

func (m Model) refreshBook() Model {
	if m.addrBook == nil {
		return m
	}
	list := m.addrBook.List()
	m.bookView = m.bookView.setEntries(list, m.addrBook.Loading())
	m.menu.addressCount = len(list)
	return m
}

func (m Model) commit(msg commitMsg) (tea.Model, tea.Cmd) {
	a, err := book.Commit(m.ctrl.State().Results, msg.selectedID, msg.firstName, msg.lastName)
	if err != nil {
		m.searchView.errMsg = apperr.Message(err)
		return m, nil
	}

	b, ctx := m.addrBook, m.ctx
	return m, func() tea.Msg {
		return savedMsg{address: a, err: b.Add(ctx, a)}
	}
}

func (m Model) remove(id string) tea.Cmd {
	b, ctx := m.addrBook, m.ctx
	return func() tea.Msg {
		return removedMsg{id: id, err: b.Remove(ctx, id)}
	}
}

// signal notifies ch without blocking.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// listen waits for the next signal on ch and delivers msg.
func listen(ch chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return msg
	}
}

func clearFlashAfter() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return flashMsg{}
	})
}

// Close cleans up resources. Call after the program exits.
func (m Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	if m.ctrl != nil {
		m.ctrl.ClearResults()
		m.ctrl.Wait()
	}
	if m.gw != nil {
		if err := m.gw.Close(); err != nil {
			m.log.Error("close store", "err", err)
		}
	}
}
