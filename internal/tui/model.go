// Package tui is the interactive todo screen. Every server call runs as a
// tea.Cmd so the screen never blocks; results come back as messages and are
// applied in arrival order.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/cache"
	"github.com/idilsaglam/tada/internal/forms"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/ui"
)

// Session is the part of session.Store the screen needs.
type Session interface {
	User() (model.User, bool)
	Logout() error
}

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeAdd
	modeEdit
)

const copiedFor = 1500 * time.Millisecond

type (
	listMsg struct{ err error }

	mutationMsg struct {
		kind cache.Kind
		id   string
		form int // form that sent it, 0 for list actions
		todo model.Todo
		err  error
	}

	copiedMsg struct {
		id string
		ok bool
	}
	uncopyMsg struct{ id string }
	logoutMsg struct{ err error }
)

var doneText = map[cache.Kind]string{
	cache.KindCreate:    "added",
	cache.KindToggle:    "toggled",
	cache.KindUpdate:    "saved",
	cache.KindDelete:    "deleted",
	cache.KindDuplicate: "duplicated",
}

var failText = map[cache.Kind]string{
	cache.KindList:      "Could not load todos",
	cache.KindCreate:    "Could not add todo",
	cache.KindToggle:    "Could not update status",
	cache.KindUpdate:    "Could not save changes",
	cache.KindDelete:    "Could not delete todo",
	cache.KindDuplicate: "Could not duplicate todo",
}

type Model struct {
	ctx     context.Context
	todos   *cache.Cache
	session Session

	list   list.Model
	search textinput.Model
	title  textinput.Model
	desc   textinput.Model
	spin   spinner.Model

	filter    cache.Filter
	mode      mode
	editID    string
	form      int // bumped every time a form opens
	formErr   string
	status    string
	statusErr bool
	copiedID  string
	loggedOut bool
	width     int
	height    int
}

func New(ctx context.Context, todos *cache.Cache, sess Session) Model {
	m := Model{
		ctx:     ctx,
		todos:   todos,
		session: sess,
		filter:  cache.FilterAll,
		width:   80,
		height:  24,
	}

	l := list.New(nil, itemDelegate{now: time.Now}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.SetStatusBarItemName("todo", "todos")
	bindings := []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "duplicate")),
		key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1/2/3", "all/active/done")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings[:4] }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }
	m.list = l

	m.search = textinput.New()
	m.search.Prompt = "/ "
	m.search.Placeholder = "Search title or description..."

	m.title = textinput.New()
	m.title.Prompt = "> "
	m.title.Placeholder = "Title"
	m.title.CharLimit = 200

	m.desc = textinput.New()
	m.desc.Prompt = "  "
	m.desc.Placeholder = "Description (optional)"
	m.desc.CharLimit = 500

	m.spin = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle))

	m.resize()
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.fetch())
}

// LoggedOut reports whether the user left through logout.
func (m Model) LoggedOut() bool { return m.loggedOut }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case listMsg:
		m.refresh()
		if errors.Is(msg.err, cache.ErrNoSession) {
			m.loggedOut = true
			return m, tea.Quit
		}
		if msg.err != nil {
			m.fail(failText[cache.KindList], msg.err)
		}
		return m, nil
	case mutationMsg:
		return m.applied(msg), nil
	case copiedMsg:
		if !msg.ok {
			return m, nil
		}
		m.copiedID = msg.id
		m.refresh()
		id := msg.id
		return m, tea.Tick(copiedFor, func(time.Time) tea.Msg { return uncopyMsg{id: id} })
	case uncopyMsg:
		if m.copiedID == msg.id {
			m.copiedID = ""
			m.refresh()
		}
		return m, nil
	case logoutMsg:
		m.todos.Reset()
		m.loggedOut = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeAdd, modeEdit:
		return m.updateForm(msg)
	case modeSearch:
		return m.updateSearch(msg)
	}
	return m.updateBrowse(msg)
}

func (m Model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	k, isKey := msg.(tea.KeyMsg)
	if !isKey {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	switch k.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1", "2", "3":
		m.filter = []cache.Filter{cache.FilterAll, cache.FilterActive, cache.FilterCompleted}[k.String()[0]-'1']
		m.refresh()
		return m, nil
	case "/":
		m.mode = modeSearch
		m.resize()
		cmd := m.search.Focus()
		return m, cmd
	case "esc":
		if m.search.Value() != "" {
			m.search.SetValue("")
			m.refresh()
		}
		return m, nil
	case "r":
		return m, m.fetch()
	case "a":
		m.mode = modeAdd
		m.editID = ""
		m.form++
		m.formErr = ""
		m.title.SetValue("")
		m.desc.SetValue("")
		m.desc.Blur()
		m.resize()
		cmd := m.title.Focus()
		return m, cmd
	case "L":
		sess := m.session
		return m, func() tea.Msg { return logoutMsg{err: sess.Logout()} }
	}

	t, ok := m.selected()
	switch k.String() {
	case " ":
		if ok {
			return m, m.mutate(cache.KindToggle, t.ID, func(ctx context.Context) (model.Todo, error) {
				return m.todos.Toggle(ctx, t.ID)
			})
		}
		return m, nil
	case "d":
		if ok {
			return m, m.mutate(cache.KindDelete, t.ID, func(ctx context.Context) (model.Todo, error) {
				return model.Todo{}, m.todos.Delete(ctx, t.ID)
			})
		}
		return m, nil
	case "D":
		if ok {
			return m, m.mutate(cache.KindDuplicate, t.ID, func(ctx context.Context) (model.Todo, error) {
				return m.todos.Duplicate(ctx, t.ID)
			})
		}
		return m, nil
	case "y":
		if ok {
			text := ui.CopyText(t)
			return m, func() tea.Msg { return copiedMsg{id: t.ID, ok: ui.Copy(text)} }
		}
		return m, nil
	case "e":
		if ok {
			m.mode = modeEdit
			m.editID = t.ID
			m.form++
			m.formErr = ""
			m.title.SetValue(t.Title)
			m.title.CursorEnd()
			m.desc.SetValue(t.Description)
			m.desc.Blur()
			m.resize()
			cmd := m.title.Focus()
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			m.mode = modeBrowse
			m.search.Blur()
			m.resize()
			return m, nil
		case "esc":
			m.mode = modeBrowse
			m.search.SetValue("")
			m.search.Blur()
			m.resize()
			m.refresh()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.closeForm()
			return m, nil
		case "tab", "shift+tab":
			if m.title.Focused() {
				m.title.Blur()
				cmd := m.desc.Focus()
				return m, cmd
			}
			m.desc.Blur()
			cmd := m.title.Focus()
			return m, cmd
		case "enter":
			return m.submit()
		}
	}
	var cmd tea.Cmd
	if m.desc.Focused() {
		m.desc, cmd = m.desc.Update(msg)
	} else {
		m.title, cmd = m.title.Update(msg)
	}
	return m, cmd
}

// submit validates the form and sends it. The form stays open until the
// server confirms.
func (m Model) submit() (tea.Model, tea.Cmd) {
	form := forms.Todo{Title: m.title.Value(), Description: m.desc.Value()}
	if err := forms.Validate(&form); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			m.formErr = "Title " + verr.Field("title")
		} else {
			m.formErr = err.Error()
		}
		return m, nil
	}
	m.formErr = ""
	if m.mode == modeAdd {
		in := model.NewTodo{Title: form.Title, Description: form.Description}
		return m, m.dispatch(cache.KindCreate, "", m.form, func(ctx context.Context) (model.Todo, error) {
			return m.todos.Create(ctx, in)
		})
	}
	id := m.editID
	patch := model.TodoPatch{Title: &form.Title, Description: &form.Description}
	return m, m.dispatch(cache.KindUpdate, id, m.form, func(ctx context.Context) (model.Todo, error) {
		return m.todos.Update(ctx, id, patch)
	})
}

func (m Model) applied(msg mutationMsg) Model {
	m.refresh()
	if msg.err != nil {
		if m.formOpenFor(msg) {
			m.formErr = ui.ErrorText(msg.err)
		}
		m.fail(failText[msg.kind], msg.err)
		return m
	}
	if m.formOpenFor(msg) {
		m.closeForm()
	}
	m.status = doneText[msg.kind]
	m.statusErr = false
	return m
}

// formOpenFor reports whether the open form is the one that sent msg. A form
// closed and reopened while the request was in flight is a different form.
func (m Model) formOpenFor(msg mutationMsg) bool {
	if msg.form == 0 || msg.form != m.form {
		return false
	}
	return m.mode == modeAdd || m.mode == modeEdit
}

func (m *Model) closeForm() {
	m.mode = modeBrowse
	m.editID = ""
	m.formErr = ""
	m.title.SetValue("")
	m.desc.SetValue("")
	m.title.Blur()
	m.desc.Blur()
	m.resize()
}

func (m *Model) fail(prefix string, err error) {
	m.status = prefix + ": " + ui.ErrorText(err)
	m.statusErr = true
}

func (m Model) fetch() tea.Cmd {
	ctx, todos := m.ctx, m.todos
	return func() tea.Msg {
		_, err := todos.List(ctx)
		return listMsg{err: err}
	}
}

func (m Model) mutate(kind cache.Kind, id string, fn func(context.Context) (model.Todo, error)) tea.Cmd {
	return m.dispatch(kind, id, 0, fn)
}

func (m Model) dispatch(kind cache.Kind, id string, form int, fn func(context.Context) (model.Todo, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		t, err := fn(ctx)
		return mutationMsg{kind: kind, id: id, form: form, todo: t, err: err}
	}
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(todoItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.todo, true
}

// refresh rebuilds the visible rows from the cache.
func (m *Model) refresh() {
	all := m.todos.Todos()
	visible := cache.Visible(all, m.filter, m.search.Value())
	items := make([]list.Item, 0, len(visible))
	for _, t := range visible {
		items = append(items, todoItem{todo: t, copied: t.ID == m.copiedID})
	}
	m.list.SetItems(items)

	done, pending := cache.Stats(all)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(all),
	)
}

func (m *Model) resize() {
	h := m.height - 6
	if m.mode != modeBrowse {
		h -= 4
	}
	if h < 3 {
		h = 3
	}
	m.list.SetSize(m.width-4, h)
}

func (m Model) View() string {
	var b strings.Builder
	if u, ok := m.session.User(); ok {
		b.WriteString(mutedStyle.Render("signed in as "+u.Email) + "\n")
	}
	b.WriteString(m.tabs() + "\n")
	if m.mode == modeSearch || m.search.Value() != "" {
		b.WriteString(m.search.View() + "\n")
	}
	b.WriteString(m.list.View())

	if m.mode == modeAdd || m.mode == modeEdit {
		head := "Add todo"
		if m.mode == modeEdit {
			head = "Edit todo"
		}
		if m.formErr != "" {
			head += "  " + errorStyle.Render(m.formErr)
		}
		b.WriteString("\n" + frameStyle.Render(head+"\n"+m.title.View()+"\n"+m.desc.View()))
	}

	status := m.status
	if m.statusErr {
		status = errorStyle.Render(status)
	} else if status != "" {
		status = successStyle.Render("✔ " + status)
	}
	if m.todos.Busy() {
		status = m.spin.View() + " " + status
	}
	b.WriteString("\n" + status)
	return frameStyle.Render(b.String())
}

func (m Model) tabs() string {
	names := []cache.Filter{cache.FilterAll, cache.FilterActive, cache.FilterCompleted}
	parts := make([]string, 0, len(names))
	for i, f := range names {
		label := fmt.Sprintf("%d %s", i+1, f)
		if f == m.filter {
			label = activeTab.Render(label)
		} else {
			label = mutedStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "   ")
}
