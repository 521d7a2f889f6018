package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"lijstje/internal/app"
	"lijstje/internal/forms"
	"lijstje/internal/gateway"
	"lijstje/internal/notify"
	"lijstje/internal/session"
)

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenSignup
	screenHome
)

// Form fields in tab order. Login skips fieldName.
const (
	fieldName = iota
	fieldEmail
	fieldPassword
	fieldCount
)

type resolvedMsg struct{ snap session.Snapshot }

type authDoneMsg struct{ err error }

type createdMsg struct{ err error }

type taskDoneMsg struct{ err error }

type loggedOutMsg struct{ snap session.Snapshot }

type model struct {
	ctx    context.Context
	app    *app.App
	toasts *toastSink
	keys   keyMap

	screen  screen
	spinner spinner.Model
	width   int

	fields     [fieldCount]textinput.Model
	focus      int
	submitting bool
	formErr    string

	input       textinput.Model
	inputFocus  bool
	creating    bool
	cursor      int
	showDetails bool

	toast    notify.Notification
	toastSeq int
}

func newModel(ctx context.Context, a *app.App, toasts *toastSink) model {
	m := model{
		ctx:     ctx,
		app:     a,
		toasts:  toasts,
		keys:    defaultKeys(),
		screen:  screenLoading,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}

	placeholders := [fieldCount]string{"Naam", "E-mail", "Wachtwoord"}
	for i := range m.fields {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 128
		m.fields[i] = in
	}
	m.fields[fieldPassword].EchoMode = textinput.EchoPassword
	m.fields[fieldPassword].EchoCharacter = '•'

	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.Placeholder = "Nieuwe taak"
	m.input.CharLimit = 256
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m model) start() tea.Cmd {
	return func() tea.Msg {
		return resolvedMsg{snap: m.app.Start(m.ctx)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.screen != screenLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resolvedMsg:
		return m.enter(msg.snap)

	case authDoneMsg:
		m.submitting = false
		m.pullToast()
		var verr *forms.ValidationError
		if errors.As(msg.err, &verr) {
			m.formErr = validationText(verr)
			return m, nil
		}
		return m.enter(m.app.Snapshot())

	case createdMsg:
		m.creating = false
		m.pullToast()
		if msg.err == nil {
			m.input.Reset()
			m.cursor = 0
		}
		return m, nil

	case taskDoneMsg:
		m.pullToast()
		m.clampCursor()
		return m, nil

	case loggedOutMsg:
		m.pullToast()
		return m.enter(msg.snap)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin, screenSignup:
			return m.updateForm(msg)
		case screenHome:
			return m.updateHome(msg)
		}
	}
	return m, nil
}

// enter switches to the view matching the session state.
func (m model) enter(snap session.Snapshot) (tea.Model, tea.Cmd) {
	switch snap.State {
	case session.Authenticated:
		if m.screen != screenHome {
			m.screen = screenHome
			m.cursor = 0
			m.showDetails = false
			m.resetForm()
			m.inputFocus = true
			return m, m.input.Focus()
		}
	case session.Unauthenticated:
		if m.screen == screenLoading || m.screen == screenHome {
			m.screen = screenLogin
			m.input.Reset()
			m.input.Blur()
			m.resetForm()
			return m, m.focusField(fieldEmail)
		}
	}
	return m, nil
}

func (m *model) pullToast() {
	n, seq := m.toasts.Last()
	if seq != m.toastSeq {
		m.toast, m.toastSeq = n, seq
	}
}

func (m *model) resetForm() {
	for i := range m.fields {
		m.fields[i].Reset()
		m.fields[i].Blur()
	}
	m.formErr = ""
	m.submitting = false
}

func (m *model) focusField(i int) tea.Cmd {
	for j := range m.fields {
		m.fields[j].Blur()
	}
	m.focus = i
	return m.fields[i].Focus()
}

func (m model) firstField() int {
	if m.screen == screenSignup {
		return fieldName
	}
	return fieldEmail
}

func (m model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchForm):
		if m.submitting {
			return m, nil
		}
		if m.screen == screenLogin {
			m.screen = screenSignup
		} else {
			m.screen = screenLogin
		}
		m.resetForm()
		return m, m.focusField(m.firstField())

	case key.Matches(msg, m.keys.NextField):
		next := m.focus + 1
		if next == fieldCount {
			next = m.firstField()
		}
		return m, m.focusField(next)

	case key.Matches(msg, m.keys.PrevField):
		prev := m.focus - 1
		if prev < m.firstField() {
			prev = fieldPassword
		}
		return m, m.focusField(prev)

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m model) submit() (tea.Model, tea.Cmd) {
	var f forms.Form = m.app.Login
	if m.screen == screenSignup {
		f = m.app.Signup
	}
	if m.submitting || f.Submitting() {
		return m, nil
	}
	creds := forms.Credentials{
		Name:     m.fields[fieldName].Value(),
		Email:    strings.TrimSpace(m.fields[fieldEmail].Value()),
		Password: m.fields[fieldPassword].Value(),
	}
	if err := f.Validate(creds); err != nil {
		var verr *forms.ValidationError
		if errors.As(err, &verr) {
			m.formErr = validationText(verr)
		}
		return m, nil
	}

	m.submitting = true
	m.formErr = ""
	ctx := m.ctx
	return m, func() tea.Msg {
		return authDoneMsg{err: f.Submit(ctx, creds)}
	}
}

func (m model) updateHome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputFocus {
		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.create()
		case key.Matches(msg, m.keys.FocusList):
			m.inputFocus = false
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Leave):
		return m, tea.Quit
	case key.Matches(msg, m.keys.FocusInput):
		m.inputFocus = true
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, m.keys.Details):
		m.showDetails = !m.showDetails
	case key.Matches(msg, m.keys.ToggleTask):
		return m, m.toggle()
	case key.Matches(msg, m.keys.DeleteTask):
		return m, m.remove()
	case key.Matches(msg, m.keys.Logout):
		ctx := m.ctx
		return m, func() tea.Msg {
			return loggedOutMsg{snap: m.app.Logout(ctx)}
		}
	}
	return m, nil
}

// canAdd reports whether the add control is enabled.
func (m model) canAdd() bool {
	return !m.creating && strings.TrimSpace(m.input.Value()) != ""
}

func (m model) create() (tea.Model, tea.Cmd) {
	tasks := m.app.Tasks()
	if tasks == nil || !m.canAdd() {
		return m, nil
	}
	m.creating = true
	title, ctx := m.input.Value(), m.ctx
	return m, func() tea.Msg {
		_, err := tasks.Create(ctx, title)
		return createdMsg{err: err}
	}
}

func (m model) selected() (gateway.Task, bool) {
	tasks := m.app.Tasks()
	if tasks == nil {
		return gateway.Task{}, false
	}
	list := tasks.Tasks()
	if m.cursor < 0 || m.cursor >= len(list) {
		return gateway.Task{}, false
	}
	return list[m.cursor], true
}

func (m model) toggle() tea.Cmd {
	task, ok := m.selected()
	if !ok {
		return nil
	}
	tasks, ctx := m.app.Tasks(), m.ctx
	return func() tea.Msg {
		return taskDoneMsg{err: tasks.Toggle(ctx, task.ID, !task.Completed)}
	}
}

func (m model) remove() tea.Cmd {
	task, ok := m.selected()
	if !ok {
		return nil
	}
	tasks, ctx := m.app.Tasks(), m.ctx
	return func() tea.Msg {
		return taskDoneMsg{err: tasks.Delete(ctx, task.ID)}
	}
}

func (m *model) clampCursor() {
	n := 0
	if tasks := m.app.Tasks(); tasks != nil {
		n = tasks.Len()
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func validationText(verr *forms.ValidationError) string {
	label := map[string]string{
		"name":     "Naam",
		"email":    "E-mail",
		"password": "Wachtwoord",
	}[verr.Field]
	if label == "" {
		label = verr.Field
	}
	if verr.Reason == "required" {
		return label + " is verplicht"
	}
	if verr.Field == "password" {
		return fmt.Sprintf("Wachtwoord moet minstens %d tekens bevatten", forms.MinPasswordLength)
	}
	return label + ": " + verr.Reason
}
