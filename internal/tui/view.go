package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lijstje/internal/notify"
	"lijstje/internal/output"
)

const appTitle = "Snel Lijstje Maken"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle    = lipgloss.NewStyle().Width(12)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	buttonStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Padding(0, 1)
	disabledStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	detailsStyle  = lipgloss.NewStyle().PaddingLeft(2).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true)
)

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(appTitle))
	b.WriteString("\n\n")

	switch m.screen {
	case screenLoading:
		b.WriteString(m.spinner.View() + " Laden...\n")
	case screenLogin, screenSignup:
		m.viewForm(&b)
	case screenHome:
		m.viewHome(&b)
	}

	if m.toastSeq > 0 {
		b.WriteString("\n" + renderToast(m.toast) + "\n")
	}
	return b.String()
}

func renderToast(n notify.Notification) string {
	if n.Kind == notify.Failure {
		return errorStyle.Render("✗ " + n.Message)
	}
	return successStyle.Render("✓ " + n.Message)
}

func (m model) viewForm(b *strings.Builder) {
	heading, action, other := "Inloggen", "Inloggen", "Nog geen account? ctrl+t: account aanmaken"
	if m.screen == screenSignup {
		heading, action, other = "Account aanmaken", "Account aanmaken", "Al een account? ctrl+t: inloggen"
	}
	b.WriteString(headingStyle.Render(heading) + "\n\n")

	labels := [fieldCount]string{"Naam", "E-mail", "Wachtwoord"}
	for i := m.firstField(); i < fieldCount; i++ {
		b.WriteString(labelStyle.Render(labels[i]) + m.fields[i].View() + "\n")
	}
	b.WriteString("\n")

	if m.submitting {
		b.WriteString(disabledStyle.Render(action+"...") + "\n")
	} else {
		b.WriteString(buttonStyle.Render(action) + "\n")
	}
	if m.formErr != "" {
		b.WriteString(errorStyle.Render(m.formErr) + "\n")
	}
	b.WriteString("\n" + faintStyle.Render(other) + "\n")
	b.WriteString(faintStyle.Render(helpLine(m.keys.Submit, m.keys.NextField, m.keys.Quit)) + "\n")
}

func (m model) viewHome(b *strings.Builder) {
	snap := m.app.Snapshot()
	b.WriteString(headingStyle.Render(output.Welcome(snap.Identity)) + "\n")
	if m.showDetails {
		b.WriteString(detailsStyle.Render(strings.Join(output.AccountDetails(snap.Identity), "\n")) + "\n")
	}
	b.WriteString("\n")

	add := disabledStyle.Render("Toevoegen")
	if m.canAdd() {
		add = buttonStyle.Render("Toevoegen")
	}
	b.WriteString(m.input.View() + "  " + add + "\n\n")

	tasks := m.app.Tasks()
	switch {
	case tasks == nil || !tasks.Loaded():
		b.WriteString(faintStyle.Render("Taken laden...") + "\n")
	case tasks.Len() == 0:
		b.WriteString(faintStyle.Render(output.EmptyList) + "\n")
	default:
		for i, task := range tasks.Tasks() {
			prefix := "  "
			if !m.inputFocus && i == m.cursor {
				prefix = cursorStyle.Render("> ")
			}
			title := output.NormalizeTitle(task.Title)
			if task.Completed {
				title = doneStyle.Render(title)
			}
			b.WriteString(prefix + output.Checkbox(task.Completed) + " " + title + "\n")
		}
	}

	b.WriteString("\n")
	if m.inputFocus {
		b.WriteString(faintStyle.Render(helpLine(m.keys.Submit, m.keys.FocusList, m.keys.Quit)) + "\n")
		return
	}
	b.WriteString(faintStyle.Render(helpLine(m.keys.ToggleTask, m.keys.DeleteTask, m.keys.FocusInput,
		m.keys.Details, m.keys.Logout, m.keys.Leave)) + "\n")
}
