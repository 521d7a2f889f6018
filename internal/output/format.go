// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"lijstje/internal/gateway"
)

const (
	// EmptyList is shown when the task list has no entries.
	EmptyList = "Nog geen taken. Voeg er hierboven één toe!"

	// DateLayout renders dates the nl-NL way (dd-mm-jjjj).
	DateLayout = "02-01-2006"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}\n" (4-wide right-aligned number, two spaces, checkbox, title)
func FormatTask(w io.Writer, num int, task gateway.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, Checkbox(task.Completed), NormalizeTitle(task.Title))
}

// FormatTasks formats a numbered task list, or EmptyList if there are no tasks.
func FormatTasks(w io.Writer, tasks []gateway.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, EmptyList)
		return
	}
	for i, task := range tasks {
		FormatTask(w, i+1, task)
	}
}

// Checkbox renders the completion state.
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// Welcome returns the greeting for an identity.
func Welcome(ident gateway.Identity) string {
	name := strings.TrimSpace(ident.Name)
	if name == "" {
		name = ident.Email
	}
	return fmt.Sprintf("Welkom, %s!", name)
}

// FormatDate renders a date as dd-mm-jjjj in local time, or "onbekend" if unset.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "onbekend"
	}
	return t.Local().Format(DateLayout)
}

// AccountDetails returns the account detail lines.
func AccountDetails(ident gateway.Identity) []string {
	return []string{
		"Gebruikers-ID: " + ident.ID,
		"E-mail: " + ident.Email,
		"Account aangemaakt: " + FormatDate(ident.CreatedAt),
	}
}

// FormatWhoami formats the greeting followed by the account details.
func FormatWhoami(w io.Writer, ident gateway.Identity) {
	fmt.Fprintln(w, Welcome(ident))
	for _, line := range AccountDetails(ident) {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

// NormalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(zonder titel)"
// - Newlines are replaced with spaces
func NormalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(zonder titel)"
	}
	return title
}
