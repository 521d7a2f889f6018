package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit        key.Binding
	Submit      key.Binding
	NextField   key.Binding
	PrevField   key.Binding
	SwitchForm  key.Binding
	Up          key.Binding
	Down        key.Binding
	ToggleTask  key.Binding
	DeleteTask  key.Binding
	FocusInput  key.Binding
	FocusList   key.Binding
	Details     key.Binding
	Logout      key.Binding
	Leave       key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "stoppen")),
		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "verzenden")),
		NextField:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "volgend veld")),
		PrevField:   key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "vorig veld")),
		SwitchForm:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "inloggen/account aanmaken")),
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "omhoog")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "omlaag")),
		ToggleTask:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("spatie", "afvinken")),
		DeleteTask:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "verwijderen")),
		FocusInput:  key.NewBinding(key.WithKeys("a", "tab"), key.WithHelp("a", "nieuwe taak")),
		FocusList:   key.NewBinding(key.WithKeys("tab", "esc"), key.WithHelp("tab", "naar lijst")),
		Details:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "accountgegevens")),
		Logout:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "uitloggen")),
		Leave:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "stoppen")),
	}
}

func helpLine(bindings ...key.Binding) string {
	var s string
	for i, b := range bindings {
		if i > 0 {
			s += " • "
		}
		h := b.Help()
		s += h.Key + ": " + h.Desc
	}
	return s
}
