package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type keyMap struct {
	Submit     key.Binding
	Confirm    key.Binding
	Edit       key.Binding
	Save       key.Binding
	Cancel     key.Binding
	Scripts    key.Binding
	StartOver  key.Binding
	NewProject key.Binding
	Focus      key.Binding
	Up         key.Binding
	Down       key.Binding
	NextField  key.Binding
	PrevField  key.Binding
	Copy       key.Binding
	SignOut    key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Confirm:    key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "confirm")),
		Edit:       key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "edit")),
		Save:       key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Scripts:    key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "create scripts")),
		StartOver:  key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "start over")),
		NewProject: key.NewBinding(key.WithKeys("ctrl+n"), key.WithHelp("ctrl+n", "new project")),
		Focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "projects")),
		Up:         key.NewBinding(key.WithKeys("up", "k")),
		Down:       key.NewBinding(key.WithKeys("down", "j")),
		NextField:  key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		PrevField:  key.NewBinding(key.WithKeys("shift+tab", "up")),
		Copy:       key.NewBinding(key.WithKeys("ctrl+k"), key.WithHelp("ctrl+k", "copy scripts")),
		SignOut:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "sign out")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return helpStyle.Render(strings.Join(parts, " · "))
}
