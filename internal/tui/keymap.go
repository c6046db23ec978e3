package tui

import "charm.land/bubbles/v2/key"

// keyMap represents key map data used by this package.
type keyMap struct {
	quit           key.Binding
	reload         key.Binding
	toggleHelp     key.Binding
	moveUp         key.Binding
	moveDown       key.Binding
	addTask        key.Binding
	openNote       key.Binding
	renameTask     key.Binding
	deleteTask     key.Binding
	hardDeleteTask key.Binding
	restoreTask    key.Binding
	toggleArchived key.Binding
	yankNote       key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveUp:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "task up")),
		moveDown:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "task down")),
		addTask:        key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new task")),
		openNote:       key.NewBinding(key.WithKeys("enter", "i"), key.WithHelp("enter", "open note")),
		renameTask:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename task")),
		deleteTask:     key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete (default)")),
		hardDeleteTask: key.NewBinding(key.WithKeys("D", "shift+d"), key.WithHelp("D", "hard delete")),
		restoreTask:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "restore task")),
		toggleArchived: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle archived")),
		yankNote:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yank note as markdown")),
	}
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addTask, k.openNote, k.renameTask, k.deleteTask, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addTask, k.openNote, k.renameTask, k.yankNote, k.toggleArchived, k.toggleHelp, k.reload, k.quit},
		{k.moveUp, k.moveDown},
		{k.deleteTask, k.hardDeleteTask, k.restoreTask},
	}
}
