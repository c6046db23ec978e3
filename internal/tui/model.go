package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"

	"github.com/hylla/anteck/internal/app"
	"github.com/hylla/anteck/internal/codec/markdown"
	"github.com/hylla/anteck/internal/domain"
	"github.com/hylla/anteck/internal/editor"
)

// Service represents the application operations the TUI drives.
type Service interface {
	ListTasks(context.Context, bool) ([]domain.Task, error)
	CreateTask(context.Context, string) (domain.Task, error)
	RenameTask(context.Context, string, string) (domain.Task, error)
	DeleteTask(context.Context, string, app.DeleteMode) error
	RestoreTask(context.Context, string) (domain.Task, error)
	OpenNote(context.Context, string) (*app.Session, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeList and related constants define package defaults.
const (
	modeList inputMode = iota
	modeAddTask
	modeRenameTask
	modeConfirmDelete
	modeNote
	modeEdit
)

type tasksLoadedMsg struct {
	tasks []domain.Task
	err   error
}

type noteOpenedMsg struct {
	task    domain.Task
	session *app.Session
	err     error
}

type noteYankedMsg struct {
	err error
}

// saveTickMsg fires when a debounced save comes due; seq lets a newer
// keystroke invalidate an older timer.
type saveTickMsg struct {
	seq int
}

// Model is the bubbletea model for the task list and note editor.
type Model struct {
	svc  Service
	keys keyMap
	help help.Model

	ready  bool
	width  int
	height int

	tasks           []domain.Task
	selected        int
	includeArchived bool
	status          string
	err             error

	mode       inputMode
	titleInput textinput.Model

	noteTask  domain.Task
	session   *app.Session
	engine    *editor.Engine
	boxCursor int
	editSeq   int

	renderCfg RenderConfig
	editorCfg EditorConfig
	renderer  *markdownRenderer

	defaultDeleteMode app.DeleteMode
	pendingDelete     app.DeleteMode
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	titleInput := textinput.New()
	titleInput.Prompt = "> "
	titleInput.Placeholder = "task title"
	titleInput.CharLimit = 200
	m := Model{
		svc:               svc,
		status:            "loading...",
		help:              h,
		keys:              newKeyMap(),
		titleInput:        titleInput,
		renderCfg:         DefaultRenderConfig(),
		editorCfg:         DefaultEditorConfig(),
		defaultDeleteMode: app.DeleteModeArchive,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.renderer = newMarkdownRenderer(m.renderCfg)
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadTasks
}

func (m Model) loadTasks() tea.Msg {
	tasks, err := m.svc.ListTasks(context.Background(), m.includeArchived)
	return tasksLoadedMsg{tasks: tasks, err: err}
}

func (m Model) openNote(task domain.Task) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.svc.OpenNote(context.Background(), task.ID)
		return noteOpenedMsg{task: task, session: sess, err: err}
	}
}

func (m Model) yankNote() tea.Cmd {
	if m.session == nil {
		return nil
	}
	text := markdown.Encode(m.session.Document())
	return func() tea.Msg {
		return noteYankedMsg{err: clipboard.WriteAll(text)}
	}
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tasksLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.tasks = msg.tasks
		m.selected = clamp(m.selected, 0, max(0, len(m.tasks)-1))
		m.status = "ready"
		return m, nil

	case noteOpenedMsg:
		if msg.err != nil {
			m.status = "open note failed: " + msg.err.Error()
			return m, nil
		}
		m.noteTask = msg.task
		m.session = msg.session
		m.engine = nil
		m.boxCursor = 0
		m.mode = modeNote
		if dropped := msg.session.Report().Dropped; dropped > 0 {
			m.status = fmt.Sprintf("note loaded, %d unrestorable element(s) dropped", dropped)
		} else {
			m.status = "note: " + msg.task.Title
		}
		return m, nil

	case noteYankedMsg:
		if msg.err != nil {
			m.status = "yank failed: " + msg.err.Error()
		} else {
			m.status = "note copied as markdown"
		}
		return m, nil

	case saveTickMsg:
		// Stale ticks from superseded keystrokes are dropped.
		if msg.seq != m.editSeq || m.session == nil {
			return m, nil
		}
		if err := m.session.Flush(); err != nil {
			m.status = "save failed: " + err.Error()
		}
		return m, nil

	case tea.KeyPressMsg:
		switch m.mode {
		case modeEdit:
			return m.handleEditKey(msg)
		case modeNote:
			return m.handleNoteKey(msg)
		case modeAddTask, modeRenameTask:
			return m.handleTitleInputKey(msg)
		case modeConfirmDelete:
			return m.handleConfirmKey(msg)
		default:
			return m.handleListKey(msg)
		}

	default:
		return m, nil
	}
}

func (m Model) handleListKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.reload):
		return m, m.loadTasks
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.selected = clamp(m.selected-1, 0, max(0, len(m.tasks)-1))
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		m.selected = clamp(m.selected+1, 0, max(0, len(m.tasks)-1))
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		m.mode = modeAddTask
		m.titleInput.SetValue("")
		m.titleInput.Focus()
		return m, nil
	case key.Matches(msg, m.keys.renameTask):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.mode = modeRenameTask
		m.titleInput.SetValue(task.Title)
		m.titleInput.Focus()
		return m, nil
	case key.Matches(msg, m.keys.openNote):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.openNote(task)
	case key.Matches(msg, m.keys.deleteTask):
		if _, ok := m.selectedTask(); !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDelete = m.defaultDeleteMode
		return m, nil
	case key.Matches(msg, m.keys.hardDeleteTask):
		if _, ok := m.selectedTask(); !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDelete = app.DeleteModeHard
		return m, nil
	case key.Matches(msg, m.keys.restoreTask):
		task, ok := m.selectedTask()
		if !ok || task.ArchivedAt == nil {
			return m, nil
		}
		if _, err := m.svc.RestoreTask(context.Background(), task.ID); err != nil {
			m.status = "restore failed: " + err.Error()
			return m, nil
		}
		return m, m.loadTasks
	case key.Matches(msg, m.keys.toggleArchived):
		m.includeArchived = !m.includeArchived
		return m, m.loadTasks
	default:
		return m, nil
	}
}

func (m Model) handleTitleInputKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Code == tea.KeyEscape || msg.String() == "esc":
		m.mode = modeList
		m.titleInput.Blur()
		return m, nil
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		title := strings.TrimSpace(m.titleInput.Value())
		mode := m.mode
		m.mode = modeList
		m.titleInput.Blur()
		if title == "" {
			return m, nil
		}
		if mode == modeAddTask {
			if _, err := m.svc.CreateTask(context.Background(), title); err != nil {
				m.status = "create failed: " + err.Error()
				return m, nil
			}
		} else if task, ok := m.selectedTask(); ok {
			if _, err := m.svc.RenameTask(context.Background(), task.ID, title); err != nil {
				m.status = "rename failed: " + err.Error()
				return m, nil
			}
		}
		return m, m.loadTasks
	default:
		var cmd tea.Cmd
		m.titleInput, cmd = m.titleInput.Update(msg)
		return m, cmd
	}
}

func (m Model) handleConfirmKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.mode = modeList
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		if err := m.svc.DeleteTask(context.Background(), task.ID, m.pendingDelete); err != nil {
			m.status = "delete failed: " + err.Error()
			return m, nil
		}
		return m, m.loadTasks
	default:
		m.mode = modeList
		m.status = "delete canceled"
		return m, nil
	}
}

func (m Model) handleNoteKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	boxes := m.checkboxes()
	switch {
	case msg.Code == tea.KeyEscape || msg.String() == "esc" || msg.String() == "q":
		m.session = nil
		m.engine = nil
		m.mode = modeList
		return m, m.loadTasks
	case msg.String() == "e":
		m.engine = editor.New(m.session.Document(),
			editor.WithEditNotifier(m.session.BeginEditing),
			editor.WithAutoList(m.editorCfg.AutoList),
			editor.WithIndentWidth(m.editorCfg.IndentWidth))
		m.engine.SetCaret(m.session.Document().Len())
		m.mode = modeEdit
		m.status = "editing (esc to stop)"
		return m, nil
	case key.Matches(msg, m.keys.yankNote):
		return m, m.yankNote()
	case msg.String() == "j" || msg.String() == "down":
		m.boxCursor = clamp(m.boxCursor+1, 0, max(0, len(boxes)-1))
		return m, nil
	case msg.String() == "k" || msg.String() == "up":
		m.boxCursor = clamp(m.boxCursor-1, 0, max(0, len(boxes)-1))
		return m, nil
	case msg.String() == " " || msg.String() == "space":
		if len(boxes) == 0 {
			return m, nil
		}
		box := boxes[clamp(m.boxCursor, 0, len(boxes)-1)]
		if err := m.session.Document().ToggleCheckbox(box.ID); err != nil {
			m.status = "toggle failed: " + err.Error()
			return m, nil
		}
		if err := m.session.SaveErr(); err != nil {
			m.status = "save failed: " + err.Error()
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) handleEditKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.session.EndEditing()
		m.mode = modeNote
		m.status = "note: " + m.noteTask.Title
		return m, nil
	case "ctrl+b":
		return m.applyFormat(m.engine.ToggleBold)
	case "ctrl+e":
		return m.applyFormat(m.engine.ToggleItalic)
	case "ctrl+u":
		return m.applyFormat(m.engine.ToggleUnderline)
	case "ctrl+x":
		return m.applyFormat(m.engine.ToggleStrikethrough)
	}

	ev, ok := editorKeyEvent(msg)
	if !ok {
		return m, nil
	}
	handled, err := m.engine.HandleKey(ev)
	if err != nil {
		m.status = "edit failed: " + err.Error()
		return m, nil
	}
	if handled {
		if err := m.session.SaveErr(); err != nil {
			m.status = "save failed: " + err.Error()
		}
		return m, m.scheduleSave()
	}
	return m, nil
}

// scheduleSave arms the debounced flush for the latest keystroke. With no
// debounce configured the session already saved synchronously.
func (m *Model) scheduleSave() tea.Cmd {
	if m.editorCfg.SaveDebounce <= 0 || m.session == nil || !m.session.Dirty() {
		return nil
	}
	m.editSeq++
	seq := m.editSeq
	return tea.Tick(m.editorCfg.SaveDebounce, func(time.Time) tea.Msg {
		return saveTickMsg{seq: seq}
	})
}

func (m Model) applyFormat(toggle func() error) (tea.Model, tea.Cmd) {
	if err := toggle(); err != nil {
		m.status = "format failed: " + err.Error()
		return m, nil
	}
	return m, m.scheduleSave()
}

// editorKeyEvent translates a terminal key press into an editing-engine
// event. Key presses that carry no editing meaning report ok=false.
func editorKeyEvent(msg tea.KeyPressMsg) (editor.KeyEvent, bool) {
	switch msg.String() {
	case "enter":
		return editor.KeyEvent{Key: editor.KeyEnter}, true
	case "backspace":
		return editor.KeyEvent{Key: editor.KeyBackspace}, true
	case "tab":
		return editor.KeyEvent{Key: editor.KeyTab}, true
	case "shift+tab", "backtab":
		return editor.KeyEvent{Key: editor.KeyShiftTab}, true
	case "space", " ":
		return editor.KeyEvent{Key: editor.KeySpace}, true
	}
	if msg.Mod&(tea.ModCtrl|tea.ModAlt) != 0 {
		return editor.KeyEvent{}, false
	}
	runes := []rune(msg.Text)
	if len(runes) != 1 {
		return editor.KeyEvent{}, false
	}
	return editor.KeyEvent{Key: editor.KeyRune, Rune: runes[0]}, true
}

func (m Model) selectedTask() (domain.Task, bool) {
	if len(m.tasks) == 0 {
		return domain.Task{}, false
	}
	return m.tasks[clamp(m.selected, 0, len(m.tasks)-1)], true
}

func (m Model) checkboxes() []domain.CheckboxInfo {
	if m.session == nil {
		return nil
	}
	var out []domain.CheckboxInfo
	for info := range m.session.Document().Checkboxes() {
		out = append(out, info)
	}
	return out
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	var content string
	switch m.mode {
	case modeNote, modeEdit:
		content = m.noteView()
	default:
		content = m.listView()
	}

	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	statusStyle := lipgloss.NewStyle().Foreground(dim)
	full := content + "\n" + statusStyle.Render(m.status) + "\n" + helpLine
	v := tea.NewView(full)
	v.AltScreen = true
	return v
}

func (m Model) listView() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	archivedStyle := lipgloss.NewStyle().Faint(true).Strikethrough(true)
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	lines := []string{titleStyle.Render("anteck"), ""}
	if len(m.tasks) == 0 {
		lines = append(lines, "No tasks yet.", "Press n to create your first task.")
	}
	for i, task := range m.tasks {
		cursor := "  "
		if i == m.selected {
			cursor = cursorStyle.Render("> ")
		}
		label := task.Title
		if task.ArchivedAt != nil {
			label = archivedStyle.Render(label)
		}
		lines = append(lines, cursor+label)
	}
	switch m.mode {
	case modeAddTask:
		lines = append(lines, "", "new task "+m.titleInput.View())
	case modeRenameTask:
		lines = append(lines, "", "rename "+m.titleInput.View())
	case modeConfirmDelete:
		verb := "archive"
		if m.pendingDelete == app.DeleteModeHard {
			verb = "permanently delete"
		}
		if task, ok := m.selectedTask(); ok {
			lines = append(lines, "", fmt.Sprintf("%s %q? y/n", verb, task.Title))
		}
	}
	return strings.Join(lines, "\n")
}

func (m Model) noteView() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	cursorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	doc := m.session.Document()
	lines := []string{titleStyle.Render(m.noteTask.Title), ""}

	if m.mode == modeEdit {
		lines = append(lines, m.editBuffer(doc))
	} else {
		wrap := m.renderCfg.WordWrap
		if m.width > 0 && (wrap == 0 || wrap > m.width-2) {
			wrap = m.width - 2
		}
		if rendered := m.renderer.render(markdown.Encode(doc), wrap); rendered != "" {
			lines = append(lines, rendered)
		}
		boxes := m.checkboxes()
		if len(boxes) > 0 {
			done, total := doc.Progress()
			lines = append(lines, "", fmt.Sprintf("checklist %d/%d", done, total))
			for i, box := range boxes {
				cursor := "  "
				if i == m.boxCursor {
					cursor = cursorStyle.Render("> ")
				}
				mark := "[ ]"
				if box.Checked {
					mark = "[x]"
				}
				lines = append(lines, fmt.Sprintf("%s%s %s", cursor, mark, box.Label))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// editBuffer shows the raw document text with a caret marker while editing.
func (m Model) editBuffer(doc *domain.Document) string {
	runes := []rune(doc.String())
	caret := clamp(m.engine.Caret(), 0, len(runes))
	var b strings.Builder
	b.WriteString(string(runes[:caret]))
	b.WriteString(lipgloss.NewStyle().Reverse(true).Render(" "))
	b.WriteString(string(runes[caret:]))
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
