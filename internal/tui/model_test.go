package tui

import (
	"context"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/hylla/anteck/internal/app"
	"github.com/hylla/anteck/internal/domain"
	"github.com/hylla/anteck/internal/editor"
)

type memRepo struct {
	tasks     map[string]domain.Task
	noteSaves int
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: map[string]domain.Task{}}
}

func (f *memRepo) CreateTask(_ context.Context, t domain.Task) error {
	f.tasks[t.ID] = t
	return nil
}

func (f *memRepo) UpdateTask(_ context.Context, t domain.Task) error {
	if _, ok := f.tasks[t.ID]; !ok {
		return app.ErrNotFound
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *memRepo) GetTask(_ context.Context, id string) (domain.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return domain.Task{}, app.ErrNotFound
	}
	return t, nil
}

func (f *memRepo) ListTasks(_ context.Context, includeArchived bool) ([]domain.Task, error) {
	out := []domain.Task{}
	for _, t := range f.tasks {
		if !includeArchived && t.ArchivedAt != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *memRepo) DeleteTask(_ context.Context, id string) error {
	delete(f.tasks, id)
	return nil
}

func (f *memRepo) SaveNote(_ context.Context, id string, archive []byte, updatedAt time.Time) error {
	t, ok := f.tasks[id]
	if !ok {
		return app.ErrNotFound
	}
	t.SetNoteArchive(archive, updatedAt)
	f.tasks[id] = t
	f.noteSaves++
	return nil
}

func newTestModel(t *testing.T) (Model, *app.Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	svc := app.NewService(repo, nil, nil, app.ServiceConfig{})
	m := NewModel(svc)
	m.ready = true
	m.width = 80
	m.height = 24
	return m, svc, repo
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T", next)
	}
	return model
}

func TestEditorKeyEventTranslation(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyPressMsg
		want editor.KeyEvent
		ok   bool
	}{
		{"enter", tea.KeyPressMsg{Code: tea.KeyEnter}, editor.KeyEvent{Key: editor.KeyEnter}, true},
		{"backspace", tea.KeyPressMsg{Code: tea.KeyBackspace}, editor.KeyEvent{Key: editor.KeyBackspace}, true},
		{"tab", tea.KeyPressMsg{Code: tea.KeyTab}, editor.KeyEvent{Key: editor.KeyTab}, true},
		{"shift tab", tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift}, editor.KeyEvent{Key: editor.KeyShiftTab}, true},
		{"space", tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}, editor.KeyEvent{Key: editor.KeySpace}, true},
		{"rune", tea.KeyPressMsg{Code: 'a', Text: "a"}, editor.KeyEvent{Key: editor.KeyRune, Rune: 'a'}, true},
		{"unicode rune", tea.KeyPressMsg{Code: 'ä', Text: "ä"}, editor.KeyEvent{Key: editor.KeyRune, Rune: 'ä'}, true},
		{"ctrl combo ignored", tea.KeyPressMsg{Code: 'k', Text: "k", Mod: tea.ModCtrl}, editor.KeyEvent{}, false},
		{"function key ignored", tea.KeyPressMsg{Code: tea.KeyF1}, editor.KeyEvent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := editorKeyEvent(tt.msg)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Fatalf("event = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTasksLoadedPopulatesList(t *testing.T) {
	m, svc, _ := newTestModel(t)
	ctx := context.Background()
	if _, err := svc.CreateTask(ctx, "alpha"); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	tasks, err := svc.ListTasks(ctx, false)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	m = update(t, m, tasksLoadedMsg{tasks: tasks})
	if len(m.tasks) != 1 || m.tasks[0].Title != "alpha" {
		t.Fatalf("tasks = %+v", m.tasks)
	}
	if m.status != "ready" {
		t.Fatalf("status = %q", m.status)
	}
}

func TestNoteOpenedEntersNoteMode(t *testing.T) {
	m, svc, _ := newTestModel(t)
	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, "with note")
	sess, err := svc.OpenNote(ctx, task.ID)
	if err != nil {
		t.Fatalf("OpenNote() error = %v", err)
	}

	m = update(t, m, noteOpenedMsg{task: task, session: sess})
	if m.mode != modeNote {
		t.Fatalf("mode = %d, want modeNote", m.mode)
	}
	if m.session == nil {
		t.Fatal("session not stored")
	}
}

func TestSpaceTogglesSelectedCheckbox(t *testing.T) {
	m, svc, repo := newTestModel(t)
	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, "checklist")
	sess, err := svc.OpenNote(ctx, task.ID)
	if err != nil {
		t.Fatalf("OpenNote() error = %v", err)
	}
	doc := sess.Document()
	if err := doc.Insert(0, domain.NewCheckbox(false, "first")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := doc.Insert(1, domain.NewCheckbox(false, "second")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	m = update(t, m, noteOpenedMsg{task: task, session: sess})
	m = update(t, m, tea.KeyPressMsg{Code: 'j', Text: "j"})
	m = update(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})

	boxes := m.checkboxes()
	if boxes[0].Checked || !boxes[1].Checked {
		t.Fatalf("boxes = %+v, want second toggled", boxes)
	}

	// The toggle must have been persisted through the session.
	stored, _ := repo.GetTask(ctx, task.ID)
	if len(stored.NoteArchive) == 0 {
		t.Fatal("toggle not persisted")
	}
}

func TestEditModeRoutesKeysToEngine(t *testing.T) {
	m, svc, _ := newTestModel(t)
	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, "typing")
	sess, err := svc.OpenNote(ctx, task.ID)
	if err != nil {
		t.Fatalf("OpenNote() error = %v", err)
	}

	m = update(t, m, noteOpenedMsg{task: task, session: sess})
	m = update(t, m, tea.KeyPressMsg{Code: 'e', Text: "e"})
	if m.mode != modeEdit {
		t.Fatalf("mode = %d, want modeEdit", m.mode)
	}

	for _, r := range "hi" {
		m = update(t, m, tea.KeyPressMsg{Code: r, Text: string(r)})
	}
	if got := m.session.Document().String(); got != "hi" {
		t.Fatalf("document = %q", got)
	}
	if !m.session.Editing() {
		t.Fatal("edit session not opened by first keystroke")
	}

	m = update(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNote {
		t.Fatalf("mode = %d, want modeNote after esc", m.mode)
	}
	if m.session.Editing() {
		t.Fatal("edit session not closed on esc")
	}
}

func TestConfirmDeleteArchivesTask(t *testing.T) {
	m, svc, repo := newTestModel(t)
	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, "doomed")
	tasks, _ := svc.ListTasks(ctx, false)
	m = update(t, m, tasksLoadedMsg{tasks: tasks})

	m = update(t, m, tea.KeyPressMsg{Code: 'd', Text: "d"})
	if m.mode != modeConfirmDelete {
		t.Fatalf("mode = %d, want modeConfirmDelete", m.mode)
	}
	m = update(t, m, tea.KeyPressMsg{Code: 'y', Text: "y"})

	stored, err := repo.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if stored.ArchivedAt == nil {
		t.Fatal("task not archived by default delete")
	}
}

func TestViewSmoke(t *testing.T) {
	m, svc, _ := newTestModel(t)
	ctx := context.Background()
	if _, err := svc.CreateTask(ctx, "visible"); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	tasks, _ := svc.ListTasks(ctx, false)
	m = update(t, m, tasksLoadedMsg{tasks: tasks})

	view := m.View()
	if view.AltScreen != true {
		t.Fatal("expected altscreen view")
	}
}

func TestEditKeystrokeFlushesAfterDebounce(t *testing.T) {
	repo := newMemRepo()
	debounce := 5 * time.Millisecond
	svc := app.NewService(repo, nil, nil, app.ServiceConfig{SaveDebounce: debounce})
	m := NewModel(svc, WithEditorConfig(EditorConfig{
		AutoList:     true,
		IndentWidth:  2,
		SaveDebounce: debounce,
	}))
	m.ready = true
	m.width = 80
	m.height = 24

	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, "debounced")
	sess, err := svc.OpenNote(ctx, task.ID)
	if err != nil {
		t.Fatalf("OpenNote() error = %v", err)
	}
	m = update(t, m, noteOpenedMsg{task: task, session: sess})
	m = update(t, m, tea.KeyPressMsg{Code: 'e', Text: "e"})

	next, cmd := m.Update(tea.KeyPressMsg{Code: 'h', Text: "h"})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected a scheduled save command after a keystroke")
	}
	if repo.noteSaves != 0 {
		t.Fatalf("keystroke saved immediately, got %d saves", repo.noteSaves)
	}
	if !m.session.Dirty() {
		t.Fatal("expected session dirty before the debounce fires")
	}

	// The tick command sleeps for the debounce, then its message triggers
	// the flush.
	m = update(t, m, cmd())
	if repo.noteSaves != 1 {
		t.Fatalf("expected 1 save after debounce tick, got %d", repo.noteSaves)
	}
	if m.session.Dirty() {
		t.Fatal("expected session clean after flush")
	}
}

func TestStaleSaveTickIsIgnored(t *testing.T) {
	repo := newMemRepo()
	debounce := 5 * time.Millisecond
	svc := app.NewService(repo, nil, nil, app.ServiceConfig{SaveDebounce: debounce})
	m := NewModel(svc, WithEditorConfig(EditorConfig{
		AutoList:     true,
		IndentWidth:  2,
		SaveDebounce: debounce,
	}))
	m.ready = true
	m.width = 80
	m.height = 24

	ctx := context.Background()
	task, _ := svc.CreateTask(ctx, "two keystrokes")
	sess, err := svc.OpenNote(ctx, task.ID)
	if err != nil {
		t.Fatalf("OpenNote() error = %v", err)
	}
	m = update(t, m, noteOpenedMsg{task: task, session: sess})
	m = update(t, m, tea.KeyPressMsg{Code: 'e', Text: "e"})

	next, first := m.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	m = next.(Model)
	next, second := m.Update(tea.KeyPressMsg{Code: 'b', Text: "b"})
	m = next.(Model)
	if first == nil || second == nil {
		t.Fatal("expected save commands for both keystrokes")
	}

	m = update(t, m, saveTickMsg{seq: m.editSeq - 1})
	if repo.noteSaves != 0 {
		t.Fatalf("stale tick must not flush, got %d saves", repo.noteSaves)
	}

	m = update(t, m, second())
	if repo.noteSaves != 1 {
		t.Fatalf("expected 1 save from the latest tick, got %d", repo.noteSaves)
	}
}
