package domain

import (
	"testing"
	"time"
)

func TestNewTaskValidation(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	task, err := NewTask(TaskInput{ID: "t1", Title: "  buy milk  ", Position: 2}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.Title != "buy milk" {
		t.Fatalf("expected trimmed title, got %q", task.Title)
	}
	if !task.CreatedAt.Equal(now) || !task.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps %v, got %v / %v", now, task.CreatedAt, task.UpdatedAt)
	}

	if _, err := NewTask(TaskInput{Title: "ok"}, now); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewTask(TaskInput{ID: "t1", Title: "   "}, now); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	if _, err := NewTask(TaskInput{ID: "t1", Title: "ok", Position: -1}, now); err != ErrInvalidPosition {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestTaskRename(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{ID: "t1", Title: "old"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}

	later := now.Add(time.Hour)
	if err := task.Rename(" new ", later); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if task.Title != "new" {
		t.Fatalf("expected renamed title, got %q", task.Title)
	}
	if !task.UpdatedAt.Equal(later) {
		t.Fatalf("expected UpdatedAt %v, got %v", later, task.UpdatedAt)
	}
	if err := task.Rename("   ", later); err != ErrInvalidTitle {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestTaskSetNoteArchiveClearsLegacyText(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{ID: "t1", Title: "note holder", NoteLegacy: "- [ ] old markdown"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}

	task.SetNoteArchive([]byte{0x41, 0x4e, 0x54, 0x31}, now.Add(time.Minute))
	if task.NoteLegacy != "" {
		t.Fatalf("expected legacy text cleared, got %q", task.NoteLegacy)
	}
	if len(task.NoteArchive) != 4 {
		t.Fatalf("expected archive blob kept, got %v", task.NoteArchive)
	}
}

func TestTaskArchiveAndRestore(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := NewTask(TaskInput{ID: "t1", Title: "done soon"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}

	task.Archive(now.Add(time.Hour))
	if task.ArchivedAt == nil {
		t.Fatal("expected ArchivedAt set")
	}
	task.Restore(now.Add(2 * time.Hour))
	if task.ArchivedAt != nil {
		t.Fatalf("expected ArchivedAt cleared, got %v", task.ArchivedAt)
	}
}
