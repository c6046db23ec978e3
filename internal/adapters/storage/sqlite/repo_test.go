package sqlite

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hylla/anteck/internal/app"
	"github.com/hylla/anteck/internal/domain"
	_ "modernc.org/sqlite"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "anteck.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func TestRepository_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(domain.TaskInput{
		ID:         "t1",
		Title:      "Task title",
		Position:   0,
		NoteLegacy: "old **markdown** note",
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	loaded, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if loaded.Title != "Task title" {
		t.Fatalf("unexpected title %q", loaded.Title)
	}
	if loaded.NoteLegacy != "old **markdown** note" {
		t.Fatalf("unexpected legacy note %q", loaded.NoteLegacy)
	}
	if loaded.NoteArchive != nil {
		t.Fatalf("unexpected archive blob %v", loaded.NoteArchive)
	}
	if !loaded.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", loaded.CreatedAt, now)
	}

	if err := loaded.Rename("Renamed", now.Add(time.Minute)); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if err := repo.UpdateTask(ctx, loaded); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	renamed, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if renamed.Title != "Renamed" {
		t.Fatalf("unexpected title %q", renamed.Title)
	}

	if err := repo.DeleteTask(ctx, "t1"); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := repo.GetTask(ctx, "t1"); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("GetTask() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_SaveNoteClearsLegacyText(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(domain.TaskInput{
		ID:         "t1",
		Title:      "Migrating",
		NoteLegacy: "- [ ] legacy item",
	}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	blob := []byte{0x41, 0x4e, 0x54, 0x31, 0x01, 0x00}
	if err := repo.SaveNote(ctx, "t1", blob, now.Add(time.Minute)); err != nil {
		t.Fatalf("SaveNote() error = %v", err)
	}

	loaded, err := repo.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if !bytes.Equal(loaded.NoteArchive, blob) {
		t.Fatalf("archive = %v, want %v", loaded.NoteArchive, blob)
	}
	if loaded.NoteLegacy != "" {
		t.Fatalf("legacy note not cleared: %q", loaded.NoteLegacy)
	}
	if !loaded.UpdatedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("updated_at = %v", loaded.UpdatedAt)
	}
}

func TestRepository_SaveNoteUnknownTask(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.SaveNote(context.Background(), "missing", []byte{0x01}, time.Now())
	if !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("SaveNote() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_ListTasksOrderAndArchiveFilter(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"third", "first", "second"} {
		position := map[string]int{"first": 0, "second": 1, "third": 2}[title]
		task, err := domain.NewTask(domain.TaskInput{
			ID:       title,
			Title:    title,
			Position: position,
		}, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		if err := repo.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
	}

	tasks, err := repo.ListTasks(ctx, false)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	for i, want := range []string{"first", "second", "third"} {
		if tasks[i].Title != want {
			t.Fatalf("tasks[%d] = %q, want %q", i, tasks[i].Title, want)
		}
	}

	archived := tasks[1]
	archived.Archive(now.Add(time.Hour))
	if err := repo.UpdateTask(ctx, archived); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}

	visible, err := repo.ListTasks(ctx, false)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 visible tasks, got %d", len(visible))
	}
	all, err := repo.ListTasks(ctx, true)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks including archived, got %d", len(all))
	}
}

func TestRepository_MigrateIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "anteck.db")
	repo, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	_ = reopened.Close()
}
