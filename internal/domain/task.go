package domain

import (
	"strings"
	"time"
)

// Task is the persisted record that owns a rich-text note. The note is
// stored as an archive blob; NoteLegacy carries the pre-archive plain or
// markdown text and is read for backward migration only, never written back.
type Task struct {
	ID          string
	Title       string
	Position    int
	NoteArchive []byte
	NoteLegacy  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ArchivedAt  *time.Time
}

// TaskInput carries the fields accepted when creating a task.
type TaskInput struct {
	ID         string
	Title      string
	Position   int
	NoteLegacy string
}

// NewTask validates input and constructs a task.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)

	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	if in.Position < 0 {
		return Task{}, ErrInvalidPosition
	}

	return Task{
		ID:         in.ID,
		Title:      in.Title,
		Position:   in.Position,
		NoteLegacy: in.NoteLegacy,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}, nil
}

// Rename updates the title.
func (t *Task) Rename(title string, now time.Time) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	t.Title = title
	t.UpdatedAt = now.UTC()
	return nil
}

// SetNoteArchive replaces the persisted note blob. The legacy text field is
// cleared; once a task is on the archive path it stays there.
func (t *Task) SetNoteArchive(archive []byte, now time.Time) {
	t.NoteArchive = archive
	t.NoteLegacy = ""
	t.UpdatedAt = now.UTC()
}

// Archive marks the task archived.
func (t *Task) Archive(now time.Time) {
	ts := now.UTC()
	t.ArchivedAt = &ts
	t.UpdatedAt = ts
}

// Restore clears the archived marker.
func (t *Task) Restore(now time.Time) {
	t.ArchivedAt = nil
	t.UpdatedAt = now.UTC()
}
