package app

import (
	"context"
	"time"

	"github.com/hylla/anteck/internal/domain"
)

// Repository is the persistence port for tasks and their notes.
type Repository interface {
	CreateTask(context.Context, domain.Task) error
	UpdateTask(context.Context, domain.Task) error
	GetTask(context.Context, string) (domain.Task, error)
	ListTasks(context.Context, bool) ([]domain.Task, error)
	DeleteTask(context.Context, string) error

	// SaveNote writes only the note archive blob for a task. The legacy
	// note text column is cleared on this path and never written again.
	SaveNote(ctx context.Context, taskID string, archive []byte, updatedAt time.Time) error
}
