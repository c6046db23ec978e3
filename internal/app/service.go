package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hylla/anteck/internal/domain"
)

// DeleteMode selects how task deletion behaves.
type DeleteMode string

// DeleteModeArchive and DeleteModeHard are the supported delete modes.
const (
	DeleteModeArchive DeleteMode = "archive"
	DeleteModeHard    DeleteMode = "hard"
)

// ServiceConfig holds configuration for the service. A SaveDebounce above
// zero makes note sessions defer text-edit saves until the caller flushes
// them; checkbox toggles always save immediately.
type ServiceConfig struct {
	DefaultDeleteMode DeleteMode
	SaveDebounce      time.Duration
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service coordinates task operations and note sessions over the repository.
type Service struct {
	repo              Repository
	idGen             IDGenerator
	clock             Clock
	defaultDeleteMode DeleteMode
	saveDebounce      time.Duration
}

// NewService constructs a service. A nil idGen falls back to UUIDs and a nil
// clock to time.Now.
func NewService(repo Repository, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.DefaultDeleteMode == "" {
		cfg.DefaultDeleteMode = DeleteModeArchive
	}
	if cfg.SaveDebounce < 0 {
		cfg.SaveDebounce = 0
	}
	return &Service{
		repo:              repo,
		idGen:             idGen,
		clock:             clock,
		defaultDeleteMode: cfg.DefaultDeleteMode,
		saveDebounce:      cfg.SaveDebounce,
	}
}

// CreateTask creates a task appended after the existing ones.
func (s *Service) CreateTask(ctx context.Context, title string) (domain.Task, error) {
	existing, err := s.repo.ListTasks(ctx, true)
	if err != nil {
		return domain.Task{}, err
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:       s.idGen(),
		Title:    title,
		Position: len(existing),
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// RenameTask renames a task.
func (s *Service) RenameTask(ctx context.Context, id, title string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	if err := task.Rename(title, s.clock()); err != nil {
		return domain.Task{}, err
	}
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// MoveTask changes a task's position in the list.
func (s *Service) MoveTask(ctx context.Context, id string, position int) (domain.Task, error) {
	if position < 0 {
		return domain.Task{}, domain.ErrInvalidPosition
	}
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	task.Position = position
	task.UpdatedAt = s.clock().UTC()
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// DeleteTask removes a task using the given mode; an empty mode uses the
// configured default.
func (s *Service) DeleteTask(ctx context.Context, id string, mode DeleteMode) error {
	if mode == "" {
		mode = s.defaultDeleteMode
	}
	switch mode {
	case DeleteModeArchive:
		task, err := s.repo.GetTask(ctx, id)
		if err != nil {
			return err
		}
		task.Archive(s.clock())
		return s.repo.UpdateTask(ctx, task)
	case DeleteModeHard:
		return s.repo.DeleteTask(ctx, id)
	default:
		return ErrInvalidDeleteMode
	}
}

// RestoreTask clears a task's archived marker.
func (s *Service) RestoreTask(ctx context.Context, id string) (domain.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return domain.Task{}, err
	}
	task.Restore(s.clock())
	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// GetTask fetches one task.
func (s *Service) GetTask(ctx context.Context, id string) (domain.Task, error) {
	return s.repo.GetTask(ctx, id)
}

// ListTasks lists tasks, optionally including archived ones.
func (s *Service) ListTasks(ctx context.Context, includeArchived bool) ([]domain.Task, error) {
	return s.repo.ListTasks(ctx, includeArchived)
}
