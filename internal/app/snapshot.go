package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hylla/anteck/internal/codec/archive"
	"github.com/hylla/anteck/internal/codec/markdown"
	"github.com/hylla/anteck/internal/domain"
)

// snapshotVersion is bumped when the snapshot layout changes.
const snapshotVersion = 1

// Snapshot is the portable JSON export of all tasks. Notes travel as
// markdown so snapshots stay readable and diffable outside the app.
type Snapshot struct {
	Version    int            `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Tasks      []SnapshotTask `json:"tasks"`
}

// SnapshotTask is one exported task.
type SnapshotTask struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Position int    `json:"position"`
	Note     string `json:"note,omitempty"`
	Archived bool   `json:"archived,omitempty"`
}

const snapshotSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "exported_at", "tasks"],
  "additionalProperties": false,
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "exported_at": {"type": "string"},
    "tasks": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "additionalProperties": false,
        "properties": {
          "id": {"type": "string"},
          "title": {"type": "string", "minLength": 1},
          "position": {"type": "integer", "minimum": 0},
          "note": {"type": "string"},
          "archived": {"type": "boolean"}
        }
      }
    }
  }
}`

var snapshotSchemaOnce = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("snapshot.schema.json", strings.NewReader(snapshotSchema)); err != nil {
		return nil, err
	}
	return c.Compile("snapshot.schema.json")
})

// ExportSnapshot renders every task, including archived ones, into the JSON
// snapshot format. Notes are converted from their archive blobs to markdown.
func (s *Service) ExportSnapshot(ctx context.Context) ([]byte, error) {
	tasks, err := s.repo.ListTasks(ctx, true)
	if err != nil {
		return nil, err
	}
	snap := Snapshot{
		Version:    snapshotVersion,
		ExportedAt: s.clock().UTC(),
		Tasks:      make([]SnapshotTask, 0, len(tasks)),
	}
	for _, task := range tasks {
		doc, _ := decodeNote(task)
		snap.Tasks = append(snap.Tasks, SnapshotTask{
			ID:       task.ID,
			Title:    task.Title,
			Position: task.Position,
			Note:     markdown.Encode(doc),
			Archived: task.ArchivedAt != nil,
		})
	}
	return json.MarshalIndent(snap, "", "  ")
}

// ImportSnapshot validates a snapshot against the embedded schema and creates
// its tasks with fresh identifiers. Notes are imported through the permissive
// markdown path and persisted as archive blobs. It returns how many tasks
// were created.
func (s *Service) ImportSnapshot(ctx context.Context, data []byte) (int, error) {
	if err := validateSnapshot(data); err != nil {
		return 0, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Version > snapshotVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, snap.Version)
	}

	now := s.clock()
	created := 0
	for _, in := range snap.Tasks {
		task, err := domain.NewTask(domain.TaskInput{
			ID:       s.idGen(),
			Title:    in.Title,
			Position: in.Position,
		}, now)
		if err != nil {
			return created, fmt.Errorf("%w: task %q: %v", ErrInvalidSnapshot, in.Title, err)
		}
		if in.Note != "" {
			doc := markdown.ImportRich(in.Note, domain.StyleSet{})
			blob, err := archive.Encode(doc)
			if err != nil {
				return created, err
			}
			task.SetNoteArchive(blob, now)
		}
		if in.Archived {
			task.Archive(now)
		}
		if err := s.repo.CreateTask(ctx, task); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func validateSnapshot(data []byte) error {
	schema, err := snapshotSchemaOnce()
	if err != nil {
		return err
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := schema.Validate(decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return nil
}
