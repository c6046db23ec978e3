package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/anteck/internal/app"
	"github.com/hylla/anteck/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository is the sqlite-backed task store.
type Repository struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// OpenInMemory opens a process-local database, used in tests.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	repo := &Repository{db: db}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate brings the schema up to date. The note_archive column was added
// after note_text, so older databases gain it via ALTER TABLE; the legacy
// note_text value stays readable for the one-time markdown migration.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			position INTEGER NOT NULL,
			note_archive BLOB,
			note_text TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			archived_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_position ON tasks(position);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	if _, err := r.db.ExecContext(ctx, `ALTER TABLE tasks ADD COLUMN note_archive BLOB`); err != nil && !isDuplicateColumnErr(err) {
		return fmt.Errorf("migrate sqlite add tasks.note_archive: %w", err)
	}
	return nil
}

// CreateTask creates a task row.
func (r *Repository) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks(id, title, position, note_archive, note_text, created_at, updated_at, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, t.Position, nullableBlob(t.NoteArchive), t.NoteLegacy, ts(t.CreatedAt), ts(t.UpdatedAt), nullableTS(t.ArchivedAt))
	return err
}

// UpdateTask updates a task row.
func (r *Repository) UpdateTask(ctx context.Context, t domain.Task) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, position = ?, note_archive = ?, note_text = ?, updated_at = ?, archived_at = ?
		WHERE id = ?
	`, t.Title, t.Position, nullableBlob(t.NoteArchive), t.NoteLegacy, ts(t.UpdatedAt), nullableTS(t.ArchivedAt), t.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetTask returns one task.
func (r *Repository) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, position, note_archive, note_text, created_at, updated_at, archived_at
		FROM tasks
		WHERE id = ?
	`, id)
	return scanTask(row)
}

// ListTasks lists tasks ordered by position.
func (r *Repository) ListTasks(ctx context.Context, includeArchived bool) ([]domain.Task, error) {
	query := `
		SELECT id, title, position, note_archive, note_text, created_at, updated_at, archived_at
		FROM tasks
	`
	if !includeArchived {
		query += ` WHERE archived_at IS NULL`
	}
	query += ` ORDER BY position ASC, created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Task{}
	for rows.Next() {
		var (
			t          domain.Task
			blob       []byte
			createdRaw string
			updatedRaw string
			archived   sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Position, &blob, &t.NoteLegacy, &createdRaw, &updatedRaw, &archived); err != nil {
			return nil, err
		}
		t.NoteArchive = blob
		t.CreatedAt = parseTS(createdRaw)
		t.UpdatedAt = parseTS(updatedRaw)
		t.ArchivedAt = parseNullTS(archived)
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTask removes a task row.
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// SaveNote writes the note archive blob and clears the legacy text column.
// Once a task has an archive it never goes back to markdown-in-a-column.
func (r *Repository) SaveNote(ctx context.Context, taskID string, archive []byte, updatedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET note_archive = ?, note_text = '', updated_at = ?
		WHERE id = ?
	`, nullableBlob(archive), ts(updatedAt), taskID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

func scanTask(row *sql.Row) (domain.Task, error) {
	var (
		t          domain.Task
		blob       []byte
		createdRaw string
		updatedRaw string
		archived   sql.NullString
	)
	err := row.Scan(&t.ID, &t.Title, &t.Position, &blob, &t.NoteLegacy, &createdRaw, &updatedRaw, &archived)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Task{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	t.NoteArchive = blob
	t.CreatedAt = parseTS(createdRaw)
	t.UpdatedAt = parseTS(updatedRaw)
	t.ArchivedAt = parseNullTS(archived)
	return t, nil
}

func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrNotFound
	}
	return nil
}

func nullableBlob(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableTS(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func parseNullTS(v sql.NullString) *time.Time {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil
	}
	ts := parseTS(v.String)
	return &ts
}

func isDuplicateColumnErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}
