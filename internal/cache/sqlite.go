// Package cache persists the last-known task snapshot in a local
// SQLite database so the UI has something to render before the first
// remote list load completes. It is a render-first cache only; the
// engine's in-memory store remains the live view.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ashik0401/task-mate-client/internal/model"
)

// SQLiteCache stores task snapshots in a local SQLite file.
type SQLiteCache struct {
	db *sqlx.DB
}

// Open opens (or creates) the cache database at dbPath, enables WAL
// mode, and runs any pending schema migrations.
func Open(dbPath string) (*SQLiteCache, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// WAL keeps reads cheap while the engine writes through.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (c *SQLiteCache) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := c.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = c.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := c.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Load returns every cached task in display order (created_at
// descending, id ascending).
func (c *SQLiteCache) Load(ctx context.Context) ([]model.Task, error) {
	rows, err := c.db.QueryxContext(ctx,
		"SELECT * FROM tasks ORDER BY created_at DESC, id ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying cached tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ReplaceAll swaps the cached snapshot for the given tasks in one
// transaction.
func (c *SQLiteCache) ReplaceAll(ctx context.Context, tasks []model.Task) error {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing cached tasks: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range tasks {
		if _, err := stmt.ExecContext(ctx, upsertArgs(t)...); err != nil {
			return fmt.Errorf("caching task %s: %w", t.ID, err)
		}
	}

	return tx.Commit()
}

// Upsert inserts or replaces one cached task.
func (c *SQLiteCache) Upsert(ctx context.Context, t model.Task) error {
	if _, err := c.db.ExecContext(ctx, upsertQuery, upsertArgs(t)...); err != nil {
		return fmt.Errorf("caching task %s: %w", t.ID, err)
	}
	return nil
}

// Delete removes one cached task. Absence is not an error.
func (c *SQLiteCache) Delete(ctx context.Context, id string) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting cached task %s: %w", id, err)
	}
	return nil
}

const upsertQuery = `
	INSERT OR REPLACE INTO tasks (
		id, title, description, priority, status,
		assigned_user, due_date, created_at, owner_id
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func upsertArgs(t model.Task) []interface{} {
	return []interface{}{
		t.ID, t.Title, t.Description, string(t.Priority), string(t.Status),
		t.AssignedUser, t.DueDate, t.CreatedAt.UTC(), t.OwnerID,
	}
}

// scanTask scans a task row from a sqlx.Rows result set.
func scanTask(rows *sqlx.Rows) (model.Task, error) {
	var (
		task      model.Task
		priority  string
		status    string
		createdAt time.Time
	)

	err := rows.Scan(
		&task.ID, &task.Title, &task.Description, &priority, &status,
		&task.AssignedUser, &task.DueDate, &createdAt, &task.OwnerID,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.Priority = model.Priority(priority)
	task.Status = model.Status(status)
	task.CreatedAt = createdAt
	return task, nil
}
