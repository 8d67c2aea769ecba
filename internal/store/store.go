// Package store keeps projects in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/example/s2c/internal/shape"
	"github.com/example/s2c/internal/viewport"
)

// CurrentSchemaVersion is the latest schema version.
const CurrentSchemaVersion = 1

// FileName is the database file created inside the data directory.
const FileName = "s2c.db"

var (
	ErrNotFound    = errors.New("project not found")
	ErrInvalidName = errors.New("project name is required")
)

// Project is one persisted canvas.
type Project struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Shapes    json.RawMessage `json:"shapes"`
	Viewport  viewport.Data   `json:"viewport"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ShapeMap decodes the stored shapes.
func (p *Project) ShapeMap() (*shape.Map, error) {
	m := shape.NewMap()
	if len(p.Shapes) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(p.Shapes, m); err != nil {
		return nil, fmt.Errorf("project %s: %w", p.ID, err)
	}
	return m, nil
}

// Store wraps the database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open initializes the database at dir/s2c.db, creating dir as needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(path, 0o600)
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS projects (
		  id             TEXT PRIMARY KEY,
		  name           TEXT NOT NULL,
		  shapes_json    TEXT NOT NULL,
		  viewport_json  TEXT NOT NULL,
		  created_at     INTEGER NOT NULL,
		  updated_at     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_projects_updated
		ON projects(updated_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}
	return nil
}

func verifyWALMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", mode)
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return v, nil
}

func setUserVersion(db *sql.DB, v int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", v)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration level.
func (s *Store) SchemaVersion() (int, error) { return userVersion(s.db) }

var emptyShapes = json.RawMessage(`{"ids":[],"entities":{}}`)

// Create inserts an empty project.
func (s *Store) Create(ctx context.Context, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	now := s.now().UTC().Truncate(time.Millisecond)
	p := &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Shapes:    emptyShapes,
		Viewport:  viewport.Data{Scale: 1},
		CreatedAt: now,
		UpdatedAt: now,
	}
	vp, err := json.Marshal(p.Viewport)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, name, shapes_json, viewport_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(p.Shapes), string(vp), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*Project, error) {
	var (
		p            Project
		shapes, vp   string
		created, upd int64
	)
	if err := row.Scan(&p.ID, &p.Name, &shapes, &vp, &created, &upd); err != nil {
		return nil, err
	}
	p.Shapes = json.RawMessage(shapes)
	if err := json.Unmarshal([]byte(vp), &p.Viewport); err != nil {
		return nil, fmt.Errorf("project %s viewport: %w", p.ID, err)
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(upd).UTC()
	return &p, nil
}

// Get loads one project.
func (s *Store) Get(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, shapes_json, viewport_json, created_at, updated_at
		FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// Find resolves a project by id, unique id prefix or exact name.
func (s *Store) Find(ctx context.Context, ref string) (*Project, error) {
	if p, err := s.Get(ctx, ref); err == nil {
		return p, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var match *Project
	for _, p := range all {
		if p.Name == ref || strings.HasPrefix(p.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("%q matches more than one project", ref)
			}
			match = p
		}
	}
	if match == nil {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return s.Get(ctx, match.ID)
}

// List returns every project, most recently updated first. Shapes are not
// loaded.
func (s *Store) List(ctx context.Context) ([]*Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, '', viewport_json, created_at, updated_at
		FROM projects ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var out []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		p.Shapes = nil
		out = append(out, p)
	}
	return out, rows.Err()
}

// Save replaces the shapes and viewport of a project. It satisfies the
// autosave Saver interface.
func (s *Store) Save(ctx context.Context, projectID string, shapes json.RawMessage, vp viewport.Data) error {
	if !json.Valid(shapes) {
		return fmt.Errorf("save %s: shapes are not valid JSON", projectID)
	}
	vpJSON, err := json.Marshal(vp)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET shapes_json = ?, viewport_json = ?, updated_at = ?
		WHERE id = ?`,
		string(shapes), string(vpJSON), s.now().UnixMilli(), projectID)
	if err != nil {
		return fmt.Errorf("save %s: %w", projectID, err)
	}
	return expectOne(res, projectID)
}

// Rename changes the display name.
func (s *Store) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, updated_at = ? WHERE id = ?`,
		name, s.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("rename %s: %w", id, err)
	}
	return expectOne(res, id)
}

// Delete removes a project.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return expectOne(res, id)
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}
