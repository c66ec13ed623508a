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

	_ "modernc.org/sqlite"

	"mindcue/internal/types"
)

const sqliteMemoryPath = ":memory:"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		product_name TEXT NOT NULL DEFAULT '',
		owner TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		analysis TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS scripts (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		id TEXT NOT NULL,
		body TEXT NOT NULL,
		PRIMARY KEY (project_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_created ON projects(created_at DESC, seq DESC)`,
}

type sqliteProjectStore struct {
	db      *sql.DB
	factory factory
}

// NewSQLiteProjectStore opens (or creates) a sqlite database at path. Use
// ":memory:" for a throwaway database.
func NewSQLiteProjectStore(path string, opts ...Option) (ProjectStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("project db path is required")
	}
	if path != sqliteMemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection: pragmas and an in-memory database live on it
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := initSQLiteSchema(db, path != sqliteMemoryPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteProjectStore{db: db, factory: newFactory(opts)}, nil
}

func initSQLiteSchema(db *sql.DB, wal bool) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if wal {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, stmt := range append(pragmas, sqliteSchema...) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}
	return nil
}

func (s *sqliteProjectStore) CreateProject(ctx context.Context, req types.NewProject) (*types.Project, error) {
	project, err := s.factory.newProject(req)
	if err != nil {
		return nil, err
	}
	analysis, err := json.Marshal(project.Analysis)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, product_name, owner, status, analysis, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.Analysis.Product.Name, project.Owner, string(project.Status),
		string(analysis), project.CreatedAt.UnixNano(), project.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return project.Clone(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

const projectColumns = `seq, id, name, owner, status, analysis, created_at, updated_at`

func scanProject(row rowScanner) (projectRecord, error) {
	var (
		seq                  int64
		project              types.Project
		status, analysis     string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&seq, &project.ID, &project.Name, &project.Owner, &status, &analysis, &createdAt, &updatedAt); err != nil {
		return projectRecord{}, err
	}
	if err := json.Unmarshal([]byte(analysis), &project.Analysis); err != nil {
		return projectRecord{}, fmt.Errorf("decode analysis for %s: %w", project.ID, err)
	}
	project.Status = types.ProjectStatus(status)
	project.CreatedAt = time.Unix(0, createdAt).UTC()
	project.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return projectRecord{Seq: uint64(seq), Project: &project}, nil
}

func (s *sqliteProjectStore) GetProject(ctx context.Context, id string) (*types.Project, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	record, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	scripts, err := s.scripts(ctx, record.Project.ID)
	if err != nil {
		return nil, false, err
	}
	record.Project.Scripts = scripts[record.Project.ID]
	return record.Project, true, nil
}

// scripts loads stored scripts grouped by project. An empty projectID loads
// every project's scripts.
func (s *sqliteProjectStore) scripts(ctx context.Context, projectID string) (map[string][]types.Script, error) {
	query := `SELECT project_id, body FROM scripts`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY project_id, position`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]types.Script{}
	for rows.Next() {
		var owner, body string
		if err := rows.Scan(&owner, &body); err != nil {
			return nil, err
		}
		var script types.Script
		if err := json.Unmarshal([]byte(body), &script); err != nil {
			return nil, fmt.Errorf("decode script for %s: %w", owner, err)
		}
		out[owner] = append(out[owner], script)
	}
	return out, rows.Err()
}

func (s *sqliteProjectStore) records(ctx context.Context) ([]projectRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]projectRecord, 0)
	for rows.Next() {
		record, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *sqliteProjectStore) ListProjects(ctx context.Context) ([]*types.Project, error) {
	records, err := s.records(ctx)
	if err != nil {
		return nil, err
	}
	scripts, err := s.scripts(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		record.Project.Scripts = scripts[record.Project.ID]
	}
	return projectsOf(records), nil
}

func (s *sqliteProjectStore) ListProjectHistory(ctx context.Context) ([]types.ProjectSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.product_name, p.created_at, COUNT(s.id)
		FROM projects p
		LEFT JOIN scripts s ON s.project_id = p.id
		GROUP BY p.seq
		ORDER BY p.created_at DESC, p.seq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.ProjectSummary, 0)
	for rows.Next() {
		var (
			summary          types.ProjectSummary
			name, product    string
			createdAt, count int64
		)
		if err := rows.Scan(&summary.ID, &name, &product, &createdAt, &count); err != nil {
			return nil, err
		}
		summary.Name = strings.TrimSpace(product)
		if summary.Name == "" {
			summary.Name = name
		}
		summary.CreatedAt = time.Unix(0, createdAt).UTC()
		summary.ScriptCount = int(count)
		out = append(out, summary)
	}
	return out, rows.Err()
}

func (s *sqliteProjectStore) AddScripts(ctx context.Context, id string, scripts []types.Script) (*types.Project, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var next int64
		row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(s.position) + 1, 0) FROM projects p
			LEFT JOIN scripts s ON s.project_id = p.id WHERE p.id = ? GROUP BY p.id`, id)
		if err := row.Scan(&next); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrProjectNotFound
			}
			return err
		}
		if len(scripts) == 0 {
			return nil
		}
		for i, script := range types.CloneScripts(scripts) {
			body, err := json.Marshal(script)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO scripts (project_id, position, id, body) VALUES (?, ?, ?, ?)`,
				id, next+int64(i), script.ID, string(body),
			); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, s.factory.now().UnixNano(), id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.mustGet(ctx, id)
}

func (s *sqliteProjectStore) SetProjectStatus(ctx context.Context, id string, status types.ProjectStatus) (*types.Project, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	status, err = normalizeStatus(status)
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.factory.now().UnixNano(), id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrProjectNotFound
	}
	return s.mustGet(ctx, id)
}

func (s *sqliteProjectStore) mustGet(ctx context.Context, id string) (*types.Project, error) {
	project, ok, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

func (s *sqliteProjectStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *sqliteProjectStore) Backend() string {
	return BackendSQLite
}

func (s *sqliteProjectStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
