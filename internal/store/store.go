package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindcue/internal/types"
)

const (
	BackendBbolt  = "bbolt"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidProject  = errors.New("invalid project")
)

// ProjectStore persists materialized projects and their scripts. Analysis
// snapshots are copied on every write and read.
type ProjectStore interface {
	CreateProject(ctx context.Context, req types.NewProject) (*types.Project, error)
	GetProject(ctx context.Context, id string) (*types.Project, bool, error)
	ListProjects(ctx context.Context) ([]*types.Project, error)
	ListProjectHistory(ctx context.Context) ([]types.ProjectSummary, error)
	AddScripts(ctx context.Context, id string, scripts []types.Script) (*types.Project, error)
	SetProjectStatus(ctx context.Context, id string, status types.ProjectStatus) (*types.Project, error)
	Backend() string
	Close() error
}

type Option func(*factory)

func WithClock(now func() time.Time) Option {
	return func(f *factory) {
		if now != nil {
			f.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(f *factory) {
		if newID != nil {
			f.newID = newID
		}
	}
}

type factory struct {
	now   func() time.Time
	newID func() string
}

func newFactory(opts []Option) factory {
	f := factory{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// Open returns the store for backend. Path is ignored by the memory backend.
func Open(backend, path string, opts ...Option) (ProjectStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendBbolt:
		return NewBboltProjectStore(path, opts...)
	case BackendSQLite:
		return NewSQLiteProjectStore(path, opts...)
	case BackendMemory:
		return NewMemoryProjectStore(opts...), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func (f factory) newProject(req types.NewProject) (*types.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProject)
	}
	now := f.now()
	return &types.Project{
		ID:        f.newID(),
		Name:      name,
		Analysis:  *req.Analysis.Clone(),
		Status:    types.ProjectStatusActive,
		Owner:     strings.TrimSpace(req.Owner),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: id is required", ErrInvalidProject)
	}
	return id, nil
}

func normalizeStatus(status types.ProjectStatus) (types.ProjectStatus, error) {
	parsed, ok := types.ParseProjectStatus(string(status))
	if !ok {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidProject, status)
	}
	return parsed, nil
}

// appendScripts attaches copies of scripts to project and bumps UpdatedAt.
func appendScripts(project *types.Project, scripts []types.Script, now time.Time) {
	if len(scripts) == 0 {
		return
	}
	project.Scripts = append(project.Scripts, types.CloneScripts(scripts)...)
	project.UpdatedAt = now
}

// projectRecord is a stored project plus its insertion sequence, used to keep
// history order stable when creation times collide.
type projectRecord struct {
	Seq     uint64         `json:"seq"`
	Project *types.Project `json:"project"`
}

func sortNewestFirst(records []projectRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Project.CreatedAt.Equal(b.Project.CreatedAt) {
			return a.Project.CreatedAt.After(b.Project.CreatedAt)
		}
		return a.Seq > b.Seq
	})
}

func projectsOf(records []projectRecord) []*types.Project {
	out := make([]*types.Project, 0, len(records))
	for _, record := range records {
		out = append(out, record.Project.Clone())
	}
	return out
}

func summariesOf(records []projectRecord) []types.ProjectSummary {
	out := make([]types.ProjectSummary, 0, len(records))
	for _, record := range records {
		out = append(out, record.Project.Summary())
	}
	return out
}
