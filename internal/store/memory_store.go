package store

import (
	"context"
	"sync"

	"mindcue/internal/types"
)

type memoryProjectStore struct {
	mu       sync.RWMutex
	factory  factory
	seq      uint64
	projects map[string]projectRecord
}

func NewMemoryProjectStore(opts ...Option) ProjectStore {
	return &memoryProjectStore{
		factory:  newFactory(opts),
		projects: map[string]projectRecord{},
	}
}

func (s *memoryProjectStore) CreateProject(_ context.Context, req types.NewProject) (*types.Project, error) {
	project, err := s.factory.newProject(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.projects[project.ID] = projectRecord{Seq: s.seq, Project: project}
	return project.Clone(), nil
}

func (s *memoryProjectStore) GetProject(_ context.Context, id string) (*types.Project, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.projects[id]
	if !ok {
		return nil, false, nil
	}
	return record.Project.Clone(), true, nil
}

func (s *memoryProjectStore) records() []projectRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]projectRecord, 0, len(s.projects))
	for _, record := range s.projects {
		out = append(out, record)
	}
	sortNewestFirst(out)
	return out
}

func (s *memoryProjectStore) ListProjects(context.Context) ([]*types.Project, error) {
	return projectsOf(s.records()), nil
}

func (s *memoryProjectStore) ListProjectHistory(context.Context) ([]types.ProjectSummary, error) {
	return summariesOf(s.records()), nil
}

func (s *memoryProjectStore) AddScripts(_ context.Context, id string, scripts []types.Script) (*types.Project, error) {
	return s.update(id, func(project *types.Project) error {
		appendScripts(project, scripts, s.factory.now())
		return nil
	})
}

func (s *memoryProjectStore) SetProjectStatus(_ context.Context, id string, status types.ProjectStatus) (*types.Project, error) {
	status, err := normalizeStatus(status)
	if err != nil {
		return nil, err
	}
	return s.update(id, func(project *types.Project) error {
		project.Status = status
		project.UpdatedAt = s.factory.now()
		return nil
	})
}

func (s *memoryProjectStore) update(id string, fn func(*types.Project) error) (*types.Project, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	project := record.Project.Clone()
	if err := fn(project); err != nil {
		return nil, err
	}
	record.Project = project
	s.projects[id] = record
	return project.Clone(), nil
}

func (s *memoryProjectStore) Backend() string {
	return BackendMemory
}

func (s *memoryProjectStore) Close() error {
	return nil
}
