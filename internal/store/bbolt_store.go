package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"mindcue/internal/types"
)

var bucketProjects = []byte("projects")

type bboltProjectStore struct {
	db      *bolt.DB
	mu      sync.Mutex
	factory factory
}

func NewBboltProjectStore(path string, opts ...Option) (ProjectStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("project db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketProjects)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltProjectStore{db: db, factory: newFactory(opts)}, nil
}

func (s *bboltProjectStore) CreateProject(_ context.Context, req types.NewProject) (*types.Project, error) {
	project, err := s.factory.newProject(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		if b == nil {
			return errors.New("projects bucket missing")
		}
		key := []byte(project.ID)
		if b.Get(key) != nil {
			return errors.New("project already exists")
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		raw, err := json.Marshal(projectRecord{Seq: seq, Project: project})
		if err != nil {
			return err
		}
		return b.Put(key, raw)
	}); err != nil {
		return nil, err
	}
	return project.Clone(), nil
}

func (s *bboltProjectStore) GetProject(_ context.Context, id string) (*types.Project, bool, error) {
	var (
		out *types.Project
		ok  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(id))
		if len(raw) == 0 {
			return nil
		}
		record, err := decodeRecord(raw)
		if err != nil {
			return err
		}
		out = record.Project
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, ok, nil
}

func (s *bboltProjectStore) records() ([]projectRecord, error) {
	out := make([]projectRecord, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			record, err := decodeRecord(v)
			if err != nil {
				return err
			}
			out = append(out, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *bboltProjectStore) ListProjects(context.Context) ([]*types.Project, error) {
	records, err := s.records()
	if err != nil {
		return nil, err
	}
	return projectsOf(records), nil
}

func (s *bboltProjectStore) ListProjectHistory(context.Context) ([]types.ProjectSummary, error) {
	records, err := s.records()
	if err != nil {
		return nil, err
	}
	return summariesOf(records), nil
}

func (s *bboltProjectStore) AddScripts(_ context.Context, id string, scripts []types.Script) (*types.Project, error) {
	return s.update(id, func(project *types.Project) error {
		appendScripts(project, scripts, s.factory.now())
		return nil
	})
}

func (s *bboltProjectStore) SetProjectStatus(_ context.Context, id string, status types.ProjectStatus) (*types.Project, error) {
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

func (s *bboltProjectStore) update(id string, fn func(*types.Project) error) (*types.Project, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out *types.Project
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketProjects)
		if b == nil {
			return errors.New("projects bucket missing")
		}
		key := []byte(id)
		raw := b.Get(key)
		if len(raw) == 0 {
			return ErrProjectNotFound
		}
		record, err := decodeRecord(raw)
		if err != nil {
			return err
		}
		if err := fn(record.Project); err != nil {
			return err
		}
		next, err := json.Marshal(record)
		if err != nil {
			return err
		}
		out = record.Project
		return b.Put(key, next)
	}); err != nil {
		return nil, err
	}
	return out.Clone(), nil
}

func decodeRecord(raw []byte) (projectRecord, error) {
	var record projectRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return projectRecord{}, err
	}
	if record.Project == nil {
		return projectRecord{}, errors.New("project record is empty")
	}
	return record, nil
}

func (s *bboltProjectStore) Backend() string {
	return BackendBbolt
}

func (s *bboltProjectStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
