package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"mindcue/internal/types"
	"mindcue/internal/workflow"
)

var (
	_ workflow.ProjectStore = (*memoryProjectStore)(nil)
	_ workflow.ProjectStore = (*bboltProjectStore)(nil)
	_ workflow.ProjectStore = (*sqliteProjectStore)(nil)
)

type backendCase struct {
	name string
	open func(t *testing.T, opts ...Option) ProjectStore
}

func backends() []backendCase {
	return []backendCase{
		{name: BackendMemory, open: func(t *testing.T, opts ...Option) ProjectStore {
			return NewMemoryProjectStore(opts...)
		}},
		{name: BackendBbolt, open: func(t *testing.T, opts ...Option) ProjectStore {
			s, err := NewBboltProjectStore(filepath.Join(t.TempDir(), "projects.db"), opts...)
			require.NoError(t, err)
			return s
		}},
		{name: BackendSQLite, open: func(t *testing.T, opts ...Option) ProjectStore {
			s, err := NewSQLiteProjectStore(filepath.Join(t.TempDir(), "projects.sqlite"), opts...)
			require.NoError(t, err)
			return s
		}},
	}
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	var calls int
	return func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("project-%02d", n)
	}
}

func sampleRequest(product string) types.NewProject {
	analysis := workflow.SampleAnalysis("https://" + product + ".example.com")
	analysis.Product.Name = product
	return types.NewProject{Name: analysis.ProjectName(), Owner: "dana@example.com", Analysis: *analysis}
}

func TestProjectStoreRoundTrip(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			ctx := context.Background()
			s := backend.open(t, WithClock(steppingClock()), WithIDGenerator(sequentialIDs()))
			defer s.Close()
			require.Equal(t, backend.name, s.Backend())

			req := sampleRequest("CloudSync Pro")
			created, err := s.CreateProject(ctx, req)
			require.NoError(t, err)
			require.Equal(t, "project-01", created.ID)
			require.Equal(t, "CloudSync Pro Campaign", created.Name)
			require.Equal(t, types.ProjectStatusActive, created.Status)

			req.Analysis.Product.USPs[0] = "mutated after create"
			created.Analysis.Product.Name = "mutated copy"

			loaded, ok, err := s.GetProject(ctx, "project-01")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "CloudSync Pro", loaded.Analysis.Product.Name)
			require.Equal(t, "End-to-end encryption", loaded.Analysis.Product.USPs[0])
			require.Equal(t, "dana@example.com", loaded.Owner)
			require.True(t, loaded.CreatedAt.Equal(time.Date(2026, 5, 1, 12, 0, 1, 0, time.UTC)))

			_, ok, err = s.GetProject(ctx, "missing")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestProjectStoreHistoryNewestFirst(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			ctx := context.Background()
			s := backend.open(t, WithClock(steppingClock()), WithIDGenerator(sequentialIDs()))
			defer s.Close()

			for _, product := range []string{"Alpha", "Bravo", "Charlie"} {
				_, err := s.CreateProject(ctx, sampleRequest(product))
				require.NoError(t, err)
			}
			_, err := s.AddScripts(ctx, "project-01", []types.Script{{ID: "s1"}, {ID: "s2"}})
			require.NoError(t, err)

			history, err := s.ListProjectHistory(ctx)
			require.NoError(t, err)
			require.Len(t, history, 3)
			require.Equal(t, []string{"Charlie", "Bravo", "Alpha"}, []string{history[0].Name, history[1].Name, history[2].Name})
			require.Equal(t, 2, history[2].ScriptCount)
			require.Equal(t, 0, history[0].ScriptCount)

			projects, err := s.ListProjects(ctx)
			require.NoError(t, err)
			require.Len(t, projects, 3)
			require.Equal(t, "project-03", projects[0].ID)
			require.Len(t, projects[2].Scripts, 2)
		})
	}
}

func TestProjectStoreHistoryOrderWithEqualTimestamps(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			ctx := context.Background()
			s := backend.open(t, WithClock(func() time.Time { return fixed }))
			defer s.Close()

			for _, product := range []string{"First", "Second"} {
				_, err := s.CreateProject(ctx, sampleRequest(product))
				require.NoError(t, err)
			}
			history, err := s.ListProjectHistory(ctx)
			require.NoError(t, err)
			require.Len(t, history, 2)
			require.Equal(t, "Second", history[0].Name)
		})
	}
}

func TestProjectStoreAddScriptsAppendsInOrder(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			ctx := context.Background()
			s := backend.open(t, WithIDGenerator(sequentialIDs()))
			defer s.Close()

			_, err := s.CreateProject(ctx, sampleRequest("CloudSync Pro"))
			require.NoError(t, err)

			first := []types.Script{{
				ID:          "s1",
				ConceptName: "Problem-Solution Hook",
				Scenes:      []types.ScriptScene{{Timeframe: "Hook - 0-3 seconds", Text: "Tired of losing files?"}},
				Status:      types.ScriptStatusDraft,
				Version:     1,
			}}
			updated, err := s.AddScripts(ctx, "project-01", first)
			require.NoError(t, err)
			require.Len(t, updated.Scripts, 1)

			first[0].Scenes[0].Text = "mutated"
			updated, err = s.AddScripts(ctx, "project-01", []types.Script{{ID: "s2", ConceptName: "Social Proof Opener"}})
			require.NoError(t, err)
			require.Len(t, updated.Scripts, 2)
			require.Equal(t, "s1", updated.Scripts[0].ID)
			require.Equal(t, "Tired of losing files?", updated.Scripts[0].Scenes[0].Text)
			require.Equal(t, "s2", updated.Scripts[1].ID)

			unchanged, err := s.AddScripts(ctx, "project-01", nil)
			require.NoError(t, err)
			require.Len(t, unchanged.Scripts, 2)

			_, err = s.AddScripts(ctx, "missing", first)
			require.ErrorIs(t, err, ErrProjectNotFound)
		})
	}
}

func TestProjectStoreSetStatus(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			ctx := context.Background()
			s := backend.open(t, WithIDGenerator(sequentialIDs()))
			defer s.Close()

			_, err := s.CreateProject(ctx, sampleRequest("CloudSync Pro"))
			require.NoError(t, err)

			updated, err := s.SetProjectStatus(ctx, "project-01", "Completed")
			require.NoError(t, err)
			require.Equal(t, types.ProjectStatusCompleted, updated.Status)

			_, err = s.SetProjectStatus(ctx, "project-01", "paused")
			require.ErrorIs(t, err, ErrInvalidProject)
			_, err = s.SetProjectStatus(ctx, "missing", types.ProjectStatusArchived)
			require.ErrorIs(t, err, ErrProjectNotFound)
			_, err = s.SetProjectStatus(ctx, " ", types.ProjectStatusArchived)
			require.ErrorIs(t, err, ErrInvalidProject)
		})
	}
}

func TestProjectStoreRejectsUnnamedProject(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			s := backend.open(t)
			defer s.Close()
			_, err := s.CreateProject(context.Background(), types.NewProject{Name: "  "})
			require.ErrorIs(t, err, ErrInvalidProject)
		})
	}
}

func TestBboltProjectStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.db")
	ctx := context.Background()

	s, err := NewBboltProjectStore(path, WithIDGenerator(sequentialIDs()))
	require.NoError(t, err)
	_, err = s.CreateProject(ctx, sampleRequest("CloudSync Pro"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(BackendBbolt, path)
	require.NoError(t, err)
	defer reopened.Close()
	history, err := reopened.ListProjectHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "project-01", history[0].ID)
}

func TestSQLiteProjectStoreInMemory(t *testing.T) {
	s, err := Open(BackendSQLite, sqliteMemoryPath)
	require.NoError(t, err)
	defer s.Close()

	created, err := s.CreateProject(context.Background(), sampleRequest("CloudSync Pro"))
	require.NoError(t, err)
	loaded, ok, err := s.GetProject(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, created.Name, loaded.Name)
}

func TestOpenBackends(t *testing.T) {
	s, err := Open(" MEMORY ", "")
	require.NoError(t, err)
	require.Equal(t, BackendMemory, s.Backend())

	_, err = Open("postgres", "")
	require.Error(t, err)

	_, err = Open(BackendBbolt, " ")
	require.Error(t, err)
}
