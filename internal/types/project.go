package types

import (
	"strings"
	"time"
)

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

func ParseProjectStatus(raw string) (ProjectStatus, bool) {
	switch ProjectStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case ProjectStatusActive:
		return ProjectStatusActive, true
	case ProjectStatusCompleted:
		return ProjectStatusCompleted, true
	case ProjectStatusArchived:
		return ProjectStatusArchived, true
	default:
		return "", false
	}
}

type Project struct {
	ID        string        `json:"id" yaml:"id"`
	Name      string        `json:"name" yaml:"name"`
	Analysis  Analysis      `json:"analysis" yaml:"analysis"`
	Scripts   []Script      `json:"scripts" yaml:"scripts"`
	Status    ProjectStatus `json:"status" yaml:"status"`
	Owner     string        `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" yaml:"updated_at"`
}

// NewProject is the input to project materialization.
type NewProject struct {
	Name     string
	Owner    string
	Analysis Analysis
}

// ProjectSummary is a sidebar history row.
type ProjectSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	ScriptCount int       `json:"script_count"`
}

func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.Analysis = *p.Analysis.Clone()
	out.Scripts = CloneScripts(p.Scripts)
	return &out
}

func (p *Project) Summary() ProjectSummary {
	if p == nil {
		return ProjectSummary{}
	}
	name := strings.TrimSpace(p.Analysis.Product.Name)
	if name == "" {
		name = p.Name
	}
	return ProjectSummary{
		ID:          p.ID,
		Name:        name,
		CreatedAt:   p.CreatedAt,
		ScriptCount: len(p.Scripts),
	}
}
