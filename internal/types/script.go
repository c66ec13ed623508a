package types

import "time"

type ScriptStatus string

const (
	ScriptStatusDraft            ScriptStatus = "draft"
	ScriptStatusReadyForReview   ScriptStatus = "ready-for-review"
	ScriptStatusChangesRequested ScriptStatus = "changes-requested"
	ScriptStatusApproved         ScriptStatus = "approved"
	ScriptStatusRejected         ScriptStatus = "rejected"
)

type ScriptScene struct {
	Timeframe string `json:"timeframe" yaml:"timeframe"`
	Scene     string `json:"scene" yaml:"scene"`
	Text      string `json:"text" yaml:"text"`
}

type Script struct {
	ID          string        `json:"id" yaml:"id"`
	ConceptName string        `json:"concept_name" yaml:"concept_name"`
	Target      string        `json:"target" yaml:"target"`
	Duration    string        `json:"duration" yaml:"duration"`
	CTR         string        `json:"ctr" yaml:"ctr"`
	CVR         string        `json:"cvr" yaml:"cvr"`
	Scenes      []ScriptScene `json:"scenes" yaml:"scenes"`
	Notes       []string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	Status      ScriptStatus  `json:"status" yaml:"status"`
	Version     int           `json:"version" yaml:"version"`
	CreatedBy   string        `json:"created_by,omitempty" yaml:"created_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" yaml:"updated_at"`
}

func CloneScripts(scripts []Script) []Script {
	if scripts == nil {
		return nil
	}
	out := make([]Script, len(scripts))
	for i, script := range scripts {
		out[i] = script
		out[i].Scenes = append([]ScriptScene(nil), script.Scenes...)
		out[i].Notes = cloneStrings(script.Notes)
	}
	return out
}
