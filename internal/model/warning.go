package model

import "time"

// Warning is a server-reported problem on a project element.
type Warning struct {
	ID              int64             `json:"id"`
	Key             string            `json:"key"`
	ApplicationName string            `json:"application_name,omitempty"`
	PipelineName    string            `json:"pipeline_name,omitempty"`
	EnvironmentName string            `json:"environment_name,omitempty"`
	StageID         int64             `json:"stage_id,omitempty"`
	ActionName      string            `json:"action_name,omitempty"`
	Type            string            `json:"type"`
	Element         string            `json:"element,omitempty"`
	Created         time.Time         `json:"created,omitempty"`
	Message         string            `json:"message"`
	MessageParams   map[string]string `json:"message_params,omitempty"`
	Ignored         bool              `json:"ignored,omitempty"`
}

// WarningApplication groups the warnings of one application.
type WarningApplication struct {
	Actions []Warning `json:"actions"`
}

// WarningPipeline groups the warnings of one pipeline.
type WarningPipeline struct {
	Jobs       []Warning `json:"jobs"`
	Parameters []Warning `json:"parameters"`
}

// WarningUI is the per-project aggregation of warnings shown in views.
type WarningUI struct {
	Project      []Warning                     `json:"project"`
	Applications map[string]WarningApplication `json:"applications"`
	Pipelines    map[string]WarningPipeline    `json:"pipelines"`
	Environments map[string][]Warning          `json:"environments"`
}

// NewWarningUI returns an empty aggregation.
func NewWarningUI() WarningUI {
	return WarningUI{
		Applications: make(map[string]WarningApplication),
		Pipelines:    make(map[string]WarningPipeline),
		Environments: make(map[string][]Warning),
	}
}

// Count returns the number of warnings in the aggregation.
func (w WarningUI) Count() int {
	n := len(w.Project)
	for _, a := range w.Applications {
		n += len(a.Actions)
	}
	for _, p := range w.Pipelines {
		n += len(p.Jobs) + len(p.Parameters)
	}
	for _, e := range w.Environments {
		n += len(e)
	}
	return n
}
