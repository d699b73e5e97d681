package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Event types pushed by the server.
const (
	EventProjectAdd            = "sdk.EventProjectAdd"
	EventProjectUpdate         = "sdk.EventProjectUpdate"
	EventProjectDelete         = "sdk.EventProjectDelete"
	EventProjectVariableAdd    = "sdk.EventProjectVariableAdd"
	EventProjectVariableUpdate = "sdk.EventProjectVariableUpdate"
	EventProjectVariableDelete = "sdk.EventProjectVariableDelete"
	EventEnvironmentAdd        = "sdk.EventEnvironmentAdd"
	EventEnvironmentUpdate     = "sdk.EventEnvironmentUpdate"
	EventEnvironmentDelete     = "sdk.EventEnvironmentDelete"
	EventApplicationUpdate     = "sdk.EventApplicationUpdate"
	EventApplicationDelete     = "sdk.EventApplicationDelete"
	EventPipelineUpdate        = "sdk.EventPipelineUpdate"
	EventPipelineDelete        = "sdk.EventPipelineDelete"
	EventWarningAdd            = "sdk.EventWarningAdd"
	EventWarningUpdate         = "sdk.EventWarningUpdate"
	EventWarningDelete         = "sdk.EventWarningDelete"
	EventBroadcastAdd          = "sdk.EventBroadcastAdd"
	EventBroadcastUpdate       = "sdk.EventBroadcastUpdate"
	EventBroadcastDelete       = "sdk.EventBroadcastDelete"
)

// Event is one message of the push channel.
type Event struct {
	Type            string          `json:"type_event"`
	ProjectKey      string          `json:"project_key,omitempty"`
	ApplicationName string          `json:"application_name,omitempty"`
	PipelineName    string          `json:"pipeline_name,omitempty"`
	EnvironmentName string          `json:"environment_name,omitempty"`
	Username        string          `json:"username,omitempty"`
	Timestamp       time.Time       `json:"timestamp,omitempty"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// IsWarning reports whether the event is about warnings.
func (e Event) IsWarning() bool {
	return strings.HasPrefix(e.Type, "sdk.EventWarning")
}

// IsBroadcast reports whether the event is about broadcasts.
func (e Event) IsBroadcast() bool {
	return strings.HasPrefix(e.Type, "sdk.EventBroadcast")
}

// IsProjectChange reports whether the event modifies a project or one of
// its children.
func (e Event) IsProjectChange() bool {
	if e.ProjectKey == "" || e.IsWarning() || e.IsBroadcast() {
		return false
	}
	for _, p := range []string{"sdk.EventProject", "sdk.EventEnvironment", "sdk.EventApplication", "sdk.EventPipeline"} {
		if strings.HasPrefix(e.Type, p) {
			return true
		}
	}
	return false
}

// Reference is a parsed KEY[/name] reference.
type Reference struct {
	Project string
	Name    string
}

// ParsedTime parses a time string from the API.
func ParsedTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
