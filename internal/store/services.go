// Package store caches API entities and republishes them to subscribers.
//
// Every store reads through its cache: a read whose key (and, for projects,
// requested fields) is already cached returns without calling the API.
// Mutations call the API first and patch the cache only on success, so a
// failed call leaves the cached state unchanged. A failed read fails only
// the pending call; it never invalidates what is already cached.
//
// Concurrent reads of the same key share one in-flight request. The shared
// request ignores the cancellation of whichever caller started it; each
// caller stops waiting when its own context ends. Mutations are never
// shared.
//
// Snapshots handed to subscribers are immutable; accessors return copies.
package store

import (
	"context"

	"github.com/morrisclay/cds-console/internal/api"
	"github.com/morrisclay/cds-console/internal/model"
)

// ProjectService is the API surface used by ProjectStore.
type ProjectService interface {
	ListNavProjects(ctx context.Context) ([]model.NavProject, error)
	GetProject(ctx context.Context, key string, opts ...string) (*model.Project, error)
	CreateProject(ctx context.Context, p model.Project) (*model.Project, error)
	UpdateProject(ctx context.Context, p model.Project) (*model.Project, error)
	DeleteProject(ctx context.Context, key string) error

	AddProjectVariable(ctx context.Context, key string, v model.Variable) (*model.Project, error)
	UpdateProjectVariable(ctx context.Context, key, oldName string, v model.Variable) (*model.Project, error)
	DeleteProjectVariable(ctx context.Context, key, name string) (*model.Project, error)

	AddEnvironment(ctx context.Context, key string, env model.Environment) (*model.Project, error)
	UpdateEnvironment(ctx context.Context, key, oldName string, env model.Environment) (*model.Project, error)
	CloneEnvironment(ctx context.Context, key, name, cloneName string) (*model.Project, error)
	DeleteEnvironment(ctx context.Context, key, name string) (*model.Project, error)

	AddProjectGroup(ctx context.Context, key string, gp model.GroupPermission) ([]model.GroupPermission, error)
	UpdateProjectGroup(ctx context.Context, key string, gp model.GroupPermission) ([]model.GroupPermission, error)
	DeleteProjectGroup(ctx context.Context, key, groupName string) error

	ListRepositoriesManagers(ctx context.Context, key string) ([]model.ProjectVCSServer, error)
	DisconnectRepositoryManager(ctx context.Context, key, name string) ([]model.ProjectVCSServer, error)

	ToggleFavorite(ctx context.Context, key string) (bool, error)
}

// ApplicationService is the API surface used by ApplicationStore.
type ApplicationService interface {
	GetApplication(ctx context.Context, key, name string) (*model.Application, error)
	UpdateApplication(ctx context.Context, key, oldName string, app model.Application) (*model.Application, error)
	DeleteApplication(ctx context.Context, key, name string) error
}

// PipelineService is the API surface used by PipelineStore.
type PipelineService interface {
	GetPipeline(ctx context.Context, key, name string) (*model.Pipeline, error)
	UpdatePipeline(ctx context.Context, key, oldName string, pip model.Pipeline) (*model.Pipeline, error)
	DeletePipeline(ctx context.Context, key, name string) error
}

// GroupService is the API surface used by GroupStore.
type GroupService interface {
	ListGroups(ctx context.Context) ([]model.Group, error)
	GetGroup(ctx context.Context, name string) (*model.Group, error)
	CreateGroup(ctx context.Context, g model.Group) (*model.Group, error)
	UpdateGroup(ctx context.Context, oldName string, g model.Group) (*model.Group, error)
	DeleteGroup(ctx context.Context, name string) error
}

// ActionService is the API surface used by ActionStore.
type ActionService interface {
	ListActions(ctx context.Context) ([]model.Action, error)
	GetAction(ctx context.Context, name string) (*model.Action, error)
	CreateAction(ctx context.Context, a model.Action) (*model.Action, error)
	UpdateAction(ctx context.Context, oldName string, a model.Action) (*model.Action, error)
	DeleteAction(ctx context.Context, name string) error
}

// BroadcastService is the API surface used by BroadcastStore.
type BroadcastService interface {
	ListBroadcasts(ctx context.Context) ([]model.Broadcast, error)
	GetBroadcast(ctx context.Context, id int64) (*model.Broadcast, error)
	CreateBroadcast(ctx context.Context, b model.Broadcast) (*model.Broadcast, error)
	UpdateBroadcast(ctx context.Context, b model.Broadcast) (*model.Broadcast, error)
	DeleteBroadcast(ctx context.Context, id int64) error
	MarkBroadcastRead(ctx context.Context, id int64) error
}

// WorkerModelService is the API surface used by WorkerModelStore.
type WorkerModelService interface {
	ListWorkerModels(ctx context.Context) ([]model.WorkerModel, error)
	GetWorkerModel(ctx context.Context, id int64) (*model.WorkerModel, error)
	CreateWorkerModel(ctx context.Context, m model.WorkerModel) (*model.WorkerModel, error)
	UpdateWorkerModel(ctx context.Context, m model.WorkerModel) (*model.WorkerModel, error)
	DeleteWorkerModel(ctx context.Context, id int64) error
}

// RequirementService is the API surface used by RequirementStore.
type RequirementService interface {
	ListRequirementTypes(ctx context.Context) ([]string, error)
}

// TokenService is the API surface used by TokenStore.
type TokenService interface {
	ListGroupTokens(ctx context.Context, group string) ([]model.Token, error)
	CreateGroupToken(ctx context.Context, group, expiration, description string) (*model.Token, error)
	DeleteGroupToken(ctx context.Context, group string, id int64) error
}

// WarningService is the API surface used by WarningStore.
type WarningService interface {
	ListWarnings(ctx context.Context, key string) ([]model.Warning, error)
}

var (
	_ ProjectService     = (*api.Client)(nil)
	_ ApplicationService = (*api.Client)(nil)
	_ PipelineService    = (*api.Client)(nil)
	_ GroupService       = (*api.Client)(nil)
	_ ActionService      = (*api.Client)(nil)
	_ BroadcastService   = (*api.Client)(nil)
	_ WorkerModelService = (*api.Client)(nil)
	_ RequirementService = (*api.Client)(nil)
	_ TokenService       = (*api.Client)(nil)
	_ WarningService     = (*api.Client)(nil)
)
