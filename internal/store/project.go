package store

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/morrisclay/cds-console/internal/cell"
	"github.com/morrisclay/cds-console/internal/model"
)

// ErrExternallyChanged is returned by project mutations while the project
// is flagged as changed elsewhere. ConfirmOverwrite or Resync clears it.
var ErrExternallyChanged = errors.New("project was changed by someone else")

type projectEntry struct {
	project  model.Project
	fields   Fields
	external bool
}

// ProjectSnapshot is an immutable view of the cached projects.
type ProjectSnapshot struct {
	entries map[string]projectEntry
}

// Get returns a copy of a cached project.
func (s ProjectSnapshot) Get(key string) (model.Project, bool) {
	e, ok := s.entries[key]
	if !ok {
		return model.Project{}, false
	}
	p := e.project.Clone()
	p.ExternalChange = e.external
	return p, true
}

// Fields returns the fields loaded for key.
func (s ProjectSnapshot) Fields(key string) Fields {
	return s.entries[key].fields
}

// Keys returns the cached keys in order.
func (s ProjectSnapshot) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of cached projects.
func (s ProjectSnapshot) Len() int {
	return len(s.entries)
}

func (s ProjectSnapshot) with(key string, e projectEntry) ProjectSnapshot {
	next := make(map[string]projectEntry, len(s.entries)+1)
	for k, v := range s.entries {
		next[k] = v
	}
	next[key] = e
	return ProjectSnapshot{entries: next}
}

func (s ProjectSnapshot) without(key string) ProjectSnapshot {
	next := make(map[string]projectEntry, len(s.entries))
	for k, v := range s.entries {
		if k != key {
			next[k] = v
		}
	}
	return ProjectSnapshot{entries: next}
}

// ProjectStore caches the navigation list and project details.
type ProjectStore struct {
	svc    ProjectService
	logger zerolog.Logger

	nav     *cell.Cell[[]model.NavProject]
	details *cell.Cell[ProjectSnapshot]
	flight  singleflight.Group
}

// NewProjectStore creates an empty project store.
func NewProjectStore(svc ProjectService, logger zerolog.Logger) *ProjectStore {
	return &ProjectStore{
		svc:     svc,
		logger:  logger.With().Str("store", "project").Logger(),
		nav:     cell.Empty[[]model.NavProject](),
		details: cell.New(ProjectSnapshot{}),
	}
}

// --- Navigation list ---

// NavProjects returns the navigation list, fetching it on first use.
func (s *ProjectStore) NavProjects(ctx context.Context) ([]model.NavProject, error) {
	if nav, ok := s.nav.Value(); ok {
		return cloneNav(nav), nil
	}
	return s.RefreshNav(ctx)
}

// RefreshNav refetches the navigation list.
func (s *ProjectStore) RefreshNav(ctx context.Context) ([]model.NavProject, error) {
	v, _, err := share(ctx, &s.flight, "nav", func(ctx context.Context) (any, error) {
		nav, err := s.svc.ListNavProjects(ctx)
		if err != nil {
			return nil, err
		}
		if nav == nil {
			nav = []model.NavProject{}
		}
		s.nav.Publish(nav)
		s.logger.Debug().Int("count", len(nav)).Msg("navigation list loaded")
		return nav, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneNav(v.([]model.NavProject)), nil
}

// SubscribeNav calls fn with the navigation list once loaded and on every
// change. fn must not modify the slice.
func (s *ProjectStore) SubscribeNav(fn func([]model.NavProject)) (cancel func()) {
	return s.nav.Subscribe(fn)
}

func (s *ProjectStore) patchNav(fn func([]model.NavProject) []model.NavProject) {
	if _, ok := s.nav.Value(); !ok {
		return
	}
	s.nav.Update(func(cur []model.NavProject, _ bool) []model.NavProject {
		return fn(cloneNav(cur))
	})
}

func cloneNav(nav []model.NavProject) []model.NavProject {
	if nav == nil {
		return nil
	}
	out := make([]model.NavProject, len(nav))
	for i, n := range nav {
		out[i] = n.Clone()
	}
	return out
}

// --- Details ---

// Projects calls fn with the cached projects and on every change.
func (s *ProjectStore) Projects(fn func(ProjectSnapshot)) (cancel func()) {
	return s.details.Subscribe(fn)
}

// Snapshot returns the cached projects.
func (s *ProjectStore) Snapshot() ProjectSnapshot {
	snap, _ := s.details.Value()
	return snap
}

// Cached returns the cached project if it has every field of fields.
func (s *ProjectStore) Cached(key string, fields Fields) (model.Project, bool) {
	snap := s.Snapshot()
	if !snap.Fields(key).Has(fields) {
		return model.Project{}, false
	}
	return snap.Get(key)
}

// GetProject returns the project with at least fields loaded. A cached
// project holding every requested field is returned without calling the
// API; otherwise the requested fields are fetched and merged into the cached
// copy, leaving other loaded fields in place.
func (s *ProjectStore) GetProject(ctx context.Context, key string, fields Fields) (model.Project, error) {
	if p, ok := s.Cached(key, fields); ok {
		return p, nil
	}
	return s.fetch(ctx, key, fields, false)
}

// Resync refetches every field loaded for key and clears the externally
// changed flag.
func (s *ProjectStore) Resync(ctx context.Context, key string) (model.Project, error) {
	return s.fetch(ctx, key, s.Snapshot().Fields(key), true)
}

func (s *ProjectStore) fetch(ctx context.Context, key string, fields Fields, resync bool) (model.Project, error) {
	flightKey := "get/" + key + "/" + fields.String()
	if resync {
		flightKey = "resync/" + key + "/" + fields.String()
	}

	v, shared, err := share(ctx, &s.flight, flightKey, func(ctx context.Context) (any, error) {
		p, err := s.svc.GetProject(ctx, key, fields.Options()...)
		if err != nil {
			return nil, err
		}
		fresh := *p
		if fresh.Key == "" {
			fresh.Key = key
		}
		if fields.Has(FieldRepositoriesManagers) {
			vcs, err := s.svc.ListRepositoriesManagers(ctx, key)
			if err != nil {
				return nil, err
			}
			fresh.VCSServers = vcs
		}

		var out model.Project
		s.details.Update(func(cur ProjectSnapshot, _ bool) ProjectSnapshot {
			e := cur.entries[key]
			e.project = mergeProject(e.project, fresh, fields)
			e.fields |= fields
			if resync {
				e.external = false
			}
			out = e.project.Clone()
			out.ExternalChange = e.external
			return cur.with(key, e)
		})
		s.logger.Debug().Str("project", key).Stringer("fields", fields).Msg("project loaded")
		return out, nil
	})
	if err != nil {
		return model.Project{}, err
	}
	p := v.(model.Project)
	if shared {
		p = p.Clone()
	}
	return p, nil
}

// mergeProject copies the scalar fields of fresh and the sub-collections
// named by fields into cur.
func mergeProject(cur, fresh model.Project, fields Fields) model.Project {
	out := cur.Clone()
	out.ID = fresh.ID
	out.Key = fresh.Key
	out.Name = fresh.Name
	out.Description = fresh.Description
	out.LastModified = fresh.LastModified
	out.Favorite = fresh.Favorite
	return applyFields(out, fresh, fields)
}

// applyFields replaces the sub-collections named by fields.
func applyFields(dst, src model.Project, fields Fields) model.Project {
	src = src.Clone()
	if fields.Has(FieldVariables) {
		dst.Variables = src.Variables
	}
	if fields.Has(FieldEnvironments) {
		dst.Environments = src.Environments
	}
	if fields.Has(FieldApplications) {
		dst.ApplicationNames = src.ApplicationNames
	}
	if fields.Has(FieldPipelines) {
		dst.PipelineNames = src.PipelineNames
	}
	if fields.Has(FieldGroups) {
		dst.Groups = src.Groups
	}
	if fields.Has(FieldRepositoriesManagers) {
		dst.VCSServers = src.VCSServers
	}
	return dst
}

// patch applies fn to the cached entry of key and publishes the result.
// ok is false when key is not cached; nothing is published then.
func (s *ProjectStore) patch(key string, fn func(e *projectEntry)) (out model.Project, ok bool) {
	if _, cached := s.Snapshot().entries[key]; !cached {
		return model.Project{}, false
	}
	s.details.Update(func(cur ProjectSnapshot, _ bool) ProjectSnapshot {
		e, found := cur.entries[key]
		if !found {
			return cur
		}
		e.project = e.project.Clone()
		fn(&e)
		out = e.project.Clone()
		out.ExternalChange = e.external
		ok = true
		return cur.with(key, e)
	})
	return out, ok
}

// patchOr is patch returning fallback for projects that are not cached.
// Mutations of uncached projects are not cached: the response alone does
// not say which fields it carries.
func (s *ProjectStore) patchOr(key string, fallback *model.Project, fn func(e *projectEntry)) model.Project {
	if p, ok := s.patch(key, fn); ok {
		return p
	}
	if fallback != nil {
		return fallback.Clone()
	}
	return model.Project{Key: key}
}

// --- Externally changed flag ---

// MarkExternallyChanged flags a cached project as modified elsewhere.
func (s *ProjectStore) MarkExternallyChanged(key string) {
	s.patch(key, func(e *projectEntry) {
		e.external = true
	})
	s.logger.Debug().Str("project", key).Msg("project changed externally")
}

// ExternallyChanged reports whether key is flagged as modified elsewhere.
func (s *ProjectStore) ExternallyChanged(key string) bool {
	return s.Snapshot().entries[key].external
}

// ConfirmOverwrite clears the flag so the next mutation may overwrite the
// changes made elsewhere.
func (s *ProjectStore) ConfirmOverwrite(key string) {
	s.patch(key, func(e *projectEntry) {
		e.external = false
	})
}

func (s *ProjectStore) checkWritable(key string) error {
	if s.ExternallyChanged(key) {
		return ErrExternallyChanged
	}
	return nil
}

// --- Project mutations ---

// CreateProject creates a project and caches the server's representation.
func (s *ProjectStore) CreateProject(ctx context.Context, p model.Project) (model.Project, error) {
	created, err := s.svc.CreateProject(ctx, p)
	if err != nil {
		return model.Project{}, err
	}
	if created.Key == "" {
		created.Key = p.Key
	}

	var out model.Project
	s.details.Update(func(cur ProjectSnapshot, _ bool) ProjectSnapshot {
		e := cur.entries[created.Key]
		e.project = mergeProject(e.project, *created, 0)
		out = e.project.Clone()
		return cur.with(created.Key, e)
	})
	s.patchNav(func(nav []model.NavProject) []model.NavProject {
		return upsert(nav, created.Nav(), func(n model.NavProject) bool { return n.Key == created.Key })
	})
	return out, nil
}

// UpdateProject updates the name and description of a project.
func (s *ProjectStore) UpdateProject(ctx context.Context, p model.Project) (model.Project, error) {
	if err := s.checkWritable(p.Key); err != nil {
		return model.Project{}, err
	}
	updated, err := s.svc.UpdateProject(ctx, p)
	if err != nil {
		return model.Project{}, err
	}

	if updated.Name == "" {
		updated = &p
	}
	out := s.patchOr(p.Key, updated, func(e *projectEntry) {
		if updated.Name != "" {
			e.project.Name = updated.Name
		}
		e.project.Description = updated.Description
		if !updated.LastModified.IsZero() {
			e.project.LastModified = updated.LastModified
		}
	})
	s.patchNav(func(nav []model.NavProject) []model.NavProject {
		for i := range nav {
			if nav[i].Key == p.Key {
				nav[i].Name = out.Name
				nav[i].Description = out.Description
			}
		}
		return nav
	})
	return out, nil
}

// DeleteProject deletes a project and drops it from the navigation list
// and the detail cache.
func (s *ProjectStore) DeleteProject(ctx context.Context, key string) error {
	if err := s.checkWritable(key); err != nil {
		return err
	}
	if err := s.svc.DeleteProject(ctx, key); err != nil {
		return err
	}

	s.details.Update(func(cur ProjectSnapshot, _ bool) ProjectSnapshot {
		return cur.without(key)
	})
	s.patchNav(func(nav []model.NavProject) []model.NavProject {
		return remove(nav, func(n model.NavProject) bool { return n.Key == key })
	})
	s.logger.Debug().Str("project", key).Msg("project deleted")
	return nil
}

// ToggleFavorite flips the favorite flag of a project.
func (s *ProjectStore) ToggleFavorite(ctx context.Context, key string) (bool, error) {
	fav, err := s.svc.ToggleFavorite(ctx, key)
	if err != nil {
		return false, err
	}
	s.patch(key, func(e *projectEntry) {
		e.project.Favorite = fav
	})
	s.patchNav(func(nav []model.NavProject) []model.NavProject {
		for i := range nav {
			if nav[i].Key == key {
				nav[i].Favorite = fav
			}
		}
		return nav
	})
	return fav, nil
}

// --- Variables ---

// AddVariable adds a project variable.
func (s *ProjectStore) AddVariable(ctx context.Context, key string, v model.Variable) (model.Project, error) {
	return s.mutateVariables(key, v.Name, &v, func() (*model.Project, error) {
		return s.svc.AddProjectVariable(ctx, key, v)
	})
}

// UpdateVariable replaces the variable named oldName.
func (s *ProjectStore) UpdateVariable(ctx context.Context, key, oldName string, v model.Variable) (model.Project, error) {
	return s.mutateVariables(key, oldName, &v, func() (*model.Project, error) {
		return s.svc.UpdateProjectVariable(ctx, key, oldName, v)
	})
}

// DeleteVariable deletes a project variable.
func (s *ProjectStore) DeleteVariable(ctx context.Context, key, name string) (model.Project, error) {
	return s.mutateVariables(key, name, nil, func() (*model.Project, error) {
		return s.svc.DeleteProjectVariable(ctx, key, name)
	})
}

// mutateVariables runs call and patches the variables of key. When the
// response carries no variable list, the item named name is replaced by v
// (or removed when v is nil) in the cached list.
func (s *ProjectStore) mutateVariables(key, name string, v *model.Variable, call func() (*model.Project, error)) (model.Project, error) {
	if err := s.checkWritable(key); err != nil {
		return model.Project{}, err
	}
	resp, err := call()
	if err != nil {
		return model.Project{}, err
	}

	return s.patchOr(key, resp, func(e *projectEntry) {
		touch(e, resp)
		if resp != nil && resp.Variables != nil {
			e.project = applyFields(e.project, *resp, FieldVariables)
			e.fields |= FieldVariables
			return
		}
		match := func(x model.Variable) bool { return x.Name == name }
		if v == nil {
			e.project.Variables = remove(e.project.Variables, match)
		} else {
			e.project.Variables = upsert(e.project.Variables, *v, match)
		}
	}), nil
}

// --- Environments ---

// AddEnvironment creates an environment.
func (s *ProjectStore) AddEnvironment(ctx context.Context, key string, env model.Environment) (model.Project, error) {
	return s.mutateEnvironments(key, env.Name, &env, func() (*model.Project, error) {
		return s.svc.AddEnvironment(ctx, key, env)
	})
}

// UpdateEnvironment replaces the environment named oldName.
func (s *ProjectStore) UpdateEnvironment(ctx context.Context, key, oldName string, env model.Environment) (model.Project, error) {
	return s.mutateEnvironments(key, oldName, &env, func() (*model.Project, error) {
		return s.svc.UpdateEnvironment(ctx, key, oldName, env)
	})
}

// CloneEnvironment copies an environment under cloneName.
func (s *ProjectStore) CloneEnvironment(ctx context.Context, key, name, cloneName string) (model.Project, error) {
	var clone *model.Environment
	if p, ok := s.Snapshot().Get(key); ok {
		for _, env := range p.Environments {
			if env.Name == name {
				env.ID = 0
				env.Name = cloneName
				clone = &env
				break
			}
		}
	}
	// Without a cached source the response is the only source of truth.
	if clone == nil {
		clone = &model.Environment{Name: cloneName, ProjectKey: key}
	}
	return s.mutateEnvironments(key, cloneName, clone, func() (*model.Project, error) {
		return s.svc.CloneEnvironment(ctx, key, name, cloneName)
	})
}

// DeleteEnvironment deletes an environment.
func (s *ProjectStore) DeleteEnvironment(ctx context.Context, key, name string) (model.Project, error) {
	return s.mutateEnvironments(key, name, nil, func() (*model.Project, error) {
		return s.svc.DeleteEnvironment(ctx, key, name)
	})
}

func (s *ProjectStore) mutateEnvironments(key, name string, env *model.Environment, call func() (*model.Project, error)) (model.Project, error) {
	if err := s.checkWritable(key); err != nil {
		return model.Project{}, err
	}
	resp, err := call()
	if err != nil {
		return model.Project{}, err
	}

	return s.patchOr(key, resp, func(e *projectEntry) {
		touch(e, resp)
		if resp != nil && resp.Environments != nil {
			e.project = applyFields(e.project, *resp, FieldEnvironments)
			e.fields |= FieldEnvironments
			return
		}
		match := func(x model.Environment) bool { return x.Name == name }
		if env == nil {
			e.project.Environments = remove(e.project.Environments, match)
		} else {
			e.project.Environments = upsert(e.project.Environments, *env, match)
		}
	}), nil
}

// touch copies the last modification date of a mutation response.
func touch(e *projectEntry, resp *model.Project) {
	if resp != nil && !resp.LastModified.IsZero() {
		e.project.LastModified = resp.LastModified
	}
}

// --- Group permissions ---

// AddGroupPermission grants a group a permission on the project.
func (s *ProjectStore) AddGroupPermission(ctx context.Context, key string, gp model.GroupPermission) (model.Project, error) {
	return s.mutateGroups(key, gp.Group.Name, &gp, func() ([]model.GroupPermission, error) {
		return s.svc.AddProjectGroup(ctx, key, gp)
	})
}

// UpdateGroupPermission changes the permission of a group.
func (s *ProjectStore) UpdateGroupPermission(ctx context.Context, key string, gp model.GroupPermission) (model.Project, error) {
	return s.mutateGroups(key, gp.Group.Name, &gp, func() ([]model.GroupPermission, error) {
		return s.svc.UpdateProjectGroup(ctx, key, gp)
	})
}

// DeleteGroupPermission revokes the permission of a group.
func (s *ProjectStore) DeleteGroupPermission(ctx context.Context, key, groupName string) (model.Project, error) {
	return s.mutateGroups(key, groupName, nil, func() ([]model.GroupPermission, error) {
		return nil, s.svc.DeleteProjectGroup(ctx, key, groupName)
	})
}

func (s *ProjectStore) mutateGroups(key, name string, gp *model.GroupPermission, call func() ([]model.GroupPermission, error)) (model.Project, error) {
	if err := s.checkWritable(key); err != nil {
		return model.Project{}, err
	}
	groups, err := call()
	if err != nil {
		return model.Project{}, err
	}

	return s.patchOr(key, &model.Project{Key: key, Groups: groups}, func(e *projectEntry) {
		if groups != nil {
			e.project.Groups = append([]model.GroupPermission(nil), groups...)
			e.fields |= FieldGroups
			return
		}
		match := func(x model.GroupPermission) bool { return x.Group.Name == name }
		if gp == nil {
			e.project.Groups = remove(e.project.Groups, match)
		} else {
			e.project.Groups = upsert(e.project.Groups, *gp, match)
		}
	}), nil
}

// --- Repositories managers ---

// DisconnectRepositoryManager unlinks a repositories manager.
func (s *ProjectStore) DisconnectRepositoryManager(ctx context.Context, key, name string) (model.Project, error) {
	if err := s.checkWritable(key); err != nil {
		return model.Project{}, err
	}
	vcs, err := s.svc.DisconnectRepositoryManager(ctx, key, name)
	if err != nil {
		return model.Project{}, err
	}

	return s.patchOr(key, &model.Project{Key: key, VCSServers: vcs}, func(e *projectEntry) {
		if vcs != nil {
			e.project.VCSServers = append([]model.ProjectVCSServer(nil), vcs...)
			e.fields |= FieldRepositoriesManagers
			return
		}
		e.project.VCSServers = remove(e.project.VCSServers, func(x model.ProjectVCSServer) bool { return x.Name == name })
	}), nil
}

// --- Local patches from other stores ---

// RenameApplication renames an application in the cached name lists.
func (s *ProjectStore) RenameApplication(key, oldName, newName string) {
	s.patch(key, func(e *projectEntry) {
		for i := range e.project.ApplicationNames {
			if e.project.ApplicationNames[i].Name == oldName {
				e.project.ApplicationNames[i].Name = newName
			}
		}
	})
	s.patchNav(func(nav []model.NavProject) []model.NavProject {
		for i := range nav {
			if nav[i].Key == key {
				nav[i].ApplicationNames = renameString(nav[i].ApplicationNames, oldName, newName)
			}
		}
		return nav
	})
}

// RemoveApplication drops an application from the cached name lists.
func (s *ProjectStore) RemoveApplication(key, name string) {
	s.patch(key, func(e *projectEntry) {
		e.project.ApplicationNames = remove(e.project.ApplicationNames, func(x model.IDName) bool { return x.Name == name })
	})
	s.patchNav(func(nav []model.NavProject) []model.NavProject {
		for i := range nav {
			if nav[i].Key == key {
				nav[i].ApplicationNames = remove(nav[i].ApplicationNames, func(x string) bool { return x == name })
			}
		}
		return nav
	})
}

// RenamePipeline renames a pipeline in the cached name lists.
func (s *ProjectStore) RenamePipeline(key, oldName, newName string) {
	s.patch(key, func(e *projectEntry) {
		for i := range e.project.PipelineNames {
			if e.project.PipelineNames[i].Name == oldName {
				e.project.PipelineNames[i].Name = newName
			}
		}
	})
	s.patchNav(func(nav []model.NavProject) []model.NavProject {
		for i := range nav {
			if nav[i].Key == key {
				nav[i].PipelineNames = renameString(nav[i].PipelineNames, oldName, newName)
			}
		}
		return nav
	})
}

// RemovePipeline drops a pipeline from the cached name lists.
func (s *ProjectStore) RemovePipeline(key, name string) {
	s.patch(key, func(e *projectEntry) {
		e.project.PipelineNames = remove(e.project.PipelineNames, func(x model.IDName) bool { return x.Name == name })
	})
	s.patchNav(func(nav []model.NavProject) []model.NavProject {
		for i := range nav {
			if nav[i].Key == key {
				nav[i].PipelineNames = remove(nav[i].PipelineNames, func(x string) bool { return x == name })
			}
		}
		return nav
	})
}

func renameString(items []string, oldName, newName string) []string {
	for i := range items {
		if items[i] == oldName {
			items[i] = newName
		}
	}
	return items
}
