package store

import (
	"context"

	"github.com/morrisclay/cds-console/internal/model"
)

func childKey(project, name string) string {
	return project + "/" + name
}

// ApplicationStore caches applications keyed by project/name.
type ApplicationStore struct {
	svc      ApplicationService
	projects *ProjectStore
	cache    *keyed[model.Application]
}

// NewApplicationStore creates an empty application store. Renames and
// deletions are reflected in projects.
func NewApplicationStore(svc ApplicationService, projects *ProjectStore) *ApplicationStore {
	return &ApplicationStore{
		svc:      svc,
		projects: projects,
		cache:    newKeyed(model.Application.Clone),
	}
}

// Get returns an application, fetching it on first use.
func (s *ApplicationStore) Get(ctx context.Context, project, name string) (model.Application, error) {
	key := childKey(project, name)
	if app, ok := s.cache.get(key); ok {
		return app, nil
	}
	return s.load(ctx, project, name)
}

// Resync refetches an application.
func (s *ApplicationStore) Resync(ctx context.Context, project, name string) (model.Application, error) {
	return s.load(ctx, project, name)
}

func (s *ApplicationStore) load(ctx context.Context, project, name string) (model.Application, error) {
	return s.cache.fetch(ctx, childKey(project, name), func(ctx context.Context) (model.Application, error) {
		app, err := s.svc.GetApplication(ctx, project, name)
		if err != nil {
			return model.Application{}, err
		}
		return *app, nil
	})
}

// Update updates the application named oldName. A rename is propagated to
// the project's application names.
func (s *ApplicationStore) Update(ctx context.Context, project, oldName string, app model.Application) (model.Application, error) {
	if s.projects.ExternallyChanged(project) {
		return model.Application{}, ErrExternallyChanged
	}
	updated, err := s.svc.UpdateApplication(ctx, project, oldName, app)
	if err != nil {
		return model.Application{}, err
	}
	if updated.ProjectKey == "" {
		updated.ProjectKey = project
	}

	s.cache.move(childKey(project, oldName), childKey(project, updated.Name), *updated)
	if updated.Name != oldName {
		s.projects.RenameApplication(project, oldName, updated.Name)
	}
	return updated.Clone(), nil
}

// Delete deletes an application.
func (s *ApplicationStore) Delete(ctx context.Context, project, name string) error {
	if s.projects.ExternallyChanged(project) {
		return ErrExternallyChanged
	}
	if err := s.svc.DeleteApplication(ctx, project, name); err != nil {
		return err
	}
	s.cache.remove(childKey(project, name))
	s.projects.RemoveApplication(project, name)
	return nil
}

// Subscribe calls fn with the cached applications, keyed project/name, and
// on every change. fn must not modify the map.
func (s *ApplicationStore) Subscribe(fn func(map[string]model.Application)) (cancel func()) {
	return s.cache.items.Subscribe(fn)
}
