package store

import (
	"context"

	"github.com/morrisclay/cds-console/internal/model"
)

// PipelineStore caches pipelines keyed by project/name.
type PipelineStore struct {
	svc      PipelineService
	projects *ProjectStore
	cache    *keyed[model.Pipeline]
}

// NewPipelineStore creates an empty pipeline store.
func NewPipelineStore(svc PipelineService, projects *ProjectStore) *PipelineStore {
	return &PipelineStore{
		svc:      svc,
		projects: projects,
		cache:    newKeyed(model.Pipeline.Clone),
	}
}

// Get returns a pipeline, fetching it on first use.
func (s *PipelineStore) Get(ctx context.Context, project, name string) (model.Pipeline, error) {
	if pip, ok := s.cache.get(childKey(project, name)); ok {
		return pip, nil
	}
	return s.Resync(ctx, project, name)
}

// Resync refetches a pipeline.
func (s *PipelineStore) Resync(ctx context.Context, project, name string) (model.Pipeline, error) {
	return s.cache.fetch(ctx, childKey(project, name), func(ctx context.Context) (model.Pipeline, error) {
		pip, err := s.svc.GetPipeline(ctx, project, name)
		if err != nil {
			return model.Pipeline{}, err
		}
		return *pip, nil
	})
}

// Update updates the pipeline named oldName.
func (s *PipelineStore) Update(ctx context.Context, project, oldName string, pip model.Pipeline) (model.Pipeline, error) {
	if s.projects.ExternallyChanged(project) {
		return model.Pipeline{}, ErrExternallyChanged
	}
	updated, err := s.svc.UpdatePipeline(ctx, project, oldName, pip)
	if err != nil {
		return model.Pipeline{}, err
	}
	if updated.ProjectKey == "" {
		updated.ProjectKey = project
	}

	s.cache.move(childKey(project, oldName), childKey(project, updated.Name), *updated)
	if updated.Name != oldName {
		s.projects.RenamePipeline(project, oldName, updated.Name)
	}
	return updated.Clone(), nil
}

// Delete deletes a pipeline.
func (s *PipelineStore) Delete(ctx context.Context, project, name string) error {
	if s.projects.ExternallyChanged(project) {
		return ErrExternallyChanged
	}
	if err := s.svc.DeletePipeline(ctx, project, name); err != nil {
		return err
	}
	s.cache.remove(childKey(project, name))
	s.projects.RemovePipeline(project, name)
	return nil
}

// Subscribe calls fn with the cached pipelines, keyed project/name, and on
// every change. fn must not modify the map.
func (s *PipelineStore) Subscribe(fn func(map[string]model.Pipeline)) (cancel func()) {
	return s.cache.items.Subscribe(fn)
}
