package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/morrisclay/cds-console/internal/cell"
	"github.com/morrisclay/cds-console/internal/model"
)

// BuildWarningUI groups warnings by project, then by the element they
// concern. Ignored warnings are skipped.
//
// A warning naming an application belongs to that application, even when
// it also names a pipeline. Pipeline warnings concerning a stage or an
// action are job warnings, the others are parameter warnings.
func BuildWarningUI(warnings []model.Warning) map[string]model.WarningUI {
	out := make(map[string]model.WarningUI)
	for _, w := range warnings {
		if w.Ignored {
			continue
		}
		ui, ok := out[w.Key]
		if !ok {
			ui = model.NewWarningUI()
		}

		switch {
		case w.ApplicationName != "":
			app := ui.Applications[w.ApplicationName]
			app.Actions = append(app.Actions, w)
			ui.Applications[w.ApplicationName] = app
		case w.PipelineName != "":
			pip := ui.Pipelines[w.PipelineName]
			if w.StageID != 0 || w.ActionName != "" {
				pip.Jobs = append(pip.Jobs, w)
			} else {
				pip.Parameters = append(pip.Parameters, w)
			}
			ui.Pipelines[w.PipelineName] = pip
		case w.EnvironmentName != "":
			ui.Environments[w.EnvironmentName] = append(ui.Environments[w.EnvironmentName], w)
		default:
			ui.Project = append(ui.Project, w)
		}
		out[w.Key] = ui
	}
	return out
}

// WarningStore caches the warnings of each project and their aggregation.
type WarningStore struct {
	svc    WarningService
	logger zerolog.Logger

	mu        sync.Mutex
	byProject map[string][]model.Warning
	ui        *cell.Cell[map[string]model.WarningUI]
	flight    singleflight.Group
}

// NewWarningStore creates an empty warning store.
func NewWarningStore(svc WarningService, logger zerolog.Logger) *WarningStore {
	return &WarningStore{
		svc:       svc,
		logger:    logger.With().Str("store", "warning").Logger(),
		byProject: make(map[string][]model.Warning),
		ui:        cell.Empty[map[string]model.WarningUI](),
	}
}

// Warnings returns the warnings of a project, fetching them on first use.
func (s *WarningStore) Warnings(ctx context.Context, key string) ([]model.Warning, error) {
	s.mu.Lock()
	ws, ok := s.byProject[key]
	s.mu.Unlock()
	if ok {
		return append([]model.Warning(nil), ws...), nil
	}
	return s.Load(ctx, key)
}

// Load refetches the warnings of a project and rebuilds the aggregation.
func (s *WarningStore) Load(ctx context.Context, key string) ([]model.Warning, error) {
	v, _, err := share(ctx, &s.flight, key, func(ctx context.Context) (any, error) {
		ws, err := s.svc.ListWarnings(ctx, key)
		if err != nil {
			return nil, err
		}
		s.Set(key, ws)
		return ws, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]model.Warning(nil), v.([]model.Warning)...), nil
}

// Set replaces the warnings of a project and rebuilds the aggregation from
// scratch.
func (s *WarningStore) Set(key string, ws []model.Warning) {
	s.ui.Update(func(map[string]model.WarningUI, bool) map[string]model.WarningUI {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.byProject[key] = append([]model.Warning(nil), ws...)
		var all []model.Warning
		for _, pws := range s.byProject {
			all = append(all, pws...)
		}
		return BuildWarningUI(all)
	})
	s.logger.Debug().Str("project", key).Int("count", len(ws)).Msg("warnings updated")
}

// UI returns the aggregation of project key.
func (s *WarningStore) UI(key string) model.WarningUI {
	all, _ := s.ui.Value()
	if ui, ok := all[key]; ok {
		return ui
	}
	return model.NewWarningUI()
}

// Subscribe calls fn with the aggregation of every loaded project, and on
// every change. fn must not modify the map.
func (s *WarningStore) Subscribe(fn func(map[string]model.WarningUI)) (cancel func()) {
	return s.ui.Subscribe(fn)
}
