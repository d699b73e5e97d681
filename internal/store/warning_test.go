package store

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/morrisclay/cds-console/internal/model"
)

func TestBuildWarningUIGrouping(t *testing.T) {
	warnings := []model.Warning{
		{ID: 1, Key: "PRJ", PipelineName: "build", Type: "MISSING_PARAMETER"},
		{ID: 2, Key: "PRJ", PipelineName: "build", ApplicationName: "web", ActionName: "Script", Type: "MISSING_VARIABLE"},
		{ID: 3, Key: "PRJ", EnvironmentName: "prod", Type: "UNUSED_VARIABLE"},
	}

	ui := BuildWarningUI(warnings)

	if len(ui) != 1 {
		t.Fatalf("projects = %d, want 1", len(ui))
	}
	prj, ok := ui["PRJ"]
	if !ok {
		t.Fatal("missing PRJ entry")
	}
	if len(prj.Pipelines) != 1 || len(prj.Pipelines["build"].Parameters) != 1 {
		t.Errorf("Pipelines = %+v", prj.Pipelines)
	}
	if len(prj.Applications) != 1 || len(prj.Applications["web"].Actions) != 1 {
		t.Errorf("Applications = %+v", prj.Applications)
	}
	if prj.Applications["web"].Actions[0].ID != 2 {
		t.Errorf("application warning = %+v, want the action warning", prj.Applications["web"].Actions[0])
	}
	if len(prj.Environments) != 1 || len(prj.Environments["prod"]) != 1 {
		t.Errorf("Environments = %+v", prj.Environments)
	}
	if len(prj.Project) != 0 {
		t.Errorf("Project = %+v, want empty", prj.Project)
	}
	if prj.Count() != len(warnings) {
		t.Errorf("Count() = %d, want %d", prj.Count(), len(warnings))
	}
}

func TestBuildWarningUIRules(t *testing.T) {
	tests := []struct {
		name    string
		warning model.Warning
		check   func(model.WarningUI) bool
	}{
		{
			"pipeline job",
			model.Warning{Key: "P", PipelineName: "build", StageID: 3},
			func(ui model.WarningUI) bool { return len(ui.Pipelines["build"].Jobs) == 1 },
		},
		{
			"pipeline parameter",
			model.Warning{Key: "P", PipelineName: "build"},
			func(ui model.WarningUI) bool { return len(ui.Pipelines["build"].Parameters) == 1 },
		},
		{
			"project level",
			model.Warning{Key: "P", Element: "vcs"},
			func(ui model.WarningUI) bool { return len(ui.Project) == 1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ui := BuildWarningUI([]model.Warning{tt.warning})["P"]
			if !tt.check(ui) {
				t.Errorf("BuildWarningUI() = %+v", ui)
			}
			if ui.Count() != 1 {
				t.Errorf("Count() = %d, want 1", ui.Count())
			}
		})
	}
}

func TestBuildWarningUISkipsIgnored(t *testing.T) {
	ui := BuildWarningUI([]model.Warning{
		{Key: "P", EnvironmentName: "prod", Ignored: true},
		{Key: "P", EnvironmentName: "prod"},
	})

	if got := ui["P"].Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

type fakeWarnings struct {
	byProject map[string][]model.Warning
	calls     int
}

func (f *fakeWarnings) ListWarnings(ctx context.Context, key string) ([]model.Warning, error) {
	f.calls++
	return f.byProject[key], nil
}

func TestWarningStoreRebuildsOnLoad(t *testing.T) {
	f := &fakeWarnings{byProject: map[string][]model.Warning{
		"A": {{Key: "A", EnvironmentName: "prod"}},
		"B": {{Key: "B", PipelineName: "build"}, {Key: "B"}},
	}}
	s := NewWarningStore(f, zerolog.Nop())
	ctx := context.Background()

	var latest map[string]model.WarningUI
	cancel := s.Subscribe(func(ui map[string]model.WarningUI) { latest = ui })
	defer cancel()

	s.Warnings(ctx, "A")
	s.Warnings(ctx, "B")
	s.Warnings(ctx, "A")

	if f.calls != 2 {
		t.Errorf("ListWarnings calls = %d, want 2", f.calls)
	}
	if latest["A"].Count() != 1 || latest["B"].Count() != 2 {
		t.Errorf("aggregation = %+v", latest)
	}

	// A push refresh replaces the project's warnings.
	f.byProject["B"] = nil
	if _, err := s.Load(ctx, "B"); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.UI("B").Count() != 0 {
		t.Errorf("UI(B).Count() = %d, want 0", s.UI("B").Count())
	}
	if s.UI("A").Count() != 1 {
		t.Errorf("UI(A).Count() = %d, want 1", s.UI("A").Count())
	}
}
