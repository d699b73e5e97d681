package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestFitColumns(t *testing.T) {
	long := strings.Repeat("x", 60)
	cols := FitColumns([]string{"KEY", "NAME", "DESCRIPTION"}, [][]string{
		{"PRJ", "Project", long},
		{"LONGERKEY", "Ünïcode", ""},
	})

	want := []TableColumn{
		{Title: "KEY", Width: 9},
		{Title: "NAME", Width: 7},
		{Title: "DESCRIPTION", Width: MaxColumnWidth},
	}
	for i, c := range cols {
		if c != want[i] {
			t.Errorf("column %d = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestListTablePositionAndSelection(t *testing.T) {
	rows := [][]string{{"A", "first"}, {"B", "second"}, {"C", "third"}}
	var m tea.Model = NewListTable("Projects", []string{"KEY", "NAME"}, rows)

	if got := m.(TableModel).Position(); got != "1/3" {
		t.Errorf("Position() = %q, want 1/3", got)
	}
	if !strings.Contains(m.View(), "1/3") {
		t.Errorf("view has no position:\n%s", m.View())
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := m.(TableModel).Position(); got != "2/3" {
		t.Errorf("Position() after down = %q, want 2/3", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	tm := m.(TableModel)
	if tm.Cancelled() || len(tm.Selected()) != 2 || tm.Selected()[0] != "B" {
		t.Errorf("Selected() = %v, want row B", tm.Selected())
	}
}

func TestTableCancel(t *testing.T) {
	var m tea.Model = NewListTable("", []string{"KEY"}, [][]string{{"A"}})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !m.(TableModel).Cancelled() || m.(TableModel).Selected() != nil {
		t.Error("esc did not cancel")
	}
	if cmd == nil {
		t.Fatal("esc did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc did not quit")
	}
	if got := NewListTable("", []string{"KEY"}, nil).Position(); got != "0/0" {
		t.Errorf("empty Position() = %q", got)
	}
}
