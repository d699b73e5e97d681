package components

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func titles(m SearchListModel) []string {
	var out []string
	for _, it := range m.list.Items() {
		out = append(out, it.(SearchListItem).Title())
	}
	return out
}

func TestSearchListFavoritesFirst(t *testing.T) {
	m := NewSearchList("Projects", []SearchListItem{
		NewSearchListItem("ALPHA", "Alpha", "ALPHA"),
		NewSearchListItem("BETA", "Beta", "BETA").WithFavorite(true),
		NewSearchListItem("GAMMA", "Gamma", "GAMMA"),
		NewSearchListItem("DELTA", "Delta", "DELTA").WithFavorite(true),
	})

	want := []string{"★ BETA", "★ DELTA", "ALPHA", "GAMMA"}
	got := titles(m)
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("items = %v, want %v", got, want)
			break
		}
	}

	m2, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sel := m2.(SearchListModel).Selected()
	if sel == nil || sel.Value() != "BETA" || sel.Key() != "BETA" || !sel.Favorite() {
		t.Errorf("Selected() = %+v, want favorite BETA", sel)
	}
}

func TestSearchListFilterRanksKeyPrefix(t *testing.T) {
	items := []SearchListItem{
		NewSearchListItem("WEB", "Front for the API", "WEB"),
		NewSearchListItem("API", "Backend", "API"),
		NewSearchListItem("OPS", "Tooling", "OPS"),
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"WEB", "API", "OPS"}},
		{"api", []string{"API", "WEB"}},
		{"tool", []string{"OPS"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := filterSearchItems(items, tt.query)
			if len(got) != len(tt.want) {
				t.Fatalf("filterSearchItems(%q) = %d items, want %v", tt.query, len(got), tt.want)
			}
			for i, it := range got {
				if it.Key() != tt.want[i] {
					t.Errorf("item %d = %s, want %s", i, it.Key(), tt.want[i])
				}
			}
		})
	}
}

func TestSearchListFilterMode(t *testing.T) {
	var m tea.Model = NewSearchList("Projects", []SearchListItem{
		NewSearchListItem("WEB", "Front", "WEB"),
		NewSearchListItem("API", "Backend", "API"),
	})

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	for _, r := range "ap" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if got := titles(m.(SearchListModel)); len(got) != 1 || got[0] != "API" {
		t.Fatalf("filtered items = %v, want [API]", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := titles(m.(SearchListModel)); len(got) != 2 {
		t.Errorf("items after clearing the filter = %v", got)
	}
	if m.(SearchListModel).Cancelled() {
		t.Error("leaving filter mode cancelled the list")
	}
}
