package components

import (
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/morrisclay/cds-console/internal/tui"
)

// FavoriteMarker prefixes the title of favorite items.
const FavoriteMarker = "★ "

// SearchListItem represents an item in the searchable list.
type SearchListItem struct {
	title       string
	description string
	value       any
	favorite    bool
}

// NewSearchListItem creates a new list item.
func NewSearchListItem(title, description string, value any) SearchListItem {
	return SearchListItem{
		title:       title,
		description: description,
		value:       value,
	}
}

// WithFavorite marks the item as one of the user's favorites. Favorites
// are listed first and carry FavoriteMarker.
func (i SearchListItem) WithFavorite(favorite bool) SearchListItem {
	i.favorite = favorite
	return i
}

// Favorite reports whether the item is a favorite.
func (i SearchListItem) Favorite() bool { return i.favorite }

// FilterValue implements list.Item.
func (i SearchListItem) FilterValue() string { return i.title + " " + i.description }

// Title returns the item title, marked when the item is a favorite.
func (i SearchListItem) Title() string {
	if i.favorite {
		return FavoriteMarker + i.title
	}
	return i.title
}

// Key returns the unmarked title.
func (i SearchListItem) Key() string { return i.title }

// Description returns the item description.
func (i SearchListItem) Description() string { return i.description }

// Value returns the item's associated value.
func (i SearchListItem) Value() any { return i.value }

// SearchListModel is a searchable list component.
type SearchListModel struct {
	list       list.Model
	filterMode bool
	filter     textinput.Model
	title      string
	items      []SearchListItem
	selected   *SearchListItem
	done       bool
	cancelled  bool
	width      int
	height     int
}

// NewSearchList creates a new searchable list. Favorites come first; the
// order is otherwise kept.
func NewSearchList(title string, items []SearchListItem) SearchListModel {
	items = append([]SearchListItem(nil), items...)
	sort.SliceStable(items, func(a, b int) bool {
		return items[a].favorite && !items[b].favorite
	})
	listItems := toListItems(items)

	// Create delegate with custom styling
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(tui.ColorPrimary).
		BorderLeftForeground(tui.ColorPrimary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(tui.ColorMuted).
		BorderLeftForeground(tui.ColorPrimary)

	l := list.New(listItems, delegate, 40, 15)
	l.Title = title
	l.Styles.Title = tui.TitleStyle
	l.SetShowStatusBar(true)
	// Filtering is handled by the model so that it also matches descriptions.
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)

	// Create filter input
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.Width = 30
	ti.PromptStyle = tui.PromptStyle
	ti.TextStyle = lipgloss.NewStyle()

	return SearchListModel{
		list:   l,
		filter: ti,
		title:  title,
		items:  items,
		width:  40,
		height: 15,
	}
}

// Init implements tea.Model.
func (m SearchListModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m SearchListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-4)

	case tea.KeyMsg:
		if m.filterMode {
			switch msg.String() {
			case "esc":
				m.filterMode = false
				m.filter.SetValue("")
				m.filterItems("")
			case "enter":
				m.filterMode = false
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				cmds = append(cmds, cmd)
				m.filterItems(m.filter.Value())
			}
			return m, tea.Batch(cmds...)
		}

		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("/"))):
			m.filterMode = true
			m.filter.Focus()
			return m, textinput.Blink

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if item, ok := m.list.SelectedItem().(SearchListItem); ok {
				m.selected = &item
				m.done = true
				return m, tea.Quit
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			m.cancelled = true
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))):
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// filterItems keeps the items matching query. Items whose key starts with
// the query are listed before the other matches, so typing a project key
// puts that project on top.
func (m *SearchListModel) filterItems(query string) {
	m.list.SetItems(toListItems(filterSearchItems(m.items, query)))
	m.list.ResetSelected()
}

func filterSearchItems(items []SearchListItem, query string) []SearchListItem {
	if query == "" {
		return items
	}
	query = strings.ToLower(query)
	var prefix, other []SearchListItem
	for _, item := range items {
		switch {
		case strings.HasPrefix(strings.ToLower(item.title), query):
			prefix = append(prefix, item)
		case strings.Contains(strings.ToLower(item.FilterValue()), query):
			other = append(other, item)
		}
	}
	return append(prefix, other...)
}

func toListItems(items []SearchListItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// View implements tea.Model.
func (m SearchListModel) View() string {
	if m.done {
		return ""
	}

	var s strings.Builder

	if m.filterMode {
		s.WriteString("Filter: ")
		s.WriteString(m.filter.View())
		s.WriteString("\n\n")
	}

	s.WriteString(m.list.View())

	return s.String()
}

// Selected returns the selected item, if any.
func (m SearchListModel) Selected() *SearchListItem {
	return m.selected
}

// Done returns whether the list selection is complete.
func (m SearchListModel) Done() bool {
	return m.done
}

// Cancelled returns whether the selection was cancelled.
func (m SearchListModel) Cancelled() bool {
	return m.cancelled
}

// RunSearchList runs a searchable list and returns the selected item.
func RunSearchList(title string, items []SearchListItem) (*SearchListItem, error) {
	m := NewSearchList(title, items)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	if sm, ok := finalModel.(SearchListModel); ok {
		if sm.Cancelled() {
			return nil, nil
		}
		return sm.Selected(), nil
	}

	return nil, nil
}
