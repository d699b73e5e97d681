package components

import (
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morrisclay/cds-console/internal/tui"
)

// TableModel is an interactive table component.
type TableModel struct {
	table     table.Model
	title     string
	done      bool
	cancelled bool
	selected  table.Row
	showHelp  bool
}

// TableColumn defines a column in the table.
type TableColumn struct {
	Title string
	Width int
}

// MaxColumnWidth caps the width computed for a column; longer cells are
// cut by the table.
const MaxColumnWidth = 40

// FitColumns sizes one column per header to its widest cell, capped at
// MaxColumnWidth.
func FitColumns(headers []string, rows [][]string) []TableColumn {
	columns := make([]TableColumn, len(headers))
	for i, h := range headers {
		columns[i] = TableColumn{Title: h, Width: utf8.RuneCountInString(h)}
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(columns) {
				columns[i].Width = max(columns[i].Width, utf8.RuneCountInString(cell))
			}
		}
	}
	for i := range columns {
		columns[i].Width = min(columns[i].Width, MaxColumnWidth)
	}
	return columns
}

// NewTable creates a new interactive table.
func NewTable(title string, columns []TableColumn, rows []table.Row) TableModel {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	// Apply custom styles
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(tui.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(tui.ColorPrimary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(tui.ColorPrimary).
		Bold(true)
	s.Cell = s.Cell.
		Foreground(lipgloss.Color("#FFFFFF"))
	t.SetStyles(s)

	return TableModel{
		table: t,
		title: title,
	}
}

// WithHeight sets the table height.
func (m TableModel) WithHeight(height int) TableModel {
	m.table.SetHeight(height)
	return m
}

// Init implements tea.Model.
func (m TableModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width - 4)
		m.table.SetHeight(min(m.table.Height(), msg.Height-8))

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("?"))):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			m.selected = m.table.SelectedRow()
			m.done = true
			return m, tea.Quit

		case key.Matches(msg, key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"))):
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m TableModel) View() string {
	if m.done {
		return ""
	}

	var s string

	// Title
	if m.title != "" {
		s += tui.TitleStyle.Render(m.title) + "\n\n"
	}

	// Table
	s += m.table.View() + "\n"
	s += tui.HelpStyle.Render(m.Position()) + "\n\n"

	// Help
	if m.showHelp {
		s += tui.HelpStyle.Render("↑/k up  ↓/j down  enter show details  esc quit  ? toggle help")
	} else {
		s += tui.HelpStyle.Render("↑↓ navigate  enter show  ? help")
	}

	return s
}

// Position reports the highlighted row as "row/total".
func (m TableModel) Position() string {
	total := len(m.table.Rows())
	if total == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", m.table.Cursor()+1, total)
}

// Selected returns the selected row, if any.
func (m TableModel) Selected() table.Row {
	return m.selected
}

// Cancelled returns whether the selection was cancelled.
func (m TableModel) Cancelled() bool {
	return m.cancelled
}

// NewListTable creates a table for a list of rows, with the columns fitted
// to the content.
func NewListTable(title string, headers []string, rows [][]string) TableModel {
	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = row
	}
	return NewTable(title, FitColumns(headers, rows), tableRows).WithHeight(min(len(rows)+2, 15))
}

// RunTableInline runs a list table without alt screen (inline in terminal)
// and returns the row chosen with enter, or nil when cancelled.
func RunTableInline(title string, headers []string, rows [][]string) (table.Row, error) {
	p := tea.NewProgram(NewListTable(title, headers, rows))

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	if tm, ok := finalModel.(TableModel); ok {
		if tm.Cancelled() {
			return nil, nil
		}
		return tm.Selected(), nil
	}

	return nil, nil
}
