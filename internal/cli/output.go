package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/morrisclay/cds-console/internal/tui/components"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func validFormat(f string) bool {
	return f == formatTable || f == formatJSON || f == formatYAML
}

// isInteractive returns true if stdout is a terminal.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// isInputInteractive returns true if stdin is a terminal.
func isInputInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// withSpinner runs fn behind a spinner when a person is watching the
// terminal, and directly otherwise.
func withSpinner[T any](ctx context.Context, message string, fn func(context.Context) (T, error)) (T, error) {
	if console.format != formatTable || console.out != os.Stdout || !isInteractive() || !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn(ctx)
	}
	return components.RunWithLoading(ctx, message, fn)
}

// writeJSON outputs data as formatted JSON.
func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// writeYAML outputs data as YAML. Values go through JSON first so field
// names follow the API.
func writeYAML(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}

// writeTable outputs rows as an aligned table.
func writeTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string) {
		var b strings.Builder
		for i := range headers {
			if i > 0 {
				b.WriteString("  ")
			}
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			if i == len(headers)-1 {
				b.WriteString(cell)
			} else {
				fmt.Fprintf(&b, "%-*s", widths[i], cell)
			}
		}
		fmt.Fprintln(w, b.String())
	}

	line(headers)
	seps := make([]string, len(widths))
	for i, wd := range widths {
		seps[i] = strings.Repeat("-", wd)
	}
	line(seps)
	for _, row := range rows {
		line(row)
	}
}

// writeFields outputs label/value pairs of a single entity.
func writeFields(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "%-*s  %s\n", width+1, p[0]+":", p[1])
	}
}

// output writes data in the selected format; table uses headers and rows.
func output(data any, headers []string, rows [][]string) error {
	switch console.format {
	case formatJSON:
		return writeJSON(console.out, data)
	case formatYAML:
		return writeYAML(console.out, data)
	}
	writeTable(console.out, headers, rows)
	return nil
}

// outputOne writes a single entity in the selected format.
func outputOne(data any, pairs [][2]string) error {
	switch console.format {
	case formatJSON:
		return writeJSON(console.out, data)
	case formatYAML:
		return writeYAML(console.out, data)
	}
	writeFields(console.out, pairs)
	return nil
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 02, 2006 15:04")
}

// formatUnix formats a unix timestamp for display.
func formatUnix(sec int64) string {
	if sec == 0 {
		return ""
	}
	return formatTime(time.Unix(sec, 0).UTC())
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// outputInteractiveTable outputs data as an interactive table with selection.
// Returns the selected row, or nil if cancelled.
func outputInteractiveTable(title string, headers []string, rows [][]string) (table.Row, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	return components.RunTableInline(title, headers, rows)
}

// outputList shows a list: an interactive table on a terminal in table
// format, the selected format otherwise. The selected row is returned.
func outputList(title string, data any, headers []string, rows [][]string) (table.Row, error) {
	if console.format == formatTable && isInteractive() && console.out == os.Stdout && len(rows) > 0 {
		return outputInteractiveTable(title, headers, rows)
	}
	return nil, output(data, headers, rows)
}
