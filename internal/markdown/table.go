package markdown

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rogersnm/docsync/internal/outline"
	"github.com/rogersnm/docsync/internal/search"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cellStyle      = lipgloss.NewStyle()
)

// RenderCollectionTable lists remote collections, marking the ones present
// in the config.
func RenderCollectionTable(cols []outline.Collection, configured map[string]bool) string {
	if len(cols) == 0 {
		return "No collections found."
	}
	rows := make([][]string, len(cols))
	for i, c := range cols {
		mark := ""
		if configured[c.ID] {
			mark = "yes"
		}
		rows[i] = []string{c.ID, c.Name, c.URLID, mark}
	}
	return RenderTable([]string{"ID", "Name", "URL ID", "Configured"}, rows)
}

func RenderSearchTable(results []search.Result) string {
	if len(results) == 0 {
		return "No results found."
	}
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{r.Collection, r.Title, r.Path, r.Snippet}
	}
	return RenderTable([]string{"Collection", "Title", "Path", "Snippet"}, rows)
}

func RenderTable(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerRowStyle
			}
			return cellStyle
		})
	return t.Render()
}
