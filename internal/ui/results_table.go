package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/ansi"
)

// NullCell is shown for attributes an entity does not carry.
const NullCell = "-"

// ResultsTable renders query results as a numbered path column followed by
// one column per requested attribute.
type ResultsTable struct {
	display *DisplayContext
	columns []string
	rows    [][]string
	start   int
}

// NewResultsTable creates a table with the given attribute columns.
func NewResultsTable(display *DisplayContext, columns []string) *ResultsTable {
	return &ResultsTable{display: display, columns: columns, start: 1}
}

// StartAt sets the number of the first row.
func (t *ResultsTable) StartAt(n int) *ResultsTable {
	t.start = n
	return t
}

// AddRow adds a path and its attribute cells. Empty cells render as NullCell.
func (t *ResultsTable) AddRow(path string, cells ...string) {
	row := make([]string, len(t.columns)+1)
	row[0] = path
	for i := range t.columns {
		row[i+1] = NullCell
		if i < len(cells) && cells[i] != "" {
			row[i+1] = cells[i]
		}
	}
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *ResultsTable) Len() int { return len(t.rows) }

// pathWidth gives the path column whatever the attribute columns leave.
func (t *ResultsTable) pathWidth(numWidth int) int {
	const padding = 2
	used := numWidth + padding
	for i, col := range t.columns {
		w := lipgloss.Width(col)
		for _, row := range t.rows {
			w = max(w, lipgloss.Width(row[i+1]))
		}
		used += min(w, 30) + padding
	}
	return max(t.display.AvailableWidth(MarkdownRenderMargin)-used, 20)
}

// Render generates the table output. An empty table renders as "".
func (t *ResultsTable) Render() string {
	if len(t.rows) == 0 {
		return ""
	}

	numWidth := max(len(strconv.Itoa(t.start+len(t.rows)-1)), 2)
	pathWidth := t.pathWidth(numWidth)

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out := make([]string, 0, len(row)+1)
		out = append(out, strconv.Itoa(t.start+i))
		out = append(out, ansi.Truncate(row[0], pathWidth, "…"))
		for _, cell := range row[1:] {
			out = append(out, ansi.Truncate(cell, 30, "…"))
		}
		rows[i] = out
	}

	headers := append([]string{"#", "path"}, t.columns...)
	last := len(headers) - 1
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		BorderHeader(true).
		BorderStyle(Muted).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle()
			if col < last {
				style = style.PaddingRight(2)
			}
			switch {
			case row == table.HeaderRow:
				return style.Inherit(Bold)
			case col == 0:
				return style.Inherit(Muted).Width(numWidth + 2).Align(lipgloss.Right)
			case col == 1:
				return style.Inherit(Accent)
			}
			if row >= 0 && row < len(rows) && rows[row][col] == NullCell {
				return style.Inherit(Muted)
			}
			return style
		}).
		Rows(rows...)

	return indent(tbl.Render(), MarkdownRenderMargin)
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

// RenderList renders name/description pairs aligned in two columns.
func RenderList(items [][2]string) string {
	width := 0
	for _, it := range items {
		width = max(width, lipgloss.Width(it[0]))
	}
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString("  ")
		sb.WriteString(Accent.Render(it[0]))
		if it[1] != "" {
			sb.WriteString(strings.Repeat(" ", width-lipgloss.Width(it[0])+2))
			sb.WriteString(Muted.Render(it[1]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
