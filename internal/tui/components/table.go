// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	// Width is the minimum width, and the fixed width when Weight is zero.
	Width int
	Align lipgloss.Position
	// Weight shares out spare width between flexible columns.
	Weight float64
	// Priority decides drop order on narrow terminals (lower goes first).
	Priority int
}

const (
	separatorWidth = 3 // " | "
	rowPadding     = 2
)

// Table is a simple selectable table.
type Table struct {
	columns     []Column
	rows        [][]string
	selected    int
	offset      int
	visibleRows int
	focused     bool

	// Styles
	headerStyle   lipgloss.Style
	rowStyle      lipgloss.Style
	rowAltStyle   lipgloss.Style
	selectedStyle lipgloss.Style
	borderStyle   lipgloss.Style

	// Pagination
	currentPage int
	totalPages  int
	totalRows   int
}

// NewTable creates a new table with the given columns.
func NewTable(columns []Column) *Table {
	return &Table{
		columns:       columns,
		rows:          [][]string{},
		visibleRows:   10,
		headerStyle:   lipgloss.NewStyle().Bold(true).Foreground(ColorTitle),
		rowStyle:      lipgloss.NewStyle().Foreground(ColorText),
		rowAltStyle:   lipgloss.NewStyle().Foreground(ColorLabel),
		selectedStyle: lipgloss.NewStyle().Background(ColorTitle).Foreground(ColorInverse),
		borderStyle:   lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// SetRows replaces the table data and clamps the selection.
func (t *Table) SetRows(rows [][]string) {
	t.rows = rows
	if t.selected >= len(rows) {
		t.selected = len(rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	if t.offset > t.selected {
		t.offset = t.selected
	}
}

// SetPagination sets pagination info.
func (t *Table) SetPagination(page, totalPages, totalRows int) {
	t.currentPage = page
	t.totalPages = totalPages
	t.totalRows = totalRows
}

// SetVisibleRows sets the number of visible rows.
func (t *Table) SetVisibleRows(n int) {
	if n < 1 {
		n = 1
	}
	t.visibleRows = n
}

// Focus sets the table focus state.
func (t *Table) Focus(focused bool) {
	t.focused = focused
}

// Selected returns the currently selected row index.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the currently selected row data.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// MoveUp moves the selection up.
func (t *Table) MoveUp() {
	if t.selected > 0 {
		t.selected--
		if t.selected < t.offset {
			t.offset = t.selected
		}
	}
}

// MoveDown moves the selection down.
func (t *Table) MoveDown() {
	if t.selected < len(t.rows)-1 {
		t.selected++
		if t.selected >= t.offset+t.visibleRows {
			t.offset = t.selected - t.visibleRows + 1
		}
	}
}

// PageUp moves up one page.
func (t *Table) PageUp() {
	t.selected -= t.visibleRows
	if t.selected < 0 {
		t.selected = 0
	}
	t.offset = t.selected
}

// PageDown moves down one page.
func (t *Table) PageDown() {
	t.selected += t.visibleRows
	if t.selected >= len(t.rows) {
		t.selected = len(t.rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	t.offset = t.selected - t.visibleRows + 1
	if t.offset < 0 {
		t.offset = 0
	}
}

// GoToTop goes to the first row.
func (t *Table) GoToTop() {
	t.selected = 0
	t.offset = 0
}

// GoToBottom goes to the last row.
func (t *Table) GoToBottom() {
	if len(t.rows) > 0 {
		t.selected = len(t.rows) - 1
		t.offset = t.selected - t.visibleRows + 1
		if t.offset < 0 {
			t.offset = 0
		}
	}
}

// Render renders the table at its columns' fixed widths.
func (t *Table) Render() string {
	return t.RenderResponsive(0)
}

// RenderResponsive renders the table fitted to width. Columns that do not
// fit are dropped lowest priority first. A width of 0 uses fixed widths.
func (t *Table) RenderResponsive(width int) string {
	widths := t.computeWidths(width)

	totalWidth := rowPadding
	visible := 0
	for _, w := range widths {
		if w > 0 {
			totalWidth += w
			visible++
		}
	}
	if visible > 1 {
		totalWidth += (visible - 1) * separatorWidth
	}

	var b strings.Builder

	b.WriteString(t.renderRow(t.headers(), widths, t.headerStyle))
	b.WriteString("\n")
	b.WriteString(t.borderStyle.Render(strings.Repeat("-", totalWidth)))
	b.WriteString("\n")

	endIdx := t.offset + t.visibleRows
	if endIdx > len(t.rows) {
		endIdx = len(t.rows)
	}

	for i := t.offset; i < endIdx; i++ {
		style := t.rowStyle
		switch {
		case i == t.selected && t.focused:
			style = t.selectedStyle
		case (i-t.offset)%2 == 1:
			style = t.rowAltStyle
		}
		b.WriteString(t.renderRow(t.rows[i], widths, style))
		b.WriteString("\n")
	}

	if t.totalPages > 0 {
		b.WriteString(t.borderStyle.Render(strings.Repeat("-", totalWidth)))
		b.WriteString("\n")
		b.WriteString(t.borderStyle.Render(fmt.Sprintf("Page %d/%d | %d total", t.currentPage, t.totalPages, t.totalRows)))
	}

	return b.String()
}

// computeWidths returns the rendered width of every column, 0 for dropped
// columns. Flexible columns split the spare width by weight.
func (t *Table) computeWidths(available int) []int {
	widths := make([]int, len(t.columns))
	if available <= 0 {
		for i, col := range t.columns {
			widths[i] = col.Width
		}
		return widths
	}

	visible := make([]bool, len(t.columns))
	for i := range visible {
		visible[i] = true
	}

	spare := func() (int, float64) {
		used, count, weight := rowPadding, 0, 0.0
		for i, col := range t.columns {
			if !visible[i] {
				continue
			}
			used += col.Width
			count++
			weight += col.Weight
		}
		if count > 1 {
			used += (count - 1) * separatorWidth
		}
		return available - used, weight
	}

	remaining, totalWeight := spare()
	for remaining < 0 {
		drop := -1
		count := 0
		for i, col := range t.columns {
			if !visible[i] {
				continue
			}
			count++
			if drop < 0 || col.Priority < t.columns[drop].Priority {
				drop = i
			}
		}
		if count <= 1 {
			break
		}
		visible[drop] = false
		remaining, totalWeight = spare()
	}
	if remaining < 0 {
		remaining = 0
	}

	for i, col := range t.columns {
		if !visible[i] {
			continue
		}
		widths[i] = col.Width
		if col.Weight > 0 && totalWeight > 0 {
			widths[i] += int(float64(remaining) * col.Weight / totalWeight)
		}
	}
	return widths
}

func (t *Table) headers() []string {
	headers := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Title
	}
	return headers
}

func (t *Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string

	for i, col := range t.columns {
		w := widths[i]
		if w <= 0 {
			continue
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}

		runes := []rune(cell)
		if len(runes) > w {
			cell = string(runes[:w-1]) + "…"
		}

		pad := w - lipgloss.Width(cell)
		if pad < 0 {
			pad = 0
		}
		switch col.Align {
		case lipgloss.Right:
			cell = strings.Repeat(" ", pad) + cell
		case lipgloss.Center:
			left := pad / 2
			cell = strings.Repeat(" ", left) + cell + strings.Repeat(" ", pad-left)
		default:
			cell += strings.Repeat(" ", pad)
		}

		parts = append(parts, style.Render(cell))
	}

	return " " + strings.Join(parts, " | ") + " "
}

// Empty returns true if the table has no rows.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}
