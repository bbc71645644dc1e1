// Package production provides views for recording bakes and assemblies.
package production

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/services/production"
	"github.com/bakeplan/bakeplan/internal/tui/components"
	"github.com/bakeplan/bakeplan/internal/util"
)

// RecentLimit is how many runs the history shows.
const RecentLimit = 50

// RunsView shows the production and assembly history.
type RunsView struct {
	service *production.Service
	table   *components.Table
	runs    []*models.RunSummary
	loading bool
	err     error
}

// NewRunsView creates a new runs view.
func NewRunsView(service *production.Service) *RunsView {
	table := components.NewTable([]components.Column{
		{Title: "When", Width: 16, Priority: 3},
		{Title: "Kind", Width: 8, Priority: 2},
		{Title: "Item", Width: 26, Weight: 1, Priority: 5},
		{Title: "Qty", Width: 5, Align: lipgloss.Right, Priority: 4},
		{Title: "Cost", Width: 10, Align: lipgloss.Right, Priority: 1},
	})
	table.SetVisibleRows(20)
	table.Focus(true)

	return &RunsView{
		service: service,
		table:   table,
	}
}

// SetVisibleRows sets the number of visible table rows.
func (v *RunsView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// Load fetches the most recent runs.
func (v *RunsView) Load(ctx context.Context) error {
	v.loading = true
	v.err = nil

	runs, err := v.service.ListRecentRuns(ctx, RecentLimit)
	v.loading = false
	if err != nil {
		v.err = err
		return err
	}
	v.setRuns(runs)
	return nil
}

func (v *RunsView) setRuns(runs []*models.RunSummary) {
	v.runs = runs

	rows := make([][]string, len(runs))
	for i, r := range runs {
		kind := "bake"
		if r.Kind == "assembly" {
			kind = "assemble"
		}
		rows[i] = []string{
			util.FormatDateTime(r.At),
			kind,
			r.Name,
			fmt.Sprintf("%d", r.Quantity),
			"$" + r.Cost.StringFixed(2),
		}
	}
	v.table.SetRows(rows)
}

// Runs returns the loaded runs, newest first.
func (v *RunsView) Runs() []*models.RunSummary {
	return v.runs
}

// RecordProduction records a bake and reloads the history.
func (v *RunsView) RecordProduction(ctx context.Context, input production.ProductionInput) (*models.ProductionRun, error) {
	run, err := v.service.RecordProductionRun(ctx, input)
	if err != nil {
		return nil, err
	}
	return run, v.Load(ctx)
}

// RecordAssembly records an assembly and reloads the history.
func (v *RunsView) RecordAssembly(ctx context.Context, input production.AssemblyInput) (*models.AssemblyRun, error) {
	run, err := v.service.RecordAssemblyRun(ctx, input)
	if err != nil {
		return nil, err
	}
	return run, v.Load(ctx)
}

// MoveUp moves the selection up.
func (v *RunsView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *RunsView) MoveDown() {
	v.table.MoveDown()
}

// Render renders the run history.
func (v *RunsView) Render(width, height int) string {
	s := components.DefaultStyles()
	var b strings.Builder

	b.WriteString(s.Title.Render("=== PRODUCTION ==="))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(s.Label.Render("Loading..."))
	case v.table.Empty():
		b.WriteString(s.Label.Render("Nothing baked yet."))
	default:
		b.WriteString(v.table.RenderResponsive(width))
	}
	b.WriteString("\n\n")

	b.WriteString(s.Help.Render(components.HelpText(width,
		"Up/Down:Select  p:Record Bake  a:Record Assembly",
		"p:Bake  a:Assemble")))

	return b.String()
}

// ErrorMessage formats a run error for a form. Shortfalls are listed one
// per line.
func ErrorMessage(err error) string {
	var short *models.InsufficientInventoryError
	if !errors.As(err, &short) {
		return err.Error()
	}

	lines := []string{"not enough stock for " + short.Operation}
	for _, sf := range short.Shortfalls {
		name := sf.ItemName
		if name == "" {
			name = sf.ItemID
		}
		lines = append(lines, fmt.Sprintf("  %s: need %s, have %s", name, sf.Needed.String(), sf.Available.String()))
	}
	return strings.Join(lines, "\n")
}
