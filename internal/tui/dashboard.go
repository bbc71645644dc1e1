package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/database"
	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/util"
)

// dashboardRuns is how many recent runs the dashboard lists.
const dashboardRuns = 5

type domainStock struct {
	items int
	lots  int
	value decimal.Decimal
}

type eventStatus struct {
	event *models.Event
	ready int
	total int
	err   string
}

type dashboardData struct {
	ingredients domainStock
	materials   domainStock
	upcoming    []eventStatus
	recent      []*models.RunSummary
	stats       *database.Stats
}

// atRisk counts upcoming events with targets that cannot yet be assembled.
func (d dashboardData) atRisk() int {
	n := 0
	for _, e := range d.upcoming {
		if e.err != "" || e.ready < e.total {
			n++
		}
	}
	return n
}

type dashboardLoadedMsg struct {
	data dashboardData
	err  error
}

// loadDashboard gathers stock totals, upcoming event readiness and the
// latest runs.
func (a *App) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var data dashboardData
		var err error

		if data.ingredients, err = a.domainStock(ctx, models.DomainIngredient); err != nil {
			return dashboardLoadedMsg{err: err}
		}
		if data.materials, err = a.domainStock(ctx, models.DomainMaterial); err != nil {
			return dashboardLoadedMsg{err: err}
		}

		events, err := a.svcs.Planning.ListUpcomingEvents(ctx)
		if err != nil {
			return dashboardLoadedMsg{err: err}
		}
		for _, e := range events {
			status := eventStatus{event: e}
			results, err := a.svcs.Planning.CheckFeasibility(ctx, e.ID)
			if err != nil {
				status.err = err.Error()
			}
			for _, r := range results {
				status.total++
				if r.CanAssemble {
					status.ready++
				}
			}
			data.upcoming = append(data.upcoming, status)
		}

		if data.recent, err = a.svcs.Production.ListRecentRuns(ctx, dashboardRuns); err != nil {
			return dashboardLoadedMsg{err: err}
		}

		if data.stats, err = a.db.GetStats(ctx); err != nil {
			return dashboardLoadedMsg{err: err}
		}

		return dashboardLoadedMsg{data: data}
	}
}

func (a *App) domainStock(ctx context.Context, domain models.InventoryDomain) (domainStock, error) {
	summaries, err := a.svcs.Inventory.StockSummaries(ctx, domain)
	if err != nil {
		return domainStock{}, err
	}
	ds := domainStock{items: len(summaries), value: decimal.Zero}
	for _, s := range summaries {
		ds.lots += s.LotCount
		ds.value = ds.value.Add(s.Value)
	}
	return ds, nil
}

// renderDashboard renders the overview panels.
func (a *App) renderDashboard(width int) string {
	d := a.dashboard
	currency := a.config.Business.Currency

	panelWidth := width
	if GetBreakpoint(width) == BreakpointWide {
		panelWidth = (width - 2) / 2
	}

	var stock strings.Builder
	for _, row := range []struct {
		label string
		ds    domainStock
	}{
		{"Ingredients", d.ingredients},
		{"Packaging", d.materials},
	} {
		stock.WriteString(a.theme.Label.Render(fmt.Sprintf("%-12s", row.label)))
		stock.WriteString(a.theme.Value.Render(fmt.Sprintf("%3d items %3d lots  %s %s",
			row.ds.items, row.ds.lots, row.ds.value.StringFixed(2), currency)))
		stock.WriteString("\n")
	}
	total := d.ingredients.value.Add(d.materials.value)
	stock.WriteString(a.theme.Label.Render(fmt.Sprintf("%-12s", "Total")))
	stock.WriteString(a.theme.Accent.Render(total.StringFixed(2) + " " + currency))

	var events strings.Builder
	if len(d.upcoming) == 0 {
		events.WriteString(a.theme.Muted.Render("No upcoming events"))
	}
	barWidth := 12
	nameWidth := max(panelWidth-barWidth-24, 8)
	for i, s := range d.upcoming {
		if i > 0 {
			events.WriteString("\n")
		}
		when := util.RelativeDayString(s.event.EventDate, a.clock.Now())
		events.WriteString(a.theme.Value.Render(PadRight(Truncate(s.event.Name, nameWidth), nameWidth)))
		events.WriteString(" ")
		events.WriteString(a.theme.Label.Render(PadRight(when, 12)))
		switch {
		case s.err != "":
			events.WriteString(a.theme.Error.Render("error"))
		case s.total == 0:
			events.WriteString(a.theme.Muted.Render("no targets"))
		default:
			events.WriteString(a.theme.ProgressBar(float64(s.ready), float64(s.total), barWidth))
			events.WriteString(fmt.Sprintf(" %d/%d", s.ready, s.total))
		}
	}

	var runs strings.Builder
	if len(d.recent) == 0 {
		runs.WriteString(a.theme.Muted.Render("Nothing baked yet"))
	}
	for i, r := range d.recent {
		if i > 0 {
			runs.WriteString("\n")
		}
		verb := "baked"
		if r.Kind == "assembly" {
			verb = "assembled"
		}
		runs.WriteString(a.theme.Label.Render(util.FormatDateTime(r.At) + "  "))
		runs.WriteString(a.theme.Value.Render(fmt.Sprintf("%s %d %s", verb, r.Quantity, r.Name)))
	}

	var data strings.Builder
	if st := d.stats; st != nil {
		data.WriteString(a.theme.Label.Render("Schema   ") + a.theme.Value.Render(fmt.Sprintf("v%d (%s)", st.SchemaVersion, st.JournalMode)))
		data.WriteString("\n")
		backup := "never"
		if !st.LastBackup.IsZero() {
			backup = util.FormatDateTime(st.LastBackup)
		}
		data.WriteString(a.theme.Label.Render("Backup   ") + a.theme.Value.Render(backup))
	}

	var b strings.Builder
	b.WriteString(a.theme.Title.Render("═══ " + strings.ToUpper(a.config.Business.Name) + " ═══"))
	b.WriteString("\n\n")
	b.WriteString(SideBySide(
		a.theme.Panel("STOCK ON HAND", stock.String(), panelWidth),
		a.theme.Panel("UPCOMING EVENTS", events.String(), panelWidth),
		width, 2))
	b.WriteString("\n")
	b.WriteString(SideBySide(
		a.theme.Panel("RECENT RUNS", runs.String(), panelWidth),
		a.theme.Panel("DATA", data.String(), panelWidth),
		width, 2))

	return b.String()
}
