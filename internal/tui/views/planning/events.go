// Package planning provides the event planning views.
package planning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/services/planning"
	"github.com/bakeplan/bakeplan/internal/tui/components"
	"github.com/bakeplan/bakeplan/internal/util"
)

// EventsView lists events and shows the plan of the selected one.
type EventsView struct {
	service  *planning.Service
	table    *components.Table
	events   []*models.Event
	plan     *models.EventPlan
	loading  bool
	err      error
	now      time.Time
	wasteMax decimal.Decimal
}

// NewEventsView creates a new events view.
func NewEventsView(service *planning.Service) *EventsView {
	table := components.NewTable([]components.Column{
		{Title: "Date", Width: 10, Priority: 4},
		{Title: "Event", Width: 26, Weight: 1, Priority: 5},
		{Title: "When", Width: 12, Priority: 3},
		{Title: "Notes", Width: 30, Weight: 1, Priority: 0},
	})
	table.SetVisibleRows(20)
	table.Focus(true)

	return &EventsView{
		service:  service,
		table:    table,
		now:      time.Now(),
		wasteMax: decimal.NewFromInt(25),
	}
}

// SetNow sets the date event distances are measured from.
func (v *EventsView) SetNow(t time.Time) {
	v.now = t
}

// SetWasteWarning sets the waste percentage above which batches are flagged.
func (v *EventsView) SetWasteWarning(percent float64) {
	v.wasteMax = decimal.NewFromFloat(percent)
}

// SetVisibleRows sets the number of visible table rows.
func (v *EventsView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// Load fetches all events.
func (v *EventsView) Load(ctx context.Context) error {
	v.loading = true
	v.err = nil

	events, err := v.service.ListEvents(ctx)
	v.loading = false
	if err != nil {
		v.err = err
		return err
	}
	v.setEvents(events)
	return nil
}

func (v *EventsView) setEvents(events []*models.Event) {
	v.events = events

	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = []string{
			util.FormatDate(e.EventDate),
			e.Name,
			util.RelativeDayString(e.EventDate, v.now),
			e.Notes,
		}
	}
	v.table.SetRows(rows)
}

// LoadPlan builds the plan for the selected event.
func (v *EventsView) LoadPlan(ctx context.Context) error {
	sel := v.Selected()
	if sel == nil {
		v.plan = nil
		return nil
	}
	plan, err := v.service.PlanEvent(ctx, sel.ID)
	if err != nil {
		v.err = err
		return err
	}
	v.plan = plan
	return nil
}

// AcceptPlan commits the planned batches for the selected event and
// rebuilds the plan so feasibility reflects them.
func (v *EventsView) AcceptPlan(ctx context.Context) (int, error) {
	sel := v.Selected()
	if sel == nil {
		return 0, fmt.Errorf("no event selected")
	}
	decisions, err := v.service.AcceptPlan(ctx, sel.ID)
	if err != nil {
		return 0, err
	}
	return len(decisions), v.LoadPlan(ctx)
}

// CreateEvent creates an event and selects it.
func (v *EventsView) CreateEvent(ctx context.Context, input planning.CreateEventInput) (*models.Event, error) {
	event, err := v.service.CreateEvent(ctx, input)
	if err != nil {
		return nil, err
	}
	if err := v.Load(ctx); err != nil {
		return event, err
	}
	v.selectEvent(event.ID)
	return event, nil
}

// SetTarget sets a target on the selected event and rebuilds its plan.
func (v *EventsView) SetTarget(ctx context.Context, goodID string, quantity int) error {
	sel := v.Selected()
	if sel == nil {
		return fmt.Errorf("no event selected")
	}
	if _, err := v.service.AddTarget(ctx, sel.ID, goodID, quantity); err != nil {
		return err
	}
	return v.LoadPlan(ctx)
}

func (v *EventsView) selectEvent(id string) {
	v.table.GoToTop()
	for _, e := range v.events {
		if e.ID == id {
			return
		}
		v.table.MoveDown()
	}
}

// Plan returns the loaded plan, if any.
func (v *EventsView) Plan() *models.EventPlan {
	return v.plan
}

// MoveUp moves the selection up.
func (v *EventsView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *EventsView) MoveDown() {
	v.table.MoveDown()
}

// Selected returns the selected event.
func (v *EventsView) Selected() *models.Event {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.events) {
		return v.events[idx]
	}
	return nil
}

// Render renders the event list.
func (v *EventsView) Render(width, height int) string {
	s := components.DefaultStyles()
	var b strings.Builder

	b.WriteString(s.Title.Render("=== EVENTS ==="))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(s.Label.Render("Loading..."))
	case v.table.Empty():
		b.WriteString(s.Label.Render("No events planned. Press n to add one."))
	default:
		b.WriteString(v.table.RenderResponsive(width))
	}
	b.WriteString("\n\n")

	b.WriteString(s.Help.Render(components.HelpText(width,
		"Up/Down:Select  Enter:Plan  n:New Event",
		"Enter:Plan  n:New")))

	return b.String()
}

// RenderDetail renders the plan of the selected event.
func (v *EventsView) RenderDetail(width int) string {
	s := components.DefaultStyles()
	p := v.plan
	if p == nil || p.Event == nil {
		return s.Label.Render("No plan loaded")
	}

	var b strings.Builder
	e := p.Event

	b.WriteString(s.Title.Render("=== " + strings.ToUpper(e.Name) + " ==="))
	b.WriteString("\n")
	b.WriteString(s.Label.Render(util.FormatDate(e.EventDate) + " (" + util.RelativeDayString(e.EventDate, v.now) + ")"))
	b.WriteString("\n\n")

	b.WriteString(s.Section.Render("TARGETS"))
	b.WriteString("\n")
	if len(e.Targets) == 0 {
		b.WriteString(s.Muted.Render("No targets yet. Press t to add one."))
		b.WriteString("\n")
	}
	for _, t := range e.Targets {
		name := t.FinishedGoodID
		if t.FinishedGood != nil {
			name = t.FinishedGood.DisplayName
		}
		b.WriteString(fmt.Sprintf("  %4d × %s\n", t.Quantity, name))
	}
	b.WriteString("\n")

	v.renderBatches(&b, s, width)
	renderShopping(&b, s, "INGREDIENTS", p.Ingredients, width)
	renderShopping(&b, s, "PACKAGING", p.Materials, width)
	renderFeasibility(&b, s, p.Feasibility)

	if len(p.Errors) > 0 {
		b.WriteString(s.Section.Render("PROBLEMS"))
		b.WriteString("\n")
		for _, msg := range p.Errors {
			b.WriteString(s.Error.Render("  ! " + msg))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if p.ReadyToBuy() {
		b.WriteString(s.OK.Render("Everything needed is on hand."))
	} else {
		b.WriteString(s.Warning.Render("Shopping needed before baking."))
	}
	b.WriteString(s.Label.Render("  On-hand cost: ") + s.Value.Render("$"+p.EstimatedCost().StringFixed(2)))
	b.WriteString("\n\n")

	b.WriteString(s.Help.Render(components.HelpText(width,
		"a:Accept Batches  t:Set Target  r:Refresh  Esc:Back",
		"a:Accept  t:Target  Esc:Back")))

	return b.String()
}

func (v *EventsView) renderBatches(b *strings.Builder, s components.Styles, width int) {
	b.WriteString(s.Section.Render("BATCHES"))
	b.WriteString("\n")
	if len(v.plan.Batches) == 0 {
		b.WriteString(s.Muted.Render("Nothing to bake."))
		b.WriteString("\n\n")
		return
	}

	table := components.NewTable([]components.Column{
		{Title: "Recipe", Width: 24, Weight: 1, Priority: 5},
		{Title: "Batches", Width: 7, Align: lipgloss.Right, Priority: 4},
		{Title: "Needed", Width: 8, Align: lipgloss.Right, Priority: 2},
		{Title: "Yield", Width: 8, Align: lipgloss.Right, Priority: 1},
		{Title: "Waste", Width: 8, Align: lipgloss.Right, Priority: 3},
	})
	rows := make([][]string, len(v.plan.Batches))
	for i, r := range v.plan.Batches {
		waste := r.WastePercent.StringFixed(1) + "%"
		if r.WastePercent.GreaterThan(v.wasteMax) {
			waste = "!" + waste
		}
		rows[i] = []string{
			r.RecipeName,
			fmt.Sprintf("%d", r.Batches),
			r.UnitsNeeded.Round(2).String(),
			r.TotalYield.Round(2).String(),
			waste,
		}
	}
	table.SetRows(rows)
	table.SetVisibleRows(len(rows))
	b.WriteString(table.RenderResponsive(width))
	b.WriteString("\n")
}

func renderShopping(b *strings.Builder, s components.Styles, title string, lines []models.ShoppingLine, width int) {
	b.WriteString(s.Section.Render(title))
	b.WriteString("\n")
	if len(lines) == 0 {
		b.WriteString(s.Muted.Render("None needed."))
		b.WriteString("\n\n")
		return
	}

	table := components.NewTable([]components.Column{
		{Title: "Item", Width: 22, Weight: 1, Priority: 5},
		{Title: "Need", Width: 9, Align: lipgloss.Right, Priority: 3},
		{Title: "On Hand", Width: 9, Align: lipgloss.Right, Priority: 2},
		{Title: "To Buy", Width: 9, Align: lipgloss.Right, Priority: 4},
		{Title: "Unit", Width: 6, Priority: 1},
	})
	rows := make([][]string, len(lines))
	for i, l := range lines {
		toBuy := "-"
		if !l.SufficientNow {
			toBuy = l.ToBuy.Round(3).String()
		}
		rows[i] = []string{
			l.ItemName,
			l.Needed.Round(3).String(),
			l.OnHand.Round(3).String(),
			toBuy,
			l.Unit,
		}
	}
	table.SetRows(rows)
	table.SetVisibleRows(len(rows))
	b.WriteString(table.RenderResponsive(width))
	b.WriteString("\n")
}

func renderFeasibility(b *strings.Builder, s components.Styles, results []models.FeasibilityResult) {
	b.WriteString(s.Section.Render("FEASIBILITY"))
	b.WriteString("\n")
	if len(results) == 0 {
		b.WriteString(s.Muted.Render("No targets to check."))
		b.WriteString("\n\n")
		return
	}

	for _, r := range results {
		switch {
		case r.Error != "":
			b.WriteString(s.Error.Render(fmt.Sprintf("  ! %s: %s", r.FinishedGoodName, r.Error)))
		case r.CanAssemble:
			b.WriteString(s.OK.Render(fmt.Sprintf("  ✓ %s × %d", r.FinishedGoodName, r.TargetQuantity)))
		default:
			b.WriteString(s.Warning.Render(fmt.Sprintf("  ✗ %s × %d, short %d", r.FinishedGoodName, r.TargetQuantity, r.Shortfall)))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
