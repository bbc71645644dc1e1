package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	planviews "github.com/bakeplan/bakeplan/internal/tui/views/planning"
	prodviews "github.com/bakeplan/bakeplan/internal/tui/views/production"
)

// formOptionsMsg carries catalog choices fetched for a form.
type formOptionsMsg struct {
	build func() form
	err   error
}

// openTargetForm loads the finished goods and opens a target form for the
// selected event.
func (a *App) openTargetForm() tea.Cmd {
	event := a.eventsView.Selected()
	if event == nil {
		return nil
	}
	return func() tea.Msg {
		goods, err := a.svcs.Catalog.ListFinishedGoods(context.Background())
		if err != nil {
			return formOptionsMsg{err: err}
		}
		if len(goods) == 0 {
			return formOptionsMsg{err: fmt.Errorf("no finished goods in the catalog")}
		}
		return formOptionsMsg{build: func() form {
			return planviews.NewTargetForm(event.Name, goods)
		}}
	}
}

// openProductionForm loads finished units and upcoming events and opens
// the bake form.
func (a *App) openProductionForm() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		units, err := a.svcs.Catalog.ListFinishedUnits(ctx, "")
		if err != nil {
			return formOptionsMsg{err: err}
		}
		if len(units) == 0 {
			return formOptionsMsg{err: fmt.Errorf("no finished units in the catalog")}
		}
		events, err := a.svcs.Planning.ListUpcomingEvents(ctx)
		if err != nil {
			return formOptionsMsg{err: err}
		}
		return formOptionsMsg{build: func() form {
			return prodviews.NewProductionForm(units, events)
		}}
	}
}

// openAssemblyForm loads finished goods and upcoming events and opens the
// assembly form.
func (a *App) openAssemblyForm() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		goods, err := a.svcs.Catalog.ListFinishedGoods(ctx)
		if err != nil {
			return formOptionsMsg{err: err}
		}
		if len(goods) == 0 {
			return formOptionsMsg{err: fmt.Errorf("no finished goods in the catalog")}
		}
		events, err := a.svcs.Planning.ListUpcomingEvents(ctx)
		if err != nil {
			return formOptionsMsg{err: err}
		}
		return formOptionsMsg{build: func() form {
			return prodviews.NewAssemblyForm(goods, events)
		}}
	}
}
