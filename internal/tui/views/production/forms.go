package production

import (
	"fmt"
	"strconv"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/services/production"
	"github.com/bakeplan/bakeplan/internal/tui/components"
)

const noEvent = "none"

func eventSelect(events []*models.Event) *components.Select {
	names := []string{noEvent}
	for _, e := range events {
		names = append(names, e.Name)
	}
	return components.NewSelect("Event", names)
}

func selectedEvent(sel *components.Select, events []*models.Event) *string {
	idx := sel.SelectedIndex() - 1
	if idx < 0 || idx >= len(events) {
		return nil
	}
	id := events[idx].ID
	return &id
}

func positiveInt(in *components.Input, field string) (int, error) {
	n, err := strconv.Atoi(in.Value())
	if err != nil || n <= 0 {
		in.SetError("positive number")
		return 0, fmt.Errorf("%s must be a positive whole number, got %q", field, in.Value())
	}
	in.SetError("")
	return n, nil
}

// ProductionForm records baking batches for a finished unit.
type ProductionForm struct {
	*components.Form

	units   []*models.FinishedUnit
	events  []*models.Event
	unit    *components.Select
	batches *components.Input
	yield   *components.Input
	event   *components.Select
	notes   *components.Input
}

// NewProductionForm creates a production form over the given units and
// the events a run may be counted towards.
func NewProductionForm(units []*models.FinishedUnit, events []*models.Event) *ProductionForm {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.DisplayName
	}

	f := &ProductionForm{
		Form:    components.NewForm("RECORD BAKE"),
		units:   units,
		events:  events,
		unit:    components.NewSelect("Unit", names),
		batches: components.NewInput("Batches").SetRequired(true).SetWidth(5).SetMaxLength(3).SetValue("1"),
		yield:   components.NewInput("Actual Yield").SetWidth(6).SetMaxLength(5).SetPlaceholder("expected"),
		event:   eventSelect(events),
		notes:   components.NewInput("Notes").SetWidth(40),
	}

	f.AddField(f.unit).AddField(f.batches).AddField(f.yield).AddField(f.event).AddField(f.notes)
	return f
}

// Input validates the form and builds the production request.
func (f *ProductionForm) Input() (production.ProductionInput, error) {
	idx := f.unit.SelectedIndex()
	if idx < 0 || idx >= len(f.units) {
		return production.ProductionInput{}, fmt.Errorf("no finished units in the catalog")
	}
	batches, err := positiveInt(f.batches, "batches")
	if err != nil {
		return production.ProductionInput{}, err
	}

	input := production.ProductionInput{
		FinishedUnitID: f.units[idx].ID,
		Batches:        batches,
		EventID:        selectedEvent(f.event, f.events),
		Notes:          f.notes.Value(),
	}
	if f.yield.Value() != "" {
		n, err := strconv.Atoi(f.yield.Value())
		if err != nil || n < 0 {
			f.yield.SetError("whole number")
			return production.ProductionInput{}, fmt.Errorf("actual yield must be a whole number, got %q", f.yield.Value())
		}
		f.yield.SetError("")
		input.ActualYield = &n
	}
	return input, nil
}

// AssemblyForm records assembling finished goods.
type AssemblyForm struct {
	*components.Form

	goods    []*models.FinishedGood
	events   []*models.Event
	good     *components.Select
	quantity *components.Input
	event    *components.Select
	notes    *components.Input
}

// NewAssemblyForm creates an assembly form over the given goods.
func NewAssemblyForm(goods []*models.FinishedGood, events []*models.Event) *AssemblyForm {
	names := make([]string, len(goods))
	for i, g := range goods {
		names[i] = g.DisplayName
	}

	f := &AssemblyForm{
		Form:     components.NewForm("RECORD ASSEMBLY"),
		goods:    goods,
		events:   events,
		good:     components.NewSelect("Good", names),
		quantity: components.NewInput("Quantity").SetRequired(true).SetWidth(6).SetMaxLength(5).SetValue("1"),
		event:    eventSelect(events),
		notes:    components.NewInput("Notes").SetWidth(40),
	}

	f.AddField(f.good).AddField(f.quantity).AddField(f.event).AddField(f.notes)
	return f
}

// Input validates the form and builds the assembly request.
func (f *AssemblyForm) Input() (production.AssemblyInput, error) {
	idx := f.good.SelectedIndex()
	if idx < 0 || idx >= len(f.goods) {
		return production.AssemblyInput{}, fmt.Errorf("no finished goods in the catalog")
	}
	qty, err := positiveInt(f.quantity, "quantity")
	if err != nil {
		return production.AssemblyInput{}, err
	}

	return production.AssemblyInput{
		FinishedGoodID: f.goods[idx].ID,
		Quantity:       qty,
		EventID:        selectedEvent(f.event, f.events),
		Notes:          f.notes.Value(),
	}, nil
}
