package planning

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/services/planning"
	"github.com/bakeplan/bakeplan/internal/tui/components"
	"github.com/bakeplan/bakeplan/internal/util"
)

// EventForm collects a new event.
type EventForm struct {
	*components.Form

	name  *components.Input
	date  *components.Input
	notes *components.Input
}

// NewEventForm creates an event form with the date prefilled.
func NewEventForm(defaultDate time.Time) *EventForm {
	f := &EventForm{
		Form:  components.NewForm("NEW EVENT"),
		name:  components.NewInput("Name").SetRequired(true).SetWidth(30).SetMaxLength(60),
		date:  components.NewInput("Date").SetRequired(true).SetWidth(12).SetMaxLength(10).SetPlaceholder("YYYY-MM-DD"),
		notes: components.NewInput("Notes").SetWidth(40),
	}
	if !defaultDate.IsZero() {
		f.date.SetValue(util.FormatDate(defaultDate))
	}

	f.AddField(f.name).AddField(f.date).AddField(f.notes)
	return f
}

// Input validates the form and builds the create request.
func (f *EventForm) Input() (planning.CreateEventInput, error) {
	if !f.name.Validate() {
		return planning.CreateEventInput{}, fmt.Errorf("name is required")
	}
	date, err := util.ParseDate(f.date.Value())
	if err != nil {
		f.date.SetError("use YYYY-MM-DD")
		return planning.CreateEventInput{}, err
	}
	f.date.SetError("")

	return planning.CreateEventInput{
		Name:      f.name.Value(),
		EventDate: date,
		Notes:     f.notes.Value(),
	}, nil
}

// TargetForm sets how many of a finished good an event needs.
type TargetForm struct {
	*components.Form

	goods    []*models.FinishedGood
	good     *components.Select
	quantity *components.Input
}

// NewTargetForm creates a target form offering the given goods.
func NewTargetForm(eventName string, goods []*models.FinishedGood) *TargetForm {
	names := make([]string, len(goods))
	for i, g := range goods {
		names[i] = g.DisplayName
	}

	f := &TargetForm{
		Form:     components.NewForm("TARGET FOR " + strings.ToUpper(eventName)),
		goods:    goods,
		good:     components.NewSelect("Good", names),
		quantity: components.NewInput("Quantity").SetRequired(true).SetWidth(6).SetMaxLength(5),
	}

	f.AddField(f.good).AddField(f.quantity)
	return f
}

// Target returns the chosen finished good id and quantity.
func (f *TargetForm) Target() (string, int, error) {
	idx := f.good.SelectedIndex()
	if idx < 0 || idx >= len(f.goods) {
		return "", 0, fmt.Errorf("no finished goods in the catalog")
	}
	qty, err := strconv.Atoi(f.quantity.Value())
	if err != nil || qty < 0 {
		f.quantity.SetError("whole number")
		return "", 0, fmt.Errorf("quantity must be a whole number, got %q", f.quantity.Value())
	}
	f.quantity.SetError("")
	return f.goods[idx].ID, qty, nil
}
