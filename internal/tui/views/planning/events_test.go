package planning

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/util"
)

func sampleEvents() []*models.Event {
	return []*models.Event{
		{ID: "ev-1", Name: "Holiday Market", EventDate: util.Date(2026, 12, 5), Notes: "booth 14"},
		{ID: "ev-2", Name: "Winter Wedding", EventDate: util.Date(2027, 1, 16)},
	}
}

func samplePlan() *models.EventPlan {
	event := sampleEvents()[0]
	event.Targets = []*models.EventTarget{
		{
			ID:             "t-1",
			EventID:        event.ID,
			FinishedGoodID: "gift-box",
			Quantity:       12,
			FinishedGood:   &models.FinishedGood{ID: "gift-box", DisplayName: "Cookie Gift Box"},
		},
	}

	return &models.EventPlan{
		Event:        event,
		Requirements: models.NewRequirements(),
		Batches: []models.RecipeBatchResult{
			{
				RecipeID:   "r-choc",
				RecipeName: "Chocolate Chip Cookies",
				UnitIDs:    []string{"u-cookie"},
				BatchResult: models.BatchResult{
					Batches:       3,
					UnitsNeeded:   decimal.NewFromInt(72),
					YieldPerBatch: decimal.NewFromInt(30),
					TotalYield:    decimal.NewFromInt(90),
					Waste:         decimal.NewFromInt(18),
					WastePercent:  decimal.NewFromInt(20),
				},
			},
			{
				RecipeID:   "r-stollen",
				RecipeName: "Stollen",
				UnitIDs:    []string{"u-stollen"},
				BatchResult: models.BatchResult{
					Batches:       1,
					UnitsNeeded:   decimal.NewFromInt(2),
					YieldPerBatch: decimal.NewFromInt(4),
					TotalYield:    decimal.NewFromInt(4),
					Waste:         decimal.NewFromInt(2),
					WastePercent:  decimal.NewFromInt(50),
				},
			},
		},
		Ingredients: []models.ShoppingLine{
			{
				ItemID:        "flour",
				ItemName:      "All-Purpose Flour",
				Unit:          "lb",
				Needed:        decimal.NewFromInt(6),
				OnHand:        decimal.NewFromInt(10),
				ToBuy:         decimal.Zero,
				OnHandCost:    decimal.RequireFromString("2.70"),
				SufficientNow: true,
			},
			{
				ItemID:        "butter",
				ItemName:      "Unsalted Butter",
				Unit:          "lb",
				Needed:        decimal.RequireFromString("4.5"),
				OnHand:        decimal.NewFromInt(2),
				ToBuy:         decimal.RequireFromString("2.5"),
				OnHandCost:    decimal.RequireFromString("8.00"),
				SufficientNow: false,
			},
		},
		Feasibility: []models.FeasibilityResult{
			{FinishedGoodID: "gift-box", FinishedGoodName: "Cookie Gift Box", TargetQuantity: 12, Shortfall: 12},
		},
	}
}

func TestEventsView_EmptyRender(t *testing.T) {
	view := NewEventsView(nil)
	output := view.Render(120, 40)

	if !strings.Contains(output, "EVENTS") {
		t.Error("expected title")
	}
	if !strings.Contains(output, "No events planned") {
		t.Error("expected empty state message")
	}
}

func TestEventsView_RenderList(t *testing.T) {
	view := NewEventsView(nil)
	view.SetNow(util.Date(2026, 12, 1))
	view.setEvents(sampleEvents())

	output := view.Render(120, 40)
	for _, want := range []string{"Holiday Market", "2026-12-05", "in 4 days", "booth 14", "Winter Wedding"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestEventsView_Selection(t *testing.T) {
	view := NewEventsView(nil)
	if view.Selected() != nil {
		t.Error("expected no selection without events")
	}

	view.setEvents(sampleEvents())
	if got := view.Selected().ID; got != "ev-1" {
		t.Errorf("expected ev-1, got %s", got)
	}
	view.MoveDown()
	if got := view.Selected().ID; got != "ev-2" {
		t.Errorf("expected ev-2, got %s", got)
	}

	view.selectEvent("ev-1")
	if got := view.Selected().ID; got != "ev-1" {
		t.Errorf("selectEvent should move to ev-1, got %s", got)
	}
}

func TestEventsView_RenderHelp(t *testing.T) {
	view := NewEventsView(nil)

	if !strings.Contains(view.Render(120, 40), "n:New Event") {
		t.Error("expected full help text on wide terminal")
	}
	if !strings.Contains(view.Render(50, 40), "n:New") {
		t.Error("expected compact help text on narrow terminal")
	}
}

func TestEventsView_RenderDetail_NoPlan(t *testing.T) {
	view := NewEventsView(nil)
	if !strings.Contains(view.RenderDetail(120), "No plan loaded") {
		t.Error("expected empty plan message")
	}
}

func TestEventsView_RenderDetail_Plan(t *testing.T) {
	view := NewEventsView(nil)
	view.SetNow(util.Date(2026, 12, 1))
	view.SetWasteWarning(25)
	view.plan = samplePlan()

	output := view.RenderDetail(120)
	for _, want := range []string{
		"HOLIDAY MARKET",
		"in 4 days",
		"12 × Cookie Gift Box",
		"Chocolate Chip Cookies",
		"20.0%",
		"!50.0%",
		"Unsalted Butter",
		"2.5",
		"PACKAGING",
		"None needed.",
		"✗ Cookie Gift Box × 12, short 12",
		"Shopping needed before baking.",
		"$10.70",
		"a:Accept Batches",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in detail:\n%s", want, output)
		}
	}
	if strings.Contains(output, "!20.0%") {
		t.Error("waste under the warning level should not be flagged")
	}
}

func TestEventsView_RenderDetail_Ready(t *testing.T) {
	view := NewEventsView(nil)
	plan := samplePlan()
	plan.Ingredients = plan.Ingredients[:1]
	plan.Feasibility = []models.FeasibilityResult{
		{FinishedGoodID: "gift-box", FinishedGoodName: "Cookie Gift Box", TargetQuantity: 12, CanAssemble: true},
	}
	plan.Errors = []string{"Mystery Tin: finished good not found"}
	view.plan = plan

	output := view.RenderDetail(120)
	for _, want := range []string{
		"✓ Cookie Gift Box × 12",
		"Everything needed is on hand.",
		"PROBLEMS",
		"Mystery Tin: finished good not found",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in detail:\n%s", want, output)
		}
	}
}

func TestEventForm(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		wantErr bool
		want    string
	}{
		{
			name: "prefilled date",
			keys: []string{"B", "a", "k", "e", " ", "S", "a", "l", "e"},
			want: "Bake Sale",
		},
		{
			name:    "missing name",
			keys:    nil,
			wantErr: true,
		},
		{
			name:    "bad date",
			keys:    []string{"X", "tab", "backspace", "backspace"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewEventForm(util.Date(2026, 11, 14))
			for _, k := range tt.keys {
				form.HandleKey(k)
			}

			input, err := form.Input()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if input.Name != tt.want {
				t.Errorf("name = %q, want %q", input.Name, tt.want)
			}
			if !input.EventDate.Equal(util.Date(2026, 11, 14)) {
				t.Errorf("unexpected date %v", input.EventDate)
			}
		})
	}
}

func TestTargetForm(t *testing.T) {
	goods := []*models.FinishedGood{
		{ID: "g-box", DisplayName: "Cookie Gift Box"},
		{ID: "g-tin", DisplayName: "Holiday Tin"},
	}

	form := NewTargetForm("Holiday Market", goods)
	if !strings.Contains(form.Render(), "TARGET FOR HOLIDAY MARKET") {
		t.Error("expected title with the event name")
	}

	for _, k := range []string{"right", "tab", "2", "4"} {
		form.HandleKey(k)
	}
	id, qty, err := form.Target()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "g-tin" || qty != 24 {
		t.Errorf("got (%s, %d), want (g-tin, 24)", id, qty)
	}

	bad := NewTargetForm("Holiday Market", goods)
	bad.HandleKey("tab")
	bad.HandleKey("x")
	if _, _, err := bad.Target(); err == nil {
		t.Error("expected error for non-numeric quantity")
	}

	empty := NewTargetForm("Holiday Market", nil)
	if _, _, err := empty.Target(); err == nil {
		t.Error("expected error with no goods")
	}
}
