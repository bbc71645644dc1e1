package production

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
)

func TestRunsView_EmptyRender(t *testing.T) {
	view := NewRunsView(nil)
	output := view.Render(120, 40)

	if !strings.Contains(output, "PRODUCTION") {
		t.Error("expected title")
	}
	if !strings.Contains(output, "Nothing baked yet") {
		t.Error("expected empty state message")
	}
}

func TestRunsView_RenderRuns(t *testing.T) {
	view := NewRunsView(nil)
	view.setRuns([]*models.RunSummary{
		{ID: "a1", Kind: "assembly", Name: "Cookie Gift Box", Quantity: 6, Cost: decimal.RequireFromString("4.2"), At: time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)},
		{ID: "p1", Kind: "production", Name: "Chocolate Chip Cookie", Quantity: 60, Cost: decimal.RequireFromString("11.875"), At: time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)},
	})

	output := view.Render(120, 40)
	for _, want := range []string{"assemble", "Cookie Gift Box", "$4.20", "bake", "Chocolate Chip Cookie", "60", "$11.88"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if len(view.Runs()) != 2 {
		t.Errorf("expected 2 runs, got %d", len(view.Runs()))
	}
}

func TestRunsView_RenderHelp(t *testing.T) {
	view := NewRunsView(nil)

	if !strings.Contains(view.Render(120, 40), "p:Record Bake") {
		t.Error("expected full help text on wide terminal")
	}
	if !strings.Contains(view.Render(50, 40), "p:Bake") {
		t.Error("expected compact help text on narrow terminal")
	}
}

func TestErrorMessage(t *testing.T) {
	short := &models.InsufficientInventoryError{
		Operation: "Chocolate Chip Cookies x2",
		Shortfalls: []models.Shortfall{
			{ItemID: "butter", ItemName: "Unsalted Butter", Needed: decimal.NewFromInt(2), Available: decimal.RequireFromString("0.5"), Shortfall: decimal.RequireFromString("1.5")},
			{ItemID: "choc", Needed: decimal.NewFromInt(3), Available: decimal.Zero, Shortfall: decimal.NewFromInt(3)},
		},
	}

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "shortfall",
			err:  fmt.Errorf("recording run: %w", short),
			want: []string{"not enough stock for Chocolate Chip Cookies x2", "Unsalted Butter: need 2, have 0.5", "choc: need 3, have 0"},
		},
		{
			name: "plain",
			err:  errors.New("finished unit not found"),
			want: []string{"finished unit not found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ErrorMessage(tt.err)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("expected %q in %q", w, got)
				}
			}
		})
	}
}

func TestProductionForm(t *testing.T) {
	units := []*models.FinishedUnit{
		{ID: "u-cookie", DisplayName: "Chocolate Chip Cookie"},
		{ID: "u-loaf", DisplayName: "Banana Loaf"},
	}
	events := []*models.Event{{ID: "ev-1", Name: "Holiday Market"}}

	tests := []struct {
		name      string
		keys      []string
		wantErr   bool
		unitID    string
		batches   int
		yield     *int
		wantEvent bool
	}{
		{
			name:    "defaults",
			unitID:  "u-cookie",
			batches: 1,
		},
		{
			name:      "second unit with yield and event",
			keys:      []string{"right", "tab", "backspace", "3", "tab", "5", "8", "tab", "right"},
			unitID:    "u-loaf",
			batches:   3,
			yield:     intPtr(58),
			wantEvent: true,
		},
		{
			name:    "zero batches",
			keys:    []string{"tab", "backspace", "0"},
			wantErr: true,
		},
		{
			name:    "bad yield",
			keys:    []string{"tab", "tab", "x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := NewProductionForm(units, events)
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
			if input.FinishedUnitID != tt.unitID || input.Batches != tt.batches {
				t.Errorf("got (%s, %d), want (%s, %d)", input.FinishedUnitID, input.Batches, tt.unitID, tt.batches)
			}
			if (tt.yield == nil) != (input.ActualYield == nil) ||
				(tt.yield != nil && *tt.yield != *input.ActualYield) {
				t.Errorf("unexpected actual yield %v", input.ActualYield)
			}
			if tt.wantEvent != (input.EventID != nil) {
				t.Errorf("event = %v, want set=%v", input.EventID, tt.wantEvent)
			}
			if tt.wantEvent && *input.EventID != "ev-1" {
				t.Errorf("unexpected event %s", *input.EventID)
			}
		})
	}

	if _, err := NewProductionForm(nil, nil).Input(); err == nil {
		t.Error("expected error with no units")
	}
}

func TestAssemblyForm(t *testing.T) {
	goods := []*models.FinishedGood{
		{ID: "g-box", DisplayName: "Cookie Gift Box"},
	}

	form := NewAssemblyForm(goods, nil)
	if !strings.Contains(form.Render(), "RECORD ASSEMBLY") {
		t.Error("expected form title")
	}
	for _, k := range []string{"tab", "2"} {
		form.HandleKey(k)
	}
	input, err := form.Input()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.FinishedGoodID != "g-box" || input.Quantity != 12 || input.EventID != nil {
		t.Errorf("unexpected input %+v", input)
	}

	bad := NewAssemblyForm(goods, nil)
	bad.HandleKey("tab")
	bad.HandleKey("backspace")
	if _, err := bad.Input(); err == nil {
		t.Error("expected error for empty quantity")
	}
}

func intPtr(n int) *int { return &n }
