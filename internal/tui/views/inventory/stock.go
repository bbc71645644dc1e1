// Package inventory provides TUI views for ingredient and material stock.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
	"github.com/bakeplan/bakeplan/internal/tui/components"
	"github.com/bakeplan/bakeplan/internal/util"
)

// StockView lists on-hand stock per item for one inventory domain, and the
// FIFO lots behind the selected item.
type StockView struct {
	service   *inventory.Service
	table     *components.Table
	lotTable  *components.Table
	domain    models.InventoryDomain
	summaries []*models.StockSummary
	lots      []*models.LotView
	loading   bool
	err       error
	now       time.Time
}

// NewStockView creates a stock view showing ingredients.
func NewStockView(service *inventory.Service) *StockView {
	table := components.NewTable([]components.Column{
		{Title: "Item", Width: 20, Weight: 1, Priority: 5},
		{Title: "On Hand", Width: 10, Align: lipgloss.Right, Priority: 4},
		{Title: "Unit", Width: 6, Priority: 3},
		{Title: "Lots", Width: 4, Align: lipgloss.Right, Priority: 1},
		{Title: "Value", Width: 10, Align: lipgloss.Right, Priority: 2},
		{Title: "Oldest", Width: 10, Priority: 0},
	})
	table.SetVisibleRows(20)
	table.Focus(true)

	lotTable := components.NewTable([]components.Column{
		{Title: "Lot", Width: 8, Priority: 0},
		{Title: "Purchased", Width: 10, Priority: 5},
		{Title: "Remaining", Width: 10, Align: lipgloss.Right, Priority: 4},
		{Title: "Of", Width: 10, Align: lipgloss.Right, Priority: 1},
		{Title: "Unit Cost", Width: 9, Align: lipgloss.Right, Priority: 3},
		{Title: "Value", Width: 10, Align: lipgloss.Right, Priority: 2},
	})
	lotTable.SetVisibleRows(15)

	return &StockView{
		service:  service,
		table:    table,
		lotTable: lotTable,
		domain:   models.DomainIngredient,
		now:      time.Now(),
	}
}

// Load fetches stock summaries for the current domain.
func (v *StockView) Load(ctx context.Context) error {
	v.loading = true
	v.err = nil

	summaries, err := v.service.StockSummaries(ctx, v.domain)
	v.loading = false
	if err != nil {
		v.err = err
		return err
	}
	v.setSummaries(summaries)
	return nil
}

func (v *StockView) setSummaries(summaries []*models.StockSummary) {
	v.summaries = summaries

	rows := make([][]string, len(summaries))
	for i, s := range summaries {
		rows[i] = []string{
			s.ItemName,
			FormatQty(s.OnHand),
			s.Unit,
			fmt.Sprintf("%d", s.LotCount),
			FormatMoney(s.Value),
			util.FormatDate(s.OldestDate),
		}
	}
	v.table.SetRows(rows)
}

// LoadLots fetches the FIFO lots of the selected item.
func (v *StockView) LoadLots(ctx context.Context) error {
	sel := v.Selected()
	if sel == nil {
		v.setLots(nil)
		return nil
	}
	lots, err := v.service.ListLots(ctx, v.domain, models.LotFilter{ItemID: sel.ItemID})
	if err != nil {
		v.err = err
		return err
	}
	v.setLots(lots)
	return nil
}

func (v *StockView) setLots(lots []*models.LotView) {
	v.lots = lots

	rows := make([][]string, len(lots))
	for i, l := range lots {
		rows[i] = []string{
			util.ShortID(l.ID),
			util.FormatDate(l.PurchaseDate),
			FormatQty(l.QuantityRemaining),
			FormatQty(l.QuantityPurchased),
			l.CostPerUnit.StringFixed(4),
			FormatMoney(l.RemainingValue()),
		}
	}
	v.lotTable.SetRows(rows)
}

// Domain returns the domain being shown.
func (v *StockView) Domain() models.InventoryDomain {
	return v.domain
}

// ToggleDomain switches between ingredients and materials.
func (v *StockView) ToggleDomain() {
	if v.domain == models.DomainIngredient {
		v.domain = models.DomainMaterial
	} else {
		v.domain = models.DomainIngredient
	}
	v.table.GoToTop()
	v.setSummaries(nil)
}

// SetNow sets the date lot ages are measured from.
func (v *StockView) SetNow(t time.Time) {
	v.now = t
}

// SetVisibleRows sets the number of visible table rows.
func (v *StockView) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
	v.lotTable.SetVisibleRows(n)
}

// MoveUp moves the selection up.
func (v *StockView) MoveUp() {
	v.table.MoveUp()
}

// MoveDown moves the selection down.
func (v *StockView) MoveDown() {
	v.table.MoveDown()
}

// Selected returns the selected stock summary.
func (v *StockView) Selected() *models.StockSummary {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.summaries) {
		return v.summaries[idx]
	}
	return nil
}

// TotalValue is the FIFO value of everything on hand in the domain.
func (v *StockView) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, s := range v.summaries {
		total = total.Add(s.Value)
	}
	return total
}

func domainTitle(d models.InventoryDomain) string {
	if d == models.DomainMaterial {
		return "MATERIALS"
	}
	return "INGREDIENTS"
}

// Render renders the stock list.
func (v *StockView) Render(width, height int) string {
	s := components.DefaultStyles()
	var b strings.Builder

	b.WriteString(s.Title.Render("=== " + domainTitle(v.domain) + " ON HAND ==="))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading:
		b.WriteString(s.Label.Render("Loading..."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(s.Label.Render("No stock on hand."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.RenderResponsive(width))
		b.WriteString("\n")
		b.WriteString(s.Label.Render("Total value: ") + s.Value.Render(FormatMoney(v.TotalValue())))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.Help.Render(components.HelpText(width,
		"Up/Down:Select  Enter:Lots  d:Ingredients/Materials",
		"Enter:Lots  d:Domain")))

	return b.String()
}

// RenderDetail renders the FIFO lots of the selected item, oldest first.
func (v *StockView) RenderDetail(width int) string {
	s := components.DefaultStyles()
	label := s.Label.Width(16)

	sel := v.Selected()
	if sel == nil {
		return s.Label.Render("No item selected")
	}

	var b strings.Builder

	b.WriteString(s.Title.Render("=== " + strings.ToUpper(sel.ItemName) + " ==="))
	b.WriteString("\n\n")

	b.WriteString(label.Render("On hand:") + " " + s.Value.Render(FormatQty(sel.OnHand)+" "+sel.Unit) + "\n")
	b.WriteString(label.Render("FIFO value:") + " " + s.Value.Render(FormatMoney(sel.Value)) + "\n")
	if !sel.OldestDate.IsZero() {
		age := util.RelativeDayString(sel.OldestDate, v.now)
		b.WriteString(label.Render("Oldest lot:") + " " + s.Value.Render(util.FormatDate(sel.OldestDate)+" ("+age+")") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(s.Section.Render("LOTS (consumed top to bottom)"))
	b.WriteString("\n")
	if v.lotTable.Empty() {
		b.WriteString(s.Muted.Render("No open lots."))
		b.WriteString("\n")
	} else {
		b.WriteString(v.lotTable.RenderResponsive(width))
	}

	b.WriteString("\n")
	b.WriteString(s.Help.Render("Esc:Back"))

	return b.String()
}

// FormatQty formats a quantity without trailing zeros.
func FormatQty(d decimal.Decimal) string {
	return d.Round(3).String()
}

// FormatMoney formats a cost with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
