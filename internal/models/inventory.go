package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryDomain selects one of the two parallel FIFO ledgers.
type InventoryDomain string

const (
	DomainIngredient InventoryDomain = "INGREDIENT"
	DomainMaterial   InventoryDomain = "MATERIAL"
)

func (d InventoryDomain) String() string {
	return string(d)
}

// Valid reports whether d names a known ledger.
func (d InventoryDomain) Valid() bool {
	return d == DomainIngredient || d == DomainMaterial
}

// DefaultDepletionEpsilon is the remaining quantity below which a lot counts as empty.
var DefaultDepletionEpsilon = decimal.RequireFromString("0.001")

// Supplier is where purchases come from.
type Supplier struct {
	ID        string
	Name      string
	Notes     string
	CreatedAt time.Time
}

// Product is a purchasable ingredient, tracked in its base unit.
type Product struct {
	ID          string
	Slug        string
	DisplayName string
	Unit        string // "g", "ml", "each"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Material is a packaging or craft material, tracked in its base unit.
type Material struct {
	ID          string
	Slug        string
	DisplayName string
	Unit        string // "cm", "each"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaterialUnit is a consumable portion of a material, e.g. a 30cm ribbon.
type MaterialUnit struct {
	ID              string
	MaterialID      string
	Name            string
	QuantityPerUnit decimal.Decimal
	CreatedAt       time.Time

	// Joined fields
	Material *Material
}

// Purchase is an immutable record of one buying event.
type Purchase struct {
	ID           string
	Domain       InventoryDomain
	SupplierID   *string
	ItemID       string // product id or material id
	PurchaseDate time.Time
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	Notes        string
	CreatedAt    time.Time
}

// TotalCost returns quantity times unit cost.
func (p *Purchase) TotalCost() decimal.Decimal {
	return p.Quantity.Mul(p.UnitCost)
}

// InventoryLot is the remaining stock of one purchase.
type InventoryLot struct {
	ID                string
	Domain            InventoryDomain
	PurchaseID        string
	ItemID            string
	QuantityPurchased decimal.Decimal
	QuantityRemaining decimal.Decimal
	CostPerUnit       decimal.Decimal
	PurchaseDate      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsDepleted reports whether the lot has less than epsilon remaining.
func (l *InventoryLot) IsDepleted(epsilon decimal.Decimal) bool {
	return l.QuantityRemaining.LessThan(epsilon)
}

// RemainingValue returns the cost of what is left in the lot.
func (l *InventoryLot) RemainingValue() decimal.Decimal {
	return l.QuantityRemaining.Mul(l.CostPerUnit)
}

// ConsumptionRecord is an immutable audit row for stock taken from one lot
// during one production or assembly run. Names are copied at the time of
// consumption so history survives catalog edits.
type ConsumptionRecord struct {
	ID               string
	Domain           InventoryDomain
	RunID            string
	LotID            string
	ItemID           string
	ItemName         string
	Unit             string
	MaterialUnitName string // materials only
	Quantity         decimal.Decimal
	UnitCost         decimal.Decimal
	TotalCost        decimal.Decimal
	CreatedAt        time.Time
}

// LotConsumption is one entry of a FIFO breakdown.
type LotConsumption struct {
	LotID        string
	PurchaseDate time.Time
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	Cost         decimal.Decimal
}

// ConsumptionResult is the outcome of walking lots oldest-first.
type ConsumptionResult struct {
	ItemID    string
	Requested decimal.Decimal
	Consumed  decimal.Decimal
	Shortfall decimal.Decimal
	TotalCost decimal.Decimal
	Satisfied bool
	DryRun    bool
	Breakdown []LotConsumption
}

// AverageUnitCost returns total cost over consumed quantity, zero when nothing was consumed.
func (r *ConsumptionResult) AverageUnitCost() decimal.Decimal {
	if r.Consumed.IsZero() {
		return decimal.Zero
	}
	return r.TotalCost.Div(r.Consumed)
}

// Requirement asks for a quantity of one item.
type Requirement struct {
	ItemID   string
	Quantity decimal.Decimal
}

// Shortfall describes a requirement that cannot be met from stock.
type Shortfall struct {
	ItemID    string
	ItemName  string
	Kind      string // "ingredient", "material", "finished_unit", "finished_good"
	Needed    decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

// AvailabilityReport aggregates dry-run consumption over several requirements.
type AvailabilityReport struct {
	CanFulfill bool
	Results    []*ConsumptionResult
	Shortfalls []Shortfall
}

// LotFilter narrows lot listings.
type LotFilter struct {
	ItemID          string
	IncludeDepleted bool
}

// LotView is a lot joined with its item for display.
type LotView struct {
	*InventoryLot
	ItemName string
	Unit     string
}

// StockSummary totals the non-depleted lots of one item.
type StockSummary struct {
	ItemID     string
	ItemName   string
	Unit       string
	LotCount   int
	OnHand     decimal.Decimal
	Value      decimal.Decimal
	OldestDate time.Time
}
