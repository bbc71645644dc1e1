package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/database"
	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/repository"
)

// LedgerConfig tunes FIFO behaviour.
type LedgerConfig struct {
	// Epsilon is the remaining quantity below which a lot is depleted.
	Epsilon decimal.Decimal
	// CostPlaces is the rounding applied to total costs.
	CostPlaces int32
}

// DefaultLedgerConfig returns the standard 0.001 epsilon and 4 cost places.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{Epsilon: models.DefaultDepletionEpsilon, CostPlaces: 4}
}

// Ledger answers FIFO availability and cost questions for one inventory
// domain and, when committing, decrements lots oldest first.
type Ledger struct {
	db   *sql.DB
	lots *repository.InventoryRepository
	cfg  LedgerConfig
}

// NewLedger creates a ledger for the given domain.
func NewLedger(db *sql.DB, domain models.InventoryDomain, cfg LedgerConfig) *Ledger {
	return &Ledger{
		db:   db,
		lots: repository.NewInventoryRepository(db, domain),
		cfg:  cfg,
	}
}

// Domain returns the inventory domain of this ledger.
func (l *Ledger) Domain() models.InventoryDomain {
	return l.lots.Domain()
}

// Epsilon returns the depletion threshold.
func (l *Ledger) Epsilon() decimal.Decimal {
	return l.cfg.Epsilon
}

// GetOrderedLots returns the non-depleted lots of an item, oldest purchase
// date first, ties in insertion order.
func (l *Ledger) GetOrderedLots(ctx context.Context, tx *sql.Tx, itemID string) ([]*models.InventoryLot, error) {
	all, err := l.lots.ListLotsForItem(ctx, tx, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing lots for %s: %w", itemID, err)
	}

	lots := all[:0]
	for _, lot := range all {
		if !lot.IsDepleted(l.cfg.Epsilon) {
			lots = append(lots, lot)
		}
	}
	return lots, nil
}

// AvailableQuantity sums the remaining quantity over non-depleted lots.
func (l *Ledger) AvailableQuantity(ctx context.Context, tx *sql.Tx, itemID string) (decimal.Decimal, error) {
	lots, err := l.GetOrderedLots(ctx, tx, itemID)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, lot := range lots {
		total = total.Add(lot.QuantityRemaining)
	}
	return total, nil
}

// Consume walks the item's lots oldest first, taking from each until the
// quantity is covered or stock runs out. Running out is reported as a
// shortfall, not an error.
//
// A dry run computes the same breakdown and cost without writing. A real
// run decrements lots inside tx, or inside its own transaction when tx is nil.
func (l *Ledger) Consume(ctx context.Context, tx *sql.Tx, itemID string, quantity decimal.Decimal, dryRun bool) (*models.ConsumptionResult, error) {
	if quantity.IsNegative() {
		return nil, models.NewValidationError("quantity", "cannot consume negative quantity %s", quantity)
	}

	if dryRun || tx != nil {
		return l.consume(ctx, tx, itemID, quantity, dryRun)
	}

	var result *models.ConsumptionResult
	err := database.RunInTx(ctx, l.db, func(tx *sql.Tx) error {
		var err error
		result, err = l.consume(ctx, tx, itemID, quantity, false)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (l *Ledger) consume(ctx context.Context, tx *sql.Tx, itemID string, quantity decimal.Decimal, dryRun bool) (*models.ConsumptionResult, error) {
	lots, err := l.GetOrderedLots(ctx, tx, itemID)
	if err != nil {
		return nil, err
	}

	result := &models.ConsumptionResult{
		ItemID:    itemID,
		Requested: quantity,
		Consumed:  decimal.Zero,
		TotalCost: decimal.Zero,
		DryRun:    dryRun,
	}

	remaining := quantity
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}

		take := decimal.Min(remaining, lot.QuantityRemaining)
		cost := take.Mul(lot.CostPerUnit)

		result.Breakdown = append(result.Breakdown, models.LotConsumption{
			LotID:        lot.ID,
			PurchaseDate: lot.PurchaseDate,
			Quantity:     take,
			UnitCost:     lot.CostPerUnit,
			Cost:         cost,
		})
		result.Consumed = result.Consumed.Add(take)
		result.TotalCost = result.TotalCost.Add(cost)
		remaining = remaining.Sub(take)

		if !dryRun {
			newRemaining := lot.QuantityRemaining.Sub(take)
			if err := l.lots.UpdateLotRemaining(ctx, tx, lot.ID, newRemaining); err != nil {
				return nil, fmt.Errorf("decrementing lot %s: %w", lot.ID, err)
			}
			lot.QuantityRemaining = newRemaining
		}
	}

	result.TotalCost = result.TotalCost.Round(l.cfg.CostPlaces)
	result.Shortfall = decimal.Max(decimal.Zero, quantity.Sub(result.Consumed))
	result.Satisfied = result.Shortfall.IsZero()

	return result, nil
}

// ValidateAvailability dry-runs every requirement and reports the ones that
// cannot be met. Requirements naming the same item are summed first so the
// same stock is never counted twice. Nothing is written.
func (l *Ledger) ValidateAvailability(ctx context.Context, tx *sql.Tx, reqs []models.Requirement) (*models.AvailabilityReport, error) {
	var order []string
	totals := make(map[string]decimal.Decimal)
	for _, r := range reqs {
		if r.Quantity.IsNegative() {
			return nil, models.NewValidationError("quantity", "negative requirement %s for %s", r.Quantity, r.ItemID)
		}
		if _, seen := totals[r.ItemID]; !seen {
			order = append(order, r.ItemID)
		}
		totals[r.ItemID] = totals[r.ItemID].Add(r.Quantity)
	}

	report := &models.AvailabilityReport{CanFulfill: true}
	for _, itemID := range order {
		res, err := l.consume(ctx, tx, itemID, totals[itemID], true)
		if err != nil {
			return nil, err
		}
		report.Results = append(report.Results, res)

		if !res.Satisfied {
			report.CanFulfill = false
			report.Shortfalls = append(report.Shortfalls, models.Shortfall{
				ItemID:    itemID,
				Kind:      domainKind(l.Domain()),
				Needed:    res.Requested,
				Available: res.Consumed,
				Shortfall: res.Shortfall,
			})
		}
	}

	return report, nil
}

func domainKind(d models.InventoryDomain) string {
	if d == models.DomainMaterial {
		return "material"
	}
	return "ingredient"
}

// RecordConsumptions writes audit rows for a committed consumption. The run
// they reference must already exist in tx.
func (l *Ledger) RecordConsumptions(ctx context.Context, tx *sql.Tx, recs []*models.ConsumptionRecord) error {
	for _, rec := range recs {
		if err := l.lots.CreateConsumption(ctx, tx, rec); err != nil {
			return fmt.Errorf("recording consumption for run %s: %w", rec.RunID, err)
		}
	}
	return nil
}

// ListConsumptions returns the audit rows of one run in this domain.
func (l *Ledger) ListConsumptions(ctx context.Context, tx *sql.Tx, runID string) ([]*models.ConsumptionRecord, error) {
	return l.lots.ListConsumptionsForRun(ctx, tx, runID)
}
