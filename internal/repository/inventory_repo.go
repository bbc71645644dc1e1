package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
)

// ledgerTables names the tables backing one inventory domain. The ingredient
// and material ledgers share a schema shape and differ only in table names.
type ledgerTables struct {
	purchases    string
	lots         string
	items        string
	consumptions string
}

var domainTables = map[models.InventoryDomain]ledgerTables{
	models.DomainIngredient: {
		purchases:    "purchases",
		lots:         "inventory_items",
		items:        "products",
		consumptions: "production_consumptions",
	},
	models.DomainMaterial: {
		purchases:    "material_purchases",
		lots:         "material_inventory_items",
		items:        "materials",
		consumptions: "material_consumptions",
	},
}

// InventoryRepository handles purchase, lot and consumption data access for
// one inventory domain.
type InventoryRepository struct {
	db     *sql.DB
	domain models.InventoryDomain
	t      ledgerTables
}

// NewInventoryRepository creates a repository for the given domain.
func NewInventoryRepository(db *sql.DB, domain models.InventoryDomain) *InventoryRepository {
	t, ok := domainTables[domain]
	if !ok {
		panic(fmt.Sprintf("unknown inventory domain %q", domain))
	}
	return &InventoryRepository{db: db, domain: domain, t: t}
}

// Domain returns the inventory domain this repository serves.
func (r *InventoryRepository) Domain() models.InventoryDomain {
	return r.domain
}

// ============================================================================
// PURCHASES
// ============================================================================

// CreatePurchase inserts an immutable purchase record.
func (r *InventoryRepository) CreatePurchase(ctx context.Context, tx *sql.Tx, p *models.Purchase) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, supplier_id, item_id, purchase_date, quantity, unit_cost, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, r.t.purchases)

	p.Domain = r.domain
	p.CreatedAt = time.Now().UTC()

	_, err := r.getQuerier(tx).ExecContext(ctx, query,
		p.ID,
		nullableStringPtr(p.SupplierID),
		p.ItemID,
		formatDate(p.PurchaseDate),
		p.Quantity,
		p.UnitCost,
		nullableString(p.Notes),
		formatTimestamp(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting purchase: %w", err)
	}
	return nil
}

// GetPurchase retrieves a purchase by ID.
func (r *InventoryRepository) GetPurchase(ctx context.Context, tx *sql.Tx, id string) (*models.Purchase, error) {
	query := fmt.Sprintf(`
		SELECT id, supplier_id, item_id, purchase_date, quantity, unit_cost, notes, created_at
		FROM %s
		WHERE id = ?`, r.t.purchases)

	var p models.Purchase
	var supplierID, notes sql.NullString
	var dateStr, createdStr string

	err := r.getQuerier(tx).QueryRowContext(ctx, query, id).Scan(
		&p.ID, &supplierID, &p.ItemID, &dateStr, &p.Quantity, &p.UnitCost, &notes, &createdStr,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("purchase %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning purchase: %w", err)
	}

	p.Domain = r.domain
	p.SupplierID = stringPtr(supplierID)
	p.Notes = notes.String
	p.PurchaseDate = parseDate(dateStr)
	p.CreatedAt = parseTimestamp(createdStr)
	return &p, nil
}

// ============================================================================
// LOTS
// ============================================================================

// CreateLot inserts a new lot.
func (r *InventoryRepository) CreateLot(ctx context.Context, tx *sql.Tx, lot *models.InventoryLot) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			id, purchase_id, item_id, quantity_purchased, quantity_remaining,
			cost_per_unit, purchase_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.t.lots)

	now := time.Now().UTC()
	lot.Domain = r.domain
	lot.CreatedAt = now
	lot.UpdatedAt = now

	_, err := r.getQuerier(tx).ExecContext(ctx, query,
		lot.ID,
		lot.PurchaseID,
		lot.ItemID,
		lot.QuantityPurchased,
		lot.QuantityRemaining,
		lot.CostPerUnit,
		formatDate(lot.PurchaseDate),
		formatTimestamp(lot.CreatedAt),
		formatTimestamp(lot.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting lot: %w", err)
	}
	return nil
}

// GetLot retrieves a lot by ID.
func (r *InventoryRepository) GetLot(ctx context.Context, tx *sql.Tx, id string) (*models.InventoryLot, error) {
	query := fmt.Sprintf(`
		SELECT id, purchase_id, item_id, quantity_purchased, quantity_remaining,
			cost_per_unit, purchase_date, created_at, updated_at
		FROM %s
		WHERE id = ?`, r.t.lots)

	lot, err := r.scanLot(r.getQuerier(tx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lot %s: %w", id, ErrNotFound)
	}
	return lot, err
}

// ListLotsForItem returns every lot of an item, oldest first. Ties on
// purchase date resolve by insertion order. Depletion filtering is left to
// the caller, which owns the epsilon.
func (r *InventoryRepository) ListLotsForItem(ctx context.Context, tx *sql.Tx, itemID string) ([]*models.InventoryLot, error) {
	query := fmt.Sprintf(`
		SELECT id, purchase_id, item_id, quantity_purchased, quantity_remaining,
			cost_per_unit, purchase_date, created_at, updated_at
		FROM %s
		WHERE item_id = ?
		ORDER BY purchase_date ASC, rowid ASC`, r.t.lots)

	rows, err := r.getQuerier(tx).QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("querying lots: %w", err)
	}
	defer rows.Close()

	var lots []*models.InventoryLot
	for rows.Next() {
		lot, err := r.scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// ListLotViews returns every lot joined with its item name, grouped by item
// and FIFO ordered within each item.
func (r *InventoryRepository) ListLotViews(ctx context.Context, tx *sql.Tx, itemID string) ([]*models.LotView, error) {
	var args []any
	where := ""
	if itemID != "" {
		where = "WHERE l.item_id = ?"
		args = append(args, itemID)
	}

	query := fmt.Sprintf(`
		SELECT l.id, l.purchase_id, l.item_id, l.quantity_purchased, l.quantity_remaining,
			l.cost_per_unit, l.purchase_date, l.created_at, l.updated_at,
			i.display_name, i.unit
		FROM %s l
		JOIN %s i ON i.id = l.item_id
		%s
		ORDER BY i.display_name, l.purchase_date ASC, l.rowid ASC`, r.t.lots, r.t.items, where)

	rows, err := r.getQuerier(tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lot views: %w", err)
	}
	defer rows.Close()

	var views []*models.LotView
	for rows.Next() {
		var lot models.InventoryLot
		var v models.LotView
		var dateStr, createdStr, updatedStr string
		if err := rows.Scan(
			&lot.ID, &lot.PurchaseID, &lot.ItemID, &lot.QuantityPurchased, &lot.QuantityRemaining,
			&lot.CostPerUnit, &dateStr, &createdStr, &updatedStr,
			&v.ItemName, &v.Unit,
		); err != nil {
			return nil, fmt.Errorf("scanning lot view: %w", err)
		}
		lot.Domain = r.domain
		lot.PurchaseDate = parseDate(dateStr)
		lot.CreatedAt = parseTimestamp(createdStr)
		lot.UpdatedAt = parseTimestamp(updatedStr)
		v.InventoryLot = &lot
		views = append(views, &v)
	}
	return views, rows.Err()
}

// UpdateLotRemaining sets the remaining quantity of a lot.
func (r *InventoryRepository) UpdateLotRemaining(ctx context.Context, tx *sql.Tx, lotID string, remaining decimal.Decimal) error {
	query := fmt.Sprintf(`
		UPDATE %s SET quantity_remaining = ?, updated_at = ?
		WHERE id = ?`, r.t.lots)

	result, err := r.getQuerier(tx).ExecContext(ctx, query,
		remaining,
		formatTimestamp(time.Now()),
		lotID,
	)
	if err != nil {
		return fmt.Errorf("updating lot: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("lot %s: %w", lotID, ErrNotFound)
	}
	return nil
}

// ItemInfo returns the display name and base unit of an item in this domain.
func (r *InventoryRepository) ItemInfo(ctx context.Context, tx *sql.Tx, itemID string) (name, unit string, err error) {
	query := fmt.Sprintf(`SELECT display_name, unit FROM %s WHERE id = ?`, r.t.items)

	err = r.getQuerier(tx).QueryRowContext(ctx, query, itemID).Scan(&name, &unit)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return "", "", fmt.Errorf("querying item: %w", err)
	}
	return name, unit, nil
}

// ============================================================================
// CONSUMPTIONS
// ============================================================================

// CreateConsumption inserts an immutable consumption record.
func (r *InventoryRepository) CreateConsumption(ctx context.Context, tx *sql.Tx, rec *models.ConsumptionRecord) error {
	rec.Domain = r.domain
	rec.CreatedAt = time.Now().UTC()

	var err error
	if r.domain == models.DomainMaterial {
		_, err = r.getQuerier(tx).ExecContext(ctx, `
			INSERT INTO material_consumptions (
				id, run_id, lot_id, item_id, item_name, unit, material_unit_name,
				quantity, unit_cost, total_cost, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.RunID, rec.LotID, rec.ItemID, rec.ItemName, rec.Unit,
			nullableString(rec.MaterialUnitName),
			rec.Quantity, rec.UnitCost, rec.TotalCost, formatTimestamp(rec.CreatedAt),
		)
	} else {
		_, err = r.getQuerier(tx).ExecContext(ctx, `
			INSERT INTO production_consumptions (
				id, run_id, lot_id, item_id, item_name, unit,
				quantity, unit_cost, total_cost, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.RunID, rec.LotID, rec.ItemID, rec.ItemName, rec.Unit,
			rec.Quantity, rec.UnitCost, rec.TotalCost, formatTimestamp(rec.CreatedAt),
		)
	}
	if err != nil {
		return fmt.Errorf("inserting consumption: %w", err)
	}
	return nil
}

// ListConsumptionsForRun returns the consumption records of one run.
func (r *InventoryRepository) ListConsumptionsForRun(ctx context.Context, tx *sql.Tx, runID string) ([]*models.ConsumptionRecord, error) {
	unitName := "NULL"
	if r.domain == models.DomainMaterial {
		unitName = "material_unit_name"
	}

	query := fmt.Sprintf(`
		SELECT id, run_id, lot_id, item_id, item_name, unit, %s,
			quantity, unit_cost, total_cost, created_at
		FROM %s
		WHERE run_id = ?
		ORDER BY rowid`, unitName, r.t.consumptions)

	rows, err := r.getQuerier(tx).QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("querying consumptions: %w", err)
	}
	defer rows.Close()

	var records []*models.ConsumptionRecord
	for rows.Next() {
		var rec models.ConsumptionRecord
		var muName sql.NullString
		var createdStr string
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.LotID, &rec.ItemID, &rec.ItemName, &rec.Unit, &muName,
			&rec.Quantity, &rec.UnitCost, &rec.TotalCost, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scanning consumption: %w", err)
		}
		rec.Domain = r.domain
		rec.MaterialUnitName = muName.String
		rec.CreatedAt = parseTimestamp(createdStr)
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// ============================================================================
// HELPERS
// ============================================================================

func (r *InventoryRepository) getQuerier(tx *sql.Tx) querier {
	return getQuerier(r.db, tx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *InventoryRepository) scanLot(row rowScanner) (*models.InventoryLot, error) {
	var lot models.InventoryLot
	var dateStr, createdStr, updatedStr string

	err := row.Scan(
		&lot.ID, &lot.PurchaseID, &lot.ItemID, &lot.QuantityPurchased, &lot.QuantityRemaining,
		&lot.CostPerUnit, &dateStr, &createdStr, &updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning lot: %w", err)
	}

	lot.Domain = r.domain
	lot.PurchaseDate = parseDate(dateStr)
	lot.CreatedAt = parseTimestamp(createdStr)
	lot.UpdatedAt = parseTimestamp(updatedStr)
	return &lot, nil
}
