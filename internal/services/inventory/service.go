// Package inventory provides the FIFO ledgers and purchasing services for
// ingredients and packaging materials.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/database"
	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/repository"
	"github.com/bakeplan/bakeplan/internal/util"
)

// Service provides supplier, item, purchase and stock operations.
type Service struct {
	db          *sql.DB
	items       *repository.ItemRepository
	ledgers     map[models.InventoryDomain]*Ledger
	cfg         LedgerConfig
	idGenerator *util.IDGenerator
}

// NewService creates a new inventory service.
func NewService(db *sql.DB, cfg LedgerConfig) *Service {
	return &Service{
		db:    db,
		items: repository.NewItemRepository(db),
		ledgers: map[models.InventoryDomain]*Ledger{
			models.DomainIngredient: NewLedger(db, models.DomainIngredient, cfg),
			models.DomainMaterial:   NewLedger(db, models.DomainMaterial, cfg),
		},
		cfg:         cfg,
		idGenerator: util.NewIDGenerator(),
	}
}

// Ledger returns the FIFO ledger for a domain, nil for an unknown domain.
func (s *Service) Ledger(domain models.InventoryDomain) *Ledger {
	return s.ledgers[domain]
}

// Ingredients returns the ingredient ledger.
func (s *Service) Ingredients() *Ledger {
	return s.ledgers[models.DomainIngredient]
}

// Materials returns the packaging material ledger.
func (s *Service) Materials() *Ledger {
	return s.ledgers[models.DomainMaterial]
}

// ============================================================================
// SUPPLIERS
// ============================================================================

// CreateSupplier creates a new supplier.
func (s *Service) CreateSupplier(ctx context.Context, input CreateSupplierInput) (*models.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, models.NewValidationError("name", "supplier name is required")
	}

	sup := &models.Supplier{
		ID:    s.idGenerator.NewID(),
		Name:  name,
		Notes: input.Notes,
	}
	if err := s.items.CreateSupplier(ctx, nil, sup); err != nil {
		return nil, fmt.Errorf("creating supplier: %w", err)
	}
	return sup, nil
}

// ListSuppliers retrieves all suppliers.
func (s *Service) ListSuppliers(ctx context.Context) ([]*models.Supplier, error) {
	return s.items.ListSuppliers(ctx, nil)
}

// ============================================================================
// PRODUCTS & MATERIALS
// ============================================================================

// CreateProduct creates a purchasable ingredient.
func (s *Service) CreateProduct(ctx context.Context, input CreateItemInput) (*models.Product, error) {
	slug, err := itemSlug(input)
	if err != nil {
		return nil, err
	}

	p := &models.Product{
		ID:          s.idGenerator.NewID(),
		Slug:        slug,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Unit:        input.Unit,
	}
	if err := s.items.CreateProduct(ctx, nil, p); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return p, nil
}

// GetProduct retrieves a product by ID.
func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.items.GetProduct(ctx, nil, id)
}

// GetProductBySlug retrieves a product by slug.
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.items.GetProductBySlug(ctx, nil, slug)
}

// ListProducts retrieves all products.
func (s *Service) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.items.ListProducts(ctx, nil)
}

// CreateMaterial creates a packaging material.
func (s *Service) CreateMaterial(ctx context.Context, input CreateItemInput) (*models.Material, error) {
	slug, err := itemSlug(input)
	if err != nil {
		return nil, err
	}

	m := &models.Material{
		ID:          s.idGenerator.NewID(),
		Slug:        slug,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Unit:        input.Unit,
	}
	if err := s.items.CreateMaterial(ctx, nil, m); err != nil {
		return nil, fmt.Errorf("creating material: %w", err)
	}
	return m, nil
}

// GetMaterial retrieves a material by ID.
func (s *Service) GetMaterial(ctx context.Context, id string) (*models.Material, error) {
	return s.items.GetMaterial(ctx, nil, id)
}

// ListMaterials retrieves all materials.
func (s *Service) ListMaterials(ctx context.Context) ([]*models.Material, error) {
	return s.items.ListMaterials(ctx, nil)
}

// CreateMaterialUnit defines a consumable portion of a material.
func (s *Service) CreateMaterialUnit(ctx context.Context, input CreateMaterialUnitInput) (*models.MaterialUnit, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, models.NewValidationError("name", "material unit name is required")
	}
	if !input.QuantityPerUnit.IsPositive() {
		return nil, models.NewValidationError("quantity_per_unit", "must be positive, got %s", input.QuantityPerUnit)
	}
	if _, err := s.items.GetMaterial(ctx, nil, input.MaterialID); err != nil {
		return nil, notFoundAsValidation("material_id", err)
	}

	mu := &models.MaterialUnit{
		ID:              s.idGenerator.NewID(),
		MaterialID:      input.MaterialID,
		Name:            strings.TrimSpace(input.Name),
		QuantityPerUnit: input.QuantityPerUnit,
	}
	if err := s.items.CreateMaterialUnit(ctx, nil, mu); err != nil {
		return nil, fmt.Errorf("creating material unit: %w", err)
	}
	return mu, nil
}

// GetMaterialUnit retrieves a material unit with its material.
func (s *Service) GetMaterialUnit(ctx context.Context, id string) (*models.MaterialUnit, error) {
	return s.items.GetMaterialUnit(ctx, nil, id)
}

// ListMaterialUnits retrieves the units of one material, or all when materialID is empty.
func (s *Service) ListMaterialUnits(ctx context.Context, materialID string) ([]*models.MaterialUnit, error) {
	return s.items.ListMaterialUnits(ctx, nil, materialID)
}

// ============================================================================
// PURCHASES
// ============================================================================

// RecordPurchase stores an immutable purchase and the single lot it creates,
// in one transaction. Unit cost is rounded to currency precision; zero cost
// is allowed for donated stock.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (*models.Purchase, *models.InventoryLot, error) {
	ledger := s.ledgers[input.Domain]
	if ledger == nil {
		return nil, nil, models.NewValidationError("domain", "unknown inventory domain %q", input.Domain)
	}
	if !input.Quantity.IsPositive() {
		return nil, nil, models.NewValidationError("quantity", "purchase quantity must be positive, got %s", input.Quantity)
	}
	if input.UnitCost.IsNegative() {
		return nil, nil, models.NewValidationError("unit_cost", "cannot be negative, got %s", input.UnitCost)
	}
	if input.PurchaseDate.IsZero() {
		return nil, nil, models.NewValidationError("purchase_date", "is required")
	}

	purchase := &models.Purchase{
		ID:           s.idGenerator.NewID(),
		SupplierID:   input.SupplierID,
		ItemID:       input.ItemID,
		PurchaseDate: util.StartOfDay(input.PurchaseDate),
		Quantity:     input.Quantity,
		UnitCost:     input.UnitCost.Round(s.cfg.CostPlaces),
		Notes:        input.Notes,
	}
	lot := &models.InventoryLot{
		ID:                s.idGenerator.NewID(),
		PurchaseID:        purchase.ID,
		ItemID:            input.ItemID,
		QuantityPurchased: purchase.Quantity,
		QuantityRemaining: purchase.Quantity,
		CostPerUnit:       purchase.UnitCost,
		PurchaseDate:      purchase.PurchaseDate,
	}

	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, _, err := ledger.lots.ItemInfo(ctx, tx, input.ItemID); err != nil {
			return notFoundAsValidation("item_id", err)
		}
		if input.SupplierID != nil {
			if _, err := s.items.GetSupplier(ctx, tx, *input.SupplierID); err != nil {
				return notFoundAsValidation("supplier_id", err)
			}
		}
		if err := ledger.lots.CreatePurchase(ctx, tx, purchase); err != nil {
			return err
		}
		return ledger.lots.CreateLot(ctx, tx, lot)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recording purchase: %w", err)
	}

	slog.Info("purchase recorded",
		"domain", input.Domain,
		"item_id", input.ItemID,
		"quantity", purchase.Quantity.String(),
		"unit_cost", purchase.UnitCost.String(),
		"lot_id", lot.ID,
	)
	return purchase, lot, nil
}

// ============================================================================
// STOCK
// ============================================================================

// ListLots returns lots with item names, FIFO ordered within each item.
// Depleted lots are hidden unless the filter asks for them.
func (s *Service) ListLots(ctx context.Context, domain models.InventoryDomain, filter models.LotFilter) ([]*models.LotView, error) {
	ledger := s.ledgers[domain]
	if ledger == nil {
		return nil, models.NewValidationError("domain", "unknown inventory domain %q", domain)
	}

	views, err := ledger.lots.ListLotViews(ctx, nil, filter.ItemID)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	if filter.IncludeDepleted {
		return views, nil
	}

	kept := views[:0]
	for _, v := range views {
		if !v.IsDepleted(ledger.cfg.Epsilon) {
			kept = append(kept, v)
		}
	}
	return kept, nil
}

// StockSummaries totals on-hand quantity and value per item, in item name order.
func (s *Service) StockSummaries(ctx context.Context, domain models.InventoryDomain) ([]*models.StockSummary, error) {
	views, err := s.ListLots(ctx, domain, models.LotFilter{})
	if err != nil {
		return nil, err
	}

	var summaries []*models.StockSummary
	byItem := make(map[string]*models.StockSummary)
	for _, v := range views {
		sum, ok := byItem[v.ItemID]
		if !ok {
			sum = &models.StockSummary{
				ItemID:     v.ItemID,
				ItemName:   v.ItemName,
				Unit:       v.Unit,
				OnHand:     decimal.Zero,
				Value:      decimal.Zero,
				OldestDate: v.PurchaseDate,
			}
			byItem[v.ItemID] = sum
			summaries = append(summaries, sum)
		}
		sum.LotCount++
		sum.OnHand = sum.OnHand.Add(v.QuantityRemaining)
		sum.Value = sum.Value.Add(v.RemainingValue())
		if v.PurchaseDate.Before(sum.OldestDate) {
			sum.OldestDate = v.PurchaseDate
		}
	}

	for _, sum := range summaries {
		sum.Value = sum.Value.Round(s.cfg.CostPlaces)
	}
	return summaries, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func itemSlug(input CreateItemInput) (string, error) {
	if strings.TrimSpace(input.DisplayName) == "" {
		return "", models.NewValidationError("display_name", "is required")
	}
	if strings.TrimSpace(input.Unit) == "" {
		return "", models.NewValidationError("unit", "is required")
	}
	slug := input.Slug
	if slug == "" {
		slug = util.Slugify(input.DisplayName)
	}
	if slug == "" {
		return "", models.NewValidationError("slug", "cannot derive slug from %q", input.DisplayName)
	}
	return slug, nil
}

// notFoundAsValidation turns a missing reference into a validation error and
// passes other errors through.
func notFoundAsValidation(field string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewValidationError(field, "%v", err)
	}
	return err
}
