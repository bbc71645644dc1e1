// Package production records baking and assembly runs, consuming stock FIFO
// and moving finished unit and finished good counts.
package production

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/database"
	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/repository"
	"github.com/bakeplan/bakeplan/internal/services/catalog"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
	"github.com/bakeplan/bakeplan/internal/util"
)

// costPlaces is the rounding for per-unit costs.
const costPlaces = 4

// Service provides production and assembly operations.
type Service struct {
	db          *sql.DB
	runs        *repository.ProductionRepository
	catalogRepo *repository.CatalogRepository
	items       *repository.ItemRepository
	events      *repository.PlanningRepository
	catalog     *catalog.Service
	inventory   *inventory.Service
	clock       util.Clock
	idGenerator *util.IDGenerator
}

// NewService creates a new production service.
func NewService(db *sql.DB, cat *catalog.Service, inv *inventory.Service) *Service {
	return &Service{
		db:          db,
		runs:        repository.NewProductionRepository(db),
		catalogRepo: repository.NewCatalogRepository(db),
		items:       repository.NewItemRepository(db),
		events:      repository.NewPlanningRepository(db),
		catalog:     cat,
		inventory:   inv,
		clock:       util.SystemClock{},
		idGenerator: util.NewIDGenerator(),
	}
}

// SetClock replaces the clock used to stamp runs.
func (s *Service) SetClock(c util.Clock) {
	s.clock = c
}

// ============================================================================
// PRODUCTION RUNS
// ============================================================================

// RecordProductionRun consumes a recipe's ingredients for the given batches,
// oldest lots first, and adds the yield to the finished unit's count. If any
// ingredient is short nothing is written and an InsufficientInventoryError
// lists every short ingredient.
func (s *Service) RecordProductionRun(ctx context.Context, input ProductionInput) (*models.ProductionRun, error) {
	if input.Batches <= 0 {
		return nil, models.NewValidationError("batches", "must be positive, got %d", input.Batches)
	}
	if input.ActualYield != nil && *input.ActualYield < 0 {
		return nil, models.NewValidationError("actual_yield", "must not be negative, got %d", *input.ActualYield)
	}

	if !util.IsValidID(input.FinishedUnitID) {
		return nil, models.NewValidationError("finished_unit_id", "malformed id %q", input.FinishedUnitID)
	}
	unit, err := s.catalog.GetFinishedUnit(ctx, input.FinishedUnitID)
	if err != nil {
		return nil, notFoundAsValidation("finished_unit_id", err)
	}
	yield, err := s.catalog.YieldPerBatch(ctx, unit.ID)
	if err != nil {
		return nil, err
	}
	recipe, err := s.catalog.GetRecipe(ctx, unit.RecipeID)
	if err != nil {
		return nil, notFoundAsValidation("recipe_id", err)
	}

	batches := decimal.NewFromInt(int64(input.Batches))
	run := &models.ProductionRun{
		ID:             s.idGenerator.NewID(),
		RecipeID:       recipe.ID,
		FinishedUnitID: unit.ID,
		EventID:        input.EventID,
		Batches:        input.Batches,
		ExpectedYield:  int(yield.Mul(batches).Floor().IntPart()),
		Notes:          input.Notes,
		ProducedAt:     s.stamp(input.ProducedAt),
	}
	run.ActualYield = run.ExpectedYield
	if input.ActualYield != nil {
		run.ActualYield = *input.ActualYield
	}

	ledger := s.inventory.Ingredients()
	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.checkEvent(ctx, tx, input.EventID); err != nil {
			return err
		}

		// Check every ingredient before touching any lot.
		var shortfalls []models.Shortfall
		for _, ing := range recipe.Ingredients {
			need := ing.Quantity.Mul(batches)
			res, err := ledger.Consume(ctx, tx, ing.ProductID, need, true)
			if err != nil {
				return err
			}
			if !res.Satisfied {
				shortfalls = append(shortfalls, shortfallOf(res, productName(ing), "ingredient"))
			}
		}
		if len(shortfalls) > 0 {
			return &models.InsufficientInventoryError{Operation: "production of " + unit.DisplayName, Shortfalls: shortfalls}
		}

		total := decimal.Zero
		var records []*models.ConsumptionRecord
		for _, ing := range recipe.Ingredients {
			res, err := ledger.Consume(ctx, tx, ing.ProductID, ing.Quantity.Mul(batches), false)
			if err != nil {
				return err
			}
			total = total.Add(res.TotalCost)
			name, unitName := productName(ing), ""
			if ing.Product != nil {
				unitName = ing.Product.Unit
			}
			records = append(records, s.records(run.ID, res, name, unitName, "")...)
		}

		run.TotalIngredientCost = total
		run.PerUnitCost = decimal.Zero
		if run.ActualYield > 0 {
			run.PerUnitCost = total.DivRound(decimal.NewFromInt(int64(run.ActualYield)), costPlaces)
		}
		run.Consumptions = records

		if err := s.runs.CreateProductionRun(ctx, tx, run); err != nil {
			return err
		}
		if err := ledger.RecordConsumptions(ctx, tx, records); err != nil {
			return err
		}
		return s.catalogRepo.AdjustFinishedUnitCount(ctx, tx, unit.ID, run.ActualYield)
	})
	if err != nil {
		var short *models.InsufficientInventoryError
		if errors.As(err, &short) {
			slog.Warn("production run refused", "finished_unit_id", unit.ID, "batches", input.Batches, "shortfalls", len(short.Shortfalls))
		}
		return nil, fmt.Errorf("recording production run: %w", err)
	}

	slog.Info("production run recorded",
		"id", run.ID,
		"finished_unit", unit.DisplayName,
		"batches", run.Batches,
		"yield", run.ActualYield,
		"cost", run.TotalIngredientCost.String(),
	)
	return run, nil
}

// GetProductionRun retrieves a production run with its consumption records.
func (s *Service) GetProductionRun(ctx context.Context, id string) (*models.ProductionRun, error) {
	run, err := s.runs.GetProductionRun(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	run.Consumptions, err = s.inventory.Ingredients().ListConsumptions(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ============================================================================
// ASSEMBLY RUNS
// ============================================================================

// componentNeed is the total of one component kind and reference a run needs.
type componentNeed struct {
	kind  models.ComponentKind
	refID string
	qty   decimal.Decimal
}

// RecordAssemblyRun builds quantity of a finished good from stocked finished
// units and nested goods plus FIFO-consumed packaging materials. Every
// component is checked first; if any is short nothing is written and an
// InsufficientInventoryError lists all of them.
func (s *Service) RecordAssemblyRun(ctx context.Context, input AssemblyInput) (*models.AssemblyRun, error) {
	if input.Quantity <= 0 {
		return nil, models.NewValidationError("quantity", "must be positive, got %d", input.Quantity)
	}

	if !util.IsValidID(input.FinishedGoodID) {
		return nil, models.NewValidationError("finished_good_id", "malformed id %q", input.FinishedGoodID)
	}
	fg, err := s.catalog.GetFinishedGood(ctx, input.FinishedGoodID)
	if err != nil {
		return nil, notFoundAsValidation("finished_good_id", err)
	}

	needs, err := assemblyNeeds(fg, input.Quantity)
	if err != nil {
		return nil, err
	}

	run := &models.AssemblyRun{
		ID:             s.idGenerator.NewID(),
		FinishedGoodID: fg.ID,
		EventID:        input.EventID,
		Quantity:       input.Quantity,
		Notes:          input.Notes,
		AssembledAt:    s.stamp(input.AssembledAt),
	}

	ledger := s.inventory.Materials()
	err = database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.checkEvent(ctx, tx, input.EventID); err != nil {
			return err
		}

		shortfalls, materialUnits, err := s.checkAssembly(ctx, tx, ledger, needs)
		if err != nil {
			return err
		}
		if len(shortfalls) > 0 {
			return &models.InsufficientInventoryError{Operation: "assembly of " + fg.DisplayName, Shortfalls: shortfalls}
		}

		total := decimal.Zero
		var records []*models.ConsumptionRecord
		for _, n := range needs {
			switch n.kind {
			case models.ComponentFinishedUnit:
				if err := s.catalogRepo.AdjustFinishedUnitCount(ctx, tx, n.refID, -int(n.qty.IntPart())); err != nil {
					return err
				}
			case models.ComponentFinishedGood:
				if err := s.catalogRepo.AdjustFinishedGoodCount(ctx, tx, n.refID, -int(n.qty.IntPart())); err != nil {
					return err
				}
			case models.ComponentMaterialUnit:
				mu := materialUnits[n.refID]
				res, err := ledger.Consume(ctx, tx, mu.MaterialID, n.qty.Mul(mu.QuantityPerUnit), false)
				if err != nil {
					return err
				}
				total = total.Add(res.TotalCost)
				records = append(records, s.records(run.ID, res, mu.Material.DisplayName, mu.Material.Unit, mu.Name)...)
			}
		}

		run.TotalMaterialCost = total
		run.Consumptions = records

		if err := s.runs.CreateAssemblyRun(ctx, tx, run); err != nil {
			return err
		}
		if err := ledger.RecordConsumptions(ctx, tx, records); err != nil {
			return err
		}
		return s.catalogRepo.AdjustFinishedGoodCount(ctx, tx, fg.ID, input.Quantity)
	})
	if err != nil {
		var short *models.InsufficientInventoryError
		if errors.As(err, &short) {
			slog.Warn("assembly run refused", "finished_good_id", fg.ID, "quantity", input.Quantity, "shortfalls", len(short.Shortfalls))
		}
		return nil, fmt.Errorf("recording assembly run: %w", err)
	}

	slog.Info("assembly run recorded",
		"id", run.ID,
		"finished_good", fg.DisplayName,
		"quantity", run.Quantity,
		"cost", run.TotalMaterialCost.String(),
	)
	return run, nil
}

// checkAssembly compares every need with stock inside tx. Material needs
// are summed per material before the dry run so two units cut from the
// same roll are not both counted against the full roll.
func (s *Service) checkAssembly(ctx context.Context, tx *sql.Tx, ledger *inventory.Ledger, needs []componentNeed) ([]models.Shortfall, map[string]*models.MaterialUnit, error) {
	var shortfalls []models.Shortfall
	materialUnits := make(map[string]*models.MaterialUnit)

	var materialOrder []string
	materialQty := make(map[string]decimal.Decimal)
	materialName := make(map[string]string)

	for _, n := range needs {
		switch n.kind {
		case models.ComponentFinishedUnit:
			u, err := s.catalogRepo.GetFinishedUnit(ctx, tx, n.refID)
			if err != nil {
				return nil, nil, notFoundAsValidation("finished_unit_id", err)
			}
			if have := decimal.NewFromInt(int64(u.InventoryCount)); have.LessThan(n.qty) {
				shortfalls = append(shortfalls, countShortfall(u.ID, u.DisplayName, "finished_unit", n.qty, have))
			}

		case models.ComponentFinishedGood:
			g, err := s.catalogRepo.GetFinishedGood(ctx, tx, n.refID)
			if err != nil {
				return nil, nil, notFoundAsValidation("finished_good_id", err)
			}
			if have := decimal.NewFromInt(int64(g.InventoryCount)); have.LessThan(n.qty) {
				shortfalls = append(shortfalls, countShortfall(g.ID, g.DisplayName, "finished_good", n.qty, have))
			}

		case models.ComponentMaterialUnit:
			mu, err := s.items.GetMaterialUnit(ctx, tx, n.refID)
			if err != nil {
				return nil, nil, notFoundAsValidation("material_unit_id", err)
			}
			materialUnits[mu.ID] = mu
			if _, ok := materialQty[mu.MaterialID]; !ok {
				materialOrder = append(materialOrder, mu.MaterialID)
				materialName[mu.MaterialID] = mu.Material.DisplayName
			}
			materialQty[mu.MaterialID] = materialQty[mu.MaterialID].Add(n.qty.Mul(mu.QuantityPerUnit))
		}
	}

	for _, id := range materialOrder {
		res, err := ledger.Consume(ctx, tx, id, materialQty[id], true)
		if err != nil {
			return nil, nil, err
		}
		if !res.Satisfied {
			shortfalls = append(shortfalls, shortfallOf(res, materialName[id], "material"))
		}
	}
	return shortfalls, materialUnits, nil
}

// assemblyNeeds sums a good's components for quantity goods. Stocked units
// and goods are whole items, so their totals must be whole.
func assemblyNeeds(fg *models.FinishedGood, quantity int) ([]componentNeed, error) {
	q := decimal.NewFromInt(int64(quantity))
	index := make(map[string]int)
	var needs []componentNeed

	for _, c := range fg.Components {
		total := c.Quantity.Mul(q)
		if !total.IsPositive() {
			continue
		}
		if c.Kind != models.ComponentMaterialUnit && !total.IsInteger() {
			return nil, models.NewValidationError("component_quantity",
				"%s %s needs %s items, which is not a whole number", c.Kind, c.RefID, total)
		}

		key := string(c.Kind) + ":" + c.RefID
		if i, ok := index[key]; ok {
			needs[i].qty = needs[i].qty.Add(total)
			continue
		}
		index[key] = len(needs)
		needs = append(needs, componentNeed{kind: c.Kind, refID: c.RefID, qty: total})
	}
	return needs, nil
}

// GetAssemblyRun retrieves an assembly run with its consumption records.
func (s *Service) GetAssemblyRun(ctx context.Context, id string) (*models.AssemblyRun, error) {
	run, err := s.runs.GetAssemblyRun(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	run.Consumptions, err = s.inventory.Materials().ListConsumptions(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRecentRuns returns production and assembly runs, newest first.
func (s *Service) ListRecentRuns(ctx context.Context, limit int) ([]*models.RunSummary, error) {
	return s.runs.ListRecentRuns(ctx, nil, limit)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Service) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.clock.Now()
	}
	return t.UTC()
}

func (s *Service) checkEvent(ctx context.Context, tx *sql.Tx, eventID *string) error {
	if eventID == nil {
		return nil
	}
	if !util.IsValidID(*eventID) {
		return models.NewValidationError("event_id", "malformed id %q", *eventID)
	}
	if _, err := s.events.GetEvent(ctx, tx, *eventID); err != nil {
		return notFoundAsValidation("event_id", err)
	}
	return nil
}

// records turns a committed consumption into one audit row per lot touched.
func (s *Service) records(runID string, res *models.ConsumptionResult, itemName, unit, materialUnitName string) []*models.ConsumptionRecord {
	recs := make([]*models.ConsumptionRecord, 0, len(res.Breakdown))
	for _, lc := range res.Breakdown {
		recs = append(recs, &models.ConsumptionRecord{
			ID:               s.idGenerator.NewID(),
			RunID:            runID,
			LotID:            lc.LotID,
			ItemID:           res.ItemID,
			ItemName:         itemName,
			Unit:             unit,
			MaterialUnitName: materialUnitName,
			Quantity:         lc.Quantity,
			UnitCost:         lc.UnitCost,
			TotalCost:        lc.Cost,
		})
	}
	return recs
}

func shortfallOf(res *models.ConsumptionResult, name, kind string) models.Shortfall {
	return models.Shortfall{
		ItemID:    res.ItemID,
		ItemName:  name,
		Kind:      kind,
		Needed:    res.Requested,
		Available: res.Consumed,
		Shortfall: res.Shortfall,
	}
}

func countShortfall(id, name, kind string, needed, have decimal.Decimal) models.Shortfall {
	return models.Shortfall{
		ItemID:    id,
		ItemName:  name,
		Kind:      kind,
		Needed:    needed,
		Available: have,
		Shortfall: needed.Sub(have),
	}
}

func productName(ing *models.RecipeIngredient) string {
	if ing.Product != nil {
		return ing.Product.DisplayName
	}
	return ing.ProductID
}

func notFoundAsValidation(field string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewValidationError(field, "%v", err)
	}
	return err
}
