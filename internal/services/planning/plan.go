package planning

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
)

// shoppingNeed is an item and how much of it the plan needs.
type shoppingNeed struct {
	itemID string
	name   string
	unit   string
	qty    decimal.Decimal
}

// PlanEvent builds the full plan for an event: unit and material
// requirements, batches per recipe, shopping lists priced from FIFO stock
// and feasibility against batch decisions. Targets whose goods cannot be
// decomposed are listed in Errors and left out of the totals.
func (s *Service) PlanEvent(ctx context.Context, eventID string) (*models.EventPlan, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	plan := &models.EventPlan{
		Event:        event,
		Requirements: models.NewRequirements(),
	}

	for _, t := range event.Targets {
		if t.Quantity <= 0 {
			continue
		}
		req, err := s.catalog.DecomposeAll(ctx, t.FinishedGoodID, decimal.NewFromInt(int64(t.Quantity)))
		if err != nil {
			plan.Errors = append(plan.Errors, fmt.Sprintf("%s: %v", targetName(t), err))
			continue
		}
		plan.Requirements.Merge(req)
	}

	plan.Batches, err = s.PlanBatches(ctx, plan.Requirements.Units)
	if err != nil {
		plan.Errors = append(plan.Errors, err.Error())
	}

	ingredients, err := s.ingredientNeeds(ctx, plan.Batches)
	if err != nil {
		return nil, err
	}
	plan.Ingredients, err = shoppingList(ctx, s.inventory.Ingredients(), ingredients)
	if err != nil {
		return nil, fmt.Errorf("pricing ingredients: %w", err)
	}

	materials, err := s.materialNeeds(ctx, plan.Requirements.MaterialUnits)
	if err != nil {
		return nil, err
	}
	plan.Materials, err = shoppingList(ctx, s.inventory.Materials(), materials)
	if err != nil {
		return nil, fmt.Errorf("pricing materials: %w", err)
	}

	plan.Feasibility, err = s.CheckFeasibility(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if !plan.ReadyToBuy() {
		slog.Warn("event plan has shortfalls", "event_id", eventID, "name", event.Name)
	}
	return plan, nil
}

// ingredientNeeds multiplies each recipe's ingredient lines by its batches.
func (s *Service) ingredientNeeds(ctx context.Context, batches []models.RecipeBatchResult) ([]shoppingNeed, error) {
	needs := make(map[string]*shoppingNeed)
	for _, b := range batches {
		if b.Batches == 0 {
			continue
		}
		recipe, err := s.catalog.GetRecipe(ctx, b.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("loading recipe %s: %w", b.RecipeName, err)
		}
		n := decimal.NewFromInt(int64(b.Batches))
		for _, ing := range recipe.Ingredients {
			need, ok := needs[ing.ProductID]
			if !ok {
				need = &shoppingNeed{itemID: ing.ProductID, qty: decimal.Zero}
				if ing.Product != nil {
					need.name, need.unit = ing.Product.DisplayName, ing.Product.Unit
				}
				needs[ing.ProductID] = need
			}
			need.qty = need.qty.Add(ing.Quantity.Mul(n))
		}
	}
	return sortedNeeds(needs), nil
}

// materialNeeds converts material unit counts into base material quantities.
func (s *Service) materialNeeds(ctx context.Context, units map[string]decimal.Decimal) ([]shoppingNeed, error) {
	needs := make(map[string]*shoppingNeed)
	for _, id := range sortedKeys(units) {
		mu, err := s.inventory.GetMaterialUnit(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading material unit: %w", err)
		}
		need, ok := needs[mu.MaterialID]
		if !ok {
			need = &shoppingNeed{itemID: mu.MaterialID, qty: decimal.Zero}
			if mu.Material != nil {
				need.name, need.unit = mu.Material.DisplayName, mu.Material.Unit
			}
			needs[mu.MaterialID] = need
		}
		need.qty = need.qty.Add(units[id].Mul(mu.QuantityPerUnit))
	}
	return sortedNeeds(needs), nil
}

// shoppingList dry-runs each need against the ledger. Nothing is written.
func shoppingList(ctx context.Context, ledger *inventory.Ledger, needs []shoppingNeed) ([]models.ShoppingLine, error) {
	lines := make([]models.ShoppingLine, 0, len(needs))
	for _, n := range needs {
		res, err := ledger.Consume(ctx, nil, n.itemID, n.qty, true)
		if err != nil {
			return nil, err
		}
		onHand, err := ledger.AvailableQuantity(ctx, nil, n.itemID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, models.ShoppingLine{
			ItemID:        n.itemID,
			ItemName:      n.name,
			Unit:          n.unit,
			Needed:        n.qty,
			OnHand:        onHand,
			ToBuy:         res.Shortfall,
			OnHandCost:    res.TotalCost,
			SufficientNow: res.Satisfied,
		})
	}
	return lines, nil
}

func sortedNeeds(m map[string]*shoppingNeed) []shoppingNeed {
	needs := make([]shoppingNeed, 0, len(m))
	for _, n := range m {
		needs = append(needs, *n)
	}
	sort.Slice(needs, func(i, j int) bool {
		if needs[i].name != needs[j].name {
			return needs[i].name < needs[j].name
		}
		return needs[i].itemID < needs[j].itemID
	})
	return needs
}

func targetName(t *models.EventTarget) string {
	if t.FinishedGood != nil && t.FinishedGood.DisplayName != "" {
		return t.FinishedGood.DisplayName
	}
	return t.FinishedGoodID
}

// AcceptPlan commits the batch plan of an event: the batches PlanBatches
// computes for each recipe are recorded against the recipe's first required
// unit, replacing earlier decisions. Decided batches are pooled per recipe
// when feasibility is checked, so every unit of the recipe draws on them.
// Any target that cannot be decomposed aborts the whole acceptance.
func (s *Service) AcceptPlan(ctx context.Context, eventID string) ([]*models.BatchDecision, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	needed := make(map[string]decimal.Decimal)
	for _, t := range event.Targets {
		if t.Quantity <= 0 {
			continue
		}
		units, err := s.catalog.Decompose(ctx, t.FinishedGoodID, decimal.NewFromInt(int64(t.Quantity)))
		if err != nil {
			return nil, fmt.Errorf("accepting plan for %s: %w", targetName(t), err)
		}
		for id, qty := range units {
			needed[id] = needed[id].Add(qty)
		}
	}

	batches, err := s.PlanBatches(ctx, needed)
	if err != nil {
		return nil, fmt.Errorf("accepting plan: %w", err)
	}

	inputs := make([]BatchDecisionInput, 0, len(batches))
	for _, b := range batches {
		if len(b.UnitIDs) == 0 {
			continue
		}
		inputs = append(inputs, BatchDecisionInput{FinishedUnitID: b.UnitIDs[0], Batches: b.Batches})
	}

	return s.RecordBatchDecisions(ctx, eventID, inputs)
}
