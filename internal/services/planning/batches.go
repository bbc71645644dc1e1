package planning

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
)

// WastePlaces is the precision waste percentages are reported with.
const WastePlaces = 2

// CalculateBatches returns how many whole batches cover unitsNeeded. Batches
// always round up. Nothing is needed for a non-positive requirement.
func CalculateBatches(unitsNeeded, yieldPerBatch decimal.Decimal) (models.BatchResult, error) {
	if !yieldPerBatch.IsPositive() {
		return models.BatchResult{}, models.NewValidationError("yield_per_batch",
			"must be positive, got %s", yieldPerBatch)
	}

	result := models.BatchResult{
		UnitsNeeded:   unitsNeeded,
		YieldPerBatch: yieldPerBatch,
		TotalYield:    decimal.Zero,
		Waste:         decimal.Zero,
		WastePercent:  decimal.Zero,
	}
	if !unitsNeeded.IsPositive() {
		return result, nil
	}

	q, r := unitsNeeded.QuoRem(yieldPerBatch, 0)
	if r.IsPositive() {
		q = q.Add(decimal.NewFromInt(1))
	}

	result.Batches = int(q.IntPart())
	result.TotalYield = q.Mul(yieldPerBatch)
	result.Waste = result.TotalYield.Sub(unitsNeeded)
	result.WastePercent = result.Waste.Mul(decimal.NewFromInt(100)).
		DivRound(result.TotalYield, WastePlaces)
	return result, nil
}

// PlanBatches groups finished unit requirements by recipe and computes one
// batch count per recipe, so waste is rounded once per recipe rather than
// once per unit. When units of one recipe resolve to different yields the
// smallest is used, which never under-produces.
func (s *Service) PlanBatches(ctx context.Context, units map[string]decimal.Decimal) ([]models.RecipeBatchResult, error) {
	type group struct {
		name   string
		units  []string
		needed decimal.Decimal
		yield  decimal.Decimal
	}
	groups := make(map[string]*group)

	for _, unitID := range sortedKeys(units) {
		unit, err := s.catalog.GetFinishedUnit(ctx, unitID)
		if err != nil {
			return nil, fmt.Errorf("planning batches: %w", err)
		}
		y, err := s.catalog.YieldPerBatch(ctx, unitID)
		if err != nil {
			return nil, fmt.Errorf("planning batches for %s: %w", unit.DisplayName, err)
		}

		g, ok := groups[unit.RecipeID]
		if !ok {
			recipe, err := s.catalog.GetRecipe(ctx, unit.RecipeID)
			if err != nil {
				return nil, fmt.Errorf("planning batches: %w", err)
			}
			g = &group{name: recipe.Name, needed: decimal.Zero, yield: y}
			groups[unit.RecipeID] = g
		}
		g.units = append(g.units, unitID)
		g.needed = g.needed.Add(units[unitID])
		g.yield = decimal.Min(g.yield, y)
	}

	results := make([]models.RecipeBatchResult, 0, len(groups))
	for recipeID, g := range groups {
		br, err := CalculateBatches(g.needed, g.yield)
		if err != nil {
			return nil, err
		}
		results = append(results, models.RecipeBatchResult{
			RecipeID:    recipeID,
			RecipeName:  g.name,
			UnitIDs:     g.units,
			BatchResult: br,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].RecipeName != results[j].RecipeName {
			return results[i].RecipeName < results[j].RecipeName
		}
		return results[i].RecipeID < results[j].RecipeID
	})
	return results, nil
}

func sortedKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
