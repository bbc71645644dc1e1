package planning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
)

// demandPlaces truncates batch demand so exact fits such as 1/3 + 2/3 of a
// batch never fail on the last digit.
const demandPlaces = 9

// AssessFeasibility compares what one target needs against the batches left
// for it. needed holds batches per recipe for the whole target quantity;
// available holds the batches per recipe not yet used by earlier targets.
//
// The number of goods that can be built is limited by the scarcest recipe:
// floor(quantity * min(available/needed)). A good with no components or a
// zero quantity is always feasible.
func AssessFeasibility(target *models.EventTarget, needed, available map[string]decimal.Decimal) models.FeasibilityResult {
	result := models.FeasibilityResult{
		FinishedGoodID: target.FinishedGoodID,
		TargetQuantity: target.Quantity,
		CanAssemble:    true,
	}
	if target.FinishedGood != nil {
		result.FinishedGoodName = target.FinishedGood.DisplayName
	}
	if target.Quantity <= 0 || len(needed) == 0 {
		return result
	}

	qty := decimal.NewFromInt(int64(target.Quantity))
	buildable := qty
	for _, recipeID := range sortedKeys(needed) {
		n := needed[recipeID]
		if !n.IsPositive() {
			continue
		}
		a := decimal.Max(decimal.Zero, available[recipeID])
		if a.GreaterThanOrEqual(n) {
			continue
		}

		result.Limiting = append(result.Limiting, models.BatchShortage{
			RecipeID:  recipeID,
			Needed:    n,
			Available: a,
		})
		// floor(qty * a / n) without an intermediate rounded ratio
		whole, _ := qty.Mul(a).QuoRem(n, 0)
		buildable = decimal.Min(buildable, whole)
	}

	result.Shortfall = int(qty.Sub(buildable).IntPart())
	result.CanAssemble = result.Shortfall == 0
	return result
}

// drawDown removes from available the batches used by building the
// buildable part of a target.
func drawDown(result models.FeasibilityResult, needed, available map[string]decimal.Decimal) {
	if result.TargetQuantity <= 0 {
		return
	}
	built := decimal.NewFromInt(int64(result.TargetQuantity - result.Shortfall))
	qty := decimal.NewFromInt(int64(result.TargetQuantity))
	for recipeID, n := range needed {
		used := n.Mul(built).Div(qty)
		available[recipeID] = decimal.Max(decimal.Zero, available[recipeID].Sub(used))
	}
}

// CheckFeasibility assesses every target of an event against the event's
// batch decisions. Decided batches are pooled per recipe, since units cut
// from one batch share it, and targets draw the pool down in order so two
// targets never count the same batch. A target whose good cannot be
// decomposed is reported as wholly infeasible with the error attached
// rather than failing the check.
func (s *Service) CheckFeasibility(ctx context.Context, eventID string) ([]models.FeasibilityResult, error) {
	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	available, err := s.committedBatches(ctx, eventID)
	if err != nil {
		return nil, err
	}

	results := make([]models.FeasibilityResult, 0, len(event.Targets))
	for _, t := range event.Targets {
		needed, err := s.batchDemand(ctx, t)
		if err != nil {
			r := models.FeasibilityResult{
				FinishedGoodID: t.FinishedGoodID,
				TargetQuantity: t.Quantity,
				Shortfall:      t.Quantity,
				Error:          err.Error(),
			}
			if t.FinishedGood != nil {
				r.FinishedGoodName = t.FinishedGood.DisplayName
			}
			slog.Warn("finished good cannot be planned", "event_id", eventID, "finished_good_id", t.FinishedGoodID, "error", err)
			results = append(results, r)
			continue
		}
		r := AssessFeasibility(t, needed, available)
		drawDown(r, needed, available)
		results = append(results, r)
	}
	return results, nil
}

// batchDemand converts a target into the batches it needs per recipe.
func (s *Service) batchDemand(ctx context.Context, t *models.EventTarget) (map[string]decimal.Decimal, error) {
	units, err := s.catalog.Decompose(ctx, t.FinishedGoodID, decimal.NewFromInt(int64(t.Quantity)))
	if err != nil {
		return nil, err
	}

	demand := make(map[string]decimal.Decimal)
	for _, unitID := range sortedKeys(units) {
		unit, err := s.catalog.GetFinishedUnit(ctx, unitID)
		if err != nil {
			return nil, err
		}
		y, err := s.catalog.YieldPerBatch(ctx, unitID)
		if err != nil {
			return nil, fmt.Errorf("yield of %s: %w", unit.DisplayName, err)
		}
		batches := units[unitID].Div(y).Truncate(demandPlaces)
		demand[unit.RecipeID] = demand[unit.RecipeID].Add(batches)
	}
	return demand, nil
}

// committedBatches sums an event's batch decisions per recipe.
func (s *Service) committedBatches(ctx context.Context, eventID string) (map[string]decimal.Decimal, error) {
	decisions, err := s.planning.ListBatchDecisions(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("loading batch decisions: %w", err)
	}

	available := make(map[string]decimal.Decimal)
	for _, d := range decisions {
		available[d.RecipeID] = available[d.RecipeID].Add(decimal.NewFromInt(int64(d.Batches)))
	}
	return available, nil
}
