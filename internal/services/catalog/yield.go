package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// YieldPerBatch resolves how many of a finished unit one batch of its recipe
// makes. A recipe override wins; then the unit's own items per batch for
// discrete units or 100 / percentage for batch portions; then the recipe's
// yield. Planning and production both go through here.
func (s *Service) YieldPerBatch(ctx context.Context, finishedUnitID string) (decimal.Decimal, error) {
	unit, err := s.catalog.GetFinishedUnit(ctx, nil, finishedUnitID)
	if err != nil {
		return decimal.Zero, notFoundAsValidation("finished_unit_id", err)
	}
	return s.unitYield(ctx, nil, unit)
}

func (s *Service) unitYield(ctx context.Context, tx *sql.Tx, unit *models.FinishedUnit) (decimal.Decimal, error) {
	y, err := s.resolveYield(ctx, tx, unit)
	if err != nil {
		return decimal.Zero, err
	}
	if !y.IsPositive() {
		return decimal.Zero, models.NewValidationError("yield_per_batch",
			"finished unit %s resolves to non-positive yield %s", unit.ID, y)
	}
	return y, nil
}

func (s *Service) resolveYield(ctx context.Context, tx *sql.Tx, unit *models.FinishedUnit) (decimal.Decimal, error) {
	o, err := s.catalog.GetYieldOverride(ctx, tx, unit.RecipeID, unit.ID)
	switch {
	case err == nil:
		return o.ItemsPerBatch, nil
	case !errors.Is(err, repository.ErrNotFound):
		return decimal.Zero, fmt.Errorf("looking up yield override: %w", err)
	}

	switch {
	case unit.YieldMode == models.YieldDiscreteCount && unit.ItemsPerBatch != nil:
		return *unit.ItemsPerBatch, nil
	case unit.YieldMode == models.YieldBatchPortion && unit.BatchPercentage != nil:
		if !unit.BatchPercentage.IsPositive() {
			return decimal.Zero, nil
		}
		return hundred.Div(*unit.BatchPercentage), nil
	}

	recipe, err := s.catalog.GetRecipe(ctx, tx, unit.RecipeID)
	if err != nil {
		return decimal.Zero, notFoundAsValidation("recipe_id", err)
	}
	return recipe.YieldPerBatch, nil
}
