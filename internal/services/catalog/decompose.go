package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
)

// MaxDepth is the deepest nesting of finished goods decomposition accepts.
// The requested good is depth 0.
const MaxDepth = 10

// Decompose returns the total quantity of every finished unit needed to make
// multiplier of the given finished good, multiplying through nested goods.
// Material unit components are ignored.
func (s *Service) Decompose(ctx context.Context, finishedGoodID string, multiplier decimal.Decimal) (map[string]decimal.Decimal, error) {
	req, err := s.decompose(ctx, nil, finishedGoodID, multiplier, false)
	if err != nil {
		return nil, err
	}
	return req.Units, nil
}

// DecomposeAll is Decompose that also collects material unit requirements.
func (s *Service) DecomposeAll(ctx context.Context, finishedGoodID string, multiplier decimal.Decimal) (*models.Requirements, error) {
	return s.decompose(ctx, nil, finishedGoodID, multiplier, true)
}

// decomposer walks the composition graph. Lookups are cached per walk since
// a DAG may reach the same unit or good through several branches.
type decomposer struct {
	s             *Service
	tx            *sql.Tx
	withMaterials bool
	goods         map[string]*models.FinishedGood
	unitsChecked  map[string]bool
	recipes       map[string]bool
	materialUnits map[string]bool
}

func (s *Service) decompose(ctx context.Context, tx *sql.Tx, goodID string, multiplier decimal.Decimal, withMaterials bool) (*models.Requirements, error) {
	if multiplier.IsNegative() {
		return nil, models.NewValidationError("multiplier", "cannot decompose negative quantity %s", multiplier)
	}

	d := &decomposer{
		s:             s,
		tx:            tx,
		withMaterials: withMaterials,
		goods:         make(map[string]*models.FinishedGood),
		unitsChecked:  make(map[string]bool),
		recipes:       make(map[string]bool),
		materialUnits: make(map[string]bool),
	}

	req := models.NewRequirements()
	if err := d.walk(ctx, goodID, multiplier, nil, 0, req); err != nil {
		return nil, err
	}
	return req, nil
}

// walk expands one finished good. path holds the ancestors currently being
// expanded; it is never mutated, so sibling branches each see their own.
func (d *decomposer) walk(ctx context.Context, goodID string, multiplier decimal.Decimal, path []string, depth int, req *models.Requirements) error {
	if slices.Contains(path, goodID) {
		return &models.CircularReferenceError{
			FinishedGoodID: goodID,
			Path:           append(slices.Clip(path), goodID),
		}
	}
	if depth > MaxDepth {
		return &models.MaxDepthError{FinishedGoodID: goodID, Depth: depth, Limit: MaxDepth}
	}

	fg, err := d.good(ctx, goodID)
	if err != nil {
		return err
	}
	path = append(slices.Clip(path), goodID)

	for _, c := range fg.Components {
		effective := c.Quantity.Mul(multiplier)
		if !effective.IsPositive() {
			continue
		}

		switch c.Kind {
		case models.ComponentFinishedUnit:
			if err := d.checkUnit(ctx, c.RefID); err != nil {
				return err
			}
			req.AddUnit(c.RefID, effective)

		case models.ComponentFinishedGood:
			if err := d.walk(ctx, c.RefID, effective, path, depth+1, req); err != nil {
				return err
			}

		case models.ComponentMaterialUnit:
			if !d.withMaterials {
				continue
			}
			if err := d.checkMaterialUnit(ctx, c.RefID); err != nil {
				return err
			}
			req.AddMaterialUnit(c.RefID, effective)

		default:
			return models.NewValidationError("composition", "component %s of %s has no reference", c.ID, goodID)
		}
	}
	return nil
}

func (d *decomposer) good(ctx context.Context, id string) (*models.FinishedGood, error) {
	if fg, ok := d.goods[id]; ok {
		return fg, nil
	}
	fg, err := d.s.catalog.GetFinishedGood(ctx, d.tx, id)
	if err != nil {
		return nil, notFoundAsValidation("finished_good_id", err)
	}
	d.goods[id] = fg
	return fg, nil
}

// checkUnit fails when a finished unit or its recipe does not resolve, since
// batch and cost planning would silently be wrong without them.
func (d *decomposer) checkUnit(ctx context.Context, id string) error {
	if d.unitsChecked[id] {
		return nil
	}
	unit, err := d.s.catalog.GetFinishedUnit(ctx, d.tx, id)
	if err != nil {
		return notFoundAsValidation("finished_unit_id", err)
	}
	if !d.recipes[unit.RecipeID] {
		if _, err := d.s.catalog.GetRecipe(ctx, d.tx, unit.RecipeID); err != nil {
			return notFoundAsValidation("recipe_id", fmt.Errorf("finished unit %s: %w", id, err))
		}
		d.recipes[unit.RecipeID] = true
	}
	d.unitsChecked[id] = true
	return nil
}

func (d *decomposer) checkMaterialUnit(ctx context.Context, id string) error {
	if d.materialUnits[id] {
		return nil
	}
	if _, err := d.s.items.GetMaterialUnit(ctx, d.tx, id); err != nil {
		return notFoundAsValidation("material_unit_id", err)
	}
	d.materialUnits[id] = true
	return nil
}
