// Package catalog provides recipe, finished unit and finished good authoring,
// recipe yield lookup and bundle decomposition.
package catalog

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

// Service provides catalog operations.
type Service struct {
	db          *sql.DB
	catalog     *repository.CatalogRepository
	items       *repository.ItemRepository
	idGenerator *util.IDGenerator
}

// NewService creates a new catalog service.
func NewService(db *sql.DB) *Service {
	return &Service{
		db:          db,
		catalog:     repository.NewCatalogRepository(db),
		items:       repository.NewItemRepository(db),
		idGenerator: util.NewIDGenerator(),
	}
}

// ============================================================================
// RECIPES
// ============================================================================

// CreateRecipe creates a recipe with its ingredient lines.
func (s *Service) CreateRecipe(ctx context.Context, input CreateRecipeInput) (*models.Recipe, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, models.NewValidationError("name", "recipe name is required")
	}
	if !input.YieldPerBatch.IsPositive() {
		return nil, models.NewValidationError("yield_per_batch", "must be positive, got %s", input.YieldPerBatch)
	}

	recipe := &models.Recipe{
		ID:            s.idGenerator.NewID(),
		Slug:          slugOr(input.Slug, name),
		Name:          name,
		YieldPerBatch: input.YieldPerBatch,
		YieldUnit:     input.YieldUnit,
		Notes:         input.Notes,
	}

	seen := make(map[string]bool)
	for _, in := range input.Ingredients {
		if !in.Quantity.IsPositive() {
			return nil, models.NewValidationError("ingredients", "quantity for %s must be positive", in.ProductID)
		}
		if seen[in.ProductID] {
			return nil, models.NewValidationError("ingredients", "product %s listed twice", in.ProductID)
		}
		seen[in.ProductID] = true
		recipe.Ingredients = append(recipe.Ingredients, &models.RecipeIngredient{
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
		})
	}

	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, ing := range recipe.Ingredients {
			p, err := s.items.GetProduct(ctx, tx, ing.ProductID)
			if err != nil {
				return notFoundAsValidation("ingredients", err)
			}
			ing.Product = p
		}
		return s.catalog.CreateRecipe(ctx, tx, recipe)
	})
	if err != nil {
		return nil, fmt.Errorf("creating recipe: %w", err)
	}

	slog.Info("recipe created", "id", recipe.ID, "name", recipe.Name, "ingredients", len(recipe.Ingredients))
	return recipe, nil
}

// GetRecipe retrieves a recipe with its ingredients.
func (s *Service) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	return s.catalog.GetRecipe(ctx, nil, id)
}

// ListRecipes retrieves all recipes.
func (s *Service) ListRecipes(ctx context.Context) ([]*models.Recipe, error) {
	return s.catalog.ListRecipes(ctx, nil)
}

// SetYieldOverride pins how many of a finished unit one batch of its recipe makes.
func (s *Service) SetYieldOverride(ctx context.Context, finishedUnitID string, itemsPerBatch decimal.Decimal) error {
	if !itemsPerBatch.IsPositive() {
		return models.NewValidationError("items_per_batch", "must be positive, got %s", itemsPerBatch)
	}

	unit, err := s.catalog.GetFinishedUnit(ctx, nil, finishedUnitID)
	if err != nil {
		return notFoundAsValidation("finished_unit_id", err)
	}

	return s.catalog.SetYieldOverride(ctx, nil, &models.YieldOverride{
		RecipeID:       unit.RecipeID,
		FinishedUnitID: unit.ID,
		ItemsPerBatch:  itemsPerBatch,
	})
}

// ============================================================================
// FINISHED UNITS
// ============================================================================

// CreateFinishedUnit creates a finished unit for an existing recipe.
func (s *Service) CreateFinishedUnit(ctx context.Context, input CreateFinishedUnitInput) (*models.FinishedUnit, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, models.NewValidationError("display_name", "is required")
	}

	switch input.YieldMode {
	case models.YieldDiscreteCount:
		if input.ItemsPerBatch == nil || !input.ItemsPerBatch.IsPositive() {
			return nil, models.NewValidationError("items_per_batch", "discrete units need a positive items per batch")
		}
	case models.YieldBatchPortion:
		p := input.BatchPercentage
		if p == nil || !p.IsPositive() || p.GreaterThan(decimal.NewFromInt(100)) {
			return nil, models.NewValidationError("batch_percentage", "batch portions need a percentage in (0, 100]")
		}
	default:
		return nil, models.NewValidationError("yield_mode", "unknown yield mode %q", input.YieldMode)
	}

	if _, err := s.catalog.GetRecipe(ctx, nil, input.RecipeID); err != nil {
		return nil, notFoundAsValidation("recipe_id", err)
	}

	fu := &models.FinishedUnit{
		ID:              s.idGenerator.NewID(),
		Slug:            slugOr(input.Slug, name),
		DisplayName:     name,
		RecipeID:        input.RecipeID,
		YieldMode:       input.YieldMode,
		ItemsPerBatch:   input.ItemsPerBatch,
		BatchPercentage: input.BatchPercentage,
	}
	if err := s.catalog.CreateFinishedUnit(ctx, nil, fu); err != nil {
		return nil, fmt.Errorf("creating finished unit: %w", err)
	}
	return fu, nil
}

// GetFinishedUnit retrieves a finished unit by ID.
func (s *Service) GetFinishedUnit(ctx context.Context, id string) (*models.FinishedUnit, error) {
	return s.catalog.GetFinishedUnit(ctx, nil, id)
}

// ListFinishedUnits retrieves finished units, optionally only those of one recipe.
func (s *Service) ListFinishedUnits(ctx context.Context, recipeID string) ([]*models.FinishedUnit, error) {
	return s.catalog.ListFinishedUnits(ctx, nil, recipeID)
}

// ============================================================================
// FINISHED GOODS
// ============================================================================

// CreateFinishedGood creates a finished good and its components in one
// transaction. The new good is decomposed before commit, so a good that
// cannot be planned is never stored.
func (s *Service) CreateFinishedGood(ctx context.Context, input CreateFinishedGoodInput) (*models.FinishedGood, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, models.NewValidationError("display_name", "is required")
	}
	assemblyType := input.AssemblyType
	if assemblyType == "" {
		assemblyType = models.AssemblyGiftBox
	}

	fg := &models.FinishedGood{
		ID:           s.idGenerator.NewID(),
		Slug:         slugOr(input.Slug, name),
		DisplayName:  name,
		AssemblyType: assemblyType,
		Notes:        input.Notes,
	}

	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.catalog.CreateFinishedGood(ctx, tx, fg); err != nil {
			return err
		}
		for i, in := range input.Components {
			c, err := s.addComponent(ctx, tx, fg.ID, in, i)
			if err != nil {
				return err
			}
			fg.Components = append(fg.Components, *c)
		}
		_, err := s.decompose(ctx, tx, fg.ID, decimal.NewFromInt(1), true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating finished good: %w", err)
	}

	slog.Info("finished good created", "id", fg.ID, "name", fg.DisplayName, "components", len(fg.Components))
	return fg, nil
}

// AddComponent appends a component to an existing finished good. The change
// is rolled back if it would make the good circular or too deeply nested,
// either on its own or inside any good that contains it.
func (s *Service) AddComponent(ctx context.Context, finishedGoodID string, input ComponentInput) (*models.Component, error) {
	var added *models.Component
	err := database.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		existing, err := s.catalog.ListComponents(ctx, tx, finishedGoodID)
		if err != nil {
			return err
		}
		added, err = s.addComponent(ctx, tx, finishedGoodID, input, len(existing))
		if err != nil {
			return err
		}
		if _, err := s.decompose(ctx, tx, finishedGoodID, decimal.NewFromInt(1), true); err != nil {
			return err
		}

		ancestors, err := s.ancestors(ctx, tx, finishedGoodID)
		if err != nil {
			return err
		}
		for _, id := range ancestors {
			if _, err := s.decompose(ctx, tx, id, decimal.NewFromInt(1), false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adding component: %w", err)
	}
	return added, nil
}

func (s *Service) addComponent(ctx context.Context, tx *sql.Tx, goodID string, in ComponentInput, sortOrder int) (*models.Component, error) {
	if !in.Quantity.IsPositive() {
		return nil, models.NewValidationError("component_quantity", "must be positive, got %s", in.Quantity)
	}

	var err error
	switch in.Kind {
	case models.ComponentFinishedUnit:
		_, err = s.catalog.GetFinishedUnit(ctx, tx, in.RefID)
	case models.ComponentFinishedGood:
		if in.RefID == goodID {
			return nil, &models.CircularReferenceError{FinishedGoodID: goodID, Path: []string{goodID, goodID}}
		}
		_, err = s.catalog.GetFinishedGood(ctx, tx, in.RefID)
	case models.ComponentMaterialUnit:
		_, err = s.items.GetMaterialUnit(ctx, tx, in.RefID)
	default:
		return nil, models.NewValidationError("kind", "unknown component kind %q", in.Kind)
	}
	if err != nil {
		return nil, notFoundAsValidation(string(in.Kind)+"_id", err)
	}

	c := &models.Component{
		ID:        s.idGenerator.NewID(),
		Kind:      in.Kind,
		RefID:     in.RefID,
		Quantity:  in.Quantity,
		SortOrder: sortOrder,
	}
	if err := s.catalog.AddComponent(ctx, tx, goodID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ancestors returns every finished good that contains goodID, directly or
// through other goods, nearest first.
func (s *Service) ancestors(ctx context.Context, tx *sql.Tx, goodID string) ([]string, error) {
	seen := map[string]bool{goodID: true}
	var out []string
	queue := []string{goodID}
	for len(queue) > 0 {
		parents, err := s.catalog.ListParentGoods(ctx, tx, queue[0])
		if err != nil {
			return nil, err
		}
		queue = queue[1:]
		for _, p := range parents {
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
			queue = append(queue, p)
		}
	}
	return out, nil
}

// GetFinishedGood retrieves a finished good with its components.
func (s *Service) GetFinishedGood(ctx context.Context, id string) (*models.FinishedGood, error) {
	return s.catalog.GetFinishedGood(ctx, nil, id)
}

// ListFinishedGoods retrieves all finished goods.
func (s *Service) ListFinishedGoods(ctx context.Context) ([]*models.FinishedGood, error) {
	return s.catalog.ListFinishedGoods(ctx, nil)
}

// ============================================================================
// HELPERS
// ============================================================================

func slugOr(slug, name string) string {
	if slug != "" {
		return slug
	}
	return util.Slugify(name)
}

func notFoundAsValidation(field string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewValidationError(field, "%v", err)
	}
	return err
}
