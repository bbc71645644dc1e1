package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
)

// CreateRecipeInput contains data for creating a recipe.
type CreateRecipeInput struct {
	Name          string
	Slug          string
	YieldPerBatch decimal.Decimal
	YieldUnit     string
	Notes         string
	Ingredients   []IngredientInput
}

// IngredientInput is the quantity of a product one batch uses.
type IngredientInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// CreateFinishedUnitInput contains data for creating a finished unit.
// Discrete units need ItemsPerBatch; batch portions need BatchPercentage.
type CreateFinishedUnitInput struct {
	DisplayName     string
	Slug            string
	RecipeID        string
	YieldMode       models.YieldMode
	ItemsPerBatch   *decimal.Decimal
	BatchPercentage *decimal.Decimal
}

// CreateFinishedGoodInput contains data for creating a finished good.
type CreateFinishedGoodInput struct {
	DisplayName  string
	Slug         string
	AssemblyType models.AssemblyType
	Notes        string
	Components   []ComponentInput
}

// ComponentInput is one typed component of a finished good.
type ComponentInput struct {
	Kind     models.ComponentKind
	RefID    string
	Quantity decimal.Decimal
}
