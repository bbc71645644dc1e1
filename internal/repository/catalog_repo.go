package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
)

// ErrInsufficientCount is returned when a finished unit or good count
// adjustment would go below zero.
var ErrInsufficientCount = errors.New("insufficient inventory count")

// CatalogRepository handles recipes, finished units, finished goods and
// their compositions.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ============================================================================
// RECIPES
// ============================================================================

// CreateRecipe inserts a recipe and its ingredient lines.
func (r *CatalogRepository) CreateRecipe(ctx context.Context, tx *sql.Tx, recipe *models.Recipe) error {
	now := time.Now().UTC()
	recipe.CreatedAt = now
	recipe.UpdatedAt = now

	q := r.getQuerier(tx)
	_, err := q.ExecContext(ctx, `
		INSERT INTO recipes (
			id, slug, name, yield_per_batch, yield_unit, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		recipe.ID, recipe.Slug, recipe.Name, recipe.YieldPerBatch, recipe.YieldUnit,
		nullableString(recipe.Notes),
		formatTimestamp(recipe.CreatedAt), formatTimestamp(recipe.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting recipe: %w", err)
	}

	for _, ing := range recipe.Ingredients {
		ing.RecipeID = recipe.ID
		if err := r.AddIngredient(ctx, tx, ing); err != nil {
			return err
		}
	}
	return nil
}

// AddIngredient inserts one ingredient line for a recipe.
func (r *CatalogRepository) AddIngredient(ctx context.Context, tx *sql.Tx, ing *models.RecipeIngredient) error {
	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO recipe_ingredients (recipe_id, product_id, quantity) VALUES (?, ?, ?)`,
		ing.RecipeID, ing.ProductID, ing.Quantity,
	)
	if err != nil {
		return fmt.Errorf("inserting recipe ingredient: %w", err)
	}
	return nil
}

// GetRecipe retrieves a recipe with its ingredients.
func (r *CatalogRepository) GetRecipe(ctx context.Context, tx *sql.Tx, id string) (*models.Recipe, error) {
	q := r.getQuerier(tx)
	row := q.QueryRowContext(ctx, `
		SELECT id, slug, name, yield_per_batch, yield_unit, notes, created_at, updated_at
		FROM recipes WHERE id = ?`, id)

	recipe, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recipe %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `
		SELECT ri.recipe_id, ri.product_id, ri.quantity,
			p.id, p.slug, p.display_name, p.unit, p.created_at, p.updated_at
		FROM recipe_ingredients ri
		JOIN products p ON p.id = ri.product_id
		WHERE ri.recipe_id = ?
		ORDER BY p.display_name`, id)
	if err != nil {
		return nil, fmt.Errorf("querying recipe ingredients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ing models.RecipeIngredient
		var p models.Product
		var createdStr, updatedStr string
		if err := rows.Scan(
			&ing.RecipeID, &ing.ProductID, &ing.Quantity,
			&p.ID, &p.Slug, &p.DisplayName, &p.Unit, &createdStr, &updatedStr,
		); err != nil {
			return nil, fmt.Errorf("scanning recipe ingredient: %w", err)
		}
		p.CreatedAt = parseTimestamp(createdStr)
		p.UpdatedAt = parseTimestamp(updatedStr)
		ing.Product = &p
		recipe.Ingredients = append(recipe.Ingredients, &ing)
	}
	return recipe, rows.Err()
}

// ListRecipes retrieves all recipes without ingredients.
func (r *CatalogRepository) ListRecipes(ctx context.Context, tx *sql.Tx) ([]*models.Recipe, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT id, slug, name, yield_per_batch, yield_unit, notes, created_at, updated_at
		FROM recipes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, recipe)
	}
	return recipes, rows.Err()
}

// SetYieldOverride inserts or replaces the per-unit yield of a recipe.
func (r *CatalogRepository) SetYieldOverride(ctx context.Context, tx *sql.Tx, o *models.YieldOverride) error {
	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO recipe_yield_overrides (recipe_id, finished_unit_id, items_per_batch)
		VALUES (?, ?, ?)
		ON CONFLICT (recipe_id, finished_unit_id) DO UPDATE SET items_per_batch = excluded.items_per_batch`,
		o.RecipeID, o.FinishedUnitID, o.ItemsPerBatch,
	)
	if err != nil {
		return fmt.Errorf("upserting yield override: %w", err)
	}
	return nil
}

// GetYieldOverride returns the override for a recipe and unit, or ErrNotFound.
func (r *CatalogRepository) GetYieldOverride(ctx context.Context, tx *sql.Tx, recipeID, unitID string) (*models.YieldOverride, error) {
	o := models.YieldOverride{RecipeID: recipeID, FinishedUnitID: unitID}
	err := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT items_per_batch FROM recipe_yield_overrides
		WHERE recipe_id = ? AND finished_unit_id = ?`, recipeID, unitID,
	).Scan(&o.ItemsPerBatch)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying yield override: %w", err)
	}
	return &o, nil
}

// ============================================================================
// FINISHED UNITS
// ============================================================================

const finishedUnitColumns = `
	id, slug, display_name, recipe_id, yield_mode, items_per_batch,
	batch_percentage, inventory_count, created_at, updated_at`

// CreateFinishedUnit inserts a new finished unit.
func (r *CatalogRepository) CreateFinishedUnit(ctx context.Context, tx *sql.Tx, fu *models.FinishedUnit) error {
	now := time.Now().UTC()
	fu.CreatedAt = now
	fu.UpdatedAt = now

	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO finished_units (`+finishedUnitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fu.ID, fu.Slug, fu.DisplayName, fu.RecipeID, string(fu.YieldMode),
		nullableDecimal(fu.ItemsPerBatch), nullableDecimal(fu.BatchPercentage),
		fu.InventoryCount,
		formatTimestamp(fu.CreatedAt), formatTimestamp(fu.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting finished unit: %w", err)
	}
	return nil
}

// GetFinishedUnit retrieves a finished unit by ID.
func (r *CatalogRepository) GetFinishedUnit(ctx context.Context, tx *sql.Tx, id string) (*models.FinishedUnit, error) {
	row := r.getQuerier(tx).QueryRowContext(ctx,
		`SELECT `+finishedUnitColumns+` FROM finished_units WHERE id = ?`, id)
	fu, err := scanFinishedUnit(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("finished unit %s: %w", id, ErrNotFound)
	}
	return fu, err
}

// ListFinishedUnits retrieves finished units, optionally only those of one recipe.
func (r *CatalogRepository) ListFinishedUnits(ctx context.Context, tx *sql.Tx, recipeID string) ([]*models.FinishedUnit, error) {
	query := `SELECT ` + finishedUnitColumns + ` FROM finished_units`
	var args []any
	if recipeID != "" {
		query += ` WHERE recipe_id = ?`
		args = append(args, recipeID)
	}
	query += ` ORDER BY display_name`

	rows, err := r.getQuerier(tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying finished units: %w", err)
	}
	defer rows.Close()

	var units []*models.FinishedUnit
	for rows.Next() {
		fu, err := scanFinishedUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, fu)
	}
	return units, rows.Err()
}

// AdjustFinishedUnitCount adds delta to a unit's inventory count.
// Returns ErrInsufficientCount when the result would be negative.
func (r *CatalogRepository) AdjustFinishedUnitCount(ctx context.Context, tx *sql.Tx, id string, delta int) error {
	return r.adjustCount(ctx, tx, "finished_units", id, delta)
}

// ============================================================================
// FINISHED GOODS
// ============================================================================

// CreateFinishedGood inserts a finished good and any components it carries.
func (r *CatalogRepository) CreateFinishedGood(ctx context.Context, tx *sql.Tx, fg *models.FinishedGood) error {
	now := time.Now().UTC()
	fg.CreatedAt = now
	fg.UpdatedAt = now

	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO finished_goods (
			id, slug, display_name, assembly_type, inventory_count, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		fg.ID, fg.Slug, fg.DisplayName, string(fg.AssemblyType), fg.InventoryCount,
		nullableString(fg.Notes),
		formatTimestamp(fg.CreatedAt), formatTimestamp(fg.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting finished good: %w", err)
	}

	for i := range fg.Components {
		if err := r.AddComponent(ctx, tx, fg.ID, &fg.Components[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetFinishedGood retrieves a finished good with its components.
func (r *CatalogRepository) GetFinishedGood(ctx context.Context, tx *sql.Tx, id string) (*models.FinishedGood, error) {
	row := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT id, slug, display_name, assembly_type, inventory_count, notes, created_at, updated_at
		FROM finished_goods WHERE id = ?`, id)

	fg, err := scanFinishedGood(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("finished good %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	fg.Components, err = r.ListComponents(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	return fg, nil
}

// ListFinishedGoods retrieves all finished goods without components.
func (r *CatalogRepository) ListFinishedGoods(ctx context.Context, tx *sql.Tx) ([]*models.FinishedGood, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT id, slug, display_name, assembly_type, inventory_count, notes, created_at, updated_at
		FROM finished_goods ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("querying finished goods: %w", err)
	}
	defer rows.Close()

	var goods []*models.FinishedGood
	for rows.Next() {
		fg, err := scanFinishedGood(rows)
		if err != nil {
			return nil, err
		}
		goods = append(goods, fg)
	}
	return goods, rows.Err()
}

// AdjustFinishedGoodCount adds delta to a good's inventory count.
// Returns ErrInsufficientCount when the result would be negative.
func (r *CatalogRepository) AdjustFinishedGoodCount(ctx context.Context, tx *sql.Tx, id string, delta int) error {
	return r.adjustCount(ctx, tx, "finished_goods", id, delta)
}

// ============================================================================
// COMPOSITIONS
// ============================================================================

// AddComponent inserts one composition row for a finished good.
func (r *CatalogRepository) AddComponent(ctx context.Context, tx *sql.Tx, assemblyID string, c *models.Component) error {
	var unitID, goodID, materialUnitID sql.NullString
	switch c.Kind {
	case models.ComponentFinishedUnit:
		unitID = nullableString(c.RefID)
	case models.ComponentFinishedGood:
		goodID = nullableString(c.RefID)
	case models.ComponentMaterialUnit:
		materialUnitID = nullableString(c.RefID)
	default:
		return fmt.Errorf("unknown component kind %q", c.Kind)
	}

	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO compositions (
			id, assembly_id, finished_unit_id, finished_good_id, material_unit_id,
			component_quantity, sort_order
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, assemblyID, unitID, goodID, materialUnitID, c.Quantity, c.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("inserting composition: %w", err)
	}
	return nil
}

// ListComponents returns the composition rows of a finished good in sort order.
func (r *CatalogRepository) ListComponents(ctx context.Context, tx *sql.Tx, assemblyID string) ([]models.Component, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT id, finished_unit_id, finished_good_id, material_unit_id,
			component_quantity, sort_order
		FROM compositions
		WHERE assembly_id = ?
		ORDER BY sort_order, rowid`, assemblyID)
	if err != nil {
		return nil, fmt.Errorf("querying compositions: %w", err)
	}
	defer rows.Close()

	var components []models.Component
	for rows.Next() {
		var c models.Component
		var unitID, goodID, materialUnitID sql.NullString
		if err := rows.Scan(&c.ID, &unitID, &goodID, &materialUnitID, &c.Quantity, &c.SortOrder); err != nil {
			return nil, fmt.Errorf("scanning composition: %w", err)
		}
		switch {
		case unitID.Valid:
			c.Kind, c.RefID = models.ComponentFinishedUnit, unitID.String
		case goodID.Valid:
			c.Kind, c.RefID = models.ComponentFinishedGood, goodID.String
		case materialUnitID.Valid:
			c.Kind, c.RefID = models.ComponentMaterialUnit, materialUnitID.String
		}
		components = append(components, c)
	}
	return components, rows.Err()
}

// ListParentGoods returns the ids of the finished goods that list goodID as
// a direct component.
func (r *CatalogRepository) ListParentGoods(ctx context.Context, tx *sql.Tx, goodID string) ([]string, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT DISTINCT assembly_id FROM compositions
		WHERE finished_good_id = ?
		ORDER BY assembly_id`, goodID)
	if err != nil {
		return nil, fmt.Errorf("querying parent goods: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning parent good: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ============================================================================
// HELPERS
// ============================================================================

func (r *CatalogRepository) getQuerier(tx *sql.Tx) querier {
	return getQuerier(r.db, tx)
}

func (r *CatalogRepository) adjustCount(ctx context.Context, tx *sql.Tx, table, id string, delta int) error {
	query := fmt.Sprintf(`
		UPDATE %s SET inventory_count = inventory_count + ?, updated_at = ?
		WHERE id = ? AND inventory_count + ? >= 0`, table)

	result, err := r.getQuerier(tx).ExecContext(ctx, query, delta, formatTimestamp(time.Now()), id, delta)
	if err != nil {
		return fmt.Errorf("adjusting %s count: %w", table, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.getQuerier(tx).QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE id = ?`, table), id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking %s: %w", table, err)
	}
	if exists == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return ErrInsufficientCount
}

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	var recipe models.Recipe
	var notes sql.NullString
	var createdStr, updatedStr string
	err := row.Scan(
		&recipe.ID, &recipe.Slug, &recipe.Name, &recipe.YieldPerBatch, &recipe.YieldUnit,
		&notes, &createdStr, &updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recipe: %w", err)
	}
	recipe.Notes = notes.String
	recipe.CreatedAt = parseTimestamp(createdStr)
	recipe.UpdatedAt = parseTimestamp(updatedStr)
	return &recipe, nil
}

func scanFinishedUnit(row rowScanner) (*models.FinishedUnit, error) {
	var fu models.FinishedUnit
	var mode, createdStr, updatedStr string
	var perBatch, pct decimal.NullDecimal
	err := row.Scan(
		&fu.ID, &fu.Slug, &fu.DisplayName, &fu.RecipeID, &mode, &perBatch,
		&pct, &fu.InventoryCount, &createdStr, &updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning finished unit: %w", err)
	}
	fu.YieldMode = models.YieldMode(mode)
	fu.ItemsPerBatch = decimalPtr(perBatch)
	fu.BatchPercentage = decimalPtr(pct)
	fu.CreatedAt = parseTimestamp(createdStr)
	fu.UpdatedAt = parseTimestamp(updatedStr)
	return &fu, nil
}

func scanFinishedGood(row rowScanner) (*models.FinishedGood, error) {
	var fg models.FinishedGood
	var asmType, createdStr, updatedStr string
	var notes sql.NullString
	err := row.Scan(
		&fg.ID, &fg.Slug, &fg.DisplayName, &asmType, &fg.InventoryCount,
		&notes, &createdStr, &updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning finished good: %w", err)
	}
	fg.AssemblyType = models.AssemblyType(asmType)
	fg.Notes = notes.String
	fg.CreatedAt = parseTimestamp(createdStr)
	fg.UpdatedAt = parseTimestamp(updatedStr)
	return &fg, nil
}
