package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bakeplan/bakeplan/internal/models"
)

// ProductionRepository handles production and assembly run records.
type ProductionRepository struct {
	db *sql.DB
}

// NewProductionRepository creates a new production repository.
func NewProductionRepository(db *sql.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

// CreateProductionRun inserts a production run.
func (r *ProductionRepository) CreateProductionRun(ctx context.Context, tx *sql.Tx, run *models.ProductionRun) error {
	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO production_runs (
			id, recipe_id, finished_unit_id, event_id, batches, expected_yield,
			actual_yield, total_ingredient_cost, per_unit_cost, notes, produced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.RecipeID, run.FinishedUnitID, nullableStringPtr(run.EventID),
		run.Batches, run.ExpectedYield, run.ActualYield,
		run.TotalIngredientCost, run.PerUnitCost,
		nullableString(run.Notes), formatTimestamp(run.ProducedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting production run: %w", err)
	}
	return nil
}

// GetProductionRun retrieves a production run by ID.
func (r *ProductionRepository) GetProductionRun(ctx context.Context, tx *sql.Tx, id string) (*models.ProductionRun, error) {
	var run models.ProductionRun
	var eventID, notes sql.NullString
	var producedStr string

	err := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT id, recipe_id, finished_unit_id, event_id, batches, expected_yield,
			actual_yield, total_ingredient_cost, per_unit_cost, notes, produced_at
		FROM production_runs WHERE id = ?`, id,
	).Scan(
		&run.ID, &run.RecipeID, &run.FinishedUnitID, &eventID, &run.Batches, &run.ExpectedYield,
		&run.ActualYield, &run.TotalIngredientCost, &run.PerUnitCost, &notes, &producedStr,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("production run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning production run: %w", err)
	}

	run.EventID = stringPtr(eventID)
	run.Notes = notes.String
	run.ProducedAt = parseTimestamp(producedStr)
	return &run, nil
}

// CreateAssemblyRun inserts an assembly run.
func (r *ProductionRepository) CreateAssemblyRun(ctx context.Context, tx *sql.Tx, run *models.AssemblyRun) error {
	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO assembly_runs (
			id, finished_good_id, event_id, quantity, total_material_cost, notes, assembled_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.FinishedGoodID, nullableStringPtr(run.EventID), run.Quantity,
		run.TotalMaterialCost, nullableString(run.Notes), formatTimestamp(run.AssembledAt),
	)
	if err != nil {
		return fmt.Errorf("inserting assembly run: %w", err)
	}
	return nil
}

// GetAssemblyRun retrieves an assembly run by ID.
func (r *ProductionRepository) GetAssemblyRun(ctx context.Context, tx *sql.Tx, id string) (*models.AssemblyRun, error) {
	var run models.AssemblyRun
	var eventID, notes sql.NullString
	var assembledStr string

	err := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT id, finished_good_id, event_id, quantity, total_material_cost, notes, assembled_at
		FROM assembly_runs WHERE id = ?`, id,
	).Scan(
		&run.ID, &run.FinishedGoodID, &eventID, &run.Quantity,
		&run.TotalMaterialCost, &notes, &assembledStr,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("assembly run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning assembly run: %w", err)
	}

	run.EventID = stringPtr(eventID)
	run.Notes = notes.String
	run.AssembledAt = parseTimestamp(assembledStr)
	return &run, nil
}

// ListRecentRuns returns production and assembly runs, newest first.
func (r *ProductionRepository) ListRecentRuns(ctx context.Context, tx *sql.Tx, limit int) ([]*models.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT p.id, 'production', u.display_name, p.actual_yield, p.total_ingredient_cost, p.produced_at
		FROM production_runs p
		JOIN finished_units u ON u.id = p.finished_unit_id
		UNION ALL
		SELECT a.id, 'assembly', g.display_name, a.quantity, a.total_material_cost, a.assembled_at
		FROM assembly_runs a
		JOIN finished_goods g ON g.id = a.finished_good_id
		ORDER BY 6 DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.RunSummary
	for rows.Next() {
		var s models.RunSummary
		var atStr string
		if err := rows.Scan(&s.ID, &s.Kind, &s.Name, &s.Quantity, &s.Cost, &atStr); err != nil {
			return nil, fmt.Errorf("scanning run summary: %w", err)
		}
		s.At = parseTimestamp(atStr)
		runs = append(runs, &s)
	}
	return runs, rows.Err()
}

func (r *ProductionRepository) getQuerier(tx *sql.Tx) querier {
	return getQuerier(r.db, tx)
}
