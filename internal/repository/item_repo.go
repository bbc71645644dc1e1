package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bakeplan/bakeplan/internal/models"
)

// ItemRepository handles suppliers and the purchasable items: products,
// materials and material units.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// ============================================================================
// SUPPLIERS
// ============================================================================

// CreateSupplier inserts a new supplier.
func (r *ItemRepository) CreateSupplier(ctx context.Context, tx *sql.Tx, s *models.Supplier) error {
	s.CreatedAt = time.Now().UTC()
	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO suppliers (id, name, notes, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Name, nullableString(s.Notes), formatTimestamp(s.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting supplier: %w", err)
	}
	return nil
}

// GetSupplier retrieves a supplier by ID.
func (r *ItemRepository) GetSupplier(ctx context.Context, tx *sql.Tx, id string) (*models.Supplier, error) {
	row := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT id, name, notes, created_at FROM suppliers WHERE id = ?`, id)

	var s models.Supplier
	var notes sql.NullString
	var createdStr string
	err := row.Scan(&s.ID, &s.Name, &notes, &createdStr)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("supplier %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning supplier: %w", err)
	}
	s.Notes = notes.String
	s.CreatedAt = parseTimestamp(createdStr)
	return &s, nil
}

// ListSuppliers retrieves all suppliers ordered by name.
func (r *ItemRepository) ListSuppliers(ctx context.Context, tx *sql.Tx) ([]*models.Supplier, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT id, name, notes, created_at FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*models.Supplier
	for rows.Next() {
		var s models.Supplier
		var notes sql.NullString
		var createdStr string
		if err := rows.Scan(&s.ID, &s.Name, &notes, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning supplier row: %w", err)
		}
		s.Notes = notes.String
		s.CreatedAt = parseTimestamp(createdStr)
		suppliers = append(suppliers, &s)
	}
	return suppliers, rows.Err()
}

// ============================================================================
// PRODUCTS
// ============================================================================

// CreateProduct inserts a new ingredient product.
func (r *ItemRepository) CreateProduct(ctx context.Context, tx *sql.Tx, p *models.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO products (id, slug, display_name, unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.DisplayName, p.Unit,
		formatTimestamp(p.CreatedAt), formatTimestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by ID.
func (r *ItemRepository) GetProduct(ctx context.Context, tx *sql.Tx, id string) (*models.Product, error) {
	row := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT id, slug, display_name, unit, created_at, updated_at
		FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	return p, err
}

// GetProductBySlug retrieves a product by slug.
func (r *ItemRepository) GetProductBySlug(ctx context.Context, tx *sql.Tx, slug string) (*models.Product, error) {
	row := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT id, slug, display_name, unit, created_at, updated_at
		FROM products WHERE slug = ?`, slug)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
	}
	return p, err
}

// ListProducts retrieves all products ordered by display name.
func (r *ItemRepository) ListProducts(ctx context.Context, tx *sql.Tx) ([]*models.Product, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT id, slug, display_name, unit, created_at, updated_at
		FROM products ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ============================================================================
// MATERIALS
// ============================================================================

// CreateMaterial inserts a new packaging material.
func (r *ItemRepository) CreateMaterial(ctx context.Context, tx *sql.Tx, m *models.Material) error {
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO materials (id, slug, display_name, unit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Slug, m.DisplayName, m.Unit,
		formatTimestamp(m.CreatedAt), formatTimestamp(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting material: %w", err)
	}
	return nil
}

// GetMaterial retrieves a material by ID.
func (r *ItemRepository) GetMaterial(ctx context.Context, tx *sql.Tx, id string) (*models.Material, error) {
	row := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT id, slug, display_name, unit, created_at, updated_at
		FROM materials WHERE id = ?`, id)
	m, err := scanMaterial(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("material %s: %w", id, ErrNotFound)
	}
	return m, err
}

// ListMaterials retrieves all materials ordered by display name.
func (r *ItemRepository) ListMaterials(ctx context.Context, tx *sql.Tx) ([]*models.Material, error) {
	rows, err := r.getQuerier(tx).QueryContext(ctx, `
		SELECT id, slug, display_name, unit, created_at, updated_at
		FROM materials ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("querying materials: %w", err)
	}
	defer rows.Close()

	var materials []*models.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// ============================================================================
// MATERIAL UNITS
// ============================================================================

// CreateMaterialUnit inserts a new material unit.
func (r *ItemRepository) CreateMaterialUnit(ctx context.Context, tx *sql.Tx, mu *models.MaterialUnit) error {
	mu.CreatedAt = time.Now().UTC()
	_, err := r.getQuerier(tx).ExecContext(ctx, `
		INSERT INTO material_units (id, material_id, name, quantity_per_unit, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		mu.ID, mu.MaterialID, mu.Name, mu.QuantityPerUnit, formatTimestamp(mu.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting material unit: %w", err)
	}
	return nil
}

// GetMaterialUnit retrieves a material unit with its material.
func (r *ItemRepository) GetMaterialUnit(ctx context.Context, tx *sql.Tx, id string) (*models.MaterialUnit, error) {
	row := r.getQuerier(tx).QueryRowContext(ctx, `
		SELECT u.id, u.material_id, u.name, u.quantity_per_unit, u.created_at,
			m.id, m.slug, m.display_name, m.unit, m.created_at, m.updated_at
		FROM material_units u
		JOIN materials m ON m.id = u.material_id
		WHERE u.id = ?`, id)

	var mu models.MaterialUnit
	var m models.Material
	var muCreated, mCreated, mUpdated string
	err := row.Scan(
		&mu.ID, &mu.MaterialID, &mu.Name, &mu.QuantityPerUnit, &muCreated,
		&m.ID, &m.Slug, &m.DisplayName, &m.Unit, &mCreated, &mUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("material unit %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning material unit: %w", err)
	}
	mu.CreatedAt = parseTimestamp(muCreated)
	m.CreatedAt = parseTimestamp(mCreated)
	m.UpdatedAt = parseTimestamp(mUpdated)
	mu.Material = &m
	return &mu, nil
}

// ListMaterialUnits retrieves the units of one material, or all when materialID is empty.
func (r *ItemRepository) ListMaterialUnits(ctx context.Context, tx *sql.Tx, materialID string) ([]*models.MaterialUnit, error) {
	query := `
		SELECT id, material_id, name, quantity_per_unit, created_at
		FROM material_units`
	var args []any
	if materialID != "" {
		query += ` WHERE material_id = ?`
		args = append(args, materialID)
	}
	query += ` ORDER BY name`

	rows, err := r.getQuerier(tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying material units: %w", err)
	}
	defer rows.Close()

	var units []*models.MaterialUnit
	for rows.Next() {
		var mu models.MaterialUnit
		var createdStr string
		if err := rows.Scan(&mu.ID, &mu.MaterialID, &mu.Name, &mu.QuantityPerUnit, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning material unit row: %w", err)
		}
		mu.CreatedAt = parseTimestamp(createdStr)
		units = append(units, &mu)
	}
	return units, rows.Err()
}

// ============================================================================
// HELPERS
// ============================================================================

func (r *ItemRepository) getQuerier(tx *sql.Tx) querier {
	return getQuerier(r.db, tx)
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	var createdStr, updatedStr string
	err := row.Scan(&p.ID, &p.Slug, &p.DisplayName, &p.Unit, &createdStr, &updatedStr)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning product: %w", err)
	}
	p.CreatedAt = parseTimestamp(createdStr)
	p.UpdatedAt = parseTimestamp(updatedStr)
	return &p, nil
}

func scanMaterial(row rowScanner) (*models.Material, error) {
	var m models.Material
	var createdStr, updatedStr string
	err := row.Scan(&m.ID, &m.Slug, &m.DisplayName, &m.Unit, &createdStr, &updatedStr)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning material: %w", err)
	}
	m.CreatedAt = parseTimestamp(createdStr)
	m.UpdatedAt = parseTimestamp(updatedStr)
	return &m, nil
}
