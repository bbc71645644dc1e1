package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
)

// CreateSupplierInput contains data for creating a supplier.
type CreateSupplierInput struct {
	Name  string
	Notes string
}

// CreateItemInput contains data for creating a product or material.
// Slug defaults to the slugified display name.
type CreateItemInput struct {
	DisplayName string
	Slug        string
	Unit        string
}

// CreateMaterialUnitInput contains data for creating a material unit.
type CreateMaterialUnitInput struct {
	MaterialID      string
	Name            string
	QuantityPerUnit decimal.Decimal
}

// PurchaseInput contains data for recording a purchase.
type PurchaseInput struct {
	Domain       models.InventoryDomain
	ItemID       string
	SupplierID   *string
	PurchaseDate time.Time
	Quantity     decimal.Decimal
	UnitCost     decimal.Decimal
	Notes        string
}
