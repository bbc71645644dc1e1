package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recipe produces batches of one or more finished units.
type Recipe struct {
	ID            string
	Slug          string
	Name          string
	YieldPerBatch decimal.Decimal
	YieldUnit     string
	Notes         string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined fields
	Ingredients []*RecipeIngredient
}

// RecipeIngredient is the quantity of a product needed for one batch.
type RecipeIngredient struct {
	RecipeID  string
	ProductID string
	Quantity  decimal.Decimal

	// Joined fields
	Product *Product
}

// YieldOverride pins how many of a finished unit one batch of a recipe makes.
type YieldOverride struct {
	RecipeID       string
	FinishedUnitID string
	ItemsPerBatch  decimal.Decimal
}

// YieldMode says how a finished unit is carved out of a batch.
type YieldMode string

const (
	// YieldDiscreteCount: a batch makes N separate items (cookies, muffins).
	YieldDiscreteCount YieldMode = "discrete_count"
	// YieldBatchPortion: a unit is a percentage of one batch (a loaf, a cake).
	YieldBatchPortion YieldMode = "batch_portion"
)

func (m YieldMode) String() string {
	return string(m)
}

// Valid reports whether m is a known yield mode.
func (m YieldMode) Valid() bool {
	return m == YieldDiscreteCount || m == YieldBatchPortion
}

// FinishedUnit is a single baked item made from one recipe.
type FinishedUnit struct {
	ID              string
	Slug            string
	DisplayName     string
	RecipeID        string
	YieldMode       YieldMode
	ItemsPerBatch   *decimal.Decimal
	BatchPercentage *decimal.Decimal
	InventoryCount  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AssemblyType classifies a finished good.
type AssemblyType string

const (
	AssemblyGiftBox    AssemblyType = "gift_box"
	AssemblyBundle     AssemblyType = "bundle"
	AssemblyCustomSet  AssemblyType = "custom_set"
	AssemblyBakeryTray AssemblyType = "bakery_tray"
)

// FinishedGood is a sellable bundle of finished units, materials and
// possibly other finished goods.
type FinishedGood struct {
	ID             string
	Slug           string
	DisplayName    string
	AssemblyType   AssemblyType
	InventoryCount int
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Joined fields
	Components []Component
}

// ComponentKind identifies which reference a composition row carries.
type ComponentKind string

const (
	ComponentFinishedUnit ComponentKind = "finished_unit"
	ComponentFinishedGood ComponentKind = "finished_good"
	ComponentMaterialUnit ComponentKind = "material_unit"
)

func (k ComponentKind) String() string {
	return string(k)
}

// Component is one composition row of a finished good. Exactly one kind of
// reference is carried; RefID is its id.
type Component struct {
	ID        string
	Kind      ComponentKind
	RefID     string
	Quantity  decimal.Decimal
	SortOrder int
}

// Requirements is the full bill for a finished good: finished unit counts
// and material unit counts, keyed by id.
type Requirements struct {
	Units         map[string]decimal.Decimal
	MaterialUnits map[string]decimal.Decimal
}

// NewRequirements returns empty requirement maps.
func NewRequirements() *Requirements {
	return &Requirements{
		Units:         make(map[string]decimal.Decimal),
		MaterialUnits: make(map[string]decimal.Decimal),
	}
}

// AddUnit accumulates a finished unit requirement.
func (r *Requirements) AddUnit(id string, qty decimal.Decimal) {
	r.Units[id] = r.Units[id].Add(qty)
}

// AddMaterialUnit accumulates a material unit requirement.
func (r *Requirements) AddMaterialUnit(id string, qty decimal.Decimal) {
	r.MaterialUnits[id] = r.MaterialUnits[id].Add(qty)
}

// Merge adds every requirement of other into r.
func (r *Requirements) Merge(other *Requirements) {
	for id, q := range other.Units {
		r.AddUnit(id, q)
	}
	for id, q := range other.MaterialUnits {
		r.AddMaterialUnit(id, q)
	}
}
