package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductionRun records baking N batches of a recipe for a finished unit.
type ProductionRun struct {
	ID                  string
	RecipeID            string
	FinishedUnitID      string
	EventID             *string
	Batches             int
	ExpectedYield       int
	ActualYield         int
	TotalIngredientCost decimal.Decimal
	PerUnitCost         decimal.Decimal
	Notes               string
	ProducedAt          time.Time

	// Joined fields
	Consumptions []*ConsumptionRecord
}

// YieldLoss returns expected minus actual yield, never negative.
func (r *ProductionRun) YieldLoss() int {
	if r.ActualYield >= r.ExpectedYield {
		return 0
	}
	return r.ExpectedYield - r.ActualYield
}

// AssemblyRun records assembling N of a finished good.
type AssemblyRun struct {
	ID                string
	FinishedGoodID    string
	EventID           *string
	Quantity          int
	TotalMaterialCost decimal.Decimal
	Notes             string
	AssembledAt       time.Time

	// Joined fields
	Consumptions []*ConsumptionRecord
}

// RunSummary is a row of the production history list.
type RunSummary struct {
	ID       string
	Kind     string // "production" or "assembly"
	Name     string
	Quantity int
	Cost     decimal.Decimal
	At       time.Time
}
