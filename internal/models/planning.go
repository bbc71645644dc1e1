package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a dated occasion that production is planned for.
type Event struct {
	ID        string
	Name      string
	EventDate time.Time
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	Targets []*EventTarget
}

// EventTarget is a quantity of a finished good an event needs.
type EventTarget struct {
	ID             string
	EventID        string
	FinishedGoodID string
	Quantity       int

	// Joined fields
	FinishedGood *FinishedGood
}

// BatchDecision records how many batches of a recipe the baker committed
// to for a finished unit of an event.
type BatchDecision struct {
	ID             string
	EventID        string
	RecipeID       string
	FinishedUnitID string
	Batches        int
	CreatedAt      time.Time
}

// BatchResult is the batch count for a unit requirement.
type BatchResult struct {
	Batches        int
	TotalYield     decimal.Decimal
	Waste          decimal.Decimal
	WastePercent   decimal.Decimal
	UnitsNeeded    decimal.Decimal
	YieldPerBatch  decimal.Decimal
}

// RecipeBatchResult is the batch plan for one recipe across all its units.
type RecipeBatchResult struct {
	RecipeID   string
	RecipeName string
	UnitIDs    []string
	BatchResult
}

// FeasibilityResult says whether a finished good target can be assembled
// from the batches that were decided.
type FeasibilityResult struct {
	FinishedGoodID   string
	FinishedGoodName string
	TargetQuantity   int
	CanAssemble      bool
	Shortfall        int
	Limiting         []BatchShortage
	Error            string
}

// BatchShortage shows one recipe whose decided batches fall short of what a
// target needs. Quantities are in batches.
type BatchShortage struct {
	RecipeID  string
	Needed    decimal.Decimal
	Available decimal.Decimal
}

// ShoppingLine is one line of an event shopping list.
type ShoppingLine struct {
	ItemID        string
	ItemName      string
	Unit          string
	Needed        decimal.Decimal
	OnHand        decimal.Decimal
	ToBuy         decimal.Decimal
	OnHandCost    decimal.Decimal // FIFO cost of the on-hand portion used
	SufficientNow bool
}

// EventPlan is everything the planning screen shows for an event.
type EventPlan struct {
	Event        *Event
	Requirements *Requirements
	Batches      []RecipeBatchResult
	Ingredients  []ShoppingLine
	Materials    []ShoppingLine
	Feasibility  []FeasibilityResult
	Errors       []string
}

// ReadyToBuy reports whether every shopping line is covered by stock.
func (p *EventPlan) ReadyToBuy() bool {
	for _, l := range p.Ingredients {
		if !l.SufficientNow {
			return false
		}
	}
	for _, l := range p.Materials {
		if !l.SufficientNow {
			return false
		}
	}
	return true
}

// EstimatedCost sums the FIFO cost of the on-hand portions.
func (p *EventPlan) EstimatedCost() decimal.Decimal {
	total := decimal.Zero
	for _, l := range p.Ingredients {
		total = total.Add(l.OnHandCost)
	}
	for _, l := range p.Materials {
		total = total.Add(l.OnHandCost)
	}
	return total
}
