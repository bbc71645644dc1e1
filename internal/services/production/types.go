package production

import "time"

// ProductionInput records baking batches of a finished unit's recipe.
type ProductionInput struct {
	FinishedUnitID string
	Batches        int
	// ActualYield defaults to the expected yield when nil.
	ActualYield *int
	EventID     *string
	Notes       string
	ProducedAt  time.Time
}

// AssemblyInput records assembling finished goods from stocked components.
type AssemblyInput struct {
	FinishedGoodID string
	Quantity       int
	EventID        *string
	Notes          string
	AssembledAt    time.Time
}
