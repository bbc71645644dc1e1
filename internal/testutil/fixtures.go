package testutil

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/util"
)

// D parses a decimal literal, panicking on bad input. Test use only.
func D(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DP returns a pointer to a parsed decimal.
func DP(s string) *decimal.Decimal {
	d := D(s)
	return &d
}

// Day returns a UTC midnight date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FixtureSupplier creates a test supplier with sensible defaults.
func FixtureSupplier(overrides ...func(*models.Supplier)) *models.Supplier {
	id := util.NewID()
	s := &models.Supplier{
		ID:        id,
		Name:      "Mill " + util.ShortID(id),
		CreatedAt: time.Now().UTC(),
	}
	for _, override := range overrides {
		override(s)
	}
	return s
}

// FixtureProduct creates a test ingredient product measured in grams.
func FixtureProduct(overrides ...func(*models.Product)) *models.Product {
	id := util.NewID()
	now := time.Now().UTC()

	p := &models.Product{
		ID:          id,
		Slug:        "flour_" + util.ShortID(id),
		DisplayName: "All-Purpose Flour",
		Unit:        "g",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(p)
	}

	return p
}

// FixtureMaterial creates a test packaging material measured in centimetres.
func FixtureMaterial(overrides ...func(*models.Material)) *models.Material {
	id := util.NewID()
	now := time.Now().UTC()

	m := &models.Material{
		ID:          id,
		Slug:        "ribbon_" + util.ShortID(id),
		DisplayName: "Satin Ribbon",
		Unit:        "cm",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(m)
	}

	return m
}

// FixtureMaterialUnit creates a 30cm portion of the given material.
func FixtureMaterialUnit(materialID string, overrides ...func(*models.MaterialUnit)) *models.MaterialUnit {
	id := util.NewID()
	mu := &models.MaterialUnit{
		ID:              id,
		MaterialID:      materialID,
		Name:            "30cm piece " + id[:4],
		QuantityPerUnit: D("30"),
		CreatedAt:       time.Now().UTC(),
	}
	for _, override := range overrides {
		override(mu)
	}
	return mu
}

// FixturePurchase creates an ingredient purchase of 1000 units at 0.01 each.
func FixturePurchase(itemID string, overrides ...func(*models.Purchase)) *models.Purchase {
	p := &models.Purchase{
		ID:           util.NewID(),
		Domain:       models.DomainIngredient,
		ItemID:       itemID,
		PurchaseDate: Day(2024, 1, 1),
		Quantity:     D("1000"),
		UnitCost:     D("0.01"),
		CreatedAt:    time.Now().UTC(),
	}
	for _, override := range overrides {
		override(p)
	}
	return p
}

// FixtureLot creates the lot that a purchase produces.
func FixtureLot(p *models.Purchase, overrides ...func(*models.InventoryLot)) *models.InventoryLot {
	now := time.Now().UTC()
	lot := &models.InventoryLot{
		ID:                util.NewID(),
		Domain:            p.Domain,
		PurchaseID:        p.ID,
		ItemID:            p.ItemID,
		QuantityPurchased: p.Quantity,
		QuantityRemaining: p.Quantity,
		CostPerUnit:       p.UnitCost,
		PurchaseDate:      p.PurchaseDate,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	for _, override := range overrides {
		override(lot)
	}
	return lot
}

// FixtureRecipe creates a recipe yielding 24 per batch.
func FixtureRecipe(overrides ...func(*models.Recipe)) *models.Recipe {
	id := util.NewID()
	now := time.Now().UTC()

	r := &models.Recipe{
		ID:            id,
		Slug:          "sugar_cookie_" + util.ShortID(id),
		Name:          "Sugar Cookie",
		YieldPerBatch: D("24"),
		YieldUnit:     "each",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(r)
	}

	return r
}

// FixtureFinishedUnit creates a discrete finished unit of 24 per batch.
func FixtureFinishedUnit(recipeID string, overrides ...func(*models.FinishedUnit)) *models.FinishedUnit {
	id := util.NewID()
	now := time.Now().UTC()

	fu := &models.FinishedUnit{
		ID:            id,
		Slug:          "cookie_" + util.ShortID(id),
		DisplayName:   "Sugar Cookie",
		RecipeID:      recipeID,
		YieldMode:     models.YieldDiscreteCount,
		ItemsPerBatch: DP("24"),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(fu)
	}

	return fu
}

// FixtureFinishedGood creates an empty gift box.
func FixtureFinishedGood(overrides ...func(*models.FinishedGood)) *models.FinishedGood {
	id := util.NewID()
	now := time.Now().UTC()

	fg := &models.FinishedGood{
		ID:           id,
		Slug:         "gift_box_" + util.ShortID(id),
		DisplayName:  "Gift Box",
		AssemblyType: models.AssemblyGiftBox,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, override := range overrides {
		override(fg)
	}

	return fg
}

// FixtureEvent creates an event two weeks out.
func FixtureEvent(overrides ...func(*models.Event)) *models.Event {
	id := util.NewID()
	now := time.Now().UTC()

	e := &models.Event{
		ID:        id,
		Name:      "Holiday Market " + id[:4],
		EventDate: Day(2024, 12, 14),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, override := range overrides {
		override(e)
	}

	return e
}
