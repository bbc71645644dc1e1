package production

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/services/catalog"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
	"github.com/bakeplan/bakeplan/internal/testutil"
	"github.com/bakeplan/bakeplan/internal/util"
)

type bakery struct {
	db        *testutil.TestDB
	catalog   *catalog.Service
	inventory *inventory.Service
	svc       *Service

	flour  *models.Product
	sugar  *models.Product
	ribbon *models.Material
	bow    *models.MaterialUnit
	cookie *models.FinishedUnit
	box    *models.FinishedGood
}

// setupBakery stocks two flour lots, one sugar lot and one ribbon roll, with
// a cookie recipe (500g flour, 200g sugar, 24 per batch) and a box of 12
// cookies tied with a 30cm bow.
func setupBakery(t *testing.T) *bakery {
	t.Helper()
	ctx := context.Background()
	migrationsDir := filepath.Join("..", "..", "database", "migrations")
	db := testutil.NewMigratedDB(t, migrationsDir)

	b := &bakery{
		db:        db,
		catalog:   catalog.NewService(db.DB),
		inventory: inventory.NewService(db.DB, inventory.DefaultLedgerConfig()),
	}
	b.svc = NewService(db.DB, b.catalog, b.inventory)
	b.svc.SetClock(util.FixedClock{T: time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)})

	var err error
	must := func(what string) {
		t.Helper()
		if err != nil {
			t.Fatalf("failed to create %s: %v", what, err)
		}
	}

	b.flour, err = b.inventory.CreateProduct(ctx, inventory.CreateItemInput{DisplayName: "Flour", Unit: "g"})
	must("flour")
	b.sugar, err = b.inventory.CreateProduct(ctx, inventory.CreateItemInput{DisplayName: "Sugar", Unit: "g"})
	must("sugar")
	b.ribbon, err = b.inventory.CreateMaterial(ctx, inventory.CreateItemInput{DisplayName: "Red Ribbon", Unit: "cm"})
	must("ribbon")
	b.bow, err = b.inventory.CreateMaterialUnit(ctx, inventory.CreateMaterialUnitInput{
		MaterialID: b.ribbon.ID, Name: "Bow", QuantityPerUnit: testutil.D("30"),
	})
	must("bow")

	for _, p := range []inventory.PurchaseInput{
		{Domain: models.DomainIngredient, ItemID: b.flour.ID, PurchaseDate: testutil.Day(2024, 11, 1), Quantity: testutil.D("600"), UnitCost: testutil.D("0.01")},
		{Domain: models.DomainIngredient, ItemID: b.flour.ID, PurchaseDate: testutil.Day(2024, 11, 2), Quantity: testutil.D("1000"), UnitCost: testutil.D("0.02")},
		{Domain: models.DomainIngredient, ItemID: b.sugar.ID, PurchaseDate: testutil.Day(2024, 11, 1), Quantity: testutil.D("500"), UnitCost: testutil.D("0.05")},
		{Domain: models.DomainMaterial, ItemID: b.ribbon.ID, PurchaseDate: testutil.Day(2024, 11, 1), Quantity: testutil.D("100"), UnitCost: testutil.D("0.05")},
	} {
		_, _, err = b.inventory.RecordPurchase(ctx, p)
		must("purchase")
	}

	recipe, err := b.catalog.CreateRecipe(ctx, catalog.CreateRecipeInput{
		Name:          "Sugar Cookies",
		YieldPerBatch: testutil.D("24"),
		Ingredients: []catalog.IngredientInput{
			{ProductID: b.flour.ID, Quantity: testutil.D("500")},
			{ProductID: b.sugar.ID, Quantity: testutil.D("200")},
		},
	})
	must("recipe")
	b.cookie, err = b.catalog.CreateFinishedUnit(ctx, catalog.CreateFinishedUnitInput{
		DisplayName:   "Sugar Cookie",
		RecipeID:      recipe.ID,
		YieldMode:     models.YieldDiscreteCount,
		ItemsPerBatch: testutil.DP("24"),
	})
	must("cookie")
	b.box, err = b.catalog.CreateFinishedGood(ctx, catalog.CreateFinishedGoodInput{
		DisplayName: "Cookie Box",
		Components: []catalog.ComponentInput{
			{Kind: models.ComponentFinishedUnit, RefID: b.cookie.ID, Quantity: testutil.D("12")},
			{Kind: models.ComponentMaterialUnit, RefID: b.bow.ID, Quantity: testutil.D("1")},
		},
	})
	must("box")

	return b
}

func (b *bakery) available(t *testing.T, ledger *inventory.Ledger, itemID string) string {
	t.Helper()
	q, err := ledger.AvailableQuantity(context.Background(), nil, itemID)
	if err != nil {
		t.Fatalf("available quantity failed: %v", err)
	}
	return q.String()
}

func (b *bakery) unitCount(t *testing.T) int {
	t.Helper()
	u, err := b.catalog.GetFinishedUnit(context.Background(), b.cookie.ID)
	if err != nil {
		t.Fatalf("get finished unit failed: %v", err)
	}
	return u.InventoryCount
}

func (b *bakery) goodCount(t *testing.T, id string) int {
	t.Helper()
	g, err := b.catalog.GetFinishedGood(context.Background(), id)
	if err != nil {
		t.Fatalf("get finished good failed: %v", err)
	}
	return g.InventoryCount
}

func TestRecordProductionRun(t *testing.T) {
	b := setupBakery(t)
	ctx := context.Background()

	run, err := b.svc.RecordProductionRun(ctx, ProductionInput{FinishedUnitID: b.cookie.ID, Batches: 2})
	if err != nil {
		t.Fatalf("production run failed: %v", err)
	}

	// Flour: 600 @ 0.01 + 400 @ 0.02 = 14; sugar: 400 @ 0.05 = 20.
	if !run.TotalIngredientCost.Equal(testutil.D("34")) {
		t.Errorf("expected cost 34, got %s", run.TotalIngredientCost)
	}
	if run.ExpectedYield != 48 || run.ActualYield != 48 {
		t.Errorf("expected yield 48/48, got %d/%d", run.ExpectedYield, run.ActualYield)
	}
	if !run.PerUnitCost.Equal(testutil.D("0.7083")) {
		t.Errorf("expected per unit cost 0.7083, got %s", run.PerUnitCost)
	}
	if !run.ProducedAt.Equal(time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("expected clock timestamp, got %s", run.ProducedAt)
	}

	if got := b.available(t, b.inventory.Ingredients(), b.flour.ID); got != "600" {
		t.Errorf("expected 600 flour left, got %s", got)
	}
	if got := b.available(t, b.inventory.Ingredients(), b.sugar.ID); got != "100" {
		t.Errorf("expected 100 sugar left, got %s", got)
	}
	if got := b.unitCount(t); got != 48 {
		t.Errorf("expected 48 cookies stocked, got %d", got)
	}

	stored, err := b.svc.GetProductionRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get production run failed: %v", err)
	}
	if len(stored.Consumptions) != 3 {
		t.Fatalf("expected 3 consumption rows (two flour lots, one sugar), got %d", len(stored.Consumptions))
	}
	for _, c := range stored.Consumptions {
		if c.ItemName == "" || c.Unit != "g" {
			t.Errorf("consumption row missing item details: %+v", c)
		}
	}

	runs, err := b.svc.ListRecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list runs failed: %v", err)
	}
	if len(runs) != 1 || runs[0].Kind != "production" || runs[0].Quantity != 48 {
		t.Errorf("unexpected run history %+v", runs)
	}
}

func TestRecordProductionRun_ActualYield(t *testing.T) {
	b := setupBakery(t)
	actual := 40

	run, err := b.svc.RecordProductionRun(context.Background(), ProductionInput{
		FinishedUnitID: b.cookie.ID, Batches: 2, ActualYield: &actual,
	})
	if err != nil {
		t.Fatalf("production run failed: %v", err)
	}
	if run.YieldLoss() != 8 {
		t.Errorf("expected yield loss 8, got %d", run.YieldLoss())
	}
	if !run.PerUnitCost.Equal(testutil.D("0.85")) {
		t.Errorf("expected per unit cost 0.85, got %s", run.PerUnitCost)
	}
	if got := b.unitCount(t); got != 40 {
		t.Errorf("expected 40 cookies stocked, got %d", got)
	}
}

func TestRecordProductionRun_ShortfallIsAllOrNothing(t *testing.T) {
	b := setupBakery(t)

	// 4 batches need 2000 flour (have 1600) and 800 sugar (have 500).
	_, err := b.svc.RecordProductionRun(context.Background(), ProductionInput{FinishedUnitID: b.cookie.ID, Batches: 4})

	var short *models.InsufficientInventoryError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientInventoryError, got %v", err)
	}
	if len(short.Shortfalls) != 2 {
		t.Fatalf("expected both ingredients listed, got %+v", short.Shortfalls)
	}
	want := map[string]string{"Flour": "400", "Sugar": "300"}
	for _, s := range short.Shortfalls {
		if !s.Shortfall.Equal(testutil.D(want[s.ItemName])) || s.Kind != "ingredient" {
			t.Errorf("unexpected shortfall %+v", s)
		}
	}

	if got := b.available(t, b.inventory.Ingredients(), b.flour.ID); got != "1600" {
		t.Errorf("flour lots must be untouched, got %s", got)
	}
	if got := b.available(t, b.inventory.Ingredients(), b.sugar.ID); got != "500" {
		t.Errorf("sugar lots must be untouched, got %s", got)
	}
	if got := b.unitCount(t); got != 0 {
		t.Errorf("no cookies should be stocked, got %d", got)
	}
	b.db.AssertRowCount(t, "production_runs", 0)
	b.db.AssertRowCount(t, "production_consumptions", 0)
}

func TestRecordProductionRun_Validation(t *testing.T) {
	b := setupBakery(t)
	negative := -1
	event := "ghost-event"
	unknownEvent := util.NewID()

	tests := []struct {
		name  string
		input ProductionInput
		field string
	}{
		{"Zero batches", ProductionInput{FinishedUnitID: b.cookie.ID}, "batches"},
		{"Negative yield", ProductionInput{FinishedUnitID: b.cookie.ID, Batches: 1, ActualYield: &negative}, "actual_yield"},
		{"Malformed unit", ProductionInput{FinishedUnitID: "ghost", Batches: 1}, "finished_unit_id"},
		{"Unknown unit", ProductionInput{FinishedUnitID: util.NewID(), Batches: 1}, "finished_unit_id"},
		{"Malformed event", ProductionInput{FinishedUnitID: b.cookie.ID, Batches: 1, EventID: &event}, "event_id"},
		{"Unknown event", ProductionInput{FinishedUnitID: b.cookie.ID, Batches: 1, EventID: &unknownEvent}, "event_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.svc.RecordProductionRun(context.Background(), tt.input)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("expected %s ValidationError, got %v", tt.field, err)
			}
		})
	}
	b.db.AssertRowCount(t, "production_runs", 0)
}

func TestRecordAssemblyRun(t *testing.T) {
	b := setupBakery(t)
	ctx := context.Background()

	if _, err := b.svc.RecordProductionRun(ctx, ProductionInput{FinishedUnitID: b.cookie.ID, Batches: 2}); err != nil {
		t.Fatalf("production run failed: %v", err)
	}

	run, err := b.svc.RecordAssemblyRun(ctx, AssemblyInput{FinishedGoodID: b.box.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("assembly run failed: %v", err)
	}
	if !run.TotalMaterialCost.Equal(testutil.D("4.5")) {
		t.Errorf("expected 90cm ribbon at 0.05 = 4.5, got %s", run.TotalMaterialCost)
	}
	if got := b.unitCount(t); got != 12 {
		t.Errorf("expected 12 cookies left, got %d", got)
	}
	if got := b.goodCount(t, b.box.ID); got != 3 {
		t.Errorf("expected 3 boxes stocked, got %d", got)
	}
	if got := b.available(t, b.inventory.Materials(), b.ribbon.ID); got != "10" {
		t.Errorf("expected 10cm ribbon left, got %s", got)
	}

	stored, err := b.svc.GetAssemblyRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get assembly run failed: %v", err)
	}
	if len(stored.Consumptions) != 1 || stored.Consumptions[0].MaterialUnitName != "Bow" {
		t.Errorf("expected one ribbon consumption for the bow, got %+v", stored.Consumptions)
	}
}

func TestRecordAssemblyRun_NestedGoods(t *testing.T) {
	b := setupBakery(t)
	ctx := context.Background()

	crate, err := b.catalog.CreateFinishedGood(ctx, catalog.CreateFinishedGoodInput{
		DisplayName: "Gift Crate",
		Components: []catalog.ComponentInput{
			{Kind: models.ComponentFinishedGood, RefID: b.box.ID, Quantity: testutil.D("2")},
		},
	})
	if err != nil {
		t.Fatalf("failed to create crate: %v", err)
	}

	if _, err := b.svc.RecordProductionRun(ctx, ProductionInput{FinishedUnitID: b.cookie.ID, Batches: 2}); err != nil {
		t.Fatalf("production run failed: %v", err)
	}
	if _, err := b.svc.RecordAssemblyRun(ctx, AssemblyInput{FinishedGoodID: b.box.ID, Quantity: 3}); err != nil {
		t.Fatalf("box assembly failed: %v", err)
	}

	if _, err := b.svc.RecordAssemblyRun(ctx, AssemblyInput{FinishedGoodID: crate.ID, Quantity: 1}); err != nil {
		t.Fatalf("crate assembly failed: %v", err)
	}
	if got := b.goodCount(t, b.box.ID); got != 1 {
		t.Errorf("expected 1 box left, got %d", got)
	}
	if got := b.goodCount(t, crate.ID); got != 1 {
		t.Errorf("expected 1 crate stocked, got %d", got)
	}

	_, err = b.svc.RecordAssemblyRun(ctx, AssemblyInput{FinishedGoodID: crate.ID, Quantity: 1})
	var short *models.InsufficientInventoryError
	if !errors.As(err, &short) || len(short.Shortfalls) != 1 || short.Shortfalls[0].Kind != "finished_good" {
		t.Fatalf("expected finished_good shortfall, got %v", err)
	}
}

func TestRecordAssemblyRun_ShortfallIsAllOrNothing(t *testing.T) {
	b := setupBakery(t)
	ctx := context.Background()

	if _, err := b.svc.RecordProductionRun(ctx, ProductionInput{FinishedUnitID: b.cookie.ID, Batches: 1}); err != nil {
		t.Fatalf("production run failed: %v", err)
	}

	// 4 boxes need 48 cookies (have 24) and 120cm ribbon (have 100).
	_, err := b.svc.RecordAssemblyRun(ctx, AssemblyInput{FinishedGoodID: b.box.ID, Quantity: 4})
	var short *models.InsufficientInventoryError
	if !errors.As(err, &short) {
		t.Fatalf("expected InsufficientInventoryError, got %v", err)
	}

	kinds := make(map[string]string)
	for _, s := range short.Shortfalls {
		kinds[s.Kind] = s.Shortfall.String()
	}
	if kinds["finished_unit"] != "24" || kinds["material"] != "20" {
		t.Errorf("expected cookie and ribbon shortfalls, got %+v", short.Shortfalls)
	}

	if got := b.unitCount(t); got != 24 {
		t.Errorf("cookies must be untouched, got %d", got)
	}
	if got := b.available(t, b.inventory.Materials(), b.ribbon.ID); got != "100" {
		t.Errorf("ribbon must be untouched, got %s", got)
	}
	b.db.AssertRowCount(t, "assembly_runs", 0)
	b.db.AssertRowCount(t, "material_consumptions", 0)
}

func TestRecordAssemblyRun_Validation(t *testing.T) {
	b := setupBakery(t)
	ctx := context.Background()

	half, err := b.catalog.CreateFinishedGood(ctx, catalog.CreateFinishedGoodInput{
		DisplayName: "Half Cookie Bag",
		Components: []catalog.ComponentInput{
			{Kind: models.ComponentFinishedUnit, RefID: b.cookie.ID, Quantity: testutil.D("0.5")},
		},
	})
	if err != nil {
		t.Fatalf("failed to create good: %v", err)
	}

	tests := []struct {
		name  string
		input AssemblyInput
		field string
	}{
		{"Zero quantity", AssemblyInput{FinishedGoodID: b.box.ID}, "quantity"},
		{"Malformed good", AssemblyInput{FinishedGoodID: "ghost", Quantity: 1}, "finished_good_id"},
		{"Unknown good", AssemblyInput{FinishedGoodID: util.NewID(), Quantity: 1}, "finished_good_id"},
		{"Fractional units", AssemblyInput{FinishedGoodID: half.ID, Quantity: 3}, "component_quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.svc.RecordAssemblyRun(ctx, tt.input)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("expected %s ValidationError, got %v", tt.field, err)
			}
		})
	}
}
