package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/testutil"
)

func TestService_CreateProduct(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, CreateItemInput{DisplayName: "Bread Flour", Unit: "g"})
	if err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	if p.Slug != "bread_flour" {
		t.Errorf("expected slug bread_flour, got %q", p.Slug)
	}

	got, err := svc.GetProductBySlug(ctx, "bread_flour")
	if err != nil || got.ID != p.ID {
		t.Errorf("expected lookup by slug to find product, got %v (%v)", got, err)
	}

	tests := []struct {
		name  string
		input CreateItemInput
	}{
		{"Missing name", CreateItemInput{Unit: "g"}},
		{"Missing unit", CreateItemInput{DisplayName: "Salt"}},
		{"Unsluggable name", CreateItemInput{DisplayName: "!!!", Unit: "g"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.input)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestService_CreateMaterialUnit(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	m, err := svc.CreateMaterial(ctx, CreateItemInput{DisplayName: "Satin Ribbon", Unit: "cm"})
	if err != nil {
		t.Fatalf("failed to create material: %v", err)
	}

	mu, err := svc.CreateMaterialUnit(ctx, CreateMaterialUnitInput{
		MaterialID:      m.ID,
		Name:            "30cm bow",
		QuantityPerUnit: testutil.D("30"),
	})
	if err != nil {
		t.Fatalf("failed to create material unit: %v", err)
	}

	got, err := svc.GetMaterialUnit(ctx, mu.ID)
	if err != nil {
		t.Fatalf("failed to get material unit: %v", err)
	}
	if got.Material == nil || got.Material.DisplayName != "Satin Ribbon" {
		t.Errorf("expected joined material, got %+v", got.Material)
	}

	_, err = svc.CreateMaterialUnit(ctx, CreateMaterialUnitInput{
		MaterialID:      "missing",
		Name:            "bow",
		QuantityPerUnit: testutil.D("30"),
	})
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError for missing material, got %v", err)
	}

	_, err = svc.CreateMaterialUnit(ctx, CreateMaterialUnitInput{
		MaterialID:      m.ID,
		Name:            "nothing",
		QuantityPerUnit: testutil.D("0"),
	})
	if !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError for zero quantity, got %v", err)
	}
}

func TestService_RecordPurchase(t *testing.T) {
	svc, db := setupTestService(t)
	ctx := context.Background()
	flour := mustProduct(t, svc, "Flour")

	sup, err := svc.CreateSupplier(ctx, CreateSupplierInput{Name: "Valley Mill"})
	if err != nil {
		t.Fatalf("failed to create supplier: %v", err)
	}

	purchase, lot, err := svc.RecordPurchase(ctx, PurchaseInput{
		Domain:       models.DomainIngredient,
		ItemID:       flour.ID,
		SupplierID:   &sup.ID,
		PurchaseDate: time.Date(2024, 4, 2, 15, 30, 0, 0, time.UTC),
		Quantity:     testutil.D("2267.96"),
		UnitCost:     testutil.D("0.004409"),
	})
	if err != nil {
		t.Fatalf("failed to record purchase: %v", err)
	}

	if !purchase.UnitCost.Equal(testutil.D("0.0044")) {
		t.Errorf("expected unit cost rounded to 0.0044, got %s", purchase.UnitCost)
	}
	if lot.PurchaseID != purchase.ID {
		t.Error("lot must reference its purchase")
	}
	if !lot.QuantityRemaining.Equal(lot.QuantityPurchased) || !lot.CostPerUnit.Equal(purchase.UnitCost) {
		t.Errorf("lot snapshot mismatch: %+v", lot)
	}
	if !lot.PurchaseDate.Equal(testutil.Day(2024, 4, 2)) {
		t.Errorf("expected purchase date truncated to the day, got %v", lot.PurchaseDate)
	}
	db.AssertRowCount(t, "purchases", 1)
	db.AssertRowCount(t, "inventory_items", 1)

	invalid := []struct {
		name   string
		mutate func(*PurchaseInput)
		field  string
	}{
		{"Zero quantity", func(in *PurchaseInput) { in.Quantity = testutil.D("0") }, "quantity"},
		{"Negative cost", func(in *PurchaseInput) { in.UnitCost = testutil.D("-0.01") }, "unit_cost"},
		{"Unknown domain", func(in *PurchaseInput) { in.Domain = "PRODUCE" }, "domain"},
		{"Unknown item", func(in *PurchaseInput) { in.ItemID = "missing" }, "item_id"},
		{"Unknown supplier", func(in *PurchaseInput) { missing := "missing"; in.SupplierID = &missing }, "supplier_id"},
		{"Material id in ingredient ledger", func(in *PurchaseInput) { in.ItemID = "material-only" }, "item_id"},
		{"Missing date", func(in *PurchaseInput) { in.PurchaseDate = time.Time{} }, "purchase_date"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			in := PurchaseInput{
				Domain:       models.DomainIngredient,
				ItemID:       flour.ID,
				PurchaseDate: testutil.Day(2024, 4, 3),
				Quantity:     testutil.D("10"),
				UnitCost:     testutil.D("1"),
			}
			tt.mutate(&in)
			_, _, err := svc.RecordPurchase(ctx, in)
			var vErr *models.ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, vErr.Field)
			}
		})
	}

	// Failed purchases leave nothing behind.
	db.AssertRowCount(t, "purchases", 1)
	db.AssertRowCount(t, "inventory_items", 1)
}

func TestService_ListLotsAndSummaries(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	butter := mustProduct(t, svc, "Butter")
	sugar := mustProduct(t, svc, "Sugar")
	mustPurchase(t, svc, butter.ID, testutil.Day(2024, 1, 5), "454", "0.011")
	mustPurchase(t, svc, butter.ID, testutil.Day(2024, 1, 2), "454", "0.010")
	mustPurchase(t, svc, sugar.ID, testutil.Day(2024, 1, 3), "1000", "0.002")

	if _, err := svc.Ingredients().Consume(ctx, nil, sugar.ID, testutil.D("1000"), false); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	lots, err := svc.ListLots(ctx, models.DomainIngredient, models.LotFilter{})
	if err != nil {
		t.Fatalf("failed to list lots: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("expected 2 non-depleted lots, got %d", len(lots))
	}
	if lots[0].ItemName != "Butter" || !lots[0].PurchaseDate.Equal(testutil.Day(2024, 1, 2)) {
		t.Errorf("expected oldest butter lot first, got %s %v", lots[0].ItemName, lots[0].PurchaseDate)
	}

	all, err := svc.ListLots(ctx, models.DomainIngredient, models.LotFilter{IncludeDepleted: true})
	if err != nil {
		t.Fatalf("failed to list lots: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 lots including depleted, got %d", len(all))
	}

	summaries, err := svc.StockSummaries(ctx, models.DomainIngredient)
	if err != nil {
		t.Fatalf("failed to summarize: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected only butter in summary, got %d items", len(summaries))
	}
	s := summaries[0]
	if s.LotCount != 2 || !s.OnHand.Equal(testutil.D("908")) {
		t.Errorf("expected 2 lots and 908 on hand, got %d and %s", s.LotCount, s.OnHand)
	}
	// 454*0.010 + 454*0.011 = 9.534
	if !s.Value.Equal(testutil.D("9.534")) {
		t.Errorf("expected value 9.534, got %s", s.Value)
	}
	if !s.OldestDate.Equal(testutil.Day(2024, 1, 2)) {
		t.Errorf("expected oldest date Jan 2, got %v", s.OldestDate)
	}
}
