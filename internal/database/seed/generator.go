package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakeplan/bakeplan/internal/models"
	"github.com/bakeplan/bakeplan/internal/services/catalog"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
	"github.com/bakeplan/bakeplan/internal/services/planning"
)

// Config configures the seed data generator.
type Config struct {
	// StartDate is the date of the first purchase round.
	StartDate time.Time
	// PurchaseRounds is how many times each item is bought, two weeks apart.
	PurchaseRounds int
	// EventDays dates the sample event this many days after StartDate.
	EventDays  int
	RandomSeed int64
}

// DefaultConfig returns a default seed configuration anchored at now.
func DefaultConfig(now time.Time) Config {
	return Config{
		StartDate:      now.AddDate(0, 0, -42),
		PurchaseRounds: 3,
		EventDays:      56,
		RandomSeed:     1848,
	}
}

// Generator fills an empty database with a sample bakery through the
// services, so every row passes the same validation as user input.
type Generator struct {
	inventory *inventory.Service
	catalog   *catalog.Service
	planning  *planning.Service
	cfg       Config
	rng       *rand.Rand

	// Tracking
	suppliers     []*models.Supplier
	products      map[string]*models.Product
	materials     map[string]*models.Material
	materialUnits map[string]*models.MaterialUnit
	units         map[string]*models.FinishedUnit
	goods         map[string]*models.FinishedGood
	purchases     int
}

// NewGenerator creates a new seed data generator.
func NewGenerator(inv *inventory.Service, cat *catalog.Service, plan *planning.Service, cfg Config) *Generator {
	return &Generator{
		inventory:     inv,
		catalog:       cat,
		planning:      plan,
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(cfg.RandomSeed)),
		products:      make(map[string]*models.Product),
		materials:     make(map[string]*models.Material),
		materialUnits: make(map[string]*models.MaterialUnit),
		units:         make(map[string]*models.FinishedUnit),
		goods:         make(map[string]*models.FinishedGood),
	}
}

// IsSeeded reports whether the database already holds ingredients.
func (g *Generator) IsSeeded(ctx context.Context) (bool, error) {
	products, err := g.inventory.ListProducts(ctx)
	if err != nil {
		return false, err
	}
	return len(products) > 0, nil
}

// Generate creates all seed data.
func (g *Generator) Generate(ctx context.Context) error {
	slog.Info("starting seed data generation",
		"start_date", g.cfg.StartDate.Format("2006-01-02"),
		"purchase_rounds", g.cfg.PurchaseRounds,
	)

	if err := g.generateSuppliers(ctx); err != nil {
		return fmt.Errorf("generating suppliers: %w", err)
	}
	if err := g.generateProducts(ctx); err != nil {
		return fmt.Errorf("generating products: %w", err)
	}
	if err := g.generateMaterials(ctx); err != nil {
		return fmt.Errorf("generating materials: %w", err)
	}
	if err := g.generateRecipes(ctx); err != nil {
		return fmt.Errorf("generating recipes: %w", err)
	}
	if err := g.generateGoods(ctx); err != nil {
		return fmt.Errorf("generating finished goods: %w", err)
	}
	if err := g.generateEvent(ctx); err != nil {
		return fmt.Errorf("generating event: %w", err)
	}

	slog.Info("seed data generation complete",
		"products", len(g.products),
		"materials", len(g.materials),
		"purchases", g.purchases,
		"finished_goods", len(g.goods),
	)
	return nil
}

func (g *Generator) generateSuppliers(ctx context.Context) error {
	for _, name := range Suppliers {
		s, err := g.inventory.CreateSupplier(ctx, inventory.CreateSupplierInput{Name: name})
		if err != nil {
			return err
		}
		g.suppliers = append(g.suppliers, s)
	}
	return nil
}

func (g *Generator) generateProducts(ctx context.Context) error {
	slog.Debug("generating products", "count", len(Products))
	for _, ps := range Products {
		p, err := g.inventory.CreateProduct(ctx, inventory.CreateItemInput{DisplayName: ps.Name, Slug: ps.Slug, Unit: ps.Unit})
		if err != nil {
			return fmt.Errorf("creating product %s: %w", ps.Slug, err)
		}
		g.products[ps.Slug] = p

		if err := g.buy(ctx, models.DomainIngredient, p.ID, ps.PackQty, ps.UnitCost, g.suppliers[0]); err != nil {
			return fmt.Errorf("buying %s: %w", ps.Slug, err)
		}
	}
	return nil
}

func (g *Generator) generateMaterials(ctx context.Context) error {
	slog.Debug("generating materials", "count", len(Materials))
	for _, ms := range Materials {
		m, err := g.inventory.CreateMaterial(ctx, inventory.CreateItemInput{DisplayName: ms.Name, Slug: ms.Slug, Unit: ms.Unit})
		if err != nil {
			return fmt.Errorf("creating material %s: %w", ms.Slug, err)
		}
		g.materials[ms.Slug] = m

		for _, us := range ms.Units {
			mu, err := g.inventory.CreateMaterialUnit(ctx, inventory.CreateMaterialUnitInput{
				MaterialID:      m.ID,
				Name:            us.Name,
				QuantityPerUnit: decimal.RequireFromString(us.QuantityPerUnit),
			})
			if err != nil {
				return fmt.Errorf("creating material unit %s: %w", us.Name, err)
			}
			g.materialUnits[us.Name] = mu
		}

		if err := g.buy(ctx, models.DomainMaterial, m.ID, ms.PackQty, ms.UnitCost, g.suppliers[len(g.suppliers)-1]); err != nil {
			return fmt.Errorf("buying %s: %w", ms.Slug, err)
		}
	}
	return nil
}

// buy records one purchase per round. Quantities vary between one and two
// packs and prices drift up to 10% either way so FIFO costs differ by lot.
func (g *Generator) buy(ctx context.Context, domain models.InventoryDomain, itemID, packQty, unitCost string, supplier *models.Supplier) error {
	pack := decimal.RequireFromString(packQty)
	cost := decimal.RequireFromString(unitCost)

	for round := 0; round < g.cfg.PurchaseRounds; round++ {
		packs := decimal.NewFromInt(int64(1 + g.rng.Intn(2)))
		drift := decimal.NewFromFloat(0.9 + 0.2*g.rng.Float64())

		_, _, err := g.inventory.RecordPurchase(ctx, inventory.PurchaseInput{
			Domain:       domain,
			ItemID:       itemID,
			SupplierID:   &supplier.ID,
			PurchaseDate: g.cfg.StartDate.AddDate(0, 0, 14*round),
			Quantity:     pack.Mul(packs),
			UnitCost:     cost.Mul(drift).Round(4),
		})
		if err != nil {
			return err
		}
		g.purchases++
	}
	return nil
}

func (g *Generator) generateRecipes(ctx context.Context) error {
	slog.Debug("generating recipes", "count", len(Recipes))
	for _, rs := range Recipes {
		input := catalog.CreateRecipeInput{
			Name:          rs.Name,
			Slug:          rs.Slug,
			YieldPerBatch: decimal.RequireFromString(rs.Yield),
			YieldUnit:     rs.YieldUnit,
		}
		for slug, qty := range rs.Ingredients {
			p, ok := g.products[slug]
			if !ok {
				return fmt.Errorf("recipe %s uses unknown product %s", rs.Slug, slug)
			}
			input.Ingredients = append(input.Ingredients, catalog.IngredientInput{
				ProductID: p.ID,
				Quantity:  decimal.RequireFromString(qty),
			})
		}

		recipe, err := g.catalog.CreateRecipe(ctx, input)
		if err != nil {
			return fmt.Errorf("creating recipe %s: %w", rs.Slug, err)
		}

		for _, us := range rs.Units {
			in := catalog.CreateFinishedUnitInput{
				DisplayName: us.Name,
				Slug:        us.Slug,
				RecipeID:    recipe.ID,
				YieldMode:   models.YieldDiscreteCount,
			}
			if us.Percentage != "" {
				pct := decimal.RequireFromString(us.Percentage)
				in.YieldMode = models.YieldBatchPortion
				in.BatchPercentage = &pct
			} else {
				n := decimal.RequireFromString(us.PerBatch)
				in.ItemsPerBatch = &n
			}

			fu, err := g.catalog.CreateFinishedUnit(ctx, in)
			if err != nil {
				return fmt.Errorf("creating finished unit %s: %w", us.Slug, err)
			}
			g.units[us.Slug] = fu
		}
	}
	return nil
}

func (g *Generator) generateGoods(ctx context.Context) error {
	slog.Debug("generating finished goods", "count", len(Goods))
	for _, gs := range Goods {
		input := catalog.CreateFinishedGoodInput{
			DisplayName:  gs.Name,
			Slug:         gs.Slug,
			AssemblyType: models.AssemblyType(gs.Type),
		}
		for _, cs := range gs.Components {
			c := catalog.ComponentInput{Quantity: decimal.RequireFromString(cs.Quantity)}
			switch {
			case cs.Unit != "":
				c.Kind, c.RefID = models.ComponentFinishedUnit, g.units[cs.Unit].ID
			case cs.Good != "":
				c.Kind, c.RefID = models.ComponentFinishedGood, g.goods[cs.Good].ID
			default:
				c.Kind, c.RefID = models.ComponentMaterialUnit, g.materialUnits[cs.MaterialUnit].ID
			}
			input.Components = append(input.Components, c)
		}

		fg, err := g.catalog.CreateFinishedGood(ctx, input)
		if err != nil {
			return fmt.Errorf("creating finished good %s: %w", gs.Slug, err)
		}
		g.goods[gs.Slug] = fg
	}
	return nil
}

func (g *Generator) generateEvent(ctx context.Context) error {
	e, err := g.planning.CreateEvent(ctx, planning.CreateEventInput{
		Name:      "Holiday Market",
		EventDate: g.cfg.StartDate.AddDate(0, 0, g.cfg.EventDays),
		Notes:     "Sample event",
	})
	if err != nil {
		return err
	}

	targets := []struct {
		slug string
		qty  int
	}{
		{"holiday_box", 12},
		{"cookie_sampler", 20},
		{"party_tray", 2},
	}
	for _, t := range targets {
		if _, err := g.planning.AddTarget(ctx, e.ID, g.goods[t.slug].ID, t.qty); err != nil {
			return fmt.Errorf("adding target %s: %w", t.slug, err)
		}
	}
	return nil
}
