package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bakeplan/bakeplan/internal/config"
	"github.com/bakeplan/bakeplan/internal/database"
	"github.com/bakeplan/bakeplan/internal/database/seed"
	"github.com/bakeplan/bakeplan/internal/services/catalog"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
	"github.com/bakeplan/bakeplan/internal/services/planning"
	"github.com/bakeplan/bakeplan/internal/services/production"
	"github.com/bakeplan/bakeplan/internal/util"
)

// testNow is the fixed date every TUI test runs at.
var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

// newTestDB creates a migrated in-memory database.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrator, err := database.NewMigrator(db)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	if _, err := migrator.MigrateUp(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return db
}

// newTestServices wires the domain services to db with a fixed clock.
func newTestServices(db *database.DB, cfg *config.Config, clock util.Clock) Services {
	inv := inventory.NewService(db.DB, inventory.LedgerConfig{
		Epsilon:    cfg.Inventory.Epsilon(),
		CostPlaces: cfg.Inventory.CostPlaces,
	})
	cat := catalog.NewService(db.DB)

	plan := planning.NewService(db.DB, cat, inv, cfg.Planning)
	plan.SetClock(clock)

	prod := production.NewService(db.DB, cat, inv)
	prod.SetClock(clock)

	return Services{Inventory: inv, Catalog: cat, Planning: plan, Production: prod}
}

func buildApp(t *testing.T, seeded bool) *App {
	t.Helper()

	db := newTestDB(t)
	cfg := config.Default()
	clock := util.FixedClock{T: testNow}
	svcs := newTestServices(db, cfg, clock)

	if seeded {
		gen := seed.NewGenerator(svcs.Inventory, svcs.Catalog, svcs.Planning, seed.DefaultConfig(testNow))
		if err := gen.Generate(context.Background()); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}

	return New(db, cfg, svcs, clock)
}

// newTestApp creates an App backed by an empty migrated in-memory database.
// The window is set to 120x40 and marked ready.
func newTestApp(t *testing.T) *App {
	t.Helper()

	app := buildApp(t, false)
	app.width = 120
	app.height = 40
	app.ready = true
	app.updateViewDimensions()

	return app
}

// newSeededApp is newTestApp with the sample bakery loaded.
func newSeededApp(t *testing.T) *App {
	t.Helper()

	app := buildApp(t, true)
	app.width = 120
	app.height = 40
	app.ready = true
	app.updateViewDimensions()

	return app
}

// execCmd runs a command synchronously and feeds its message back into the
// app, following any command the update returns.
func execCmd(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()

	for i := 0; cmd != nil && i < 5; i++ {
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = app.Update(msg)
	}
}

// press sends a key to the app and runs the resulting command.
func press(t *testing.T, app *App, msg tea.KeyMsg) {
	t.Helper()

	_, cmd := app.Update(msg)
	execCmd(t, app, cmd)
}

// typeText sends each rune of s as a key press.
func typeText(t *testing.T, app *App, s string) {
	t.Helper()

	for _, r := range s {
		press(t, app, keyMsg(string(r)))
	}
}

// keyMsg creates a tea.KeyMsg for a regular character key.
func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// specialKeyMsg creates a tea.KeyMsg for a special key type.
func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}
