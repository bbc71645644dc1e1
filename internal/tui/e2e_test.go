package tui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
)

// newE2EApp creates an App for end-to-end testing via teatest.
// Unlike newTestApp, this does NOT pre-configure width/height/ready
// since teatest sends WindowSizeMsg via WithInitialTermSize.
func newE2EApp(t *testing.T, seeded bool) *App {
	t.Helper()
	return buildApp(t, seeded)
}

// waitFor is a convenience wrapper around teatest.WaitFor with a standard timeout.
func waitFor(t *testing.T, tm *teatest.TestModel, text string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte(text))
	}, teatest.WithDuration(5*time.Second))
}

// waitForAll waits until every text appears in the same output chunk.
func waitForAll(t *testing.T, tm *teatest.TestModel, texts ...string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		for _, text := range texts {
			if !bytes.Contains(bts, []byte(text)) {
				return false
			}
		}
		return true
	}, teatest.WithDuration(5*time.Second))
}

// --- End-to-end tests ---
// These launch the real Bubble Tea program in a headless virtual terminal,
// send actual keystrokes, and assert on the rendered screen output.

func TestE2E_DashboardOnStartup(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitForAll(t, tm, "HOME BAKERY", "STOCK ON HAND", "UPCOMING EVENTS", "RECENT RUNS")
}

func TestE2E_NavigateToInventory(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "HOME BAKERY")

	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitForAll(t, tm, "INGREDIENTS ON HAND", "No stock on hand.")
}

func TestE2E_NavigateToPlanning(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF4})
	waitForAll(t, tm, "EVENTS", "No events planned")
}

func TestE2E_NavigateToProduction(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF5})
	waitForAll(t, tm, "PRODUCTION", "Nothing baked yet.")
}

func TestE2E_HelpScreenAndBack(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "HOME BAKERY")

	// F1 → Help
	tm.Send(tea.KeyMsg{Type: tea.KeyF1})
	waitFor(t, tm, "HELP")

	// Esc → Back to dashboard
	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
	waitFor(t, tm, "STOCK ON HAND")
}

func TestE2E_QuitFlow(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))

	waitFor(t, tm, "HOME BAKERY")

	// Press q → confirm dialog
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	waitFor(t, tm, "CONFIRM EXIT")

	// Press y → quit
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})

	// Program should terminate; verify final model state
	m := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
	app, ok := m.(*App)
	if !ok {
		t.Fatal("expected *App final model")
	}
	if !app.quitting {
		t.Error("expected app to be quitting")
	}
}

func TestE2E_QuitCancel(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "HOME BAKERY")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	waitFor(t, tm, "CONFIRM EXIT")

	// Press n → cancel
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})

	// Verify app is still responsive by navigating to another module
	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitFor(t, tm, "INGREDIENTS ON HAND")
}

func TestE2E_SeededInventoryLots(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, true),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitForAll(t, tm, "All-Purpose Flour", "Total value:")

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitForAll(t, tm, "ALL-PURPOSE FLOUR", "consumed top to bottom")

	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	waitForAll(t, tm, "MATERIALS ON HAND", "Cellophane Bag")
}

func TestE2E_SeededEventPlan(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, true),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF4})
	waitFor(t, tm, "Holiday Market")

	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitForAll(t, tm, "BATCHES", "FEASIBILITY")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
	waitFor(t, tm, "batch decision(s)")
}

func TestE2E_NewEventForm(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF4})
	waitFor(t, tm, "No events planned")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	waitFor(t, tm, "NEW EVENT")

	tm.Type("Farmers Market")
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlS})
	waitFor(t, tm, "Event created: Farmers Market")
}

func TestE2E_FormCancel(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF4})
	waitFor(t, tm, "No events planned")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	waitFor(t, tm, "NEW EVENT")

	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})

	tm.Send(tea.KeyMsg{Type: tea.KeyF2})
	waitFor(t, tm, "STOCK ON HAND")
}

func TestE2E_RecordBake(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, true),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	tm.Send(tea.KeyMsg{Type: tea.KeyF5})
	waitFor(t, tm, "Nothing baked yet.")

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	waitFor(t, tm, "RECORD BAKE")

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlS})
	waitFor(t, tm, "Brownie Square")
}

func TestE2E_FullNavigationRoundTrip(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "HOME BAKERY")

	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitFor(t, tm, "INGREDIENTS ON HAND")

	tm.Send(tea.KeyMsg{Type: tea.KeyF4})
	waitFor(t, tm, "=== EVENTS ===")

	tm.Send(tea.KeyMsg{Type: tea.KeyF5})
	waitFor(t, tm, "=== PRODUCTION ===")

	tm.Send(tea.KeyMsg{Type: tea.KeyF1})
	waitFor(t, tm, "HELP")

	// Esc → Back to production
	tm.Send(tea.KeyMsg{Type: tea.KeyEscape})
	waitFor(t, tm, "=== PRODUCTION ===")

	tm.Send(tea.KeyMsg{Type: tea.KeyF2})
	waitFor(t, tm, "STOCK ON HAND")
}

func TestE2E_NarrowTerminal(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(50, 24))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "HOME BAKERY")

	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitForAll(t, tm, "INGREDIENTS ON HAND", "F3 Inv")
}

func TestE2E_WideTerminal(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(200, 50))
	t.Cleanup(func() { tm.Quit() })

	waitFor(t, tm, "HOME BAKERY")

	tm.Send(tea.KeyMsg{Type: tea.KeyF3})
	waitFor(t, tm, "INGREDIENTS ON HAND")
}

func TestE2E_StatusBarShowsKeyBindings(t *testing.T) {
	tm := teatest.NewTestModel(t, newE2EApp(t, false),
		teatest.WithInitialTermSize(120, 40))
	t.Cleanup(func() { tm.Quit() })

	waitForAll(t, tm, "[F1]Help", "[F3]Inventory", "[F5]Production")
}
