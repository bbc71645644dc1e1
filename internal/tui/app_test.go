package tui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bakeplan/bakeplan/internal/models"
	planviews "github.com/bakeplan/bakeplan/internal/tui/views/planning"
	prodviews "github.com/bakeplan/bakeplan/internal/tui/views/production"
)

func TestApp_InitialState(t *testing.T) {
	app := newTestApp(t)

	if app.currentModule != ModuleDashboard {
		t.Errorf("expected initial module Dashboard, got %s", app.currentModule)
	}
	if !app.ready {
		t.Error("expected app to be ready")
	}
	if app.quitting {
		t.Error("expected app not to be quitting")
	}
	if app.showDetail {
		t.Error("expected no detail shown initially")
	}
	if app.activeForm != nil {
		t.Error("expected no form shown initially")
	}
}

func TestApp_View_NotReady(t *testing.T) {
	app := newTestApp(t)
	app.ready = false

	if !strings.Contains(app.View(), "Initializing") {
		t.Error("expected initialization message when not ready")
	}
}

func TestApp_View_Quitting(t *testing.T) {
	app := newTestApp(t)
	app.quitting = true

	if !strings.Contains(app.View(), "Goodbye") {
		t.Error("expected goodbye message when quitting")
	}
}

func TestApp_View_Dashboard(t *testing.T) {
	app := newTestApp(t)
	output := app.View()

	for _, want := range []string{"BAKEPLAN", "HOME BAKERY", "STOCK ON HAND", "UPCOMING EVENTS", "No upcoming events"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in dashboard output", want)
		}
	}
}

func TestApp_ModuleNavigation_FKeys(t *testing.T) {
	tests := []struct {
		key      tea.KeyType
		expected Module
	}{
		{tea.KeyF3, ModuleInventory},
		{tea.KeyF4, ModulePlanning},
		{tea.KeyF5, ModuleProduction},
		{tea.KeyF2, ModuleDashboard},
		{tea.KeyF1, ModuleHelp},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			app := newTestApp(t)
			press(t, app, specialKeyMsg(tt.key))

			if app.currentModule != tt.expected {
				t.Errorf("expected module %s, got %s", tt.expected, app.currentModule)
			}
			if len(app.alerts) != 0 {
				t.Errorf("unexpected alerts: %+v", app.alerts)
			}
		})
	}
}

func TestApp_ModuleNavigation_HelpKey(t *testing.T) {
	app := newTestApp(t)
	app.Update(keyMsg("?"))

	if app.currentModule != ModuleHelp {
		t.Errorf("expected Help module, got %s", app.currentModule)
	}
}

func TestApp_ModuleNavigation_ClearsDetail(t *testing.T) {
	app := newTestApp(t)
	app.showDetail = true

	app.Update(specialKeyMsg(tea.KeyF5))

	if app.showDetail {
		t.Error("expected detail to be cleared on module switch")
	}
}

func TestApp_QuitConfirmation(t *testing.T) {
	tests := []struct {
		name        string
		keys        []tea.KeyMsg
		wantConfirm bool
		wantQuit    bool
	}{
		{"q shows", []tea.KeyMsg{keyMsg("q")}, true, false},
		{"F10 shows", []tea.KeyMsg{specialKeyMsg(tea.KeyF10)}, true, false},
		{"n cancels", []tea.KeyMsg{keyMsg("q"), keyMsg("n")}, false, false},
		{"esc cancels", []tea.KeyMsg{keyMsg("q"), specialKeyMsg(tea.KeyEscape)}, false, false},
		{"other keys ignored", []tea.KeyMsg{keyMsg("q"), keyMsg("x")}, true, false},
		{"y quits", []tea.KeyMsg{keyMsg("q"), keyMsg("y")}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			var cmd tea.Cmd
			for _, k := range tt.keys {
				_, cmd = app.Update(k)
			}

			if app.showConfirm != tt.wantConfirm {
				t.Errorf("showConfirm = %v, want %v", app.showConfirm, tt.wantConfirm)
			}
			if app.quitting != tt.wantQuit {
				t.Errorf("quitting = %v, want %v", app.quitting, tt.wantQuit)
			}
			if tt.wantQuit && cmd == nil {
				t.Error("expected tea.Quit command")
			}
		})
	}
}

func TestApp_ConfirmDialog_Render(t *testing.T) {
	app := newTestApp(t)
	app.showConfirm = true

	if !strings.Contains(app.View(), "CONFIRM EXIT") {
		t.Error("expected confirm dialog in output")
	}
}

func TestApp_WindowResize(t *testing.T) {
	app := newTestApp(t)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	if app.width != 80 || app.height != 24 {
		t.Errorf("expected 80x24, got %dx%d", app.width, app.height)
	}
	if !app.ready {
		t.Error("expected app ready after window size")
	}
}

func TestApp_BackNavigation_HelpToOriginal(t *testing.T) {
	app := newTestApp(t)
	press(t, app, specialKeyMsg(tea.KeyF4))
	press(t, app, specialKeyMsg(tea.KeyF1))

	if app.previousModule != ModulePlanning {
		t.Errorf("expected previous module planning, got %s", app.previousModule)
	}

	app.Update(specialKeyMsg(tea.KeyEscape))
	if app.currentModule != ModulePlanning {
		t.Errorf("expected return to planning, got %s", app.currentModule)
	}
}

func TestApp_BackNavigation_DetailToList(t *testing.T) {
	app := newTestApp(t)
	press(t, app, specialKeyMsg(tea.KeyF3))
	app.showDetail = true

	app.Update(specialKeyMsg(tea.KeyEscape))
	if app.showDetail {
		t.Error("expected detail to be hidden after back")
	}
	if app.currentModule != ModuleInventory {
		t.Errorf("expected to stay in inventory, got %s", app.currentModule)
	}
}

func TestApp_AlertManagement(t *testing.T) {
	app := newTestApp(t)

	app.AddAlert(AlertInfo, "Test info")
	app.AddAlert(AlertWarning, "Test warning")
	app.AddAlert(AlertCritical, "Test critical")

	if len(app.alerts) != 3 {
		t.Errorf("expected 3 alerts, got %d", len(app.alerts))
	}
	if app.alerts[0].Message != "Test critical" {
		t.Errorf("expected newest alert first, got %q", app.alerts[0].Message)
	}
	if !app.alerts[0].Time.Equal(testNow) {
		t.Errorf("expected alert stamped with the app clock, got %v", app.alerts[0].Time)
	}
	if !strings.Contains(app.View(), "CRITICAL: Test critical") {
		t.Error("expected critical alert in view output")
	}

	app.ClearAlerts()
	if len(app.alerts) != 0 {
		t.Errorf("expected 0 alerts after clear, got %d", len(app.alerts))
	}
}

func TestApp_AlertLimit(t *testing.T) {
	app := newTestApp(t)

	for i := 0; i < 15; i++ {
		app.AddAlert(AlertInfo, fmt.Sprintf("Alert %d", i))
	}

	if len(app.alerts) != 10 {
		t.Errorf("expected max 10 alerts, got %d", len(app.alerts))
	}
}

func TestApp_AlertBar(t *testing.T) {
	app := newTestApp(t)

	output := app.renderAlertBar()
	if !strings.Contains(output, "Ovens ready") {
		t.Error("expected idle message with no alerts")
	}
	if !strings.Contains(output, "Oct 17, 2026") {
		t.Errorf("expected configured date format, got %q", output)
	}

	app.AddAlert(AlertWarning, "not enough stock for Party Tray\n  butter: need 2, have 1")
	output = app.renderAlertBar()
	if !strings.Contains(output, "WARNING: not enough stock for Party Tray") {
		t.Errorf("expected first line of alert, got %q", output)
	}
	if strings.Contains(output, "butter") {
		t.Error("alert bar should only show the first line")
	}
}

func TestApp_AlertBarRotation(t *testing.T) {
	app := newTestApp(t)
	app.AddAlert(AlertInfo, "First")
	app.AddAlert(AlertInfo, "Second")

	if app.alertIndex != 0 {
		t.Errorf("expected alertIndex 0, got %d", app.alertIndex)
	}

	for i := 0; i < 3; i++ {
		app.Update(tickMsg(time.Now()))
	}

	if app.alertIndex == 0 {
		t.Error("expected alert to rotate after 3 ticks")
	}
	if !strings.Contains(app.renderAlertBar(), "First") {
		t.Error("expected the older alert after rotation")
	}
}

func TestApp_TickMessage(t *testing.T) {
	app := newTestApp(t)
	_, cmd := app.Update(tickMsg(time.Now()))

	if cmd == nil {
		t.Error("expected tick to return a new command")
	}
}

func TestApp_LoadErrors(t *testing.T) {
	msgs := []tea.Msg{
		stockLoadedMsg{err: fmt.Errorf("boom")},
		lotsLoadedMsg{err: fmt.Errorf("boom")},
		eventsLoadedMsg{err: fmt.Errorf("boom")},
		planLoadedMsg{err: fmt.Errorf("boom")},
		runsLoadedMsg{err: fmt.Errorf("boom")},
		dashboardLoadedMsg{err: fmt.Errorf("boom")},
		formOptionsMsg{err: fmt.Errorf("boom")},
	}

	for _, msg := range msgs {
		t.Run(fmt.Sprintf("%T", msg), func(t *testing.T) {
			app := newTestApp(t)
			app.Update(msg)

			if len(app.alerts) == 0 {
				t.Error("expected alert on load error")
			}
			if app.showDetail {
				t.Error("failed load should not open a detail view")
			}
		})
	}
}

func TestApp_ModuleRendering(t *testing.T) {
	tests := []struct {
		module   Module
		contains string
	}{
		{ModuleDashboard, "STOCK ON HAND"},
		{ModuleInventory, "INGREDIENTS ON HAND"},
		{ModulePlanning, "EVENTS"},
		{ModuleProduction, "PRODUCTION"},
		{ModuleHelp, "HELP"},
	}

	for _, tt := range tests {
		t.Run(string(tt.module), func(t *testing.T) {
			app := newTestApp(t)
			app.currentModule = tt.module

			if !strings.Contains(app.View(), tt.contains) {
				t.Errorf("expected %q in %s module output", tt.contains, tt.module)
			}
		})
	}
}

func TestApp_ResponsiveFooter(t *testing.T) {
	app := newTestApp(t)

	output := app.renderFooter()
	if !strings.Contains(output, "[F1]Help") || !strings.Contains(output, "[F10]Quit") {
		t.Errorf("expected full key bindings, got %q", output)
	}

	app.width = 50
	output = app.renderFooter()
	if !strings.Contains(output, "F3 Inv") {
		t.Errorf("expected compact key bindings, got %q", output)
	}
}

func TestApp_Dashboard_Seeded(t *testing.T) {
	app := newSeededApp(t)
	execCmd(t, app, app.loadDashboard())

	if app.dashboard.ingredients.items == 0 || app.dashboard.materials.items == 0 {
		t.Fatalf("expected stock in both domains, got %+v", app.dashboard)
	}
	if len(app.dashboard.upcoming) != 1 {
		t.Fatalf("expected the sample event upcoming, got %d", len(app.dashboard.upcoming))
	}
	if app.dashboard.atRisk() != 1 {
		t.Errorf("expected the sample event at risk before any batches are decided")
	}
	if len(app.alerts) != 1 {
		t.Errorf("expected one at-risk alert, got %d", len(app.alerts))
	}

	output := app.renderDashboard(MaxContentWidth)
	for _, want := range []string{"Ingredients", "Packaging", "USD", "Holiday Market", "in 2 weeks", "0/3", "Nothing baked yet", "Schema"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in dashboard:\n%s", want, output)
		}
	}

	// Reloading with the same risk does not repeat the alert
	execCmd(t, app, app.loadDashboard())
	if len(app.alerts) != 1 {
		t.Errorf("expected the at-risk alert once, got %d", len(app.alerts))
	}
}

func TestApp_DashboardNarrow(t *testing.T) {
	app := newTestApp(t)
	app.width = 50

	output := app.renderDashboard(50)
	if !strings.Contains(output, "STOCK ON HAND") || !strings.Contains(output, "RECENT RUNS") {
		t.Error("expected panels stacked on a narrow terminal")
	}
}

func TestApp_InventoryFlow(t *testing.T) {
	app := newSeededApp(t)

	press(t, app, specialKeyMsg(tea.KeyF3))
	output := app.View()
	if !strings.Contains(output, "All-Purpose Flour") {
		t.Fatalf("expected ingredient stock, got:\n%s", output)
	}

	press(t, app, specialKeyMsg(tea.KeyEnter))
	if !app.showDetail {
		t.Fatal("expected lot detail after enter")
	}
	output = app.View()
	if !strings.Contains(output, "ALL-PURPOSE FLOUR") || !strings.Contains(output, "LOTS") {
		t.Errorf("expected lot detail, got:\n%s", output)
	}

	app.Update(specialKeyMsg(tea.KeyEscape))
	press(t, app, keyMsg("d"))
	if app.stockView.Domain() != models.DomainMaterial {
		t.Fatalf("expected material domain, got %s", app.stockView.Domain())
	}
	output = app.View()
	if !strings.Contains(output, "MATERIALS ON HAND") || !strings.Contains(output, "Kraft Gift Box") {
		t.Errorf("expected material stock, got:\n%s", output)
	}
}

func TestApp_PlanningFlow(t *testing.T) {
	app := newSeededApp(t)

	press(t, app, specialKeyMsg(tea.KeyF4))
	if !strings.Contains(app.View(), "Holiday Market") {
		t.Fatal("expected the sample event in the list")
	}

	press(t, app, specialKeyMsg(tea.KeyEnter))
	if !app.showDetail {
		t.Fatal("expected plan detail after enter")
	}
	output := app.View()
	for _, want := range []string{"HOLIDAY MARKET", "BATCHES", "Chocolate Chip Cookies", "INGREDIENTS", "PACKAGING", "✗ Holiday Gift Box"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in plan:\n%s", want, output)
		}
	}

	press(t, app, keyMsg("a"))
	if !hasAlert(app, "Recorded ") {
		t.Errorf("expected accept confirmation, got %+v", app.alerts)
	}
	for _, f := range app.eventsView.Plan().Feasibility {
		if !f.CanAssemble {
			t.Errorf("%s should be feasible after accepting the plan", f.FinishedGoodName)
		}
	}
	if app.dashboard.atRisk() != 0 {
		t.Errorf("expected no events at risk after accepting, got %d", app.dashboard.atRisk())
	}
}

func TestApp_PlanningTargetForm(t *testing.T) {
	app := newSeededApp(t)

	press(t, app, specialKeyMsg(tea.KeyF4))
	press(t, app, specialKeyMsg(tea.KeyEnter))
	press(t, app, keyMsg("t"))

	if _, ok := app.activeForm.(*planviews.TargetForm); !ok {
		t.Fatalf("expected target form, got %T", app.activeForm)
	}
	if !strings.Contains(app.View(), "TARGET FOR HOLIDAY MARKET") {
		t.Error("expected target form title")
	}

	// First good is the sampler bag; raise it from 20 to 30
	press(t, app, specialKeyMsg(tea.KeyTab))
	typeText(t, app, "30")
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.activeForm != nil {
		t.Fatalf("expected form closed after save, got %T", app.activeForm)
	}
	found := false
	for _, target := range app.eventsView.Plan().Event.Targets {
		if target.FinishedGood.DisplayName == "Cookie Sampler Bag" {
			found = true
			if target.Quantity != 30 {
				t.Errorf("expected 30 sampler bags, got %d", target.Quantity)
			}
		}
	}
	if !found {
		t.Error("expected sampler bag target")
	}
}

func TestApp_NewEventForm(t *testing.T) {
	app := newTestApp(t)
	press(t, app, specialKeyMsg(tea.KeyF4))

	press(t, app, keyMsg("n"))
	form, ok := app.activeForm.(*planviews.EventForm)
	if !ok {
		t.Fatalf("expected event form, got %T", app.activeForm)
	}
	if !strings.Contains(app.View(), "2026-10-31") {
		t.Error("expected the default date two weeks out")
	}

	// Global keys go to the form while it is open
	press(t, app, keyMsg("q"))
	if app.showConfirm {
		t.Error("q should be typed into the form, not quit")
	}
	press(t, app, specialKeyMsg(tea.KeyBackspace))

	// Empty name is rejected and the form stays open
	press(t, app, specialKeyMsg(tea.KeyCtrlS))
	if app.activeForm != form {
		t.Fatal("expected form to stay open on validation error")
	}
	if !strings.Contains(app.View(), "name is required") {
		t.Error("expected validation error in form")
	}

	typeText(t, app, "Bake Sale")
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.activeForm != nil {
		t.Fatal("expected form closed after save")
	}
	if app.alerts[0].Message != "Event created: Bake Sale" {
		t.Errorf("unexpected alert %q", app.alerts[0].Message)
	}
	if sel := app.eventsView.Selected(); sel == nil || sel.Name != "Bake Sale" {
		t.Errorf("expected new event selected, got %+v", sel)
	}
}

func TestApp_FormMode_Cancel(t *testing.T) {
	app := newTestApp(t)
	press(t, app, specialKeyMsg(tea.KeyF4))

	press(t, app, keyMsg("n"))
	if app.activeForm == nil {
		t.Fatal("expected form to be shown")
	}

	app.Update(specialKeyMsg(tea.KeyEscape))
	if app.activeForm != nil {
		t.Error("expected form to be hidden after cancel")
	}
}

func TestApp_ProductionFlow(t *testing.T) {
	app := newSeededApp(t)
	press(t, app, specialKeyMsg(tea.KeyF5))
	if !strings.Contains(app.View(), "Nothing baked yet") {
		t.Error("expected empty history")
	}

	press(t, app, keyMsg("p"))
	if _, ok := app.activeForm.(*prodviews.ProductionForm); !ok {
		t.Fatalf("expected production form, got %T", app.activeForm)
	}
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.activeForm != nil {
		t.Fatalf("expected form closed after a successful bake:\n%s", app.View())
	}
	if !hasAlert(app, "Baked 16 (1 batches)") {
		t.Errorf("expected bake confirmation, got %+v", app.alerts)
	}
	if len(app.runsView.Runs()) != 1 {
		t.Errorf("expected 1 run in history, got %d", len(app.runsView.Runs()))
	}
	if !strings.Contains(app.View(), "Brownie Square") {
		t.Error("expected the bake in the history")
	}
}

func TestApp_AssemblyShortfall(t *testing.T) {
	app := newSeededApp(t)
	press(t, app, specialKeyMsg(tea.KeyF5))

	press(t, app, keyMsg("a"))
	if _, ok := app.activeForm.(*prodviews.AssemblyForm); !ok {
		t.Fatalf("expected assembly form, got %T", app.activeForm)
	}
	press(t, app, specialKeyMsg(tea.KeyCtrlS))

	if app.activeForm == nil {
		t.Fatal("expected form to stay open when stock is short")
	}
	output := app.View()
	if !strings.Contains(output, "not enough stock for assembly of Cookie Sampler Bag") {
		t.Errorf("expected shortfall in form:\n%s", output)
	}
	if !strings.Contains(output, "Chocolate Chip Cookie: need 3, have 0") {
		t.Errorf("expected unit shortfall line:\n%s", output)
	}
	if len(app.runsView.Runs()) != 0 {
		t.Error("refused assembly should not be recorded")
	}
}

// hasAlert reports whether any alert starts with prefix.
func hasAlert(app *App, prefix string) bool {
	for _, a := range app.alerts {
		if strings.HasPrefix(a.Message, prefix) {
			return true
		}
	}
	return false
}
