package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bakeplan/bakeplan/internal/config"
	"github.com/bakeplan/bakeplan/internal/database"
	"github.com/bakeplan/bakeplan/internal/services/catalog"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
	"github.com/bakeplan/bakeplan/internal/services/planning"
	"github.com/bakeplan/bakeplan/internal/services/production"
	invviews "github.com/bakeplan/bakeplan/internal/tui/views/inventory"
	planviews "github.com/bakeplan/bakeplan/internal/tui/views/planning"
	prodviews "github.com/bakeplan/bakeplan/internal/tui/views/production"
	"github.com/bakeplan/bakeplan/internal/util"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 120

// chromeLines is the height of header, alert bar and footer.
const chromeLines = 6

// Module represents a view module in the application.
type Module string

const (
	ModuleDashboard  Module = "dashboard"
	ModuleInventory  Module = "inventory"
	ModulePlanning   Module = "planning"
	ModuleProduction Module = "production"
	ModuleHelp       Module = "help"
)

// Services are the domain services the TUI drives.
type Services struct {
	Inventory  *inventory.Service
	Catalog    *catalog.Service
	Planning   *planning.Service
	Production *production.Service
}

// form is the part of a data entry form the app drives.
type form interface {
	HandleKey(key string)
	IsSubmitted() bool
	IsCancelled() bool
	Reopen(err string)
	RenderResponsive(width int) string
}

// App is the main Bubble Tea application model.
type App struct {
	// Dependencies
	db     *database.DB
	config *config.Config
	clock  util.Clock
	svcs   Services

	// Views
	stockView  *invviews.StockView
	eventsView *planviews.EventsView
	runsView   *prodviews.RunsView
	activeForm form

	// UI state
	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool

	// Current view
	currentModule  Module
	previousModule Module
	showDetail     bool // Show detail view instead of list

	// Alerts
	alerts     []Alert
	alertIndex int
	tickCount  int

	dashboard dashboardData
}

// Alert represents a status message.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

// tickMsg is sent periodically to update the UI.
type tickMsg time.Time

// New creates a new App instance.
func New(db *database.DB, cfg *config.Config, svcs Services, clock util.Clock) *App {
	now := clock.Now()

	stockView := invviews.NewStockView(svcs.Inventory)
	stockView.SetNow(now)

	eventsView := planviews.NewEventsView(svcs.Planning)
	eventsView.SetNow(now)
	eventsView.SetWasteWarning(cfg.Planning.WasteWarnPercent)

	return &App{
		db:            db,
		config:        cfg,
		clock:         clock,
		svcs:          svcs,
		stockView:     stockView,
		eventsView:    eventsView,
		runsView:      prodviews.NewRunsView(svcs.Production),
		theme:         NewTheme(cfg.Display.Theme),
		keys:          DefaultKeyMap(),
		currentModule: ModuleDashboard,
		alerts:        []Alert{},
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
		a.loadDashboard(),
	)
}

// tickCmd returns a command that sends tick messages.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

type stockLoadedMsg struct {
	err error
}

type lotsLoadedMsg struct {
	err error
}

type eventsLoadedMsg struct {
	err error
}

type planLoadedMsg struct {
	err error
}

type runsLoadedMsg struct {
	err error
}

type savedMsg struct {
	message string
	err     error
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.updateViewDimensions()
		return a, nil

	case tickMsg:
		now := a.clock.Now()
		a.stockView.SetNow(now)
		a.eventsView.SetNow(now)

		// Rotate alerts every 3 ticks
		a.tickCount++
		if a.tickCount%3 == 0 && len(a.alerts) > 1 {
			a.alertIndex = (a.alertIndex + 1) % len(a.alerts)
		}
		return a, tickCmd()

	case dashboardLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load dashboard: "+msg.err.Error())
			return a, nil
		}
		if n := msg.data.atRisk(); n > 0 && n != a.dashboard.atRisk() {
			a.AddAlert(AlertWarning, fmt.Sprintf("%d upcoming event(s) need more baking", n))
		}
		a.dashboard = msg.data
		return a, nil

	case stockLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load stock: "+msg.err.Error())
		}
		return a, nil

	case lotsLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load lots: "+msg.err.Error())
			return a, nil
		}
		a.showDetail = true
		return a, nil

	case eventsLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load events: "+msg.err.Error())
		}
		return a, nil

	case planLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to plan event: "+msg.err.Error())
			return a, nil
		}
		a.showDetail = true
		return a, nil

	case runsLoadedMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to load runs: "+msg.err.Error())
		}
		return a, nil

	case formOptionsMsg:
		if msg.err != nil {
			a.AddAlert(AlertWarning, "Failed to open form: "+msg.err.Error())
			return a, nil
		}
		a.activeForm = msg.build()
		return a, nil

	case savedMsg:
		if msg.err != nil {
			if a.activeForm != nil {
				a.activeForm.Reopen(prodviews.ErrorMessage(msg.err))
				return a, nil
			}
			a.AddAlert(AlertWarning, prodviews.ErrorMessage(msg.err))
			return a, nil
		}
		a.activeForm = nil
		a.AddAlert(AlertInfo, msg.message)
		return a, a.loadDashboard()
	}

	return a, nil
}

// updateViewDimensions sizes the view tables to the terminal.
func (a *App) updateViewDimensions() {
	rows := max(ContentHeight(a.height, chromeLines)-8, 3)
	a.stockView.SetVisibleRows(rows)
	a.eventsView.SetVisibleRows(rows)
	a.runsView.SetVisibleRows(rows)
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle quit confirmation first (modal takes priority)
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.quitting = true
			return a, tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
			return a, nil
		}
		return a, nil
	}

	// Forms take every key before the global bindings
	if a.activeForm != nil {
		return a.handleFormKeys(msg)
	}

	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return a, nil
	}

	if module := a.keys.ModuleFor(msg); module != "" {
		return a, a.switchModule(module)
	}

	if a.keys.Back.Matches(msg) {
		if a.showDetail {
			a.showDetail = false
			return a, nil
		}
		if a.currentModule == ModuleHelp && a.previousModule != "" {
			a.currentModule = a.previousModule
			a.previousModule = ""
		}
		return a, nil
	}

	switch a.currentModule {
	case ModuleInventory:
		return a.handleInventoryKeys(msg)
	case ModulePlanning:
		return a.handlePlanningKeys(msg)
	case ModuleProduction:
		return a.handleProductionKeys(msg)
	}

	return a, nil
}

// switchModule changes the current module and loads its data.
func (a *App) switchModule(module Module) tea.Cmd {
	if module == ModuleHelp {
		if a.currentModule != ModuleHelp {
			a.previousModule = a.currentModule
		}
		a.currentModule = ModuleHelp
		return nil
	}

	a.currentModule = module
	a.showDetail = false

	switch module {
	case ModuleDashboard:
		return a.loadDashboard()
	case ModuleInventory:
		return a.loadStock()
	case ModulePlanning:
		return a.loadEvents()
	case ModuleProduction:
		return a.loadRuns()
	}
	return nil
}

// handleInventoryKeys handles key presses in the inventory module.
func (a *App) handleInventoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showDetail {
		return a, nil
	}

	switch {
	case a.keys.Up.Matches(msg):
		a.stockView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.stockView.MoveDown()
	case a.keys.Select.Matches(msg):
		if a.stockView.Selected() != nil {
			return a, a.loadLots()
		}
	case msg.String() == "d":
		a.stockView.ToggleDomain()
		return a, a.loadStock()
	case msg.String() == "r":
		return a, a.loadStock()
	}

	return a, nil
}

// handlePlanningKeys handles key presses in the planning module.
func (a *App) handlePlanningKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showDetail {
		switch msg.String() {
		case "a":
			return a, a.acceptPlan()
		case "t":
			return a, a.openTargetForm()
		case "r":
			return a, a.loadPlan()
		}
		return a, nil
	}

	switch {
	case a.keys.Up.Matches(msg):
		a.eventsView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.eventsView.MoveDown()
	case a.keys.Select.Matches(msg):
		if a.eventsView.Selected() != nil {
			return a, a.loadPlan()
		}
	case msg.String() == "n":
		defaultDate := a.clock.Now().AddDate(0, 0, a.config.Planning.DefaultEventDays)
		a.activeForm = planviews.NewEventForm(defaultDate)
	}

	return a, nil
}

// handleProductionKeys handles key presses in the production module.
func (a *App) handleProductionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case a.keys.Up.Matches(msg):
		a.runsView.MoveUp()
	case a.keys.Down.Matches(msg):
		a.runsView.MoveDown()
	case msg.String() == "p":
		return a, a.openProductionForm()
	case msg.String() == "a":
		return a, a.openAssemblyForm()
	}

	return a, nil
}

// handleFormKeys handles key presses in form mode.
func (a *App) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.activeForm.HandleKey(msg.String())

	if a.activeForm.IsCancelled() {
		a.activeForm = nil
		return a, nil
	}

	if a.activeForm.IsSubmitted() {
		return a, a.submitForm()
	}

	return a, nil
}

// submitForm validates the active form and saves it. Validation errors
// reopen the form so they can be corrected.
func (a *App) submitForm() tea.Cmd {
	ctx := context.Background()

	switch f := a.activeForm.(type) {
	case *planviews.EventForm:
		input, err := f.Input()
		if err != nil {
			f.Reopen(err.Error())
			return nil
		}
		return func() tea.Msg {
			event, err := a.eventsView.CreateEvent(ctx, input)
			if err != nil {
				return savedMsg{err: err}
			}
			return savedMsg{message: "Event created: " + event.Name}
		}

	case *planviews.TargetForm:
		goodID, qty, err := f.Target()
		if err != nil {
			f.Reopen(err.Error())
			return nil
		}
		return func() tea.Msg {
			if err := a.eventsView.SetTarget(ctx, goodID, qty); err != nil {
				return savedMsg{err: err}
			}
			return savedMsg{message: "Target saved"}
		}

	case *prodviews.ProductionForm:
		input, err := f.Input()
		if err != nil {
			f.Reopen(err.Error())
			return nil
		}
		return func() tea.Msg {
			run, err := a.runsView.RecordProduction(ctx, input)
			if err != nil {
				return savedMsg{err: err}
			}
			return savedMsg{message: fmt.Sprintf("Baked %d (%d batches), ingredients $%s",
				run.ActualYield, run.Batches, run.TotalIngredientCost.StringFixed(2))}
		}

	case *prodviews.AssemblyForm:
		input, err := f.Input()
		if err != nil {
			f.Reopen(err.Error())
			return nil
		}
		return func() tea.Msg {
			run, err := a.runsView.RecordAssembly(ctx, input)
			if err != nil {
				return savedMsg{err: err}
			}
			return savedMsg{message: fmt.Sprintf("Assembled %d, packaging $%s",
				run.Quantity, run.TotalMaterialCost.StringFixed(2))}
		}
	}

	a.activeForm = nil
	return nil
}

// acceptPlan commits the planned batches of the selected event.
func (a *App) acceptPlan() tea.Cmd {
	return func() tea.Msg {
		n, err := a.eventsView.AcceptPlan(context.Background())
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{message: fmt.Sprintf("Recorded %d batch decision(s)", n)}
	}
}

// loadStock loads the stock summaries.
func (a *App) loadStock() tea.Cmd {
	return func() tea.Msg {
		err := a.stockView.Load(context.Background())
		return stockLoadedMsg{err: err}
	}
}

// loadLots loads the lots of the selected item.
func (a *App) loadLots() tea.Cmd {
	return func() tea.Msg {
		err := a.stockView.LoadLots(context.Background())
		return lotsLoadedMsg{err: err}
	}
}

// loadEvents loads the event list.
func (a *App) loadEvents() tea.Cmd {
	return func() tea.Msg {
		err := a.eventsView.Load(context.Background())
		return eventsLoadedMsg{err: err}
	}
}

// loadPlan plans the selected event.
func (a *App) loadPlan() tea.Cmd {
	return func() tea.Msg {
		err := a.eventsView.LoadPlan(context.Background())
		return planLoadedMsg{err: err}
	}
}

// loadRuns loads the run history.
func (a *App) loadRuns() tea.Cmd {
	return func() tea.Msg {
		err := a.runsView.Load(context.Background())
		return runsLoadedMsg{err: err}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("Closing the bakery. Goodbye.")
	}

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	contentHeight := ContentHeight(a.height, chromeLines)
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// renderHeader renders the top header bar.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("BAKEPLAN v%s", Version)
	info := a.config.Business.Name

	spacing := max(a.width-lipgloss.Width(title)-lipgloss.Width(info)-4, 1)

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

// renderAlertBar renders the date and the newest alert.
func (a *App) renderAlertBar() string {
	dateStr := a.clock.Now().Format(a.config.Display.DateFormat)

	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[a.alertIndex%len(a.alerts)]
		message := strings.SplitN(alert.Message, "\n", 2)[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("CRITICAL: " + message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("WARNING: " + message)
		default:
			alertText = a.theme.Alert.Render(message)
		}
	} else {
		alertText = a.theme.Muted.Render("Ovens ready")
	}

	return a.theme.Value.Render(dateStr) + a.theme.StatusDivider.Render() + alertText
}

// renderContent renders the main content area based on current module.
func (a *App) renderContent(height int) string {
	contentWidth := ContentWidth(a.width, 0, MaxContentWidth)
	content := a.getModuleContent(contentWidth)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	contentStyle := lipgloss.NewStyle().
		Width(contentWidth)

	return style.Render(contentStyle.Render(content))
}

// getModuleContent returns the content for the current module.
func (a *App) getModuleContent(width int) string {
	if a.activeForm != nil {
		return a.activeForm.RenderResponsive(width)
	}

	height := ContentHeight(a.height, chromeLines)
	switch a.currentModule {
	case ModuleInventory:
		if a.showDetail {
			return a.stockView.RenderDetail(width)
		}
		return a.stockView.Render(width, height)
	case ModulePlanning:
		if a.showDetail {
			return a.eventsView.RenderDetail(width)
		}
		return a.eventsView.Render(width, height)
	case ModuleProduction:
		return a.runsView.Render(width, height)
	case ModuleHelp:
		return a.renderHelp()
	default:
		return a.renderDashboard(width)
	}
}

// renderHelp renders the help screen.
func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ HELP ═══"))
	b.WriteString("\n\n")

	sections := []struct {
		title string
		items [][2]string
	}{
		{"NAVIGATION", [][2]string{
			{"F1 / ?", "Help"},
			{"F2", "Dashboard"},
			{"F3", "Inventory lots"},
			{"F4", "Event planning"},
			{"F5", "Production runs"},
			{"F10 / q", "Quit"},
		}},
		{"CONTROLS", [][2]string{
			{"Up/Down", "Navigate"},
			{"Enter", "Select"},
			{"Esc", "Back/Cancel"},
			{"Tab", "Next field"},
			{"Ctrl+S", "Save form"},
		}},
		{"ACTIONS", [][2]string{
			{"d", "Inventory: switch ingredients/materials"},
			{"n", "Planning: new event"},
			{"t", "Plan: set a target"},
			{"a", "Plan: accept batches / Production: assemble"},
			{"p", "Production: record a bake"},
		}},
	}

	for _, sec := range sections {
		b.WriteString(a.theme.Subtitle.Render(sec.title))
		b.WriteString("\n\n")
		for _, item := range sec.items {
			b.WriteString(a.theme.Primary.Render(fmt.Sprintf("    %-9s  %s", item[0], item[1])))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(a.theme.Muted.Render("Press Esc to return"))

	return b.String()
}

// renderConfirmDialog renders the quit confirmation dialog.
func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRM EXIT") + "\n\n" +
			a.theme.Base.Render("Are you sure you want to exit?") + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	separator := a.theme.DrawHorizontalLine(a.width)
	return separator + "\n" + a.theme.Footer.Render(a.keys.StatusBarHelp(a.width))
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    a.clock.Now(),
	}}, a.alerts...)

	// Keep only last 10 alerts
	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
	a.alertIndex = 0
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = []Alert{}
	a.alertIndex = 0
}

// Run starts the TUI application.
func Run(ctx context.Context, db *database.DB, cfg *config.Config, svcs Services, clock util.Clock) error {
	app := New(db, cfg, svcs, clock)

	p := tea.NewProgram(app, tea.WithAltScreen())

	// Handle context cancellation
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	return err
}
