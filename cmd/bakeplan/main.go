// Bakeplan: inventory, event planning and production tracking for a home
// bakery.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bakeplan/bakeplan/internal/config"
	"github.com/bakeplan/bakeplan/internal/database"
	"github.com/bakeplan/bakeplan/internal/database/seed"
	"github.com/bakeplan/bakeplan/internal/services/catalog"
	"github.com/bakeplan/bakeplan/internal/services/inventory"
	"github.com/bakeplan/bakeplan/internal/services/planning"
	"github.com/bakeplan/bakeplan/internal/services/production"
	"github.com/bakeplan/bakeplan/internal/tui"
	"github.com/bakeplan/bakeplan/internal/util"
)

// Build information (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		migrateOnly = flag.Bool("migrate-only", false, "Run migrations and exit")
		seedData    = flag.Bool("seed", false, "Load the sample bakery into an empty database and exit")
		showVersion = flag.Bool("version", false, "Show version and exit")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("bakeplan version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		// Force exit after timeout
		time.AfterFunc(10*time.Second, func() {
			slog.Error("forced shutdown after timeout")
			os.Exit(1)
		})
	}()

	if err := run(ctx, *configPath, *migrateOnly, *seedData, *debugMode); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, migrateOnly, seedData, debugMode bool) error {
	cfg, cfgPath, err := config.Load(configPath, true)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	closeLog, err := setupLogging(cfg, debugMode)
	if err != nil {
		return err
	}
	defer closeLog()

	slog.Info("bakeplan starting",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cfgPath,
	)

	dbPath, err := config.EnsureDataDir(cfg)
	if err != nil {
		return fmt.Errorf("ensuring data directory: %w", err)
	}

	backupDir, err := config.BackupDir(cfg)
	if err != nil {
		slog.Warn("failed to create backup directory", "error", err)
		backupDir = ""
	}

	// Attempt database recovery if needed
	if _, err := os.Stat(dbPath); err == nil {
		report, err := database.AttemptRecovery(dbPath, backupDir)
		if err != nil {
			slog.Error("database recovery failed",
				"path", dbPath,
				"steps", len(report.Steps),
			)
			return fmt.Errorf("database recovery failed: %w", err)
		}

		switch report.Result {
		case database.RecoveryFromBackup:
			slog.Warn("database restored from backup",
				"backup", report.BackupUsed,
			)
		case database.RecoveryWALReplayed:
			slog.Warn("database repaired by WAL checkpoint")
		case database.RecoveryHealthy:
			slog.Debug("database integrity verified")
		}
	}

	db, err := database.Open(dbPath, &cfg.Database, backupDir)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		slog.Info("closing database")
		if err := db.Close(); err != nil {
			slog.Error("error closing database", "error", err)
		}
	}()

	migrator, err := database.NewMigrator(db)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	result, err := migrator.MigrateUp(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if len(result.Applied) > 0 {
		slog.Info("applied migrations",
			"count", len(result.Applied),
			"to_version", result.TargetVersion,
		)
	}

	if migrateOnly {
		slog.Info("migrations complete, exiting")
		return nil
	}

	clock := util.SystemClock{}
	svcs := newServices(db, cfg, clock)

	if seedData {
		generator := seed.NewGenerator(svcs.Inventory, svcs.Catalog, svcs.Planning, seed.DefaultConfig(clock.Now()))

		seeded, err := generator.IsSeeded(ctx)
		if err != nil {
			return fmt.Errorf("checking for existing data: %w", err)
		}
		if seeded {
			slog.Warn("database already contains ingredients, skipping seed generation")
			return nil
		}

		if err := generator.Generate(ctx); err != nil {
			return fmt.Errorf("generating seed data: %w", err)
		}
		return nil
	}

	tui.Version = Version
	tui.BuildTime = BuildTime

	slog.Info("starting TUI", "business", cfg.Business.Name)

	if err := tui.Run(ctx, db, cfg, svcs, clock); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	slog.Info("bakeplan shutdown complete")
	return nil
}

// setupLogging installs the default slog logger. Logs go to a JSON file when
// a log directory is configured, otherwise to stderr as text.
func setupLogging(cfg *config.Config, debugMode bool) (func(), error) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.Logging.Level {
		case config.LogLevelDebug:
			logLevel = slog.LevelDebug
		case config.LogLevelWarn:
			logLevel = slog.LevelWarn
		case config.LogLevelError:
			logLevel = slog.LevelError
		}
	}

	logPath, err := config.EnsureLogDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	closeLog := func() {}
	var logHandler slog.Handler
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		closeLog = func() { logFile.Close() }

		logHandler = slog.NewJSONHandler(logFile, &slog.HandlerOptions{
			Level: logLevel,
		})
	} else {
		logHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})
	}

	slog.SetDefault(slog.New(logHandler))
	return closeLog, nil
}

// newServices wires the domain services over one database handle.
func newServices(db *database.DB, cfg *config.Config, clock util.Clock) tui.Services {
	inv := inventory.NewService(db.DB, inventory.LedgerConfig{
		Epsilon:    cfg.Inventory.Epsilon(),
		CostPlaces: cfg.Inventory.CostPlaces,
	})
	cat := catalog.NewService(db.DB)

	plan := planning.NewService(db.DB, cat, inv, cfg.Planning)
	plan.SetClock(clock)

	prod := production.NewService(db.DB, cat, inv)
	prod.SetClock(clock)

	return tui.Services{Inventory: inv, Catalog: cat, Planning: plan, Production: prod}
}
