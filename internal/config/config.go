// Package config provides configuration management for bakeplan.
// Configurations are loaded from TOML files with XDG-compliant paths.
package config

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Config holds the complete application configuration.
type Config struct {
	Business  BusinessConfig  `toml:"business"`
	Inventory InventoryConfig `toml:"inventory"`
	Planning  PlanningConfig  `toml:"planning"`
	Display   DisplayConfig   `toml:"display"`
	Logging   LoggingConfig   `toml:"logging"`
	Database  DatabaseConfig  `toml:"database"`
}

// BusinessConfig identifies the bakery.
type BusinessConfig struct {
	Name     string `toml:"name"`
	Owner    string `toml:"owner"`
	Currency string `toml:"currency"`
}

// InventoryConfig controls the FIFO ledgers.
type InventoryConfig struct {
	// DepletionEpsilon is the remaining quantity below which a lot is
	// treated as empty. Kept as a string so TOML floats never round it.
	DepletionEpsilon string `toml:"depletion_epsilon"`
	// CostPlaces is the number of decimal places costs are rounded to.
	CostPlaces int32 `toml:"cost_places"`
}

// Epsilon returns the parsed depletion threshold.
func (c *InventoryConfig) Epsilon() decimal.Decimal {
	d, err := decimal.NewFromString(c.DepletionEpsilon)
	if err != nil || d.IsNegative() {
		return decimal.RequireFromString("0.001")
	}
	return d
}

// PlanningConfig controls event planning defaults.
type PlanningConfig struct {
	// DefaultEventDays is how far ahead a new event is dated by default.
	DefaultEventDays int `toml:"default_event_days"`
	// UpcomingWindowDays limits the dashboard event list.
	UpcomingWindowDays int `toml:"upcoming_window_days"`
	// WasteWarnPercent highlights batch plans with more waste than this.
	WasteWarnPercent float64 `toml:"waste_warn_percent"`
}

// DisplayConfig controls TUI appearance.
type DisplayConfig struct {
	Theme      Theme  `toml:"theme"`
	DateFormat string `toml:"date_format"`
}

// Theme defines the terminal color palette.
type Theme string

const (
	ThemeButtercream Theme = "buttercream"
	ThemeCocoa       Theme = "cocoa"
	ThemePlain       Theme = "plain"
)

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level LogLevel `toml:"level"`
	File  string   `toml:"file"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls SQLite database settings.
type DatabaseConfig struct {
	Path                string `toml:"path"`
	BackupIntervalHours int    `toml:"backup_interval_hours"`
	BackupRetentionDays int    `toml:"backup_retention_days"`
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Business.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("business: %w", err))
	}

	if err := c.Inventory.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("inventory: %w", err))
	}

	if err := c.Planning.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("planning: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the business configuration is valid.
func (b *BusinessConfig) Validate() error {
	var errs []error

	if b.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}

	if len(b.Currency) != 3 {
		errs = append(errs, fmt.Errorf("currency must be a 3-letter code, got %q", b.Currency))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the inventory configuration is valid.
func (i *InventoryConfig) Validate() error {
	var errs []error

	d, err := decimal.NewFromString(i.DepletionEpsilon)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid depletion_epsilon: %w", err))
	case d.IsNegative():
		errs = append(errs, errors.New("depletion_epsilon must be non-negative"))
	case d.GreaterThan(decimal.NewFromInt(1)):
		errs = append(errs, errors.New("depletion_epsilon must be at most 1"))
	}

	if i.CostPlaces < 0 || i.CostPlaces > 8 {
		errs = append(errs, errors.New("cost_places must be between 0 and 8"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the planning configuration is valid.
func (p *PlanningConfig) Validate() error {
	var errs []error

	if p.DefaultEventDays < 0 {
		errs = append(errs, errors.New("default_event_days must be non-negative"))
	}

	if p.UpcomingWindowDays < 0 {
		errs = append(errs, errors.New("upcoming_window_days must be non-negative"))
	}

	if p.WasteWarnPercent < 0 || p.WasteWarnPercent > 100 {
		errs = append(errs, errors.New("waste_warn_percent must be between 0 and 100"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	validThemes := map[Theme]bool{
		ThemeButtercream: true,
		ThemeCocoa:       true,
		ThemePlain:       true,
	}

	if !validThemes[d.Theme] && d.Theme != "" {
		return fmt.Errorf("invalid theme: %s", d.Theme)
	}

	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	if d.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if d.BackupIntervalHours < 0 {
		errs = append(errs, errors.New("backup_interval_hours must be non-negative"))
	}

	if d.BackupRetentionDays < 0 {
		errs = append(errs, errors.New("backup_retention_days must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Business: BusinessConfig{
			Name:     "Home Bakery",
			Currency: "USD",
		},
		Inventory: InventoryConfig{
			DepletionEpsilon: "0.001",
			CostPlaces:       4,
		},
		Planning: PlanningConfig{
			DefaultEventDays:   14,
			UpcomingWindowDays: 60,
			WasteWarnPercent:   25,
		},
		Display: DisplayConfig{
			Theme:      ThemeButtercream,
			DateFormat: "Jan 2, 2006",
		},
		Logging: LoggingConfig{
			Level: LogLevelInfo,
			File:  "logs/bakeplan.log",
		},
		Database: DatabaseConfig{
			Path:                "bakeplan.db",
			BackupIntervalHours: 24,
			BackupRetentionDays: 30,
		},
	}
}
