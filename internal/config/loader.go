package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultConfigFileName is the standard configuration file name.
	DefaultConfigFileName = "bakeplan.toml"

	// XDGConfigSubdir is the subdirectory under XDG_CONFIG_HOME and XDG_DATA_HOME.
	XDGConfigSubdir = "bakeplan"

	// EnvConfigPath names the environment variable that points at a config file.
	EnvConfigPath = "BAKEPLAN_CONFIG"
)

// LoadError represents an error that occurred while loading configuration.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads the first configuration file found, in order of precedence:
// 1. Explicit path (if provided)
// 2. $BAKEPLAN_CONFIG
// 3. XDG config path (~/.config/bakeplan/bakeplan.toml)
// 4. Current working directory (./bakeplan.toml)
//
// When none exists and createDefault is set, the defaults are written to the
// XDG path (or the working directory if that cannot be created). A default
// that cannot be written is still returned, with an empty path.
func Load(explicitPath string, createDefault bool) (*Config, string, error) {
	if explicitPath != "" {
		return loadAt(explicitPath)
	}

	candidates := searchPaths()
	for _, path := range candidates {
		if fileExists(path) {
			return loadAt(path)
		}
	}

	if !createDefault {
		return nil, "", errors.New("no configuration file found; searched: " + strings.Join(candidates, ", "))
	}

	cfg := Default()
	defaultPath := filepath.Join(".", DefaultConfigFileName)
	if xdgPath := xdgConfigPath(); xdgPath != "" {
		if err := os.MkdirAll(filepath.Dir(xdgPath), 0750); err == nil {
			defaultPath = xdgPath
		}
	}
	if err := Save(cfg, defaultPath); err != nil {
		return cfg, "", nil
	}
	return cfg, defaultPath, nil
}

func loadAt(path string) (*Config, string, error) {
	cfg, err := loadFromFile(path)
	if err != nil {
		return nil, "", &LoadError{Path: path, Err: err}
	}
	return cfg, path, nil
}

// searchPaths lists the implicit config locations, most preferred first.
func searchPaths() []string {
	var paths []string
	if env := os.Getenv(EnvConfigPath); env != "" {
		paths = append(paths, env)
	}
	if xdgPath := xdgConfigPath(); xdgPath != "" {
		paths = append(paths, xdgPath)
	}
	return append(paths, filepath.Join(".", DefaultConfigFileName))
}

// loadFromFile reads and parses a TOML configuration file.
func loadFromFile(path string) (*Config, error) {
	// Start with defaults so missing values get sensible defaults
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	meta, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}
	for _, key := range meta.Undecoded() {
		slog.Warn("unknown config key ignored", "path", path, "key", key.String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Save writes a configuration to a TOML file, preceded by a comment block
// describing what the inventory and planning settings currently do. The
// file is written beside its destination and renamed into place.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(header(cfg))
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding TOML: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0640); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing config: %w", err)
	}
	return nil
}

// header renders the comment block Save puts above the encoded settings.
func header(cfg *Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# bakeplan configuration for %s\n", cfg.Business.Name)
	b.WriteString("#\n")
	b.WriteString("# Edit as needed; missing keys fall back to defaults.\n")
	b.WriteString("#\n")
	b.WriteString("# [inventory]\n")
	fmt.Fprintf(&b, "#   depletion_epsilon     lots holding less than %s are treated as empty\n",
		cfg.Inventory.Epsilon())
	fmt.Fprintf(&b, "#   cost_places           costs are rounded to %d decimal places\n",
		cfg.Inventory.CostPlaces)
	b.WriteString("#\n")
	b.WriteString("# [planning]\n")
	fmt.Fprintf(&b, "#   default_event_days    new events are dated %d days out\n",
		cfg.Planning.DefaultEventDays)
	fmt.Fprintf(&b, "#   upcoming_window_days  the dashboard lists events up to %d days ahead\n",
		cfg.Planning.UpcomingWindowDays)
	fmt.Fprintf(&b, "#   waste_warn_percent    batch plans wasting over %g%% are flagged\n",
		cfg.Planning.WasteWarnPercent)
	b.WriteString("\n")
	return b.String()
}

// xdgConfigPath returns the XDG-compliant config file path.
// Returns empty string if XDG_CONFIG_HOME is not set and HOME is not available.
func xdgConfigPath() string {
	// Check XDG_CONFIG_HOME first
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig != "" {
		return filepath.Join(xdgConfig, XDGConfigSubdir, DefaultConfigFileName)
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", XDGConfigSubdir, DefaultConfigFileName)
}

// xdgDataHome returns $XDG_DATA_HOME, falling back to ~/.local/share.
func xdgDataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share")
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// EnsureDataDir resolves the database file location and creates its
// directory. Relative paths live under $XDG_DATA_HOME/bakeplan when that can
// be created, otherwise under the working directory.
func EnsureDataDir(cfg *Config) (string, error) {
	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		if dir := dataDir(); dir != "" {
			dbPath = filepath.Join(dir, dbPath)
		}
	}
	if err := ensureParent(dbPath, "database"); err != nil {
		return "", err
	}
	return dbPath, nil
}

// EnsureLogDir creates the log file's directory. An empty path disables
// file logging and returns "".
func EnsureLogDir(cfg *Config) (string, error) {
	logPath := cfg.Logging.File
	if logPath == "" {
		return "", nil
	}
	if err := ensureParent(logPath, "log"); err != nil {
		return "", err
	}
	return logPath, nil
}

// BackupDir returns the directory for database backups, beside the
// database file.
func BackupDir(cfg *Config) (string, error) {
	backupDir := "backups"
	switch {
	case filepath.IsAbs(cfg.Database.Path):
		backupDir = filepath.Join(filepath.Dir(cfg.Database.Path), "backups")
	case dataDir() != "":
		backupDir = filepath.Join(dataDir(), "backups")
	}

	if err := os.MkdirAll(backupDir, 0750); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	return backupDir, nil
}

// dataDir returns $XDG_DATA_HOME/bakeplan, creating it, or "" when it is
// unavailable.
func dataDir() string {
	home := xdgDataHome()
	if home == "" {
		return ""
	}
	dir := filepath.Join(home, XDGConfigSubdir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return ""
	}
	return dir
}

func ensureParent(path, what string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating %s directory: %w", what, err)
	}
	return nil
}
