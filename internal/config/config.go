package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"schedcal/internal/fileutil"
)

// ColumnsConfig names the spreadsheet header cells holding each field.
type ColumnsConfig struct {
	Section  string `yaml:"section" json:"section"`
	Format   string `yaml:"format" json:"format"`
	Patterns string `yaml:"patterns" json:"patterns"`
}

// BasicAuthConfig guards the subscription server. Both fields empty
// disables auth.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is an IANA zone (e.g. "America/Chicago") attached to every
	// DTSTART/DTEND as TZID. Empty writes floating local times.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Sheet is the worksheet to read. Empty selects the first sheet.
	Sheet string `yaml:"sheet" json:"sheet"`

	Columns ColumnsConfig `yaml:"columns" json:"columns"`

	// Mode is "recurring" (default) or "expanded". The --events flag
	// forces expanded.
	Mode string `yaml:"mode" json:"mode"`

	// Order is "chronological" (default) or "grid" for expanded output.
	Order string `yaml:"order" json:"order"`

	// AlignSeed starts each recurring event on its first real meeting day
	// instead of the first day of the date range.
	AlignSeed bool `yaml:"align_seed" json:"align_seed"`

	// ProductID is written as the calendar PRODID.
	ProductID string `yaml:"product_id" json:"product_id"`

	// Refresh is a cron-style schedule (e.g. "*/15 * * * *") on which
	// `watch` re-converts even without a file change. Empty disables it.
	Refresh string `yaml:"refresh" json:"refresh"`

	// Listen is the address `watch` serves the calendar on, e.g.
	// "127.0.0.1:8080". Empty disables the server.
	Listen string `yaml:"listen" json:"listen"`

	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

const (
	DefaultSectionColumn  = "Section"
	DefaultFormatColumn   = "Instructional Format"
	DefaultPatternsColumn = "Meeting Patterns"
	DefaultProductID      = "-//schedcal//Course Schedule//EN"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone: "",
		Sheet:    "",
		Columns: ColumnsConfig{
			Section:  DefaultSectionColumn,
			Format:   DefaultFormatColumn,
			Patterns: DefaultPatternsColumn,
		},
		Mode:      "recurring",
		Order:     "chronological",
		ProductID: DefaultProductID,
		Refresh:   "",
		LogLevel:  "info",
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/schedcal/config.yaml (or the
// platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "schedcal.yaml"
	}
	return filepath.Join(dir, "schedcal", "config.yaml")
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Columns.Section == "" {
		c.Columns.Section = DefaultSectionColumn
	}
	if c.Columns.Format == "" {
		c.Columns.Format = DefaultFormatColumn
	}
	if c.Columns.Patterns == "" {
		c.Columns.Patterns = DefaultPatternsColumn
	}
	switch c.Mode {
	case "recurring", "expanded":
		// ok
	default:
		c.Mode = "recurring"
	}
	switch c.Order {
	case "chronological", "grid":
		// ok
	default:
		c.Order = "chronological"
	}
	if c.ProductID == "" {
		c.ProductID = DefaultProductID
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks fields that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
		}
	}
	if c.Refresh != "" {
		if _, err := cron.ParseStandard(c.Refresh); err != nil {
			return fmt.Errorf("config: refresh %q: %w", c.Refresh, err)
		}
	}
	if c.BasicAuth != nil && (c.BasicAuth.Username == "") != (c.BasicAuth.Password == "") {
		return errors.New("config: basic_auth needs both username and password")
	}
	return nil
}

// Location resolves Timezone. A nil location means floating times.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return nil, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - empty path or missing file: defaults
//   - otherwise: unmarshal, normalize, validate
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename, final permissions 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return fileutil.WriteFileAtomic(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
