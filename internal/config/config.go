// Package config loads sf-fields settings from an optional YAML file and
// overlays explicitly set command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/sf-fields/internal/picker"
	"github.com/giantswarm/sf-fields/internal/report"
	"github.com/giantswarm/sf-fields/internal/sfcli"
	"github.com/giantswarm/sf-fields/internal/sforce"
)

// Config is the merged runtime configuration.
type Config struct {
	SFBinary   string        `yaml:"sf_binary"`
	TargetOrg  string        `yaml:"target_org"`
	CLITimeout time.Duration `yaml:"cli_timeout"`

	APIVersion string        `yaml:"api_version"`
	APITimeout time.Duration `yaml:"api_timeout"`
	RateLimit  float64       `yaml:"rate_limit"`

	// Picker is tui, line, or empty to choose by terminal.
	Picker    string `yaml:"picker"`
	Format    string `yaml:"format"`
	OutputDir string `yaml:"output_dir"`
	Open      bool   `yaml:"open"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		SFBinary:   "sf",
		CLITimeout: sfcli.DefaultTimeout,
		APITimeout: sforce.DefaultTimeout,
		RateLimit:  sforce.DefaultRateLimit,
		Format:     report.FormatHTML,
		Open:       true,
	}
}

// DefaultPath returns <UserConfigDir>/sf-fields/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sf-fields", "config.yaml"), nil
}

// Load returns the defaults merged with the file at path. A missing file is
// only an error when required is set, i.e. the user named it explicitly.
func Load(path string, required bool) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	if err := mergeFile(cfg, path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

func mergeFile(dst *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// ApplyFlags overwrites settings whose flag the user set explicitly.
// Flags missing from fs are ignored.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var errs []error
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	if changed("sf-binary") {
		c.SFBinary, err = fs.GetString("sf-binary")
		collect(err)
	}
	if changed("target-org") {
		c.TargetOrg, err = fs.GetString("target-org")
		collect(err)
	}
	if changed("cli-timeout") {
		c.CLITimeout, err = fs.GetDuration("cli-timeout")
		collect(err)
	}
	if changed("api-version") {
		c.APIVersion, err = fs.GetString("api-version")
		collect(err)
	}
	if changed("api-timeout") {
		c.APITimeout, err = fs.GetDuration("api-timeout")
		collect(err)
	}
	if changed("rate-limit") {
		c.RateLimit, err = fs.GetFloat64("rate-limit")
		collect(err)
	}
	if changed("picker") {
		c.Picker, err = fs.GetString("picker")
		collect(err)
	}
	if changed("format") {
		c.Format, err = fs.GetString("format")
		collect(err)
	}
	if changed("output-dir") {
		c.OutputDir, err = fs.GetString("output-dir")
		collect(err)
	}
	if changed("open") {
		c.Open, err = fs.GetBool("open")
		collect(err)
	}
	return errors.Join(errs...)
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.SFBinary == "" {
		return fmt.Errorf("sf_binary must not be empty")
	}
	if c.CLITimeout <= 0 {
		return fmt.Errorf("cli_timeout must be positive, got %s", c.CLITimeout)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("api_timeout must be positive, got %s", c.APITimeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}
	switch c.Picker {
	case "", picker.KindTUI, picker.KindLine:
	default:
		return fmt.Errorf("invalid picker %q: must be %q or %q", c.Picker, picker.KindTUI, picker.KindLine)
	}
	switch c.Format {
	case report.FormatHTML, report.FormatText:
	default:
		return fmt.Errorf("invalid format %q: must be %q or %q", c.Format, report.FormatHTML, report.FormatText)
	}
	return nil
}
