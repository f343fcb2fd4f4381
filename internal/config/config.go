// Package config loads the YAML configuration file for the doccrop CLI.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-doccrop/internal/dateutil"
	"github.com/alnah/go-doccrop/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDir is the directory name under os.UserConfigDir holding named configs.
const AppDir = "go-doccrop"

// Defaults applied before the file is decoded.
const (
	DefaultSuffix   = "_cropped"
	DefaultTimeout  = "2m"
	DefaultEditable = "pdf"
	DefaultScale    = 1.0
	MaxWorkers      = 5
	MaxScale        = 8.0
	MaxSuffixLength = 64
)

// Config holds all settings for a crop run.
type Config struct {
	Margins   MarginsConfig   `yaml:"margins"`
	Output    OutputConfig    `yaml:"output"`
	Workers   int             `yaml:"workers"` // 0 = auto
	Converter ConverterConfig `yaml:"converter"`
	Preview   PreviewConfig   `yaml:"preview"`
	Report    ReportConfig    `yaml:"report"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// MarginsConfig holds the default crop margins in millimeters.
type MarginsConfig struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// OutputConfig defines where results are written.
type OutputConfig struct {
	Dir    string `yaml:"dir"`    // empty = next to each input
	Suffix string `yaml:"suffix"` // appended to the base name
}

// ConverterConfig controls format conversion.
type ConverterConfig struct {
	RequireNative bool   `yaml:"requireNative"`
	Soffice       string `yaml:"soffice"`  // empty = search PATH and standard locations
	Timeout       string `yaml:"timeout"`  // Go duration, per conversion
	Editable      string `yaml:"editable"` // "pdf" or "margins"
	Pdftoppm      string `yaml:"pdftoppm"`
}

// PreviewConfig defines defaults for the preview command.
type PreviewConfig struct {
	Scale float64 `yaml:"scale"`
	Page  int     `yaml:"page"` // 1-based
}

// ReportConfig enables a run report (.md, .html or .pdf).
type ReportConfig struct {
	Path       string `yaml:"path"`
	Title      string `yaml:"title"`
	DateFormat string `yaml:"dateFormat"` // pattern or preset, see dateutil
}

// MetricsConfig enables a Prometheus textfile written after each run.
type MetricsConfig struct {
	File string `yaml:"file"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Output:    OutputConfig{Suffix: DefaultSuffix},
		Converter: ConverterConfig{Timeout: DefaultTimeout, Editable: DefaultEditable},
		Preview:   PreviewConfig{Scale: DefaultScale, Page: 1},
	}
}

// Validate checks value ranges. It does not touch the filesystem.
func (c *Config) Validate() error {
	margins := []struct {
		name  string
		value float64
	}{
		{"margins.top", c.Margins.Top},
		{"margins.bottom", c.Margins.Bottom},
		{"margins.left", c.Margins.Left},
		{"margins.right", c.Margins.Right},
	}
	for _, m := range margins {
		if m.value < 0 || math.IsNaN(m.value) || math.IsInf(m.value, 0) {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalidValue, m.name, m.value)
		}
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}
	if len(c.Output.Suffix) > MaxSuffixLength {
		return fmt.Errorf("%w: output.suffix exceeds %d characters", ErrInvalidValue, MaxSuffixLength)
	}
	if strings.ContainsAny(c.Output.Suffix, "/\\\x00") {
		return fmt.Errorf("%w: output.suffix must not contain path separators", ErrInvalidValue)
	}

	if c.Converter.Timeout != "" {
		d, err := time.ParseDuration(c.Converter.Timeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: converter.timeout %q is not a positive duration", ErrInvalidValue, c.Converter.Timeout)
		}
	}
	switch strings.ToLower(c.Converter.Editable) {
	case "", "pdf", "margins":
	default:
		return fmt.Errorf("%w: converter.editable must be \"pdf\" or \"margins\", got %q", ErrInvalidValue, c.Converter.Editable)
	}

	if c.Preview.Scale <= 0 || c.Preview.Scale > MaxScale {
		return fmt.Errorf("%w: preview.scale must be in (0, %v], got %v", ErrInvalidValue, MaxScale, c.Preview.Scale)
	}
	if c.Preview.Page < 1 {
		return fmt.Errorf("%w: preview.page must be at least 1, got %d", ErrInvalidValue, c.Preview.Page)
	}

	if p := c.Report.Path; p != "" {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".md", ".html", ".htm", ".pdf":
		default:
			return fmt.Errorf("%w: report.path must end in .md, .html or .pdf, got %q", ErrInvalidValue, p)
		}
	}
	if f := c.Report.DateFormat; f != "" {
		if _, err := dateutil.Layout(f); err != nil {
			return fmt.Errorf("%w: report.dateFormat: %w", ErrInvalidValue, err)
		}
	}
	return nil
}

// TimeoutDuration returns the parsed converter timeout, or zero when unset.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Converter.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig values.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !isFilePath(nameOrPath) {
		var err error
		if configPath, err = resolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	if err := yamlutil.DecodeFile(configPath, cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists the files LoadConfig tries for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, AppDir, name+ext))
		}
	}
	return paths
}

func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\") || strings.HasSuffix(s, ".yaml") || strings.HasSuffix(s, ".yml")
}

func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
