package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-doccrop/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // DOCCROP_CONFIG: config file name or path
	OutputDir  string // DOCCROP_OUTPUT_DIR: output directory
	Suffix     string // DOCCROP_SUFFIX: output name suffix
	Workers    int    // DOCCROP_WORKERS: parallel jobs

	// Tier 2 - Conversion
	Timeout       string // DOCCROP_TIMEOUT: per-conversion timeout
	Soffice       string // DOCCROP_SOFFICE: soffice executable
	RequireNative *bool  // DOCCROP_REQUIRE_NATIVE: 1/true/0/false
	Editable      string // DOCCROP_EDITABLE: pdf or margins

	// Tier 3 - Extended
	LogLevel string // DOCCROP_LOG_LEVEL: debug, info, warn, error
	Pdftoppm string // DOCCROP_PDFTOPPM: pdftoppm executable
}

// knownEnvVars lists valid DOCCROP_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"DOCCROP_CONFIG":     true,
	"DOCCROP_OUTPUT_DIR": true,
	"DOCCROP_SUFFIX":     true,
	"DOCCROP_WORKERS":    true,
	// Tier 2 - Conversion
	"DOCCROP_TIMEOUT":        true,
	"DOCCROP_SOFFICE":        true,
	"DOCCROP_REQUIRE_NATIVE": true,
	"DOCCROP_EDITABLE":       true,
	// Tier 3 - Extended
	"DOCCROP_LOG_LEVEL": true,
	"DOCCROP_PDFTOPPM":  true,
	// Read by doctor only
	"DOCCROP_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and booleans are ignored; config validation reports
// the values that are well-formed but out of range.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("DOCCROP_CONFIG"),
		OutputDir:  getenv("DOCCROP_OUTPUT_DIR"),
		Suffix:     getenv("DOCCROP_SUFFIX"),
		Timeout:    getenv("DOCCROP_TIMEOUT"),
		Soffice:    getenv("DOCCROP_SOFFICE"),
		Editable:   getenv("DOCCROP_EDITABLE"),
		LogLevel:   getenv("DOCCROP_LOG_LEVEL"),
		Pdftoppm:   getenv("DOCCROP_PDFTOPPM"),
	}

	if workers := getenv("DOCCROP_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			cfg.Workers = w
		}
	}
	if v := getenv("DOCCROP_REQUIRE_NATIVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.RequireNative = &b
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized DOCCROP_* variables.
// Helps catch typos like DOCCROP_WORKER instead of DOCCROP_WORKERS.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "DOCCROP_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via the merge functions).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Suffix != "" {
		cfg.Output.Suffix = env.Suffix
	}
	if env.Workers != 0 {
		cfg.Workers = env.Workers
	}
	if env.Timeout != "" {
		cfg.Converter.Timeout = env.Timeout
	}
	if env.Soffice != "" {
		cfg.Converter.Soffice = env.Soffice
	}
	if env.RequireNative != nil {
		cfg.Converter.RequireNative = *env.RequireNative
	}
	if env.Editable != "" {
		cfg.Converter.Editable = env.Editable
	}
	if env.Pdftoppm != "" {
		cfg.Converter.Pdftoppm = env.Pdftoppm
	}
}
