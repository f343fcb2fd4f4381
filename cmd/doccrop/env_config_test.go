package main

// Notes:
// - loadEnvConfig reads through an injected getenv, so tests run in parallel
//   without touching the process environment.
// - applyEnvConfig: we check each variable lands in the right config field
//   and that unset variables leave file values alone.

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alnah/go-doccrop/internal/config"
)

func getenvFrom(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

// ---------------------------------------------------------------------------
// TestLoadEnvConfig - Parsing
// ---------------------------------------------------------------------------

func TestLoadEnvConfig(t *testing.T) {
	t.Parallel()

	env := loadEnvConfig(getenvFrom(map[string]string{
		"DOCCROP_CONFIG":         "team",
		"DOCCROP_OUTPUT_DIR":     "/out",
		"DOCCROP_SUFFIX":         "_trim",
		"DOCCROP_WORKERS":        "3",
		"DOCCROP_TIMEOUT":        "90s",
		"DOCCROP_SOFFICE":        "/opt/lo/soffice",
		"DOCCROP_REQUIRE_NATIVE": "true",
		"DOCCROP_EDITABLE":       "margins",
		"DOCCROP_LOG_LEVEL":      "debug",
		"DOCCROP_PDFTOPPM":       "/opt/poppler/pdftoppm",
	}))

	if env.ConfigPath != "team" || env.OutputDir != "/out" || env.Suffix != "_trim" {
		t.Errorf("tier 1 = %+v", env)
	}
	if env.Workers != 3 {
		t.Errorf("Workers = %d, want 3", env.Workers)
	}
	if env.RequireNative == nil || !*env.RequireNative {
		t.Errorf("RequireNative = %v, want true", env.RequireNative)
	}
	if env.Timeout != "90s" || env.Soffice != "/opt/lo/soffice" || env.Editable != "margins" {
		t.Errorf("tier 2 = %+v", env)
	}
	if env.LogLevel != "debug" || env.Pdftoppm != "/opt/poppler/pdftoppm" {
		t.Errorf("tier 3 = %+v", env)
	}
}

func TestLoadEnvConfig_MalformedValuesIgnored(t *testing.T) {
	t.Parallel()

	env := loadEnvConfig(getenvFrom(map[string]string{
		"DOCCROP_WORKERS":        "many",
		"DOCCROP_REQUIRE_NATIVE": "sometimes",
	}))

	if env.Workers != 0 {
		t.Errorf("Workers = %d, want 0", env.Workers)
	}
	if env.RequireNative != nil {
		t.Errorf("RequireNative = %v, want nil", *env.RequireNative)
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnvConfig - Env over config file
// ---------------------------------------------------------------------------

func TestApplyEnvConfig(t *testing.T) {
	t.Parallel()

	t.Run("set variables override", func(t *testing.T) {
		t.Parallel()
		no := false
		cfg := config.DefaultConfig()
		cfg.Converter.RequireNative = true

		applyEnvConfig(&envConfig{
			OutputDir: "/out", Suffix: "_env", Workers: 2, Timeout: "30s",
			Soffice: "soffice7", RequireNative: &no, Editable: "margins", Pdftoppm: "pdftoppm9",
		}, cfg)

		if cfg.Output.Dir != "/out" || cfg.Output.Suffix != "_env" || cfg.Workers != 2 {
			t.Errorf("output = %+v, workers = %d", cfg.Output, cfg.Workers)
		}
		c := cfg.Converter
		if c.Timeout != "30s" || c.Soffice != "soffice7" || c.RequireNative || c.Editable != "margins" || c.Pdftoppm != "pdftoppm9" {
			t.Errorf("converter = %+v", c)
		}
	})

	t.Run("unset variables keep file values", func(t *testing.T) {
		t.Parallel()
		cfg := config.DefaultConfig()
		cfg.Output.Suffix = "_file"
		cfg.Converter.RequireNative = true

		applyEnvConfig(&envConfig{}, cfg)

		if cfg.Output.Suffix != "_file" || !cfg.Converter.RequireNative {
			t.Errorf("cfg changed: %+v", cfg)
		}
	})
}

func TestWarnUnknownEnvVars(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	warnUnknownEnvVars(&buf, []string{
		"DOCCROP_SUFFIX=_x",
		"DOCCROP_WORKER=3",
		"HOME=/root",
		"DOCCROP_CONTAINER=1",
	})

	out := buf.String()
	if !strings.Contains(out, "DOCCROP_WORKER ") {
		t.Errorf("missing warning for DOCCROP_WORKER: %q", out)
	}
	if strings.Count(out, "warning:") != 1 {
		t.Errorf("want exactly one warning, got %q", out)
	}
}
