package main

import (
	"errors"
	"fmt"
	"log/slog"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/config"
	"github.com/alnah/go-doccrop/internal/hints"
)

// loadConfig builds the effective configuration before flags are merged:
// defaults, then the config file (--config or DOCCROP_CONFIG), then
// DOCCROP_* variables.
func loadConfig(common *commonFlags, env *Environment) (*config.Config, *envConfig, error) {
	envCfg := loadEnvConfig(env.Getenv)
	if !common.quiet {
		warnUnknownEnvVars(env.Stderr, env.Environ())
	}

	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		if cfg, err = config.LoadConfig(name); err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
	}

	applyEnvConfig(envCfg, cfg)
	return cfg, envCfg, nil
}

// marginsFrom converts validated config margins into a MarginSpec.
func marginsFrom(cfg *config.Config) (doccrop.MarginSpec, error) {
	return doccrop.NewMarginSpec(cfg.Margins.Top, cfg.Margins.Bottom, cfg.Margins.Left, cfg.Margins.Right)
}

// newGateway builds the conversion gateway from the effective config.
func newGateway(cfg *config.Config, env *Environment, logger *slog.Logger, metrics *doccrop.Metrics) (*doccrop.Gateway, error) {
	opts := append(env.gatewayOptions(),
		doccrop.WithRequireNative(cfg.Converter.RequireNative),
		doccrop.WithSofficePath(cfg.Converter.Soffice),
		doccrop.WithConversionTimeout(cfg.TimeoutDuration()),
		doccrop.WithGatewayLogger(logger),
		doccrop.WithGatewayMetrics(metrics),
	)
	return doccrop.NewGateway(opts...)
}

// newRasterizer builds the preview rasterizer from the effective config.
func newRasterizer(cfg *config.Config, env *Environment) *doccrop.Rasterizer {
	opts := append(env.rasterizerOptions(), doccrop.WithRasterizerBinary(cfg.Converter.Pdftoppm))
	return doccrop.NewRasterizer(opts...)
}
