package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/fileutil"
)

// previewFilePerm is the permission of written preview images.
const previewFilePerm = 0o644

// runPreviewCmd renders one page with the margins a crop would remove
// shaded, so margins can be tuned before a batch run.
func runPreviewCmd(ctx context.Context, args []string, env *Environment) error {
	f := &previewFlags{}
	fs := newPreviewFlagSet(f)
	positional, err := parseFlagSet(fs, args, printPreviewUsage, env)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return ErrNoInput
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: preview takes one input, got %d", ErrUsage, len(positional))
	}
	input := positional[0]

	cfg, envCfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	mergePreviewFlags(fs, f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	margins, err := marginsFrom(cfg)
	if err != nil {
		return err
	}
	logger := newLogger(env.Stderr, f.common.verbose, envCfg.LogLevel)

	doc, cleanup, err := openDocument(ctx, input, cfg, env, logger)
	defer cleanup()
	if err != nil {
		return err
	}

	png, err := newRasterizer(cfg, env).Preview(ctx, doc, cfg.Preview.Page-1, cfg.Preview.Scale, margins)
	if err != nil {
		return err
	}

	output := f.output
	if output == "" {
		output = previewPath(input, cfg.Preview.Page)
	}
	if err := fileutil.EnsureDir(filepath.Dir(output)); err != nil {
		return fmt.Errorf("%w: %w", ErrOutputDir, err)
	}
	if err := os.WriteFile(output, png, previewFilePerm); err != nil {
		return &doccrop.IOError{Op: "write", Path: output, Err: err}
	}

	if !f.common.quiet {
		fmt.Fprintf(env.Stdout, "Preview of page %d written to %s\n", cfg.Preview.Page, output)
	}
	return nil
}

// previewPath returns <dir>/<base>_page<N>.png next to input.
func previewPath(input string, page int) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), fmt.Sprintf("%s_page%d.png", base, page))
}
