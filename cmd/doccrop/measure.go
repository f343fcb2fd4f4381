package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/config"
)

// pageMeasure is the crop result for one page, in points as displayed.
type pageMeasure struct {
	Page       int          `json:"page"`
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Rotate     int          `json:"rotate"`
	CropWidth  float64      `json:"cropWidth"`
	CropHeight float64      `json:"cropHeight"`
	CropBox    doccrop.Rect `json:"cropBox"`
	Empty      bool         `json:"empty,omitempty"`
}

// fileMeasure groups the page measurements of one input.
type fileMeasure struct {
	File    string             `json:"file"`
	Margins doccrop.MarginSpec `json:"margins"`
	Pages   []pageMeasure      `json:"pages"`
}

// runMeasureCmd prints the crop rectangle of every page without writing
// any output. It fails with the first page whose rectangle collapses.
func runMeasureCmd(ctx context.Context, args []string, env *Environment) error {
	f := &measureFlags{}
	fs := newMeasureFlagSet(f)
	positional, err := parseFlagSet(fs, args, printMeasureUsage, env)
	if err != nil {
		return err
	}
	if len(positional) == 0 {
		return ErrNoInput
	}

	cfg, envCfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	mergeMarginFlags(fs, &f.margins, cfg)
	mergeConverterFlags(fs, &f.converter, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	margins, err := marginsFrom(cfg)
	if err != nil {
		return err
	}
	logger := newLogger(env.Stderr, f.common.verbose, envCfg.LogLevel)

	var (
		results  []fileMeasure
		firstErr error
	)
	for _, path := range positional {
		m, err := measureFile(ctx, path, margins, cfg, env, logger)
		if err != nil && !errors.Is(err, doccrop.ErrCropGeometry) {
			return err
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: %w", path, err)
		}
		results = append(results, m)
	}

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, m := range results {
			printMeasure(env.Stdout, m)
		}
	}
	return firstErr
}

// measureFile measures every page of path. A collapsed page is recorded and
// reported as a *doccrop.CropGeometryError after all pages are measured.
func measureFile(ctx context.Context, path string, margins doccrop.MarginSpec, cfg *config.Config, env *Environment, logger *slog.Logger) (fileMeasure, error) {
	out := fileMeasure{File: path, Margins: margins}
	doc, cleanup, err := openDocument(ctx, path, cfg, env, logger)
	defer cleanup()
	if err != nil {
		return out, err
	}

	var geomErr error
	for i := range doc.PageCount() {
		box, err := doc.PageBox(i)
		if err != nil {
			return out, err
		}
		rect, err := doccrop.MeasureCropRect(doc, i, margins)
		if err != nil {
			return out, err
		}
		w, h := box.DisplaySize()
		cw, ch := doccrop.PageBox{Box: rect, Rotate: box.Rotate}.DisplaySize()
		pm := pageMeasure{
			Page: i + 1, Width: w, Height: h, Rotate: box.Rotate,
			CropWidth: cw, CropHeight: ch, CropBox: rect, Empty: rect.Empty(),
		}
		if pm.Empty && geomErr == nil {
			geomErr = &doccrop.CropGeometryError{PageIndex: i, Width: rect.Width(), Height: rect.Height()}
		}
		out.Pages = append(out.Pages, pm)
	}
	return out, geomErr
}

// printMeasure writes a per-page table.
func printMeasure(w io.Writer, m fileMeasure) {
	fmt.Fprintf(w, "%s (margins %s)\n", m.File, m.Margins)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  PAGE\tSIZE (pt)\tROTATE\tCROPPED (pt)\tCROPBOX")
	for _, p := range m.Pages {
		cropped := fmt.Sprintf("%.2f x %.2f", p.CropWidth, p.CropHeight)
		if p.Empty {
			cropped = "empty"
		}
		fmt.Fprintf(tw, "  %d\t%.2f x %.2f\t%d\t%s\t%s\n", p.Page, p.Width, p.Height, p.Rotate, cropped, p.CropBox)
	}
	_ = tw.Flush()
}
