package main

import (
	"context"
	"fmt"
	"log/slog"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/config"
	"github.com/alnah/go-doccrop/internal/fileutil"
)

// openDocument opens path as a PDF, converting Word inputs into a scratch
// directory first. The returned cleanup removes the scratch directory and
// is never nil.
func openDocument(ctx context.Context, path string, cfg *config.Config, env *Environment, logger *slog.Logger) (*doccrop.Document, func(), error) {
	noop := func() {}
	format, err := doccrop.DetectFormat(path)
	if err != nil {
		return nil, noop, err
	}
	if format == doccrop.FormatPDF {
		doc, err := doccrop.OpenDocument(path)
		return doc, noop, err
	}

	gateway, err := newGateway(cfg, env, logger, nil)
	if err != nil {
		return nil, noop, err
	}
	tmp, remove, err := fileutil.ScopedTempDir("", "doccrop-inspect-*")
	if err != nil {
		return nil, noop, &doccrop.IOError{Op: "mkdir", Path: "temp", Err: err}
	}
	cleanup := func() { _ = remove() }

	pdf, err := gateway.ConvertToPDF(ctx, path, tmp)
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	doc, err := doccrop.OpenDocument(pdf)
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("opening converted %s: %w", path, err)
	}
	return doc, cleanup, nil
}
