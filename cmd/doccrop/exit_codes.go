package main

import (
	"errors"
	"os"
	"runtime"
	"strings"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/config"
	"github.com/alnah/go-doccrop/internal/hints"
	"github.com/alnah/go-doccrop/internal/report"
)

// Exit codes for the doccrop CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every job succeeded
	ExitGeneral = 1 // Some jobs failed, or an unexpected error
	ExitUsage   = 2 // Invalid flags, config, margins, or input format
	ExitIO      = 3 // File not found, permission denied
	ExitTool    = 4 // Converter, rasterizer or report browser unavailable
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// External tool errors (exit 4)
	if errors.Is(err, doccrop.ErrConverterUnavailable) ||
		errors.Is(err, doccrop.ErrConversion) ||
		errors.Is(err, doccrop.ErrRasterizerUnavailable) ||
		errors.Is(err, report.ErrBrowserConnect) ||
		errors.Is(err, report.ErrPageLoad) ||
		errors.Is(err, report.ErrPDFGeneration) {
		return ExitTool
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, doccrop.ErrIO) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, doccrop.ErrValidation) ||
		errors.Is(err, doccrop.ErrUnsupportedFormat) ||
		errors.Is(err, doccrop.ErrCropGeometry) ||
		errors.Is(err, doccrop.ErrPageOutOfRange) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}

// errorWithHint appends an actionable hint for errors users can fix.
func errorWithHint(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, doccrop.ErrConverterUnavailable):
		if strings.Contains(msg, "native automation required") {
			return msg + hints.ForRequireNative()
		}
		return msg + hints.ForConverterUnavailable(runtime.GOOS)
	case errors.Is(err, doccrop.ErrConversion) && strings.Contains(msg, "timed out"):
		return msg + hints.ForTimeout()
	case errors.Is(err, doccrop.ErrRasterizerUnavailable):
		return msg + hints.ForRasterizer()
	case errors.Is(err, report.ErrBrowserConnect):
		return msg + hints.ForBrowserConnect()
	case errors.Is(err, ErrOutputDir):
		return msg + hints.ForOutputDirectory()
	}
	return msg
}
