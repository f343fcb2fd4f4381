package doccrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-doccrop/internal/fileutil"
)

// Conversion defaults.
const (
	DefaultConversionTimeout = 120 * time.Second
	defaultProbeTimeout      = 30 * time.Second
)

// Tier names used in errors, logs and metrics.
const (
	TierNative   = "native"
	TierHeadless = "soffice"
)

// knownSofficePaths are checked after PATH lookup fails.
var knownSofficePaths = []string{
	`C:\Program Files\LibreOffice\program\soffice.exe`,
	`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
	"/usr/bin/soffice",
	"/usr/bin/libreoffice",
	"/usr/lib/libreoffice/program/soffice",
	"/opt/libreoffice/program/soffice",
	"/snap/bin/libreoffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
}

// DocumentConverter turns non-PDF documents into formats the cropper or the
// margin adjuster can read.
type DocumentConverter interface {
	IsAvailable() bool
	ConvertToPDF(ctx context.Context, input, outDir string) (string, error)
	ConvertToIntermediate(ctx context.Context, input, outDir string, target Format) (string, error)
}

// NativeAutomation drives a locally installed word processor.
// Implementations must not share automation handles between calls.
type NativeAutomation interface {
	Name() string
	Probe(ctx context.Context) error
	Convert(ctx context.Context, input, output string, target Format) error
}

// Compile-time interface check.
var _ DocumentConverter = (*Gateway)(nil)

// Gateway converts documents with native automation when its probe succeeds,
// falling back to headless LibreOffice.
type Gateway struct {
	native        NativeAutomation
	nativeSet     bool
	runner        CommandRunner
	requireNative bool
	sofficePath   string
	searchPaths   []string
	lookPath      func(string) (string, error)
	timeout       time.Duration
	logger        *slog.Logger
	metrics       *Metrics

	// Native probe result, computed once in NewGateway.
	nativeOnce sync.Once
	nativeErr  error

	// Headless tool location, computed on first use.
	sofficeOnce sync.Once
	soffice     string
	sofficeErr  error
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithNative replaces the platform's native automation. Pass nil to disable it.
func WithNative(n NativeAutomation) GatewayOption {
	return func(g *Gateway) {
		g.native = n
		g.nativeSet = true
	}
}

// WithRequireNative makes NewGateway fail when native automation is unusable.
func WithRequireNative(require bool) GatewayOption {
	return func(g *Gateway) { g.requireNative = require }
}

// WithSofficePath pins the headless tool instead of searching for it.
func WithSofficePath(path string) GatewayOption {
	return func(g *Gateway) { g.sofficePath = path }
}

// WithSearchPaths replaces the well-known install locations.
func WithSearchPaths(paths []string) GatewayOption {
	return func(g *Gateway) { g.searchPaths = paths }
}

// WithLookPath replaces exec.LookPath for PATH lookups.
func WithLookPath(fn func(string) (string, error)) GatewayOption {
	return func(g *Gateway) {
		if fn != nil {
			g.lookPath = fn
		}
	}
}

// WithRunner sets the command runner for external tools.
func WithRunner(r CommandRunner) GatewayOption {
	return func(g *Gateway) {
		if r != nil {
			g.runner = r
		}
	}
}

// WithConversionTimeout bounds each headless conversion.
func WithConversionTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithGatewayLogger sets the logger for tier selection and fallback.
func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithGatewayMetrics records conversions per tier.
func WithGatewayMetrics(m *Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// NewGateway builds a gateway and probes native automation once.
// With WithRequireNative, a failed probe is returned as *ConverterUnavailableError.
func NewGateway(opts ...GatewayOption) (*Gateway, error) {
	g := &Gateway{
		runner:      &ExecRunner{},
		searchPaths: knownSofficePaths,
		lookPath:    exec.LookPath,
		timeout:     DefaultConversionTimeout,
		logger:      discardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if !g.nativeSet {
		g.native = newPlatformNative(g.runner)
	}

	if err := g.probeNative(); err != nil && g.requireNative {
		return nil, &ConverterUnavailableError{Reason: "native automation required: " + err.Error()}
	}
	return g, nil
}

func (g *Gateway) probeNative() error {
	g.nativeOnce.Do(func() {
		if g.native == nil {
			g.nativeErr = errors.New("native automation disabled")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), defaultProbeTimeout)
		defer cancel()
		g.nativeErr = g.native.Probe(ctx)
		g.logger.Debug("native probe", "tier", g.native.Name(), "err", g.nativeErr)
	})
	return g.nativeErr
}

func (g *Gateway) locateSoffice() (string, error) {
	g.sofficeOnce.Do(func() {
		g.soffice, g.sofficeErr = g.findSoffice()
		if g.sofficeErr == nil {
			g.logger.Debug("headless converter found", "tier", TierHeadless, "path", g.soffice)
		}
	})
	return g.soffice, g.sofficeErr
}

func (g *Gateway) findSoffice() (string, error) {
	if g.sofficePath != "" {
		if isExecutableFile(g.sofficePath) {
			return g.sofficePath, nil
		}
		if p, err := g.lookPath(g.sofficePath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured soffice %q not found", g.sofficePath)
	}
	for _, name := range []string{"soffice", "libreoffice"} {
		if p, err := g.lookPath(name); err == nil {
			return p, nil
		}
	}
	for _, p := range g.searchPaths {
		if isExecutableFile(p) {
			return p, nil
		}
	}
	return "", errors.New("LibreOffice (soffice) not found on PATH or in standard locations")
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GatewayStatus reports what the gateway resolved, for diagnostics.
type GatewayStatus struct {
	NativeName  string `json:"nativeName,omitempty" yaml:"native,omitempty"`
	NativeOK    bool   `json:"nativeAvailable" yaml:"nativeAvailable"`
	NativeError string `json:"nativeError,omitempty" yaml:"nativeError,omitempty"`
	SofficePath string `json:"sofficePath,omitempty" yaml:"soffice,omitempty"`
	SofficeErr  string `json:"sofficeError,omitempty" yaml:"sofficeError,omitempty"`
}

// Status returns the cached probe and lookup results.
func (g *Gateway) Status() GatewayStatus {
	var s GatewayStatus
	if g.native != nil {
		s.NativeName = g.native.Name()
	}
	if err := g.probeNative(); err != nil {
		s.NativeError = err.Error()
	} else {
		s.NativeOK = true
	}
	if p, err := g.locateSoffice(); err != nil {
		s.SofficeErr = err.Error()
	} else {
		s.SofficePath = p
	}
	return s
}

// IsAvailable reports whether any tier can convert.
func (g *Gateway) IsAvailable() bool {
	if g.probeNative() == nil {
		return true
	}
	_, err := g.locateSoffice()
	return err == nil
}

// ConvertToPDF converts input into a PDF inside outDir and returns its path.
func (g *Gateway) ConvertToPDF(ctx context.Context, input, outDir string) (string, error) {
	return g.convert(ctx, input, outDir, FormatPDF)
}

// ConvertToIntermediate converts input into target (PDF or .docx) inside outDir.
func (g *Gateway) ConvertToIntermediate(ctx context.Context, input, outDir string, target Format) (string, error) {
	if target != FormatPDF && target != FormatEditable {
		return "", fmt.Errorf("%w: cannot convert to %s", ErrUnsupportedFormat, target)
	}
	return g.convert(ctx, input, outDir, target)
}

func (g *Gateway) convert(ctx context.Context, input, outDir string, target Format) (string, error) {
	if _, err := os.Stat(input); err != nil {
		return "", &IOError{Op: "stat", Path: input, Err: err}
	}
	if err := fileutil.EnsureDir(outDir); err != nil {
		return "", &IOError{Op: "mkdir", Path: outDir, Err: err}
	}
	output := filepath.Join(outDir, OutputName(input, "", target.Ext()))
	if filepath.Clean(output) == filepath.Clean(input) {
		return "", &ConversionError{Input: input, Tier: "none", Reason: "output would overwrite input"}
	}

	var nativeErr error
	if g.probeNative() == nil {
		start := time.Now()
		nativeErr = g.convertNative(ctx, input, output, target)
		g.metrics.conversion(TierNative, nativeErr == nil, time.Since(start))
		if nativeErr == nil {
			return output, nil
		}
		g.logger.Warn("native conversion failed, falling back", "file", filepath.Base(input), "err", nativeErr)
		_ = os.Remove(output)
	}

	soffice, err := g.locateSoffice()
	if err != nil {
		if nativeErr != nil {
			return "", nativeErr
		}
		return "", &ConverterUnavailableError{Reason: err.Error()}
	}

	start := time.Now()
	err = g.convertHeadless(ctx, soffice, input, outDir, output, target)
	g.metrics.conversion(TierHeadless, err == nil, time.Since(start))
	if err != nil {
		return "", err
	}
	return output, nil
}

func (g *Gateway) convertNative(ctx context.Context, input, output string, target Format) error {
	err := g.native.Convert(ctx, input, output, target)
	// Word occasionally raises after a successful save; trust the file.
	if verifyErr := verifyOutput(output); verifyErr == nil {
		if err != nil {
			g.logger.Debug("native reported error but produced output", "file", filepath.Base(input), "err", err)
		}
		return nil
	}
	reason := "no output produced"
	if err != nil {
		reason = err.Error()
	}
	return &ConversionError{Input: input, Tier: TierNative, Reason: reason}
}

func (g *Gateway) convertHeadless(ctx context.Context, soffice, input, outDir, output string, target Format) error {
	// A private profile lets concurrent soffice instances run side by side.
	// It lives in outDir so it shares the caller's temp scope.
	profile, err := os.MkdirTemp(outDir, ".lo-profile-*")
	if err != nil {
		return &IOError{Op: "mkdir", Path: outDir, Err: err}
	}
	defer func() { _ = os.RemoveAll(profile) }()

	tctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	args := []string{
		"-env:UserInstallation=" + fileURL(profile),
		"--headless",
		"--norestore",
		"--nologo",
		"--convert-to", target.String(),
		"--outdir", outDir,
		input,
	}
	g.logger.Debug("running headless conversion", "tier", TierHeadless, "file", filepath.Base(input), "target", target.String())

	stdout, stderr, err := g.runner.Run(tctx, soffice, args...)
	diag := diagnostic(stdout, stderr)
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(tctx.Err(), context.DeadlineExceeded):
		return &ConversionError{Input: input, Tier: TierHeadless, Reason: fmt.Sprintf("timed out after %s", g.timeout), Output: diag}
	case errors.Is(err, context.Canceled):
		return &ConversionError{Input: input, Tier: TierHeadless, Reason: "cancelled", Output: diag}
	case err != nil:
		return &ConversionError{Input: input, Tier: TierHeadless, Reason: err.Error(), Output: diag}
	}

	// soffice exits 0 on many failures, so the file is the real signal.
	if err := verifyOutput(output); err != nil {
		return &ConversionError{Input: input, Tier: TierHeadless, Reason: err.Error(), Output: diag}
	}
	return nil
}

func verifyOutput(path string) error {
	if fileutil.NonEmptyFile(path) {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return errors.New("expected output not created")
	}
	return errors.New("expected output is empty")
}

// fileURL converts a local path to the file URL form soffice expects.
func fileURL(p string) string {
	p = filepath.ToSlash(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p
}
