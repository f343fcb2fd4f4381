package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-doccrop/internal/fileutil"
)

// Sentinel errors for PDF rendering.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageLoad       = errors.New("failed to load report page")
	ErrPDFGeneration  = errors.New("report PDF generation failed")
)

// defaultRenderTimeout bounds page load and printing.
const defaultRenderTimeout = 60 * time.Second

// PDFRenderer prints HTML to PDF.
type PDFRenderer interface {
	ToPDF(ctx context.Context, html string) ([]byte, error)
}

// RodRenderer prints HTML with headless Chrome via go-rod.
// Rod downloads Chromium on first use when no browser is found.
type RodRenderer struct {
	Timeout time.Duration
}

// Compile-time interface check.
var _ PDFRenderer = (*RodRenderer)(nil)

func (r *RodRenderer) ToPDF(ctx context.Context, html string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmp, cleanup, err := fileutil.ScopedTempDir("", "doccrop-report-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = cleanup() }()

	htmlPath := filepath.Join(tmp, "report.html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o600); err != nil {
		return nil, fmt.Errorf("writing report html: %w", err)
	}

	browser, err := connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = browser.Close() }()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}

	p, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + htmlPath})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	p = p.Timeout(timeout)
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	stream, err := p.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
		MarginTop:         floatPtr(0.5),
		MarginBottom:      floatPtr(0.5),
		MarginLeft:        floatPtr(0.5),
		MarginRight:       floatPtr(0.5),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("%w: reading PDF stream: %v", ErrPDFGeneration, err)
	}
	return data, nil
}

func connect() (*rod.Browser, error) {
	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}
	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	return browser, nil
}

func floatPtr(v float64) *float64 {
	return &v
}
