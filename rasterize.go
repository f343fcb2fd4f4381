package doccrop

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
)

// Rasterizer defaults.
const (
	DefaultPreviewScale   = 1.0
	MaxPreviewScale       = 8.0
	defaultRasterTimeout  = 60 * time.Second
	marginShadeOpacity    = 0.45
	rasterOutputPrefix    = "page"
	rasterOutputExtension = ".png"

	// Render size drift that is resized away instead of rejected.
	aspectSlackPx    = 2.0
	aspectSlackRatio = 0.01
)

var marginShade = color.NRGBA{R: 32, G: 32, B: 32, A: 255}

// Rasterizer renders single pages to PNG for previews using poppler's pdftoppm.
// Pages are rendered at their visible (CropBox) size with no margins removed.
type Rasterizer struct {
	runner   CommandRunner
	binary   string
	lookPath func(string) (string, error)
	timeout  time.Duration
}

// RasterizerOption configures a Rasterizer.
type RasterizerOption func(*Rasterizer)

// WithRasterizerBinary sets the pdftoppm executable.
func WithRasterizerBinary(path string) RasterizerOption {
	return func(r *Rasterizer) {
		if path != "" {
			r.binary = path
		}
	}
}

// WithRasterizerRunner sets the command runner.
func WithRasterizerRunner(runner CommandRunner) RasterizerOption {
	return func(r *Rasterizer) {
		if runner != nil {
			r.runner = runner
		}
	}
}

// WithRasterizerLookPath replaces exec.LookPath.
func WithRasterizerLookPath(fn func(string) (string, error)) RasterizerOption {
	return func(r *Rasterizer) {
		if fn != nil {
			r.lookPath = fn
		}
	}
}

// NewRasterizer creates a Rasterizer.
func NewRasterizer(opts ...RasterizerOption) *Rasterizer {
	r := &Rasterizer{
		runner:   &ExecRunner{},
		binary:   "pdftoppm",
		lookPath: exec.LookPath,
		timeout:  defaultRasterTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Locate returns the resolved pdftoppm path.
func (r *Rasterizer) Locate() (string, error) {
	p, err := r.lookPath(r.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRasterizerUnavailable, r.binary, err)
	}
	return p, nil
}

// RasterizePage renders the zero-based page at scale (1.0 = 72 dpi) and
// returns PNG bytes sized exactly to the scaled page.
func (r *Rasterizer) RasterizePage(ctx context.Context, doc *Document, pageIndex int, scale float64) ([]byte, error) {
	img, err := r.render(ctx, doc, pageIndex, scale)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// Preview renders a page and shades the margins that a crop would remove.
func (r *Rasterizer) Preview(ctx context.Context, doc *Document, pageIndex int, scale float64, m MarginSpec) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	img, err := r.render(ctx, doc, pageIndex, scale)
	if err != nil {
		return nil, err
	}
	return encodePNG(ShadeMargins(img, m, scale))
}

func (r *Rasterizer) render(ctx context.Context, doc *Document, pageIndex int, scale float64) (image.Image, error) {
	if scale <= 0 || scale > MaxPreviewScale || math.IsNaN(scale) {
		return nil, fmt.Errorf("preview scale %v out of range (0, %v]", scale, MaxPreviewScale)
	}
	width, height, err := doc.PageSize(pageIndex)
	if err != nil {
		return nil, err
	}
	bin, err := r.Locate()
	if err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp("", "doccrop-raster-*")
	if err != nil {
		return nil, &IOError{Op: "mkdir", Path: os.TempDir(), Err: err}
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// Render the visible box straight to the target size so the image lines
	// up with MeasureCropRect and ShadeMargins.
	w := max(1, int(math.Round(width*scale)))
	h := max(1, int(math.Round(height*scale)))
	page := strconv.Itoa(pageIndex + 1)
	prefix := filepath.Join(tmp, rasterOutputPrefix)
	stdout, stderr, err := r.runner.Run(tctx, bin,
		"-f", page, "-l", page,
		"-cropbox",
		"-scale-to-x", strconv.Itoa(w),
		"-scale-to-y", strconv.Itoa(h),
		"-png", "-singlefile",
		doc.Path(), prefix)
	if err != nil {
		return nil, fmt.Errorf("rasterizing page %s: %w: %s", page, err, diagnostic(stdout, stderr))
	}

	img, err := imaging.Open(prefix + rasterOutputExtension)
	if err != nil {
		return nil, fmt.Errorf("reading rendered page: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img, nil
	}
	if !sameAspect(b.Dx(), b.Dy(), w, h) {
		return nil, fmt.Errorf("rendered page %s is %dx%d, want %dx%d", page, b.Dx(), b.Dy(), w, h)
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// sameAspect reports whether a gw x gh image can be scaled to w x h without
// visible distortion, allowing for rounding in the renderer.
func sameAspect(gw, gh, w, h int) bool {
	if gw <= 0 || gh <= 0 {
		return false
	}
	wantH := float64(gw) * float64(h) / float64(w)
	slack := max(aspectSlackPx, aspectSlackRatio*float64(gh))
	return math.Abs(float64(gh)-wantH) <= slack
}

// ShadeMargins darkens the strips of img that lie outside the crop area.
// img must be rendered at scale, in display orientation.
func ShadeMargins(img image.Image, m MarginSpec, scale float64) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	p := m.ToPoints()

	top := clampPx(p.Top*scale, b.Dy())
	bottom := clampPx(p.Bottom*scale, b.Dy())
	left := clampPx(p.Left*scale, b.Dx())
	right := clampPx(p.Right*scale, b.Dx())

	// Side strips span only the rows not covered by the top and bottom strips.
	midBottom := max(top, b.Dy()-bottom)
	strips := []image.Rectangle{
		image.Rect(0, 0, b.Dx(), top),
		image.Rect(0, b.Dy()-bottom, b.Dx(), b.Dy()),
		image.Rect(0, top, left, midBottom),
		image.Rect(b.Dx()-right, top, b.Dx(), midBottom),
	}
	for _, s := range strips {
		if s.Dx() <= 0 || s.Dy() <= 0 {
			continue
		}
		out = imaging.Overlay(out, imaging.New(s.Dx(), s.Dy(), marginShade), s.Min, marginShadeOpacity)
	}
	return out
}

func clampPx(v float64, limit int) int {
	return min(max(int(math.Round(v)), 0), limit)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}
