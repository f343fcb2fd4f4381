package doccrop

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Page boxes that must not extend past the new MediaBox.
var clippedBoxes = []string{"BleedBox", "TrimBox", "ArtBox"}

// PageBox is the visible rectangle of a page and its display rotation.
type PageBox struct {
	Box    Rect
	Rotate int // 0, 90, 180 or 270
}

// DisplaySize returns the page size as shown on screen.
func (p PageBox) DisplaySize() (width, height float64) {
	if p.Rotate == 90 || p.Rotate == 270 {
		return p.Box.Height(), p.Box.Width()
	}
	return p.Box.Width(), p.Box.Height()
}

// Document is a parsed PDF opened for inspection or cropping.
type Document struct {
	path string
	ctx  *model.Context
}

// OpenDocument parses and validates the PDF at path.
func OpenDocument(path string) (*Document, error) {
	f, err := os.Open(path) // #nosec G304 -- path is caller-supplied input
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := pctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("counting pages of %s: %w", path, err)
	}
	return &Document{path: path, ctx: pctx}, nil
}

// Path returns the file the document was read from.
func (d *Document) Path() string { return d.path }

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.ctx.PageCount }

// PageBox returns the visible box of the zero-based page index.
// The visible box is the CropBox clipped to the MediaBox.
func (d *Document) PageBox(pageIndex int) (PageBox, error) {
	_, box, err := d.pageDict(pageIndex)
	return box, err
}

// PageSize returns the displayed width and height of a page in points.
func (d *Document) PageSize(pageIndex int) (width, height float64, err error) {
	box, err := d.PageBox(pageIndex)
	if err != nil {
		return 0, 0, err
	}
	width, height = box.DisplaySize()
	return width, height, nil
}

func (d *Document) pageDict(pageIndex int) (types.Dict, PageBox, error) {
	if pageIndex < 0 || pageIndex >= d.PageCount() {
		return nil, PageBox{}, fmt.Errorf("%w: %d (document has %d pages)", ErrPageOutOfRange, pageIndex, d.PageCount())
	}

	dict, _, inherited, err := d.ctx.PageDict(pageIndex+1, false)
	if err != nil {
		return nil, PageBox{}, fmt.Errorf("reading page %d: %w", pageIndex+1, err)
	}
	if dict == nil || inherited == nil || inherited.MediaBox == nil {
		return nil, PageBox{}, fmt.Errorf("reading page %d: missing MediaBox", pageIndex+1)
	}

	visible := rectFrom(inherited.MediaBox)
	if inherited.CropBox != nil {
		visible = intersect(visible, rectFrom(inherited.CropBox))
	}
	return dict, PageBox{Box: visible, Rotate: normalizeRotation(inherited.Rotate)}, nil
}

// MeasureCropRect returns the rectangle that remains on a page after removing
// the margins. It does not modify the document. Margins are interpreted as
// the page is displayed, so rotated pages are inset on the matching edges.
func MeasureCropRect(doc *Document, pageIndex int, m MarginSpec) (Rect, error) {
	if err := m.Validate(); err != nil {
		return Rect{}, err
	}
	box, err := doc.PageBox(pageIndex)
	if err != nil {
		return Rect{}, err
	}
	return insetRect(box.Box, box.Rotate, m.ToPoints()), nil
}

// insetRect shrinks box by the displayed margins p, mapped onto the
// unrotated page edges.
func insetRect(box Rect, rotate int, p Points) Rect {
	left, bottom, right, top := p.Left, p.Bottom, p.Right, p.Top
	switch normalizeRotation(rotate) {
	case 90:
		left, bottom, right, top = p.Top, p.Left, p.Bottom, p.Right
	case 180:
		left, bottom, right, top = p.Right, p.Top, p.Left, p.Bottom
	case 270:
		left, bottom, right, top = p.Bottom, p.Right, p.Top, p.Left
	}
	return Rect{
		X0: box.X0 + left,
		Y0: box.Y0 + bottom,
		X1: box.X1 - right,
		Y1: box.Y1 - top,
	}
}

func normalizeRotation(r int) int {
	return ((r % 360) + 360) % 360
}

func rectFrom(r *types.Rectangle) Rect {
	// pdfcpu normalizes LL/UR, but guard against inverted boxes anyway.
	return Rect{
		X0: math.Min(r.LL.X, r.UR.X),
		Y0: math.Min(r.LL.Y, r.UR.Y),
		X1: math.Max(r.LL.X, r.UR.X),
		Y1: math.Max(r.LL.Y, r.UR.Y),
	}
}

func intersect(a, b Rect) Rect {
	return Rect{
		X0: math.Max(a.X0, b.X0),
		Y0: math.Max(a.Y0, b.Y0),
		X1: math.Min(a.X1, b.X1),
		Y1: math.Min(a.Y1, b.Y1),
	}
}

func (r Rect) rectangle() *types.Rectangle {
	return types.NewRectangle(r.X0, r.Y0, r.X1, r.Y1)
}

// CropStats describes a completed crop.
type CropStats struct {
	Pages              int
	OriginalResolution int
	OutputResolution   int
}

// PageCropper crops every page of a PDF file.
type PageCropper interface {
	Crop(ctx context.Context, input, output string, m MarginSpec) (CropStats, error)
}

// Cropper rewrites page boxes with pdfcpu. Content streams are never touched,
// so vector content and embedded images keep their original data.
type Cropper struct {
	logger *slog.Logger
}

// CropperOption configures a Cropper.
type CropperOption func(*Cropper)

// WithCropperLogger sets the logger for per-page diagnostics.
func WithCropperLogger(l *slog.Logger) CropperOption {
	return func(c *Cropper) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCropper creates a Cropper.
func NewCropper(opts ...CropperOption) *Cropper {
	c := &Cropper{logger: discardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crop removes m from every page of input and writes the result to output.
// Every page is measured before anything is written: the first page whose
// rectangle collapses aborts the crop with a *CropGeometryError and no file
// is created at output.
func (c *Cropper) Crop(ctx context.Context, input, output string, m MarginSpec) (CropStats, error) {
	if err := m.Validate(); err != nil {
		return CropStats{}, err
	}

	doc, err := OpenDocument(input)
	if err != nil {
		return CropStats{}, err
	}

	pages := doc.PageCount()
	dicts := make([]types.Dict, pages)
	rects := make([]Rect, pages)
	margins := m.ToPoints()

	for i := range pages {
		if err := ctx.Err(); err != nil {
			return CropStats{}, err
		}
		dict, box, err := doc.pageDict(i)
		if err != nil {
			return CropStats{}, err
		}
		r := insetRect(box.Box, box.Rotate, margins)
		if r.Empty() {
			return CropStats{}, &CropGeometryError{PageIndex: i, Width: r.Width(), Height: r.Height()}
		}
		dicts[i], rects[i] = dict, r
	}

	for i, dict := range dicts {
		applyBox(dict, rects[i])
		c.logger.Debug("page cropped", "file", filepath.Base(input), "page", i+1, "rect", rects[i].String())
	}

	if err := writeAtomically(doc.ctx, output); err != nil {
		return CropStats{}, err
	}

	return CropStats{
		Pages:              pages,
		OriginalResolution: NominalResolution,
		OutputResolution:   NominalResolution,
	}, nil
}

// applyBox makes r the page's MediaBox and CropBox. The remaining boxes are
// clipped to r or dropped when they fall outside it.
func applyBox(dict types.Dict, r Rect) {
	arr := r.rectangle().Array()
	dict.Update("MediaBox", arr)
	dict.Update("CropBox", r.rectangle().Array())

	for _, name := range clippedBoxes {
		obj, found := dict.Find(name)
		if !found {
			continue
		}
		a, ok := obj.(types.Array)
		if !ok || len(a) != 4 {
			dict.Delete(name)
			continue
		}
		clipped := intersect(r, rectFromArray(a))
		if clipped.Empty() {
			dict.Delete(name)
			continue
		}
		dict.Update(name, clipped.rectangle().Array())
	}
}

func rectFromArray(a types.Array) Rect {
	var v [4]float64
	for i, o := range a {
		switch n := o.(type) {
		case types.Float:
			v[i] = n.Value()
		case types.Integer:
			v[i] = float64(n.Value())
		}
	}
	return Rect{
		X0: math.Min(v[0], v[2]),
		Y0: math.Min(v[1], v[3]),
		X1: math.Max(v[0], v[2]),
		Y1: math.Max(v[1], v[3]),
	}
}

// writeAtomically writes next to output and renames into place, so a failed
// write never leaves a partial file under the final name.
func writeAtomically(pctx *model.Context, output string) error {
	tmp := output + ".part"
	if err := api.WriteContextFile(pctx, tmp); err != nil {
		_ = os.Remove(tmp)
		return &IOError{Op: "write", Path: output, Err: err}
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return &IOError{Op: "rename", Path: output, Err: err}
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
