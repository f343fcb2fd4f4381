package doccrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-doccrop/internal/fileutil"
)

// Progress milestones reported for each job, in percent.
const (
	ProgressQueued     = 0
	ProgressDispatched = 10
	ProgressConverting = 30
	ProgressConverted  = 50
	ProgressCropping   = 70
	ProgressCropped    = 90
	ProgressDone       = 100
)

// EditableStrategy selects what a .docx or .doc job produces.
type EditableStrategy string

const (
	// EditablePDF writes only the cropped PDF.
	EditablePDF EditableStrategy = "pdf"
	// EditableMargins also writes a .docx whose page margins are reduced by
	// the crop amount; the cropped PDF becomes its companion.
	EditableMargins EditableStrategy = "margins"
)

// ParseEditableStrategy accepts "pdf" or "margins", case-insensitively.
// The empty string selects EditablePDF.
func ParseEditableStrategy(s string) (EditableStrategy, error) {
	switch EditableStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", EditablePDF:
		return EditablePDF, nil
	case EditableMargins:
		return EditableMargins, nil
	default:
		return "", fmt.Errorf("unknown editable strategy %q (want %q or %q)", s, EditablePDF, EditableMargins)
	}
}

// ProgressFunc receives a job's progress in percent.
type ProgressFunc func(percent int)

// JobProcessor runs one job to a terminal outcome. It must not panic or
// return without an outcome.
type JobProcessor interface {
	Process(ctx context.Context, job BatchJob, progress ProgressFunc) CropOutcome
}

// Compile-time interface check.
var _ JobProcessor = (*Pipeline)(nil)

// Pipeline routes a job through the conversion hops its format needs and
// then crops it. Intermediate files live in a per-job temp directory that is
// removed on every exit path.
type Pipeline struct {
	converter DocumentConverter
	cropper   PageCropper
	editable  EditableStrategy
	tempRoot  string
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithCropper replaces the default pdfcpu cropper.
func WithCropper(c PageCropper) PipelineOption {
	return func(p *Pipeline) {
		if c != nil {
			p.cropper = c
		}
	}
}

// WithEditableStrategy sets the output strategy for editable inputs.
func WithEditableStrategy(s EditableStrategy) PipelineOption {
	return func(p *Pipeline) {
		if s == EditablePDF || s == EditableMargins {
			p.editable = s
		}
	}
}

// WithTempRoot places per-job temp directories under dir instead of os.TempDir.
func WithTempRoot(dir string) PipelineOption {
	return func(p *Pipeline) { p.tempRoot = dir }
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPipeline creates a pipeline. converter may be nil, in which case only
// PDF inputs can succeed.
func NewPipeline(converter DocumentConverter, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		converter: converter,
		editable:  EditablePDF,
		logger:    discardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cropper == nil {
		p.cropper = NewCropper(WithCropperLogger(p.logger))
	}
	return p
}

type jobResult struct {
	output    string
	companion string
	pages     int
}

// Process runs job and always returns an outcome. Any output written before a
// failure is removed, so a failed job leaves nothing behind.
func (p *Pipeline) Process(ctx context.Context, job BatchJob, progress ProgressFunc) (outcome CropOutcome) {
	start := time.Now()
	if progress == nil {
		progress = func(int) {}
	}
	var written []string

	defer func() {
		if r := recover(); r != nil {
			fileutil.RemoveQuietly(written...)
			outcome = FailedOutcome(job, fmt.Errorf("internal error: %v", r), time.Since(start))
		}
	}()

	res, err := p.run(ctx, job, progress, &written)
	if err != nil {
		fileutil.RemoveQuietly(written...)
		return FailedOutcome(job, err, time.Since(start))
	}
	return SucceededOutcome(job, res.output, res.companion, res.pages, time.Since(start))
}

func (p *Pipeline) run(ctx context.Context, job BatchJob, progress ProgressFunc, written *[]string) (jobResult, error) {
	if err := job.Margins.Validate(); err != nil {
		return jobResult{}, err
	}
	format, err := DetectFormat(job.FilePath)
	if err != nil {
		return jobResult{}, err
	}
	if info, err := os.Stat(job.FilePath); err != nil {
		return jobResult{}, &IOError{Op: "stat", Path: job.FilePath, Err: err}
	} else if info.IsDir() {
		return jobResult{}, &IOError{Op: "read", Path: job.FilePath, Err: errors.New("is a directory")}
	}

	outDir := job.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(job.FilePath)
	}
	if err := fileutil.EnsureDir(outDir); err != nil {
		return jobResult{}, &IOError{Op: "mkdir", Path: outDir, Err: err}
	}

	tmp, cleanup, err := fileutil.ScopedTempDir(p.tempRoot, "doccrop-job-*")
	if err != nil {
		return jobResult{}, &IOError{Op: "mkdir", Path: p.tempRoot, Err: err}
	}
	defer func() {
		if err := cleanup(); err != nil {
			p.logger.Warn("temp cleanup failed", "job", job.ID, "path", tmp, "err", err)
		}
	}()

	log := p.logger.With("job", job.ID, "file", filepath.Base(job.FilePath))
	progress(ProgressConverting)

	pdfPath, editable, err := p.toPDF(ctx, job.FilePath, format, tmp)
	if err != nil {
		return jobResult{}, err
	}
	if format != FormatPDF {
		log.Debug("converted", "format", format.String())
		progress(ProgressConverted)
	}

	progress(ProgressCropping)
	pdfOut := job.OutputPath(FormatPDF.Ext())
	if err := guardOverwrite(job.FilePath, pdfOut); err != nil {
		return jobResult{}, err
	}
	stats, err := p.cropper.Crop(ctx, pdfPath, pdfOut, job.Margins)
	if err != nil {
		return jobResult{}, err
	}
	*written = append(*written, pdfOut)
	progress(ProgressCropped)

	res := jobResult{output: pdfOut, pages: stats.Pages}
	if format == FormatPDF || p.editable != EditableMargins {
		return res, nil
	}

	docxOut := job.OutputPath(FormatEditable.Ext())
	if err := guardOverwrite(job.FilePath, docxOut); err != nil {
		return jobResult{}, err
	}
	sections, err := AdjustDocxMargins(editable, docxOut, job.Margins)
	if err != nil {
		return jobResult{}, err
	}
	*written = append(*written, docxOut)
	log.Debug("margins adjusted", "sections", sections)

	return jobResult{output: docxOut, companion: pdfOut, pages: stats.Pages}, nil
}

// toPDF returns a PDF for input and, for word-processor inputs, the .docx the
// PDF was made from.
func (p *Pipeline) toPDF(ctx context.Context, input string, format Format, tmp string) (pdfPath, editable string, err error) {
	if format == FormatPDF {
		return input, "", nil
	}
	if p.converter == nil {
		return "", "", &ConverterUnavailableError{Reason: "no converter configured"}
	}

	editable = input
	if format == FormatLegacy {
		editable, err = p.converter.ConvertToIntermediate(ctx, input, tmp, FormatEditable)
		if err != nil {
			return "", "", err
		}
	}
	pdfPath, err = p.converter.ConvertToPDF(ctx, editable, tmp)
	if err != nil {
		return "", "", err
	}
	return pdfPath, editable, nil
}

func guardOverwrite(input, output string) error {
	in, err1 := filepath.Abs(input)
	out, err2 := filepath.Abs(output)
	if err1 == nil && err2 == nil && in == out {
		return &IOError{Op: "write", Path: output, Err: errors.New("output would overwrite the input; use a suffix or another output directory")}
	}
	return nil
}
