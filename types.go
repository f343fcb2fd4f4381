package doccrop

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// DefaultSuffix is appended to the base name of every output file.
const DefaultSuffix = "_cropped"

// NominalResolution is the PDF coordinate-space resolution (points per inch).
// It is not the DPI of any embedded image.
const NominalResolution = 72

// Format classifies an input document by extension.
type Format int

const (
	FormatUnknown  Format = iota
	FormatPDF             // .pdf
	FormatEditable        // .docx
	FormatLegacy          // .doc
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatEditable:
		return "docx"
	case FormatLegacy:
		return "doc"
	default:
		return "unknown"
	}
}

// Ext returns the canonical extension including the dot.
func (f Format) Ext() string {
	if f == FormatUnknown {
		return ""
	}
	return "." + f.String()
}

// DetectFormat classifies path by extension, case-insensitively.
func DetectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatEditable, nil
	case ".doc":
		return FormatLegacy, nil
	default:
		return FormatUnknown, &UnsupportedFormatError{Path: path, Ext: ext}
	}
}

// OutputName returns "<base><suffix><ext>" for the given input path.
func OutputName(inputPath, suffix, ext string) string {
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return base + suffix + ext
}

// Rect is a page rectangle in point units, lower-left origin.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Empty reports whether the rectangle has no positive area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

func (r Rect) String() string {
	return fmt.Sprintf("[%.2f %.2f %.2f %.2f]", r.X0, r.Y0, r.X1, r.Y1)
}

// BatchJob is one file's crop request. The scheduler only reads it.
type BatchJob struct {
	ID           string
	FilePath     string
	Margins      MarginSpec
	OutputDir    string
	OutputSuffix string
}

// OutputPath returns the file the job writes with extension ext. An empty
// OutputDir places it next to the input.
func (j BatchJob) OutputPath(ext string) string {
	dir := j.OutputDir
	if dir == "" {
		dir = filepath.Dir(j.FilePath)
	}
	return filepath.Join(dir, OutputName(j.FilePath, j.OutputSuffix, ext))
}

// CropOutcome is the terminal record for one job.
// Build it with SucceededOutcome or FailedOutcome; a failed outcome never
// carries an output path.
type CropOutcome struct {
	JobID              string
	Success            bool
	InputPath          string
	OutputPath         string
	CompanionPath      string // cropped PDF when the primary output is editable
	PagesProcessed     int
	OriginalResolution int
	OutputResolution   int
	ErrorMessage       string
	Err                error
	Duration           time.Duration
}

// SucceededOutcome records a finished job.
func SucceededOutcome(job BatchJob, output, companion string, pages int, elapsed time.Duration) CropOutcome {
	return CropOutcome{
		JobID:              job.ID,
		Success:            true,
		InputPath:          job.FilePath,
		OutputPath:         output,
		CompanionPath:      companion,
		PagesProcessed:     pages,
		OriginalResolution: NominalResolution,
		OutputResolution:   NominalResolution,
		Duration:           elapsed,
	}
}

// FailedOutcome records a job that produced no output.
func FailedOutcome(job BatchJob, err error, elapsed time.Duration) CropOutcome {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return CropOutcome{
		JobID:        job.ID,
		InputPath:    job.FilePath,
		ErrorMessage: msg,
		Err:          err,
		Duration:     elapsed,
	}
}

// Message returns a one-line description suitable for progress displays.
func (o CropOutcome) Message() string {
	if !o.Success {
		return o.ErrorMessage
	}
	return fmt.Sprintf("%d pages -> %s", o.PagesProcessed, o.OutputPath)
}

// BatchSummary aggregates one run.
type BatchSummary struct {
	TotalFiles  int
	Successful  int
	Failed      int
	FailedFiles []string
	Elapsed     time.Duration
	Outcomes    []CropOutcome // completion order
	Cancelled   bool
}

func (s *BatchSummary) add(o CropOutcome) {
	s.TotalFiles++
	if o.Success {
		s.Successful++
	} else {
		s.Failed++
		s.FailedFiles = append(s.FailedFiles, o.InputPath)
	}
	s.Outcomes = append(s.Outcomes, o)
}
