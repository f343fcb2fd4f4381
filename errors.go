package doccrop

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	ErrValidation           = errors.New("invalid margins")
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrConverterUnavailable = errors.New("no document converter available")
	ErrConversion           = errors.New("document conversion failed")
	ErrCropGeometry         = errors.New("crop rectangle is empty")
	ErrIO                   = errors.New("file operation failed")

	// Inspection errors.
	ErrPageOutOfRange        = errors.New("page index out of range")
	ErrRasterizerUnavailable = errors.New("page rasterizer not found")

	// Scheduler errors.
	ErrQueueFull = errors.New("job queue is full")
)

// ValidationError reports the first margin field that failed validation.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s margin %v is %s", ErrValidation, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnsupportedFormatError reports a file whose extension is not recognized.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

func (e *UnsupportedFormatError) Error() string {
	ext := e.Ext
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("%s: %s has extension %s (supported: .pdf, .docx, .doc)", ErrUnsupportedFormat, e.Path, ext)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// ConverterUnavailableError is returned when no conversion tier can serve a request.
type ConverterUnavailableError struct {
	Reason string
}

func (e *ConverterUnavailableError) Error() string {
	if e.Reason == "" {
		return ErrConverterUnavailable.Error()
	}
	return fmt.Sprintf("%s: %s", ErrConverterUnavailable, e.Reason)
}

func (e *ConverterUnavailableError) Is(target error) bool { return target == ErrConverterUnavailable }

// ConversionError carries the diagnostic output of a failed conversion.
type ConversionError struct {
	Input  string
	Tier   string
	Reason string
	Output string // tool stdout/stderr, trimmed
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("%s: %s via %s: %s", ErrConversion, e.Input, e.Tier, e.Reason)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *ConversionError) Is(target error) bool { return target == ErrConversion }

// CropGeometryError names the first page whose crop rectangle collapsed.
type CropGeometryError struct {
	PageIndex int // zero-based
	Width     float64
	Height    float64
}

func (e *CropGeometryError) Error() string {
	return fmt.Sprintf("%s: page %d would be %.2f x %.2f pt", ErrCropGeometry, e.PageIndex+1, e.Width, e.Height)
}

func (e *CropGeometryError) Is(target error) bool { return target == ErrCropGeometry }

// IOError wraps filesystem failures with the operation and path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
