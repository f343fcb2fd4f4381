package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	doccrop "github.com/alnah/go-doccrop"
)

// Writer renders reports to disk, choosing the format from the file extension.
type Writer struct {
	HTML *HTMLRenderer
	PDF  PDFRenderer
	Now  func() time.Time
}

// NewWriter returns a Writer with embedded assets and a go-rod PDF renderer.
func NewWriter() *Writer {
	return &Writer{
		HTML: NewHTMLRenderer(nil),
		PDF:  &RodRenderer{},
		Now:  time.Now,
	}
}

// Write renders summary to path as .md, .html/.htm or .pdf.
func (w *Writer) Write(ctx context.Context, path string, summary doccrop.BatchSummary, s Settings) error {
	md, err := Build(summary, s, w.Now())
	if err != nil {
		return err
	}

	title := s.Title
	if title == "" {
		title = DefaultTitle
	}

	var data []byte
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".md":
		data = []byte(md)
	case ".html", ".htm":
		html, err := w.HTML.ToHTML(ctx, title, md)
		if err != nil {
			return err
		}
		data = []byte(html)
	case ".pdf":
		html, err := w.HTML.ToHTML(ctx, title, md)
		if err != nil {
			return err
		}
		if data, err = w.PDF.ToPDF(ctx, html); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported report extension %q (want .md, .html or .pdf)", ext)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
