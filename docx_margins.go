package doccrop

import (
	"archive/zip"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"strconv"
)

const docxBodyPart = "word/document.xml"

var (
	pgMarTag  = regexp.MustCompile(`<w:pgMar\b[^>]*>`)
	pgMarAttr = regexp.MustCompile(`\bw:(top|bottom|left|right)="(-?\d+)"`)
)

// AdjustDocxMargins copies the .docx at input to output with every section's
// page margins reduced by m, clamped at zero. Text and images are copied as is.
// It returns the number of sections changed.
func AdjustDocxMargins(input, output string, m MarginSpec) (int, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	zr, err := zip.OpenReader(input)
	if err != nil {
		return 0, &IOError{Op: "open", Path: input, Err: err}
	}
	defer func() { _ = zr.Close() }()

	tmp := output + ".part"
	f, err := os.Create(tmp) // #nosec G304 -- output path built by the pipeline
	if err != nil {
		return 0, &IOError{Op: "create", Path: output, Err: err}
	}

	sections, werr := rewriteDocx(&zr.Reader, f, m)
	if cerr := f.Close(); werr == nil && cerr != nil {
		werr = &IOError{Op: "close", Path: output, Err: cerr}
	}
	if werr != nil {
		_ = os.Remove(tmp)
		return 0, werr
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return 0, &IOError{Op: "rename", Path: output, Err: err}
	}
	return sections, nil
}

func rewriteDocx(zr *zip.Reader, w io.Writer, m MarginSpec) (int, error) {
	zw := zip.NewWriter(w)
	sections := 0
	found := false

	for _, entry := range zr.File {
		if entry.Name != docxBodyPart {
			if err := zw.Copy(entry); err != nil {
				return 0, fmt.Errorf("copying %s: %w", entry.Name, err)
			}
			continue
		}
		found = true

		rc, err := entry.Open()
		if err != nil {
			return 0, fmt.Errorf("opening %s: %w", entry.Name, err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", entry.Name, err)
		}

		var updated []byte
		updated, sections = reduceMargins(body, m)

		out, err := zw.CreateHeader(&zip.FileHeader{
			Name:     entry.Name,
			Method:   zip.Deflate,
			Modified: entry.Modified,
		})
		if err != nil {
			return 0, fmt.Errorf("writing %s: %w", entry.Name, err)
		}
		if _, err := out.Write(updated); err != nil {
			return 0, fmt.Errorf("writing %s: %w", entry.Name, err)
		}
	}

	if !found {
		return 0, fmt.Errorf("%w: missing %s", ErrUnsupportedFormat, docxBodyPart)
	}
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("finishing archive: %w", err)
	}
	return sections, nil
}

// reduceMargins rewrites the w:pgMar elements of a document body.
func reduceMargins(body []byte, m MarginSpec) ([]byte, int) {
	crop := map[string]float64{
		"top":    m.Top * PtPerMM * twipsPerPt,
		"bottom": m.Bottom * PtPerMM * twipsPerPt,
		"left":   m.Left * PtPerMM * twipsPerPt,
		"right":  m.Right * PtPerMM * twipsPerPt,
	}
	count := 0
	out := pgMarTag.ReplaceAllFunc(body, func(tag []byte) []byte {
		count++
		return pgMarAttr.ReplaceAllFunc(tag, func(attr []byte) []byte {
			sub := pgMarAttr.FindSubmatch(attr)
			v, err := strconv.Atoi(string(sub[2]))
			if err != nil {
				return attr
			}
			return fmt.Appendf(nil, `w:%s="%d"`, sub[1], shrinkTwips(v, crop[string(sub[1])]))
		})
	})
	return out, count
}

// shrinkTwips moves v toward zero by amount. Negative top/bottom values mean
// "exact" margins in OOXML and keep their sign.
func shrinkTwips(v int, amount float64) int {
	a := int(math.Round(amount))
	if v >= 0 {
		return max(0, v-a)
	}
	return min(0, v+a)
}
