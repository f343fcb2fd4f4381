package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/report"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - PDF fixtures
// ---------------------------------------------------------------------------

// a4 is an A4 MediaBox in points.
var a4 = [4]float64{0, 0, 595.28, 841.89}

// minimalPDF returns a valid PDF with one page per MediaBox.
func minimalPDF(boxes ...[4]float64) []byte {
	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(boxes))
	for i := range boxes {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(boxes)))
	for i, b := range boxes {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [%g %g %g %g] /Resources << >> /Contents %d 0 R >>",
			b[0], b[1], b[2], b[3], 4+2*i))
		content := "0 0 m 100 100 l S"
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// writePDF writes a PDF with the given MediaBoxes (A4 when none).
func writePDF(t *testing.T, path string, boxes ...[4]float64) string {
	t.Helper()
	if len(boxes) == 0 {
		boxes = [][4]float64{a4}
	}
	writeFile(t, path, minimalPDF(boxes...))
	return path
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment
// ---------------------------------------------------------------------------

// fakeRunner records calls and delegates to fn.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string
	fn    func(name string, args []string) (string, string, error)
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string{name}, args...))
	r.mu.Unlock()
	if r.fn == nil {
		return "", "", errors.New("tool not available")
	}
	return r.fn(name, args)
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// argAfter returns the argument following flag, or "".
func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

// fakeSoffice writes a one-page A4 PDF where soffice would.
func fakeSoffice(name string, args []string) (string, string, error) {
	if argAfter(args, "--convert-to") == "" {
		return "LibreOffice 7.6.4.1", "", nil
	}
	input := args[len(args)-1]
	target := "." + argAfter(args, "--convert-to")
	out := filepath.Join(argAfter(args, "--outdir"), doccrop.OutputName(input, "", target))
	if err := os.WriteFile(out, minimalPDF(a4), 0o600); err != nil {
		return "", err.Error(), err
	}
	return "", "", nil
}

// lookPathFor resolves only the named tools, to /fake/<name>.
func lookPathFor(tools ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, t := range tools {
			if t == name {
				return "/fake/" + name, nil
			}
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

// testEnv is an Environment with captured output, a fixed clock, the given
// variables, and no external tools.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	runner *fakeRunner
}

func newTestEnv(vars map[string]string) *testEnv {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	runner := &fakeRunner{}
	now := func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }
	w := report.NewWriter()
	w.Now = now

	return &testEnv{
		Environment: &Environment{
			Now:    now,
			Stdout: stdout,
			Stderr: stderr,
			Getenv: func(k string) string { return vars[k] },
			Environ: func() []string {
				out := make([]string, 0, len(vars))
				for k, v := range vars {
					out = append(out, k+"="+v)
				}
				return out
			},
			Runner:             runner,
			LookPath:           lookPathFor(),
			SofficeSearchPaths: []string{},
			Report:             w,
		},
		stdout: stdout,
		stderr: stderr,
		runner: runner,
	}
}

// withSoffice makes soffice resolvable and convert with fakeSoffice.
func (e *testEnv) withSoffice() *testEnv {
	e.LookPath = lookPathFor("soffice")
	e.runner.fn = fakeSoffice
	return e
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected %s not to exist", path)
	}
}
