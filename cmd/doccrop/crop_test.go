package main

// Notes:
// - runCropCmd: we test routing of flags, env and config into outputs, exit
//   codes for partial failure, and the optional report and metrics files.
//   soffice is faked by fakeSoffice, which writes a real PDF.
// - summaryError / mergeSummary / buildJobs: pure helpers, table tested.
// These are acceptable gaps: PDF reports need Chrome and are covered by the
// report package's renderer tests.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/config"
)

// ---------------------------------------------------------------------------
// TestRunCropCmd - End-to-end crop runs
// ---------------------------------------------------------------------------

func TestRunCropCmd_OutputDirMirrorsTree(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writePDF(t, filepath.Join(src, "a.pdf"))
	writePDF(t, filepath.Join(src, "sub", "a.pdf"))
	writeFile(t, filepath.Join(src, "notes.txt"), []byte("skip me"))
	env := newTestEnv(nil)

	err := runCropCmd(context.Background(), []string{src, "-o", out, "-m", "5"}, env.Environment)
	if err != nil {
		t.Fatalf("unexpected error: %v (stderr: %s)", err, env.stderr)
	}

	assertExists(t, filepath.Join(out, "a_cropped.pdf"))
	assertExists(t, filepath.Join(out, "sub", "a_cropped.pdf"))
	assertNotExists(t, filepath.Join(src, "a_cropped.pdf"))
	if got := env.runner.count(); got != 0 {
		t.Errorf("PDF-only run invoked %d external tools", got)
	}
}

func TestRunCropCmd_PartialFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writePDF(t, filepath.Join(dir, "good.pdf"))
	small := writePDF(t, filepath.Join(dir, "small.pdf"), [4]float64{0, 0, 50, 50})
	env := newTestEnv(nil)

	// 10 mm is about 28 pt per side, which empties a 50 pt page.
	err := runCropCmd(context.Background(), []string{good, small, "-m", "10"}, env.Environment)

	if !errors.Is(err, ErrJobsFailed) {
		t.Fatalf("error = %v, want ErrJobsFailed", err)
	}
	if code := exitCodeFor(err); code != ExitGeneral {
		t.Errorf("exit code = %d, want %d", code, ExitGeneral)
	}
	assertExists(t, filepath.Join(dir, "good_cropped.pdf"))
	assertNotExists(t, filepath.Join(dir, "small_cropped.pdf"))
	if !strings.Contains(env.stderr.String(), "FAILED small.pdf") {
		t.Errorf("stderr = %q, want failure line", env.stderr)
	}
	if !strings.Contains(env.stdout.String(), "(1 failed)") {
		t.Errorf("stdout = %q, want failed count", env.stdout)
	}
}

func TestRunCropCmd_ExplicitUnsupportedFileIsReported(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	writeFile(t, txt, []byte("hello"))
	env := newTestEnv(nil)

	err := runCropCmd(context.Background(), []string{txt}, env.Environment)

	if !errors.Is(err, ErrJobsFailed) {
		t.Fatalf("error = %v, want ErrJobsFailed", err)
	}
	if !strings.Contains(env.stderr.String(), "unsupported file format") {
		t.Errorf("stderr = %q, want unsupported format message", env.stderr)
	}
}

func TestRunCropCmd_WordWithoutConverter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "letter.docx")
	writeFile(t, doc, []byte("PK fake"))
	env := newTestEnv(nil)

	err := runCropCmd(context.Background(), []string{doc}, env.Environment)

	if !errors.Is(err, doccrop.ErrConverterUnavailable) {
		t.Fatalf("error = %v, want ErrConverterUnavailable", err)
	}
	if code := exitCodeFor(err); code != ExitTool {
		t.Errorf("exit code = %d, want %d", code, ExitTool)
	}
	if hint := errorWithHint(err); !strings.Contains(hint, "hint:") {
		t.Errorf("errorWithHint = %q, want an install hint", hint)
	}
}

func TestRunCropCmd_WordViaSoffice(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "letter.docx")
	writeFile(t, doc, []byte("PK fake"))
	env := newTestEnv(nil).withSoffice()

	err := runCropCmd(context.Background(), []string{doc, "-m", "10"}, env.Environment)
	if err != nil {
		t.Fatalf("unexpected error: %v (stderr: %s)", err, env.stderr)
	}

	assertExists(t, filepath.Join(dir, "letter_cropped.pdf"))
	if env.runner.count() == 0 {
		t.Error("expected soffice to be invoked")
	}
}

func TestRunCropCmd_EnvAndFlagPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, filepath.Join(dir, "scan.pdf"))
	cfgPath := filepath.Join(dir, "doccrop.yaml")
	writeFile(t, cfgPath, []byte("output:\n  suffix: _file\nmargins:\n  top: 5\n"))

	t.Run("env overrides config file", func(t *testing.T) {
		env := newTestEnv(map[string]string{"DOCCROP_CONFIG": cfgPath, "DOCCROP_SUFFIX": "_env"})
		if err := runCropCmd(context.Background(), []string{in, "-q"}, env.Environment); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertExists(t, filepath.Join(dir, "scan_env.pdf"))
	})

	t.Run("flag overrides env", func(t *testing.T) {
		env := newTestEnv(map[string]string{"DOCCROP_CONFIG": cfgPath, "DOCCROP_SUFFIX": "_env"})
		if err := runCropCmd(context.Background(), []string{in, "-q", "-s", "_flag"}, env.Environment); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertExists(t, filepath.Join(dir, "scan_flag.pdf"))
	})

	t.Run("config file applies", func(t *testing.T) {
		env := newTestEnv(nil)
		if err := runCropCmd(context.Background(), []string{in, "-q", "-c", cfgPath}, env.Environment); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertExists(t, filepath.Join(dir, "scan_file.pdf"))
	})

	t.Run("unknown variable warns", func(t *testing.T) {
		env := newTestEnv(map[string]string{"DOCCROP_SUFIX": "_typo"})
		_ = runCropCmd(context.Background(), []string{in, "-s", "_warn"}, env.Environment)
		if !strings.Contains(env.stderr.String(), "DOCCROP_SUFIX") {
			t.Errorf("stderr = %q, want warning about DOCCROP_SUFIX", env.stderr)
		}
	})
}

func TestRunCropCmd_ConfigNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil)
	err := runCropCmd(context.Background(), []string{"-c", "no-such-config-name", "x.pdf"}, env.Environment)

	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Fatalf("error = %v, want ErrConfigNotFound", err)
	}
	if !strings.Contains(err.Error(), "hint:") {
		t.Errorf("error = %q, want a hint", err)
	}
}

func TestRunCropCmd_ReportAndMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, filepath.Join(dir, "scan.pdf"), a4, a4)
	reportPath := filepath.Join(dir, "reports", "run.md")
	metricsPath := filepath.Join(dir, "doccrop.prom")
	env := newTestEnv(nil)

	err := runCropCmd(context.Background(), []string{
		in, "-q", "-m", "10",
		"--report", reportPath, "--report-title", "Nightly scans",
		"--metrics-file", metricsPath,
	}, env.Environment)
	if err != nil {
		t.Fatalf("unexpected error: %v (stderr: %s)", err, env.stderr)
	}

	md, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(md), "# Nightly scans") {
		t.Errorf("report missing title:\n%s", md)
	}
	if !strings.Contains(string(md), "scan.pdf") {
		t.Errorf("report missing file row:\n%s", md)
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	for _, want := range []string{
		`doccrop_jobs_total{format="pdf",result="success"} 1`,
		"doccrop_pages_cropped_total 2",
	} {
		if !strings.Contains(string(prom), want) {
			t.Errorf("metrics missing %q:\n%s", want, prom)
		}
	}
}

func TestRunCropCmd_CancelledContext(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, filepath.Join(dir, "scan.pdf"))
	env := newTestEnv(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runCropCmd(ctx, []string{in}, env.Environment)

	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("error = %v, want ErrCancelled", err)
	}
	assertNotExists(t, filepath.Join(dir, "scan_cropped.pdf"))
}

// ---------------------------------------------------------------------------
// TestSummaryError - Run outcome to error
// ---------------------------------------------------------------------------

func TestSummaryError(t *testing.T) {
	t.Parallel()

	unavailable := &doccrop.ConverterUnavailableError{Reason: "soffice not found"}
	ok := doccrop.CropOutcome{Success: true}
	failed := func(err error) doccrop.CropOutcome { return doccrop.CropOutcome{Err: err, ErrorMessage: err.Error()} }

	tests := []struct {
		name     string
		summary  doccrop.BatchSummary
		wantNil  bool
		wantCode int
	}{
		{"all ok", doccrop.BatchSummary{TotalFiles: 1, Successful: 1, Outcomes: []doccrop.CropOutcome{ok}}, true, ExitSuccess},
		{"empty", doccrop.BatchSummary{}, true, ExitSuccess},
		{
			"mixed failures",
			doccrop.BatchSummary{TotalFiles: 2, Failed: 2, Outcomes: []doccrop.CropOutcome{failed(unavailable), failed(errors.New("boom"))}},
			false, ExitGeneral,
		},
		{
			"all converter unavailable",
			doccrop.BatchSummary{TotalFiles: 3, Successful: 1, Failed: 2, Outcomes: []doccrop.CropOutcome{ok, failed(unavailable), failed(unavailable)}},
			false, ExitTool,
		},
		{"cancelled", doccrop.BatchSummary{TotalFiles: 1, Successful: 1, Cancelled: true}, false, ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := summaryError(tt.summary)
			if (err == nil) != tt.wantNil {
				t.Fatalf("summaryError() = %v, wantNil %v", err, tt.wantNil)
			}
			if code := exitCodeFor(err); code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestMergeSummary(t *testing.T) {
	t.Parallel()

	var total doccrop.BatchSummary
	mergeSummary(&total, doccrop.BatchSummary{TotalFiles: 2, Successful: 1, Failed: 1, FailedFiles: []string{"a"}, Outcomes: make([]doccrop.CropOutcome, 2)})
	mergeSummary(&total, doccrop.BatchSummary{TotalFiles: 1, Failed: 1, FailedFiles: []string{"b"}, Outcomes: make([]doccrop.CropOutcome, 1), Cancelled: true})

	if total.TotalFiles != 3 || total.Successful != 1 || total.Failed != 2 {
		t.Errorf("counts = %d/%d/%d, want 3/1/2", total.TotalFiles, total.Successful, total.Failed)
	}
	if len(total.FailedFiles) != 2 || len(total.Outcomes) != 3 {
		t.Errorf("FailedFiles = %v, Outcomes = %d", total.FailedFiles, len(total.Outcomes))
	}
	if !total.Cancelled {
		t.Error("Cancelled should be sticky")
	}
}

func TestRunBatches_ChunksLargeRuns(t *testing.T) {
	t.Parallel()

	n := doccrop.MaxQueuedJobs + 7
	jobs := make([]doccrop.BatchJob, n)
	for i := range jobs {
		jobs[i] = doccrop.BatchJob{FilePath: fmt.Sprintf("/in/%03d.pdf", i)}
	}
	proc := jobFunc(func(job doccrop.BatchJob) doccrop.CropOutcome {
		return doccrop.SucceededOutcome(job, "out", "", 1, 0)
	})
	sched := doccrop.NewScheduler(proc, doccrop.WithMaxWorkers(2))

	summary := runBatches(context.Background(), sched, jobs)

	if summary.TotalFiles != n || summary.Successful != n {
		t.Errorf("summary = %d total, %d ok, want %d", summary.TotalFiles, summary.Successful, n)
	}
}

func TestRunBatches_OutputClaimsSpanChunks(t *testing.T) {
	t.Parallel()

	n := doccrop.MaxQueuedJobs + 1
	jobs := make([]doccrop.BatchJob, n)
	for i := range jobs {
		jobs[i] = doccrop.BatchJob{FilePath: fmt.Sprintf("/in/%03d.pdf", i), OutputDir: "/out", OutputSuffix: doccrop.DefaultSuffix}
	}
	// Lands in the second chunk with the same output as the first job.
	jobs[n-1].FilePath = "/in/000.docx"
	proc := jobFunc(func(job doccrop.BatchJob) doccrop.CropOutcome {
		return doccrop.SucceededOutcome(job, "out", "", 1, 0)
	})
	sched := doccrop.NewScheduler(proc, doccrop.WithOutputClaims(doccrop.OutputClaims{}))

	summary := runBatches(context.Background(), sched, jobs)

	if summary.Successful != n-1 || summary.Failed != 1 {
		t.Fatalf("summary = %d ok, %d failed, want %d and 1", summary.Successful, summary.Failed, n-1)
	}
	if len(summary.FailedFiles) != 1 || summary.FailedFiles[0] != "/in/000.docx" {
		t.Errorf("FailedFiles = %v", summary.FailedFiles)
	}
	for _, o := range summary.Outcomes {
		if !o.Success && !errors.Is(o.Err, doccrop.ErrIO) {
			t.Errorf("error = %v, want ErrIO", o.Err)
		}
	}
}

func TestBuildJobs(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Output.Dir = "/out"
	cfg.Output.Suffix = ""
	m := doccrop.UniformMargins(3)

	jobs := buildJobs([]inputFile{
		{Path: "/in/a.pdf"},
		{Path: "/src/x/b.pdf", Root: "/src"},
	}, m, cfg)

	if len(jobs) != 2 {
		t.Fatalf("got %d jobs", len(jobs))
	}
	if jobs[0].OutputDir != "/out" || jobs[1].OutputDir != filepath.Join("/out", "x") {
		t.Errorf("output dirs = %q, %q", jobs[0].OutputDir, jobs[1].OutputDir)
	}
	for _, j := range jobs {
		if j.OutputSuffix != doccrop.DefaultSuffix {
			t.Errorf("suffix = %q, want default", j.OutputSuffix)
		}
		if j.Margins != m {
			t.Errorf("margins = %v, want %v", j.Margins, m)
		}
	}
}

// jobFunc adapts a function to doccrop.JobProcessor.
type jobFunc func(doccrop.BatchJob) doccrop.CropOutcome

func (f jobFunc) Process(_ context.Context, job doccrop.BatchJob, _ doccrop.ProgressFunc) doccrop.CropOutcome {
	return f(job)
}
