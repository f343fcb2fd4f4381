package main

// Notes:
// - runMain: we test dispatch and exit codes end to end with a fake
//   environment. Cropping itself is covered by the library tests; here we
//   only check that outputs appear where the flags say.
// - looksLikeInput and hasVerboseFlag: table tests on argument shapes.
// These are acceptable gaps: we do not exercise maxprocs logging or a real
// .env file, both thin wrappers around their libraries.

import (
	"path/filepath"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRunMain - Dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRunMain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no command", []string{"doccrop"}, ExitUsage, "", "Usage: doccrop"},
		{"version", []string{"doccrop", "version"}, ExitSuccess, "doccrop dev", ""},
		{"version flag", []string{"doccrop", "--version"}, ExitSuccess, "doccrop dev", ""},
		{"help", []string{"doccrop", "help"}, ExitSuccess, "Commands:", ""},
		{"help crop", []string{"doccrop", "help", "crop"}, ExitSuccess, "--suffix", ""},
		{"crop --help", []string{"doccrop", "crop", "--help"}, ExitSuccess, "Usage: doccrop crop", ""},
		{"unknown command", []string{"doccrop", "shrink"}, ExitUsage, "", "Unknown command: shrink"},
		{"unknown flag", []string{"doccrop", "crop", "--nope"}, ExitUsage, "", "invalid usage"},
		{"crop without input", []string{"doccrop", "crop"}, ExitIO, "", "no input specified"},
		{"missing input", []string{"doccrop", "crop", "/does/not/exist.pdf"}, ExitIO, "", "reading input"},
		{"negative margin", []string{"doccrop", "crop", "--top", "-1", "x.pdf"}, ExitUsage, "", "margins.top"},
		{"bad shell", []string{"doccrop", "completion", "tcsh"}, ExitUsage, "", "unsupported shell"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(nil)

			code := runMain(tt.args, env.Environment)

			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, env.stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(env.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want to contain %q", env.stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(env.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want to contain %q", env.stderr, tt.wantStderr)
			}
		})
	}
}

func TestRunMain_CropsPDF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, filepath.Join(dir, "scan.pdf"))
	env := newTestEnv(nil)

	code := runMain([]string{"doccrop", "crop", "-m", "10", in}, env.Environment)

	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	assertExists(t, filepath.Join(dir, "scan_cropped.pdf"))
	if !strings.Contains(env.stdout.String(), "Cropped 1 of 1 files") {
		t.Errorf("stdout = %q, want summary line", env.stdout)
	}
}

func TestRunMain_BarePathCrops(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writePDF(t, filepath.Join(dir, "scan.pdf"))
	env := newTestEnv(nil)

	code := runMain([]string{"doccrop", in, "--suffix", "_trim", "-q"}, env.Environment)

	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, env.stderr)
	}
	assertExists(t, filepath.Join(dir, "scan_trim.pdf"))
	if env.stdout.Len() != 0 {
		t.Errorf("quiet run wrote to stdout: %q", env.stdout)
	}
}

// ---------------------------------------------------------------------------
// TestLooksLikeInput - Command vs path detection
// ---------------------------------------------------------------------------

func TestLooksLikeInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg  string
		want bool
	}{
		{"report.pdf", true},
		{"Letter.DOCX", true},
		{"old.doc", true},
		{"./scans", true},
		{"scans/", true},
		{"crop", false},
		{"-m", false},
		{"notes.txt", false},
	}

	for _, tt := range tests {
		if got := looksLikeInput(tt.arg); got != tt.want {
			t.Errorf("looksLikeInput(%q) = %v, want %v", tt.arg, got, tt.want)
		}
	}
}

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"-v", "a.pdf"}, true},
		{[]string{"a.pdf", "--verbose"}, true},
		{[]string{"a.pdf"}, false},
		{[]string{"--", "-v"}, false},
	}

	for _, tt := range tests {
		if got := hasVerboseFlag(tt.args); got != tt.want {
			t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}
