package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/config"
	"github.com/alnah/go-doccrop/internal/fileutil"
)

// doctorVersionTimeout bounds each "--version" probe.
const doctorVersionTimeout = 15 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status     string         `json:"status"` // "ready", "warnings", "errors"
	Converter  converterInfo  `json:"converter"`
	Rasterizer rasterizerInfo `json:"rasterizer"`
	Chrome     chromeInfo     `json:"chrome"`
	Env        envInfo        `json:"environment"`
	System     systemInfo     `json:"system"`
	Warnings   []string       `json:"warnings,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
}

// converterInfo holds the gateway's tier resolution.
type converterInfo struct {
	doccrop.GatewayStatus
	SofficeVersion string `json:"sofficeVersion,omitempty"`
}

// rasterizerInfo holds pdftoppm detection results.
type rasterizerInfo struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results, used for PDF reports.
type chromeInfo struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	jsonOutput := false
	for _, arg := range args {
		switch arg {
		case "--json":
			jsonOutput = true
		case "-h", "--help":
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
	}

	result := runDoctor(ctx, env)

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks. Tool paths honour DOCCROP_SOFFICE
// and DOCCROP_PDFTOPPM the same way crop and preview do.
func runDoctor(ctx context.Context, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	cfg := config.DefaultConfig()
	applyEnvConfig(loadEnvConfig(env.Getenv), cfg)

	checkConverter(ctx, result, cfg, env)
	checkRasterizer(result, cfg, env)
	checkChrome(result)
	checkEnvironment(result, env)
	checkSystem(result)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConverter resolves the conversion tiers without converting anything.
// A missing converter is a warning: PDF inputs still crop.
func checkConverter(ctx context.Context, result *doctorResult, cfg *config.Config, env *Environment) {
	cfg.Converter.RequireNative = false
	gateway, err := newGateway(cfg, env, nil, nil)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return
	}
	status := gateway.Status()
	result.Converter.GatewayStatus = status

	if status.SofficePath != "" {
		result.Converter.SofficeVersion = toolVersion(ctx, env, status.SofficePath)
	}
	if !status.NativeOK && status.SofficePath == "" {
		result.Warnings = append(result.Warnings,
			"No document converter found: .docx/.doc inputs will fail. Install LibreOffice or set DOCCROP_SOFFICE")
	}
}

// checkRasterizer locates pdftoppm for the preview command.
func checkRasterizer(result *doctorResult, cfg *config.Config, env *Environment) {
	path, err := newRasterizer(cfg, env).Locate()
	if err != nil {
		result.Warnings = append(result.Warnings,
			"pdftoppm not found: preview is unavailable. Install poppler or set DOCCROP_PDFTOPPM")
		return
	}
	result.Rasterizer = rasterizerInfo{Found: true, Path: path}
}

// checkChrome detects Chrome/Chromium for PDF reports.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin
	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found: --report only supports .md and .html. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}
	if _, err := os.Stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}
	result.Chrome = chromeInfo{Found: true, Path: chromePath}
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env.Getenv)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if env.Getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	// Explicit override (highest priority)
	if getenv("DOCCROP_CONTAINER") == "1" {
		return true, "DOCCROP_CONTAINER=1"
	}
	// Docker
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	// Kubernetes
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory used for conversions is writable.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	if err := fileutil.CheckWritable(tmpDir); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
		return
	}
	result.System.TempWritable = true
}

// toolVersion returns the first line of "<path> --version", or "" on failure.
func toolVersion(ctx context.Context, env *Environment, path string) string {
	runner := env.Runner
	if runner == nil {
		runner = &doccrop.ExecRunner{}
	}
	ctx, cancel := context.WithTimeout(ctx, doctorVersionTimeout)
	defer cancel()
	stdout, _, err := runner.Run(ctx, path, "--version")
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(stdout), "\n")
	return line
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "doccrop doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Converter")
	c := r.Converter
	switch {
	case c.NativeOK:
		fmt.Fprintf(w, "  [OK] Native automation: %s\n", c.NativeName)
	case c.NativeError != "":
		fmt.Fprintf(w, "  [--] Native automation: %s\n", c.NativeError)
	}
	if c.SofficePath != "" {
		fmt.Fprintf(w, "  [OK] LibreOffice: %s\n", c.SofficePath)
		if c.SofficeVersion != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", c.SofficeVersion)
		}
	} else {
		fmt.Fprintf(w, "  [WARN] LibreOffice: %s\n", c.SofficeErr)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Preview")
	if r.Rasterizer.Found {
		fmt.Fprintf(w, "  [OK] pdftoppm: %s\n", r.Rasterizer.Path)
	} else {
		fmt.Fprintln(w, "  [WARN] pdftoppm: not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Reports")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Chrome: %s\n", r.Chrome.Path)
	} else {
		fmt.Fprintln(w, "  [WARN] Chrome: not found (PDF reports unavailable)")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintf(w, "  [OK] Temp directory: %s\n", filepath.Clean(os.TempDir()))
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to crop")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
