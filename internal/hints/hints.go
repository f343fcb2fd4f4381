// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"runtime"
	"strings"

	"github.com/alnah/go-doccrop/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// IsCI reports whether a common CI environment variable is set.
func IsCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForConverterUnavailable returns install hints when no converter resolved.
func ForConverterUnavailable(goos string) string {
	var hints []string
	switch goos {
	case "darwin":
		hints = append(hints, "install LibreOffice: brew install --cask libreoffice")
	case "windows":
		hints = append(hints, "install Microsoft Word or LibreOffice")
	default:
		hints = append(hints, "install LibreOffice: apt install libreoffice-writer")
	}
	hints = append(hints, "or point --soffice / DOCCROP_SOFFICE at the soffice binary")
	return formatHints(hints)
}

// ForRequireNative explains why native automation could not be used.
func ForRequireNative() string {
	if runtime.GOOS != "windows" {
		return format("native Word automation only exists on Windows; drop --require-native")
	}
	return format("check that Microsoft Word is installed and activated for this user")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for large documents, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in the user config directory.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(slashed(p), "go-doccrop/") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForRasterizer returns hints when pdftoppm is missing.
func ForRasterizer() string {
	return format("install poppler (apt install poppler-utils, brew install poppler) or set DOCCROP_PDFTOPPM")
}

// ForBrowserConnect returns hints for rendering a PDF report with Chrome.
func ForBrowserConnect() string {
	var hints []string
	if (IsCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	hints = append(hints, "or write the report as .md or .html")
	return formatHints(hints)
}

// slashed normalizes separators so Windows paths match too.
func slashed(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
