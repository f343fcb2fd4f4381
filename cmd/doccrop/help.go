package main

import (
	"fmt"
	"io"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/config"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: doccrop <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  crop        Crop margins from PDF and Word documents")
	fmt.Fprintln(w, "  measure     Show the crop rectangle of every page")
	fmt.Fprintln(w, "  preview     Render a page with the cropped margins shaded")
	fmt.Fprintln(w, "  doctor      Check converters and tools")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'doccrop help <command>' for details on a specific command.")
}

// printMarginFlags prints the margin flag group shared by every command.
func printMarginFlags(w io.Writer) {
	fmt.Fprintln(w, "Margins (millimeters, applied as each page is displayed):")
	fmt.Fprintln(w, "  -m, --margin <mm>         All four sides")
	fmt.Fprintln(w, "      --top <mm>            Top margin")
	fmt.Fprintln(w, "      --bottom <mm>         Bottom margin")
	fmt.Fprintln(w, "      --left <mm>           Left margin")
	fmt.Fprintln(w, "      --right <mm>          Right margin")
}

// printConverterFlags prints the Word conversion flag group.
func printConverterFlags(w io.Writer) {
	fmt.Fprintln(w, "Conversion (.docx and .doc inputs):")
	fmt.Fprintln(w, "      --soffice <path>      LibreOffice soffice executable")
	fmt.Fprintln(w, "      --require-native      Fail unless Word automation is available")
	fmt.Fprintf(w, "  -t, --timeout <dur>       Per-conversion timeout (default: %s)\n", config.DefaultTimeout)
	fmt.Fprintln(w, "      --editable <s>        Output: pdf (cropped PDF), margins (also a .docx")
	fmt.Fprintln(w, "                            with reduced page margins)")
}

// printCommonFlags prints config and verbosity flags.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show progress and debug logs")
}

// printCropUsage prints usage for the crop command.
func printCropUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: doccrop crop <file|dir>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Crop margins from PDF, .docx and .doc files. Directories are searched")
	fmt.Fprintln(w, "recursively. Each file is processed independently; one failure does not")
	fmt.Fprintln(w, "stop the others.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory (default: next to each input)")
	fmt.Fprintf(w, "  -s, --suffix <s>          Output name suffix (default: %s)\n", config.DefaultSuffix)
	fmt.Fprintf(w, "  -w, --workers <n>         Parallel jobs (0 = auto, max %d)\n", doccrop.MaxWorkers)
	fmt.Fprintln(w)
	printMarginFlags(w)
	fmt.Fprintln(w)
	printConverterFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Reporting:")
	fmt.Fprintln(w, "      --report <path>       Write a run report (.md, .html or .pdf)")
	fmt.Fprintln(w, "      --report-title <s>    Report title")
	fmt.Fprintln(w, "      --report-date-format <s>")
	fmt.Fprintln(w, "                            Report timestamp: iso, datetime, european, us,")
	fmt.Fprintln(w, "                            long, or a pattern like DD/MM/YYYY HH:mm")
	fmt.Fprintln(w, "      --metrics-file <path> Write Prometheus metrics in text format")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  DOCCROP_CONFIG, DOCCROP_OUTPUT_DIR, DOCCROP_SUFFIX, DOCCROP_WORKERS,")
	fmt.Fprintln(w, "  DOCCROP_TIMEOUT, DOCCROP_SOFFICE, DOCCROP_REQUIRE_NATIVE, DOCCROP_EDITABLE,")
	fmt.Fprintln(w, "  DOCCROP_LOG_LEVEL. Flags override environment, environment overrides")
	fmt.Fprintln(w, "  the config file. A .env file in the working directory is read too.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes:")
	fmt.Fprintln(w, "  0 all files cropped, 1 some files failed, 2 invalid usage or margins,")
	fmt.Fprintln(w, "  3 file not found or not writable, 4 converter or tool unavailable")
}

// printMeasureUsage prints usage for the measure command.
func printMeasureUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: doccrop measure <file>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print each page's size and the rectangle left after cropping, in points.")
	fmt.Fprintln(w, "Nothing is written. Fails if any page would be cropped to nothing.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Print JSON")
	fmt.Fprintln(w)
	printMarginFlags(w)
	fmt.Fprintln(w)
	printConverterFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printPreviewUsage prints usage for the preview command.
func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: doccrop preview <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render one page to PNG with the margins a crop would remove shaded.")
	fmt.Fprintln(w, "Requires pdftoppm (poppler).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  -o, --output <path>       PNG file (default: <name>_page<N>.png)")
	fmt.Fprintln(w, "  -p, --page <n>            Page number, 1-based (default: 1)")
	fmt.Fprintf(w, "      --scale <f>           Render scale, 1.0 = 72 dpi (max %v)\n", config.MaxScale)
	fmt.Fprintln(w, "      --pdftoppm <path>     pdftoppm executable")
	fmt.Fprintln(w)
	printMarginFlags(w)
	fmt.Fprintln(w)
	printConverterFlags(w)
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: doccrop doctor [--json]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check Word automation, LibreOffice, pdftoppm and Chrome.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}

	switch args[0] {
	case "crop":
		printCropUsage(env.Stdout)
	case "measure":
		printMeasureUsage(env.Stdout)
	case "preview":
		printPreviewUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: doccrop version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: doccrop help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
	}
}
