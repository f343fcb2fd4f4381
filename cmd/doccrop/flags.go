package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-doccrop/internal/config"
)

// Flag parsing outcomes.
var (
	ErrUsage     = errors.New("invalid usage")
	ErrHelpShown = errors.New("help shown")
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// marginFlags holds crop margins in millimeters.
type marginFlags struct {
	all    float64
	top    float64
	bottom float64
	left   float64
	right  float64
}

// converterFlags holds document conversion flags.
type converterFlags struct {
	soffice       string
	requireNative bool
	timeout       string
	editable      string
}

// reportFlags holds run report flags.
type reportFlags struct {
	path        string
	title       string
	dateFormat  string
	metricsFile string
}

// cropFlags holds all flags for the crop command.
type cropFlags struct {
	common    commonFlags
	margins   marginFlags
	converter converterFlags
	report    reportFlags
	output    string
	suffix    string
	workers   int
}

// measureFlags holds flags for the measure command.
type measureFlags struct {
	common    commonFlags
	margins   marginFlags
	converter converterFlags
	json      bool
}

// previewFlags holds flags for the preview command.
type previewFlags struct {
	common    commonFlags
	margins   marginFlags
	converter converterFlags
	output    string
	page      int
	scale     float64
	pdftoppm  string
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show progress and debug logs")
}

// addMarginFlags adds margin flags to a FlagSet.
func addMarginFlags(fs *flag.FlagSet, f *marginFlags) {
	fs.Float64VarP(&f.all, "margin", "m", 0, "margin on all sides in mm")
	fs.Float64Var(&f.top, "top", 0, "top margin in mm")
	fs.Float64Var(&f.bottom, "bottom", 0, "bottom margin in mm")
	fs.Float64Var(&f.left, "left", 0, "left margin in mm")
	fs.Float64Var(&f.right, "right", 0, "right margin in mm")
}

// addConverterFlags adds conversion flags to a FlagSet.
func addConverterFlags(fs *flag.FlagSet, f *converterFlags) {
	fs.StringVar(&f.soffice, "soffice", "", "LibreOffice soffice executable")
	fs.BoolVar(&f.requireNative, "require-native", false, "fail unless Word automation is available")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-conversion timeout (e.g., 90s, 2m)")
	fs.StringVar(&f.editable, "editable", "", "output for .docx/.doc inputs: pdf, margins")
}

// addReportFlags adds report flags to a FlagSet.
func addReportFlags(fs *flag.FlagSet, f *reportFlags) {
	fs.StringVar(&f.path, "report", "", "write a run report (.md, .html or .pdf)")
	fs.StringVar(&f.title, "report-title", "", "run report title")
	fs.StringVar(&f.dateFormat, "report-date-format", "", "report timestamp format (e.g., iso, long, DD/MM/YYYY HH:mm)")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
}

// newCropFlagSet registers the crop flags on a new FlagSet.
func newCropFlagSet(f *cropFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("crop", flag.ContinueOnError)
	fs.StringVarP(&f.output, "output", "o", "", "output directory (default: next to each input)")
	fs.StringVarP(&f.suffix, "suffix", "s", config.DefaultSuffix, "suffix added to output file names")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel jobs (0 = auto, max 5)")
	addCommonFlags(fs, &f.common)
	addMarginFlags(fs, &f.margins)
	addConverterFlags(fs, &f.converter)
	addReportFlags(fs, &f.report)
	return fs
}

// newMeasureFlagSet registers the measure flags on a new FlagSet.
func newMeasureFlagSet(f *measureFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("measure", flag.ContinueOnError)
	fs.BoolVar(&f.json, "json", false, "print JSON")
	addCommonFlags(fs, &f.common)
	addMarginFlags(fs, &f.margins)
	addConverterFlags(fs, &f.converter)
	return fs
}

// newPreviewFlagSet registers the preview flags on a new FlagSet.
func newPreviewFlagSet(f *previewFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.StringVarP(&f.output, "output", "o", "", "PNG file to write (default: <name>_page<N>.png)")
	fs.IntVarP(&f.page, "page", "p", 1, "page number, 1-based")
	fs.Float64Var(&f.scale, "scale", config.DefaultScale, "render scale, 1.0 = 72 dpi")
	fs.StringVar(&f.pdftoppm, "pdftoppm", "", "pdftoppm executable")
	addCommonFlags(fs, &f.common)
	addMarginFlags(fs, &f.margins)
	addConverterFlags(fs, &f.converter)
	return fs
}

// parseFlagSet parses args and wraps failures with ErrUsage.
// -h/--help prints usage to stdout and returns ErrHelpShown.
func parseFlagSet(fs *flag.FlagSet, args []string, usage func(io.Writer), env *Environment) ([]string, error) {
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			usage(env.Stdout)
			return nil, ErrHelpShown
		}
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return fs.Args(), nil
}

// mergeMarginFlags overrides config margins with flags the user set.
// --margin applies first, so per-side flags win over it.
func mergeMarginFlags(fs *flag.FlagSet, f *marginFlags, cfg *config.Config) {
	if fs.Changed("margin") {
		cfg.Margins = config.MarginsConfig{Top: f.all, Bottom: f.all, Left: f.all, Right: f.all}
	}
	if fs.Changed("top") {
		cfg.Margins.Top = f.top
	}
	if fs.Changed("bottom") {
		cfg.Margins.Bottom = f.bottom
	}
	if fs.Changed("left") {
		cfg.Margins.Left = f.left
	}
	if fs.Changed("right") {
		cfg.Margins.Right = f.right
	}
}

// mergeConverterFlags overrides converter settings with flags the user set.
func mergeConverterFlags(fs *flag.FlagSet, f *converterFlags, cfg *config.Config) {
	if fs.Changed("soffice") {
		cfg.Converter.Soffice = f.soffice
	}
	if fs.Changed("require-native") {
		cfg.Converter.RequireNative = f.requireNative
	}
	if fs.Changed("timeout") {
		cfg.Converter.Timeout = f.timeout
	}
	if fs.Changed("editable") {
		cfg.Converter.Editable = f.editable
	}
}

// mergeCropFlags overrides cfg with every crop flag the user set.
func mergeCropFlags(fs *flag.FlagSet, f *cropFlags, cfg *config.Config) {
	mergeMarginFlags(fs, &f.margins, cfg)
	mergeConverterFlags(fs, &f.converter, cfg)
	if fs.Changed("output") {
		cfg.Output.Dir = f.output
	}
	if fs.Changed("suffix") {
		cfg.Output.Suffix = f.suffix
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("report") {
		cfg.Report.Path = f.report.path
	}
	if fs.Changed("report-title") {
		cfg.Report.Title = f.report.title
	}
	if fs.Changed("report-date-format") {
		cfg.Report.DateFormat = f.report.dateFormat
	}
	if fs.Changed("metrics-file") {
		cfg.Metrics.File = f.report.metricsFile
	}
}

// mergePreviewFlags overrides cfg with every preview flag the user set.
func mergePreviewFlags(fs *flag.FlagSet, f *previewFlags, cfg *config.Config) {
	mergeMarginFlags(fs, &f.margins, cfg)
	mergeConverterFlags(fs, &f.converter, cfg)
	if fs.Changed("page") {
		cfg.Preview.Page = f.page
	}
	if fs.Changed("scale") {
		cfg.Preview.Scale = f.scale
	}
	if fs.Changed("pdftoppm") {
		cfg.Converter.Pdftoppm = f.pdftoppm
	}
}
