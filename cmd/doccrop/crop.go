package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	doccrop "github.com/alnah/go-doccrop"
	"github.com/alnah/go-doccrop/internal/config"
	"github.com/alnah/go-doccrop/internal/fileutil"
	"github.com/alnah/go-doccrop/internal/report"
)

// Sentinel errors for crop runs.
var (
	ErrJobsFailed = errors.New("some files failed")
	ErrCancelled  = errors.New("run cancelled")
)

// cropRun holds everything one crop invocation builds before dispatching.
type cropRun struct {
	cfg      *config.Config
	margins  doccrop.MarginSpec
	strategy doccrop.EditableStrategy
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *doccrop.Metrics
	gateway  *doccrop.Gateway // nil when every input is a PDF
}

// runCropCmd parses crop flags and runs the batch.
func runCropCmd(ctx context.Context, args []string, env *Environment) error {
	f := &cropFlags{}
	fs := newCropFlagSet(f)
	positional, err := parseFlagSet(fs, args, printCropUsage, env)
	if err != nil {
		return err
	}

	cfg, envCfg, err := loadConfig(&f.common, env)
	if err != nil {
		return err
	}
	mergeCropFlags(fs, f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	return runCrop(ctx, positional, cfg, f.common, newLogger(env.Stderr, f.common.verbose, envCfg.LogLevel), env)
}

// runCrop discovers inputs, runs them through the scheduler and writes
// the optional report and metrics file.
func runCrop(ctx context.Context, positional []string, cfg *config.Config, common commonFlags, logger *slog.Logger, env *Environment) error {
	margins, err := marginsFrom(cfg)
	if err != nil {
		return err
	}
	strategy, err := doccrop.ParseEditableStrategy(cfg.Converter.Editable)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidValue, err)
	}

	inputs, err := discoverInputs(positional)
	if err != nil {
		return err
	}
	if cfg.Output.Dir != "" {
		if err := fileutil.EnsureDir(cfg.Output.Dir); err != nil {
			return fmt.Errorf("%w: %w", ErrOutputDir, err)
		}
	}

	run := &cropRun{cfg: cfg, margins: margins, strategy: strategy, logger: logger, registry: prometheus.NewRegistry()}
	if run.metrics, err = doccrop.NewMetrics(run.registry); err != nil {
		return err
	}
	if needsConverter(inputs) {
		if run.gateway, err = newGateway(cfg, env, logger, run.metrics); err != nil {
			return err
		}
	}

	var converter doccrop.DocumentConverter
	if run.gateway != nil {
		converter = run.gateway
	}
	pipeline := doccrop.NewPipeline(converter,
		doccrop.WithCropper(doccrop.NewCropper(doccrop.WithCropperLogger(logger))),
		doccrop.WithEditableStrategy(strategy),
		doccrop.WithPipelineLogger(logger),
	)
	sched := doccrop.NewScheduler(pipeline,
		doccrop.WithMaxWorkers(cfg.Workers),
		doccrop.WithEvents(&progressPrinter{out: env.Stdout, errw: env.Stderr, quiet: common.quiet, verbose: common.verbose}),
		doccrop.WithSchedulerLogger(logger),
		doccrop.WithMetrics(run.metrics),
		doccrop.WithOutputClaims(doccrop.OutputClaims{}),
	)

	summary := runBatches(ctx, sched, buildJobs(inputs, margins, cfg))
	if !common.quiet {
		printSummary(env.Stdout, summary)
	}

	runErr := summaryError(summary)
	if err := run.writeArtifacts(ctx, summary, sched.Workers(), env); err != nil {
		if runErr != nil {
			fmt.Fprintf(env.Stderr, "warning: %v\n", errorWithHint(err))
			return runErr
		}
		return err
	}
	return runErr
}

// needsConverter reports whether any input requires format conversion.
func needsConverter(inputs []inputFile) bool {
	for _, in := range inputs {
		if f, err := doccrop.DetectFormat(in.Path); err == nil && f != doccrop.FormatPDF {
			return true
		}
	}
	return false
}

// buildJobs turns discovered inputs into scheduler jobs.
func buildJobs(inputs []inputFile, margins doccrop.MarginSpec, cfg *config.Config) []doccrop.BatchJob {
	suffix := cfg.Output.Suffix
	if suffix == "" {
		suffix = doccrop.DefaultSuffix
	}
	jobs := make([]doccrop.BatchJob, 0, len(inputs))
	for _, in := range inputs {
		jobs = append(jobs, doccrop.BatchJob{
			FilePath:     in.Path,
			Margins:      margins,
			OutputDir:    in.outputDir(cfg.Output.Dir),
			OutputSuffix: suffix,
		})
	}
	return jobs
}

// runBatches feeds jobs to the scheduler in chunks that fit its queue and
// merges the summaries. Chunks not started before cancellation are skipped,
// matching the scheduler's handling of unstarted jobs.
func runBatches(ctx context.Context, sched *doccrop.Scheduler, jobs []doccrop.BatchJob) doccrop.BatchSummary {
	var total doccrop.BatchSummary
	start := time.Now()
	for len(jobs) > 0 {
		if ctx.Err() != nil || total.Cancelled {
			total.Cancelled = true
			break
		}
		n := min(len(jobs), doccrop.MaxQueuedJobs)
		for _, job := range jobs[:n] {
			sched.Enqueue(job)
		}
		jobs = jobs[n:]
		mergeSummary(&total, sched.Run(ctx))
	}
	total.Elapsed = time.Since(start)
	return total
}

func mergeSummary(dst *doccrop.BatchSummary, s doccrop.BatchSummary) {
	dst.TotalFiles += s.TotalFiles
	dst.Successful += s.Successful
	dst.Failed += s.Failed
	dst.FailedFiles = append(dst.FailedFiles, s.FailedFiles...)
	dst.Outcomes = append(dst.Outcomes, s.Outcomes...)
	dst.Cancelled = dst.Cancelled || s.Cancelled
}

// summaryError returns nil when every job succeeded. When all failures share
// an unavailable converter, that cause is wrapped so the exit code and hint
// point at the missing tool.
func summaryError(s doccrop.BatchSummary) error {
	if s.Cancelled {
		return fmt.Errorf("%w: %d of %d files done", ErrCancelled, s.Successful, s.TotalFiles)
	}
	if s.Failed == 0 {
		return nil
	}

	err := fmt.Errorf("%w: %d of %d", ErrJobsFailed, s.Failed, s.TotalFiles)
	var cause error
	for _, o := range s.Outcomes {
		if o.Success {
			continue
		}
		if !errors.Is(o.Err, doccrop.ErrConverterUnavailable) {
			return err
		}
		cause = o.Err
	}
	return fmt.Errorf("%w: %w", err, cause)
}

// writeArtifacts writes the run report and metrics textfile when configured.
// Both are written even after cancellation.
func (r *cropRun) writeArtifacts(ctx context.Context, summary doccrop.BatchSummary, workers int, env *Environment) error {
	ctx = context.WithoutCancel(ctx)

	if path := r.cfg.Report.Path; path != "" {
		settings := report.Settings{
			Title:      r.cfg.Report.Title,
			DateFormat: r.cfg.Report.DateFormat,
			Margins:    r.margins,
			Output:     r.cfg.Output.Dir,
			Suffix:     r.cfg.Output.Suffix,
			Workers:    workers,
			Editable:   string(r.strategy),
			Timeout:    r.cfg.Converter.Timeout,
		}
		if r.gateway != nil {
			settings.Tiers = r.gateway.Status()
		}
		if err := env.Report.Write(ctx, path, summary, settings); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		r.logger.Info("report written", "path", path)
	}

	if path := r.cfg.Metrics.File; path != "" {
		if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
		r.logger.Info("metrics written", "path", path)
	}
	return nil
}

// progressPrinter reports scheduler events on the terminal. The scheduler
// serializes calls, so no locking is needed.
type progressPrinter struct {
	out     io.Writer
	errw    io.Writer
	quiet   bool
	verbose bool
}

func (p *progressPrinter) OnProgress(fileName string, percent int) {
	if p.verbose {
		fmt.Fprintf(p.errw, "  %3d%%  %s\n", percent, fileName)
	}
}

func (p *progressPrinter) OnJobDone(fileName string, success bool, message string) {
	if !success {
		fmt.Fprintf(p.errw, "FAILED %s: %s\n", fileName, message)
		return
	}
	if !p.quiet {
		fmt.Fprintf(p.out, "ok     %s: %s\n", fileName, message)
	}
}

func (p *progressPrinter) OnRunDone(int, int) {}

// printSummary writes the one-line run summary.
func printSummary(w io.Writer, s doccrop.BatchSummary) {
	var b strings.Builder
	fmt.Fprintf(&b, "Cropped %d of %d files in %s", s.Successful, s.TotalFiles, s.Elapsed.Round(time.Millisecond))
	if s.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.Failed)
	}
	if s.Cancelled {
		b.WriteString(" (cancelled)")
	}
	fmt.Fprintln(w, b.String())
}
