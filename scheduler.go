package doccrop

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// MaxQueuedJobs is the hard cap on jobs queued for one run.
const MaxQueuedJobs = 100

// Events receives scheduler notifications. The scheduler serializes calls,
// so implementations need no locking of their own. Events for different
// files may arrive in any order.
type Events interface {
	OnProgress(fileName string, percent int)
	OnJobDone(fileName string, success bool, message string)
	OnRunDone(successCount, failCount int)
}

// EventFuncs adapts plain functions to Events. Nil fields are skipped.
type EventFuncs struct {
	Progress func(fileName string, percent int)
	JobDone  func(fileName string, success bool, message string)
	RunDone  func(successCount, failCount int)
}

func (f EventFuncs) OnProgress(fileName string, percent int) {
	if f.Progress != nil {
		f.Progress(fileName, percent)
	}
}

func (f EventFuncs) OnJobDone(fileName string, success bool, message string) {
	if f.JobDone != nil {
		f.JobDone(fileName, success, message)
	}
}

func (f EventFuncs) OnRunDone(successCount, failCount int) {
	if f.RunDone != nil {
		f.RunDone(successCount, failCount)
	}
}

// serialEvents forwards to Events under a mutex.
type serialEvents struct {
	mu   sync.Mutex
	next Events
}

func (e *serialEvents) OnProgress(fileName string, percent int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next.OnProgress(fileName, percent)
}

func (e *serialEvents) OnJobDone(fileName string, success bool, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next.OnJobDone(fileName, success, message)
}

func (e *serialEvents) OnRunDone(successCount, failCount int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next.OnRunDone(successCount, failCount)
}

// Scheduler runs queued jobs on a bounded worker pool and aggregates their
// outcomes. One job failing never affects another. A Scheduler can be reused
// for any number of runs, one at a time.
type Scheduler struct {
	processor JobProcessor
	workers   int
	events    *serialEvents
	logger    *slog.Logger
	metrics   *Metrics

	mu      sync.Mutex
	queue   []BatchJob
	stop    chan struct{} // closed by Cancel during a run
	running atomic.Bool

	cancelled atomic.Bool
	claims    OutputClaims
}

// OutputClaims maps an absolute output path to the input that claimed it.
// It is not safe for concurrent use.
type OutputClaims map[string]string

// Claim reserves the job's output file and fails with an *IOError when an
// earlier job already holds it. Every job writes a PDF named after its
// input's base name and the editable output shares that base, so the PDF
// path alone identifies a clash.
func (c OutputClaims) Claim(job BatchJob) error {
	out := job.OutputPath(FormatPDF.Ext())
	key := out
	if abs, err := filepath.Abs(out); err == nil {
		key = abs
	}
	if other, ok := c[key]; ok {
		return &IOError{Op: "write", Path: out, Err: fmt.Errorf("output collides with %s", other)}
	}
	c[key] = job.FilePath
	return nil
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMaxWorkers requests a worker count. Values above MaxWorkers are capped
// and values below one select an automatic size.
func WithMaxWorkers(n int) SchedulerOption {
	return func(s *Scheduler) { s.workers = ResolveWorkers(n) }
}

// WithEvents sets the receiver for progress and completion notifications.
func WithEvents(e Events) SchedulerOption {
	return func(s *Scheduler) {
		if e != nil {
			s.events = &serialEvents{next: e}
		}
	}
}

// WithSchedulerLogger sets the logger.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records job counts and durations.
func WithMetrics(m *Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithOutputClaims shares c across runs so jobs split over several runs
// still cannot write the same file. Without it each run checks only its own
// jobs.
func WithOutputClaims(c OutputClaims) SchedulerOption {
	return func(s *Scheduler) { s.claims = c }
}

// NewScheduler creates a scheduler that hands each job to processor.
func NewScheduler(processor JobProcessor, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		processor: processor,
		workers:   MaxWorkers,
		events:    &serialEvents{next: EventFuncs{}},
		logger:    discardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Workers returns the pool size used by Run.
func (s *Scheduler) Workers() int { return s.workers }

// AddJob queues a job and reports false when the queue is full.
// An empty suffix selects DefaultSuffix; use Enqueue to keep it empty.
func (s *Scheduler) AddJob(filePath string, margins MarginSpec, outputDir, suffix string) bool {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return s.Enqueue(BatchJob{
		FilePath:     filePath,
		Margins:      margins,
		OutputDir:    outputDir,
		OutputSuffix: suffix,
	})
}

// Enqueue queues job as given, assigning an ID when it has none.
func (s *Scheduler) Enqueue(job BatchJob) bool {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) >= MaxQueuedJobs {
		return false
	}
	s.queue = append(s.queue, job)
	return true
}

// Len returns the number of queued jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Clear drops all queued jobs.
func (s *Scheduler) Clear() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

// Cancel stops dispatching for the current run. Jobs already started run to
// completion and are reported; jobs not yet started are dropped from the
// summary. Cancel never blocks.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled.Store(true)
	if s.stop != nil {
		select {
		case <-s.stop:
		default:
			close(s.stop)
		}
	}
}

// Cancelled reports whether the current or last run was cancelled.
func (s *Scheduler) Cancelled() bool { return s.cancelled.Load() }

// Start runs the queued jobs without an external context.
func (s *Scheduler) Start() BatchSummary {
	return s.Run(context.Background())
}

// Run processes every queued job and blocks until all started jobs finish.
// Cancelling ctx has the same effect as Cancel. The queue is empty when Run
// returns. A second concurrent Run returns an empty summary.
func (s *Scheduler) Run(ctx context.Context) BatchSummary {
	start := time.Now()
	stop := make(chan struct{})

	// Claiming the run and installing stop under mu means a Cancel either
	// precedes the run or closes stop.
	s.mu.Lock()
	if !s.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		s.logger.Warn("run already in progress")
		return BatchSummary{}
	}
	s.cancelled.Store(false)
	jobs := s.queue
	s.queue = nil
	s.stop = stop
	s.mu.Unlock()
	defer s.running.Store(false)
	defer func() {
		s.mu.Lock()
		s.stop = nil
		s.mu.Unlock()
	}()

	release := context.AfterFunc(ctx, s.Cancel)
	defer release()

	var summary BatchSummary
	runnable := make([]BatchJob, 0, len(jobs))
	claims := s.claims
	if claims == nil {
		claims = make(OutputClaims, len(jobs))
	}
	for _, job := range jobs {
		s.events.OnProgress(filepath.Base(job.FilePath), ProgressQueued)
		format, err := DetectFormat(job.FilePath)
		if err == nil {
			err = claims.Claim(job)
		}
		if err != nil {
			s.metrics.jobRejected(format.String())
			s.record(&summary, FailedOutcome(job, err, 0))
			continue
		}
		runnable = append(runnable, job)
	}

	s.logger.Info("batch started", "jobs", len(runnable), "rejected", summary.Failed, "workers", s.workers)
	s.dispatch(context.WithoutCancel(ctx), runnable, stop, &summary)

	summary.Cancelled = s.cancelled.Load()
	summary.Elapsed = time.Since(start)
	s.events.OnRunDone(summary.Successful, summary.Failed)
	s.logger.Info("batch finished",
		"total", summary.TotalFiles,
		"ok", summary.Successful,
		"failed", summary.Failed,
		"cancelled", summary.Cancelled,
		"elapsed", summary.Elapsed.Round(time.Millisecond))
	return summary
}

// dispatch feeds jobs to the worker pool and collects outcomes as they
// complete. Workers receive jobCtx, which is never cancelled, so started
// jobs are not interrupted.
func (s *Scheduler) dispatch(jobCtx context.Context, jobs []BatchJob, stop <-chan struct{}, summary *BatchSummary) {
	if len(jobs) == 0 {
		return
	}

	jobCh := make(chan BatchJob)
	results := make(chan CropOutcome)

	var wg sync.WaitGroup
	for range min(s.workers, len(jobs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				// Checked at job start: a job picked up after Cancel is abandoned.
				if s.cancelled.Load() {
					continue
				}
				results <- s.runJob(jobCtx, job)
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			if s.cancelled.Load() {
				return
			}
			select {
			case <-stop:
				return
			case jobCh <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for o := range results {
		s.record(summary, o)
	}
}

func (s *Scheduler) record(summary *BatchSummary, o CropOutcome) {
	summary.add(o)
	s.events.OnJobDone(filepath.Base(o.InputPath), o.Success, o.Message())
	if !o.Success {
		s.logger.Warn("job failed", "job", o.JobID, "file", o.InputPath, "err", o.ErrorMessage)
	}
}

// runJob processes one job and converts a panic into a failed outcome.
func (s *Scheduler) runJob(ctx context.Context, job BatchJob) (outcome CropOutcome) {
	name := filepath.Base(job.FilePath)
	format, _ := DetectFormat(job.FilePath)
	start := time.Now()

	s.metrics.jobStarted()
	defer func() {
		if r := recover(); r != nil {
			outcome = FailedOutcome(job, fmt.Errorf("internal error: %v", r), time.Since(start))
		}
		if outcome.JobID == "" {
			outcome.JobID = job.ID
		}
		s.metrics.jobFinished(format.String(), outcome)
		s.events.OnProgress(name, ProgressDone)
	}()

	s.events.OnProgress(name, ProgressDispatched)
	s.logger.Debug("job started", "job", job.ID, "file", job.FilePath)

	return s.processor.Process(ctx, job, func(p int) {
		s.events.OnProgress(name, p)
	})
}
