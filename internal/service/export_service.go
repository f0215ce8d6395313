package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"employerexport/internal/domain"
	"employerexport/internal/export"
	"employerexport/internal/logger"
	"employerexport/internal/metrics"
)

// ─────────────────────────────────────────────────────────────
// ExportService — one-shot and scheduled export runs
// ─────────────────────────────────────────────────────────────

// ErrAlreadyRunning is returned by RunOnce while another run is in flight.
var ErrAlreadyRunning = errors.New("export already running")

// DefaultDebounce is how long a trigger file must stay quiet before a run
// starts.
const DefaultDebounce = 500 * time.Millisecond

const runKey = "export"

// Runner performs one export. *export.Exporter satisfies it.
type Runner interface {
	Run(ctx context.Context) (*export.Result, error)
}

// ExportService wraps a Runner with a single-flight guard, a per-run
// timeout, run history, metrics and triggers.
type ExportService struct {
	runner   Runner
	timeout  time.Duration
	debounce time.Duration
	logger   *log.Logger
	emitter  EventEmitter

	history     domain.RunLogStore
	recorder    *metrics.Recorder
	metricsFile string

	guard runGuard
}

// NewExportService creates an ExportService. timeout <= 0 means no limit.
func NewExportService(runner Runner, timeout time.Duration, l *log.Logger) *ExportService {
	if l == nil {
		l = logger.Discard()
	}
	return &ExportService{
		runner:   runner,
		timeout:  timeout,
		debounce: DefaultDebounce,
		logger:   l.WithPrefix("SERVICE"),
		emitter:  LogEmitter{Logger: l.WithPrefix("EVENT")},
	}
}

// WithHistory records every run in store.
func (s *ExportService) WithHistory(store domain.RunLogStore) *ExportService {
	s.history = store
	return s
}

// WithMetrics observes every run on rec and, when path is set, rewrites
// the textfile at path afterwards.
func (s *ExportService) WithMetrics(rec *metrics.Recorder, path string) *ExportService {
	s.recorder = rec
	s.metricsFile = path
	return s
}

// WithEmitter replaces the event sink.
func (s *ExportService) WithEmitter(e EventEmitter) *ExportService {
	s.emitter = e
	return s
}

// WithDebounce overrides DefaultDebounce.
func (s *ExportService) WithDebounce(d time.Duration) *ExportService {
	s.debounce = d
	return s
}

// ── Run ────────────────────────────────────────────────────

// RunOnce executes a single export synchronously. trigger names what
// started it ("manual", "schedule", "file") and only feeds logs and events.
func (s *ExportService) RunOnce(ctx context.Context, trigger string) (*export.Result, error) {
	if !s.guard.TryLock(runKey) {
		s.emitter.Emit(ctx, EventExportSkipped, trigger)
		return nil, ErrAlreadyRunning
	}
	defer s.guard.Unlock(runKey)

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Info("run started", "trigger", trigger)
	start := time.Now()
	result, runErr := s.runner.Run(runCtx)
	finished := time.Now()

	s.recordHistory(start, finished, result, runErr)
	s.recordMetrics(finished, finished.Sub(start), result, runErr)

	if runErr != nil {
		s.logger.Error("run failed", "trigger", trigger, "err", runErr)
		s.emitter.Emit(ctx, EventExportFailed, runErr.Error())
		return result, runErr
	}
	s.logger.Info("run finished", "trigger", trigger, "duration", finished.Sub(start).Round(time.Millisecond))
	s.emitter.Emit(ctx, EventExportCompleted, result.Summary())
	return result, nil
}

// Running reports whether a run is in flight.
func (s *ExportService) Running() bool {
	return s.guard.Running(runKey)
}

// WaitRunning blocks until the in-flight run finishes or ctx is done.
func (s *ExportService) WaitRunning(ctx context.Context) {
	s.guard.WaitAll(ctx)
}

func (s *ExportService) recordHistory(start, finished time.Time, result *export.Result, runErr error) {
	if s.history == nil {
		return
	}
	entry := &domain.RunLog{
		StartedAt:  start,
		FinishedAt: finished,
		Status:     domain.RunStatusSuccess,
		Regions:    result.Count(export.DatasetRegions),
		Industries: result.Count(export.DatasetIndustries),
		DatePosted: result.Count(export.DatasetDatePosted),
	}
	if runErr != nil {
		entry.Status = domain.RunStatusError
		entry.Error = runErr.Error()
	}
	if err := s.history.CreateRunLog(entry); err != nil {
		s.logger.Warn("record run history", "err", err)
	}
}

func (s *ExportService) recordMetrics(finished time.Time, duration time.Duration, result *export.Result, runErr error) {
	if s.recorder == nil {
		return
	}
	rows := make(map[string]int)
	if result != nil {
		for _, t := range result.Tables {
			rows[t.Name] = t.Rows
		}
	}
	s.recorder.Observe(finished, duration, rows, runErr == nil)
	if s.metricsFile == "" {
		return
	}
	if err := s.recorder.WriteTextfile(s.metricsFile); err != nil {
		s.logger.Warn("write metrics", "err", err)
	}
}

// ── Triggers (cron + file watch) ──────────────────────────

// Serve runs the export on every cron tick of schedule and whenever
// triggerFile is written, until ctx is cancelled. At least one of the two
// must be set. Cancelling ctx stops new runs and waits for the in-flight
// one; on return no run is in flight.
func (s *ExportService) Serve(ctx context.Context, schedule, triggerFile string) error {
	if schedule == "" && triggerFile == "" {
		return errors.New("serve: no schedule or trigger file configured")
	}

	var watcher *fsnotify.Watcher
	var target string
	if triggerFile != "" {
		var err error
		target, err = filepath.Abs(triggerFile)
		if err != nil {
			return fmt.Errorf("trigger file %q: %w", triggerFile, err)
		}
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()
		// Watch the directory: editors and deploy tools replace files.
		if err := watcher.Add(filepath.Dir(target)); err != nil {
			return fmt.Errorf("watch %q: %w", filepath.Dir(target), err)
		}
		s.logger.Info("watching trigger file", "path", target)
	}

	var sched *cron.Cron
	if schedule != "" {
		sched = cron.New()
		if _, err := sched.AddFunc(schedule, func() { s.trigger(ctx, "schedule") }); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}
		sched.Start()
		s.logger.Info("schedule active", "cron", schedule)
	}

	// pending counts debounced file runs that are scheduled or executing.
	var pending sync.WaitGroup
	var debounce *time.Timer
	defer func() {
		if debounce != nil && debounce.Stop() {
			pending.Done()
		}
		pending.Wait()
		if sched != nil {
			<-sched.Stop().Done()
		}
		s.guard.WaitAll(context.Background())
		s.logger.Info("stopped")
	}()

	var events chan fsnotify.Event
	var watchErrs chan error
	if watcher != nil {
		events, watchErrs = watcher.Events, watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != target {
				continue
			}
			if debounce != nil && debounce.Stop() {
				pending.Done()
			}
			pending.Add(1)
			debounce = time.AfterFunc(s.debounce, func() {
				defer pending.Done()
				s.trigger(ctx, "file")
			})
		case err, ok := <-watchErrs:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "err", err)
		}
	}
}

// trigger runs an export from a background source, logging instead of
// returning errors. No new run starts once ctx is done, but a run that has
// started is not cancelled with it: shutdown waits for the run to finish.
// The per-run timeout still applies.
func (s *ExportService) trigger(ctx context.Context, source string) {
	if ctx.Err() != nil {
		return
	}
	result, err := s.RunOnce(context.WithoutCancel(ctx), source)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.logger.Warn("run skipped, previous run still in flight", "trigger", source)
	case err != nil:
		// RunOnce already logged the failure.
	default:
		s.logger.Info(result.Summary(), "trigger", source)
	}
}
