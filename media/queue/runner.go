package queue

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/leeforge/imgresize/errors"
	"github.com/leeforge/imgresize/logging"
	"github.com/leeforge/imgresize/media/processor"
	"github.com/leeforge/imgresize/media/storage"
)

// FileProcessor turns one source file into one output file.
type FileProcessor interface {
	Process(ctx context.Context, sourcePath string, req processor.ResizeRequest) (string, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger logging.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner processes a file list strictly one file at a time, in order.
// A failed file is counted and logged; it never stops the batch.
type Runner struct {
	processor FileProcessor
	logger    logging.Logger
}

// NewRunner 创建批量处理器
func NewRunner(p FileProcessor, opts ...RunnerOption) *Runner {
	r := &Runner{
		processor: p,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("runner")
	return r
}

type batch struct {
	runID   string
	files   []string
	req     processor.ResizeRequest
	errLog  *ErrorLog
	tracker *ProgressTracker
	obs     Observer
}

// prepare checks the batch preconditions; nothing is processed when it fails.
func (r *Runner) prepare(files []string, req processor.ResizeRequest, obs Observer) (*batch, error) {
	if len(files) == 0 {
		return nil, apperrors.NewEmptyInput()
	}

	req = req.Normalized()
	store, err := storage.NewLocalProvider(req.OutputDir)
	if err != nil {
		return nil, apperrors.NewOutputDirectory(req.OutputDir, err)
	}

	if obs == nil {
		obs = ObserverFuncs{}
	}
	return &batch{
		runID:   uuid.NewString(),
		files:   append([]string(nil), files...),
		req:     req,
		errLog:  NewErrorLog(store),
		tracker: NewProgressTracker(len(files)),
		obs:     obs,
	}, nil
}

// Run processes files on the calling goroutine and returns when the list is
// exhausted or ctx is cancelled. ctx is only checked between files, so the file
// in flight always runs to completion.
//
// The returned error is non-nil only when the batch could not start
// (ErrEmptyInput, ErrOutputDirectory); per-file failures are in the Outcome.
func (r *Runner) Run(ctx context.Context, files []string, req processor.ResizeRequest, obs Observer) (Outcome, error) {
	b, err := r.prepare(files, req, obs)
	if err != nil {
		return Outcome{State: StateIdle, Total: len(files)}, err
	}
	return r.run(ctx, b, nil), nil
}

// Start validates the batch and processes it on a dedicated worker goroutine.
func (r *Runner) Start(ctx context.Context, files []string, req processor.ResizeRequest, obs Observer) (*Job, error) {
	b, err := r.prepare(files, req, obs)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	job := &Job{
		RunID:   b.runID,
		cancel:  cancel,
		done:    make(chan struct{}),
		tracker: b.tracker,
	}
	job.state.Store(int32(StateRunning))

	go func() {
		defer close(job.done)
		defer cancel()
		job.outcome = r.run(ctx, b, &job.state)
	}()

	return job, nil
}

func (r *Runner) run(ctx context.Context, b *batch, state *atomic.Int32) Outcome {
	started := time.Now()
	log := r.logger.With(zap.String("run_id", b.runID))
	ctx = logging.SetRunID(ctx, b.runID)
	ctx = logging.ToContext(ctx, log)

	setState := func(s State) {
		if state != nil {
			state.Store(int32(s))
		}
	}
	setState(StateRunning)

	if !b.errLog.Reset(ctx) {
		log.Debug("stale error log not removed", zap.String("path", b.errLog.Path()))
	}

	total := len(b.files)
	out := Outcome{
		RunID:        b.runID,
		State:        StateCompleted,
		Total:        total,
		ErrorLogPath: b.errLog.Path(),
	}
	log.Info("batch started",
		zap.Int("files", total),
		zap.String("output_dir", b.req.OutputDir),
		zap.Stringer("mode", b.req.Mode),
		zap.Stringer("format", b.req.Format),
	)

	for i, path := range b.files {
		if ctx.Err() != nil {
			out.State = StateCancelled
			break
		}

		var progress Progress
		output, err := r.processOne(ctx, path, b.req)
		if err != nil {
			out.Failed++
			if out.FirstError == "" {
				out.FirstError = err.Error()
			}
			log.Warn("file failed",
				zap.Int("index", i+1),
				zap.String("path", path),
				zap.String("type", string(apperrors.TypeOf(err))),
				zap.Error(err),
			)
			if !b.errLog.Append(Entry{Index: i + 1, Total: total, Path: path, Err: err}) {
				log.Debug("error log entry not written", zap.String("path", path))
			}
			progress = b.tracker.IncrementFailed()
		} else {
			out.Succeeded++
			out.Outputs = append(out.Outputs, output)
			progress = b.tracker.IncrementCompleted()
		}
		out.Processed++

		b.obs.OnProgress(progress)
	}

	out.Duration = time.Since(started)
	setState(out.State)

	log.Info("batch finished",
		zap.Stringer("state", out.State),
		zap.Int("processed", out.Processed),
		zap.Int("succeeded", out.Succeeded),
		zap.Int("failed", out.Failed),
		zap.Duration("elapsed", out.Duration),
	)
	b.obs.OnComplete(out)
	return out
}

// processOne isolates a single file so that even a panicking codec only fails that file.
func (r *Runner) processOne(ctx context.Context, path string, req processor.ResizeRequest) (output string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			output, err = "", apperrors.NewInternal(fmt.Sprintf("panic while processing: %v", rec)).
				WithDetail("path", path)
		}
	}()
	return r.processor.Process(ctx, path, req)
}

// Job is a batch running on its own worker goroutine.
type Job struct {
	RunID string

	cancel  context.CancelFunc
	done    chan struct{}
	state   atomic.Int32
	tracker *ProgressTracker
	outcome Outcome
}

// Cancel asks the worker to stop before the next file. It does not wait.
func (j *Job) Cancel() {
	j.cancel()
}

// Done is closed once the batch has reached a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the batch is finished and returns its outcome.
func (j *Job) Wait() Outcome {
	<-j.done
	return j.outcome
}

func (j *Job) State() State {
	return State(j.state.Load())
}

// Progress returns the latest counters; it may trail the worker slightly.
func (j *Job) Progress() Progress {
	return j.tracker.GetProgress()
}
