package workers

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"

	"wsbpanel/internal/metrics"
	"wsbpanel/pkg/errors"
	"wsbpanel/pkg/logger"
)

// ErrRunLocked is returned when another run holds the pipeline lock
var ErrRunLocked = errors.New("another pipeline run is in progress")

// Locker guards against two runs writing the same datasets at once
type Locker interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// StageReport describes one finished stage
type StageReport struct {
	RunID    string
	Stage    string
	Err      error
	Duration time.Duration
	Finished time.Time
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithLocker makes Run hold the lock named key for at most ttl
func WithLocker(locker Locker, key string, ttl time.Duration) RunnerOption {
	return func(r *Runner) {
		r.locker = locker
		r.lockKey = key
		r.lockTTL = ttl
	}
}

// WithErrorTracker reports failed stages to tracker
func WithErrorTracker(tracker errors.Tracker) RunnerOption {
	return func(r *Runner) {
		r.tracker = tracker
	}
}

// WithStageHook calls hook after every executed stage
func WithStageHook(hook func(ctx context.Context, report StageReport)) RunnerOption {
	return func(r *Runner) {
		r.hooks = append(r.hooks, hook)
	}
}

// Runner executes registered stages one after another.
// A failed stage is logged and reported; later stages still run.
type Runner struct {
	stages  []Stage
	tracker errors.Tracker
	hooks   []func(ctx context.Context, report StageReport)

	locker  Locker
	lockKey string
	lockTTL time.Duration

	log *logger.Logger
}

// NewRunner creates a new sequential runner
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{log: logger.Get().With("component", "runner")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register appends a stage; stages run in registration order
func (r *Runner) Register(s Stage) {
	r.stages = append(r.stages, s)
	r.log.Debugw("Stage registered", "stage", s.Name(), "enabled", s.Enabled())
}

// Stages returns the registered stages
func (r *Runner) Stages() []Stage {
	out := make([]Stage, len(r.stages))
	copy(out, r.stages)
	return out
}

// Run executes every enabled stage once and returns the joined stage failures
func (r *Runner) Run(ctx context.Context, runID string) error {
	if r.locker != nil {
		ok, err := r.locker.AcquireLock(ctx, r.lockKey, runID, r.lockTTL)
		if err != nil {
			return errors.Wrap(err, "acquire run lock")
		}
		if !ok {
			return errors.Wrapf(ErrRunLocked, "lock %s", r.lockKey)
		}
		defer func() {
			// run ctx may already be cancelled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.locker.ReleaseLock(releaseCtx, r.lockKey, runID); err != nil {
				r.log.Warnw("Failed to release run lock", "key", r.lockKey, "error", err)
			}
		}()
	}

	start := time.Now()
	var errs errors.MultiError
	executed := 0

	for _, stage := range r.stages {
		if !stage.Enabled() {
			r.log.Infow("Skipping disabled stage", "stage", stage.Name())
			continue
		}
		if err := ctx.Err(); err != nil {
			r.log.Warnw("Run cancelled, skipping remaining stages", "next_stage", stage.Name())
			errs.Add(errors.Wrap(err, "run cancelled"))
			break
		}

		executed++
		if err := r.execute(ctx, runID, stage); err != nil {
			errs.Add(errors.Wrapf(err, "stage %s", stage.Name()))
		}
	}

	r.log.Infow("Run finished",
		"run_id", runID,
		"stages", executed,
		"failed", len(errs.Errors),
		"started", humanize.Time(start),
	)
	return errs.ToError()
}

// execute runs one stage with panic recovery and bookkeeping
func (r *Runner) execute(ctx context.Context, runID string, stage Stage) (err error) {
	start := time.Now()
	r.log.Infow("Stage started", "stage", stage.Name())

	defer func() {
		if p := recover(); p != nil {
			err = errors.Wrapf(errors.ErrInternal, "panic: %v", p)
		}

		duration := time.Since(start)
		metrics.RecordStageExecution(stage.Name(), duration, err)

		if h, ok := stage.(StageWithHealth); ok {
			if err != nil {
				h.RecordError(err, duration)
			} else {
				h.RecordRun(duration)
			}
		}

		if err != nil {
			// plain zap call: the tracker capture below carries the stage tags
			r.log.SugaredLogger.Errorw("Stage failed", "stage", stage.Name(), "duration", duration, "error", err)
			if r.tracker != nil {
				_ = r.tracker.CaptureError(ctx, err, map[string]string{
					"component": "runner",
					"stage":     stage.Name(),
				})
			}
		} else {
			r.log.Infow("Stage completed", "stage", stage.Name(), "duration", duration)
		}

		report := StageReport{RunID: runID, Stage: stage.Name(), Err: err, Duration: duration, Finished: time.Now()}
		for _, hook := range r.hooks {
			hook(ctx, report)
		}
	}()

	return stage.Run(ctx)
}
