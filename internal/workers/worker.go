package workers

import (
	"context"
	"sync"
	"time"

	"wsbpanel/pkg/logger"
)

// Stage is one step of a pipeline run
type Stage interface {
	// Name returns the unique identifier for this stage
	Name() string

	// Run executes the stage once, reading and writing the shared datasets
	Run(ctx context.Context) error

	// Enabled returns whether this stage is part of the run
	Enabled() bool
}

// StageWithHealth extends Stage with health bookkeeping
type StageWithHealth interface {
	Stage
	Health() StageHealth
	RecordRun(duration time.Duration)
	RecordError(err error, duration time.Duration)
}

// StageHealth contains health information for a stage
type StageHealth struct {
	LastRun     time.Time
	LastError   error
	RunCount    int64
	ErrorCount  int64
	AvgDuration time.Duration
	Enabled     bool
}

// BaseWorker provides common functionality for stages
type BaseWorker struct {
	name    string
	enabled bool
	log     *logger.Logger

	// Health monitoring
	healthMu      sync.RWMutex
	lastRun       time.Time
	lastError     error
	runCount      int64
	errorCount    int64
	totalDuration time.Duration
}

// NewBaseWorker creates a new base worker
func NewBaseWorker(name string, enabled bool) *BaseWorker {
	return &BaseWorker{
		name:    name,
		enabled: enabled,
		log:     logger.Get().With("stage", name),
	}
}

// Name returns the stage name
func (w *BaseWorker) Name() string {
	return w.name
}

// Enabled returns whether the stage is enabled
func (w *BaseWorker) Enabled() bool {
	w.healthMu.RLock()
	defer w.healthMu.RUnlock()
	return w.enabled
}

// Log returns the logger
func (w *BaseWorker) Log() *logger.Logger {
	return w.log
}

// Health returns health information for the stage
func (w *BaseWorker) Health() StageHealth {
	w.healthMu.RLock()
	defer w.healthMu.RUnlock()

	avgDuration := time.Duration(0)
	if w.runCount > 0 {
		avgDuration = time.Duration(int64(w.totalDuration) / w.runCount)
	}

	return StageHealth{
		LastRun:     w.lastRun,
		LastError:   w.lastError,
		RunCount:    w.runCount,
		ErrorCount:  w.errorCount,
		AvgDuration: avgDuration,
		Enabled:     w.enabled,
	}
}

// RecordRun records a successful run
func (w *BaseWorker) RecordRun(duration time.Duration) {
	w.healthMu.Lock()
	defer w.healthMu.Unlock()

	w.lastRun = time.Now()
	w.runCount++
	w.totalDuration += duration
	w.lastError = nil
}

// RecordError records a failed run
func (w *BaseWorker) RecordError(err error, duration time.Duration) {
	w.healthMu.Lock()
	defer w.healthMu.Unlock()

	w.lastRun = time.Now()
	w.runCount++
	w.errorCount++
	w.totalDuration += duration
	w.lastError = err
}
