package clickhouse

import (
	"context"
	"sync"
	"time"

	"wsbpanel/pkg/logger"
)

// FlushFunc performs the actual INSERT of one batch
type FlushFunc[T any] func(ctx context.Context, batch []T) error

// BatchWriter accumulates rows in memory and hands them to FlushFunc in
// batches of at most MaxBatchSize. ClickHouse prefers few large inserts.
type BatchWriter[T any] struct {
	flushFunc FlushFunc[T]
	buffer    []T
	mu        sync.Mutex
	log       *logger.Logger

	maxBatchSize int
	tableName    string

	lastFlush time.Time
	flushed   int
	batches   int
}

// BatchWriterConfig contains configuration for BatchWriter
type BatchWriterConfig[T any] struct {
	FlushFunc    FlushFunc[T]
	TableName    string
	MaxBatchSize int // Default: 1000
}

// NewBatchWriter creates a new batch writer
func NewBatchWriter[T any](cfg BatchWriterConfig[T]) *BatchWriter[T] {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 1000
	}

	return &BatchWriter[T]{
		flushFunc:    cfg.FlushFunc,
		buffer:       make([]T, 0, cfg.MaxBatchSize),
		maxBatchSize: cfg.MaxBatchSize,
		tableName:    cfg.TableName,
		lastFlush:    time.Now(),
		log:          logger.Get().With("component", "batch_writer", "table", cfg.TableName),
	}
}

// Add adds an item to the buffer.
// If buffer reaches maxBatchSize, it will be flushed immediately.
func (bw *BatchWriter[T]) Add(ctx context.Context, item T) error {
	bw.mu.Lock()
	bw.buffer = append(bw.buffer, item)
	shouldFlush := len(bw.buffer) >= bw.maxBatchSize
	bw.mu.Unlock()

	if shouldFlush {
		return bw.Flush(ctx)
	}
	return nil
}

// Write adds every item and flushes the remainder
func (bw *BatchWriter[T]) Write(ctx context.Context, items []T) error {
	for _, item := range items {
		if err := bw.Add(ctx, item); err != nil {
			return err
		}
	}
	if err := bw.Flush(ctx); err != nil {
		return err
	}

	stats := bw.GetStats()
	bw.log.Debugw("Batch write finished", "rows", stats.Flushed, "batches", stats.Batches)
	return nil
}

// Flush writes all buffered items
func (bw *BatchWriter[T]) Flush(ctx context.Context) error {
	bw.mu.Lock()
	if len(bw.buffer) == 0 {
		bw.mu.Unlock()
		return nil
	}

	// Take ownership of current buffer and create new one
	batch := bw.buffer
	bw.buffer = make([]T, 0, bw.maxBatchSize)
	bw.mu.Unlock()

	// Flush outside of lock to avoid blocking Add() calls
	start := time.Now()
	err := bw.flushFunc(ctx, batch)
	duration := time.Since(start)

	if err != nil {
		bw.log.Errorw("Failed to flush batch",
			"items", len(batch),
			"duration", duration,
			"error", err,
		)
		return err
	}

	bw.mu.Lock()
	bw.lastFlush = time.Now()
	bw.flushed += len(batch)
	bw.batches++
	bw.mu.Unlock()

	bw.log.Debugw("Flushed batch", "items", len(batch), "duration", duration)
	return nil
}

// BatchWriterStats describes what a writer has done so far
type BatchWriterStats struct {
	BufferSize   int
	Flushed      int
	Batches      int
	LastFlushAge time.Duration
	MaxBatchSize int
}

// GetStats returns current statistics
func (bw *BatchWriter[T]) GetStats() BatchWriterStats {
	bw.mu.Lock()
	defer bw.mu.Unlock()

	return BatchWriterStats{
		BufferSize:   len(bw.buffer),
		Flushed:      bw.flushed,
		Batches:      bw.batches,
		LastFlushAge: time.Since(bw.lastFlush),
		MaxBatchSize: bw.maxBatchSize,
	}
}
