package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wsbpanel/pkg/errors"
)

func TestBatchWriter_FlushOnMaxSize(t *testing.T) {
	var flushed [][]string

	bw := NewBatchWriter(BatchWriterConfig[string]{
		FlushFunc: func(ctx context.Context, batch []string) error {
			flushed = append(flushed, batch)
			return nil
		},
		TableName:    "test_table",
		MaxBatchSize: 3,
	})

	ctx := context.Background()

	require.NoError(t, bw.Add(ctx, "item1"))
	require.NoError(t, bw.Add(ctx, "item2"))
	assert.Empty(t, flushed)

	require.NoError(t, bw.Add(ctx, "item3"))
	require.Len(t, flushed, 1)
	assert.Equal(t, []string{"item1", "item2", "item3"}, flushed[0])
	assert.Equal(t, 0, bw.GetStats().BufferSize)
}

func TestBatchWriter_WriteChunksAndFlushesRemainder(t *testing.T) {
	var sizes []int

	bw := NewBatchWriter(BatchWriterConfig[int]{
		FlushFunc: func(ctx context.Context, batch []int) error {
			sizes = append(sizes, len(batch))
			return nil
		},
		TableName:    "panel_rows",
		MaxBatchSize: 4,
	})

	items := make([]int, 10)
	require.NoError(t, bw.Write(context.Background(), items))

	assert.Equal(t, []int{4, 4, 2}, sizes)

	stats := bw.GetStats()
	assert.Equal(t, 10, stats.Flushed)
	assert.Equal(t, 3, stats.Batches)
	assert.Equal(t, 0, stats.BufferSize)
}

func TestBatchWriter_EmptyFlushIsNoop(t *testing.T) {
	calls := 0
	bw := NewBatchWriter(BatchWriterConfig[int]{
		FlushFunc: func(ctx context.Context, batch []int) error {
			calls++
			return nil
		},
	})

	require.NoError(t, bw.Flush(context.Background()))
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1000, bw.GetStats().MaxBatchSize)
}

func TestBatchWriter_FlushErrorPropagates(t *testing.T) {
	bw := NewBatchWriter(BatchWriterConfig[int]{
		FlushFunc: func(ctx context.Context, batch []int) error {
			return errors.ErrTimeout
		},
		MaxBatchSize: 2,
	})

	err := bw.Write(context.Background(), []int{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTimeout))
	assert.Equal(t, 0, bw.GetStats().Flushed)
}
