package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
	"ragqa/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

func seed(t *testing.T) *Storage {
	t.Helper()
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2))
	chunks := []domain.Chunk{
		{Ordinal: 0, Text: "a"},
		{Ordinal: 1, Text: "b"},
		{Ordinal: 2, Text: "c"},
	}
	vectors := [][]float64{{1, 0}, {0, 1}, {1, 0}}
	require.NoError(t, s.Upsert(ctx, chunks, vectors))
	return s
}

func TestSearchRanksAndBreaksTiesByOrdinal(t *testing.T) {
	s := seed(t)
	res, err := s.Search(context.Background(), []float64{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{res[0].Chunk.Text, res[1].Chunk.Text, res[2].Chunk.Text})
	assert.InDelta(t, 1.0, res[0].Score, 1e-12)
	assert.InDelta(t, 0.0, res[2].Score, 1e-12)
}

func TestSearchTopKBound(t *testing.T) {
	s := seed(t)
	res, err := s.Search(context.Background(), []float64{0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 3)
	assert.Equal(t, "b", res[0].Chunk.Text)

	res, err = s.Search(context.Background(), []float64{0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, res[0].Chunk.Ordinal)
	assert.Equal(t, 1, res[1].Chunk.Ordinal)
}

func TestUpsertValidation(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	assert.ErrorIs(t, s.Init(ctx, 0), vectorstore.ErrInvalidDimension)
	require.NoError(t, s.Init(ctx, 2))
	assert.ErrorIs(t, s.Upsert(ctx, []domain.Chunk{{}}, nil), vectorstore.ErrLengthMismatch)
	assert.ErrorIs(t, s.Upsert(ctx, []domain.Chunk{{}}, [][]float64{{1}}), vectorstore.ErrDimensionMismatch)
}

func TestClearAndReinit(t *testing.T) {
	s := seed(t)
	require.NoError(t, s.Clear(context.Background()))
	assert.Zero(t, s.Len())

	s = seed(t)
	require.NoError(t, s.Init(context.Background(), 3))
	assert.Zero(t, s.Len())
}

func TestConcurrentSearch(t *testing.T) {
	s := seed(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Search(context.Background(), []float64{1, 0}, 1)
			assert.NoError(t, err)
			assert.Equal(t, "a", res[0].Chunk.Text)
		}()
	}
	wg.Wait()
}
