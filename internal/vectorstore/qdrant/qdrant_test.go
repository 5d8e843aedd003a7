package qdrant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragqa/internal/domain"
	"ragqa/internal/vectorstore"
)

var _ vectorstore.Storage = (*Storage)(nil)

func TestPointPayloadRoundTrip(t *testing.T) {
	chunk := domain.Chunk{DocumentPath: "docs/a.txt", Index: 2, Ordinal: 7, Text: "The cat sat on the mat."}
	p := toPoint(chunk, []float64{0.6, 0.8})

	assert.Equal(t, uint64(7), p.GetId().GetNum())
	assert.Equal(t, chunk, chunkFromPayload(p.GetPayload()))
}

func TestChunkFromPartialPayload(t *testing.T) {
	assert.Equal(t, domain.Chunk{}, chunkFromPayload(nil))
}

func TestSortResultsBreaksTiesByOrdinal(t *testing.T) {
	results := []domain.SearchResult{
		{Chunk: domain.Chunk{Ordinal: 3}, Score: 0.5},
		{Chunk: domain.Chunk{Ordinal: 1}, Score: 0.5},
		{Chunk: domain.Chunk{Ordinal: 2}, Score: 0.9},
	}
	sortResults(results)
	require.Len(t, results, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{results[0].Chunk.Ordinal, results[1].Chunk.Ordinal, results[2].Chunk.Ordinal})
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{0.5, 0.25}, toFloat32([]float64{0.5, 0.25}))
	assert.Empty(t, toFloat32(nil))
}
