package rank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSelfSimilarity(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{0.3, 0.4, 0.5},
		{-1, 2, -3, 4},
	}

	for _, v := range vectors {
		assert.InDelta(t, 1.0, Cosine(v, v), 1e-9)
	}
}

func TestCosineSymmetry(t *testing.T) {
	a := []float32{0.2, 0.8, 0.1}
	b := []float32{0.9, 0.3, 0.4}

	assert.Equal(t, Cosine(a, b), Cosine(b, a))
}

func TestCosineOrthogonal(t *testing.T) {
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosineZeroVector(t *testing.T) {
	score := Cosine([]float32{0, 0}, []float32{1, 1})

	assert.Equal(t, 0.0, score)
	assert.False(t, math.IsNaN(score))
}

func TestRankDescendingWithLimit(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},
		{1, 0},
		{0.7, 0.7},
	}

	matches := NewBruteForce().Rank(query, candidates, 2)

	require.Len(t, matches, 2)
	assert.Equal(t, 1, matches[0].Index)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, 2, matches[1].Index)
	assert.InDelta(t, 0.7071, matches[1].Score, 1e-3)
}

func TestRankStableOnTies(t *testing.T) {
	query := []float32{1, 0}

	// Parallel vectors of different magnitudes all score exactly 1.
	candidates := [][]float32{
		{2, 0},
		{1, 0},
		{5, 0},
	}

	matches := NewBruteForce().Rank(query, candidates, 10)

	require.Len(t, matches, 3)
	assert.Equal(t, 0, matches[0].Index)
	assert.Equal(t, 1, matches[1].Index)
	assert.Equal(t, 2, matches[2].Index)
}

func TestRankSkipsDimensionMismatch(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{1, 0},
		{1, 0, 0}, // wrong dimension, must be skipped not fatal
		{0, 1},
	}

	matches := NewBruteForce().Rank(query, candidates, 10)

	require.Len(t, matches, 2)
	assert.Equal(t, 0, matches[0].Index)
	assert.Equal(t, 2, matches[1].Index)
}

func TestRankEmptyCandidates(t *testing.T) {
	matches := NewBruteForce().Rank([]float32{1, 0}, nil, 10)
	assert.Empty(t, matches)
}
