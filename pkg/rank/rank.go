/*
Package rank scores candidate embedding vectors against a query vector and
returns a ranked top-K.  The brute-force O(N*D) scan is intentional at
per-owner collection sizes; callers depend on the Ranker interface so the
internals can be swapped for an approximate index without touching them.
*/
package rank

import (
	"math"
	"sort"

	"github.com/charmbracelet/log"
)

/*
Match pairs a candidate's position in the input slice with its cosine
similarity to the query vector.
*/
type Match struct {
	Index int
	Score float64
}

/*
Ranker orders candidate vectors by relevance to a query vector.
*/
type Ranker interface {
	Rank(query []float32, candidates [][]float32, limit int) []Match
}

/*
BruteForce is the exact Ranker: it scores every candidate with cosine
similarity and stable-sorts descending.
*/
type BruteForce struct{}

func NewBruteForce() *BruteForce {
	return &BruteForce{}
}

// Rank scores every candidate against the query and returns at most limit
// matches, best first.  Candidates whose dimensionality disagrees with the
// query are skipped rather than failing the batch, since embeddings may
// come from different embedder versions over a collection's history.
// Equal scores keep their input order.
func (r *BruteForce) Rank(query []float32, candidates [][]float32, limit int) []Match {
	matches := make([]Match, 0, len(candidates))

	for i, candidate := range candidates {
		if len(candidate) != len(query) {
			log.Debug(
				"skipping candidate with mismatched embedding dimension",
				"index", i,
				"want", len(query),
				"got", len(candidate),
			)
			continue
		}
		matches = append(matches, Match{Index: i, Score: Cosine(query, candidate)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches
}

// Cosine returns the cosine similarity of two equal-length vectors in
// [-1, 1].  A zero-magnitude vector has no defined angle, so the score is
// 0 rather than NaN.
func Cosine(a, b []float32) float64 {
	var dot, normA, normB float64

	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
