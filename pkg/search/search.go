/*
Package search implements semantic search over a single owner's memories:
embed the query, score it against every stored embedding, return the
ranked top-K.
*/
package search

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/memory"
	"github.com/theapemachine/recall/pkg/provider"
	"github.com/theapemachine/recall/pkg/rank"
)

// DefaultLimit is the number of results returned when the caller does not
// ask for a specific amount.
const DefaultLimit = 10

/*
Store is the slice of persistence the orchestrator needs: every memory of
one owner that currently has an embedding.
*/
type Store interface {
	ListEmbedded(ctx context.Context, ownerID string) ([]memory.Memory, error)
}

/*
Orchestrator wires the Embedder, the Store and the Ranker into the search
operation.  It holds no per-request state; concurrent searches are
independent.
*/
type Orchestrator struct {
	embedder provider.Embedder
	store    Store
	ranker   rank.Ranker
}

func New(embedder provider.Embedder, store Store, ranker rank.Ranker) *Orchestrator {
	if ranker == nil {
		ranker = rank.NewBruteForce()
	}

	return &Orchestrator{
		embedder: embedder,
		store:    store,
		ranker:   ranker,
	}
}

/*
Search returns the owner's memories ranked by similarity to the query,
best first, at most limit results.  An owner with no embedded memories
gets an empty result, not an error; an embedding failure fails the whole
search, because silently returning nothing would look like "no matches".
*/
func (orch *Orchestrator) Search(ctx context.Context, ownerID, query string, limit int) ([]memory.QueryResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.ErrInvalidArgument.WithMessagef("search query must not be empty")
	}

	if limit <= 0 {
		return nil, errors.ErrInvalidArgument.WithMessagef("limit must be a positive integer, got %d", limit)
	}

	queryVec, err := orch.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.ErrSearchUnavailable.Wrap(err)
	}

	memories, err := orch.store.ListEmbedded(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if len(memories) == 0 {
		return []memory.QueryResult{}, nil
	}

	vectors := make([][]float32, len(memories))
	for i := range memories {
		vectors[i] = memories[i].Embedding
	}

	matches := orch.ranker.Rank(queryVec, vectors, limit)

	results := make([]memory.QueryResult, len(matches))
	for i, match := range matches {
		results[i] = memory.QueryResult{
			Memory:     memories[match.Index],
			Similarity: match.Score,
		}
	}

	log.Debug("semantic search complete",
		"owner", ownerID,
		"candidates", len(memories),
		"results", len(results),
	)

	return results, nil
}
