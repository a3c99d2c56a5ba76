/*
Package qdrant mirrors memory embeddings into a Qdrant collection.  It is
optional infrastructure: the local brute-force ranker stays the source of
truth for search, while the mirror keeps a remote index warm so search can
be delegated to it once a collection outgrows in-process scanning.
*/
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/theapemachine/recall/pkg/memory"
)

// Client wraps an endpoint + collection.
type Client struct {
	Endpoint   string // e.g. http://localhost:6333
	Collection string // e.g. "memories"
	httpClient *http.Client
}

// New returns a Client with sane defaults.
func New(endpoint, collection string) *Client {
	return &Client{
		Endpoint:   endpoint,
		Collection: collection,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// Scored pairs a mirrored memory ID with its similarity score.
type Scored struct {
	ID    string
	Score float64
}

// Upsert writes one memory's embedding and payload as a point.  Memories
// without an embedding are skipped silently; they have nothing to index.
func (client *Client) Upsert(ctx context.Context, m memory.Memory) error {
	if !m.HasEmbedding() {
		return nil
	}

	body := map[string]any{
		"points": []map[string]any{{
			"id":     m.ID,
			"vector": m.Embedding,
			"payload": map[string]any{
				"owner_id": m.OwnerID,
				"title":    m.Title,
				"url":      m.URL,
				"summary":  m.Summary,
				"tags":     m.Tags,
			},
		}},
	}

	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPut,
		fmt.Sprintf("%s/collections/%s/points", client.Endpoint, client.Collection),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return err
	}

	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: upsert status %s", resp.Status)
	}

	return nil
}

// Delete removes a mirrored point by memory ID.
func (client *Client) Delete(ctx context.Context, id string) error {
	body := map[string]any{"points": []string{id}}
	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/delete", client.Endpoint, client.Collection),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return err
	}

	resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: delete status %s", resp.Status)
	}

	return nil
}

// Search runs a vector search filtered to one owner's points.
func (client *Client) Search(ctx context.Context, ownerID string, queryVec []float32, limit int) ([]Scored, error) {
	body := map[string]any{
		"vector":       queryVec,
		"limit":        limit,
		"with_payload": false,
		"filter": map[string]any{
			"must": []map[string]any{{
				"key":   "owner_id",
				"match": map[string]any{"value": ownerID},
			}},
		},
	}

	b, _ := json.Marshal(body)

	req, _ := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		fmt.Sprintf("%s/collections/%s/points/search", client.Endpoint, client.Collection),
		bytes.NewReader(b),
	)

	req.Header.Set("Content-Type", "application/json")

	resp, err := client.httpClient.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant: search status %s", resp.Status)
	}

	var out struct {
		Result []struct {
			ID    string  `json:"id"`
			Score float64 `json:"score"`
		} `json:"result"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	scored := make([]Scored, 0, len(out.Result))
	for _, r := range out.Result {
		scored = append(scored, Scored{ID: r.ID, Score: r.Score})
	}

	return scored, nil
}
