package provider

import (
	"context"
	"os"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/utils"
)

/*
CohereEmbedder wraps the Cohere embed API as an Embedder.  Generation is
not wired for Cohere; it exists for deployments that want Cohere vectors
alongside another vendor's generator.
*/
type CohereEmbedder struct {
	api     *cohereclient.Client
	Model   string
	timeout time.Duration
}

type CohereEmbedderOption func(*CohereEmbedder)

func NewCohereEmbedder(options ...CohereEmbedderOption) *CohereEmbedder {
	embedder := &CohereEmbedder{
		Model: "embed-english-v3.0",
	}

	for _, option := range options {
		option(embedder)
	}

	return embedder
}

func (e *CohereEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := callContext(ctx, e.timeout)
	defer cancel()

	model := e.Model
	resp, err := e.api.Embed(ctx, &cohere.EmbedRequest{
		Model: &model,
		Texts: []string{text},
	})

	if err != nil {
		return nil, errors.ErrEmbeddingFailure.Wrap(err)
	}

	embeddings := resp.GetEmbeddingsFloats().Embeddings
	if len(embeddings) == 0 {
		return nil, errors.ErrEmbeddingFailure.WithMessagef("empty embedding response")
	}

	return utils.ConvertToFloat32(embeddings[0]), nil
}

func WithCohereClient() CohereEmbedderOption {
	return func(e *CohereEmbedder) {
		e.api = cohereclient.NewClient(
			cohereclient.WithToken(os.Getenv("COHERE_API_KEY")),
		)
	}
}

func WithCohereModel(model string) CohereEmbedderOption {
	return func(e *CohereEmbedder) {
		e.Model = model
	}
}

func WithCohereTimeout(timeout time.Duration) CohereEmbedderOption {
	return func(e *CohereEmbedder) {
		e.timeout = timeout
	}
}
