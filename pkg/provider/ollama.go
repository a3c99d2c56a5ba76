package provider

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ollama/ollama/api"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/utils"
)

/*
OllamaProvider wraps a local Ollama instance as both Embedder and
Generator.  Useful for fully offline operation; quality depends entirely
on the models pulled locally.
*/
type OllamaProvider struct {
	client     *api.Client
	Model      string
	EmbedModel string
	timeout    time.Duration
}

type OllamaProviderOption func(*OllamaProvider)

func NewOllamaProvider(options ...OllamaProviderOption) *OllamaProvider {
	prvdr := &OllamaProvider{
		Model:      "llama3.2",
		EmbedModel: "nomic-embed-text",
	}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

/*
Generate runs a single generation and accumulates the streamed chunks into
one response string.
*/
func (prvdr *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := callContext(ctx, prvdr.timeout)
	defer cancel()

	req := &api.GenerateRequest{
		Model:  prvdr.Model,
		Prompt: prompt,
	}

	var fullResponse string
	respFunc := func(resp api.GenerateResponse) error {
		fullResponse += resp.Response
		return nil
	}

	if err := prvdr.client.Generate(ctx, req, respFunc); err != nil {
		return "", errors.ErrGenerationFailure.Wrap(err)
	}

	return fullResponse, nil
}

/*
Embed returns the embedding vector for a single text via Ollama's
embeddings endpoint.
*/
func (prvdr *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := callContext(ctx, prvdr.timeout)
	defer cancel()

	resp, err := prvdr.client.Embeddings(ctx, &api.EmbeddingRequest{
		Model:  prvdr.EmbedModel,
		Prompt: text,
	})

	if err != nil {
		return nil, errors.ErrEmbeddingFailure.Wrap(err)
	}

	if len(resp.Embedding) == 0 {
		return nil, errors.ErrEmbeddingFailure.WithMessagef("empty embedding response")
	}

	return utils.ConvertToFloat32(resp.Embedding), nil
}

func WithOllamaClient() OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			log.Error("failed to create Ollama client", "error", err)
			return
		}
		prvdr.client = client
	}
}

func WithOllamaModel(model string) OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		prvdr.Model = model
	}
}

func WithOllamaEmbedModel(model string) OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		prvdr.EmbedModel = model
	}
}

func WithOllamaTimeout(timeout time.Duration) OllamaProviderOption {
	return func(prvdr *OllamaProvider) {
		prvdr.timeout = timeout
	}
}
