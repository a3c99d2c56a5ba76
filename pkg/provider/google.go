package provider

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/recall/pkg/errors"
	"google.golang.org/genai"
)

/*
GoogleProvider wraps the Gemini API as both Embedder and Generator.  It is
the default provider: the capture pipeline was designed against Gemini
Flash for analysis and the Gemini embedding model for vectors.
*/
type GoogleProvider struct {
	client     *genai.Client
	Model      string
	EmbedModel string
	timeout    time.Duration
}

type GoogleProviderOption func(*GoogleProvider)

func NewGoogleProvider(options ...GoogleProviderOption) *GoogleProvider {
	prvdr := &GoogleProvider{
		Model:      "gemini-2.5-flash",
		EmbedModel: "gemini-embedding-001",
	}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

/*
Generate issues a single non-streaming generation call and returns the
concatenated response text.
*/
func (prvdr *GoogleProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := callContext(ctx, prvdr.timeout)
	defer cancel()

	resp, err := prvdr.client.Models.GenerateContent(
		ctx, prvdr.Model, genai.Text(prompt), nil,
	)

	if err != nil {
		return "", errors.ErrGenerationFailure.Wrap(err)
	}

	return resp.Text(), nil
}

/*
Embed returns the embedding vector for a single text.
*/
func (prvdr *GoogleProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := callContext(ctx, prvdr.timeout)
	defer cancel()

	resp, err := prvdr.client.Models.EmbedContent(
		ctx, prvdr.EmbedModel, genai.Text(text), nil,
	)

	if err != nil {
		return nil, errors.ErrEmbeddingFailure.Wrap(err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.ErrEmbeddingFailure.WithMessagef("empty embedding response")
	}

	return resp.Embeddings[0].Values, nil
}

func WithGoogleClient() GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		if os.Getenv("GOOGLE_API_KEY") == "" {
			log.Fatal("GOOGLE_API_KEY environment variable not set.")
		}

		// NewClient picks up GOOGLE_API_KEY from the environment.
		client, err := genai.NewClient(context.Background(), nil)
		if err != nil {
			log.Fatal("failed to create Google GenAI client", "error", err)
		}

		prvdr.client = client
	}
}

func WithGoogleModel(model string) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		prvdr.Model = model
	}
}

func WithGoogleEmbedModel(model string) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		prvdr.EmbedModel = model
	}
}

func WithGoogleTimeout(timeout time.Duration) GoogleProviderOption {
	return func(prvdr *GoogleProvider) {
		prvdr.timeout = timeout
	}
}
