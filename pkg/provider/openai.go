package provider

import (
	"context"
	"os"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/utils"
)

/*
OpenAIProvider wraps the OpenAI API as both Embedder and Generator.
*/
type OpenAIProvider struct {
	client     *openai.Client
	Model      string
	EmbedModel string
	timeout    time.Duration
}

type OpenAIProviderOption func(*OpenAIProvider)

func NewOpenAIProvider(options ...OpenAIProviderOption) *OpenAIProvider {
	prvdr := &OpenAIProvider{
		Model:      "gpt-4o-mini",
		EmbedModel: "text-embedding-3-small",
	}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

/*
Generate issues a single chat completion and returns the first choice's
message content.
*/
func (prvdr *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := callContext(ctx, prvdr.timeout)
	defer cancel()

	resp, err := prvdr.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(prvdr.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})

	if err != nil {
		return "", errors.ErrGenerationFailure.Wrap(err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.ErrGenerationFailure.WithMessagef("empty completion response")
	}

	return resp.Choices[0].Message.Content, nil
}

/*
Embed returns the embedding vector for a single text.
*/
func (prvdr *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := callContext(ctx, prvdr.timeout)
	defer cancel()

	resp, err := prvdr.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(prvdr.EmbedModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
	})

	if err != nil {
		return nil, errors.ErrEmbeddingFailure.Wrap(err)
	}

	if len(resp.Data) == 0 {
		return nil, errors.ErrEmbeddingFailure.WithMessagef("empty embedding response")
	}

	return utils.ConvertToFloat32(resp.Data[0].Embedding), nil
}

func WithOpenAIClient() OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		client := openai.NewClient(
			option.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
		)

		prvdr.client = &client
	}
}

func WithOpenAIModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.Model = model
	}
}

func WithOpenAIEmbedModel(model string) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.EmbedModel = model
	}
}

func WithOpenAITimeout(timeout time.Duration) OpenAIProviderOption {
	return func(prvdr *OpenAIProvider) {
		prvdr.timeout = timeout
	}
}
