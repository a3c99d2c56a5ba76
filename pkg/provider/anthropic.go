package provider

import (
	"context"
	"os"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/theapemachine/recall/pkg/errors"
)

/*
AnthropicProvider wraps the Anthropic API as a Generator.  Anthropic has no
embedding endpoint, so deployments using it pair it with a separate
Embedder (OpenAI or Cohere).
*/
type AnthropicProvider struct {
	client    *anthropic.Client
	Model     string
	MaxTokens int64
	timeout   time.Duration
}

type AnthropicProviderOption func(*AnthropicProvider)

func NewAnthropicProvider(options ...AnthropicProviderOption) *AnthropicProvider {
	prvdr := &AnthropicProvider{
		Model:     "claude-3-5-haiku-latest",
		MaxTokens: 1024,
	}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

/*
Generate issues a single message request and returns the concatenated text
blocks of the response.
*/
func (prvdr *AnthropicProvider) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := callContext(ctx, prvdr.timeout)
	defer cancel()

	msg, err := prvdr.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(prvdr.Model),
		MaxTokens: prvdr.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	if err != nil {
		return "", errors.ErrGenerationFailure.Wrap(err)
	}

	var builder strings.Builder
	for _, block := range msg.Content {
		builder.WriteString(block.Text)
	}

	return builder.String(), nil
}

func WithAnthropicClient() AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) {
		client := anthropic.NewClient(
			option.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
		)

		prvdr.client = &client
	}
}

func WithAnthropicModel(model string) AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) {
		prvdr.Model = model
	}
}

func WithAnthropicTimeout(timeout time.Duration) AnthropicProviderOption {
	return func(prvdr *AnthropicProvider) {
		prvdr.timeout = timeout
	}
}
