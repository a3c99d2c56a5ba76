package provider

import (
	"context"
)

/*
MockEmbedder produces deterministic vectors derived from the text's bytes.
It keeps tests and offline demos independent of any AI vendor.
*/
type MockEmbedder struct {
	Dimension int
	Err       error
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dimension: 4}
}

func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}

	embedding := make([]float32, e.Dimension)
	for i := 0; i < e.Dimension; i++ {
		if len(text) > 0 {
			embedding[i] = float32(text[i%len(text)]) / 256.0
		} else {
			embedding[i] = 0.5
		}
	}

	return embedding, nil
}

/*
MockGenerator returns a canned response, or a canned error, for every
prompt.  The last prompt is retained for assertions.
*/
type MockGenerator struct {
	Response   string
	Err        error
	LastPrompt string
	Calls      int
}

func (g *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.Calls++
	g.LastPrompt = prompt

	if g.Err != nil {
		return "", g.Err
	}

	return g.Response, nil
}
