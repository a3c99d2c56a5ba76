package analyzer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/memory"
	"github.com/theapemachine/recall/pkg/provider"
)

var capture = memory.CaptureData{
	URL:    "https://go.dev/blog/generics",
	Title:  "An Introduction To Generics",
	Domain: "go.dev",
}

func TestAnalyzeHappyPath(t *testing.T) {
	generator := &provider.MockGenerator{
		Response: `{"summary": "User was reading about Go generics", "intent": "learning", "tags": ["go", "generics"], "importance": 4}`,
	}

	metadata, err := New(generator).Analyze(context.Background(), capture)
	require.NoError(t, err)

	assert.Equal(t, "User was reading about Go generics", metadata.Summary)
	assert.Equal(t, memory.IntentLearning, metadata.Intent)
	assert.Equal(t, []string{"go", "generics"}, metadata.Tags)
	assert.Equal(t, 4, metadata.Importance)
	assert.Contains(t, generator.LastPrompt, capture.Title)
	assert.Contains(t, generator.LastPrompt, capture.URL)
}

func TestAnalyzeStripsCodeFence(t *testing.T) {
	generator := &provider.MockGenerator{
		Response: "```json\n{\"summary\": \"s\", \"intent\": \"work\", \"tags\": [\"a\"], \"importance\": 2}\n```",
	}

	metadata, err := New(generator).Analyze(context.Background(), capture)
	require.NoError(t, err)

	assert.Equal(t, memory.IntentWork, metadata.Intent)
	assert.Equal(t, 2, metadata.Importance)
}

func TestAnalyzeCoercesInvalidIntent(t *testing.T) {
	generator := &provider.MockGenerator{
		Response: `{"summary": "s", "intent": "banana", "tags": ["a"], "importance": 3}`,
	}

	metadata, err := New(generator).Analyze(context.Background(), capture)
	require.NoError(t, err)

	assert.Equal(t, memory.IntentOther, metadata.Intent)
	assert.Equal(t, "s", metadata.Summary)
	assert.Equal(t, []string{"a"}, metadata.Tags)
}

func TestAnalyzeClampsImportance(t *testing.T) {
	tests := []struct {
		importance int
		want       int
	}{
		{9, 5},
		{-3, 1},
		{3, 3},
	}

	for _, tt := range tests {
		generator := &provider.MockGenerator{
			Response: fmt.Sprintf(`{"summary": "s", "intent": "work", "tags": ["a"], "importance": %d}`, tt.importance),
		}

		metadata, err := New(generator).Analyze(context.Background(), capture)
		require.NoError(t, err)
		assert.Equal(t, tt.want, metadata.Importance)
	}
}

func TestAnalyzeNormalizesTags(t *testing.T) {
	generator := &provider.MockGenerator{
		Response: `{"summary": "s", "intent": "work", "tags": ["Machine Learning", "  Web   Dev  "], "importance": 3}`,
	}

	metadata, err := New(generator).Analyze(context.Background(), capture)
	require.NoError(t, err)

	assert.Equal(t, []string{"machine-learning", "web-dev"}, metadata.Tags)
}

func TestAnalyzeWrapsScalarTag(t *testing.T) {
	generator := &provider.MockGenerator{
		Response: `{"summary": "s", "intent": "work", "tags": "Single Tag", "importance": 3}`,
	}

	metadata, err := New(generator).Analyze(context.Background(), capture)
	require.NoError(t, err)

	assert.Equal(t, []string{"single-tag"}, metadata.Tags)
}

func TestAnalyzeFallbackOnGenerationFailure(t *testing.T) {
	generator := &provider.MockGenerator{
		Err: errors.ErrGenerationFailure.WithMessagef("provider down"),
	}

	metadata, err := New(generator).Analyze(context.Background(), capture)
	require.NoError(t, err)

	assert.Equal(t, capture.Title, metadata.Summary)
	assert.Equal(t, memory.IntentOther, metadata.Intent)
	assert.Equal(t, []string{"go-dev"}, metadata.Tags)
	assert.Equal(t, 3, metadata.Importance)
}

func TestAnalyzeFallbackOnMalformedResponse(t *testing.T) {
	for _, response := range []string{
		"not json at all",
		`{"summary": "s"}`,
		`{"intent": "work", "tags": ["a"], "importance": 3}`,
		`{"summary": "", "intent": "work", "tags": ["a"], "importance": 3}`,
	} {
		generator := &provider.MockGenerator{Response: response}

		metadata, err := New(generator).Analyze(context.Background(), capture)
		require.NoError(t, err, "response %q must degrade, not fail", response)

		// Fallback always satisfies the schema.
		assert.NotEmpty(t, metadata.Summary)
		assert.Equal(t, memory.IntentOther, metadata.Intent)
		assert.NotEmpty(t, metadata.Tags)
		assert.GreaterOrEqual(t, metadata.Importance, memory.MinImportance)
		assert.LessOrEqual(t, metadata.Importance, memory.MaxImportance)
	}
}

func TestAnalyzeRejectsInvalidCapture(t *testing.T) {
	generator := &provider.MockGenerator{Response: "{}"}

	_, err := New(generator).Analyze(context.Background(), memory.CaptureData{Title: "no url"})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Zero(t, generator.Calls, "no external call before validation")
}

func TestFallbackNeverFails(t *testing.T) {
	metadata := Fallback(memory.CaptureData{Domain: "news.ycombinator.com"})

	assert.Equal(t, "Saved web page", metadata.Summary)
	assert.Equal(t, []string{"news-ycombinator-com"}, metadata.Tags)
}

func TestEmbeddingText(t *testing.T) {
	metadata := memory.Metadata{Summary: "summary", Tags: []string{"a", "b"}}

	assert.Equal(t,
		"An Introduction To Generics summary a b",
		EmbeddingText(capture, metadata),
	)
}
