/*
Package analyzer turns a raw page capture into structured metadata via a
single generation call.  Model output is inherently unreliable here, so
the parse step repairs what it can and everything else falls back to
deterministic metadata: capture persistence must never be blocked by an
AI failure.
*/
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/recall/pkg/errors"
	"github.com/theapemachine/recall/pkg/memory"
	"github.com/theapemachine/recall/pkg/provider"
	"github.com/theapemachine/recall/pkg/utils"
)

type Analyzer struct {
	generator provider.Generator
}

func New(generator provider.Generator) *Analyzer {
	return &Analyzer{generator: generator}
}

/*
Analyze enriches a capture with a summary, intent, tags and an importance
score.  The only error it returns is ErrInvalidArgument for captures
missing required fields; generation and parse failures degrade to
deterministic fallback metadata instead.
*/
func (a *Analyzer) Analyze(ctx context.Context, capture memory.CaptureData) (memory.Metadata, error) {
	if err := capture.Validate(); err != nil {
		return memory.Metadata{}, err
	}

	response, err := a.generator.Generate(ctx, buildPrompt(capture))
	if err != nil {
		log.Warn("page analysis failed, using fallback metadata", "url", capture.URL, "error", err)
		return Fallback(capture), nil
	}

	metadata, err := parseMetadata(response)
	if err != nil {
		log.Warn("failed to parse analysis response, using fallback metadata", "url", capture.URL, "error", err)
		return Fallback(capture), nil
	}

	return metadata, nil
}

func buildPrompt(capture memory.CaptureData) string {
	pageType := capture.PageType
	if pageType == "" {
		pageType = "webpage"
	}

	var context strings.Builder
	fmt.Fprintf(&context, "Title: %s\n", capture.Title)
	fmt.Fprintf(&context, "URL: %s\n", capture.URL)
	fmt.Fprintf(&context, "Domain: %s\n", capture.Domain)
	fmt.Fprintf(&context, "Page Type: %s", pageType)
	if capture.SelectedText != "" {
		fmt.Fprintf(&context, "\nSelected Text: %s", capture.SelectedText)
	}

	return fmt.Sprintf(`Analyze this web page capture and provide structured metadata in JSON format ONLY (no markdown, no explanations):

%s

Return ONLY a valid JSON object with these fields:
- summary: A 1-2 sentence description of what the user was doing (max 150 words)
- intent: The user's likely goal (choose ONE: learning, research, shopping, entertainment, work, reference, comparison, other)
- tags: Array of 3-5 relevant topic keywords (lowercase, no spaces)
- importance: A score from 1-5 indicating how valuable this might be for future reference (5 = highly valuable)

Example format:
{
  "summary": "User was learning about React hooks",
  "intent": "learning",
  "tags": ["react", "hooks", "javascript"],
  "importance": 4
}`, context.String())
}

// parseMetadata validates and repairs a raw model response.  Missing fields
// are fatal; a bad intent or out-of-range importance is repaired in place.
func parseMetadata(response string) (memory.Metadata, error) {
	var raw map[string]json.RawMessage

	if err := json.Unmarshal([]byte(utils.StripCodeFence(response)), &raw); err != nil {
		return memory.Metadata{}, errors.ErrMetadataParse.Wrap(err)
	}

	for _, field := range []string{"summary", "intent", "tags", "importance"} {
		if _, ok := raw[field]; !ok {
			return memory.Metadata{}, errors.ErrMetadataParse.WithMessagef(
				"missing required field %q in analysis response", field,
			)
		}
	}

	var summary string
	if err := json.Unmarshal(raw["summary"], &summary); err != nil || summary == "" {
		return memory.Metadata{}, errors.ErrMetadataParse.WithMessagef("summary is not a string")
	}

	var intentStr string
	if err := json.Unmarshal(raw["intent"], &intentStr); err != nil {
		return memory.Metadata{}, errors.ErrMetadataParse.WithMessagef("intent is not a string")
	}

	intent, valid := memory.ParseIntent(intentStr)
	if !valid {
		log.Warn("invalid intent in analysis response, defaulting to other", "intent", intentStr)
	}

	var importance float64
	if err := json.Unmarshal(raw["importance"], &importance); err != nil {
		return memory.Metadata{}, errors.ErrMetadataParse.WithMessagef("importance is not a number")
	}

	return memory.Metadata{
		Summary:    summary,
		Intent:     intent,
		Tags:       parseTags(raw["tags"]),
		Importance: memory.ClampImportance(int(importance)),
	}, nil
}

// parseTags tolerates both an array and a single scalar value; every tag
// ends up lowercased with internal whitespace collapsed to hyphens.
func parseTags(raw json.RawMessage) []string {
	var values []any

	if err := json.Unmarshal(raw, &values); err != nil {
		// Not an array: wrap the single value.
		var single any
		if err := json.Unmarshal(raw, &single); err != nil {
			return nil
		}
		values = []any{single}
	}

	tags := make([]string, 0, len(values))
	for _, value := range values {
		if tag := utils.Slugify(fmt.Sprint(value)); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

/*
Fallback synthesizes deterministic metadata for a capture.  It never fails,
so an AI outage is invisible to the user saving a page.
*/
func Fallback(capture memory.CaptureData) memory.Metadata {
	summary := capture.Title
	if summary == "" {
		summary = "Saved web page"
	}

	return memory.Metadata{
		Summary:    summary,
		Intent:     memory.IntentOther,
		Tags:       []string{strings.ReplaceAll(capture.Domain, ".", "-")},
		Importance: 3,
	}
}

// EmbeddingText assembles the text a memory gets embedded from: title,
// summary and tags, space-joined.
func EmbeddingText(capture memory.CaptureData, metadata memory.Metadata) string {
	return fmt.Sprintf("%s %s %s", capture.Title, metadata.Summary, strings.Join(metadata.Tags, " "))
}
