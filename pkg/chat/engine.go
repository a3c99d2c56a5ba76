/*
Package chat answers questions over a user's saved memories with
retrieval-augmented generation: retrieve the most relevant memories, build
a bounded textual context from them, and issue one grounded generation
call.  Having no relevant memories is a normal outcome; failing to
generate once memories were found is an error the user must see.
*/
package chat

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

// DefaultMaxMemories bounds the context when the caller does not specify
// how many memories to draw from.
const DefaultMaxMemories = 5

// NoMemoriesAnswer is returned when the search finds nothing relevant.
const NoMemoriesAnswer = "I couldn't find any saved memories related to your question. Try saving some pages first!"

// contextSeparator joins the rendered memory blocks.
const contextSeparator = "\n\n---\n\n"

/*
Searcher is the retrieval half of the engine, satisfied by
search.Orchestrator.
*/
type Searcher interface {
	Search(ctx context.Context, ownerID, query string, limit int) ([]memory.QueryResult, error)
}

/*
Engine combines retrieval and generation into the chat and
question-suggestion operations.
*/
type Engine struct {
	searcher  Searcher
	generator provider.Generator
}

func New(searcher Searcher, generator provider.Generator) *Engine {
	return &Engine{
		searcher:  searcher,
		generator: generator,
	}
}

/*
Chat answers a question from the owner's memories.  maxMemories bounds the
retrieved context.  With zero matches it returns a canned answer without
calling the generator; with matches, a generation failure is surfaced as
ErrChatGeneration rather than papered over, because the user demonstrably
has relevant memories.
*/
func (engine *Engine) Chat(ctx context.Context, ownerID, question string, maxMemories int) (memory.ChatAnswer, error) {
	if strings.TrimSpace(question) == "" {
		return memory.ChatAnswer{}, errors.ErrInvalidArgument.WithMessagef("question must not be empty")
	}

	results, err := engine.searcher.Search(ctx, ownerID, question, maxMemories)
	if err != nil {
		return memory.ChatAnswer{}, err
	}

	if len(results) == 0 {
		return memory.ChatAnswer{
			Answer:      NoMemoriesAnswer,
			Sources:     []memory.Source{},
			MemoryCount: 0,
		}, nil
	}

	answer, err := engine.generator.Generate(ctx, buildChatPrompt(question, results))
	if err != nil {
		return memory.ChatAnswer{}, errors.ErrChatGeneration.Wrap(err)
	}

	log.Debug("chat answer generated", "owner", ownerID, "memories", len(results))

	return memory.ChatAnswer{
		Answer:      strings.TrimSpace(answer),
		Sources:     toSources(results),
		MemoryCount: len(results),
	}, nil
}

/*
SuggestQuestions proposes up to three follow-up questions about a topic,
derived from the memories the topic retrieves.  The operation is
best-effort end to end: no memories, a failed generation or an unparsable
response all produce an empty list.
*/
func (engine *Engine) SuggestQuestions(ctx context.Context, ownerID, topic string) ([]string, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.ErrInvalidArgument.WithMessagef("topic must not be empty")
	}

	results, err := engine.searcher.Search(ctx, ownerID, topic, DefaultMaxMemories)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return []string{}, nil
	}

	response, err := engine.generator.Generate(ctx, buildSuggestionsPrompt(results))
	if err != nil {
		log.Warn("question suggestion generation failed", "owner", ownerID, "error", err)
		return []string{}, nil
	}

	var questions []string
	if err := json.Unmarshal([]byte(utils.StripCodeFence(response)), &questions); err != nil {
		log.Warn("failed to parse suggested questions", "error", err)
		return []string{}, nil
	}

	return questions, nil
}

// buildContext renders one fixed-shape block per ranked result, best
// first, joined by a distinct separator the model cannot mistake for
// content.
func buildContext(results []memory.QueryResult) string {
	blocks := make([]string, len(results))

	for i, result := range results {
		m := result.Memory
		blocks[i] = fmt.Sprintf(
			"Memory %d (Relevance: %.1f%%):\nTitle: %s\nURL: %s\nSaved: %s\nSummary: %s\nTags: %s",
			i+1,
			result.Similarity*100,
			m.Title,
			m.URL,
			m.CapturedAt.Format("Jan 2, 2006"),
			m.Summary,
			strings.Join(m.Tags, ", "),
		)
	}

	return strings.Join(blocks, contextSeparator)
}

func buildChatPrompt(question string, results []memory.QueryResult) string {
	return fmt.Sprintf(`You are a helpful AI assistant that helps users recall and understand their saved web memories.

USER'S QUESTION:
%s

RELEVANT SAVED MEMORIES:
%s

INSTRUCTIONS:
- Answer the user's question based ONLY on the saved memories provided above
- Be conversational and natural
- Cite specific memories when relevant (mention the title or date)
- If the memories don't fully answer the question, say so honestly
- If you're synthesizing information from multiple memories, make that clear
- Keep your answer concise but informative (2-4 paragraphs)

YOUR ANSWER:`, question, buildContext(results))
}

func buildSuggestionsPrompt(results []memory.QueryResult) string {
	titles := make([]string, len(results))
	for i, result := range results {
		titles[i] = "- " + result.Memory.Title
	}

	return fmt.Sprintf(`Based on these saved web memories:
%s

Generate 3 interesting follow-up questions the user might want to ask about these topics.
Return ONLY a JSON array of strings, no explanations.

Example format:
["Question 1?", "Question 2?", "Question 3?"]`, strings.Join(titles, "\n"))
}

func toSources(results []memory.QueryResult) []memory.Source {
	sources := make([]memory.Source, len(results))

	for i, result := range results {
		sources[i] = memory.Source{
			ID:         result.Memory.ID,
			Title:      result.Memory.Title,
			URL:        result.Memory.URL,
			Similarity: result.Similarity,
			CapturedAt: result.Memory.CapturedAt,
		}
	}

	return sources
}
