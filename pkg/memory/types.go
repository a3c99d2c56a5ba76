/*
Package memory defines the data model for captured web memories: the
persisted Memory record, the AI-derived Metadata attached to it at capture
time, and the ephemeral result shapes returned by search and chat.
*/
package memory

import (
	"time"

	"github.com/theapemachine/recall/pkg/errors"
)

/*
Intent classifies why a page was likely saved.  The set is closed; anything
a model returns outside of it is coerced to IntentOther.
*/
type Intent string

const (
	IntentLearning      Intent = "learning"
	IntentResearch      Intent = "research"
	IntentShopping      Intent = "shopping"
	IntentEntertainment Intent = "entertainment"
	IntentWork          Intent = "work"
	IntentReference     Intent = "reference"
	IntentComparison    Intent = "comparison"
	IntentOther         Intent = "other"
)

var validIntents = map[Intent]struct{}{
	IntentLearning:      {},
	IntentResearch:      {},
	IntentShopping:      {},
	IntentEntertainment: {},
	IntentWork:          {},
	IntentReference:     {},
	IntentComparison:    {},
	IntentOther:         {},
}

// ParseIntent returns the Intent for s, coercing anything outside the
// closed set to IntentOther.  The second return reports whether s was valid.
func ParseIntent(s string) (Intent, bool) {
	intent := Intent(s)
	if _, ok := validIntents[intent]; ok {
		return intent, true
	}
	return IntentOther, false
}

// Importance bounds for a memory's 1-5 value score.
const (
	MinImportance = 1
	MaxImportance = 5
)

// ClampImportance forces an importance score into the [1,5] range.
func ClampImportance(importance int) int {
	if importance < MinImportance {
		return MinImportance
	}
	if importance > MaxImportance {
		return MaxImportance
	}
	return importance
}

/*
Memory is a single captured page plus its AI-derived metadata.  The
embedding is optional: when generation fails at capture time the memory is
persisted without one and simply never participates in semantic search.
*/
type Memory struct {
	ID      string `json:"id"`
	OwnerID string `json:"-"`

	URL          string `json:"url"`
	Title        string `json:"title"`
	Domain       string `json:"domain"`
	Favicon      string `json:"favicon,omitempty"`
	PageType     string `json:"pageType,omitempty"`
	SelectedText string `json:"selectedText,omitempty"`

	Summary    string   `json:"summary"`
	Intent     Intent   `json:"intent"`
	Tags       []string `json:"tags"`
	Importance int      `json:"importance"`

	Embedding []float32 `json:"-"`

	RevisitCount   int        `json:"revisitCount"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
	UserNotes      string     `json:"userNotes,omitempty"`

	CapturedAt time.Time `json:"capturedAt"`
}

// HasEmbedding reports whether the memory can participate in semantic search.
func (m *Memory) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

/*
CaptureData is the raw page capture a browser extension submits before any
AI enrichment happens.
*/
type CaptureData struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Domain       string `json:"domain"`
	Favicon      string `json:"favicon,omitempty"`
	PageType     string `json:"pageType,omitempty"`
	SelectedText string `json:"selectedText,omitempty"`
}

// Validate rejects captures missing the required identity fields before any
// external call is made.
func (c CaptureData) Validate() error {
	if c.URL == "" || c.Title == "" || c.Domain == "" {
		return errors.ErrInvalidArgument.WithMessagef(
			"capture requires url, title and domain",
		)
	}
	return nil
}

/*
Metadata is the structured result of analyzing a capture: a short summary,
a closed-set intent, normalized tags and a 1-5 importance score.
*/
type Metadata struct {
	Summary    string   `json:"summary"`
	Intent     Intent   `json:"intent"`
	Tags       []string `json:"tags"`
	Importance int      `json:"importance"`
}

/*
QueryResult pairs a memory with its similarity to a query vector.  It is
ephemeral: produced by one search call and discarded with the response.
*/
type QueryResult struct {
	Memory     Memory  `json:"memory"`
	Similarity float64 `json:"similarity"`
}

/*
Source is a citation reference back to the memory a chat answer drew from.
*/
type Source struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Similarity float64   `json:"similarity"`
	CapturedAt time.Time `json:"capturedAt"`
}

/*
ChatAnswer is a grounded answer assembled from a user's memories, together
with the citations it was grounded on.
*/
type ChatAnswer struct {
	Answer      string   `json:"answer"`
	Sources     []Source `json:"sources"`
	MemoryCount int      `json:"memoryCount"`
}
