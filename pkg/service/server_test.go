package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/theapemachine/recall/pkg/analyzer"
	"github.com/theapemachine/recall/pkg/auth"
	"github.com/theapemachine/recall/pkg/chat"
	"github.com/theapemachine/recall/pkg/memory"
	"github.com/theapemachine/recall/pkg/provider"
	"github.com/theapemachine/recall/pkg/search"
	"github.com/theapemachine/recall/pkg/stores/sqlite"
)

const testAPIKey = "test-extension-key"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) (*Server, *provider.MockGenerator) {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	generator := &provider.MockGenerator{
		Response: `{"summary":"Reading about Go generics","intent":"learning","tags":["go","generics"],"importance":4}`,
	}
	embedder := &provider.MockEmbedder{Dimension: 4}

	searcher := search.New(embedder, store, nil)

	authService := auth.NewService(
		"test-signing-key",
		auth.WithAPIKeys(map[string]string{testAPIKey: "owner-1"}),
	)

	srv := NewServer(
		store,
		analyzer.New(generator),
		embedder,
		searcher,
		chat.New(searcher, generator),
		authService,
	)

	return srv, generator
}

func request(method, target string, body any) *http.Request {
	var reader *bytes.Reader

	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	return req
}

func do(t *testing.T, srv *Server, req *http.Request) (int, envelope) {
	t.Helper()

	resp, err := srv.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))

	return resp.StatusCode, env
}

func capturePage(t *testing.T, srv *Server) memory.Memory {
	t.Helper()

	status, env := do(t, srv, request(http.MethodPost, "/api/memories", memory.CaptureData{
		URL:    "https://go.dev/blog/generics",
		Title:  "An Introduction To Generics",
		Domain: "go.dev",
	}))
	require.Equal(t, http.StatusCreated, status)
	require.True(t, env.Success)

	var m memory.Memory
	require.NoError(t, json.Unmarshal(env.Data, &m))
	require.NotEmpty(t, m.ID)

	return m
}

func TestHealthSkipsAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMissingCredentialRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/memories", nil)
	resp, err := srv.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCapturePersistsMemory(t *testing.T) {
	srv, _ := newTestServer(t)

	m := capturePage(t, srv)

	assert.Equal(t, "Reading about Go generics", m.Summary)
	assert.Equal(t, memory.IntentLearning, m.Intent)
	assert.Equal(t, []string{"go", "generics"}, m.Tags)
	assert.Equal(t, 4, m.Importance)

	status, env := do(t, srv, request(http.MethodGet, "/api/memories", nil))
	require.Equal(t, http.StatusOK, status)

	var listing struct {
		Memories []memory.Memory `json:"memories"`
		Total    int             `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listing))
	assert.Equal(t, 1, listing.Total)
}

func TestCaptureSurvivesGenerationFailure(t *testing.T) {
	srv, generator := newTestServer(t)
	generator.Response = "not json at all"

	m := capturePage(t, srv)

	assert.Equal(t, "An Introduction To Generics", m.Summary, "fallback uses the title")
	assert.Equal(t, memory.IntentOther, m.Intent)
}

func TestCaptureRejectsIncompletePayload(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := do(t, srv, request(http.MethodPost, "/api/memories", memory.CaptureData{
		URL: "https://go.dev",
	}))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestGetRecordsRevisit(t *testing.T) {
	srv, _ := newTestServer(t)
	m := capturePage(t, srv)

	for want := 1; want <= 2; want++ {
		status, env := do(t, srv, request(http.MethodGet, "/api/memories/"+m.ID, nil))
		require.Equal(t, http.StatusOK, status)

		var got memory.Memory
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, want, got.RevisitCount)
	}
}

func TestGetUnknownMemory(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := do(t, srv, request(http.MethodGet, "/api/memories/nope", nil))

	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}

func TestUpdateMemory(t *testing.T) {
	srv, _ := newTestServer(t)
	m := capturePage(t, srv)

	status, env := do(t, srv, request(http.MethodPut, "/api/memories/"+m.ID, map[string]any{
		"userNotes":  "read this again",
		"importance": 9,
	}))
	require.Equal(t, http.StatusOK, status)

	var got memory.Memory
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "read this again", got.UserNotes)
	assert.Equal(t, 5, got.Importance, "importance clamps to 5")
	assert.Equal(t, m.Tags, got.Tags, "omitted fields untouched")
}

func TestDeleteMemory(t *testing.T) {
	srv, _ := newTestServer(t)
	m := capturePage(t, srv)

	status, _ := do(t, srv, request(http.MethodDelete, "/api/memories/"+m.ID, nil))
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, srv, request(http.MethodGet, "/api/memories/"+m.ID, nil))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	capturePage(t, srv)

	status, env := do(t, srv, request(http.MethodGet, "/api/memories/stats", nil))
	require.Equal(t, http.StatusOK, status)

	var stats sqlite.Stats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 1, stats.Total)
}

func TestSemanticSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	capturePage(t, srv)

	status, env := do(t, srv, request(http.MethodPost, "/api/search/semantic", map[string]any{
		"query": "generics in go",
	}))
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Results []memory.QueryResult `json:"results"`
		Count   int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Count)
}

func TestSemanticSearchRejectsEmptyQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := do(t, srv, request(http.MethodPost, "/api/search/semantic", map[string]any{
		"query": "",
	}))

	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
}

func TestChatEndpoint(t *testing.T) {
	srv, generator := newTestServer(t)
	capturePage(t, srv)

	generator.Response = "You were reading about Go generics."

	status, env := do(t, srv, request(http.MethodPost, "/api/chat", map[string]any{
		"question": "what did I read about go?",
	}))
	require.Equal(t, http.StatusOK, status)

	var answer memory.ChatAnswer
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.Equal(t, "You were reading about Go generics.", answer.Answer)
	assert.Equal(t, 1, answer.MemoryCount)
	require.Len(t, answer.Sources, 1)
}

func TestChatWithoutMemories(t *testing.T) {
	srv, _ := newTestServer(t)

	status, env := do(t, srv, request(http.MethodPost, "/api/chat", map[string]any{
		"question": "anything saved?",
	}))
	require.Equal(t, http.StatusOK, status)

	var answer memory.ChatAnswer
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.Equal(t, chat.NoMemoriesAnswer, answer.Answer)
	assert.Zero(t, answer.MemoryCount)
}

func TestSuggestionsEndpoint(t *testing.T) {
	srv, generator := newTestServer(t)
	capturePage(t, srv)

	generator.Response = `["What are Go generics?", "How do type parameters work?", "When were generics added?"]`

	status, env := do(t, srv, request(http.MethodPost, "/api/chat/suggestions", map[string]any{
		"topic": "go",
	}))
	require.Equal(t, http.StatusOK, status)

	var result struct {
		Suggestions []string `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Len(t, result.Suggestions, 3)
}
