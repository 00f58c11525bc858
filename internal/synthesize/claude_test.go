// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// withClaudeServer points the generator at a local test server for the
// duration of one test.
func withClaudeServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	orig := claudeAPIURL
	claudeAPIURL = srv.URL
	t.Cleanup(func() {
		claudeAPIURL = orig
		srv.Close()
	})
}

// claudeTextResponse wraps a draft JSON string in the Messages API
// response envelope.
func claudeTextResponse(draftJSON string) claudeResponse {
	return claudeResponse{Content: []claudeContent{{Type: "text", Text: draftJSON}}}
}

func TestClaudeGeneratorParsesDraft(t *testing.T) {
	var gotReq claudeRequest
	var gotAPIKey, gotVersion string
	withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(claudeTextResponse(
			`{"answer": "Compaction runs nightly.", "claims": [{"text": "Compaction runs nightly", "cited_fragment_ids": ["vector_index-0"], "confidence": 0.85}]}`))
	})

	gen := NewClaudeGenerator(types.SynthesisConfig{Model: "claude-sonnet-4-5-20250929", APIKey: "test-key"})
	kept := []types.ScoredFragment{
		keptFragment("vector_index-0", "doc:ops#2", "Compaction runs nightly at 02:00.", 0.9),
	}

	draft, err := gen.Generate(context.Background(), "when does compaction run", kept)
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "claude-sonnet-4-5-20250929", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)
	// The prompt carries the question and every fragment id so the model
	// can cite them.
	assert.Contains(t, gotReq.Messages[0].Content, "when does compaction run")
	assert.Contains(t, gotReq.Messages[0].Content, "[vector_index-0]")
	assert.Contains(t, gotReq.Messages[0].Content, "doc:ops#2")

	assert.Equal(t, "Compaction runs nightly.", draft.Answer)
	require.Len(t, draft.Claims, 1)
	assert.Equal(t, []string{"vector_index-0"}, draft.Claims[0].CitedFragmentIDs)
	assert.InDelta(t, 0.85, draft.Claims[0].Confidence, 1e-9)
}

func TestClaudeGeneratorSkipsNonTextBlocks(t *testing.T) {
	withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(claudeResponse{Content: []claudeContent{
			{Type: "thinking", Text: "ignored"},
			{Type: "text", Text: `{"answer": "ok", "claims": []}`},
		}})
	})

	gen := NewClaudeGenerator(types.SynthesisConfig{Model: "m", APIKey: "k"})

	draft, err := gen.Generate(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", draft.Answer)
}

func TestClaudeGeneratorServerError(t *testing.T) {
	withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	gen := NewClaudeGenerator(types.SynthesisConfig{Model: "m", APIKey: "k"})

	_, err := gen.Generate(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClaudeGeneratorEmptyContent(t *testing.T) {
	withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(claudeResponse{})
	})

	gen := NewClaudeGenerator(types.SynthesisConfig{Model: "m", APIKey: "k"})

	_, err := gen.Generate(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty content")
}

func TestClaudeGeneratorMalformedDraft(t *testing.T) {
	withClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(claudeTextResponse("not json at all"))
	})

	gen := NewClaudeGenerator(types.SynthesisConfig{Model: "m", APIKey: "k"})

	_, err := gen.Generate(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing draft JSON")
}
