package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ask away", req.Prompt)
		assert.Equal(t, "be brief", req.System)
		assert.False(t, req.Stream)

		resp := generateResponse{Response: "  the answer  ", Done: true}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL})
	answer, err := svc.Generate(context.Background(), "ask away", "be brief")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
}

func TestGenerate_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL})
	_, err := svc.Generate(context.Background(), "prompt", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestGenerateWithContext_BuildsPrompt(t *testing.T) {
	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		resp := generateResponse{Response: "grounded answer", Done: true}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	svc := NewLLMService(Config{BaseURL: server.URL})
	answer, err := svc.GenerateWithContext(context.Background(), "what is it?", []string{"passage one", "passage two"})
	require.NoError(t, err)
	assert.Equal(t, "grounded answer", answer)

	assert.Contains(t, captured.Prompt, "[1] passage one")
	assert.Contains(t, captured.Prompt, "[2] passage two")
	assert.Contains(t, captured.Prompt, "Question: what is it?")
	assert.NotEmpty(t, captured.System)
}
