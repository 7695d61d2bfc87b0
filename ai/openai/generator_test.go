package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/enrich/ai"
	"github.com/poiesic/enrich/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		if seen != nil {
			require.NoError(t, json.Unmarshal(body, seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"model not loaded","type":"server_error"}}`))
			return
		}
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "llama3.2",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": reply},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerator_Generate(t *testing.T) {
	var seen chatRequest
	srv := chatServer(t, http.StatusOK, "there was a castle", &seen)

	gen, err := NewGenerator(ai.NewConfig(
		ai.WithBackend(ai.BackendHTTP),
		ai.WithHost(srv.URL),
		ai.WithModel("llama3.2"),
	))
	require.NoError(t, err)
	assert.Equal(t, "OpenAI", gen.Name())

	out, err := gen.Generate(context.Background(), "Once upon a time")
	require.NoError(t, err)
	assert.Equal(t, "there was a castle", out)

	assert.Equal(t, "llama3.2", seen.Model)
	require.Len(t, seen.Messages, 1)
	assert.Equal(t, "user", seen.Messages[0].Role)
	assert.Equal(t, "Once upon a time", seen.Messages[0].Content)
}

func TestGenerator_ServerError(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "", nil)

	gen, err := NewGenerator(ai.NewConfig(ai.WithBackend(ai.BackendHTTP), ai.WithHost(srv.URL)))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendCall)

	var be *core.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "OpenAI", be.Backend)
}

func TestGenerator_Unreachable(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "", nil)
	host := srv.URL
	srv.Close()

	gen, err := NewGenerator(ai.NewConfig(ai.WithBackend(ai.BackendHTTP), ai.WithHost(host)))
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBackendUnavailable)
	assert.Equal(t, "OpenAI Error: OpenAI not found", core.Diagnostic(err))
}

func TestNewGenerator_InvalidConfig(t *testing.T) {
	_, err := NewGenerator(ai.NewConfig(ai.WithBackend(ai.BackendHTTP), ai.WithModel("")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Model is required")
}
