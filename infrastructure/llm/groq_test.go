package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"roadmap-backend/domain/roadmap"
	apperrors "roadmap-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProvider is an OpenAI-compatible chat-completion endpoint.
func fakeProvider(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/completions", handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "gemma2-9b-it",
	}, zap.NewNop())
}

func TestGenerateReturnsCompletion(t *testing.T) {
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "# Week 1\n\nLearn the basics."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 40, "total_tokens": 60}
		}`))
	})

	client := newTestClient(srv.URL)
	content, err := client.Generate(context.Background(), roadmap.GenerationRequest{
		Skill:          "Go",
		DurationMonths: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "# Week 1\n\nLearn the basics.", content)

	assert.Equal(t, "gemma2-9b-it", gotBody.Model)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	assert.True(t, strings.Contains(gotBody.Messages[0].Content, "learning Go in 3 months"))
}

func TestGenerateProviderErrorIsExternal(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
	})

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), roadmap.GenerationRequest{
		Skill:          "Go",
		DurationMonths: 3,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	// The provider's own message survives into the error chain.
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestGenerateEmptyChoicesIsExternal(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "cmpl-1", "object": "chat.completion", "choices": []}`))
	})

	client := newTestClient(srv.URL)
	_, err := client.Generate(context.Background(), roadmap.GenerationRequest{
		Skill:          "Go",
		DurationMonths: 3,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := fakeProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client := newTestClient(srv.URL)
	req := roadmap.GenerationRequest{Skill: "Go", DurationMonths: 3}

	// Five consecutive failures trip the breaker.
	for i := 0; i < 5; i++ {
		_, err := client.Generate(context.Background(), req)
		require.Error(t, err)
	}

	_, err := client.Generate(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnavailable))
}
