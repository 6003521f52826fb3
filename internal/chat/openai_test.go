package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIGeneratorSendsConfiguredRequest(t *testing.T) {
	var captured struct {
		Model       string    `json:"model"`
		MaxTokens   int       `json:"max_tokens"`
		Temperature float32   `json:"temperature"`
		Messages    []Message `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"deepseek-chat","choices":[{"index":0,"message":{"role":"assistant","content":"breathe in slowly"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	gen := NewOpenAIGenerator(OpenAIConfig{BaseURL: server.URL, APIKey: "key-123", Model: "deepseek-chat", MaxTokens: 150, Temperature: 0.7})
	out, err := gen.Generate(context.Background(), "system", "help me relax")
	require.NoError(t, err)
	assert.Equal(t, "breathe in slowly", out)

	assert.Equal(t, "deepseek-chat", captured.Model)
	assert.Equal(t, 150, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, Message{Role: RoleSystem, Content: "system"}, captured.Messages[0])
	assert.Equal(t, Message{Role: RoleUser, Content: "help me relax"}, captured.Messages[1])
}

func TestOpenAIGeneratorMapsErrors(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusPaymentRequired, `Insufficient balance for model "deepseek-chat". This model requires credits.`},
		{http.StatusUnauthorized, "Invalid API key or authentication error."},
		{http.StatusNotFound, `Model "deepseek-chat" not found or not available.`},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream says no","type":"invalid_request_error"}}`))
		}))

		gen := NewOpenAIGenerator(OpenAIConfig{BaseURL: server.URL, APIKey: "k", Model: "deepseek-chat"})
		_, err := gen.Generate(context.Background(), "system", "hi")
		server.Close()

		var genErr *GenerationError
		require.True(t, errors.As(err, &genErr), "status %d", tc.status)
		assert.Equal(t, tc.status, genErr.Status)
		assert.Equal(t, tc.want, genErr.Message)
	}
}
