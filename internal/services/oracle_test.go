package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"tutorapp/internal/config"
	"tutorapp/internal/observability"
	contextutils "tutorapp/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOracleTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func openAIReply(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]interface{}{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestNewOracle(t *testing.T) {
	logger := observability.NewNopLogger()

	oracle, err := NewOracle(config.OracleConfig{Provider: "openai", Model: "m"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIOracle{}, oracle)

	oracle, err = NewOracle(config.OracleConfig{Provider: "Gemini", Model: "m"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &GeminiOracle{}, oracle)

	_, err = NewOracle(config.OracleConfig{Provider: "claude", Model: "m"}, logger)
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeOracleConfigInvalid, contextutils.GetErrorCode(err))
	assert.ErrorIs(t, err, contextutils.ErrOracleConfigInvalid)
}

func TestOpenAIOracle_Generate(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	server, calls := newOracleTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openAIReply("Was isst du gern zum Frühstück?"))
	})

	oracle := NewOpenAIOracle(config.OracleConfig{BaseURL: server.URL, Model: "gpt-4o-mini", MaxTokens: 64}, observability.NewNopLogger())
	text, err := oracle.Generate(context.Background(), "sk-test-key-123456", "prompt text")
	require.NoError(t, err)

	assert.Equal(t, "Was isst du gern zum Frühstück?", text)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	assert.Equal(t, "Bearer sk-test-key-123456", gotAuth)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
	messages, ok := gotBody["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "prompt text", messages[0].(map[string]interface{})["content"])
}

func TestOpenAIOracle_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rejected key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
			},
		},
		{
			name: "blank text",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(openAIReply("  \n"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newOracleTestServer(t, tt.handler)
			oracle := NewOpenAIOracle(config.OracleConfig{BaseURL: server.URL, Model: "m"}, observability.NewNopLogger())

			_, err := oracle.Generate(context.Background(), "sk-test", "prompt")
			require.Error(t, err)
			assert.ErrorIs(t, err, contextutils.ErrOracleUnavailable)
		})
	}
}

func TestOracle_MissingCredentialMakesNoRequest(t *testing.T) {
	server, calls := newOracleTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	cfg := config.OracleConfig{BaseURL: server.URL, Model: "m"}

	oracles := []Oracle{
		NewOpenAIOracle(cfg, observability.NewNopLogger()),
		NewGeminiOracle(cfg, observability.NewNopLogger()),
	}
	for _, oracle := range oracles {
		for _, credential := range []string{"", "   "} {
			_, err := oracle.Generate(context.Background(), credential, "prompt")
			assert.ErrorIs(t, err, contextutils.ErrMissingCredential)
		}
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestGeminiOracle_Generate(t *testing.T) {
	var gotKey, gotPath string
	server, calls := newOracleTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "¿Qué haces los fines de semana?"}]},
				"finishReason": "STOP"
			}]
		}`))
	})

	oracle := NewGeminiOracle(config.OracleConfig{BaseURL: server.URL, Model: "gemini-2.0-flash", Temperature: 0.5}, observability.NewNopLogger())
	text, err := oracle.Generate(context.Background(), "AIza-test-key", "prompt")
	require.NoError(t, err)

	assert.Equal(t, "¿Qué haces los fines de semana?", text)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	assert.Contains(t, gotPath, "gemini-2.0-flash:generateContent")
	assert.Equal(t, "AIza-test-key", gotKey)
}

func TestGeminiOracle_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rejected key",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
			},
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"candidates": []}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newOracleTestServer(t, tt.handler)
			oracle := NewGeminiOracle(config.OracleConfig{BaseURL: server.URL, Model: "m"}, observability.NewNopLogger())

			_, err := oracle.Generate(context.Background(), "AIza-test", "prompt")
			require.Error(t, err)
			assert.ErrorIs(t, err, contextutils.ErrOracleUnavailable)
		})
	}
}
