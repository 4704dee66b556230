package zhipu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"taskflow/core/internal/llm"
)

func testConfig(baseURL string) llm.ModelConfig {
	return llm.ModelConfig{
		ID:        "glm-4",
		Provider:  llm.ProviderZhipu,
		ModelName: "glm-4",
		BaseURL:   baseURL,
		APIKey:    "abc123.supersecret",
		Enabled:   true,
	}
}

func TestNew_RejectsMalformedAPIKey(t *testing.T) {
	_, err := New(llm.ModelConfig{ID: "bad", APIKey: "no-dot-here"}, nil)
	require.Error(t, err)
}

func TestComplete_SignsJWTWithSplitKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(auth, "Bearer "))
		raw := strings.TrimPrefix(auth, "Bearer ")

		parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
		require.NoError(t, err)
		claims := parsed.Claims.(jwt.MapClaims)
		require.Equal(t, "abc123", claims["api_key"])
		require.Equal(t, "SIGN", parsed.Header["sign_type"])

		w.Write([]byte(`{"id":"chatcmpl-1","model":"glm-4","choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	}))
	defer srv.Close()

	adapter, err := New(testConfig(srv.URL), srv.Client())
	require.NoError(t, err)

	out, err := adapter.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hi", out.Choices[0].Message.Content)
}
