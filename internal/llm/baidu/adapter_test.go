package baidu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/llm"
)

func newTestServer(t *testing.T, tokenHits *int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/2.0/token", func(w http.ResponseWriter, r *http.Request) {
		*tokenHits++
		w.Write([]byte(`{"access_token":"tok-123","expires_in":3600}`))
	})
	mux.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "tok-123", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"id":"as-1","result":"hello","is_truncated":false,"usage":{"prompt_tokens":2,"completion_tokens":1,"total_tokens":3}}`))
	})
	return httptest.NewServer(mux)
}

func TestComplete_ExchangesAndCachesOAuthToken(t *testing.T) {
	tokenHits := 0
	srv := newTestServer(t, &tokenHits)
	defer srv.Close()

	chatURL := srv.URL + "/chat"

	cfg := llm.ModelConfig{
		ID:        "ernie-bot-4",
		Provider:  llm.ProviderBaidu,
		ModelName: "ernie-bot-4",
		BaseURL:   chatURL,
		APIKey:    "myid:mysecret",
		Enabled:   true,
	}
	adapter, err := New(cfg, srv.Client())
	require.NoError(t, err)
	adapter.tokenURL = srv.URL + "/oauth/2.0/token"

	out, err := adapter.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hello", out.Choices[0].Message.Content)

	_, err = adapter.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi again"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, tokenHits, "token should be cached across calls")
}

func TestNew_RejectsMalformedAPIKey(t *testing.T) {
	_, err := New(llm.ModelConfig{ID: "bad", APIKey: "no-colon-here"}, nil)
	require.Error(t, err)
}
