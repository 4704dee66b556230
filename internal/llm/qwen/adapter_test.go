package qwen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/llm"
)

func testConfig(baseURL string) llm.ModelConfig {
	return llm.ModelConfig{
		ID:        "qwen-plus",
		Provider:  llm.ProviderQwen,
		ModelName: "qwen-plus",
		BaseURL:   baseURL,
		APIKey:    "sk-qwen-test",
		Enabled:   true,
	}
}

func TestComplete_UsesDashScopeInputShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-qwen-test", r.Header.Get("Authorization"))
		require.Empty(t, r.Header.Get("X-DashScope-SSE"))

		var req wireRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "qwen-plus", req.Model)
		require.Len(t, req.Input.Messages, 1)

		resp := wireResponse{
			RequestID: "req-1",
			Output: wireOutput{
				Choices: []wireOutputChoice{{Message: wireMessage{Role: "assistant", Content: "hi"}, FinishReason: "stop"}},
			},
			Usage: wireUsage{InputTokens: 5, OutputTokens: 2, TotalTokens: 7},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	adapter := New(testConfig(srv.URL), srv.Client())
	out, err := adapter.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hi", out.Choices[0].Message.Content)
	require.Equal(t, 7, out.Usage.TotalTokens)
}

func TestCompleteStream_SetsSSEHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "enable", r.Header.Get("X-DashScope-SSE"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		w.Write([]byte("data: {\"request_id\":\"r1\",\"output\":{\"choices\":[{\"message\":{\"role\":\"assistant\",\"content\":\"hi\"},\"finish_reason\":\"stop\"}]}}\n\n"))
		flusher.Flush()
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer srv.Close()

	adapter := New(testConfig(srv.URL), srv.Client())
	var got string
	err := adapter.CompleteStream(context.Background(), llm.CompletionRequest{
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hello"}},
	}, func(chunk llm.StreamChunk) error {
		got += chunk.Delta.Content
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "hi", got)
}
