package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/llm"
)

func testConfig(baseURL string) llm.ModelConfig {
	return llm.ModelConfig{
		ID:              "claude-sonnet",
		Provider:        llm.ProviderAnthropic,
		ModelName:       "claude-3-5-sonnet-20241022",
		BaseURL:         baseURL,
		APIKey:          "sk-ant-test",
		Enabled:         true,
		Priority:        0,
		Capabilities:    []llm.Capability{llm.CapabilityChat, llm.CapabilityReasoning},
		CostPer1MInput:  3,
		CostPer1MOutput: 15,
	}
}

func TestComplete_SetsAuthHeadersAndParsesContentBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer sk-ant-test", r.Header.Get("Authorization"))
		require.Equal(t, defaultAPIVersion, r.Header.Get("anthropic-version"))
		require.Equal(t, "/v1/messages", r.URL.Path)

		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "be terse", req.System)

		resp := anthropicResponse{
			ID:    "msg_1",
			Model: "claude-3-5-sonnet-20241022",
			Content: []contentBlock{
				{Type: "text", Text: "hello "},
				{Type: "text", Text: "world"},
			},
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 12, OutputTokens: 3},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	adapter := New(testConfig(srv.URL), srv.Client(), "")
	out, err := adapter.Complete(context.Background(), llm.CompletionRequest{
		SystemPrompt: "be terse",
		Messages:     []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "hello world", out.Choices[0].Message.Content)
	require.Equal(t, llm.FinishStop, out.Choices[0].FinishReason)
	require.Equal(t, 15, out.Usage.TotalTokens)
}

func TestComplete_ClassifiesOverloadedAsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"type":"overloaded_error","message":"overloaded"}}`)
	}))
	defer srv.Close()

	adapter := New(testConfig(srv.URL), srv.Client(), "")
	_, err := adapter.Complete(context.Background(), llm.CompletionRequest{
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	apiErr, ok := err.(*llm.Error)
	require.True(t, ok)
	require.Equal(t, "PROVIDER_ERROR", apiErr.Code)
	require.True(t, apiErr.Retryable)
}

func TestCompleteStream_EmitsDeltasAndFinish(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		events := []string{
			`{"type":"message_start","message":{"id":"msg_2","model":"claude-3-5-sonnet-20241022"}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hi"}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":" there"}}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
		}
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer srv.Close()

	adapter := New(testConfig(srv.URL), srv.Client(), "")
	var out string
	var done bool
	err := adapter.CompleteStream(context.Background(), llm.CompletionRequest{
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}},
	}, func(chunk llm.StreamChunk) error {
		out += chunk.Delta.Content
		if chunk.Done {
			done = true
			require.Equal(t, llm.FinishStop, chunk.FinishReason)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "Hi there", out)
	require.True(t, done)
}
