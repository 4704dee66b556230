package llm_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/llm"
)

func newTestGateway(t *testing.T, providers ...*fakeProvider) *llm.Gateway {
	t.Helper()
	reg := llm.NewRegistry()
	for i, p := range providers {
		reg.Add(llm.ModelConfig{ID: p.id, Priority: i, Enabled: true}, p)
	}
	cfg := llm.DefaultGatewayConfig()
	cfg.RetryBaseDelay = time.Millisecond
	gw := llm.NewGateway(reg, cfg)
	return gw
}

func TestGateway_Complete_ReturnsFirstHealthyCandidate(t *testing.T) {
	gw := newTestGateway(t, &fakeProvider{id: "a", reply: "hello from a"})
	result, err := gw.Complete(context.Background(), llm.CompletionRequest{Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	require.Equal(t, "a", result.Model)
	require.Equal(t, "hello from a", result.Response.Choices[0].Message.Content)
}

func TestGateway_Complete_CascadesToNextCandidateOnFailure(t *testing.T) {
	failing := &fakeProvider{id: "a", failErr: llm.Classify("a", 500, "boom", nil)}
	healthy := &fakeProvider{id: "b", reply: "hello from b"}
	gw := newTestGateway(t, failing, healthy)

	result, err := gw.Complete(context.Background(), llm.CompletionRequest{Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	require.Equal(t, "b", result.Model)
	require.Contains(t, result.Routing.Candidates, "a")
	require.Equal(t, "b", result.Routing.Selected)
}

func TestGateway_Complete_ExhaustsAllCandidates(t *testing.T) {
	failA := &fakeProvider{id: "a", failErr: llm.Classify("a", 500, "boom", nil)}
	failB := &fakeProvider{id: "b", failErr: llm.Classify("b", 500, "boom", nil)}
	gw := newTestGateway(t, failA, failB)

	_, err := gw.Complete(context.Background(), llm.CompletionRequest{RequestID: "req-1", Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}}})
	require.Error(t, err)
}

func TestGateway_Complete_NonRetryableAuthErrorSkipsRetries(t *testing.T) {
	failing := &fakeProvider{id: "a", failErr: llm.Classify("a", 401, "bad key", nil)}
	healthy := &fakeProvider{id: "b", reply: "hello from b"}
	gw := newTestGateway(t, failing, healthy)

	result, err := gw.Complete(context.Background(), llm.CompletionRequest{Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	require.Equal(t, "b", result.Model)
}

func TestGateway_Complete_DisabledFallbackStopsAtFirstFailure(t *testing.T) {
	failing := &fakeProvider{id: "a", failErr: llm.Classify("a", 500, "boom", nil)}
	healthy := &fakeProvider{id: "b", reply: "hello from b"}
	gw := newTestGateway(t, failing, healthy)
	gw.Config.EnableFallback = false

	_, err := gw.Complete(context.Background(), llm.CompletionRequest{Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}}})
	require.Error(t, err)
}

func TestGateway_TestAll_CollectsResultsDespiteFailures(t *testing.T) {
	healthy := &fakeProvider{id: "a", reply: "ok"}
	unhealthy := &fakeProvider{id: "b", failErr: llm.Classify("b", 500, "down", nil)}
	gw := newTestGateway(t, healthy, unhealthy)

	results := gw.TestAll(context.Background())
	require.Len(t, results, 2)
	require.Equal(t, llm.HealthHealthy, results["a"].Status)
	require.Equal(t, llm.HealthUnhealthy, results["b"].Status)
}
