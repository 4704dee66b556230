package llm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/llm"
)

func buildRegistry(t *testing.T) *llm.Registry {
	t.Helper()
	reg := llm.NewRegistry()
	reg.Add(llm.ModelConfig{
		ID: "deepseek-coder", ModelName: "deepseek-coder-v2", Priority: 2, Enabled: true,
		Capabilities: []llm.Capability{llm.CapabilityCode}, CostPer1MInput: 0.14,
	}, &fakeProvider{id: "deepseek-coder"})
	reg.Add(llm.ModelConfig{
		ID: "gpt-4o", ModelName: "gpt-4o", Priority: 1, Enabled: true,
		Capabilities: []llm.Capability{llm.CapabilityChat, llm.CapabilityCode}, CostPer1MInput: 2.5,
	}, &fakeProvider{id: "gpt-4o"})
	reg.Add(llm.ModelConfig{
		ID: "claude-3-opus", ModelName: "claude-3-opus-20240229", Priority: 3, Enabled: true,
		Capabilities: []llm.Capability{llm.CapabilityReasoning, llm.CapabilityLongContext}, CostPer1MInput: 15,
	}, &fakeProvider{id: "claude-3-opus"})
	return reg
}

func TestDeriveRoutingContext_ClassifiesCodeTask(t *testing.T) {
	ctx := llm.DeriveRoutingContext([]llm.ChatMessage{{Role: llm.RoleUser, Content: "write a function to sort a list"}})
	require.Equal(t, llm.TaskCode, ctx.TaskType)
}

func TestDeriveRoutingContext_ClassifiesReasoningAsHighComplexity(t *testing.T) {
	ctx := llm.DeriveRoutingContext([]llm.ChatMessage{{Role: llm.RoleUser, Content: "analyze this in depth"}})
	require.Equal(t, llm.TaskReasoning, ctx.TaskType)
	require.Equal(t, llm.ComplexityHigh, ctx.Complexity)
}

func TestDeriveRoutingContext_ShortMessageIsLowComplexity(t *testing.T) {
	ctx := llm.DeriveRoutingContext([]llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}})
	require.Equal(t, llm.ComplexityLow, ctx.Complexity)
}

func TestSelect_PreferredModelOverridesStrategy(t *testing.T) {
	reg := buildRegistry(t)
	route := llm.Select([]llm.ChatMessage{{Role: llm.RoleUser, Content: "hi"}}, reg.EnabledModels(), "claude-3-opus", llm.StrategyCost)
	require.Equal(t, "claude-3-opus", route.Candidates[0].ID)
	require.Equal(t, "user preferred", route.Reason)
}

func TestSelect_CostStrategyOrdersAscending(t *testing.T) {
	reg := buildRegistry(t)
	route := llm.Select(nil, reg.EnabledModels(), "", llm.StrategyCost)
	require.Equal(t, "deepseek-coder", route.Candidates[0].ID)
	require.Equal(t, "claude-3-opus", route.Candidates[len(route.Candidates)-1].ID)
}

func TestSelect_PriorityStrategyOrdersAscending(t *testing.T) {
	reg := buildRegistry(t)
	route := llm.Select(nil, reg.EnabledModels(), "", llm.StrategyPriority)
	require.Equal(t, "gpt-4o", route.Candidates[0].ID)
	require.Equal(t, "deepseek-coder", route.Candidates[1].ID)
	require.Equal(t, "claude-3-opus", route.Candidates[2].ID)
}

func TestSelect_SmartStrategyPrefersCodeModelForCodeTask(t *testing.T) {
	reg := buildRegistry(t)
	route := llm.Select([]llm.ChatMessage{{Role: llm.RoleUser, Content: "write a function please"}}, reg.EnabledModels(), "", llm.StrategySmart)
	require.Equal(t, "deepseek-coder", route.Candidates[0].ID)
}

func TestSelect_EmptyEnabledReturnsNoCandidates(t *testing.T) {
	route := llm.Select(nil, nil, "", llm.StrategySmart)
	require.Empty(t, route.Candidates)
}
