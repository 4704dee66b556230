package llm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/core/internal/llm"
)

func TestEstimateCost_MatchesPerMillionFormula(t *testing.T) {
	cfg := llm.ModelConfig{CostPer1MInput: 3, CostPer1MOutput: 15}
	cost := llm.EstimateCost(cfg, 100_000, 50_000)
	require.InDelta(t, 0.3+0.75, cost, 1e-9)
}

func TestEstimateCost_ZeroWhenRatesUnset(t *testing.T) {
	cost := llm.EstimateCost(llm.ModelConfig{}, 1000, 1000)
	require.Zero(t, cost)
}

func TestClassify_MapsStatusesToTypedErrorKinds(t *testing.T) {
	cases := []struct {
		status        int
		wantCode      string
		wantRetryable bool
	}{
		{401, "AUTH_ERROR", false},
		{403, "AUTH_ERROR", false},
		{429, "RATE_LIMIT_ERROR", true},
		{500, "PROVIDER_ERROR", true},
		{503, "PROVIDER_ERROR", true},
		{0, "NETWORK_ERROR", true},
		{400, "PROVIDER_ERROR", false},
	}
	for _, tc := range cases {
		err := llm.Classify("openai", tc.status, "boom", nil)
		require.Equal(t, tc.wantCode, err.Code, "status %d", tc.status)
		require.Equal(t, tc.wantRetryable, err.Retryable, "status %d", tc.status)
	}
}

func TestError_UnwrapReturnsWrappedErr(t *testing.T) {
	wrapped := llm.Classify("openai", 0, "dial failed", assertErr{})
	require.Equal(t, assertErr{}, wrapped.Unwrap())
}

type assertErr struct{}

func (assertErr) Error() string { return "dial failed" }
