// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskflow/core/internal/errs"
)

// GatewayConfig controls retry/cascade behavior (§4.C, §5).
type GatewayConfig struct {
	DefaultStrategy Strategy
	MaxRetries      int           // attempts per candidate beyond the first
	RetryBaseDelay  time.Duration // linear backoff base: baseDelay * (attempt+1)
	EnableFallback  bool
}

// DefaultGatewayConfig matches §5's documented defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		DefaultStrategy: StrategySmart,
		MaxRetries:      2,
		RetryBaseDelay:  1000 * time.Millisecond,
		EnableFallback:  true,
	}
}

// Gateway routes completion requests across a Registry's enabled models
// with cascading fallback and linear retry backoff (§4.C).
type Gateway struct {
	Registry *Registry
	Config   GatewayConfig
	Metrics  *Metrics // optional; nil disables instrumentation
	sleep    func(time.Duration) // overridable for tests
}

// NewGateway constructs a Gateway bound to reg.
func NewGateway(reg *Registry, cfg GatewayConfig) *Gateway {
	return &Gateway{Registry: reg, Config: cfg, sleep: time.Sleep}
}

func (g *Gateway) strategyFor(req CompletionRequest) Strategy {
	if req.Strategy != "" {
		return req.Strategy
	}
	return g.Config.DefaultStrategy
}

// Complete performs the full cascade-with-retry flow of §4.C: for each
// candidate in router preference order, retry up to MaxRetries times with
// linear backoff; advance to the next candidate only once the current
// one's retries are exhausted.
func (g *Gateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	start := time.Now()
	enabled := g.Registry.EnabledModels()
	route := Select(req.Messages, enabled, req.PreferredModel, g.strategyFor(req))
	if len(route.Candidates) == 0 {
		return nil, &errs.ExhaustedError{RequestID: req.RequestID, Tried: nil, Last: nil}
	}

	byID := make(map[string]Provider, len(enabled))
	for _, c := range enabled {
		byID[c.Config.ID] = c.Adapter
	}

	var tried []string
	var lastErr error
	for _, cfg := range route.Candidates {
		adapter := byID[cfg.ID]
		tried = append(tried, cfg.ID)

		resp, err := g.completeWithRetry(ctx, adapter, req)
		if err == nil {
			cost := EstimateCost(cfg, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			elapsed := time.Since(start)
			if g.Metrics != nil {
				g.Metrics.Observe(cfg.ID, "success", len(tried), elapsed.Seconds(), cost)
			}
			return &CompletionResult{
				Response: *resp,
				Model:    cfg.ID,
				Routing: RoutingInfo{
					Strategy:   route.Strategy,
					Reason:     route.Reason,
					Candidates: idsOf(route.Candidates),
					Selected:   cfg.ID,
				},
				CostUSD:   cost,
				LatencyMs: elapsed.Milliseconds(),
			}, nil
		}
		lastErr = err
		if !g.Config.EnableFallback {
			break
		}
	}
	if g.Metrics != nil {
		g.Metrics.Observe("", "exhausted", len(tried), time.Since(start).Seconds(), 0)
	}
	return nil, &errs.ExhaustedError{RequestID: req.RequestID, Tried: tried, Last: lastErr}
}

// completeWithRetry retries a single adapter up to Config.MaxRetries extra
// attempts, sleeping baseDelay*(attempt+1) between attempts (§5).
func (g *Gateway) completeWithRetry(ctx context.Context, adapter Provider, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= g.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			g.sleep(g.Config.RetryBaseDelay * time.Duration(attempt))
		}
		resp, err := adapter.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if apiErr, ok := err.(*Error); ok && !apiErr.Retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

// Stream performs a single-provider streaming call: once the connection is
// established, no cascade happens mid-stream (§4.C "stream... no cascade
// after streaming begins"); only the initial connect is retried within the
// same provider.
func (g *Gateway) Stream(ctx context.Context, req CompletionRequest, handler func(StreamChunk) error) (string, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	enabled := g.Registry.EnabledModels()
	route := Select(req.Messages, enabled, req.PreferredModel, g.strategyFor(req))
	if len(route.Candidates) == 0 {
		return "", &errs.ExhaustedError{RequestID: req.RequestID}
	}

	byID := make(map[string]Provider, len(enabled))
	for _, c := range enabled {
		byID[c.Config.ID] = c.Adapter
	}

	cfg := route.Candidates[0]
	adapter := byID[cfg.ID]
	streamer, ok := adapter.(StreamingProvider)
	if !ok {
		return "", &Error{Provider: cfg.ID, Code: "UNSUPPORTED", Message: "adapter does not support streaming"}
	}

	var lastErr error
	started := false
	tracked := func(chunk StreamChunk) error {
		started = true
		return handler(chunk)
	}
	for attempt := 0; attempt <= g.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			g.sleep(g.Config.RetryBaseDelay * time.Duration(attempt))
		}
		err := streamer.CompleteStream(ctx, req, tracked)
		if err == nil {
			return cfg.ID, nil
		}
		lastErr = err
		if started {
			break
		}
		if apiErr, ok := err.(*Error); ok && !apiErr.Retryable {
			break
		}
	}
	return "", &errs.ExhaustedError{RequestID: req.RequestID, Tried: []string{cfg.ID}, Last: lastErr}
}

// TestAll pings every registered adapter with Test() concurrently,
// collecting results irrespective of individual failures (§4.C).
func (g *Gateway) TestAll(ctx context.Context) map[string]*HealthCheckResult {
	models := g.Registry.All()
	out := make(map[string]*HealthCheckResult, len(models))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, cfg := range models {
		_, adapter, ok := g.Registry.Get(cfg.ID)
		if !ok || adapter == nil {
			continue
		}
		wg.Add(1)
		go func(id string, p Provider) {
			defer wg.Done()
			result, err := p.Test(ctx)
			if err != nil {
				result = &HealthCheckResult{Status: HealthUnhealthy, Message: err.Error(), LastChecked: time.Now()}
			}
			mu.Lock()
			out[id] = result
			mu.Unlock()
		}(cfg.ID, adapter)
	}
	wg.Wait()
	return out
}

func idsOf(configs []ModelConfig) []string {
	out := make([]string, len(configs))
	for i, c := range configs {
		out[i] = c.ID
	}
	return out
}
