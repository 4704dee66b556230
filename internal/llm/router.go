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
	"math"
	"math/rand"
	"sort"
	"strings"
)

// TaskType is the smart strategy's heuristic classification of a request.
type TaskType string

const (
	TaskCode      TaskType = "code"
	TaskReasoning TaskType = "reasoning"
	TaskVision    TaskType = "vision"
	TaskChat      TaskType = "chat"
)

// Complexity is the smart strategy's heuristic estimate of request size.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// RoutingContext is derived from the last message of a request and feeds
// the smart strategy's rule table (§4.B).
type RoutingContext struct {
	TaskType   TaskType
	Complexity Complexity
}

// DeriveRoutingContext classifies messages the way the smart strategy
// requires: a keyword scan of the last message for task type, and total
// message length for complexity. Reasoning requests are always high
// complexity; a short message does not lower them.
func DeriveRoutingContext(messages []ChatMessage) RoutingContext {
	ctx := RoutingContext{TaskType: TaskChat, Complexity: ComplexityMedium}
	if len(messages) == 0 {
		return ctx
	}
	last := strings.ToLower(messages[len(messages)-1].Content)

	switch {
	case containsAny(last, "code", "function"):
		ctx.TaskType = TaskCode
	case containsAny(last, "analyze", "think"):
		ctx.TaskType = TaskReasoning
		ctx.Complexity = ComplexityHigh
	case containsAny(last, "image", "picture"):
		ctx.TaskType = TaskVision
	default:
		ctx.TaskType = TaskChat
	}

	totalLen := 0
	for _, m := range messages {
		totalLen += len(m.Content)
	}
	switch {
	case totalLen < 200 && ctx.TaskType != TaskReasoning:
		ctx.Complexity = ComplexityLow
	case totalLen > 2000:
		ctx.Complexity = ComplexityHigh
	}
	return ctx
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// smart strategy preference lists: model-name substrings in preference
// order, per task type (§4.B "Default rules cover code... reasoning...").
var (
	codePreference      = []string{"deepseek-coder", "gpt-4o", "claude-3-5-sonnet"}
	reasoningPreference = []string{"o1", "claude-3-opus", "qwen-plus"}
)

// staticLatencyMs is the speed strategy's static latency table (§4.B
// "speed — ascending estimated latency from a static table"), keyed by
// model-name substring; models matching none of these entries fall back to
// defaultLatencyMs.
var staticLatencyMs = map[string]float64{
	"gpt-4o":            900,
	"gpt-4":             1800,
	"gpt-3.5":           500,
	"claude-3-5-sonnet": 1000,
	"claude-3-opus":     2200,
	"claude-3-haiku":    400,
	"deepseek-coder":    1200,
	"deepseek-chat":     1100,
	"o1":                4000,
	"qwen-plus":         900,
	"qwen-turbo":        450,
	"glm-4":             1000,
	"moonshot-v1":       1100,
}

const defaultLatencyMs = 1500

func estimatedLatency(modelName string) float64 {
	lower := strings.ToLower(modelName)
	for name, ms := range staticLatencyMs {
		if strings.Contains(lower, name) {
			return ms
		}
	}
	return defaultLatencyMs
}

// RouteResult is the router's output: the selected model plus the full
// ordered candidate list, which the gateway uses to drive cascade (§4.B).
type RouteResult struct {
	Model      ModelConfig
	Reason     string
	Candidates []ModelConfig
	Strategy   Strategy
}

// Select picks a model from enabled using strategy, honoring an explicit
// preferredID override (§4.B).
func Select(messages []ChatMessage, enabled []candidate, preferredID string, strategy Strategy) RouteResult {
	configs := make([]ModelConfig, len(enabled))
	for i, c := range enabled {
		configs[i] = c.Config
	}

	if preferredID != "" {
		for _, cfg := range configs {
			if cfg.ID == preferredID {
				return RouteResult{
					Model:      cfg,
					Reason:     "user preferred",
					Candidates: moveToFront(configs, cfg.ID),
					Strategy:   strategy,
				}
			}
		}
	}

	var ordered []ModelConfig
	var reason string
	switch strategy {
	case StrategyCost:
		ordered, reason = selectByCost(configs)
	case StrategySpeed:
		ordered, reason = selectBySpeed(configs)
	case StrategyPriority:
		ordered, reason = selectByPriority(configs)
	case StrategyRandom:
		ordered, reason = selectRandom(configs)
	default:
		ordered, reason = selectSmart(messages, configs)
	}

	if len(ordered) == 0 {
		return RouteResult{Strategy: strategy, Reason: reason}
	}
	return RouteResult{Model: ordered[0], Reason: reason, Candidates: ordered, Strategy: strategy}
}

func moveToFront(configs []ModelConfig, id string) []ModelConfig {
	out := make([]ModelConfig, 0, len(configs))
	out = append(out, ModelConfig{})
	for _, cfg := range configs {
		if cfg.ID == id {
			out[0] = cfg
		} else {
			out = append(out, cfg)
		}
	}
	return out
}

func selectByCost(configs []ModelConfig) ([]ModelConfig, string) {
	out := append([]ModelConfig(nil), configs...)
	cost := func(cfg ModelConfig) float64 {
		if cfg.CostPer1MInput == 0 {
			return math.Inf(1)
		}
		return cfg.CostPer1MInput
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := cost(out[i]), cost(out[j])
		if ci != cj {
			return ci < cj
		}
		return out[i].ID < out[j].ID
	})
	return out, "lowest cost per input token"
}

func selectBySpeed(configs []ModelConfig) ([]ModelConfig, string) {
	out := append([]ModelConfig(nil), configs...)
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := estimatedLatency(out[i].ModelName), estimatedLatency(out[j].ModelName)
		if li != lj {
			return li < lj
		}
		return out[i].Priority < out[j].Priority
	})
	return out, "lowest estimated latency"
}

func selectByPriority(configs []ModelConfig) ([]ModelConfig, string) {
	out := append([]ModelConfig(nil), configs...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, "ascending configured priority"
}

func selectRandom(configs []ModelConfig) ([]ModelConfig, string) {
	out := append([]ModelConfig(nil), configs...)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, "uniform random selection"
}

func selectSmart(messages []ChatMessage, configs []ModelConfig) ([]ModelConfig, string) {
	ctx := DeriveRoutingContext(messages)
	out := append([]ModelConfig(nil), configs...)

	score := func(cfg ModelConfig) int {
		s := 0
		lower := strings.ToLower(cfg.ModelName)
		switch ctx.TaskType {
		case TaskCode:
			for i, name := range codePreference {
				if strings.Contains(lower, name) {
					s += (len(codePreference) - i) * 10
				}
			}
			if hasCapability(cfg, CapabilityCode) {
				s += 5
			}
		case TaskReasoning:
			for i, name := range reasoningPreference {
				if strings.Contains(lower, name) {
					s += (len(reasoningPreference) - i) * 10
				}
			}
			if hasCapability(cfg, CapabilityReasoning) {
				s += 5
			}
		case TaskVision:
			if hasCapability(cfg, CapabilityVision) {
				s += 20
			}
		default:
			if hasCapability(cfg, CapabilityFunction) {
				s += 5
			}
		}
		if ctx.Complexity == ComplexityLow && cfg.CostPer1MInput > 0 {
			s += int(100 / (1 + cfg.CostPer1MInput))
		}
		if ctx.Complexity == ComplexityHigh && hasCapability(cfg, CapabilityLongContext) {
			s += 10
		}
		return s
	}

	sort.SliceStable(out, func(i, j int) bool {
		si, sj := score(out[i]), score(out[j])
		if si != sj {
			return si > sj // DESC
		}
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, "smart: task=" + string(ctx.TaskType) + " complexity=" + string(ctx.Complexity)
}

func hasCapability(cfg ModelConfig, want Capability) bool {
	for _, c := range cfg.Capabilities {
		if c == want {
			return true
		}
	}
	return false
}
