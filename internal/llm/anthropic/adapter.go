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

// Package anthropic adapts Anthropic's Messages API (Authorization: Bearer
// + anthropic-version headers, top-level "system" field, content blocks) to
// the gateway's Provider interface.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"taskflow/core/internal/llm"
	"taskflow/core/internal/llm/sse"
)

const defaultAPIVersion = "2023-06-01"

// Adapter speaks the Anthropic Messages API against cfg.BaseURL.
type Adapter struct {
	cfg        llm.ModelConfig
	client     *http.Client
	apiVersion string
}

var _ llm.Provider = (*Adapter)(nil)
var _ llm.StreamingProvider = (*Adapter)(nil)

// New constructs an Adapter for cfg. apiVersion defaults to
// defaultAPIVersion when empty.
func New(cfg llm.ModelConfig, client *http.Client, apiVersion string) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	return &Adapter{cfg: cfg, client: client, apiVersion: apiVersion}
}

func (a *Adapter) Name() string                   { return a.cfg.ID }
func (a *Adapter) Type() llm.ProviderType         { return a.cfg.Provider }
func (a *Adapter) Capabilities() []llm.Capability { return a.cfg.Capabilities }

func (a *Adapter) EstimateCost(promptTokens, completionTokens int) float64 {
	return llm.EstimateCost(a.cfg, promptTokens, completionTokens)
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	ID         string         `json:"id"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      anthropicUsage `json:"usage"`
	Error      *anthropicErr  `json:"error,omitempty"`
}

type anthropicErr struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (a *Adapter) buildRequest(req llm.CompletionRequest, stream bool) anthropicRequest {
	messages := make([]anthropicMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		messages = append(messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	model := a.cfg.ModelName
	if req.Metadata != nil {
		if override, ok := req.Metadata["model"].(string); ok && override != "" {
			model = override
		}
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	out := anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  messages,
		System:    req.SystemPrompt,
		Stream:    stream,
	}
	if req.Temperature > 0 {
		t := req.Temperature
		out.Temperature = &t
	}
	return out
}

func mapStopReason(reason string) llm.FinishReason {
	switch reason {
	case "end_turn", "stop_sequence":
		return llm.FinishStop
	case "max_tokens":
		return llm.FinishLength
	case "tool_use":
		return llm.FinishToolCalls
	default:
		return llm.FinishNone
	}
}

func (a *Adapter) newHTTPRequest(ctx context.Context, body anthropicRequest) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/messages", bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", a.apiVersion)
	return httpReq, nil
}

// Complete issues a single, non-streaming Messages API call (§4.A, §6).
func (a *Adapter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	httpReq, err := a.newHTTPRequest(ctx, a.buildRequest(req, false))
	if err != nil {
		return nil, llm.Classify(a.cfg.ID, 0, err.Error(), err)
	}
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, llm.Classify(a.cfg.ID, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, llm.Classify(a.cfg.ID, 0, err.Error(), err)
	}
	if resp.StatusCode >= 400 {
		return nil, llm.Classify(a.cfg.ID, resp.StatusCode, string(body), nil)
	}

	var wire anthropicResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, llm.Classify(a.cfg.ID, resp.StatusCode, "malformed response body", err)
	}
	if wire.Error != nil {
		return nil, llm.Classify(a.cfg.ID, resp.StatusCode, wire.Error.Message, nil)
	}

	var text strings.Builder
	for _, block := range wire.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &llm.CompletionResponse{
		ID:    wire.ID,
		Model: wire.Model,
		Choices: []llm.Choice{{
			Index:        0,
			Message:      llm.ChatMessage{Role: llm.RoleAssistant, Content: text.String()},
			FinishReason: mapStopReason(wire.StopReason),
		}},
		Usage: llm.UsageStats{
			PromptTokens:     wire.Usage.InputTokens,
			CompletionTokens: wire.Usage.OutputTokens,
			TotalTokens:      wire.Usage.InputTokens + wire.Usage.OutputTokens,
		},
		Created: time.Now(),
	}, nil
}

type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Message struct {
		ID    string `json:"id"`
		Model string `json:"model"`
	} `json:"message"`
}

// CompleteStream issues a streaming Messages API call, translating
// content_block_delta events into StreamChunks (§4.A, §6).
func (a *Adapter) CompleteStream(ctx context.Context, req llm.CompletionRequest, handler func(llm.StreamChunk) error) error {
	httpReq, err := a.newHTTPRequest(ctx, a.buildRequest(req, true))
	if err != nil {
		return llm.Classify(a.cfg.ID, 0, err.Error(), err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return llm.Classify(a.cfg.ID, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return llm.Classify(a.cfg.ID, resp.StatusCode, string(body), nil)
	}

	id, model := "", a.cfg.ModelName
	return sse.ForEachEvent(resp.Body, func(data string) error {
		var evt streamEvent
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			return nil
		}
		if evt.Message.ID != "" {
			id = evt.Message.ID
		}
		if evt.Message.Model != "" {
			model = evt.Message.Model
		}
		switch evt.Type {
		case "content_block_delta":
			return handler(llm.StreamChunk{
				ID:    id,
				Model: model,
				Delta: llm.ChatMessage{Role: llm.RoleAssistant, Content: evt.Delta.Text},
			})
		case "message_delta":
			if evt.Delta.StopReason != "" {
				return handler(llm.StreamChunk{
					ID:           id,
					Model:        model,
					FinishReason: mapStopReason(evt.Delta.StopReason),
					Done:         true,
				})
			}
		}
		return nil
	})
}

// Test issues a minimal completion as a latency probe (§4.A).
func (a *Adapter) Test(ctx context.Context) (*llm.HealthCheckResult, error) {
	start := time.Now()
	_, err := a.Complete(ctx, llm.CompletionRequest{
		Messages:  []llm.ChatMessage{{Role: llm.RoleUser, Content: "ping"}},
		MaxTokens: 10,
	})
	latency := time.Since(start)
	if err != nil {
		return &llm.HealthCheckResult{
			Status:      llm.HealthUnhealthy,
			Latency:     latency,
			Message:     err.Error(),
			LastChecked: time.Now(),
		}, fmt.Errorf("health check failed for %s: %w", a.cfg.ID, err)
	}
	return &llm.HealthCheckResult{
		Status:      llm.HealthHealthy,
		Latency:     latency,
		LastChecked: time.Now(),
	}, nil
}
