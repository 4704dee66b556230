// Package qwen adapts Alibaba's DashScope generation API for Qwen models.
// The wire shape nests messages under "input" and sampling parameters
// under "parameters" rather than flattening them like the OpenAI-compatible
// providers, and streaming is toggled with an "X-DashScope-SSE: enable"
// header instead of a body field (§6 "Qwen uses the DashScope request
// shape with a header-based streaming toggle").
package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taskflow/core/internal/llm"
	"taskflow/core/internal/llm/sse"
)

const defaultBaseURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// Adapter speaks the DashScope generation protocol.
type Adapter struct {
	cfg    llm.ModelConfig
	client *http.Client
}

var _ llm.Provider = (*Adapter)(nil)
var _ llm.StreamingProvider = (*Adapter)(nil)

// New constructs an Adapter for cfg.
func New(cfg llm.ModelConfig, client *http.Client) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Adapter{cfg: cfg, client: client}
}

func (a *Adapter) Name() string                   { return a.cfg.ID }
func (a *Adapter) Type() llm.ProviderType         { return a.cfg.Provider }
func (a *Adapter) Capabilities() []llm.Capability { return a.cfg.Capabilities }

func (a *Adapter) EstimateCost(promptTokens, completionTokens int) float64 {
	return llm.EstimateCost(a.cfg, promptTokens, completionTokens)
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireInput struct {
	Messages []wireMessage `json:"messages"`
}

type wireParameters struct {
	Temperature       float64 `json:"temperature,omitempty"`
	MaxTokens         int     `json:"max_tokens,omitempty"`
	ResultFormat      string  `json:"result_format,omitempty"`
	IncrementalOutput bool    `json:"incremental_output,omitempty"`
}

type wireRequest struct {
	Model      string         `json:"model"`
	Input      wireInput      `json:"input"`
	Parameters wireParameters `json:"parameters,omitempty"`
}

type wireOutputChoice struct {
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireOutput struct {
	Choices []wireOutputChoice `json:"choices"`
	Text    string             `json:"text"`
}

type wireUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type wireResponse struct {
	RequestID string     `json:"request_id"`
	Output    wireOutput `json:"output"`
	Usage     wireUsage  `json:"usage"`
	Code      string     `json:"code"`
	Message   string     `json:"message"`
}

func (a *Adapter) buildRequest(req llm.CompletionRequest) wireRequest {
	messages := make([]wireMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, wireMessage{Role: "system", Content: req.SystemPrompt})
	}
	for _, m := range req.Messages {
		messages = append(messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	model := a.cfg.ModelName
	if req.Metadata != nil {
		if override, ok := req.Metadata["model"].(string); ok && override != "" {
			model = override
		}
	}
	return wireRequest{
		Model: model,
		Input: wireInput{Messages: messages},
		Parameters: wireParameters{
			Temperature:  req.Temperature,
			MaxTokens:    req.MaxTokens,
			ResultFormat: "message",
		},
	}
}

func (a *Adapter) newHTTPRequest(ctx context.Context, body wireRequest, stream bool) (*http.Request, error) {
	if stream {
		body.Parameters.IncrementalOutput = true
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	if stream {
		httpReq.Header.Set("X-DashScope-SSE", "enable")
		httpReq.Header.Set("Accept", "text/event-stream")
	}
	return httpReq, nil
}

func toChoice(c wireOutputChoice) llm.Choice {
	return llm.Choice{
		Message:      llm.ChatMessage{Role: llm.Role(c.Message.Role), Content: c.Message.Content},
		FinishReason: llm.FinishReason(c.FinishReason),
	}
}

// Complete issues a single, non-streaming generation request (§4.A, §6).
func (a *Adapter) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	httpReq, err := a.newHTTPRequest(ctx, a.buildRequest(req), false)
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

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, llm.Classify(a.cfg.ID, resp.StatusCode, "malformed response body", err)
	}
	if wire.Code != "" {
		return nil, llm.Classify(a.cfg.ID, resp.StatusCode, wire.Message, nil)
	}

	choices := make([]llm.Choice, 0, len(wire.Output.Choices))
	for i, c := range wire.Output.Choices {
		choice := toChoice(c)
		choice.Index = i
		choices = append(choices, choice)
	}
	if len(choices) == 0 && wire.Output.Text != "" {
		choices = append(choices, llm.Choice{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: wire.Output.Text}, FinishReason: llm.FinishStop})
	}

	return &llm.CompletionResponse{
		ID:      wire.RequestID,
		Model:   a.cfg.ModelName,
		Choices: choices,
		Usage: llm.UsageStats{
			PromptTokens:     wire.Usage.InputTokens,
			CompletionTokens: wire.Usage.OutputTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		},
		Created: time.Now(),
	}, nil
}

// CompleteStream issues a streaming generation request with incremental
// output, toggled via the X-DashScope-SSE header (§6).
func (a *Adapter) CompleteStream(ctx context.Context, req llm.CompletionRequest, handler func(llm.StreamChunk) error) error {
	httpReq, err := a.newHTTPRequest(ctx, a.buildRequest(req), true)
	if err != nil {
		return llm.Classify(a.cfg.ID, 0, err.Error(), err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return llm.Classify(a.cfg.ID, 0, err.Error(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return llm.Classify(a.cfg.ID, resp.StatusCode, string(body), nil)
	}

	return sse.ForEachEvent(resp.Body, func(data string) error {
		var wire wireResponse
		if err := json.Unmarshal([]byte(data), &wire); err != nil {
			return nil
		}
		if len(wire.Output.Choices) == 0 {
			return nil
		}
		c := wire.Output.Choices[0]
		return handler(llm.StreamChunk{
			ID:           wire.RequestID,
			Model:        a.cfg.ModelName,
			Delta:        llm.ChatMessage{Role: llm.RoleAssistant, Content: c.Message.Content},
			FinishReason: llm.FinishReason(c.FinishReason),
			Done:         c.FinishReason != "" && c.FinishReason != "null",
		})
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
	return &llm.HealthCheckResult{Status: llm.HealthHealthy, Latency: latency, LastChecked: time.Now()}, nil
}
