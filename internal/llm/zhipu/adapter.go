// Package zhipu adapts Zhipu AI's GLM chat-completions API. Authentication
// differs from the OpenAI-compatible providers: the configured API key is
// "{id}.{secret}", and each request carries a short-lived HS256 JWT signed
// over {api_key, exp, timestamp} instead of a raw bearer token (§6 "Zhipu
// uses JWT-signed auth derived from a split API key").
package zhipu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"taskflow/core/internal/llm"
	"taskflow/core/internal/llm/sse"
)

const defaultBaseURL = "https://open.bigmodel.cn/api/paas/v4/chat/completions"

// tokenTTL is how long a signed token remains valid; §6 recommends a short
// window since the signature embeds its own expiry.
const tokenTTL = 5 * time.Minute

// Adapter speaks Zhipu's chat-completions protocol.
type Adapter struct {
	cfg        llm.ModelConfig
	client     *http.Client
	id, secret string
}

var _ llm.Provider = (*Adapter)(nil)
var _ llm.StreamingProvider = (*Adapter)(nil)

// New constructs an Adapter for cfg. cfg.APIKey must be "{id}.{secret}".
func New(cfg llm.ModelConfig, client *http.Client) (*Adapter, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	parts := strings.SplitN(cfg.APIKey, ".", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("zhipu: api key must be \"id.secret\", got malformed key for %s", cfg.ID)
	}
	return &Adapter{cfg: cfg, client: client, id: parts[0], secret: parts[1]}, nil
}

func (a *Adapter) Name() string                   { return a.cfg.ID }
func (a *Adapter) Type() llm.ProviderType         { return a.cfg.Provider }
func (a *Adapter) Capabilities() []llm.Capability { return a.cfg.Capabilities }

func (a *Adapter) EstimateCost(promptTokens, completionTokens int) float64 {
	return llm.EstimateCost(a.cfg, promptTokens, completionTokens)
}

// signToken builds the HS256 JWT Zhipu expects: header carries a
// "sign_type": "SIGN" extension, claims carry api_key/exp/timestamp in
// milliseconds.
func (a *Adapter) signToken(now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"api_key":   a.id,
		"exp":       now.Add(tokenTTL).UnixMilli(),
		"timestamp": now.UnixMilli(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["sign_type"] = "SIGN"
	return token.SignedString([]byte(a.secret))
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireChoice struct {
	Index        int         `json:"index"`
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   wireUsage    `json:"usage"`
	Error   *wireError   `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *Adapter) buildRequest(req llm.CompletionRequest, stream bool) wireRequest {
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
	return wireRequest{Model: model, Messages: messages, Temperature: req.Temperature, MaxTokens: req.MaxTokens, Stream: stream}
}

func (a *Adapter) newHTTPRequest(ctx context.Context, body wireRequest) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	token, err := a.signToken(time.Now())
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	return httpReq, nil
}

// Complete issues a single, non-streaming completion request (§4.A, §6).
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

	var wire wireResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, llm.Classify(a.cfg.ID, resp.StatusCode, "malformed response body", err)
	}
	if wire.Error != nil {
		return nil, llm.Classify(a.cfg.ID, resp.StatusCode, wire.Error.Message, nil)
	}

	choices := make([]llm.Choice, len(wire.Choices))
	for i, c := range wire.Choices {
		choices[i] = llm.Choice{
			Index:        c.Index,
			Message:      llm.ChatMessage{Role: llm.Role(c.Message.Role), Content: c.Message.Content},
			FinishReason: llm.FinishReason(c.FinishReason),
		}
	}
	return &llm.CompletionResponse{
		ID:      wire.ID,
		Model:   wire.Model,
		Choices: choices,
		Usage: llm.UsageStats{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		},
		Created: time.Now(),
	}, nil
}

type wireStreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Delta        wireMessage `json:"delta"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// CompleteStream issues a streaming completion request (§4.A, §6).
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

	return sse.ForEachEvent(resp.Body, func(data string) error {
		var chunk wireStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil
		}
		if len(chunk.Choices) == 0 {
			return nil
		}
		c := chunk.Choices[0]
		return handler(llm.StreamChunk{
			ID:           chunk.ID,
			Model:        chunk.Model,
			Delta:        llm.ChatMessage{Role: llm.Role(c.Delta.Role), Content: c.Delta.Content},
			FinishReason: llm.FinishReason(c.FinishReason),
			Done:         c.FinishReason != "",
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
