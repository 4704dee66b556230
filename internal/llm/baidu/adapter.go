// Package baidu adapts Baidu's ERNIE Bot chat-completions API. Baidu does
// not take a static API key on each request; instead the adapter exchanges
// a client_id/client_secret pair (carried as "{id}:{secret}" in
// ModelConfig.APIKey) for a short-lived OAuth2 access token via the
// client_credentials grant, caches it, and appends it to every request URL
// as the "access_token" query parameter (§6 "Baidu uses OAuth2
// client-credentials with a cached, refreshed token").
package baidu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"taskflow/core/internal/llm"
	"taskflow/core/internal/llm/sse"
)

const (
	defaultBaseURL  = "https://aip.baidubce.com/rpc/2.0/ai_custom/v1/wenxinworkshop/chat/ernie-bot-4"
	oauthTokenURL   = "https://aip.baidubce.com/oauth/2.0/token"
	tokenRefreshPad = 60 * time.Second // refresh this long before actual expiry
)

// Adapter speaks the ERNIE Bot protocol, managing its own OAuth2 token.
type Adapter struct {
	cfg                  llm.ModelConfig
	client               *http.Client
	clientID, clientSecret string
	tokenURL               string

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

var _ llm.Provider = (*Adapter)(nil)
var _ llm.StreamingProvider = (*Adapter)(nil)

// New constructs an Adapter for cfg. cfg.APIKey must be "{client_id}:{client_secret}".
func New(cfg llm.ModelConfig, client *http.Client) (*Adapter, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	parts := strings.SplitN(cfg.APIKey, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("baidu: api key must be \"client_id:client_secret\", got malformed key for %s", cfg.ID)
	}
	return &Adapter{cfg: cfg, client: client, clientID: parts[0], clientSecret: parts[1], tokenURL: oauthTokenURL}, nil
}

func (a *Adapter) Name() string                   { return a.cfg.ID }
func (a *Adapter) Type() llm.ProviderType         { return a.cfg.Provider }
func (a *Adapter) Capabilities() []llm.Capability { return a.cfg.Capabilities }

func (a *Adapter) EstimateCost(promptTokens, completionTokens int) float64 {
	return llm.EstimateCost(a.cfg, promptTokens, completionTokens)
}

type oauthResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// token returns a cached access token, refreshing it if absent or near
// expiry.
func (a *Adapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.expiresAt) {
		return a.accessToken, nil
	}

	q := url.Values{}
	q.Set("grant_type", "client_credentials")
	q.Set("client_id", a.clientID)
	q.Set("client_secret", a.clientSecret)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var oauth oauthResponse
	if err := json.Unmarshal(body, &oauth); err != nil {
		return "", fmt.Errorf("baidu: malformed oauth response: %w", err)
	}
	if oauth.Error != "" {
		return "", fmt.Errorf("baidu: oauth error %s: %s", oauth.Error, oauth.ErrorDesc)
	}

	a.accessToken = oauth.AccessToken
	a.expiresAt = time.Now().Add(time.Duration(oauth.ExpiresIn)*time.Second - tokenRefreshPad)
	return a.accessToken, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Messages    []wireMessage `json:"messages"`
	System      string        `json:"system,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireResponse struct {
	ID           string    `json:"id"`
	Result       string    `json:"result"`
	IsTruncated  bool      `json:"is_truncated"`
	Usage        wireUsage `json:"usage"`
	ErrorCode    int       `json:"error_code"`
	ErrorMsg     string    `json:"error_msg"`
}

func (a *Adapter) buildRequest(req llm.CompletionRequest, stream bool) wireRequest {
	messages := make([]wireMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		messages = append(messages, wireMessage{Role: string(m.Role), Content: m.Content})
	}
	return wireRequest{Messages: messages, System: req.SystemPrompt, Temperature: req.Temperature, Stream: stream}
}

func (a *Adapter) newHTTPRequest(ctx context.Context, body wireRequest) (*http.Request, error) {
	accessToken, err := a.token(ctx)
	if err != nil {
		return nil, err
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("access_token", accessToken)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"?"+q.Encode(), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func finishReasonFor(truncated bool) llm.FinishReason {
	if truncated {
		return llm.FinishLength
	}
	return llm.FinishStop
}

// Complete issues a single, non-streaming chat request (§4.A, §6).
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
	if wire.ErrorCode != 0 {
		return nil, llm.Classify(a.cfg.ID, resp.StatusCode, wire.ErrorMsg, nil)
	}

	return &llm.CompletionResponse{
		ID:    wire.ID,
		Model: a.cfg.ModelName,
		Choices: []llm.Choice{{
			Message:      llm.ChatMessage{Role: llm.RoleAssistant, Content: wire.Result},
			FinishReason: finishReasonFor(wire.IsTruncated),
		}},
		Usage: llm.UsageStats{
			PromptTokens:     wire.Usage.PromptTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
			TotalTokens:      wire.Usage.TotalTokens,
		},
		Created: time.Now(),
	}, nil
}

// CompleteStream issues a streaming chat request (§4.A, §6).
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
		var wire wireResponse
		if err := json.Unmarshal([]byte(data), &wire); err != nil {
			return nil
		}
		return handler(llm.StreamChunk{
			ID:           wire.ID,
			Model:        a.cfg.ModelName,
			Delta:        llm.ChatMessage{Role: llm.RoleAssistant, Content: wire.Result},
			FinishReason: finishReasonFor(wire.IsTruncated),
		})
	})
}

// Test issues a minimal completion as a latency probe, exercising token
// acquisition as part of the probe (§4.A).
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
