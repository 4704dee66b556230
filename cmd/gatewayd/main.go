// Package main is the entry point for the gateway daemon: it wires the
// multi-provider model gateway (internal/llm) and the task orchestration
// engine (internal/schedule) behind a small HTTP surface.
//
// Usage:
//
//	./gatewayd
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8090)
//	OPENAI_API_KEY, DEEPSEEK_API_KEY, MOONSHOT_API_KEY, SPARK_API_KEY - OpenAI-compatible providers
//	ANTHROPIC_API_KEY - Anthropic
//	ZHIPU_API_KEY - Zhipu, formatted "{id}.{secret}"
//	QWEN_API_KEY - Qwen / DashScope
//	BAIDU_API_KEY - Baidu, formatted "{client_id}:{client_secret}"
//	GATEWAY_ADMIN_SECRET - HMAC secret for the admin token authenticator
package main

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"taskflow/core/internal/llm"
	"taskflow/core/internal/llm/anthropic"
	"taskflow/core/internal/llm/baidu"
	"taskflow/core/internal/llm/openaicompat"
	"taskflow/core/internal/llm/qwen"
	"taskflow/core/internal/llm/zhipu"
)

func main() {
	registry := llm.NewRegistry()
	registerConfiguredProviders(registry)

	gateway := llm.NewGateway(registry, llm.DefaultGatewayConfig())
	gateway.Metrics = llm.NewMetrics(prometheus.DefaultRegisterer)

	adminSecret := os.Getenv("GATEWAY_ADMIN_SECRET")
	if adminSecret == "" {
		log.Println("gatewayd: GATEWAY_ADMIN_SECRET unset, generating an ephemeral admin secret")
		adminSecret = randomSecret()
	}

	s := &server{
		gateway: gateway,
		auth:    llm.NewAdminAuthenticator([]byte(adminSecret), 0),
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	log.Printf("gatewayd: listening on :%s with %d configured models", port, len(registry.All()))
	log.Fatal(http.ListenAndServe(":"+port, newRouter(s)))
}

// registerConfiguredProviders builds one adapter per provider whose API key
// is present in the environment, mirroring the teacher's env-var-hierarchy
// LoadLLMConfig pattern (orchestrator/run.go) generalized to eight providers.
func registerConfiguredProviders(registry *llm.Registry) {
	client := &http.Client{}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg := llm.ModelConfig{
			ID: "openai-gpt-4o", Provider: llm.ProviderOpenAICompatible, ModelName: "gpt-4o",
			BaseURL: "https://api.openai.com/v1/chat/completions", APIKey: key, Enabled: true, Priority: 1,
			Capabilities: []llm.Capability{llm.CapabilityChat, llm.CapabilityVision, llm.CapabilityFunction},
			CostPer1MInput: 2.5, CostPer1MOutput: 10,
		}
		registry.Add(cfg, openaicompat.New(cfg, client))
	}
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		cfg := llm.ModelConfig{
			ID: "deepseek-chat", Provider: llm.ProviderDeepSeek, ModelName: "deepseek-chat",
			BaseURL: "https://api.deepseek.com/v1/chat/completions", APIKey: key, Enabled: true, Priority: 2,
			Capabilities: []llm.Capability{llm.CapabilityChat, llm.CapabilityCode},
			CostPer1MInput: 0.14, CostPer1MOutput: 0.28,
		}
		registry.Add(cfg, openaicompat.New(cfg, client))
	}
	if key := os.Getenv("MOONSHOT_API_KEY"); key != "" {
		cfg := llm.ModelConfig{
			ID: "moonshot-v1", Provider: llm.ProviderMoonshot, ModelName: "moonshot-v1-128k",
			BaseURL: "https://api.moonshot.cn/v1/chat/completions", APIKey: key, Enabled: true, Priority: 3,
			Capabilities: []llm.Capability{llm.CapabilityChat, llm.CapabilityLongContext},
		}
		registry.Add(cfg, openaicompat.New(cfg, client))
	}
	if key := os.Getenv("SPARK_API_KEY"); key != "" {
		cfg := llm.ModelConfig{
			ID: "spark-v4", Provider: llm.ProviderSpark, ModelName: "spark-4.0",
			BaseURL: "https://spark-api-open.xf-yun.com/v1/chat/completions", APIKey: key, Enabled: true, Priority: 4,
			Capabilities: []llm.Capability{llm.CapabilityChat},
		}
		registry.Add(cfg, openaicompat.New(cfg, client))
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg := llm.ModelConfig{
			ID: "claude-3-5-sonnet", Provider: llm.ProviderAnthropic, ModelName: "claude-3-5-sonnet-20241022",
			APIKey: key, Enabled: true, Priority: 0,
			Capabilities: []llm.Capability{llm.CapabilityChat, llm.CapabilityReasoning, llm.CapabilityVision, llm.CapabilityLongContext},
			CostPer1MInput: 3, CostPer1MOutput: 15,
		}
		registry.Add(cfg, anthropic.New(cfg, client, ""))
	}
	if key := os.Getenv("ZHIPU_API_KEY"); key != "" {
		cfg := llm.ModelConfig{
			ID: "glm-4", Provider: llm.ProviderZhipu, ModelName: "glm-4",
			APIKey: key, Enabled: true, Priority: 5,
			Capabilities: []llm.Capability{llm.CapabilityChat, llm.CapabilityCode},
		}
		adapter, err := zhipu.New(cfg, client)
		if err != nil {
			log.Printf("gatewayd: skipping zhipu: %v", err)
		} else {
			registry.Add(cfg, adapter)
		}
	}
	if key := os.Getenv("QWEN_API_KEY"); key != "" {
		cfg := llm.ModelConfig{
			ID: "qwen-plus", Provider: llm.ProviderQwen, ModelName: "qwen-plus",
			APIKey: key, Enabled: true, Priority: 3,
			Capabilities: []llm.Capability{llm.CapabilityChat, llm.CapabilityReasoning},
		}
		registry.Add(cfg, qwen.New(cfg, client))
	}
	if key := os.Getenv("BAIDU_API_KEY"); key != "" {
		cfg := llm.ModelConfig{
			ID: "ernie-bot-4", Provider: llm.ProviderBaidu, ModelName: "ernie-bot-4",
			APIKey: key, Enabled: true, Priority: 6,
			Capabilities: []llm.Capability{llm.CapabilityChat},
		}
		adapter, err := baidu.New(cfg, client)
		if err != nil {
			log.Printf("gatewayd: skipping baidu: %v", err)
		} else {
			registry.Add(cfg, adapter)
		}
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "insecure-fallback-secret-change-me"
	}
	return hex.EncodeToString(b)
}
