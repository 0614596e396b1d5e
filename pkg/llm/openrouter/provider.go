// Package openrouter provides the OpenRouter chat-completion provider.
// OpenRouter exposes many upstream models behind one OpenAI-compatible API,
// which is what makes the ordered model-fallback list possible with a single
// backend.
//
// Basic usage:
//
//	import _ "github.com/kinko-io/faq-service/pkg/llm/openrouter"
//	import "github.com/kinko-io/faq-service/pkg/llm"
//
//	provider, err := llm.NewProvider("openrouter", map[string]any{
//	    "api_key": "sk-or-v1...",
//	})
package openrouter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/kinko-io/faq-service/pkg/llm"
	"github.com/kinko-io/faq-service/pkg/utils/httpclient"
	"github.com/kinko-io/faq-service/pkg/utils/json"
)

// ProviderName is the OpenRouter provider identifier.
const ProviderName = "openrouter"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config holds OpenRouter provider configuration.
type Config struct {
	// BaseURL is the API base address.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey is the OpenRouter API key.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// SiteURL is sent as HTTP-Referer for OpenRouter app attribution.
	SiteURL string `json:"site_url" mapstructure:"site_url"`

	// AppName is sent as X-Title for OpenRouter app attribution.
	AppName string `json:"app_name" mapstructure:"app_name"`

	// Temperature is fixed low to favor deterministic answers.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the transport-level retry budget per request.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "https://openrouter.ai/api/v1",
		Temperature: 0.2,
		Timeout:     60 * time.Second,
		MaxRetries:  2,
	}
}

// Provider implements llm.ChatProvider against the OpenRouter API.
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider builds an OpenRouter provider from a configuration map.
func NewProvider(configMap map[string]any) (llm.ChatProvider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["site_url"].(string); ok && v != "" {
		cfg.SiteURL = v
	}
	if v, ok := configMap["app_name"].(string); ok && v != "" {
		cfg.AppName = v
	}
	if v, ok := configMap["temperature"].(float64); ok && v > 0 {
		cfg.Temperature = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v > 0 {
		cfg.MaxRetries = v
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter: api_key is required")
	}

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig builds an OpenRouter provider from a structured config.
func NewProviderWithConfig(cfg *Config) *Provider {
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return ProviderName
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int         `json:"index"`
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}

// Complete issues one chat-completion request against the given model.
func (p *Provider) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: string(llm.RoleSystem), Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: string(llm.RoleUser), Content: userPrompt})

	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Stream:      false,
		Temperature: p.config.Temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	p.setHeaders(req)

	var chatResp chatResponse
	if err := p.client.DoJSON(req, &chatResp); err != nil {
		return "", err
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}

	return llm.ValidateCompletion(chatResp.Choices[0].Message.Content)
}

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	if p.config.SiteURL != "" {
		req.Header.Set("HTTP-Referer", p.config.SiteURL)
	}
	if p.config.AppName != "" {
		req.Header.Set("X-Title", p.config.AppName)
	}
}
