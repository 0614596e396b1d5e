// Package ollama provides a local Ollama chat-completion provider, used for
// development and offline testing without an OpenRouter key.
package ollama

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

// ProviderName is the Ollama provider identifier.
const ProviderName = "ollama"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config holds Ollama provider configuration.
type Config struct {
	// BaseURL is the Ollama server address.
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// Temperature controls generation randomness.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// Timeout is the per-request timeout. Local models can be slow on
	// first load, so the default is generous.
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries is the transport-level retry budget per request.
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     "http://localhost:11434",
		Temperature: 0.2,
		Timeout:     120 * time.Second,
		MaxRetries:  2,
	}
}

// Provider implements llm.ChatProvider against a local Ollama server.
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider builds an Ollama provider from a configuration map.
func NewProvider(configMap map[string]any) (llm.ChatProvider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
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

	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig builds an Ollama provider from a structured config.
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
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// Complete issues one chat request against the given model.
func (p *Provider) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: string(llm.RoleSystem), Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: string(llm.RoleUser), Content: userPrompt})

	reqBody := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  map[string]any{"temperature": p.config.Temperature},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var chatResp chatResponse
	if err := p.client.DoJSON(req, &chatResp); err != nil {
		return "", err
	}

	return llm.ValidateCompletion(chatResp.Message.Content)
}
