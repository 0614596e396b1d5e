// Package llm provides a unified chat-completion provider abstraction.
// Providers register themselves via init() so the composition root can build
// one by name from configuration.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ChatProvider is a single-shot chat-completion backend.
type ChatProvider interface {
	// Complete issues one completion request against the given model and
	// returns the raw message text. An empty or whitespace-only body is a
	// failure, not a successful-but-vacant response.
	Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// Message represents one message of a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Role identifies the author of a message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ProviderFactory builds a provider from a configuration map.
type ProviderFactory func(config map[string]any) (ChatProvider, error)

var registry = &providerRegistry{
	providers: make(map[string]ProviderFactory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// RegisterProvider registers a provider factory under a name. Called from
// provider package init() functions.
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// NewProvider builds a provider instance by name.
func NewProvider(name string, config map[string]any) (ChatProvider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown chat provider: %s", name)
	}
	return factory(config)
}

// ListProviders lists all registered provider names.
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	return names
}

// ValidateCompletion applies the shared non-empty-body contract and returns
// the trimmed completion text.
func ValidateCompletion(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", fmt.Errorf("empty completion body")
	}
	return trimmed, nil
}
