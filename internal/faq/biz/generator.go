package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kinko-io/faq-service/pkg/errors"
	"github.com/kinko-io/faq-service/pkg/llm"
)

// GeneratorConfig configures the completion fallback chain.
type GeneratorConfig struct {
	// Models is the ordered candidate list; the first entry is preferred.
	Models []string
	// DefaultModel is the last-resort model, attempted once more if it was
	// not already part of Models.
	DefaultModel string
}

// DefaultGeneratorConfig returns the default configuration.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Models:       []string{"meta-llama/llama-3.1-8b-instruct:free"},
		DefaultModel: "meta-llama/llama-3.1-8b-instruct:free",
	}
}

// Validate checks that at least one candidate is configured.
func (c *GeneratorConfig) Validate() error {
	if len(c.Models) == 0 && c.DefaultModel == "" {
		return fmt.Errorf("generator: at least one model is required")
	}
	return nil
}

// attempt is the tagged outcome of one completion call.
type attempt struct {
	model string
	text  string
	err   error
}

// Generator obtains an answer from the chat backend, walking the candidate
// model list in order until one succeeds.
type Generator struct {
	provider llm.ChatProvider
	config   *GeneratorConfig
}

// NewGenerator creates a generator.
func NewGenerator(provider llm.ChatProvider, config *GeneratorConfig) *Generator {
	if config == nil {
		config = DefaultGeneratorConfig()
	}
	return &Generator{provider: provider, config: config}
}

// Generate tries each candidate model sequentially and returns the first
// successful completion together with the model that produced it. A failure
// of every candidate (plus the default-model last resort) returns a
// ModelExhaustedError naming everything attempted.
func (g *Generator) Generate(ctx context.Context, systemMsg, userMsg string) (string, string, error) {
	attempted := make([]string, 0, len(g.config.Models)+1)
	var last attempt

	for _, model := range g.config.Models {
		last = g.tryModel(ctx, model, systemMsg, userMsg)
		attempted = append(attempted, model)
		if last.err == nil {
			return last.text, last.model, nil
		}
	}

	// The default model gets one last chance if the candidate list did not
	// already cover it.
	if d := g.config.DefaultModel; d != "" && !contains(attempted, d) {
		last = g.tryModel(ctx, d, systemMsg, userMsg)
		attempted = append(attempted, d)
		if last.err == nil {
			return last.text, last.model, nil
		}
	}

	return "", "", &errors.ModelExhaustedError{
		Models:  attempted,
		LastErr: last.err,
	}
}

func (g *Generator) tryModel(ctx context.Context, model, systemMsg, userMsg string) attempt {
	text, err := g.provider.Complete(ctx, model, systemMsg, userMsg)
	if err != nil {
		logger.Warnw("Completion attempt failed, advancing to next candidate",
			"model", model, "error", err.Error())
		return attempt{model: model, err: err}
	}
	return attempt{model: model, text: text}
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
