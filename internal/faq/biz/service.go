package biz

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kinko-io/faq-service/internal/faq/metrics"
	"github.com/kinko-io/faq-service/internal/faq/store"
	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/internal/pkg/faq/lexical"
	"github.com/kinko-io/faq-service/pkg/errors"
)

// Service is the question-answering entry point consumed by the handlers.
type Service interface {
	// Answer runs the full pipeline for one question.
	Answer(ctx context.Context, question, lang string) (*model.AnswerResult, error)
	// Reload discards the memoized document index so the next question
	// rebuilds it from the source.
	Reload(ctx context.Context) error
	// Stats reports service counters and cache/index state.
	Stats(ctx context.Context) (map[string]any, error)
}

// sourcesMarker recognizes the citation footer the prompt demands, e.g.
// "Sources : [1,2]". Its presence is half of the high-confidence signal.
var sourcesMarker = regexp.MustCompile(`(?i)sources\s*:?\s*\[[0-9#, ]+\]`)

// ServiceConfig bundles the per-component configurations.
type ServiceConfig struct {
	Ranker    *RankerConfig
	Resolver  *ResolverConfig
	FAQ       *FAQMatcherConfig
	Prompt    *PromptConfig
	Generator *GeneratorConfig
	Cache     *AnswerCacheConfig

	// ConfidenceThreshold is the minimum top-chunk score for a "high"
	// confidence answer. Unit-bound to the lexical scoring formula.
	ConfidenceThreshold float64
}

// DefaultServiceConfig returns the default configuration.
func DefaultServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Ranker:              DefaultRankerConfig(),
		Resolver:            DefaultResolverConfig(),
		FAQ:                 DefaultFAQMatcherConfig(),
		Prompt:              DefaultPromptConfig(),
		Generator:           DefaultGeneratorConfig(),
		Cache:               DefaultAnswerCacheConfig(),
		ConfidenceThreshold: 0.72,
	}
}

// FAQService wires the pipeline components together.
type FAQService struct {
	index     *store.Index
	ranker    *Ranker
	resolver  *EventResolver
	faqs      *FAQMatcher
	prompts   *PromptBuilder
	generator *Generator
	cache     *AnswerCache
	metrics   *metrics.FAQMetrics
	config    *ServiceConfig

	now func() time.Time
}

// NewFAQService builds the service from its collaborators. events and faqs
// may be nil; the corresponding enrichments are then skipped.
func NewFAQService(
	index *store.Index,
	events store.EventSource,
	faqs store.FAQSource,
	generator *Generator,
	cache *AnswerCache,
	config *ServiceConfig,
) (*FAQService, error) {
	if config == nil {
		config = DefaultServiceConfig()
	}

	ranker, err := NewRanker(config.Ranker)
	if err != nil {
		return nil, err
	}

	return &FAQService{
		index:     index,
		ranker:    ranker,
		resolver:  NewEventResolver(events, config.Resolver),
		faqs:      NewFAQMatcher(faqs, config.FAQ),
		prompts:   NewPromptBuilder(config.Prompt),
		generator: generator,
		cache:     cache,
		metrics:   metrics.Get(),
		config:    config,
		now:       time.Now,
	}, nil
}

// Close releases pipeline resources.
func (s *FAQService) Close() {
	s.ranker.Close()
}

// Answer implements the full pipeline: validation, cache, FAQ direct match,
// ranking with optional event override, prompt assembly, model fallback, and
// answer assembly.
func (s *FAQService) Answer(ctx context.Context, question, lang string) (*model.AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		s.metrics.RecordQuestion(false, errors.ErrInvalidInput)
		return nil, errors.ErrInvalidInput
	}

	if cached := s.cache.Get(ctx, question, lang); cached != nil {
		s.metrics.RecordQuestion(true, nil)
		return cached, nil
	}

	if result, ok := s.faqs.Match(ctx, question); ok {
		s.metrics.RecordFAQMatch()
		s.metrics.RecordQuestion(false, nil)
		s.cache.Set(ctx, question, lang, result)
		return result, nil
	}

	chunks, scorer, err := s.index.Snapshot(ctx)
	if err != nil {
		s.metrics.RecordQuestion(false, err)
		return nil, errors.ErrUpstream.WithCause(err)
	}

	rankStart := time.Now()
	ranked := s.ranker.TopK(lexical.QueryTokens(question), chunks, scorer, 0)
	s.metrics.RecordRanking(time.Since(rankStart))

	mode := model.ModeRAG
	if event, _ := s.resolver.Resolve(ctx, question, s.now()); event != nil {
		ranked = append([]model.ScoredChunk{s.resolver.OverrideChunk(event)}, ranked...)
		mode = model.ModeEvent
		s.metrics.RecordEventOverride()
		logger.Infow("Event override injected", "event", event.Title, "start", event.Start)
	}

	systemMsg, userMsg, sources := s.prompts.Build(question, lang, ranked)

	llmStart := time.Now()
	text, modelUsed, err := s.generator.Generate(ctx, systemMsg, userMsg)
	if err != nil {
		s.metrics.RecordLLMCall(time.Since(llmStart), false, err)
		s.metrics.RecordQuestion(false, err)
		return nil, err
	}
	s.metrics.RecordLLMCall(time.Since(llmStart), !s.isFirstModel(modelUsed), nil)

	result := s.assemble(text, ranked, sources, mode)
	s.cache.Set(ctx, question, lang, result)
	s.metrics.RecordQuestion(false, nil)
	return result, nil
}

func (s *FAQService) isFirstModel(modelID string) bool {
	return len(s.config.Generator.Models) > 0 && s.config.Generator.Models[0] == modelID
}

// assemble trims the completion and derives the confidence signal: high
// requires both the citation marker in the text and a top chunk above the
// configured score threshold.
func (s *FAQService) assemble(text string, ranked []model.ScoredChunk, sources []model.Source, mode string) *model.AnswerResult {
	confidence := model.ConfidenceLow
	if sourcesMarker.MatchString(text) && len(ranked) > 0 && ranked[0].Score > s.config.ConfidenceThreshold {
		confidence = model.ConfidenceHigh
	}

	return &model.AnswerResult{
		Answer:     strings.TrimSpace(text),
		Sources:    sources,
		Confidence: confidence,
		Mode:       mode,
	}
}

// Reload drops the memoized index.
func (s *FAQService) Reload(ctx context.Context) error {
	s.index.Reset()
	logger.Infow("Document index reset, next question reloads it")
	return nil
}

// Stats reports metrics, cache state, and index state.
func (s *FAQService) Stats(ctx context.Context) (map[string]any, error) {
	stats := s.metrics.Stats()
	stats["cache"] = s.cache.Stats(ctx)
	stats["index"] = map[string]any{
		"loaded": s.index.Loaded(),
	}
	return stats, nil
}
