package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kinko-io/faq-service/internal/faq/store"
	"github.com/kinko-io/faq-service/internal/model"
	"github.com/kinko-io/faq-service/internal/pkg/faq/lexical"
	"github.com/kinko-io/faq-service/internal/pkg/faq/textutil"
)

// FAQMatcherConfig configures the curated-FAQ direct match.
type FAQMatcherConfig struct {
	// Threshold is the minimum token-set similarity for a direct hit.
	Threshold float64
}

// DefaultFAQMatcherConfig returns the default configuration.
func DefaultFAQMatcherConfig() *FAQMatcherConfig {
	return &FAQMatcherConfig{Threshold: 0.78}
}

// FAQMatcher answers questions straight from the curated FAQ catalog when
// one entry is similar enough, skipping retrieval and the language model
// entirely.
type FAQMatcher struct {
	source store.FAQSource
	config *FAQMatcherConfig
}

// NewFAQMatcher creates a FAQ matcher. source may be nil, in which case
// matching always misses.
func NewFAQMatcher(source store.FAQSource, config *FAQMatcherConfig) *FAQMatcher {
	if config == nil {
		config = DefaultFAQMatcherConfig()
	}
	return &FAQMatcher{source: source, config: config}
}

// Match returns a ready answer when one FAQ entry clears the similarity
// threshold against the question. Catalog failures degrade to a miss.
func (m *FAQMatcher) Match(ctx context.Context, question string) (*model.AnswerResult, bool) {
	if m.source == nil {
		return nil, false
	}

	items, err := m.source.List(ctx)
	if err != nil {
		logger.Warnw("FAQ catalog unavailable, falling through to retrieval", "error", err.Error())
		return nil, false
	}

	var best *model.FAQItem
	var bestScore float64
	for i := range items {
		s := lexical.Similarity(question, items[i].Question+" "+items[i].Answer)
		if s > bestScore {
			best = &items[i]
			bestScore = s
		}
	}

	if best == nil || bestScore <= m.config.Threshold {
		return nil, false
	}

	logger.Infow("Direct FAQ match", "handle", best.Handle, "similarity", bestScore)
	return &model.AnswerResult{
		Answer: textutil.Bulletify(best.Answer),
		Sources: []model.Source{{
			ID:    1,
			URL:   fmt.Sprintf("/pages/faq#%s", best.Handle),
			Label: fmt.Sprintf("FAQ : %s", best.Question),
			Score: bestScore,
		}},
		Confidence: model.ConfidenceHigh,
		Mode:       model.ModeFAQ,
	}, true
}
