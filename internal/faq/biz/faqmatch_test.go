package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinko-io/faq-service/internal/model"
)

type stubFAQSource struct {
	items []model.FAQItem
	err   error
}

func (s *stubFAQSource) List(ctx context.Context) ([]model.FAQItem, error) {
	return s.items, s.err
}

func TestFAQMatcher_Match(t *testing.T) {
	source := &stubFAQSource{items: []model.FAQItem{
		{Handle: "age-minimum", Question: "À quel âge peut-on commencer le karaté ?", Answer: "Dès 6 ans.\nOui, dès 6 ans !"},
		{Handle: "tarifs", Question: "Quels sont les tarifs annuels ?", Answer: "Selon la formule choisie."},
	}}
	matcher := NewFAQMatcher(source, nil)

	result, ok := matcher.Match(context.Background(), "À quel âge peut-on commencer le karaté ?")
	require.True(t, ok)

	assert.Equal(t, model.ModeFAQ, result.Mode)
	assert.Equal(t, model.ConfidenceHigh, result.Confidence)
	assert.Equal(t, "- Dès 6 ans.\n- Oui, dès 6 ans !", result.Answer, "multi-line answers are bulletified")
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "/pages/faq#age-minimum", result.Sources[0].URL)
	assert.Contains(t, result.Sources[0].Label, "FAQ :")
}

func TestFAQMatcher_Match_BelowThreshold(t *testing.T) {
	source := &stubFAQSource{items: []model.FAQItem{
		{Handle: "tarifs", Question: "Quels sont les tarifs annuels ?", Answer: "Selon la formule."},
	}}
	matcher := NewFAQMatcher(source, nil)

	_, ok := matcher.Match(context.Background(), "Quelle est la prochaine compétition WKC ?")
	assert.False(t, ok)
}

func TestFAQMatcher_Match_SourceErrorDegrades(t *testing.T) {
	matcher := NewFAQMatcher(&stubFAQSource{err: fmt.Errorf("storefront down")}, nil)

	_, ok := matcher.Match(context.Background(), "À quel âge peut-on commencer ?")
	assert.False(t, ok, "catalog failure falls through to retrieval")
}

func TestFAQMatcher_Match_NilSource(t *testing.T) {
	matcher := NewFAQMatcher(nil, nil)
	_, ok := matcher.Match(context.Background(), "question")
	assert.False(t, ok)
}
